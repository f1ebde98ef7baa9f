package services

import (
	"context"
	"testing"
	"time"

	"github.com/VictorBagz/KBR/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMatchFixture(t *testing.T) (*LiveMatchService, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	broker := NewChangeBroker()
	t.Cleanup(broker.Close)
	return NewLiveMatchService(db, broker), db
}

func TestCreatePlaceholderDefaults(t *testing.T) {
	matches, _ := newMatchFixture(t)

	match, err := matches.CreatePlaceholder(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, match.ID)
	assert.Equal(t, models.StatusUpcoming, match.Status)
	assert.Equal(t, 0, match.HomeScore)
	assert.Equal(t, 0, match.AwayScore)
	assert.Equal(t, "00:00", match.MatchTime)
	assert.Equal(t, "TBC", match.Venue)
	assert.Equal(t, "Friendly", match.Competition)
	assert.False(t, match.StartTime.IsZero())
}

func TestFeaturedMatchPrefersLive(t *testing.T) {
	matches, db := newMatchFixture(t)
	ctx := context.Background()

	older, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)
	newer, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)

	// The LIVE match wins even when another record started later.
	require.NoError(t, db.Model(&models.LiveMatch{}).
		Where("id = ?", older.ID).Update("status", models.StatusLive).Error)
	require.NoError(t, db.Model(&models.LiveMatch{}).
		Where("id = ?", newer.ID).Update("start_time", time.Now().Add(time.Hour)).Error)

	featured, err := matches.FeaturedMatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, older.ID, featured.ID)
}

func TestFeaturedMatchFallsBackToNewest(t *testing.T) {
	matches, db := newMatchFixture(t)
	ctx := context.Background()

	first, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)
	second, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)

	// No LIVE match anywhere; a FINISHED match can still be featured so the
	// admin Live tab always has something loaded.
	require.NoError(t, db.Model(&models.LiveMatch{}).
		Where("id = ?", first.ID).Update("start_time", time.Now().Add(-2*time.Hour)).Error)
	require.NoError(t, db.Model(&models.LiveMatch{}).
		Where("id = ?", second.ID).Updates(map[string]interface{}{
		"status":     models.StatusFinished,
		"start_time": time.Now().Add(-time.Hour),
	}).Error)

	featured, err := matches.FeaturedMatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, featured.ID)
	assert.Equal(t, models.StatusFinished, featured.Status)
}

func TestEnsureFeaturedProvisionsWhenEmpty(t *testing.T) {
	matches, _ := newMatchFixture(t)
	ctx := context.Background()

	_, err := matches.FeaturedMatch(ctx)
	assert.ErrorIs(t, err, ErrMatchNotFound)

	match, err := matches.EnsureFeatured(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, match.Status)

	again, err := matches.EnsureFeatured(ctx)
	require.NoError(t, err)
	assert.Equal(t, match.ID, again.ID)
}

func TestSetStatusTransitions(t *testing.T) {
	matches, _ := newMatchFixture(t)
	ctx := context.Background()

	match, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)

	require.NoError(t, matches.SetStatus(ctx, match.ID, models.StatusLive))
	require.NoError(t, matches.SetStatus(ctx, match.ID, models.StatusHalftime))
	require.NoError(t, matches.SetStatus(ctx, match.ID, models.StatusLive))
	require.NoError(t, matches.SetStatus(ctx, match.ID, models.StatusFinished))

	// FINISHED is terminal without an explicit reset.
	assert.ErrorIs(t, matches.SetStatus(ctx, match.ID, models.StatusLive), ErrInvalidTransition)

	require.NoError(t, matches.Reset(ctx, match.ID))
	require.NoError(t, matches.SetStatus(ctx, match.ID, models.StatusLive))
}

func TestSetStatusRejectsSkippingUpcoming(t *testing.T) {
	matches, _ := newMatchFixture(t)
	ctx := context.Background()

	match, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)

	assert.ErrorIs(t, matches.SetStatus(ctx, match.ID, models.StatusHalftime), ErrInvalidTransition)
	assert.Error(t, matches.SetStatus(ctx, match.ID, "PAUSED"))
}

func TestEndMatchCombinedWrite(t *testing.T) {
	matches, db := newMatchFixture(t)
	ctx := context.Background()

	match, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)
	require.NoError(t, matches.SetStatus(ctx, match.ID, models.StatusLive))
	require.NoError(t, db.Model(&models.LiveMatch{}).Where("id = ?", match.ID).
		Updates(map[string]interface{}{"home_score": 12, "away_score": 7}).Error)

	persisted, err := matches.EndMatch(ctx, match.ID, "85:30")
	require.NoError(t, err)
	assert.Equal(t, "85:30", persisted)

	ended, err := matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFinished, ended.Status)
	assert.Equal(t, "85:30", ended.MatchTime)
	// Ending freezes, never clears, the final result.
	assert.Equal(t, 12, ended.HomeScore)
	assert.Equal(t, 7, ended.AwayScore)
}

func TestEndMatchKeepsStoredClockWhenNoFinalTime(t *testing.T) {
	matches, db := newMatchFixture(t)
	ctx := context.Background()

	match, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)
	require.NoError(t, matches.SetStatus(ctx, match.ID, models.StatusLive))
	require.NoError(t, db.Model(&models.LiveMatch{}).Where("id = ?", match.ID).
		Update("match_time", "63:40").Error)

	persisted, err := matches.EndMatch(ctx, match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "63:40", persisted)

	ended, err := matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, "63:40", ended.MatchTime)
}

func TestEndMatchFromUpcomingRejected(t *testing.T) {
	matches, _ := newMatchFixture(t)
	ctx := context.Background()

	match, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)

	_, err = matches.EndMatch(ctx, match.ID, "00:10")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResetCompleteness(t *testing.T) {
	db := setupTestDB(t)
	broker := NewChangeBroker()
	t.Cleanup(broker.Close)
	matches := NewLiveMatchService(db, broker)
	scoring := NewScoringService(db, broker)
	ctx := context.Background()

	match, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)
	require.NoError(t, matches.SetStatus(ctx, match.ID, models.StatusLive))

	for _, in := range []EventInput{
		{Side: models.SideHome, EventType: models.EventTry, PlayerName: "A"},
		{Side: models.SideHome, EventType: models.EventConversion, PlayerName: "A"},
		{Side: models.SideHome, EventType: models.EventTry, PlayerName: "B"},
		{Side: models.SideAway, EventType: models.EventTry, PlayerName: "C"},
	} {
		_, err := scoring.RecordEvent(ctx, match.ID, in)
		require.NoError(t, err)
	}
	require.NoError(t, matches.UpdateFields(ctx, match.ID, map[string]interface{}{
		"match_time": "63:00",
		"commentary": "What a game",
	}))

	require.NoError(t, matches.Reset(ctx, match.ID))

	after, err := matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpcoming, after.Status)
	assert.Equal(t, 0, after.HomeScore)
	assert.Equal(t, 0, after.AwayScore)
	assert.Equal(t, "00:00", after.MatchTime)
	assert.Empty(t, after.Commentary)
	assert.Empty(t, after.Events)

	var count int64
	require.NoError(t, db.Model(&models.MatchEvent{}).
		Where("live_match_id = ?", match.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateFieldsWhitelist(t *testing.T) {
	matches, _ := newMatchFixture(t)
	ctx := context.Background()

	match, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)

	require.NoError(t, matches.UpdateFields(ctx, match.ID, map[string]interface{}{
		"venue":       "Kyadondo Grounds",
		"competition": "National League",
	}))

	// Scores and status are owned by the scoring service and the state
	// machine; a partial update may not touch them.
	assert.Error(t, matches.UpdateFields(ctx, match.ID, map[string]interface{}{"home_score": 99}))
	assert.Error(t, matches.UpdateFields(ctx, match.ID, map[string]interface{}{"status": "LIVE"}))

	updated, err := matches.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, "Kyadondo Grounds", updated.Venue)
	assert.Equal(t, 0, updated.HomeScore)

	assert.ErrorIs(t, matches.UpdateFields(ctx, "no-such-id", map[string]interface{}{"venue": "X"}), ErrMatchNotFound)
}

func TestDeleteMatchCascadesLedger(t *testing.T) {
	db := setupTestDB(t)
	broker := NewChangeBroker()
	t.Cleanup(broker.Close)
	matches := NewLiveMatchService(db, broker)
	scoring := NewScoringService(db, broker)
	ctx := context.Background()

	match, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)
	_, err = scoring.RecordEvent(ctx, match.ID, EventInput{
		Side: models.SideHome, EventType: models.EventTry, PlayerName: "A",
	})
	require.NoError(t, err)

	require.NoError(t, matches.DeleteMatch(ctx, match.ID))

	var count int64
	require.NoError(t, db.Model(&models.MatchEvent{}).
		Where("live_match_id = ?", match.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err = matches.GetMatch(ctx, match.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}
