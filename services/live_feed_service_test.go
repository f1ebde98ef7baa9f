package services

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/VictorBagz/KBR/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedFixture(t *testing.T) (*LiveFeedService, *LiveMatchService, *ScoringService) {
	t.Helper()
	db := setupTestDB(t)
	broker := NewChangeBroker()
	t.Cleanup(broker.Close)

	matches := NewLiveMatchService(db, broker)
	scoring := NewScoringService(db, broker)
	return NewLiveFeedService(matches, broker), matches, scoring
}

func TestFeedWritesSnapshotOnConnect(t *testing.T) {
	feed, matches, _ := newFeedFixture(t)

	match, err := matches.CreatePlaceholder(context.Background())
	require.NoError(t, err)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, feed.writeMatch(w))

	frame := buf.String()
	assert.True(t, strings.HasPrefix(frame, "event: match\ndata: "))
	assert.True(t, strings.HasSuffix(frame, "\n\n"))
	assert.Contains(t, frame, match.ID)
	assert.Contains(t, frame, `"status":"UPCOMING"`)
}

func TestFeedRefetchesAggregateOnSignal(t *testing.T) {
	feed, matches, scoring := newFeedFixture(t)
	ctx := context.Background()

	match, err := matches.CreatePlaceholder(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, feed.writeMatch(w))
	assert.Contains(t, buf.String(), `"home_score":0`)

	_, err = scoring.RecordEvent(ctx, match.ID, EventInput{
		Side: models.SideHome, EventType: models.EventTry, PlayerName: "A", MatchTime: "14:10",
	})
	require.NoError(t, err)

	// The write after a change signal carries the refetched aggregate, full
	// ledger included.
	buf.Reset()
	require.NoError(t, feed.writeMatch(w))
	frame := buf.String()
	assert.Contains(t, frame, `"home_score":5`)
	assert.Contains(t, frame, `"TRY"`)
	assert.Contains(t, frame, `"14:10"`)
}

func TestFeedEmptyTableWritesNullMatch(t *testing.T) {
	feed, _, _ := newFeedFixture(t)

	var buf bytes.Buffer
	w := bufio.NewWriter(&buf)
	require.NoError(t, feed.writeMatch(w))
	assert.Contains(t, buf.String(), `"match":null`)
}
