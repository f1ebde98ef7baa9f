package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/VictorBagz/KBR/models"
	"github.com/VictorBagz/KBR/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrMatchNotFound is returned when no match exists for the given id.
	ErrMatchNotFound = errors.New("match not found")
	// ErrInvalidTransition is returned for operator status changes the
	// state machine forbids (e.g. FINISHED back to LIVE without a reset).
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Placeholder values for an auto-provisioned match, matching what the admin
// console shows before setup is saved.
const (
	placeholderVenue       = "TBC"
	placeholderCompetition = "Friendly"
)

// updatableMatchColumns whitelists the columns a partial update may touch.
// Status changes go through SetStatus so the transition table is enforced,
// and scores go through the scoring service so the ledger stays in lockstep.
var updatableMatchColumns = map[string]bool{
	"home_team_id": true,
	"away_team_id": true,
	"venue":        true,
	"competition":  true,
	"match_time":   true,
	"commentary":   true,
	"start_time":   true,
}

// LiveMatchService owns the match aggregate: creation, featured-match
// selection, partial updates, the end-of-match combined write and the
// compound reset. Every committed mutation is published on the broker.
type LiveMatchService struct {
	DB     *gorm.DB
	Broker *ChangeBroker
}

func NewLiveMatchService(db *gorm.DB, broker *ChangeBroker) *LiveMatchService {
	return &LiveMatchService{DB: db, Broker: broker}
}

// ---- Core operations ----

// FeaturedMatch returns the match to display live: the LIVE one if present,
// otherwise the most recently started record regardless of status, so the
// admin Live tab always has something loaded. Returns ErrMatchNotFound when
// the table is empty.
func (s *LiveMatchService) FeaturedMatch(ctx context.Context) (*models.LiveMatch, error) {
	var match models.LiveMatch

	err := s.matchQuery(ctx).
		Where("status = ?", models.StatusLive).
		First(&match).Error
	if err == nil {
		return &match, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load live match: %w", err)
	}

	err = s.matchQuery(ctx).
		Order("start_time DESC").
		First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fallback match: %w", err)
	}
	return &match, nil
}

// EnsureFeatured returns the featured match, provisioning a fresh placeholder
// aggregate when none exists at all.
func (s *LiveMatchService) EnsureFeatured(ctx context.Context) (*models.LiveMatch, error) {
	match, err := s.FeaturedMatch(ctx)
	if err == nil {
		return match, nil
	}
	if !errors.Is(err, ErrMatchNotFound) {
		return nil, err
	}
	return s.CreatePlaceholder(ctx)
}

// CreatePlaceholder allocates a new aggregate in UPCOMING with zero scores
// and a zeroed clock.
func (s *LiveMatchService) CreatePlaceholder(ctx context.Context) (*models.LiveMatch, error) {
	match := &models.LiveMatch{
		ID:          uuid.NewString(),
		Status:      models.StatusUpcoming,
		MatchTime:   utils.FormatClock(0),
		Venue:       placeholderVenue,
		Competition: placeholderCompetition,
		StartTime:   time.Now().UTC(),
	}
	if err := s.DB.WithContext(ctx).Create(match).Error; err != nil {
		return nil, fmt.Errorf("failed to create placeholder match: %w", err)
	}
	s.publish(ActionInsert, TableLiveMatches, match.ID)
	return match, nil
}

// GetMatch loads one match with its teams and newest-first ledger.
func (s *LiveMatchService) GetMatch(ctx context.Context, id string) (*models.LiveMatch, error) {
	var match models.LiveMatch
	err := s.matchQuery(ctx).Where("id = ?", id).First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrMatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load match %s: %w", id, err)
	}
	return &match, nil
}

// ListMatches returns all matches newest-first with team info, no ledgers.
func (s *LiveMatchService) ListMatches(ctx context.Context) ([]models.LiveMatch, error) {
	var matches []models.LiveMatch
	err := s.DB.WithContext(ctx).
		Preload("HomeTeam").
		Preload("AwayTeam").
		Order("start_time DESC").
		Find(&matches).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

// CreateFixture persists an operator-entered match record.
func (s *LiveMatchService) CreateFixture(ctx context.Context, match *models.LiveMatch) error {
	if match.ID == "" {
		match.ID = uuid.NewString()
	}
	if match.Status == "" {
		match.Status = models.StatusUpcoming
	}
	if !match.Status.IsValid() {
		return fmt.Errorf("unknown status %q", match.Status)
	}
	if match.MatchTime == "" {
		match.MatchTime = utils.FormatClock(0)
	}
	if match.StartTime.IsZero() {
		match.StartTime = time.Now().UTC()
	}
	if err := s.DB.WithContext(ctx).Create(match).Error; err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	s.publish(ActionInsert, TableLiveMatches, match.ID)
	return nil
}

// UpdateFields applies a partial update restricted to the whitelisted
// columns. Used for setup saves and the explicit "Save Time & Info" action.
func (s *LiveMatchService) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	updates := make(map[string]interface{}, len(fields))
	for col, val := range fields {
		if !updatableMatchColumns[col] {
			return fmt.Errorf("field %q is not updatable", col)
		}
		updates[col] = val
	}
	if len(updates) == 0 {
		return nil
	}

	res := s.DB.WithContext(ctx).
		Model(&models.LiveMatch{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to update match %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrMatchNotFound
	}
	s.publish(ActionUpdate, TableLiveMatches, id)
	return nil
}

// SaveMatchTime persists just the clock display string. Used by the clock
// controller for its throttled flush and the pause-time sync write.
func (s *LiveMatchService) SaveMatchTime(ctx context.Context, id, display string) error {
	return s.UpdateFields(ctx, id, map[string]interface{}{"match_time": display})
}

// SetStatus moves the match through the state machine, rejecting illegal
// transitions. Reset does not come through here.
func (s *LiveMatchService) SetStatus(ctx context.Context, id string, next models.MatchStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("unknown status %q", next)
	}

	var match models.LiveMatch
	err := s.DB.WithContext(ctx).First(&match, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrMatchNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load match %s: %w", id, err)
	}

	if !match.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, match.Status, next)
	}

	if err := s.DB.WithContext(ctx).
		Model(&models.LiveMatch{}).
		Where("id = ?", id).
		Update("status", next).Error; err != nil {
		return fmt.Errorf("failed to set status on match %s: %w", id, err)
	}
	s.publish(ActionUpdate, TableLiveMatches, id)
	return nil
}

// EndMatch freezes the match: status FINISHED plus the final clock and the
// final scores, written as one combined update. Scores are carried from the
// stored aggregate, not recomputed. An empty finalTime keeps the stored
// clock, covering an end issued when no local clock ever ran for this match.
// Returns the clock value that was persisted.
func (s *LiveMatchService) EndMatch(ctx context.Context, id, finalTime string) (string, error) {
	var match models.LiveMatch
	err := s.DB.WithContext(ctx).First(&match, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrMatchNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to load match %s: %w", id, err)
	}

	if !match.Status.CanTransitionTo(models.StatusFinished) {
		return "", fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, match.Status, models.StatusFinished)
	}

	if finalTime == "" {
		finalTime = match.MatchTime
	}

	err = s.DB.WithContext(ctx).
		Model(&models.LiveMatch{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     models.StatusFinished,
			"match_time": finalTime,
			"home_score": match.HomeScore,
			"away_score": match.AwayScore,
		}).Error
	if err != nil {
		return "", fmt.Errorf("failed to end match %s: %w", id, err)
	}
	s.publish(ActionUpdate, TableLiveMatches, id)
	return finalTime, nil
}

// Reset force-returns a match to UPCOMING: scores zeroed, clock zeroed,
// commentary cleared and the whole ledger wiped, in a single transaction so
// a partial failure can never leave zeroed scores alongside surviving
// events.
func (s *LiveMatchService) Reset(ctx context.Context, id string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.LiveMatch{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"status":     models.StatusUpcoming,
				"match_time": utils.FormatClock(0),
				"home_score": 0,
				"away_score": 0,
				"commentary": "",
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrMatchNotFound
		}
		return tx.Where("live_match_id = ?", id).Delete(&models.MatchEvent{}).Error
	})
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return err
		}
		return fmt.Errorf("failed to reset match %s: %w", id, err)
	}
	s.publish(ActionUpdate, TableLiveMatches, id)
	s.publish(ActionDelete, TableMatchEvents, id)
	return nil
}

// DeleteMatch removes a match and its ledger together.
func (s *LiveMatchService) DeleteMatch(ctx context.Context, id string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("live_match_id = ?", id).Delete(&models.MatchEvent{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.LiveMatch{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrMatchNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete match %s: %w", id, err)
	}
	s.publish(ActionDelete, TableLiveMatches, id)
	return nil
}

func (s *LiveMatchService) matchQuery(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).
		Preload("HomeTeam").
		Preload("AwayTeam").
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		})
}

func (s *LiveMatchService) publish(action, table, matchID string) {
	if s.Broker == nil {
		return
	}
	s.Broker.Publish(Change{Table: table, Action: action, MatchID: matchID})
}

// ---- HTTP handlers ----

// GetFeatured serves the featured match with teams and ordered ledger.
// An empty table renders as a null match, never an error, so viewer pages
// stay resilient.
func (s *LiveMatchService) GetFeatured(c *fiber.Ctx) error {
	match, err := s.FeaturedMatch(c.Context())
	if errors.Is(err, ErrMatchNotFound) {
		return c.JSON(fiber.Map{"match": nil})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load featured match"})
	}
	return c.JSON(fiber.Map{"match": match})
}

// GetAllMatches serves the fixtures/results listing.
func (s *LiveMatchService) GetAllMatches(c *fiber.Ctx) error {
	matches, err := s.ListMatches(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list matches"})
	}
	return c.JSON(matches)
}

// EnsureLive guarantees the admin Live tab has a match loaded, creating a
// placeholder when the table is empty.
func (s *LiveMatchService) EnsureLive(c *fiber.Ctx) error {
	match, err := s.EnsureFeatured(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to provision live match"})
	}
	return c.JSON(fiber.Map{"match": match})
}

type fixtureRequest struct {
	HomeTeamID  *string `json:"home_team_id"`
	AwayTeamID  *string `json:"away_team_id"`
	Venue       string  `json:"venue"`
	Competition string  `json:"competition"`
	Status      string  `json:"status"`
	MatchTime   string  `json:"match_time"`
	StartTime   string  `json:"start_time"`
	HomeScore   int     `json:"home_score"`
	AwayScore   int     `json:"away_score"`
}

// CreateMatchHandler creates a fixture from the admin form.
func (s *LiveMatchService) CreateMatchHandler(c *fiber.Ctx) error {
	var req fixtureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	match := &models.LiveMatch{
		HomeTeamID:  req.HomeTeamID,
		AwayTeamID:  req.AwayTeamID,
		Venue:       req.Venue,
		Competition: req.Competition,
		Status:      models.MatchStatus(req.Status),
		MatchTime:   req.MatchTime,
		HomeScore:   req.HomeScore,
		AwayScore:   req.AwayScore,
	}
	if req.StartTime != "" {
		startTime, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid start_time (use RFC3339)"})
		}
		match.StartTime = startTime
	}

	if err := s.CreateFixture(c.Context(), match); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(match)
}

// UpdateMatchHandler applies a partial update (setup save, time & info
// save) and returns the authoritative aggregate so the admin view reflects
// stored state, not just its own optimistic form.
func (s *LiveMatchService) UpdateMatchHandler(c *fiber.Ctx) error {
	id := c.Params("id")

	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.UpdateFields(c.Context(), id, fields); err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	match, err := s.GetMatch(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to reload match"})
	}
	return c.JSON(fiber.Map{"match": match})
}

// DeleteMatchHandler removes a match and its events.
func (s *LiveMatchService) DeleteMatchHandler(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := s.DeleteMatch(c.Context(), id); err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete match"})
	}
	return c.JSON(fiber.Map{"deleted": id})
}
