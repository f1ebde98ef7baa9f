package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/VictorBagz/KBR/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrEventNotFound is returned when an undo targets a ledger entry that
	// no longer exists (already undone, or belonging to another match).
	ErrEventNotFound = errors.New("match event not found")
	// ErrMissingPlayer rejects scoring without a scorer name.
	ErrMissingPlayer = errors.New("player name is required")
)

// ScoringService maintains the event ledger and keeps the aggregate score
// fields equal to the sum of event points per side. Both directions (record
// and undo) write the ledger row and the score in a single transaction, and
// the score mutation is an atomic in-store expression rather than a
// read-modify-write, so concurrent admin sessions cannot lose increments.
type ScoringService struct {
	DB     *gorm.DB
	Broker *ChangeBroker
}

func NewScoringService(db *gorm.DB, broker *ChangeBroker) *ScoringService {
	return &ScoringService{DB: db, Broker: broker}
}

// EventInput carries one operator scoring action.
type EventInput struct {
	Side       models.TeamSide
	EventType  models.EventType
	PlayerName string
	// MatchTime is the clock display at the moment of the action, captured
	// by the caller, never recomputed here.
	MatchTime string
	// Points may be supplied explicitly; it must match the canonical value
	// for the event type. Cards always record as 0.
	Points *int
}

func sideColumn(side models.TeamSide) string {
	if side == models.SideHome {
		return "home_score"
	}
	return "away_score"
}

// validate normalizes the input and resolves the effective point value.
func (in *EventInput) validate() (int, error) {
	if in.PlayerName == "" {
		return 0, ErrMissingPlayer
	}
	if !in.Side.IsValid() {
		return 0, fmt.Errorf("unknown team side %q", in.Side)
	}
	canonical, ok := in.EventType.Points()
	if !ok {
		return 0, fmt.Errorf("unknown event type %q", in.EventType)
	}
	if in.EventType.IsCard() {
		return 0, nil
	}
	if in.Points != nil && *in.Points != canonical {
		return 0, fmt.Errorf("%s is worth %d points, got %d", in.EventType, canonical, *in.Points)
	}
	return canonical, nil
}

// RecordEvent appends a ledger entry and bumps the matching side's score as
// one logical unit. Validation failures reject before any state change.
func (s *ScoringService) RecordEvent(ctx context.Context, matchID string, in EventInput) (*models.MatchEvent, error) {
	points, err := in.validate()
	if err != nil {
		return nil, err
	}

	matchTime := in.MatchTime
	if matchTime == "" {
		matchTime = "00:00"
	}

	event := &models.MatchEvent{
		ID:          uuid.NewString(),
		LiveMatchID: matchID,
		TeamSide:    in.Side,
		PlayerName:  in.PlayerName,
		EventType:   in.EventType,
		Points:      points,
		MatchTime:   matchTime,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.LiveMatch{}).
			Where("id = ?", matchID).
			Update(sideColumn(in.Side), gorm.Expr(sideColumn(in.Side)+" + ?", points))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrMatchNotFound
		}
		return tx.Create(event).Error
	})
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to record %s for match %s: %w", in.EventType, matchID, err)
	}

	s.publish(ActionInsert, TableMatchEvents, matchID)
	s.publish(ActionUpdate, TableLiveMatches, matchID)
	return event, nil
}

// UndoEvent deletes a ledger entry and subtracts its points from the
// matching side, floored at zero so a duplicate or out-of-order undo can
// never drive the score negative. Delete and decrement commit together.
func (s *ScoringService) UndoEvent(ctx context.Context, matchID, eventID string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.MatchEvent
		err := tx.Where("id = ? AND live_match_id = ?", eventID, matchID).First(&event).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Delete(&event).Error; err != nil {
			return err
		}

		// CASE instead of GREATEST so the expression runs on postgres and
		// the sqlite test driver alike.
		col := sideColumn(event.TeamSide)
		return tx.Model(&models.LiveMatch{}).
			Where("id = ?", matchID).
			Update(col, gorm.Expr(
				"CASE WHEN "+col+" >= ? THEN "+col+" - ? ELSE 0 END",
				event.Points, event.Points,
			)).Error
	})
	if err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return err
		}
		return fmt.Errorf("failed to undo event %s on match %s: %w", eventID, matchID, err)
	}

	s.publish(ActionDelete, TableMatchEvents, matchID)
	s.publish(ActionUpdate, TableLiveMatches, matchID)
	return nil
}

// clockMinutes extracts the leading minute component of a captured clock
// string. Malformed values sort as 0.
func clockMinutes(matchTime string) int {
	head, _, _ := strings.Cut(matchTime, ":")
	n, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// SideScorers lists one side's ledger entries for the scorer panel, latest
// clock minute first. Entries with the same minute keep insertion order.
func (s *ScoringService) SideScorers(ctx context.Context, matchID string, side models.TeamSide) ([]models.MatchEvent, error) {
	var events []models.MatchEvent
	err := s.DB.WithContext(ctx).
		Where("live_match_id = ? AND team_side = ?", matchID, side).
		Order("created_at ASC").
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s events for match %s: %w", side, matchID, err)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return clockMinutes(events[i].MatchTime) > clockMinutes(events[j].MatchTime)
	})
	return events, nil
}

// SideTotal sums the ledger for one side of a match.
func (s *ScoringService) SideTotal(ctx context.Context, matchID string, side models.TeamSide) (int, error) {
	var total int64
	err := s.DB.WithContext(ctx).
		Model(&models.MatchEvent{}).
		Where("live_match_id = ? AND team_side = ?", matchID, side).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum %s events for match %s: %w", side, matchID, err)
	}
	return int(total), nil
}

func (s *ScoringService) publish(action, table, matchID string) {
	if s.Broker == nil {
		return
	}
	s.Broker.Publish(Change{Table: table, Action: action, MatchID: matchID})
}

// ---- HTTP handlers ----

type scoreRequest struct {
	TeamSide   string `json:"team_side"`
	EventType  string `json:"event_type"`
	PlayerName string `json:"player_name"`
	MatchTime  string `json:"match_time"`
	Points     *int   `json:"points"`
}

// AddEvent records a scoring/discipline event for a match.
func (s *ScoringService) AddEvent(c *fiber.Ctx) error {
	matchID := c.Params("id")

	var req scoreRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	event, err := s.RecordEvent(c.Context(), matchID, EventInput{
		Side:       models.TeamSide(req.TeamSide),
		EventType:  models.EventType(req.EventType),
		PlayerName: req.PlayerName,
		MatchTime:  req.MatchTime,
		Points:     req.Points,
	})
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(event)
}

// GetScorers returns both scorer panels for a match.
func (s *ScoringService) GetScorers(c *fiber.Ctx) error {
	matchID := c.Params("id")

	home, err := s.SideScorers(c.Context(), matchID, models.SideHome)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load scorers"})
	}
	away, err := s.SideScorers(c.Context(), matchID, models.SideAway)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load scorers"})
	}
	return c.JSON(fiber.Map{"home": home, "away": away})
}

// RemoveEvent undoes one ledger entry.
func (s *ScoringService) RemoveEvent(c *fiber.Ctx) error {
	matchID := c.Params("id")
	eventID := c.Params("event_id")

	if err := s.UndoEvent(c.Context(), matchID, eventID); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to undo event"})
	}
	return c.JSON(fiber.Map{"deleted": eventID})
}
