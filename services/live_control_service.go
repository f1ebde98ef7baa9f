package services

import (
	"errors"

	"github.com/VictorBagz/KBR/models"
	"github.com/VictorBagz/KBR/utils"
	"github.com/VictorBagz/KBR/workers"

	"github.com/gofiber/fiber/v2"
)

// LiveControlService is the operator command surface: start/pause/end/reset
// and manual clock edits. It coordinates the match clock with the aggregate
// so local clock state only commits once the backing write has confirmed.
type LiveControlService struct {
	Matches *LiveMatchService
	Clock   *workers.MatchClock
}

func NewLiveControlService(matches *LiveMatchService, clock *workers.MatchClock) *LiveControlService {
	return &LiveControlService{Matches: matches, Clock: clock}
}

// StartMatch moves the match to LIVE and begins ticking from the stored
// clock value. Starting needs nothing beyond an existing aggregate — teams
// may still be unset.
func (s *LiveControlService) StartMatch(c *fiber.Ctx) error {
	id := c.Params("id")

	match, err := s.Matches.GetMatch(c.Context(), id)
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load match"})
	}

	if match.Status != models.StatusLive {
		if err := s.Matches.SetStatus(c.Context(), id, models.StatusLive); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to start match"})
		}
	}

	s.Clock.Start(id, utils.ParseClock(match.MatchTime))
	return c.JSON(fiber.Map{
		"match_id":   id,
		"status":     models.StatusLive,
		"match_time": s.Clock.Display(),
	})
}

// PauseMatch stops the tick and synchronously persists the current clock.
// Unlike the ten-second flush, this write's failure is reported. The clock
// must be attached to the addressed match, or a pause issued via a stale
// URL would flush whatever match the clock happens to track.
func (s *LiveControlService) PauseMatch(c *fiber.Ctx) error {
	id := c.Params("id")

	if s.Clock.MatchID() != id {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "clock is not running for this match"})
	}

	display, err := s.Clock.Pause(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to save clock on pause"})
	}
	return c.JSON(fiber.Map{"match_time": display, "running": false})
}

// EndMatch freezes the match as FINISHED with the final clock and scores in
// one combined write, then zeroes the local clock for the next match. The
// match's own scores stay as the final result; only local controller state
// resets, and only after the write confirms. When the clock never ran for
// this match (process restart mid-match, or end without start), the stored
// clock value is kept rather than clobbered with 00:00.
func (s *LiveControlService) EndMatch(c *fiber.Ctx) error {
	id := c.Params("id")

	clockOwned := s.Clock.MatchID() == id
	finalTime := ""
	if clockOwned {
		finalTime = s.Clock.Halt()
	}

	persisted, err := s.Matches.EndMatch(c.Context(), id, finalTime)
	if err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
		}
		if errors.Is(err, ErrInvalidTransition) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to end match"})
	}

	if clockOwned {
		s.Clock.ResetLocal()
	}
	return c.JSON(fiber.Map{
		"match_id":   id,
		"status":     models.StatusFinished,
		"match_time": persisted,
	})
}

// ResetMatch force-returns the match to UPCOMING, wiping scores, clock,
// commentary and the whole ledger atomically, then zeroes local clock state.
func (s *LiveControlService) ResetMatch(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := s.Matches.Reset(c.Context(), id); err != nil {
		if errors.Is(err, ErrMatchNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "match not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to reset match"})
	}

	if s.Clock.MatchID() == id {
		s.Clock.ResetLocal()
	}
	return c.JSON(fiber.Map{
		"match_id":   id,
		"status":     models.StatusUpcoming,
		"match_time": utils.FormatClock(0),
	})
}

type clockRequest struct {
	MatchTime string `json:"match_time"`
}

// SetClock overwrites the running counter from operator-typed text.
// Malformed input zeroes the clock instead of erroring.
func (s *LiveControlService) SetClock(c *fiber.Ctx) error {
	var req clockRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	s.Clock.SetDisplay(req.MatchTime)
	return c.JSON(fiber.Map{
		"match_time": s.Clock.Display(),
		"seconds":    s.Clock.Elapsed(),
	})
}

// ClockState reports the controller's local clock for the admin panel.
func (s *LiveControlService) ClockState(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"match_id":   s.Clock.MatchID(),
		"match_time": s.Clock.Display(),
		"seconds":    s.Clock.Elapsed(),
		"running":    s.Clock.Running(),
	})
}
