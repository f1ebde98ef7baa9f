package models

import (
	"time"
)

// TeamSide identifies which side of the scoreboard an event belongs to.
type TeamSide string

const (
	SideHome TeamSide = "home"
	SideAway TeamSide = "away"
)

// IsValid reports whether s is "home" or "away".
func (s TeamSide) IsValid() bool {
	return s == SideHome || s == SideAway
}

// EventType classifies a scoring or discipline event.
type EventType string

const (
	EventTry        EventType = "TRY"
	EventConversion EventType = "CONVERSION"
	EventPenalty    EventType = "PENALTY"
	EventDropGoal   EventType = "DROP_GOAL"
	EventYellowCard EventType = "YELLOW_CARD"
	EventRedCard    EventType = "RED_CARD"
)

// canonicalPoints maps each event type to its rugby point value. Cards
// carry no points.
var canonicalPoints = map[EventType]int{
	EventTry:        5,
	EventConversion: 2,
	EventPenalty:    3,
	EventDropGoal:   3,
	EventYellowCard: 0,
	EventRedCard:    0,
}

// Points returns the canonical point value for the event type, and whether
// the type is known at all.
func (t EventType) Points() (int, bool) {
	p, ok := canonicalPoints[t]
	return p, ok
}

// IsCard reports whether the event is a discipline card rather than a score.
func (t EventType) IsCard() bool {
	return t == EventYellowCard || t == EventRedCard
}

// MatchEvent is one entry in a match's scoring ledger. The ledger is
// append-only apart from operator undo; the owning match's score fields are
// derived from it and kept in lockstep by the scoring service.
type MatchEvent struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	LiveMatchID string    `gorm:"index;not null" json:"live_match_id"`
	TeamSide    TeamSide  `gorm:"type:varchar(8);not null" json:"team_side"`
	PlayerName  string    `gorm:"not null" json:"player_name"`
	EventType   EventType `gorm:"type:varchar(16);not null" json:"event_type"`
	Points      int       `gorm:"default:0" json:"points"`

	// MatchTime is the clock value captured when the operator pressed the
	// button, not recomputed afterwards.
	MatchTime string    `gorm:"default:'00:00'" json:"match_time"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}
