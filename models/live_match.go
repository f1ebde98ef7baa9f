package models

import (
	"time"
)

// MatchStatus is the lifecycle state of a live match.
type MatchStatus string

const (
	StatusUpcoming MatchStatus = "UPCOMING"
	StatusLive     MatchStatus = "LIVE"
	StatusHalftime MatchStatus = "HALFTIME"
	StatusFinished MatchStatus = "FINISHED"
)

// validTransitions is the explicit state machine for operator status changes.
// FINISHED is terminal; the only way out is an explicit reset, which bypasses
// this table entirely.
var validTransitions = map[MatchStatus][]MatchStatus{
	StatusUpcoming: {StatusLive},
	StatusLive:     {StatusHalftime, StatusFinished},
	StatusHalftime: {StatusLive, StatusFinished},
	StatusFinished: {},
}

// CanTransitionTo reports whether moving from s to next is a legal
// operator action.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsValid reports whether s is one of the four known statuses.
func (s MatchStatus) IsValid() bool {
	switch s {
	case StatusUpcoming, StatusLive, StatusHalftime, StatusFinished:
		return true
	}
	return false
}

// LiveMatch is the single authoritative record for one match: status, clock,
// running score and commentary. Scores are maintained by the scoring service
// and must always equal the sum of event points per side.
type LiveMatch struct {
	ID         string  `gorm:"primaryKey" json:"id"`
	HomeTeamID *string `gorm:"index" json:"home_team_id,omitempty"`
	AwayTeamID *string `gorm:"index" json:"away_team_id,omitempty"`

	HomeScore int         `gorm:"default:0" json:"home_score"`
	AwayScore int         `gorm:"default:0" json:"away_score"`
	Status    MatchStatus `gorm:"type:varchar(16);default:'UPCOMING'" json:"status"`

	// MatchTime is the clock display string, "MM:SS" with unbounded minutes.
	MatchTime   string    `gorm:"default:'00:00'" json:"match_time"`
	Commentary  string    `json:"commentary"`
	Venue       string    `json:"venue"`
	Competition string    `json:"competition"`
	StartTime   time.Time `gorm:"index" json:"start_time"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	HomeTeam *Team        `gorm:"foreignKey:HomeTeamID" json:"home_team,omitempty"`
	AwayTeam *Team        `gorm:"foreignKey:AwayTeamID" json:"away_team,omitempty"`
	Events   []MatchEvent `gorm:"foreignKey:LiveMatchID" json:"events,omitempty"`
}
