package match

import (
	"errors"
	"strings"
	"time"
)

const StatusFinished = "Finished"

var (
	// ErrAlreadyExists is returned when the match row is already stored.
	ErrAlreadyExists = errors.New("match already exists")
	ErrNotFinished   = errors.New("match has not finished")
)

func IsFinishedStatus(status string) bool {
	return strings.TrimSpace(status) == StatusFinished
}

// Match is one finished duel between exactly two teams.
type Match struct {
	ID                string
	TeamID1           string
	TeamID2           string
	HealthTeam1       int
	HealthTeam2       int
	TeamGameMode      TeamGameMode
	GeoMode           GeoMode
	StartTime         time.Time
	MapID             string
	RatingBeforeTeam1 *int
	RatingBeforeTeam2 *int
}

// Round is one location shown within a match. RoundNumber starts at zero.
type Round struct {
	ID               string
	GameID           string
	LocationID       string
	RoundNumber      int
	DamageMultiplier float64
}

type Guess struct {
	ID               string
	GameID           string
	RoundID          string
	TeamID           string
	Lat              float64
	Lng              float64
	Score            int
	Time             *int
	Distance         float64
	CountryCode      *string
	SubdivisionCode  *string
	RoundCountryCode string
	IsTeamsBest      bool
}
