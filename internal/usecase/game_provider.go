package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/geo-stats/internal/domain/match"
)

// GameProvider is the upstream game service. Implementations wrap transport
// and decode failures in ErrUpstreamFetch and unknown ids in ErrNotFound.
type GameProvider interface {
	FetchDuel(ctx context.Context, gameID string) (ExternalDuel, error)
}

// ProfileProvider serves the enrichment lookups for players and rated teams.
type ProfileProvider interface {
	FetchUser(ctx context.Context, playerID string) (ExternalUser, error)
	FetchRankedProgress(ctx context.Context, playerID string) (ExternalRankedProgress, error)
	FetchRankedTeam(ctx context.Context, playerID1, playerID2 string) (ExternalRankedTeam, error)
}

type ExternalDuel struct {
	GameID             string
	Status             string
	CurrentRoundNumber int
	Rated              bool
	Movement           match.MovementOptions
	Map                ExternalMap
	Teams              []ExternalDuelTeam
	Rounds             []ExternalDuelRound
}

type ExternalMap struct {
	Slug             string
	Name             string
	Bounds           match.Bounds
	MaxErrorDistance *int
}

type ExternalDuelTeam struct {
	ID      string
	Name    string
	Health  int
	Players []ExternalDuelPlayer
}

type ExternalDuelPlayer struct {
	PlayerID                 string
	CountryCode              string
	Rating                   *int
	RankedSystemRatingBefore *int
	RankedTeamRatingBefore   *int
	Guesses                  []ExternalGuess
}

type ExternalGuess struct {
	RoundNumber int
	Lat         float64
	Lng         float64
	Distance    float64
	Score       *int
	Created     *time.Time
	IsTeamsBest bool
}

type ExternalDuelRound struct {
	RoundNumber      int
	PanoID           string
	Lat              float64
	Lng              float64
	Heading          float64
	Pitch            float64
	Zoom             float64
	CountryCode      string
	DamageMultiplier float64
	StartTime        *time.Time
}

type ExternalUser struct {
	ID          string
	Nick        string
	CountryCode string
	AvatarPin   string
	Level       int
	IsProUser   bool
	IsCreator   bool
}

type ExternalRankedProgress struct {
	Rating        *int
	StandardDuels *int
	NoMoveDuels   *int
	NMPZ          *int
}

type ExternalRankedTeam struct {
	TeamID string
	Name   string
	Rating *int
}
