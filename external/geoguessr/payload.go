package geoguessr

import (
	"strings"
	"time"

	"github.com/riskibarqy/geo-stats/internal/domain/match"
	"github.com/riskibarqy/geo-stats/internal/usecase"
)

type latLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type boundsPayload struct {
	Min latLng `json:"min"`
	Max latLng `json:"max"`
}

func (b boundsPayload) isZero() bool {
	return b.Min == latLng{} && b.Max == latLng{}
}

type movementOptionsPayload struct {
	ForbidMoving   bool `json:"forbidMoving"`
	ForbidZooming  bool `json:"forbidZooming"`
	ForbidRotating bool `json:"forbidRotating"`
}

type mapPayload struct {
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	Bounds           boundsPayload `json:"bounds"`
	MaxErrorDistance *int          `json:"maxErrorDistance"`
}

type duelOptionsPayload struct {
	IsRated         bool                   `json:"isRated"`
	MapSlug         string                 `json:"mapSlug"`
	MovementOptions movementOptionsPayload `json:"movementOptions"`
	Map             mapPayload             `json:"map"`
}

type panoramaPayload struct {
	PanoID      string  `json:"panoId"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	CountryCode string  `json:"countryCode"`
	Heading     float64 `json:"heading"`
	Pitch       float64 `json:"pitch"`
	Zoom        float64 `json:"zoom"`
}

type duelRoundPayload struct {
	RoundNumber      int             `json:"roundNumber"`
	Panorama         panoramaPayload `json:"panorama"`
	Multiplier       float64         `json:"multiplier"`
	DamageMultiplier float64         `json:"damageMultiplier"`
	StartTime        *string         `json:"startTime"`
	EndTime          *string         `json:"endTime"`
}

type duelGuessPayload struct {
	RoundNumber             int     `json:"roundNumber"`
	Lat                     float64 `json:"lat"`
	Lng                     float64 `json:"lng"`
	Distance                float64 `json:"distance"`
	Created                 string  `json:"created"`
	IsTeamsBestGuessOnRound bool    `json:"isTeamsBestGuessOnRound"`
	Score                   *int    `json:"score"`
}

type ratingProgressPayload struct {
	RatingBefore *int `json:"ratingBefore"`
	RatingAfter  *int `json:"ratingAfter"`
}

type progressChangePayload struct {
	RankedSystemProgress    *ratingProgressPayload `json:"rankedSystemProgress"`
	RankedTeamDuelsProgress *ratingProgressPayload `json:"rankedTeamDuelsProgress"`
}

type duelPlayerPayload struct {
	PlayerID       string                 `json:"playerId"`
	Guesses        []duelGuessPayload     `json:"guesses"`
	Rating         *int                   `json:"rating"`
	CountryCode    string                 `json:"countryCode"`
	ProgressChange *progressChangePayload `json:"progressChange"`
}

type roundResultPayload struct {
	RoundNumber  int               `json:"roundNumber"`
	Score        int               `json:"score"`
	HealthBefore int               `json:"healthBefore"`
	HealthAfter  int               `json:"healthAfter"`
	BestGuess    *duelGuessPayload `json:"bestGuess"`
}

type duelTeamPayload struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Health       int                  `json:"health"`
	Players      []duelPlayerPayload  `json:"players"`
	RoundResults []roundResultPayload `json:"roundResults"`
}

type duelPayload struct {
	GameID             string                 `json:"gameId"`
	Teams              []duelTeamPayload      `json:"teams"`
	Rounds             []duelRoundPayload     `json:"rounds"`
	CurrentRoundNumber int                    `json:"currentRoundNumber"`
	Status             string                 `json:"status"`
	Options            duelOptionsPayload     `json:"options"`
	MovementOptions    movementOptionsPayload `json:"movementOptions"`
	MapBounds          boundsPayload          `json:"mapBounds"`
}

type userPayload struct {
	ID          string `json:"id"`
	Nick        string `json:"nick"`
	CountryCode string `json:"countryCode"`
	IsProUser   bool   `json:"isProUser"`
	IsCreator   bool   `json:"isCreator"`
	Br          struct {
		Level int `json:"level"`
	} `json:"br"`
	Avatar struct {
		FullBodyPath string `json:"fullBodyPath"`
	} `json:"avatar"`
}

type rankedProgressPayload struct {
	Rating          *int `json:"rating"`
	GameModeRatings *struct {
		StandardDuels *int `json:"standardDuels"`
		NoMoveDuels   *int `json:"noMoveDuels"`
		NMPZ          *int `json:"nmpz"`
	} `json:"gameModeRatings"`
}

type rankedTeamPayload struct {
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
	Rating   *int   `json:"rating"`
}

func (p duelPayload) toExternal() usecase.ExternalDuel {
	bounds := p.Options.Map.Bounds
	if bounds.isZero() {
		bounds = p.MapBounds
	}
	slug := strings.TrimSpace(p.Options.Map.Slug)
	if slug == "" {
		slug = strings.TrimSpace(p.Options.MapSlug)
	}

	out := usecase.ExternalDuel{
		GameID:             strings.TrimSpace(p.GameID),
		Status:             strings.TrimSpace(p.Status),
		CurrentRoundNumber: p.CurrentRoundNumber,
		Rated:              p.Options.IsRated,
		Movement: match.MovementOptions{
			ForbidMoving:   p.Options.MovementOptions.ForbidMoving,
			ForbidZooming:  p.Options.MovementOptions.ForbidZooming,
			ForbidRotating: p.Options.MovementOptions.ForbidRotating,
		},
		Map: usecase.ExternalMap{
			Slug: slug,
			Name: strings.TrimSpace(p.Options.Map.Name),
			Bounds: match.Bounds{
				MinLat: bounds.Min.Lat,
				MinLng: bounds.Min.Lng,
				MaxLat: bounds.Max.Lat,
				MaxLng: bounds.Max.Lng,
			},
			MaxErrorDistance: p.Options.Map.MaxErrorDistance,
		},
		Teams:  make([]usecase.ExternalDuelTeam, 0, len(p.Teams)),
		Rounds: make([]usecase.ExternalDuelRound, 0, len(p.Rounds)),
	}

	for _, t := range p.Teams {
		team := usecase.ExternalDuelTeam{
			ID:      strings.TrimSpace(t.ID),
			Name:    strings.TrimSpace(t.Name),
			Health:  t.Health,
			Players: make([]usecase.ExternalDuelPlayer, 0, len(t.Players)),
		}
		for _, pl := range t.Players {
			player := usecase.ExternalDuelPlayer{
				PlayerID:    strings.TrimSpace(pl.PlayerID),
				CountryCode: strings.TrimSpace(pl.CountryCode),
				Rating:      pl.Rating,
				Guesses:     make([]usecase.ExternalGuess, 0, len(pl.Guesses)),
			}
			if pc := pl.ProgressChange; pc != nil {
				if pc.RankedSystemProgress != nil {
					player.RankedSystemRatingBefore = pc.RankedSystemProgress.RatingBefore
				}
				if pc.RankedTeamDuelsProgress != nil {
					player.RankedTeamRatingBefore = pc.RankedTeamDuelsProgress.RatingBefore
				}
			}
			for _, g := range pl.Guesses {
				player.Guesses = append(player.Guesses, usecase.ExternalGuess{
					RoundNumber: g.RoundNumber,
					Lat:         g.Lat,
					Lng:         g.Lng,
					Distance:    g.Distance,
					Score:       g.Score,
					Created:     parseTimestamp(&g.Created),
					IsTeamsBest: g.IsTeamsBestGuessOnRound,
				})
			}
			team.Players = append(team.Players, player)
		}
		out.Teams = append(out.Teams, team)
	}

	for _, r := range p.Rounds {
		out.Rounds = append(out.Rounds, usecase.ExternalDuelRound{
			RoundNumber:      r.RoundNumber,
			PanoID:           strings.TrimSpace(r.Panorama.PanoID),
			Lat:              r.Panorama.Lat,
			Lng:              r.Panorama.Lng,
			Heading:          r.Panorama.Heading,
			Pitch:            r.Panorama.Pitch,
			Zoom:             r.Panorama.Zoom,
			CountryCode:      strings.ToUpper(strings.TrimSpace(r.Panorama.CountryCode)),
			DamageMultiplier: r.DamageMultiplier,
			StartTime:        parseTimestamp(r.StartTime),
		})
	}

	return out
}

func (p userPayload) toExternal() usecase.ExternalUser {
	return usecase.ExternalUser{
		ID:          strings.TrimSpace(p.ID),
		Nick:        strings.TrimSpace(p.Nick),
		CountryCode: strings.TrimSpace(p.CountryCode),
		AvatarPin:   strings.TrimSpace(p.Avatar.FullBodyPath),
		Level:       p.Br.Level,
		IsProUser:   p.IsProUser,
		IsCreator:   p.IsCreator,
	}
}

func (p rankedProgressPayload) toExternal() usecase.ExternalRankedProgress {
	out := usecase.ExternalRankedProgress{Rating: p.Rating}
	if p.GameModeRatings != nil {
		out.StandardDuels = p.GameModeRatings.StandardDuels
		out.NoMoveDuels = p.GameModeRatings.NoMoveDuels
		out.NMPZ = p.GameModeRatings.NMPZ
	}
	return out
}

func (p rankedTeamPayload) toExternal() usecase.ExternalRankedTeam {
	return usecase.ExternalRankedTeam{
		TeamID: strings.TrimSpace(p.TeamID),
		Name:   strings.TrimSpace(p.TeamName),
		Rating: p.Rating,
	}
}

func parseTimestamp(raw *string) *time.Time {
	if raw == nil {
		return nil
	}
	value := strings.TrimSpace(*raw)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return nil
	}
	parsed = parsed.UTC()
	return &parsed
}
