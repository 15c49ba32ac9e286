package postgres

import (
	"time"

	"github.com/lib/pq"
	"github.com/riskibarqy/geo-stats/internal/domain/gamemap"
	"github.com/riskibarqy/geo-stats/internal/domain/location"
	"github.com/riskibarqy/geo-stats/internal/domain/match"
	"github.com/riskibarqy/geo-stats/internal/domain/player"
	"github.com/riskibarqy/geo-stats/internal/domain/team"
)

type duelsGameTableModel struct {
	ID                string    `db:"id"`
	TeamID1           string    `db:"team_id1"`
	TeamID2           string    `db:"team_id2"`
	HealthTeam1       int       `db:"health_team1"`
	HealthTeam2       int       `db:"health_team2"`
	TeamGameMode      string    `db:"team_game_mode"`
	GeoMode           string    `db:"geo_mode"`
	StartTime         time.Time `db:"start_time"`
	MapID             string    `db:"map_id"`
	RatingBeforeTeam1 *int      `db:"rating_before_team1"`
	RatingBeforeTeam2 *int      `db:"rating_before_team2"`
}

type duelsRoundTableModel struct {
	ID               string  `db:"id"`
	GameID           string  `db:"game_id"`
	LocationID       string  `db:"location_id"`
	RoundNumber      int     `db:"round_number"`
	DamageMultiplier float64 `db:"damage_multiplier"`
}

type guessTableModel struct {
	ID               string  `db:"id"`
	GameID           string  `db:"game_id"`
	RoundID          string  `db:"round_id"`
	TeamID           string  `db:"team_id"`
	Lat              float64 `db:"lat"`
	Lng              float64 `db:"lng"`
	Score            int     `db:"score"`
	Time             *int    `db:"time"`
	Distance         float64 `db:"distance"`
	CountryCode      *string `db:"country_code"`
	SubdivisionCode  *string `db:"subdivision_code"`
	RoundCountryCode string  `db:"round_country_code"`
	IsTeamsBest      bool    `db:"is_teams_best"`
}

type locationTableModel struct {
	ID              string  `db:"id"`
	Lat             float64 `db:"lat"`
	Lng             float64 `db:"lng"`
	Heading         float64 `db:"heading"`
	Pitch           float64 `db:"pitch"`
	Zoom            float64 `db:"zoom"`
	CountryCode     string  `db:"country_code"`
	SubdivisionCode *string `db:"subdivision_code"`
}

type playerTableModel struct {
	ID           string `db:"id"`
	Name         string `db:"name"`
	CountryCode  string `db:"country_code"`
	AvatarPin    string `db:"avatar_pin"`
	Level        int    `db:"level"`
	IsProUser    bool   `db:"is_pro_user"`
	IsCreator    bool   `db:"is_creator"`
	Rating       *int   `db:"rating"`
	MovingRating *int   `db:"moving_rating"`
	NoMoveRating *int   `db:"no_move_rating"`
	NMPZRating   *int   `db:"nmpz_rating"`
}

type compTeamTableModel struct {
	TeamID    string `db:"team_id"`
	PlayerID1 string `db:"player_id1"`
	PlayerID2 string `db:"player_id2"`
	Name      string `db:"name"`
	Rating    *int   `db:"rating"`
}

type funTeamTableModel struct {
	TeamID    string         `db:"team_id"`
	PlayerIDs pq.StringArray `db:"player_ids"`
}

type mapTableModel struct {
	ID               string  `db:"id"`
	Name             string  `db:"name"`
	Lat1             float64 `db:"lat1"`
	Lng1             float64 `db:"lng1"`
	Lat2             float64 `db:"lat2"`
	Lng2             float64 `db:"lng2"`
	MaxErrorDistance int     `db:"max_error_distance"`
}

func duelsGameModels(items []match.Match) []duelsGameTableModel {
	out := make([]duelsGameTableModel, 0, len(items))
	for _, m := range items {
		row := duelsGameTableModel{
			ID:                m.ID,
			TeamID1:           m.TeamID1,
			TeamID2:           m.TeamID2,
			HealthTeam1:       m.HealthTeam1,
			HealthTeam2:       m.HealthTeam2,
			StartTime:         m.StartTime.UTC(),
			MapID:             m.MapID,
			RatingBeforeTeam1: m.RatingBeforeTeam1,
			RatingBeforeTeam2: m.RatingBeforeTeam2,
		}
		if m.TeamGameMode != nil {
			row.TeamGameMode = m.TeamGameMode.String()
		}
		if m.GeoMode != nil {
			row.GeoMode = m.GeoMode.String()
		}
		out = append(out, row)
	}
	return out
}

func duelsRoundModels(items []match.Round) []duelsRoundTableModel {
	out := make([]duelsRoundTableModel, 0, len(items))
	for _, r := range items {
		out = append(out, duelsRoundTableModel{
			ID:               r.ID,
			GameID:           r.GameID,
			LocationID:       r.LocationID,
			RoundNumber:      r.RoundNumber,
			DamageMultiplier: r.DamageMultiplier,
		})
	}
	return out
}

func guessModels(items []match.Guess) []guessTableModel {
	out := make([]guessTableModel, 0, len(items))
	for _, g := range items {
		out = append(out, guessTableModel{
			ID:               g.ID,
			GameID:           g.GameID,
			RoundID:          g.RoundID,
			TeamID:           g.TeamID,
			Lat:              g.Lat,
			Lng:              g.Lng,
			Score:            g.Score,
			Time:             g.Time,
			Distance:         g.Distance,
			CountryCode:      g.CountryCode,
			SubdivisionCode:  g.SubdivisionCode,
			RoundCountryCode: g.RoundCountryCode,
			IsTeamsBest:      g.IsTeamsBest,
		})
	}
	return out
}

func locationModels(items []location.Location) []locationTableModel {
	out := make([]locationTableModel, 0, len(items))
	for _, l := range items {
		out = append(out, locationTableModel(l))
	}
	return out
}

func playerModels(items []player.Player) []playerTableModel {
	out := make([]playerTableModel, 0, len(items))
	for _, p := range items {
		out = append(out, playerTableModel(p))
	}
	return out
}

func compTeamModels(items []team.CompetitiveTeam) []compTeamTableModel {
	out := make([]compTeamTableModel, 0, len(items))
	for _, t := range items {
		out = append(out, compTeamTableModel(t))
	}
	return out
}

func funTeamModels(items []team.CasualTeam) []funTeamTableModel {
	out := make([]funTeamTableModel, 0, len(items))
	for _, t := range items {
		out = append(out, funTeamTableModel{
			TeamID:    t.TeamID,
			PlayerIDs: pq.StringArray(append([]string(nil), t.PlayerIDs...)),
		})
	}
	return out
}

func mapModels(items []gamemap.Map) []mapTableModel {
	out := make([]mapTableModel, 0, len(items))
	for _, m := range items {
		out = append(out, mapTableModel(m))
	}
	return out
}
