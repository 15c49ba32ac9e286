package usecase

import (
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/riskibarqy/geo-stats/internal/domain/match"
	"github.com/riskibarqy/geo-stats/internal/platform/cache"
	"github.com/riskibarqy/geo-stats/internal/platform/geo"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

var fixtureStart = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func square(minLng, minLat, maxLng, maxLat float64) orb.Polygon {
	return orb.Polygon{{{minLng, minLat}, {maxLng, minLat}, {maxLng, maxLat}, {minLng, maxLat}, {minLng, minLat}}}
}

func newTestResolver(t *testing.T) *geo.Resolver {
	t.Helper()

	world, err := geo.NewBoundaryIndex([]geo.Boundary{
		{ID: "FR", Geometry: square(0, 40, 10, 50)},
		{ID: "VE", Geometry: square(-70, 0, -60, 12)},
	})
	if err != nil {
		t.Fatalf("build world index: %v", err)
	}
	subdivisions, err := geo.NewBoundaryIndex([]geo.Boundary{
		{ID: "FR-ARA", Geometry: square(4, 44, 7, 46)},
	})
	if err != nil {
		t.Fatalf("build subdivision index: %v", err)
	}
	return geo.NewResolver(world, subdivisions)
}

func newTestTracker() *cache.RefreshTracker {
	return cache.NewRefreshTracker(90*time.Second, func() time.Time { return fixtureStart })
}

func newTestAssembler(t *testing.T, games GameProvider, profiles ProfileProvider, tracker *cache.RefreshTracker) *Assembler {
	t.Helper()
	enricher := NewProfileEnricher(profiles, tracker, 4, logging.NewNop())
	return NewAssembler(games, enricher, newTestResolver(t), logging.NewNop())
}

func worldMap() ExternalMap {
	return ExternalMap{
		Slug:   "world",
		Name:   "A Diverse World",
		Bounds: match.Bounds{MinLat: -60, MinLng: -180, MaxLat: 85, MaxLng: 180},
	}
}

// oneVsOneDuel is a finished unrated 1v1 with two completed rounds and a
// third round beyond the recorded progress.
func oneVsOneDuel(gameID string) ExternalDuel {
	return ExternalDuel{
		GameID:             gameID,
		Status:             match.StatusFinished,
		CurrentRoundNumber: 2,
		Map:                worldMap(),
		Teams: []ExternalDuelTeam{
			{
				ID:     "team-red",
				Health: 6000,
				Players: []ExternalDuelPlayer{{
					PlayerID: "p-alpha",
					Guesses: []ExternalGuess{{
						RoundNumber: 1, Lat: 45.1, Lng: 5.2, Distance: 1500, Score: intPtr(4980),
						Created: timePtr(fixtureStart.Add(21 * time.Second)), IsTeamsBest: true,
					}},
				}},
			},
			{
				ID:     "team-blue",
				Health: 0,
				Players: []ExternalDuelPlayer{{
					PlayerID: "p-beta",
					Guesses: []ExternalGuess{{
						RoundNumber: 2, Lat: 8, Lng: -65, Distance: 250000, Score: intPtr(3100),
						Created: timePtr(fixtureStart.Add(100 * time.Second)), IsTeamsBest: true,
					}},
				}},
			},
		},
		Rounds: []ExternalDuelRound{
			{RoundNumber: 1, PanoID: "pano-1", Lat: 45, Lng: 5, CountryCode: "FR", DamageMultiplier: 1, StartTime: timePtr(fixtureStart)},
			{RoundNumber: 2, PanoID: "pano-2", Lat: 8.1, Lng: -65.1, CountryCode: "VE", DamageMultiplier: 1.5, StartTime: timePtr(fixtureStart.Add(60 * time.Second))},
			{RoundNumber: 3, PanoID: "pano-3", Lat: 0, Lng: -30, DamageMultiplier: 2},
		},
	}
}

// teamDuel is a finished 2v2 with one round where every player guessed.
func teamDuel(gameID string, rated bool, team1, team2 [2]string) ExternalDuel {
	guess := func(lat, lng float64, best bool) []ExternalGuess {
		return []ExternalGuess{{
			RoundNumber: 1, Lat: lat, Lng: lng, Distance: 1000, Score: intPtr(4000),
			Created: timePtr(fixtureStart.Add(30 * time.Second)), IsTeamsBest: best,
		}}
	}
	return ExternalDuel{
		GameID:             gameID,
		Status:             match.StatusFinished,
		CurrentRoundNumber: 1,
		Rated:              rated,
		Movement:           match.MovementOptions{ForbidMoving: true},
		Map:                worldMap(),
		Teams: []ExternalDuelTeam{
			{
				Health: 5000,
				Players: []ExternalDuelPlayer{
					{PlayerID: team1[0], RankedTeamRatingBefore: intPtr(1200), Guesses: guess(45, 5, true)},
					{PlayerID: team1[1], Guesses: guess(46, 6, true)},
				},
			},
			{
				Health: 3000,
				Players: []ExternalDuelPlayer{
					{PlayerID: team2[0], RankedTeamRatingBefore: intPtr(1100), Guesses: guess(8, -65, false)},
					{PlayerID: team2[1], Guesses: guess(9, -66, true)},
				},
			},
		},
		Rounds: []ExternalDuelRound{
			{RoundNumber: 1, PanoID: "pano-team-" + gameID, Lat: 45, Lng: 5, CountryCode: "FR", DamageMultiplier: 1, StartTime: timePtr(fixtureStart)},
		},
	}
}

// expectProfiles stubs user and progress lookups for every id as optional calls.
func expectProfiles(profiles *MockProfileProvider, ids ...string) {
	for _, id := range ids {
		profiles.On("FetchUser", mock.Anything, id).
			Return(ExternalUser{ID: id, Nick: "nick-" + id, CountryCode: "fr", Level: 10}, nil).
			Maybe()
		profiles.On("FetchRankedProgress", mock.Anything, id).
			Return(ExternalRankedProgress{Rating: intPtr(1000)}, nil).
			Maybe()
	}
}
