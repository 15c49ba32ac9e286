package usecase

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/riskibarqy/geo-stats/internal/domain/gamemap"
	"github.com/riskibarqy/geo-stats/internal/domain/location"
	"github.com/riskibarqy/geo-stats/internal/domain/match"
	"github.com/riskibarqy/geo-stats/internal/domain/team"
	"github.com/riskibarqy/geo-stats/internal/platform/geo"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

// rowNamespace seeds the name-based round and guess ids.
var rowNamespace = uuid.MustParse("7b0c5a52-52f4-4c8e-9a51-0d9b4f6e3c21")

// CoordinateResolver maps a coordinate to country and subdivision codes.
type CoordinateResolver interface {
	Resolve(lat, lng float64) geo.Resolution
}

// Classification is the mode and team identity derived from a fetched duel.
type Classification struct {
	TeamGameMode match.TeamGameMode
	GeoMode      match.GeoMode
	TeamIDs      [2]string
	Members      [2][]string
}

// Assembler turns one upstream duel into the rows of a write-set.
type Assembler struct {
	games    GameProvider
	enricher *ProfileEnricher
	resolver CoordinateResolver
	logger   *logging.Logger
}

func NewAssembler(games GameProvider, enricher *ProfileEnricher, resolver CoordinateResolver, logger *logging.Logger) *Assembler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Assembler{
		games:    games,
		enricher: enricher,
		resolver: resolver,
		logger:   logger,
	}
}

// Release undoes the refresh bookkeeping for a write-set that failed to commit.
func (a *Assembler) Release(set match.WriteSet) {
	if a.enricher != nil {
		a.enricher.Release(set)
	}
}

// Assemble runs Fetch, Classify and Build in order.
func (a *Assembler) Assemble(ctx context.Context, gameID string) (match.WriteSet, error) {
	duel, err := a.Fetch(ctx, gameID)
	if err != nil {
		return match.WriteSet{}, err
	}
	class, err := a.Classify(duel)
	if err != nil {
		return match.WriteSet{}, err
	}
	return a.Build(ctx, duel, class)
}

func (a *Assembler) Fetch(ctx context.Context, gameID string) (ExternalDuel, error) {
	gameID = strings.TrimSpace(gameID)
	if gameID == "" {
		return ExternalDuel{}, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	duel, err := a.games.FetchDuel(ctx, gameID)
	if err != nil {
		return ExternalDuel{}, err
	}
	if duel.GameID == "" {
		duel.GameID = gameID
	}
	if !match.IsFinishedStatus(duel.Status) {
		return ExternalDuel{}, fmt.Errorf("%w: game_id=%s status=%q", ErrNotFinished, gameID, duel.Status)
	}
	return duel, nil
}

func (a *Assembler) Classify(duel ExternalDuel) (Classification, error) {
	if len(duel.Teams) != 2 {
		return Classification{}, fmt.Errorf("%w: game_id=%s has %d teams, want 2", ErrInvalidInput, duel.GameID, len(duel.Teams))
	}
	if strings.TrimSpace(duel.Map.Slug) == "" {
		return Classification{}, fmt.Errorf("%w: game_id=%s has no map slug", ErrInvalidInput, duel.GameID)
	}

	var class Classification
	for idx, t := range duel.Teams {
		members := make([]string, 0, len(t.Players))
		for _, p := range t.Players {
			if p.PlayerID != "" {
				members = append(members, p.PlayerID)
			}
		}
		if len(members) == 0 {
			return Classification{}, fmt.Errorf("%w: game_id=%s team %d has no players", ErrInvalidInput, duel.GameID, idx+1)
		}
		class.Members[idx] = members
		class.TeamIDs[idx] = team.IdentityOf(members...)
	}

	class.TeamGameMode = match.ClassifyTeamGameMode(len(class.Members[0]), len(class.Members[1]), duel.Rated)
	class.GeoMode = match.ClassifyGeoMode(duel.Movement)
	return class, nil
}

func (a *Assembler) Build(ctx context.Context, duel ExternalDuel, class Classification) (set match.WriteSet, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Assembler.Build",
		attribute.String("game_id", duel.GameID),
		attribute.String("team_game_mode", class.TeamGameMode.String()),
	)
	defer func() { finishUsecaseSpan(span, err) }()

	enrichment, err := a.enrich(ctx, class)
	if err != nil {
		return match.WriteSet{}, err
	}

	maxMapDistance := match.MaxMapDistance(duel.Map.Bounds)

	var startTime *time.Time
	roundIndex := 0
	for _, r := range duel.Rounds {
		if r.RoundNumber > duel.CurrentRoundNumber {
			continue
		}
		if startTime == nil && r.StartTime != nil {
			startTime = r.StartTime
		}

		loc := a.buildLocation(r)
		round := match.Round{
			ID:               roundID(duel.GameID, roundIndex),
			GameID:           duel.GameID,
			LocationID:       loc.ID,
			RoundNumber:      roundIndex,
			DamageMultiplier: r.DamageMultiplier,
		}
		set.Locations = append(set.Locations, loc)
		set.Rounds = append(set.Rounds, round)
		set.Guesses = append(set.Guesses, a.buildGuesses(duel, class, r, round, loc, maxMapDistance)...)
		roundIndex++
	}
	if len(set.Rounds) == 0 {
		return match.WriteSet{}, fmt.Errorf("%w: game_id=%s has no completed rounds", ErrInvalidInput, duel.GameID)
	}
	if startTime == nil {
		return match.WriteSet{}, fmt.Errorf("%w: game_id=%s has no round start time", ErrInvalidInput, duel.GameID)
	}

	m := match.Match{
		ID:           duel.GameID,
		TeamID1:      class.TeamIDs[0],
		TeamID2:      class.TeamIDs[1],
		HealthTeam1:  duel.Teams[0].Health,
		HealthTeam2:  duel.Teams[1].Health,
		TeamGameMode: class.TeamGameMode,
		GeoMode:      class.GeoMode,
		StartTime:    startTime.UTC(),
		MapID:        duel.Map.Slug,
	}
	m.RatingBeforeTeam1, m.RatingBeforeTeam2 = ratingsBefore(duel, class.TeamGameMode)

	set.Matches = []match.Match{m}
	set.Maps = []gamemap.Map{buildMap(duel.Map, maxMapDistance)}
	set.Players = enrichment.Players
	set.CompetitiveTeams = enrichment.Teams
	if !match.IsSolo(class.TeamGameMode) && !match.HasCompetitiveTeams(class.TeamGameMode) {
		set.CasualTeams = []team.CasualTeam{
			team.NewCasualTeam(class.Members[0]...),
			team.NewCasualTeam(class.Members[1]...),
		}
	}

	a.logger.DebugContext(ctx, "match assembled",
		"game_id", duel.GameID,
		"team_game_mode", class.TeamGameMode.String(),
		"geo_mode", class.GeoMode.String(),
		"rounds", len(set.Rounds),
		"guesses", len(set.Guesses),
	)
	return set, nil
}

func (a *Assembler) enrich(ctx context.Context, class Classification) (Enrichment, error) {
	if a.enricher == nil {
		return Enrichment{}, nil
	}

	playerIDs := make([]string, 0, len(class.Members[0])+len(class.Members[1]))
	playerIDs = append(playerIDs, class.Members[0]...)
	playerIDs = append(playerIDs, class.Members[1]...)

	var pairs []RankedPair
	if match.HasCompetitiveTeams(class.TeamGameMode) {
		pairs = []RankedPair{
			{PlayerID1: class.Members[0][0], PlayerID2: class.Members[0][1]},
			{PlayerID1: class.Members[1][0], PlayerID2: class.Members[1][1]},
		}
	}
	return a.enricher.Enrich(ctx, playerIDs, pairs)
}

func (a *Assembler) buildLocation(r ExternalDuelRound) location.Location {
	resolved := a.resolve(r.Lat, r.Lng)
	countryCode := r.CountryCode
	if countryCode == "" && resolved.CountryCode != nil {
		countryCode = *resolved.CountryCode
	}

	id := r.PanoID
	if id == "" {
		id = strconv.FormatFloat(r.Lat, 'f', 6, 64) + "," + strconv.FormatFloat(r.Lng, 'f', 6, 64)
	}
	return location.Location{
		ID:              id,
		Lat:             r.Lat,
		Lng:             r.Lng,
		Heading:         r.Heading,
		Pitch:           r.Pitch,
		Zoom:            r.Zoom,
		CountryCode:     countryCode,
		SubdivisionCode: resolved.SubdivisionCode,
	}
}

func (a *Assembler) buildGuesses(duel ExternalDuel, class Classification, r ExternalDuelRound, round match.Round, loc location.Location, maxMapDistance float64) []match.Guess {
	var out []match.Guess
	for teamIdx, t := range duel.Teams {
		teamID := class.TeamIDs[teamIdx]
		bestTaken := false
		for _, p := range t.Players {
			for _, g := range p.Guesses {
				if g.RoundNumber != r.RoundNumber {
					continue
				}

				score := match.FallbackScore(g.Distance, maxMapDistance)
				if g.Score != nil {
					score = match.ClampScore(*g.Score)
				}
				// One best guess per team per round.
				best := g.IsTeamsBest && !bestTaken
				bestTaken = bestTaken || best

				resolved := a.resolve(g.Lat, g.Lng)
				out = append(out, match.Guess{
					ID:               guessID(round.ID, teamID, p.PlayerID),
					GameID:           duel.GameID,
					RoundID:          round.ID,
					TeamID:           teamID,
					Lat:              g.Lat,
					Lng:              g.Lng,
					Score:            score,
					Time:             elapsedSeconds(r.StartTime, g.Created),
					Distance:         g.Distance,
					CountryCode:      resolved.CountryCode,
					SubdivisionCode:  resolved.SubdivisionCode,
					RoundCountryCode: loc.CountryCode,
					IsTeamsBest:      best,
				})
				break
			}
		}
	}
	return out
}

func (a *Assembler) resolve(lat, lng float64) geo.Resolution {
	if a.resolver == nil {
		return geo.Resolution{}
	}
	return a.resolver.Resolve(lat, lng)
}

func buildMap(m ExternalMap, maxMapDistance float64) gamemap.Map {
	maxError := int(math.Round(maxMapDistance))
	if m.MaxErrorDistance != nil {
		maxError = *m.MaxErrorDistance
	}
	name := m.Name
	if name == "" {
		name = m.Slug
	}
	return gamemap.Map{
		ID:               m.Slug,
		Name:             name,
		Lat1:             m.Bounds.MinLat,
		Lng1:             m.Bounds.MinLng,
		Lat2:             m.Bounds.MaxLat,
		Lng2:             m.Bounds.MaxLng,
		MaxErrorDistance: maxError,
	}
}

// ratingsBefore reads the pre-match rating of each side's first player.
func ratingsBefore(duel ExternalDuel, mode match.TeamGameMode) (*int, *int) {
	first := func(idx int) ExternalDuelPlayer {
		return duel.Teams[idx].Players[0]
	}
	switch mode.(type) {
	case match.DuelsRanked:
		return first(0).RankedSystemRatingBefore, first(1).RankedSystemRatingBefore
	case match.TeamDuelsRanked:
		return first(0).RankedTeamRatingBefore, first(1).RankedTeamRatingBefore
	default:
		return nil, nil
	}
}

func elapsedSeconds(start, created *time.Time) *int {
	if start == nil || created == nil {
		return nil
	}
	seconds := int(created.Sub(*start) / time.Second)
	return &seconds
}

func roundID(gameID string, roundIndex int) string {
	return uuid.NewSHA1(rowNamespace, []byte(match.RoundKey(gameID, roundIndex))).String()
}

func guessID(roundID, teamID, playerID string) string {
	return uuid.NewSHA1(rowNamespace, []byte(roundID+"/"+teamID+"/"+playerID)).String()
}
