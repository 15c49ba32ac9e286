package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/riskibarqy/geo-stats/internal/domain/match"
	"github.com/riskibarqy/geo-stats/internal/domain/player"
	"github.com/riskibarqy/geo-stats/internal/domain/team"
	"github.com/riskibarqy/geo-stats/internal/platform/cache"
	"github.com/riskibarqy/geo-stats/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/otel/attribute"
)

const defaultEnrichmentConcurrency = 4

// RankedPair is a rated two-player team awaiting the ranked-team lookup.
type RankedPair struct {
	PlayerID1 string
	PlayerID2 string
}

func (p RankedPair) TeamID() string {
	return team.IdentityOf(p.PlayerID1, p.PlayerID2)
}

// Enrichment holds the profile rows refreshed for one match. Entities still
// fresh in the tracker are absent.
type Enrichment struct {
	Players []player.Player
	Teams   []team.CompetitiveTeam
}

// ProfileEnricher fetches player profiles and ranked-team records with a
// bounded fan-out, skipping keys refreshed within the tracker TTL.
type ProfileEnricher struct {
	profiles    ProfileProvider
	tracker     *cache.RefreshTracker
	concurrency int
	logger      *logging.Logger
}

func NewProfileEnricher(profiles ProfileProvider, tracker *cache.RefreshTracker, concurrency int, logger *logging.Logger) *ProfileEnricher {
	if logger == nil {
		logger = logging.Default()
	}
	if concurrency <= 0 {
		concurrency = defaultEnrichmentConcurrency
	}
	return &ProfileEnricher{
		profiles:    profiles,
		tracker:     tracker,
		concurrency: concurrency,
		logger:      logger,
	}
}

func playerCacheKey(playerID string) string { return "player:" + playerID }
func teamCacheKey(teamID string) string     { return "team:" + teamID }

func (e *ProfileEnricher) Enrich(ctx context.Context, playerIDs []string, pairs []RankedPair) (result Enrichment, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ProfileEnricher.Enrich",
		attribute.Int("players", len(playerIDs)),
		attribute.Int("ranked_pairs", len(pairs)),
	)
	defer func() { finishUsecaseSpan(span, err) }()

	playerIDs = stalePlayers(e.tracker, playerIDs)
	pairs = stalePairs(e.tracker, pairs)
	if len(playerIDs) == 0 && len(pairs) == 0 {
		return Enrichment{}, nil
	}

	players := make([]player.Player, len(playerIDs))
	teams := make([]team.CompetitiveTeam, len(pairs))

	p := pool.New().WithContext(ctx).WithMaxGoroutines(e.concurrency).WithCancelOnError()
	for idx, playerID := range playerIDs {
		p.Go(func(ctx context.Context) error {
			row, err := e.fetchPlayer(ctx, playerID)
			if err != nil {
				return err
			}
			players[idx] = row
			e.markRefreshed(playerCacheKey(playerID))
			return nil
		})
	}
	for idx, pair := range pairs {
		p.Go(func(ctx context.Context) error {
			row, err := e.fetchTeam(ctx, pair)
			if err != nil {
				return err
			}
			teams[idx] = row
			e.markRefreshed(teamCacheKey(row.TeamID))
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return Enrichment{}, err
	}

	e.logger.DebugContext(ctx, "profiles enriched", "players", len(players), "teams", len(teams))
	return Enrichment{Players: players, Teams: teams}, nil
}

func (e *ProfileEnricher) fetchPlayer(ctx context.Context, playerID string) (player.Player, error) {
	user, err := e.profiles.FetchUser(ctx, playerID)
	if err != nil {
		return player.Player{}, fmt.Errorf("enrich player %s: %w", playerID, err)
	}

	progress, err := e.profiles.FetchRankedProgress(ctx, playerID)
	switch {
	case errors.Is(err, ErrNotFound):
		// Unranked players have no progress record.
		progress = ExternalRankedProgress{}
	case err != nil:
		return player.Player{}, fmt.Errorf("enrich player ratings %s: %w", playerID, err)
	}

	row := player.Player{
		ID:           playerID,
		Name:         user.Nick,
		CountryCode:  user.CountryCode,
		AvatarPin:    user.AvatarPin,
		Level:        user.Level,
		IsProUser:    user.IsProUser,
		IsCreator:    user.IsCreator,
		Rating:       progress.Rating,
		MovingRating: progress.StandardDuels,
		NoMoveRating: progress.NoMoveDuels,
		NMPZRating:   progress.NMPZ,
	}
	if err := row.Validate(); err != nil {
		return player.Player{}, fmt.Errorf("%w: enrich player %s: %v", ErrUpstreamFetch, playerID, err)
	}
	return row, nil
}

func (e *ProfileEnricher) fetchTeam(ctx context.Context, pair RankedPair) (team.CompetitiveTeam, error) {
	members := []string{pair.PlayerID1, pair.PlayerID2}
	slices.Sort(members)

	ranked, err := e.profiles.FetchRankedTeam(ctx, members[0], members[1])
	if err != nil {
		return team.CompetitiveTeam{}, fmt.Errorf("enrich ranked team %s: %w", pair.TeamID(), err)
	}
	return team.CompetitiveTeam{
		TeamID:    team.IdentityOf(members...),
		PlayerID1: members[0],
		PlayerID2: members[1],
		Name:      ranked.Name,
		Rating:    ranked.Rating,
	}, nil
}

func (e *ProfileEnricher) markRefreshed(key string) {
	if e.tracker != nil {
		e.tracker.MarkRefreshed(key)
	}
}

// Release forgets the profile rows of a write-set that never reached the store,
// so the next attempt fetches and emits them again.
func (e *ProfileEnricher) Release(set match.WriteSet) {
	if e.tracker == nil {
		return
	}
	for _, p := range set.Players {
		e.tracker.Forget(playerCacheKey(p.ID))
	}
	for _, t := range set.CompetitiveTeams {
		e.tracker.Forget(teamCacheKey(t.TeamID))
	}
}

func stalePlayers(tracker *cache.RefreshTracker, playerIDs []string) []string {
	out := make([]string, 0, len(playerIDs))
	seen := make(map[string]struct{}, len(playerIDs))
	for _, id := range playerIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if tracker != nil && !tracker.ShouldRefresh(playerCacheKey(id)) {
			continue
		}
		out = append(out, id)
	}
	return out
}

func stalePairs(tracker *cache.RefreshTracker, pairs []RankedPair) []RankedPair {
	out := make([]RankedPair, 0, len(pairs))
	seen := make(map[string]struct{}, len(pairs))
	for _, pair := range pairs {
		teamID := pair.TeamID()
		if teamID == "" {
			continue
		}
		if _, ok := seen[teamID]; ok {
			continue
		}
		seen[teamID] = struct{}{}
		if tracker != nil && !tracker.ShouldRefresh(teamCacheKey(teamID)) {
			continue
		}
		out = append(out, pair)
	}
	return out
}
