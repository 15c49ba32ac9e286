package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/riskibarqy/geo-stats/internal/domain/gamemap"
	"github.com/riskibarqy/geo-stats/internal/domain/location"
	"github.com/riskibarqy/geo-stats/internal/domain/match"
	"github.com/riskibarqy/geo-stats/internal/domain/player"
	"github.com/riskibarqy/geo-stats/internal/domain/team"
	"github.com/riskibarqy/geo-stats/internal/platform/querybuilder"
)

// conflictPolicies mirrors the postgres upsert table for the in-memory store.
var conflictPolicies = map[string]querybuilder.ConflictAction{
	"duels_game":  querybuilder.ConflictFail,
	"duels_round": querybuilder.ConflictFail,
	"guess":       querybuilder.ConflictFail,
	"player":      querybuilder.ConflictUpdate,
	"comp_team":   querybuilder.ConflictUpdate,
	"map":         querybuilder.ConflictUpdate,
	"location":    querybuilder.ConflictIgnore,
	"fun_team":    querybuilder.ConflictIgnore,
}

type tables struct {
	matches          map[string]match.Match
	rounds           map[string]match.Round
	guesses          map[string]match.Guess
	locations        map[string]location.Location
	players          map[string]player.Player
	competitiveTeams map[string]team.CompetitiveTeam
	casualTeams      map[string]team.CasualTeam
	maps             map[string]gamemap.Map
}

func newTables() tables {
	return tables{
		matches:          make(map[string]match.Match),
		rounds:           make(map[string]match.Round),
		guesses:          make(map[string]match.Guess),
		locations:        make(map[string]location.Location),
		players:          make(map[string]player.Player),
		competitiveTeams: make(map[string]team.CompetitiveTeam),
		casualTeams:      make(map[string]team.CasualTeam),
		maps:             make(map[string]gamemap.Map),
	}
}

func (t tables) clone() tables {
	return tables{
		matches:          cloneMap(t.matches),
		rounds:           cloneMap(t.rounds),
		guesses:          cloneMap(t.guesses),
		locations:        cloneMap(t.locations),
		players:          cloneMap(t.players),
		competitiveTeams: cloneMap(t.competitiveTeams),
		casualTeams:      cloneMap(t.casualTeams),
		maps:             cloneMap(t.maps),
	}
}

// WriteSetRepository keeps committed write-sets in process memory. Commit is
// all-or-nothing: rows are staged on a copy and swapped in on success.
type WriteSetRepository struct {
	mu   sync.RWMutex
	data tables
}

func NewWriteSetRepository() *WriteSetRepository {
	return &WriteSetRepository{data: newTables()}
}

func (r *WriteSetRepository) Exists(_ context.Context, gameID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.data.matches[gameID]
	return ok, nil
}

func (r *WriteSetRepository) Commit(ctx context.Context, set match.WriteSet) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	staged := r.data.clone()
	for _, m := range set.Maps {
		applyMap(staged.maps, m)
	}
	for _, l := range set.Locations {
		if err := put(staged.locations, "location", l.ID, l); err != nil {
			return err
		}
	}
	for _, p := range set.Players {
		if err := put(staged.players, "player", p.ID, p); err != nil {
			return err
		}
	}
	for _, t := range set.CompetitiveTeams {
		applyCompetitiveTeam(staged.competitiveTeams, t)
	}
	for _, t := range set.CasualTeams {
		t.PlayerIDs = slices.Clone(t.PlayerIDs)
		if err := put(staged.casualTeams, "fun_team", t.TeamID, t); err != nil {
			return err
		}
	}
	for _, m := range set.Matches {
		if err := put(staged.matches, "duels_game", m.ID, m); err != nil {
			return err
		}
	}
	for _, round := range set.Rounds {
		if err := put(staged.rounds, "duels_round", round.ID, round); err != nil {
			return err
		}
	}
	for _, g := range set.Guesses {
		if err := put(staged.guesses, "guess", g.ID, g); err != nil {
			return err
		}
	}

	r.data = staged
	return nil
}

func put[T any](rows map[string]T, table, key string, row T) error {
	if _, exists := rows[key]; !exists {
		rows[key] = row
		return nil
	}

	switch conflictPolicies[table] {
	case querybuilder.ConflictIgnore:
		return nil
	case querybuilder.ConflictUpdate:
		rows[key] = row
		return nil
	default:
		if table == "duels_game" {
			return fmt.Errorf("%w: game_id=%s", match.ErrAlreadyExists, key)
		}
		return fmt.Errorf("duplicate key in %s: %s", table, key)
	}
}

// applyMap keeps the stored bounds; only the name and max error distance change.
func applyMap(rows map[string]gamemap.Map, m gamemap.Map) {
	current, ok := rows[m.ID]
	if !ok {
		rows[m.ID] = m
		return
	}
	current.Name = m.Name
	current.MaxErrorDistance = m.MaxErrorDistance
	rows[m.ID] = current
}

// applyCompetitiveTeam keeps the stored members; only the name and rating change.
func applyCompetitiveTeam(rows map[string]team.CompetitiveTeam, t team.CompetitiveTeam) {
	current, ok := rows[t.TeamID]
	if !ok {
		rows[t.TeamID] = t
		return
	}
	current.Name = t.Name
	current.Rating = t.Rating
	rows[t.TeamID] = current
}

// Counts reports stored rows per table.
func (r *WriteSetRepository) Counts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[string]int{
		"duels_game":  len(r.data.matches),
		"duels_round": len(r.data.rounds),
		"guess":       len(r.data.guesses),
		"location":    len(r.data.locations),
		"player":      len(r.data.players),
		"comp_team":   len(r.data.competitiveTeams),
		"fun_team":    len(r.data.casualTeams),
		"map":         len(r.data.maps),
	}
}

func (r *WriteSetRepository) Match(id string) (match.Match, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.data.matches[id]
	return m, ok
}

func (r *WriteSetRepository) Location(id string) (location.Location, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.data.locations[id]
	return l, ok
}

func (r *WriteSetRepository) Player(id string) (player.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.data.players[id]
	return p, ok
}

func (r *WriteSetRepository) Map(id string) (gamemap.Map, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.data.maps[id]
	return m, ok
}

func (r *WriteSetRepository) CompetitiveTeam(id string) (team.CompetitiveTeam, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.data.competitiveTeams[id]
	return t, ok
}

func (r *WriteSetRepository) CasualTeam(id string) (team.CasualTeam, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.data.casualTeams[id]
	return t, ok
}

// Guesses returns the stored guesses of one match ordered by id.
func (r *WriteSetRepository) Guesses(gameID string) []match.Guess {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Guess, 0)
	for _, g := range r.data.guesses {
		if g.GameID == gameID {
			out = append(out, g)
		}
	}
	slices.SortFunc(out, func(a, b match.Guess) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	return out
}

func cloneMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
