package match

import (
	"strconv"

	"github.com/riskibarqy/geo-stats/internal/domain/gamemap"
	"github.com/riskibarqy/geo-stats/internal/domain/location"
	"github.com/riskibarqy/geo-stats/internal/domain/player"
	"github.com/riskibarqy/geo-stats/internal/domain/team"
)

// WriteSet holds every row derived from one or more matches, ready to commit.
type WriteSet struct {
	Matches          []Match
	Rounds           []Round
	Guesses          []Guess
	Locations        []location.Location
	Players          []player.Player
	CompetitiveTeams []team.CompetitiveTeam
	CasualTeams      []team.CasualTeam
	Maps             []gamemap.Map
}

// Append adds all rows of other to w.
func (w *WriteSet) Append(other WriteSet) {
	w.Matches = append(w.Matches, other.Matches...)
	w.Rounds = append(w.Rounds, other.Rounds...)
	w.Guesses = append(w.Guesses, other.Guesses...)
	w.Locations = append(w.Locations, other.Locations...)
	w.Players = append(w.Players, other.Players...)
	w.CompetitiveTeams = append(w.CompetitiveTeams, other.CompetitiveTeams...)
	w.CasualTeams = append(w.CasualTeams, other.CasualTeams...)
	w.Maps = append(w.Maps, other.Maps...)
}

func (w WriteSet) IsEmpty() bool {
	return len(w.Matches) == 0
}

// Dedupe drops rows sharing a primary key, keeping the first one seen.
func (w WriteSet) Dedupe() WriteSet {
	return WriteSet{
		Matches:          DedupeByKey(w.Matches, func(m Match) string { return m.ID }),
		Rounds:           DedupeByKey(w.Rounds, func(r Round) string { return r.ID }),
		Guesses:          DedupeByKey(w.Guesses, func(g Guess) string { return g.ID }),
		Locations:        DedupeByKey(w.Locations, func(l location.Location) string { return l.ID }),
		Players:          DedupeByKey(w.Players, func(p player.Player) string { return p.ID }),
		CompetitiveTeams: DedupeByKey(w.CompetitiveTeams, func(t team.CompetitiveTeam) string { return t.TeamID }),
		CasualTeams:      DedupeByKey(w.CasualTeams, func(t team.CasualTeam) string { return t.TeamID }),
		Maps:             DedupeByKey(w.Maps, func(m gamemap.Map) string { return m.ID }),
	}
}

// Counts reports row totals per table, keyed by table name.
func (w WriteSet) Counts() map[string]int {
	return map[string]int{
		"duels_game":  len(w.Matches),
		"duels_round": len(w.Rounds),
		"guess":       len(w.Guesses),
		"location":    len(w.Locations),
		"player":      len(w.Players),
		"comp_team":   len(w.CompetitiveTeams),
		"fun_team":    len(w.CasualTeams),
		"map":         len(w.Maps),
	}
}

// DedupeByKey is a stable first-seen filter.
func DedupeByKey[T any, K comparable](items []T, key func(T) K) []T {
	if len(items) == 0 {
		return nil
	}

	seen := make(map[K]struct{}, len(items))
	out := make([]T, 0, len(items))
	for _, item := range items {
		k := key(item)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

// RoundKey identifies a round inside a match for id derivation.
func RoundKey(gameID string, roundNumber int) string {
	return gameID + "/" + strconv.Itoa(roundNumber)
}
