package match

import "fmt"

// TeamGameMode describes team composition and whether the duel was rated.
// The set of variants is closed; use a type switch to branch on it.
type TeamGameMode interface {
	fmt.Stringer
	// Rated reports whether the duel affected player or team ratings.
	Rated() bool
	teamGameMode()
}

type (
	Duels           struct{}
	DuelsRanked     struct{}
	TeamDuels       struct{}
	TeamDuelsRanked struct{}
	TeamFun         struct{}
)

func (Duels) String() string           { return "Duels" }
func (DuelsRanked) String() string     { return "DuelsRanked" }
func (TeamDuels) String() string       { return "TeamDuels" }
func (TeamDuelsRanked) String() string { return "TeamDuelsRanked" }
func (TeamFun) String() string         { return "TeamFun" }

func (Duels) Rated() bool           { return false }
func (DuelsRanked) Rated() bool     { return true }
func (TeamDuels) Rated() bool       { return false }
func (TeamDuelsRanked) Rated() bool { return true }
func (TeamFun) Rated() bool         { return false }

func (Duels) teamGameMode()           {}
func (DuelsRanked) teamGameMode()     {}
func (TeamDuels) teamGameMode()       {}
func (TeamDuelsRanked) teamGameMode() {}
func (TeamFun) teamGameMode()         {}

// ClassifyTeamGameMode maps team sizes and the rated flag to a mode.
func ClassifyTeamGameMode(team1Size, team2Size int, rated bool) TeamGameMode {
	switch {
	case team1Size == 1 && team2Size == 1:
		if rated {
			return DuelsRanked{}
		}
		return Duels{}
	case team1Size == 2 && team2Size == 2:
		if rated {
			return TeamDuelsRanked{}
		}
		return TeamDuels{}
	default:
		return TeamFun{}
	}
}

// HasCompetitiveTeams reports whether both sides are rated two-player teams
// backed by the ranked-team lookup.
func HasCompetitiveTeams(mode TeamGameMode) bool {
	_, ok := mode.(TeamDuelsRanked)
	return ok
}

// IsSolo reports whether each side is a single player.
func IsSolo(mode TeamGameMode) bool {
	switch mode.(type) {
	case Duels, DuelsRanked:
		return true
	default:
		return false
	}
}

// MovementOptions are the camera restrictions configured for a duel.
type MovementOptions struct {
	ForbidMoving   bool
	ForbidZooming  bool
	ForbidRotating bool
}

// GeoMode is the movement-restriction flavor of a duel. Closed like TeamGameMode.
type GeoMode interface {
	fmt.Stringer
	geoMode()
}

type (
	Moving           struct{}
	NoPanning        struct{}
	NoZooming        struct{}
	NoPanningZooming struct{}
	NoMove           struct{}
	NoPanningMoving  struct{}
	NoMovingZooming  struct{}
	NMPZ             struct{}
)

func (Moving) String() string           { return "Moving" }
func (NoPanning) String() string        { return "NoPanning" }
func (NoZooming) String() string        { return "NoZooming" }
func (NoPanningZooming) String() string { return "NoPanningZooming" }
func (NoMove) String() string           { return "NoMove" }
func (NoPanningMoving) String() string  { return "NoPanningMoving" }
func (NoMovingZooming) String() string  { return "NoMovingZooming" }
func (NMPZ) String() string             { return "NMPZ" }

func (Moving) geoMode()           {}
func (NoPanning) geoMode()        {}
func (NoZooming) geoMode()        {}
func (NoPanningZooming) geoMode() {}
func (NoMove) geoMode()           {}
func (NoPanningMoving) geoMode()  {}
func (NoMovingZooming) geoMode()  {}
func (NMPZ) geoMode()             {}

// ClassifyGeoMode is total over the eight restriction combinations.
func ClassifyGeoMode(opts MovementOptions) GeoMode {
	switch opts {
	case MovementOptions{}:
		return Moving{}
	case MovementOptions{ForbidRotating: true}:
		return NoPanning{}
	case MovementOptions{ForbidZooming: true}:
		return NoZooming{}
	case MovementOptions{ForbidZooming: true, ForbidRotating: true}:
		return NoPanningZooming{}
	case MovementOptions{ForbidMoving: true}:
		return NoMove{}
	case MovementOptions{ForbidMoving: true, ForbidRotating: true}:
		return NoPanningMoving{}
	case MovementOptions{ForbidMoving: true, ForbidZooming: true}:
		return NoMovingZooming{}
	default:
		return NMPZ{}
	}
}
