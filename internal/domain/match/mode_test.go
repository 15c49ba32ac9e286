package match

import "testing"

func TestClassifyTeamGameMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		team1 int
		team2 int
		rated bool
		want  TeamGameMode
	}{
		{name: "1v1 unrated", team1: 1, team2: 1, want: Duels{}},
		{name: "1v1 rated", team1: 1, team2: 1, rated: true, want: DuelsRanked{}},
		{name: "2v2 unrated", team1: 2, team2: 2, want: TeamDuels{}},
		{name: "2v2 rated", team1: 2, team2: 2, rated: true, want: TeamDuelsRanked{}},
		{name: "3v3", team1: 3, team2: 3, want: TeamFun{}},
		{name: "uneven rated", team1: 1, team2: 2, rated: true, want: TeamFun{}},
		{name: "empty side", team1: 0, team2: 1, want: TeamFun{}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ClassifyTeamGameMode(tc.team1, tc.team2, tc.rated)
			if got != tc.want {
				t.Fatalf("unexpected mode: got=%s want=%s", got, tc.want)
			}
			if got.Rated() != (tc.rated && (tc.team1 == tc.team2) && (tc.team1 == 1 || tc.team1 == 2)) {
				t.Fatalf("unexpected rated flag for %s", got)
			}
		})
	}
}

func TestClassifyGeoMode_AllCombinations(t *testing.T) {
	t.Parallel()

	tests := []struct {
		opts MovementOptions
		want string
	}{
		{MovementOptions{}, "Moving"},
		{MovementOptions{ForbidRotating: true}, "NoPanning"},
		{MovementOptions{ForbidZooming: true}, "NoZooming"},
		{MovementOptions{ForbidZooming: true, ForbidRotating: true}, "NoPanningZooming"},
		{MovementOptions{ForbidMoving: true}, "NoMove"},
		{MovementOptions{ForbidMoving: true, ForbidRotating: true}, "NoPanningMoving"},
		{MovementOptions{ForbidMoving: true, ForbidZooming: true}, "NoMovingZooming"},
		{MovementOptions{ForbidMoving: true, ForbidZooming: true, ForbidRotating: true}, "NMPZ"},
	}

	seen := make(map[string]struct{}, len(tests))
	for _, tc := range tests {
		got := ClassifyGeoMode(tc.opts)
		if got.String() != tc.want {
			t.Fatalf("unexpected geo mode for %+v: got=%s want=%s", tc.opts, got, tc.want)
		}
		seen[got.String()] = struct{}{}
	}
	if len(seen) != len(tests) {
		t.Fatalf("expected %d distinct modes, got %d", len(tests), len(seen))
	}
}
