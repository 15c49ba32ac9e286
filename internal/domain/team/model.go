package team

// CompetitiveTeam is a rated two-player pairing from the ranked-team lookup.
type CompetitiveTeam struct {
	TeamID    string
	PlayerID1 string
	PlayerID2 string
	Name      string
	Rating    *int
}

// CasualTeam is an unrated team of any size.
type CasualTeam struct {
	TeamID    string
	PlayerIDs []string
}
