package team

import (
	"slices"
	"strings"
)

const IdentitySeparator = "_"

// IdentityOf derives the team id from its members. The result does not depend
// on member order; a single member yields the member id itself.
func IdentityOf(memberIDs ...string) string {
	return strings.Join(sortedMembers(memberIDs), IdentitySeparator)
}

func NewCasualTeam(memberIDs ...string) CasualTeam {
	ids := sortedMembers(memberIDs)
	return CasualTeam{
		TeamID:    strings.Join(ids, IdentitySeparator),
		PlayerIDs: ids,
	}
}

func sortedMembers(memberIDs []string) []string {
	ids := make([]string, 0, len(memberIDs))
	for _, id := range memberIDs {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	slices.Sort(ids)
	return ids
}
