package player

import "fmt"

// Player is a profile snapshot; re-ingestion overwrites every field but ID.
type Player struct {
	ID           string
	Name         string
	CountryCode  string
	AvatarPin    string
	Level        int
	IsProUser    bool
	IsCreator    bool
	Rating       *int
	MovingRating *int
	NoMoveRating *int
	NMPZRating   *int
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if p.Level < 0 {
		return fmt.Errorf("player level must be >= 0")
	}

	return nil
}
