package gamemap

// Map is a game board keyed by its slug. Bounds never change after the first write.
type Map struct {
	ID               string
	Name             string
	Lat1             float64
	Lng1             float64
	Lat2             float64
	Lng2             float64
	MaxErrorDistance int
}
