package location

// Location is a panorama shown as a round target. Stored once and never updated.
type Location struct {
	ID              string
	Lat             float64
	Lng             float64
	Heading         float64
	Pitch           float64
	Zoom            float64
	CountryCode     string
	SubdivisionCode *string
}
