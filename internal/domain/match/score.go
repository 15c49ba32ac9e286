package match

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

const MaxScore = 5000

// Bounds is a map's bounding box in degrees.
type Bounds struct {
	MinLat float64
	MinLng float64
	MaxLat float64
	MaxLng float64
}

// MaxMapDistance is the great-circle distance in meters between the box corners.
func MaxMapDistance(b Bounds) float64 {
	return geo.DistanceHaversine(orb.Point{b.MinLng, b.MinLat}, orb.Point{b.MaxLng, b.MaxLat})
}

// FallbackScore approximates the upstream scoring curve for a guess whose score
// was omitted. Both arguments are in meters.
func FallbackScore(distance, maxMapDistance float64) int {
	if math.IsNaN(distance) {
		return 0
	}
	if distance <= 0 {
		return MaxScore
	}
	if maxMapDistance <= 0 || math.IsNaN(maxMapDistance) {
		return 0
	}

	score := math.Round(MaxScore * math.Exp(-10*distance/maxMapDistance))
	return ClampScore(int(score))
}

// ClampScore bounds a score to [0, MaxScore].
func ClampScore(score int) int {
	switch {
	case score < 0:
		return 0
	case score > MaxScore:
		return MaxScore
	default:
		return score
	}
}
