package geo

// PriorityCountryCodes are dependent territories that overlap their parent
// country in the world dataset. When one of them contains a point it wins.
var PriorityCountryCodes = []string{"CW", "DO", "PR", "VI", "GU", "MP", "HK", "CX", "ST", "SJ"}

// Resolution holds the codes for a coordinate. Nil means no polygon matched.
type Resolution struct {
	CountryCode     *string
	SubdivisionCode *string
}

type Resolver struct {
	world        *BoundaryIndex
	subdivisions *BoundaryIndex
	priority     map[string]struct{}
}

// NewResolver accepts nil indexes; lookups against them resolve to nothing.
func NewResolver(world, subdivisions *BoundaryIndex) *Resolver {
	priority := make(map[string]struct{}, len(PriorityCountryCodes))
	for _, code := range PriorityCountryCodes {
		priority[code] = struct{}{}
	}
	return &Resolver{
		world:        world,
		subdivisions: subdivisions,
		priority:     priority,
	}
}

func (r *Resolver) Resolve(lat, lng float64) Resolution {
	return Resolution{
		CountryCode:     r.CountryCode(lat, lng),
		SubdivisionCode: r.SubdivisionCode(lat, lng),
	}
}

// CountryCode picks the last containing polygon unless a priority territory
// is among the candidates.
func (r *Resolver) CountryCode(lat, lng float64) *string {
	candidates := r.world.Containing(lat, lng)
	if len(candidates) == 0 {
		return nil
	}
	for _, id := range candidates {
		if _, ok := r.priority[id]; ok {
			return &id
		}
	}
	last := candidates[len(candidates)-1]
	return &last
}

func (r *Resolver) SubdivisionCode(lat, lng float64) *string {
	candidates := r.subdivisions.Containing(lat, lng)
	if len(candidates) == 0 {
		return nil
	}
	first := candidates[0]
	return &first
}
