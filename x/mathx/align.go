package mathx

import "golang.org/x/exp/constraints"

// AlignDown rounds v down to a multiple of unit. unit <= 0 leaves v unchanged.
func AlignDown[T constraints.Integer](v, unit T) T {
	if unit <= 0 {
		return v
	}
	return v - v%unit
}
