package mathhelp

import "math"

func Bool2int(b bool) int {
	if b {
		return 1
	}
	return 0
}

func Bool2float(b bool) float64 {
	return float64(Bool2int(b))
}

// Hypot3 is the length of the 3D vector (dx, dy, dz)
func Hypot3(dx, dy, dz float64) float64 {
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
