package geom

// Clamp limits v to the [min, max] range.
func Clamp(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Clamp01 limits v to the [0, 1] range.
func Clamp01(v float32) float32 {
	return Clamp(v, 0, 1)
}

// Lerp returns the linear interpolation between a and b at t.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Smoothstep applies the cubic ease t*t*(3-2t) to a t already in [0, 1].
func Smoothstep(t float32) float32 {
	return t * t * (3 - 2*t)
}
