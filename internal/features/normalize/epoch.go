package normalize

// Above this an epoch value cannot be seconds (it would be past year 33000).
const millisThreshold = 1e12

// FromMillis converts an epoch in milliseconds to whole seconds.
func FromMillis(ms float64) int64 {
	if ms <= 0 {
		return 0
	}
	return int64(ms / 1000)
}

// FromSeconds keeps whole seconds but falls back to FromMillis for values
// that are clearly milliseconds.
func FromSeconds(s float64) int64 {
	if s <= 0 {
		return 0
	}
	if s > millisThreshold {
		return FromMillis(s)
	}
	return int64(s)
}
