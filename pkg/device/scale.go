package device

// Scale converts converter counts to millivolts for a converter of the given
// resolution whose full-scale count corresponds to ReferenceMV.
type Scale struct {
	Bits        int
	ReferenceMV int
}

// Resolution returns the converter resolution in bits.
func (s Scale) Resolution() int {
	return s.Bits
}

// MaxCount returns the full-scale count.
func (s Scale) MaxCount() int {
	return 1<<s.Bits - 1
}

// ToMillivolts converts a raw count to millivolts, truncating.
func (s Scale) ToMillivolts(raw int) int {
	return int(int64(raw) * int64(s.ReferenceMV) / int64(s.MaxCount()))
}

// ToCounts converts millivolts to the nearest count, clamped to the converter range.
func (s Scale) ToCounts(mv float64) int {
	c := int(mv*float64(s.MaxCount())/float64(s.ReferenceMV) + 0.5)
	if c < 0 {
		return 0
	}
	if c > s.MaxCount() {
		return s.MaxCount()
	}
	return c
}
