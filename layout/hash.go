package layout

import "hash/fnv"

// Hash salts keep the latitude, longitude, and jitter streams independent
// for the same node id.
const (
	saltLatitude  = 0x01
	saltLongitude = 0x02
	saltJitter    = 0x03
)

// hashUnit maps a node id to a stable value in [0, 1). FNV-1a is enough
// here. The only hard requirement is determinism.
func hashUnit(id string, salt byte) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte{salt})
	_, _ = h.Write([]byte(id))

	return float64(h.Sum64()>>11) / float64(1<<53)
}

// jitter returns a small per-id angular offset in degrees. The same id
// always gets the same jitter.
func jitter(id string) float64 {
	return (hashUnit(id, saltJitter)*2 - 1) * jitterDeg
}
