package terrain

// Hash mixes integer grid coordinates and a salt into a well-distributed
// 32-bit value. It is a pure function: the same inputs give the same output
// on every frame and every platform.
func Hash(x, y int32, salt uint32) uint32 {
	h := uint32(x)*374761393 + uint32(y)*668265263 + salt*1442695041
	h = (h ^ (h >> 13)) * 1274126177
	h ^= h >> 16
	// Final avalanche so that neighbouring salts decorrelate
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

// HashFloat maps Hash to [0, 1).
func HashFloat(x, y int32, salt uint32) float32 {
	return float32(Hash(x, y, salt)&0x00FFFFFF) / float32(0x01000000)
}
