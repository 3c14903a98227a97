package neat

import "golang.org/x/exp/rand"

// newRand returns a generator seeded with seed.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// streamSeed derives an independent seed for one genome of one generation,
// so that work split across goroutines stays reproducible.
func streamSeed(seed uint64, generation, index int) uint64 {
	x := seed
	x = mix64(x + 0x9e3779b97f4a7c15*uint64(generation+1))
	x = mix64(x + 0xbf58476d1ce4e5b9*uint64(index+1))
	return x
}

// mix64 is the splitmix64 finalizer.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
