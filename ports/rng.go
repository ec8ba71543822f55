package ports

import "math/rand"

// RNGPort hands out independent, reproducible random streams derived from one base seed
type RNGPort interface {
	// Stream returns a generator for a named operation. The same name and seed always
	// produce the same sequence; different names produce unrelated sequences.
	Stream(name string, baseSeed int64) *rand.Rand
}
