package clustering

import (
	"math/rand"

	"github.com/potencialpi/sentiment-cx/ports"
)

// SeededStreams derives per-operation generators by mixing a djb2 hash of the
// operation name into the base seed
type SeededStreams struct{}

var _ ports.RNGPort = SeededStreams{}

func (SeededStreams) Stream(name string, baseSeed int64) *rand.Rand {
	return rand.New(rand.NewSource(baseSeed + int64(hashString(name))))
}

// hashString is djb2
func hashString(s string) uint32 {
	var hash uint32 = 5381
	for _, c := range s {
		hash = ((hash << 5) + hash) + uint32(c)
	}
	return hash
}
