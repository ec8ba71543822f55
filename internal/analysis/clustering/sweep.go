package clustering

import (
	"fmt"

	"github.com/potencialpi/sentiment-cx/domain/survey"
	"github.com/potencialpi/sentiment-cx/ports"

	"go.uber.org/zap"
)

const (
	DefaultKMin = 2
	DefaultKMax = 5
	// MinSweepPoints is the smallest dataset a sweep will cluster
	MinSweepPoints = 6
)

// SweepOptions bound the k range and configure each k-means run
type SweepOptions struct {
	KMin    int
	KMax    int
	KMeans  Options
	Streams ports.RNGPort
	Logger  *zap.Logger
}

// Sweep runs k-means for every k from max(2, KMin) to min(KMax, n/2) and returns the
// partitions in k order. Each k draws from its own stream derived from seed, so results
// for one k do not depend on which other k were run. Fewer than MinSweepPoints points
// gives an empty result. No best k is chosen.
func Sweep(points [][]float64, seed int64, opts SweepOptions) ([]survey.Partition, error) {
	if opts.KMin < DefaultKMin {
		opts.KMin = DefaultKMin
	}
	if opts.KMax <= 0 {
		opts.KMax = DefaultKMax
	}
	if opts.Streams == nil {
		opts.Streams = SeededStreams{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.KMeans.Logger == nil {
		opts.KMeans.Logger = opts.Logger
	}

	partitions := make([]survey.Partition, 0)
	n := len(points)
	if n < MinSweepPoints {
		opts.Logger.Debug("cluster sweep skipped", zap.Int("points", n))
		return partitions, nil
	}

	kMax := opts.KMax
	if half := n / 2; half < kMax {
		kMax = half
	}

	for k := opts.KMin; k <= kMax; k++ {
		rng := opts.Streams.Stream(StreamName(k), seed)
		p, err := KMeans(points, k, rng, opts.KMeans)
		if err != nil {
			return nil, fmt.Errorf("sweep k=%d: %w", k, err)
		}
		opts.Logger.Debug("cluster sweep step",
			zap.Int("k", k),
			zap.Float64("silhouette", p.Silhouette),
			zap.Int("iterations", p.Iterations),
			zap.Bool("converged", p.Converged))
		partitions = append(partitions, p)
	}
	return partitions, nil
}

// StreamName is the RNG stream name used for cluster count k
func StreamName(k int) string {
	return fmt.Sprintf("kmeans/k=%d", k)
}
