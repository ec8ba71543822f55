// Package clustering implements Lloyd's k-means with silhouette scoring and a sweep
// over a range of cluster counts.
package clustering

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/potencialpi/sentiment-cx/domain/core"
	"github.com/potencialpi/sentiment-cx/domain/survey"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

const (
	DefaultMaxIterations = 100
	DefaultTolerance     = 0.001
)

// Options tune a k-means run. Zero values fall back to the defaults.
type Options struct {
	MaxIterations int
	Tolerance     float64
	// Restarts re-runs the algorithm with fresh centroids drawn from the same generator
	// and keeps the run with the lowest inertia
	Restarts int
	Logger   *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Restarts <= 0 {
		o.Restarts = 1
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

var errNilRNG = errors.New("kmeans requires a random source")

// KMeans partitions points into k clusters. Initial centroids are k uniform draws from
// the points, with replacement. rng is the only source of randomness, so a fixed seed
// yields a fixed partition.
func KMeans(points [][]float64, k int, rng *rand.Rand, opts Options) (survey.Partition, error) {
	if err := validate(points, k); err != nil {
		return survey.Partition{}, err
	}
	if rng == nil {
		return survey.Partition{}, errNilRNG
	}
	opts = opts.withDefaults()

	var best survey.Partition
	for r := 0; r < opts.Restarts; r++ {
		p := lloyd(points, k, rng, opts)
		if r == 0 || p.Inertia < best.Inertia {
			best = p
		}
	}

	best.Silhouette = Silhouette(points, best.Assignments, k)
	if !best.Converged {
		opts.Logger.Debug("kmeans hit iteration cap",
			zap.Int("k", k),
			zap.Int("points", len(points)),
			zap.Int("iterations", best.Iterations))
	}
	return best, nil
}

func validate(points [][]float64, k int) error {
	n := len(points)
	if n == 0 {
		return core.NewInsufficientDataError("kmeans", 1, 0)
	}
	if k < 1 || k > n {
		return core.NewClusterCountError(k, n)
	}
	dim := len(points[0])
	for i, p := range points {
		if len(p) != dim {
			return fmt.Errorf("%w: point %d has %d values, want %d", core.ErrDimensionMismatch, i, len(p), dim)
		}
	}
	return nil
}

func lloyd(points [][]float64, k int, rng *rand.Rand, opts Options) survey.Partition {
	n := len(points)
	dim := len(points[0])

	centroids := make([][]float64, k)
	for c := range centroids {
		centroids[c] = append([]float64(nil), points[rng.Intn(n)]...)
	}

	assignments := make([]int, n)
	sums := make([][]float64, k)
	for c := range sums {
		sums[c] = make([]float64, dim)
	}
	counts := make([]int, k)

	iterations := 0
	converged := false
	for iterations < opts.MaxIterations {
		iterations++

		for i, p := range points {
			assignments[i] = nearest(p, centroids)
		}

		for c := range sums {
			floats.Scale(0, sums[c])
			counts[c] = 0
		}
		for i, p := range points {
			floats.Add(sums[assignments[i]], p)
			counts[assignments[i]]++
		}

		maxShift := 0.0
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			next := make([]float64, dim)
			floats.ScaleTo(next, 1/float64(counts[c]), sums[c])
			maxShift = math.Max(maxShift, floats.Distance(centroids[c], next, 2))
			centroids[c] = next
		}

		if maxShift < opts.Tolerance {
			converged = true
			break
		}
	}

	clusters := make([][]int, k)
	for c := range clusters {
		clusters[c] = []int{}
	}
	inertia := 0.0
	for i, p := range points {
		c := assignments[i]
		clusters[c] = append(clusters[c], i)
		d := floats.Distance(p, centroids[c], 2)
		inertia += d * d
	}

	return survey.Partition{
		K:           k,
		Centroids:   centroids,
		Assignments: assignments,
		Clusters:    clusters,
		Iterations:  iterations,
		Converged:   converged,
		Inertia:     inertia,
	}
}

// nearest returns the index of the closest centroid; ties go to the lower index
func nearest(p []float64, centroids [][]float64) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := floats.Distance(p, centroid, 2); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Silhouette is the mean silhouette coefficient of a partition. Points in a singleton
// cluster have a = 0. It is 0 when k <= 1 or fewer than two clusters are non-empty.
func Silhouette(points [][]float64, assignments []int, k int) float64 {
	if k <= 1 || len(points) == 0 || len(points) != len(assignments) {
		return 0
	}

	members := make([][]int, k)
	for i, c := range assignments {
		if c < 0 || c >= k {
			return 0
		}
		members[c] = append(members[c], i)
	}
	nonEmpty := 0
	for _, m := range members {
		if len(m) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return 0
	}

	total := 0.0
	for i, p := range points {
		own := assignments[i]

		a := 0.0
		if len(members[own]) > 1 {
			a = meanDistance(p, points, members[own], i)
		}

		b := math.Inf(1)
		for c, m := range members {
			if c == own || len(m) == 0 {
				continue
			}
			b = math.Min(b, meanDistance(p, points, m, -1))
		}

		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	return total / float64(len(points))
}

// meanDistance averages the distance from p to the listed points, skipping index skip
func meanDistance(p []float64, points [][]float64, idx []int, skip int) float64 {
	sum := 0.0
	count := 0
	for _, j := range idx {
		if j == skip {
			continue
		}
		sum += floats.Distance(p, points[j], 2)
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
