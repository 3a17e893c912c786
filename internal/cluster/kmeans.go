// Package cluster partitions catalog embeddings into per-type k-means clusters.
package cluster

import (
	"fmt"
	"math/rand"

	"github.com/cinesense/cinesense/internal/vector"
	"github.com/cinesense/cinesense/pkg/utils"
)

// Config holds k-means parameters. Seed makes centroid initialization
// reproducible; fix it in tests to get stable assignments.
type Config struct {
	ClustersPerType int
	MaxIterations   int
	Seed            int64
}

// DefaultConfig returns the clustering defaults used in production.
func DefaultConfig() Config {
	return Config{ClustersPerType: 20, MaxIterations: 50, Seed: 42}
}

// effectiveK bounds k for a population of n items: never more clusters than
// items, and for small catalogs roughly one cluster per 20 items.
func effectiveK(k, n int) int {
	if n == 0 {
		return 0
	}
	scaled := n / 20
	if scaled < 2 {
		scaled = 2
	}
	if k > scaled {
		k = scaled
	}
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	return k
}

// kmeans runs k-means++ seeding followed by Lloyd iterations over unit
// vectors, using cosine distance. It returns the final centroids and the
// per-vector assignment. Non-convergence within MaxIterations is not an
// error; the last assignment is returned.
func kmeans(vectors [][]float32, k int, cfg Config) ([][]float32, []int, error) {
	n := len(vectors)
	if n == 0 || k <= 0 {
		return nil, nil, fmt.Errorf("kmeans: no vectors or invalid k=%d", k)
	}
	if k > n {
		k = n
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	centroids := seedCentroids(vectors, k, rng)

	assignments := make([]int, n)
	for i := range assignments {
		assignments[i] = -1
	}
	maxIter := cfg.MaxIterations
	if maxIter <= 0 {
		maxIter = 50
	}

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, v := range vectors {
			best := nearestCentroid(v, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		recomputeCentroids(vectors, assignments, centroids)
	}
	return centroids, assignments, nil
}

// seedCentroids picks k initial centroids with k-means++: the first uniformly
// at random, each following one weighted by squared cosine distance to the
// nearest already-chosen centroid.
func seedCentroids(vectors [][]float32, k int, rng *rand.Rand) [][]float32 {
	n := len(vectors)
	centroids := make([][]float32, 0, k)
	centroids = append(centroids, cloneVec(vectors[rng.Intn(n)]))

	dist2 := make([]float64, n)
	for len(centroids) < k {
		var total float64
		for i, v := range vectors {
			d := cosineDistance(v, centroids[len(centroids)-1])
			d2 := d * d
			if len(centroids) == 1 || d2 < dist2[i] {
				dist2[i] = d2
			}
			total += dist2[i]
		}
		var pick int
		if total <= 0 {
			pick = rng.Intn(n)
		} else {
			target := rng.Float64() * total
			var cum float64
			for i := range dist2 {
				cum += dist2[i]
				if cum >= target {
					pick = i
					break
				}
			}
		}
		centroids = append(centroids, cloneVec(vectors[pick]))
	}
	return centroids
}

// nearestCentroid returns the index of the centroid with the highest inner
// product with v. Ties resolve to the lowest index for determinism.
func nearestCentroid(v []float32, centroids [][]float32) int {
	best, bestDot := 0, vector.InnerProduct(v, centroids[0])
	for c := 1; c < len(centroids); c++ {
		if dot := vector.InnerProduct(v, centroids[c]); dot > bestDot {
			best, bestDot = c, dot
		}
	}
	return best
}

// recomputeCentroids replaces each centroid with the unit-normalized mean of
// its members. A centroid that lost all members is reseeded with the vector
// farthest from its current assignment's centroid so clusters never go empty.
func recomputeCentroids(vectors [][]float32, assignments []int, centroids [][]float32) {
	dim := len(vectors[0])
	sums := make([][]float32, len(centroids))
	counts := make([]int, len(centroids))
	for c := range sums {
		sums[c] = make([]float32, dim)
	}
	for i, v := range vectors {
		c := assignments[i]
		counts[c]++
		for j := range v {
			sums[c][j] += v[j]
		}
	}
	for c := range centroids {
		if counts[c] == 0 {
			reseedEmpty(vectors, assignments, centroids, c)
			continue
		}
		inv := 1.0 / float32(counts[c])
		for j := range sums[c] {
			sums[c][j] *= inv
		}
		utils.NormalizeL2(sums[c])
		centroids[c] = sums[c]
	}
}

func reseedEmpty(vectors [][]float32, assignments []int, centroids [][]float32, empty int) {
	worstIdx, worstDot := 0, 2.0
	for i, v := range vectors {
		dot := vector.InnerProduct(v, centroids[assignments[i]])
		if dot < worstDot {
			worstIdx, worstDot = i, dot
		}
	}
	centroids[empty] = cloneVec(vectors[worstIdx])
}

func cosineDistance(a, b []float32) float64 {
	return 1.0 - vector.InnerProduct(a, b)
}

func cloneVec(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}
