package keygen

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/streamsim/dataflow-sim/pkg/model"
)

// distribution produces a batch of key indices for one step, in whatever
// statistical shape the keygen config names.
type distribution interface {
	generate(rng *rand.Rand, arrivalRate int, numKeys int) []int
}

type normalDistribution struct{ mean, std float64 }

func (d normalDistribution) generate(rng *rand.Rand, arrivalRate, numKeys int) []int {
	out := make([]int, arrivalRate)
	for i := range out {
		v := rng.NormFloat64()*d.std + d.mean
		idx := int(math.Round(v)) % numKeys
		if idx < 0 {
			idx += numKeys
		}
		out[i] = idx
	}
	return out
}

type uniformDistribution struct{}

func (uniformDistribution) generate(rng *rand.Rand, arrivalRate, numKeys int) []int {
	out := make([]int, arrivalRate)
	for i := range out {
		out[i] = rng.Intn(numKeys)
	}
	return out
}

type poissonDistribution struct{ lambda float64 }

// generate draws from a Poisson(lambda) distribution via Knuth's
// multiplication algorithm, suitable for the small lambdas a key
// simulation uses.
func (d poissonDistribution) generate(rng *rand.Rand, arrivalRate, numKeys int) []int {
	out := make([]int, arrivalRate)
	l := math.Exp(-d.lambda)
	for i := range out {
		k := 0
		p := 1.0
		for {
			p *= rng.Float64()
			if p <= l {
				break
			}
			k++
		}
		out[i] = k % numKeys
	}
	return out
}

type zipfDistribution struct {
	z *rand.Zipf
}

func newZipfDistribution(rng *rand.Rand, alpha float64, numKeys int) *zipfDistribution {
	s := alpha
	if s <= 1 {
		s = 1.01
	}
	z := rand.NewZipf(rng, s, 1, uint64(numKeys-1))
	return &zipfDistribution{z: z}
}

func (d *zipfDistribution) generate(rng *rand.Rand, arrivalRate, numKeys int) []int {
	out := make([]int, arrivalRate)
	for i := range out {
		out[i] = int(d.z.Uint64())
	}
	return out
}

// Generator produces synthetic key traffic for a simulation run, following
// a statistical distribution over a fixed key universe whose frequency
// ordering drifts step to step.
type Generator struct {
	cfg          model.KeygenConfig
	rng          *rand.Rand
	dist         distribution
	keys         []string
	keyDist      []string
	arrivalRate  float64
	initialRate  float64
	step         int
}

// NewGenerator builds a Generator for one stream, seeded deterministically
// so repeated runs with the same seed reproduce the same traffic.
func NewGenerator(cfg model.KeygenConfig, seed int64) (*Generator, error) {
	rng := rand.New(rand.NewSource(seed))

	keys := make([]string, cfg.NumberOfKeys)
	for i := range keys {
		keys[i] = fmt.Sprintf("key%d", i)
	}

	var dist distribution
	switch cfg.Distribution.Type {
	case model.DistributionNormal:
		dist = normalDistribution{mean: cfg.Distribution.Mean, std: cfg.Distribution.Std}
	case model.DistributionUniform:
		dist = uniformDistribution{}
	case model.DistributionPoisson:
		lambda := cfg.Distribution.Mean
		if lambda <= 0 {
			lambda = 1
		}
		dist = poissonDistribution{lambda: lambda}
	case model.DistributionZipf:
		alpha := cfg.Distribution.Skew
		if alpha <= 0 {
			alpha = 2
		}
		dist = newZipfDistribution(rng, alpha, cfg.NumberOfKeys)
	default:
		return nil, fmt.Errorf("unsupported distribution type: %s", cfg.Distribution.Type)
	}

	keyDist := make([]string, len(keys))
	copy(keyDist, keys)
	rng.Shuffle(len(keyDist), func(i, j int) { keyDist[i], keyDist[j] = keyDist[j], keyDist[i] })

	return &Generator{
		cfg:         cfg,
		rng:         rng,
		dist:        dist,
		keys:        keys,
		keyDist:     keyDist,
		arrivalRate: cfg.ArrivalRate,
		initialRate: cfg.ArrivalRate,
	}, nil
}

// adjustKeyDist perturbs the frequency hierarchy by at most one position
// per key, keeping traffic skew drifting smoothly between steps.
func (g *Generator) adjustKeyDist() {
	n := len(g.keyDist)
	if n == 0 {
		return
	}
	if g.step == 0 {
		return
	}
	prevSwap := false
	for i := 0; i < n; i++ {
		moves := []int{0}
		if i == n-1 {
			moves = append(moves, -1)
		}
		if i < n-1 {
			moves = append(moves, 1)
		}
		move := moves[g.rng.Intn(len(moves))]
		if move != 0 && !prevSwap {
			g.keyDist[i], g.keyDist[i+move] = g.keyDist[i+move], g.keyDist[i]
			prevSwap = true
		} else {
			prevSwap = false
		}
	}
}

// replaceWithKeys maps raw distribution indices onto g.keyDist by
// descending frequency, so the most common index becomes the current
// hierarchy's most frequent key.
func (g *Generator) replaceWithKeys(indices []int) []string {
	counts := make(map[int]int)
	for _, idx := range indices {
		counts[idx]++
	}
	unique := make([]int, 0, len(counts))
	for idx := range counts {
		unique = append(unique, idx)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return unique[i] < unique[j]
	})

	valueToKey := make(map[int]string, len(unique))
	for rank, idx := range unique {
		if rank >= len(g.keyDist) {
			break
		}
		valueToKey[idx] = g.keyDist[rank]
	}

	out := make([]string, len(indices))
	for i, idx := range indices {
		out[i] = valueToKey[idx]
	}
	return out
}

// Step generates one step's key batch and advances internal state: the
// frequency hierarchy drifts, and the arrival rate may spike.
func (g *Generator) Step() []string {
	g.adjustKeyDist()

	if g.rng.Float64()*100 < g.cfg.SpikeProbability {
		change := (g.rng.Float64()*2 - 1) * g.cfg.SpikeMagnitude
		next := math.Ceil(g.arrivalRate * (1 + change/100))
		if next < g.initialRate {
			next = g.initialRate
		}
		g.arrivalRate = next
	}

	rate := int(g.arrivalRate)
	indices := g.dist.generate(g.rng, rate, len(g.keys))
	keys := g.replaceWithKeys(indices)

	g.step++
	return keys
}

// Stream generates the configured number of steps for one stream.
func (g *Generator) Stream(steps int) [][]string {
	out := make([][]string, steps)
	for i := range out {
		out[i] = g.Step()
	}
	return out
}

// GenerateStreams builds Config.Streams independent streams, each seeded
// from streamSeed+index so they vary but stay reproducible.
func GenerateStreams(cfg model.KeygenConfig, streamSeed int64) ([][][]string, error) {
	streams := make([][][]string, cfg.Streams)
	for i := 0; i < cfg.Streams; i++ {
		g, err := NewGenerator(cfg, streamSeed+int64(i))
		if err != nil {
			return nil, fmt.Errorf("stream %d: %w", i, err)
		}
		streams[i] = g.Stream(cfg.Steps)
	}
	return streams, nil
}
