package exam

import (
	"math/rand"
	"time"

	"github.com/platedhq/plated/core/curriculum"
)

// Sampler draws a bounded random sample from a question pool.
// Tests stub it; sampled content is never reproducible in production.
type Sampler interface {
	// Sample returns min(len(pool), size) questions drawn uniformly without
	// replacement. The input slice is never mutated and no order may be
	// assumed on the result.
	Sample(pool []curriculum.Question, size int) []curriculum.Question
}

func init() {
	rand.Seed(time.Now().UnixNano())
}

type randomSampler struct{}

func NewRandomSampler() Sampler {
	return randomSampler{}
}

func (randomSampler) Sample(pool []curriculum.Question, size int) []curriculum.Question {
	if size <= 0 {
		return nil
	}
	sample := make([]curriculum.Question, len(pool))
	copy(sample, pool)
	if len(sample) <= size {
		return sample
	}
	rand.Shuffle(len(sample), func(i, j int) { sample[i], sample[j] = sample[j], sample[i] })
	return sample[:size]
}
