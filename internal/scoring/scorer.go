// Package scoring defines the anomaly scoring contract. The shipped
// scorer is a stand-in; production deployments plug a trained model in
// behind the same interface.
package scoring

import (
	"context"
	"math/rand"
	"sync"

	"github.com/shopspring/decimal"
)

// ScoreInput carries the transaction features handed to the scorer.
type ScoreInput struct {
	TxHash      string
	SourceChain string
	DestChain   string
	Amount      decimal.Decimal
	Sender      string
	Receiver    string
}

// Scorer produces an anomaly score in [0,1] for a transaction.
type Scorer interface {
	Score(ctx context.Context, input *ScoreInput) (float64, error)
	Version() string
}

// FuncScorer adapts a plain function to the Scorer interface.
type FuncScorer struct {
	Fn  func(ctx context.Context, input *ScoreInput) (float64, error)
	Ver string
}

func (f *FuncScorer) Score(ctx context.Context, input *ScoreInput) (float64, error) {
	return f.Fn(ctx, input)
}

func (f *FuncScorer) Version() string {
	if f.Ver == "" {
		return "func"
	}
	return f.Ver
}

// UniformScorer draws scores uniformly from [0,1). It stands in for the
// trained model and keeps the rest of the pipeline honest about score
// handling.
type UniformScorer struct {
	version string

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformScorer creates a placeholder scorer with the given model
// version string.
func NewUniformScorer(version string, seed int64) *UniformScorer {
	if version == "" {
		version = "v1.0.0"
	}
	return &UniformScorer{
		version: version,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

func (s *UniformScorer) Score(_ context.Context, _ *ScoreInput) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64(), nil
}

func (s *UniformScorer) Version() string {
	return s.version
}
