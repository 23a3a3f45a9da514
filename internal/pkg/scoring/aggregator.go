package scoring

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/airenas/go-app/pkg/goapp"
	"golang.org/x/sync/errgroup"

	"github.com/sixtyscan/voiceapi/internal/pkg/api"
)

// ErrNoInput guards the reduction against an empty clip set.
// Should not happen - completeness is checked before scoring
var ErrNoInput = errors.New("no scorable input")

// Scorer returns a Parkinsonian risk probability for one audio clip
type Scorer interface {
	Score(ctx context.Context, key api.Key, audio io.Reader) (float64, error)
}

// Result is one immutable aggregated scoring outcome
type Result struct {
	PerKey      map[api.Key]float64
	Probability float64
	Percent     int
	Label       string

	persisted int32
}

// MarkPersisted flips the one-shot persisted flag.
// Returns false if the result was already persisted
func (r *Result) MarkPersisted() bool {
	return atomic.CompareAndSwapInt32(&r.persisted, 0, 1)
}

// Aggregator scores every clip and reduces to one probability
type Aggregator struct {
	scorer      Scorer
	concurrency int
}

// NewAggregator creates an aggregator instance
func NewAggregator(scorer Scorer) (*Aggregator, error) {
	if scorer == nil {
		return nil, fmt.Errorf("no scorer")
	}
	return &Aggregator{scorer: scorer, concurrency: 4}, nil
}

// Do invokes the scorer for every clip and reduces the probabilities
// to their unweighted mean. All-or-nothing: any failed clip aborts the
// whole run and no partial result is returned
func (a *Aggregator) Do(ctx context.Context, clips map[api.Key]io.Reader) (*Result, error) {
	if len(clips) == 0 {
		return nil, ErrNoInput
	}
	perKey := make(map[api.Key]float64, len(clips))
	lock := &sync.Mutex{}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for k, r := range clips {
		k, r := k, r
		g.Go(func() error {
			v, err := a.scorer.Score(gCtx, k, r)
			if err != nil {
				return fmt.Errorf("can't score '%s': %w", k, err)
			}
			lock.Lock()
			defer lock.Unlock()
			perKey[k] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sum := 0.0
	for _, v := range perKey {
		sum += v
	}
	prob := sum / float64(len(perKey))
	res := &Result{PerKey: perKey, Probability: prob,
		Percent: toPercent(prob), Label: toLabel(prob)}
	goapp.Log.Info().Int("clips", len(perKey)).Int("percent", res.Percent).
		Str("label", res.Label).Msg("aggregated")
	return res, nil
}

func toPercent(prob float64) int {
	res := int(math.Round(prob * 100))
	if res < 0 {
		return 0
	}
	if res > 100 {
		return 100
	}
	return res
}

// toLabel resolves the tie at 0.5 to the positive side
func toLabel(prob float64) string {
	if prob >= 0.5 {
		return api.LabelParkinson
	}
	return api.LabelNonParkinson
}
