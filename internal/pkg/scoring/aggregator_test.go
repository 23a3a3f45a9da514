package scoring

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sixtyscan/voiceapi/internal/pkg/api"
	"github.com/sixtyscan/voiceapi/internal/pkg/test"
)

type fakeScorer struct {
	lock   sync.Mutex
	values map[api.Key]float64
	errs   map[api.Key]error
	calls  []api.Key
}

func (f *fakeScorer) Score(ctx context.Context, key api.Key, audio io.Reader) (float64, error) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return 0, err
	}
	return f.values[key], nil
}

func newClips(keys ...api.Key) map[api.Key]io.Reader {
	res := map[api.Key]io.Reader{}
	for _, k := range keys {
		res[k] = strings.NewReader("audio " + k.String())
	}
	return res
}

func TestDo_Mean(t *testing.T) {
	sc := &fakeScorer{values: map[api.Key]float64{}}
	clips := map[api.Key]io.Reader{}
	for _, k := range api.RequiredKeys() {
		sc.values[k] = 0.6
		clips[k] = strings.NewReader("a")
	}
	a, err := NewAggregator(sc)
	require.Nil(t, err)
	res, err := a.Do(test.Ctx(t), clips)
	require.Nil(t, err)
	assert.InDelta(t, 0.6, res.Probability, 0.0001)
	assert.Equal(t, 60, res.Percent)
	assert.Equal(t, api.LabelParkinson, res.Label)
	assert.Equal(t, 9, len(res.PerKey))
}

func TestDo_MeanUneven(t *testing.T) {
	sc := &fakeScorer{values: map[api.Key]float64{}}
	clips := map[api.Key]io.Reader{}
	keys := api.RequiredKeys()
	for i, k := range keys {
		v := 0.1
		if i == len(keys)-1 {
			v = 0.9
		}
		sc.values[k] = v
		clips[k] = strings.NewReader("a")
	}
	a, _ := NewAggregator(sc)
	res, err := a.Do(test.Ctx(t), clips)
	require.Nil(t, err)
	assert.InDelta(t, 0.18888, res.Probability, 0.0001)
	assert.Equal(t, 19, res.Percent)
	assert.Equal(t, api.LabelNonParkinson, res.Label)
}

func TestDo_TieIsPositive(t *testing.T) {
	sc := &fakeScorer{values: map[api.Key]float64{api.KeyAa: 0.5}}
	a, _ := NewAggregator(sc)
	res, err := a.Do(test.Ctx(t), newClips(api.KeyAa))
	require.Nil(t, err)
	assert.Equal(t, api.LabelParkinson, res.Label)
	assert.Equal(t, 50, res.Percent)
}

func TestDo_BelowTie(t *testing.T) {
	sc := &fakeScorer{values: map[api.Key]float64{api.KeyAa: 0.4999}}
	a, _ := NewAggregator(sc)
	res, err := a.Do(test.Ctx(t), newClips(api.KeyAa))
	require.Nil(t, err)
	assert.Equal(t, api.LabelNonParkinson, res.Label)
}

func TestDo_FailAborts(t *testing.T) {
	sc := &fakeScorer{values: map[api.Key]float64{api.KeyAa: 0.1, api.KeyEe: 0.2},
		errs: map[api.Key]error{api.KeyEu: fmt.Errorf("olia err")}}
	a, _ := NewAggregator(sc)
	res, err := a.Do(test.Ctx(t), newClips(api.KeyAa, api.KeyEe, api.KeyEu))
	require.NotNil(t, err)
	assert.Nil(t, res)
	assert.Contains(t, err.Error(), "eu")
}

func TestDo_NoInput(t *testing.T) {
	a, _ := NewAggregator(&fakeScorer{})
	_, err := a.Do(test.Ctx(t), map[api.Key]io.Reader{})
	assert.ErrorIs(t, err, ErrNoInput)
}

func TestNewAggregator_Fail(t *testing.T) {
	_, err := NewAggregator(nil)
	assert.NotNil(t, err)
}

func TestResult_MarkPersisted(t *testing.T) {
	res := &Result{}
	assert.True(t, res.MarkPersisted())
	assert.False(t, res.MarkPersisted())
}
