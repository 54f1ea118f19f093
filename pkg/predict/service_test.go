package predict

import (
	"bytes"
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/features"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScorer struct {
	proba []float64
	err   error
	calls int
}

func (s *stubScorer) PredictProba(_ features.Vector) ([]float64, error) {
	s.calls++
	return s.proba, s.err
}

type countingNotifier struct {
	calls int
	last  *Result
}

func (c *countingNotifier) Notify(_ context.Context, r *Result) {
	c.calls++
	c.last = r
}

func scenarioVector() features.Vector {
	return features.Assemble(features.Request{
		ListeningTime: 150,
		SongsPlayed:   30,
		SkipRate:      0.35,
		AdsPerWeek:    20,
		Subscription:  features.SubscriptionFree,
		Device:        features.DeviceMobile,
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		p    float64
		want Band
	}{
		{0, BandStable},
		{0.2, BandStable},
		{0.3999, BandStable},
		{0.40, BandModerate},
		{0.55, BandModerate},
		{0.6999, BandModerate},
		{0.70, BandAtRisk},
		{0.95, BandAtRisk},
		{1.0, BandAtRisk},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.p), "p=%v", tt.p)
	}
}

func TestBand_Display(t *testing.T) {
	assert.Equal(t, "STABLE", BandStable.Label())
	assert.Equal(t, "MODERATE", BandModerate.Label())
	assert.Equal(t, "AT RISK", BandAtRisk.Label())

	assert.Equal(t, "#1DB954", BandStable.Color())
	assert.Equal(t, "#fbbf24", BandModerate.Color())
	assert.Equal(t, "#f87171", BandAtRisk.Color())
}

func TestResult_Percent(t *testing.T) {
	assert.Equal(t, "55.0%", (&Result{Probability: 0.55}).Percent())
	assert.Equal(t, "0.0%", (&Result{Probability: 0}).Percent())
	assert.Equal(t, "100.0%", (&Result{Probability: 1}).Percent())
	assert.Equal(t, "13.2%", (&Result{Probability: 0.1324}).Percent())
}

func TestPredict_Scenario(t *testing.T) {
	scorer := &stubScorer{proba: []float64{0.45, 0.55}}
	n := &countingNotifier{}
	svc := NewService(scorer)
	require.True(t, svc.Ready())

	r, err := svc.Predict(context.Background(), scenarioVector(), n)
	require.NoError(t, err)
	assert.Equal(t, 0.55, r.Probability)
	assert.Equal(t, BandModerate, r.Band)
	assert.Equal(t, "55.0%", r.Percent())

	assert.Equal(t, 1, scorer.calls)
	assert.Equal(t, 1, n.calls)
	assert.Equal(t, r, n.last)
}

func TestPredict_Idempotent(t *testing.T) {
	svc := NewService(&stubScorer{proba: []float64{0.2, 0.8}})
	v := scenarioVector()

	r1, err := svc.Predict(context.Background(), v, nil)
	require.NoError(t, err)
	r2, err := svc.Predict(context.Background(), v, nil)
	require.NoError(t, err)
	assert.Equal(t, r1, r2)
	assert.Equal(t, BandAtRisk, r1.Band)
}

type panickingScorer struct{}

func (panickingScorer) PredictProba(_ features.Vector) ([]float64, error) {
	var row []float64
	return row[1:], nil
}

func TestPredict_Failures(t *testing.T) {
	tests := []struct {
		name   string
		scorer model.Scorer
		target error
	}{
		{"no model", nil, ErrModelUnavailable},
		{"scorer fault", &stubScorer{err: model.ErrSchemaMismatch}, model.ErrSchemaMismatch},
		{"single class", &stubScorer{proba: []float64{1}}, ErrInvalidScore},
		{"empty row", &stubScorer{proba: []float64{}}, ErrInvalidScore},
		{"nan", &stubScorer{proba: []float64{0, math.NaN()}}, ErrInvalidScore},
		{"above one", &stubScorer{proba: []float64{0, 1.2}}, ErrInvalidScore},
		{"negative", &stubScorer{proba: []float64{1, -0.1}}, ErrInvalidScore},
		{"scorer panic", &panickingScorer{}, ErrScorerPanic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &countingNotifier{}
			r, err := NewService(tt.scorer).Predict(context.Background(), scenarioVector(), n)
			require.Error(t, err)
			assert.Nil(t, r)

			var ie *InferenceError
			assert.True(t, errors.As(err, &ie))
			assert.ErrorIs(t, err, tt.target)
			assert.Equal(t, 0, n.calls)
		})
	}
}

func TestPredict_NotReady(t *testing.T) {
	assert.False(t, NewService(nil).Ready())
}

func TestPredict_WithForest(t *testing.T) {
	f, err := model.Load("../model/testdata/forest.json")
	require.NoError(t, err)

	r, err := NewService(f).Predict(context.Background(), scenarioVector(), nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.45, r.Probability, 1e-9)
	assert.Equal(t, BandModerate, r.Band)
}

func TestNotifierFunc(t *testing.T) {
	calls := 0
	n := NotifierFunc(func(_ context.Context, r *Result) {
		calls++
		assert.Equal(t, BandStable, r.Band)
	})

	_, err := NewService(&stubScorer{proba: []float64{0.9, 0.1}}).Predict(context.Background(), scenarioVector(), n)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestBellNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := &BellNotifier{W: &buf}

	_, err := NewService(&stubScorer{proba: []float64{0.5, 0.5}}).Predict(context.Background(), scenarioVector(), n)
	require.NoError(t, err)
	assert.Equal(t, "\a", buf.String())

	// nil writer is a no-op
	(&BellNotifier{}).Notify(context.Background(), &Result{})
}
