// Package predict scores assembled feature vectors and classifies the
// churn probability into a risk band.
package predict

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/features"
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/model"
)

const (
	// positive ("churns") class column of the probability row
	churnClassIndex = 1

	bell = "\a"
)

var (
	ErrModelUnavailable = errors.New("model not loaded")
	ErrInvalidScore     = errors.New("model returned an invalid score")
	ErrScorerPanic      = errors.New("model panicked")
)

// InferenceError is returned when the model can't score the vector.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// Notifier is told about each successful classification.
type Notifier interface {
	Notify(ctx context.Context, r *Result)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, r *Result)

func (f NotifierFunc) Notify(ctx context.Context, r *Result) {
	f(ctx, r)
}

// BellNotifier rings the terminal bell.
type BellNotifier struct {
	W io.Writer
}

func (b *BellNotifier) Notify(_ context.Context, _ *Result) {
	if b == nil || b.W == nil {
		return
	}
	if _, err := io.WriteString(b.W, bell); err != nil {
		slog.Debug("failed to ring bell", "error", err)
	}
}

// Service scores vectors with a model loaded once at startup.
type Service struct {
	scorer model.Scorer
}

// NewService creates a service. A nil scorer is allowed; every Predict
// then fails with ErrModelUnavailable.
func NewService(scorer model.Scorer) *Service {
	return &Service{scorer: scorer}
}

// Ready reports whether a model is loaded.
func (s *Service) Ready() bool {
	return s.scorer != nil
}

// score runs the scorer, turning a panic into ErrScorerPanic.
func (s *Service) score(v features.Vector) (proba []float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			proba = nil
			err = fmt.Errorf("%w: %v", ErrScorerPanic, r)
		}
	}()
	return s.scorer.PredictProba(v)
}

// Predict scores v, classifies the churn probability and notifies n once
// on success. Failures are *InferenceError and never notify.
func (s *Service) Predict(ctx context.Context, v features.Vector, n Notifier) (*Result, error) {
	if s.scorer == nil {
		return nil, &InferenceError{Err: ErrModelUnavailable}
	}

	proba, err := s.score(v)
	if err != nil {
		return nil, &InferenceError{Err: err}
	}

	if len(proba) <= churnClassIndex {
		return nil, &InferenceError{Err: fmt.Errorf("%w: %d class probabilities", ErrInvalidScore, len(proba))}
	}

	p := proba[churnClassIndex]
	if math.IsNaN(p) || p < 0 || p > 1 {
		return nil, &InferenceError{Err: fmt.Errorf("%w: probability %v", ErrInvalidScore, p)}
	}

	r := &Result{
		Probability: p,
		Band:        Classify(p),
	}

	slog.Debug("prediction", "probability", r.Probability, "band", r.Band)

	if n != nil {
		n.Notify(ctx, r)
	}

	return r, nil
}
