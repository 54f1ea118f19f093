package model

import (
	"fmt"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/features"
)

// PredictProba returns the averaged leaf class distribution of all trees,
// in Classes order.
func (f *Forest) PredictProba(v features.Vector) ([]float64, error) {
	x, err := f.encode(v)
	if err != nil {
		return nil, err
	}

	proba := make([]float64, len(f.Classes))
	for i := range f.Trees {
		leaf := f.Trees[i].leaf(x)
		sum := 0.0
		for _, w := range leaf {
			sum += w
		}
		for c, w := range leaf {
			proba[c] += w / sum
		}
	}

	n := float64(len(f.Trees))
	for c := range proba {
		proba[c] /= n
	}
	return proba, nil
}

// encode resolves the model columns against the vector by name.
func (f *Forest) encode(v features.Vector) ([]float64, error) {
	x := make([]float64, len(f.Columns))
	for i, c := range f.Columns {
		feat, ok := v.Get(c.Feature)
		if !ok {
			return nil, fmt.Errorf("%w: missing feature %s", ErrSchemaMismatch, c.Feature)
		}

		if c.Equals == "" {
			if feat.Categorical {
				return nil, fmt.Errorf("%w: column %s expects a number, got category %q",
					ErrSchemaMismatch, c, feat.Category)
			}
			x[i] = feat.Value
			continue
		}

		if !feat.Categorical {
			return nil, fmt.Errorf("%w: column %s expects a category, got number %v",
				ErrSchemaMismatch, c, feat.Value)
		}
		if feat.Category == c.Equals {
			x[i] = 1
		}
	}
	return x, nil
}

func (t *Tree) leaf(x []float64) []float64 {
	i := 0
	for t.Left[i] != leafNode {
		if x[t.Feature[i]] <= t.Threshold[i] {
			i = t.Left[i]
		} else {
			i = t.Right[i]
		}
	}
	return t.Value[i]
}
