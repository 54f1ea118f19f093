// Package model loads the exported churn classifier and scores feature
// vectors with it.
package model

import (
	"errors"
	"fmt"

	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/features"
)

const (
	// ArtifactFileName is the default artifact name in the app dir.
	ArtifactFileName = "churn_forest.json"

	leafNode = -1
)

var (
	ErrArtifactNotFound = errors.New("model artifact not found")
	ErrArtifactInvalid  = errors.New("model artifact invalid")
	ErrSchemaMismatch   = errors.New("feature vector does not match model schema")
)

// Scorer returns class probabilities for a feature vector.
type Scorer interface {
	PredictProba(v features.Vector) ([]float64, error)
}

// LoadError is returned when the artifact can't be loaded at startup.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("error loading model from %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Column is one model input. When Equals is set the column is the one-hot
// indicator of a categorical feature, otherwise it's the feature's value.
type Column struct {
	Feature string `json:"feature" yaml:"feature"`
	Equals  string `json:"equals,omitempty" yaml:"equals,omitempty"`
}

func (c Column) String() string {
	if c.Equals != "" {
		return c.Feature + "=" + c.Equals
	}
	return c.Feature
}

// Tree is a flat node table. Node i is a leaf when Left[i] is -1,
// otherwise samples with x[Feature[i]] <= Threshold[i] go to Left[i].
type Tree struct {
	Left      []int       `json:"left"`
	Right     []int       `json:"right"`
	Feature   []int       `json:"feature"`
	Threshold []float64   `json:"threshold"`
	Value     [][]float64 `json:"value"`
}

// Forest is a random forest classifier. It is read-only once loaded.
type Forest struct {
	Name    string   `json:"name"`
	Version string   `json:"version"`
	Classes []string `json:"classes"`
	Columns []Column `json:"columns"`
	Trees   []Tree   `json:"trees"`
}

// Info summarizes a loaded forest.
type Info struct {
	Path    string   `json:"path" yaml:"path"`
	Name    string   `json:"name" yaml:"name"`
	Version string   `json:"version" yaml:"version"`
	Classes []string `json:"classes" yaml:"classes"`
	Columns []string `json:"columns" yaml:"columns"`
	Trees   int      `json:"trees" yaml:"trees"`
	Nodes   int      `json:"nodes" yaml:"nodes"`
}

// Info returns the forest metadata.
func (f *Forest) Info() *Info {
	in := &Info{
		Name:    f.Name,
		Version: f.Version,
		Classes: f.Classes,
		Columns: make([]string, 0, len(f.Columns)),
		Trees:   len(f.Trees),
	}
	for _, c := range f.Columns {
		in.Columns = append(in.Columns, c.String())
	}
	for _, t := range f.Trees {
		in.Nodes += len(t.Left)
	}
	return in
}
