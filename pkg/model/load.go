package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Load reads and validates the forest artifact at path. Any failure is a
// *LoadError wrapping ErrArtifactNotFound or ErrArtifactInvalid.
func Load(path string) (*Forest, error) {
	if path == "" {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: path not specified", ErrArtifactNotFound)}
	}

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Path: path, Err: ErrArtifactNotFound}
		}
		return nil, &LoadError{Path: path, Err: fmt.Errorf("%w: %w", ErrArtifactNotFound, err)}
	}
	defer file.Close()

	f, err := Decode(file)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	slog.Debug("model loaded", "path", path, "name", f.Name, "version", f.Version, "trees", len(f.Trees))
	return f, nil
}

// Decode parses and validates a forest from r.
func Decode(r io.Reader) (*Forest, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var f Forest
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: decoding: %w", ErrArtifactInvalid, err)
	}

	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrArtifactInvalid, err)
	}

	return &f, nil
}

func (f *Forest) validate() error {
	if len(f.Classes) < 2 {
		return fmt.Errorf("expected at least 2 classes, got %d", len(f.Classes))
	}
	if len(f.Columns) == 0 {
		return errors.New("no columns")
	}
	for i, c := range f.Columns {
		if c.Feature == "" {
			return fmt.Errorf("column %d has no feature name", i)
		}
	}
	if len(f.Trees) == 0 {
		return errors.New("no trees")
	}
	for i := range f.Trees {
		if err := f.Trees[i].validate(len(f.Columns), len(f.Classes)); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func (t *Tree) validate(columns, classes int) error {
	n := len(t.Left)
	if n == 0 {
		return errors.New("no nodes")
	}
	if len(t.Right) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("node arrays differ in length (left=%d right=%d feature=%d threshold=%d value=%d)",
			n, len(t.Right), len(t.Feature), len(t.Threshold), len(t.Value))
	}

	for i := 0; i < n; i++ {
		if t.Left[i] == leafNode {
			if len(t.Value[i]) != classes {
				return fmt.Errorf("leaf %d has %d values, expected %d", i, len(t.Value[i]), classes)
			}
			sum := 0.0
			for _, v := range t.Value[i] {
				if v < 0 {
					return fmt.Errorf("leaf %d has negative value", i)
				}
				sum += v
			}
			if sum <= 0 {
				return fmt.Errorf("leaf %d has no weight", i)
			}
			continue
		}

		// children always come after their parent, which also rules out cycles
		if t.Left[i] <= i || t.Left[i] >= n || t.Right[i] <= i || t.Right[i] >= n {
			return fmt.Errorf("node %d has children out of range (%d, %d)", i, t.Left[i], t.Right[i])
		}
		if t.Feature[i] < 0 || t.Feature[i] >= columns {
			return fmt.Errorf("node %d splits on unknown column %d", i, t.Feature[i])
		}
	}
	return nil
}
