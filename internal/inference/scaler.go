package inference

import (
	"context"
	"errors"
	"fmt"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
)

// Scaler kinds.
const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// ScalerArtifact is the JSON export of a fitted scaler.
//
// standard: (x - mean) / scale
// minmax:   x * scale + min
type ScalerArtifact struct {
	Kind     string    `json:"kind"`
	Contract string    `json:"contract,omitempty"`
	Columns  []string  `json:"columns,omitempty"`
	Mean     []float64 `json:"mean,omitempty"`
	Min      []float64 `json:"min,omitempty"`
	Scale    []float64 `json:"scale"`
}

// Validate checks the artifact against the feature contract.
func (a *ScalerArtifact) Validate() error {
	if err := domain.CheckColumns(a.Contract, a.Columns); err != nil {
		return err
	}
	if err := checkParams("scale", a.Scale); err != nil {
		return err
	}

	switch a.Kind {
	case ScalerStandard:
		if err := checkParams("mean", a.Mean); err != nil {
			return err
		}
		for i, s := range a.Scale {
			if s == 0 {
				return fmt.Errorf("scale[%d] is zero", i)
			}
		}
	case ScalerMinMax:
		if err := checkParams("min", a.Min); err != nil {
			return err
		}
	case "":
		return errors.New("scaler kind is required")
	default:
		return fmt.Errorf("unsupported scaler kind %q", a.Kind)
	}
	return nil
}

// JSONScaler implements domain.Scaler from a ScalerArtifact.
type JSONScaler struct {
	artifact ScalerArtifact
}

// NewJSONScaler validates the artifact and wraps it.
func NewJSONScaler(a ScalerArtifact) (*JSONScaler, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("scaler artifact: %w", err)
	}
	return &JSONScaler{artifact: a}, nil
}

// LoadJSONScaler reads and validates a scaler artifact from disk.
func LoadJSONScaler(path string) (*JSONScaler, error) {
	var a ScalerArtifact
	if err := readArtifact(path, &a); err != nil {
		return nil, err
	}
	return NewJSONScaler(a)
}

func (s *JSONScaler) Transform(_ context.Context, x []float64) ([]float64, error) {
	if len(x) != domain.FeatureCount {
		return nil, fmt.Errorf("%w: scaler got %d values, want %d", domain.ErrFeatureShape, len(x), domain.FeatureCount)
	}

	out := make([]float64, len(x))
	a := s.artifact
	for i, v := range x {
		if a.Kind == ScalerMinMax {
			out[i] = v*a.Scale[i] + a.Min[i]
		} else {
			out[i] = (v - a.Mean[i]) / a.Scale[i]
		}
	}
	return out, nil
}
