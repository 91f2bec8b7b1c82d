// Package inference runs the two-step flood model: a fitted scaler followed by
// a binary classifier, both bound to the domain feature contract.
package inference

import (
	"context"
	"fmt"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
)

// Predictor chains a scaler and a classifier. It is safe for concurrent use
// when both steps are.
type Predictor struct {
	scaler     domain.Scaler
	classifier domain.Classifier
}

// NewPredictor returns a predictor over already loaded artifacts.
func NewPredictor(scaler domain.Scaler, classifier domain.Classifier) *Predictor {
	return &Predictor{scaler: scaler, classifier: classifier}
}

// LoadJSON loads both JSON artifacts. Any error is fatal at startup.
func LoadJSON(modelPath, scalerPath string) (*Predictor, error) {
	scaler, err := LoadJSONScaler(scalerPath)
	if err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	classifier, err := LoadJSONClassifier(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	return NewPredictor(scaler, classifier), nil
}

// Predict scales v and classifies it. Vectors that do not match the feature
// contract length are rejected before either step runs.
func (p *Predictor) Predict(ctx context.Context, v domain.FeatureVector) (domain.Label, error) {
	if err := v.CheckShape(); err != nil {
		return 0, err
	}

	scaled, err := p.scaler.Transform(ctx, v)
	if err != nil {
		return 0, fmt.Errorf("scale features: %w", err)
	}
	if len(scaled) != domain.FeatureCount {
		return 0, fmt.Errorf("%w: scaler returned %d values", domain.ErrFeatureShape, len(scaled))
	}

	label, err := p.classifier.Predict(ctx, scaled)
	if err != nil {
		return 0, fmt.Errorf("classify: %w", err)
	}
	if label != domain.Flood && label != domain.NoFlood {
		return 0, fmt.Errorf("classifier returned non-binary label %d", label)
	}
	return label, nil
}
