package domain

import (
	"context"
	"time"
)

// Label is the classifier output.
type Label int

const (
	NoFlood Label = 0
	Flood   Label = 1
)

// Message is the banner text shown for a label.
func (l Label) Message() string {
	if l == Flood {
		return "🌊 Flood Likely"
	}
	return "✅ No Flood"
}

// Scaler applies the fitted feature-scaling transform.
type Scaler interface {
	Transform(ctx context.Context, x []float64) ([]float64, error)
}

// Classifier returns the predicted class for one scaled vector.
type Classifier interface {
	Predict(ctx context.Context, x []float64) (Label, error)
}

// PredictionResult is the outcome of one prediction. It is not persisted.
type PredictionResult struct {
	ID          string    `json:"id"`
	Label       Label     `json:"label"`
	Flood       bool      `json:"flood"`
	Message     string    `json:"message"`
	PredictedAt time.Time `json:"predicted_at"`
	Input       FieldSet  `json:"input"`
}

// NewPredictionResult stamps a result with the package clock.
func NewPredictionResult(id string, label Label, input FieldSet) PredictionResult {
	return PredictionResult{
		ID:          id,
		Label:       label,
		Flood:       label == Flood,
		Message:     label.Message(),
		PredictedAt: clock.Now().UTC(),
		Input:       input,
	}
}

// AlertOutcome reports what happened to the alert step of a notify action.
type AlertOutcome struct {
	Attempted bool   `json:"attempted"`
	Sent      bool   `json:"sent"`
	Recipient string `json:"recipient,omitempty"`
	Error     string `json:"error,omitempty"`
}

// FloodAlertEvent is published to the alert topic after a notify action on a
// flood prediction.
type FloodAlertEvent struct {
	PredictionID string    `json:"prediction_id"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	Rainfall     float64   `json:"rainfall"`
	WaterLevel   float64   `json:"water_level"`
	PlaceName    string    `json:"place_name,omitempty"`
	AlertSent    bool      `json:"alert_sent"`
	PredictedAt  time.Time `json:"predicted_at"`
}
