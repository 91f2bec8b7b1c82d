//go:build onnx

package onnx

import (
	"context"
	"os"
	"testing"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests need the onnxruntime shared library and exported models.
// Run with:
//
//	ONNX_LIBRARY_PATH=/usr/lib/libonnxruntime.so \
//	ONNX_SCALER=scaler.onnx ONNX_MODEL=flood_model.onnx \
//	go test -tags=onnx ./internal/adapter/onnx/ -v -count=1

func TestSmoke_ScalerAndClassifier(t *testing.T) {
	scalerPath, modelPath := os.Getenv("ONNX_SCALER"), os.Getenv("ONNX_MODEL")
	if scalerPath == "" || modelPath == "" {
		t.Fatal("ONNX_SCALER and ONNX_MODEL must be set to run smoke tests")
	}

	require.NoError(t, Acquire(os.Getenv("ONNX_LIBRARY_PATH")))
	t.Cleanup(func() { _ = Release() })

	scaler, err := NewScaler(scalerPath, "float_input", "variable")
	require.NoError(t, err)
	t.Cleanup(func() { _ = scaler.Close() })

	classifier, err := NewClassifier(modelPath, "float_input", "output_label")
	require.NoError(t, err)
	t.Cleanup(func() { _ = classifier.Close() })

	v, err := domain.BuildFeatureVector(domain.FieldSet{
		Latitude: 26.1, Longitude: 91.7, Rainfall: 280, Temperature: 29, Humidity: 85,
		Discharge: 2500, WaterLevel: 7, Elevation: 60, PopulationDensity: 2500,
		Infrastructure: 1, LandCover: "Land Cover_0", SoilType: "Soil Type_2",
	})
	require.NoError(t, err)

	scaled, err := scaler.Transform(context.Background(), v)
	require.NoError(t, err)
	assert.Len(t, scaled, domain.FeatureCount)

	label, err := classifier.Predict(context.Background(), scaled)
	require.NoError(t, err)
	assert.Contains(t, []domain.Label{domain.NoFlood, domain.Flood}, label)

	_, err = classifier.Predict(context.Background(), scaled[:5])
	assert.ErrorIs(t, err, domain.ErrFeatureShape)
}
