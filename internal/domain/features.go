package domain

import (
	"errors"
	"fmt"
	"slices"
)

// FeatureContractVersion identifies the column order below. Artifacts carry the
// same string so a reordered contract cannot be paired with stale artifacts.
const FeatureContractVersion = "flood-v1"

// FeatureColumns is the training-time column order of the scaler and classifier.
var FeatureColumns = []string{
	"Latitude",
	"Longitude",
	"Rainfall (mm)",
	"Temperature (°C)",
	"Humidity (%)",
	"River Discharge (m³/s)",
	"Water Level (m)",
	"Elevation (m)",
	"Population Density",
	"Infrastructure",
	"Land Cover_0", "Land Cover_1", "Land Cover_2", "Land Cover_3", "Land Cover_4",
	"Soil Type_0", "Soil Type_1", "Soil Type_2", "Soil Type_3", "Soil Type_4",
}

// FeatureCount is len(FeatureColumns).
const FeatureCount = 20

// ErrFeatureShape is returned when a vector or artifact does not match the contract.
var ErrFeatureShape = errors.New("feature shape mismatch")

// FeatureVector is an ordered numeric vector in FeatureColumns order.
type FeatureVector []float64

// BuildFeatureVector maps a FieldSet onto the contract order, one-hot encoding
// land cover and soil type. Unknown category tokens fail fast.
func BuildFeatureVector(f FieldSet) (FeatureVector, error) {
	lc, err := categoryIndex(LandCoverOptions, f.LandCover)
	if err != nil {
		return nil, fmt.Errorf("land cover: %w", err)
	}
	st, err := categoryIndex(SoilTypeOptions, f.SoilType)
	if err != nil {
		return nil, fmt.Errorf("soil type: %w", err)
	}

	v := make(FeatureVector, 0, FeatureCount)
	v = append(v,
		f.Latitude,
		f.Longitude,
		f.Rainfall,
		f.Temperature,
		float64(f.Humidity),
		f.Discharge,
		f.WaterLevel,
		f.Elevation,
		float64(f.PopulationDensity),
		float64(f.Infrastructure),
	)
	v = append(v, oneHot(len(LandCoverOptions), lc)...)
	v = append(v, oneHot(len(SoilTypeOptions), st)...)
	return v, nil
}

// CheckShape returns ErrFeatureShape unless v has exactly FeatureCount values.
func (v FeatureVector) CheckShape() error {
	if len(v) != FeatureCount {
		return fmt.Errorf("%w: got %d values, want %d", ErrFeatureShape, len(v), FeatureCount)
	}
	return nil
}

// CheckColumns compares an artifact's declared column list and contract version
// against FeatureColumns. An empty column list is accepted for artifacts that
// do not record names.
func CheckColumns(contract string, columns []string) error {
	if contract != "" && contract != FeatureContractVersion {
		return fmt.Errorf("%w: artifact contract %q, want %q", ErrFeatureShape, contract, FeatureContractVersion)
	}
	if len(columns) == 0 {
		return nil
	}
	if !slices.Equal(columns, FeatureColumns) {
		return fmt.Errorf("%w: artifact columns %v do not match contract %s", ErrFeatureShape, columns, FeatureContractVersion)
	}
	return nil
}

func oneHot(size, index int) []float64 {
	out := make([]float64, size)
	out[index] = 1
	return out
}
