package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrUnknownCategory is returned when a land-cover or soil-type token does
	// not belong to its fixed enumeration.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrInvalidField is returned by FieldSet.Validate for out-of-range input.
	ErrInvalidField = errors.New("invalid field")
)

// LandCoverOptions and SoilTypeOptions are the enumeration tokens offered by
// the form, in one-hot index order.
var (
	LandCoverOptions = []string{"Land Cover_0", "Land Cover_1", "Land Cover_2", "Land Cover_3", "Land Cover_4"}
	SoilTypeOptions  = []string{"Soil Type_0", "Soil Type_1", "Soil Type_2", "Soil Type_3", "Soil Type_4"}
)

// FieldSet is the raw user input for one prediction.
type FieldSet struct {
	Latitude          float64 `json:"latitude"`
	Longitude         float64 `json:"longitude"`
	Rainfall          float64 `json:"rainfall"`    // mm
	Temperature       float64 `json:"temperature"` // °C
	Humidity          int     `json:"humidity"`    // integer percent
	Discharge         float64 `json:"discharge"`   // m³/s
	WaterLevel        float64 `json:"water_level"` // m
	Elevation         float64 `json:"elevation"`   // m
	PopulationDensity int     `json:"population_density"`
	Infrastructure    int     `json:"infrastructure"` // 1 urban, 0 rural
	LandCover         string  `json:"land_cover"`
	SoilType          string  `json:"soil_type"`
}

// Validate applies the form-level ranges. BuildFeatureVector does not call it;
// callers validate before building.
func (f FieldSet) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"latitude", f.Latitude},
		{"longitude", f.Longitude},
		{"rainfall", f.Rainfall},
		{"temperature", f.Temperature},
		{"discharge", f.Discharge},
		{"water level", f.WaterLevel},
		{"elevation", f.Elevation},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("%w: %s must be a finite number", ErrInvalidField, v.name)
		}
	}

	switch {
	case f.Latitude < -90 || f.Latitude > 90:
		return fmt.Errorf("%w: latitude %g outside [-90, 90]", ErrInvalidField, f.Latitude)
	case f.Longitude < -180 || f.Longitude > 180:
		return fmt.Errorf("%w: longitude %g outside [-180, 180]", ErrInvalidField, f.Longitude)
	case f.Rainfall < 0:
		return fmt.Errorf("%w: rainfall must be >= 0", ErrInvalidField)
	case f.Temperature < -50 || f.Temperature > 60:
		return fmt.Errorf("%w: temperature %g outside [-50, 60]", ErrInvalidField, f.Temperature)
	case f.Humidity < 0 || f.Humidity > 100:
		return fmt.Errorf("%w: humidity %d outside [0, 100]", ErrInvalidField, f.Humidity)
	case f.Discharge < 0:
		return fmt.Errorf("%w: discharge must be >= 0", ErrInvalidField)
	case f.WaterLevel < 0:
		return fmt.Errorf("%w: water level must be >= 0", ErrInvalidField)
	case f.Elevation < 0:
		return fmt.Errorf("%w: elevation must be >= 0", ErrInvalidField)
	case f.PopulationDensity < 0:
		return fmt.Errorf("%w: population density must be >= 0", ErrInvalidField)
	case f.Infrastructure != 0 && f.Infrastructure != 1:
		return fmt.Errorf("%w: infrastructure must be 0 or 1", ErrInvalidField)
	}
	if _, err := categoryIndex(LandCoverOptions, f.LandCover); err != nil {
		return fmt.Errorf("land cover: %w", err)
	}
	if _, err := categoryIndex(SoilTypeOptions, f.SoilType); err != nil {
		return fmt.Errorf("soil type: %w", err)
	}
	return nil
}

// categoryIndex returns the position of token in options. Matching is exact.
func categoryIndex(options []string, token string) (int, error) {
	for i, opt := range options {
		if opt == token {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownCategory, token)
}
