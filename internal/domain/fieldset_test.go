package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFieldSet_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*FieldSet)
		wantErr error
	}{
		{"valid", func(*FieldSet) {}, nil},
		{"latitude boundary", func(f *FieldSet) { f.Latitude = -90 }, nil},
		{"longitude boundary", func(f *FieldSet) { f.Longitude = 180 }, nil},
		{"rural", func(f *FieldSet) { f.Infrastructure = 0 }, nil},
		{"latitude too high", func(f *FieldSet) { f.Latitude = 90.5 }, ErrInvalidField},
		{"longitude too low", func(f *FieldSet) { f.Longitude = -181 }, ErrInvalidField},
		{"negative rainfall", func(f *FieldSet) { f.Rainfall = -1 }, ErrInvalidField},
		{"temperature too cold", func(f *FieldSet) { f.Temperature = -51 }, ErrInvalidField},
		{"temperature too hot", func(f *FieldSet) { f.Temperature = 61 }, ErrInvalidField},
		{"humidity over 100", func(f *FieldSet) { f.Humidity = 101 }, ErrInvalidField},
		{"negative discharge", func(f *FieldSet) { f.Discharge = -0.1 }, ErrInvalidField},
		{"negative water level", func(f *FieldSet) { f.WaterLevel = -2 }, ErrInvalidField},
		{"negative elevation", func(f *FieldSet) { f.Elevation = -5 }, ErrInvalidField},
		{"negative population", func(f *FieldSet) { f.PopulationDensity = -1 }, ErrInvalidField},
		{"infrastructure flag", func(f *FieldSet) { f.Infrastructure = 2 }, ErrInvalidField},
		{"NaN latitude", func(f *FieldSet) { f.Latitude = math.NaN() }, ErrInvalidField},
		{"NaN temperature", func(f *FieldSet) { f.Temperature = math.NaN() }, ErrInvalidField},
		{"infinite rainfall", func(f *FieldSet) { f.Rainfall = math.Inf(1) }, ErrInvalidField},
		{"infinite discharge", func(f *FieldSet) { f.Discharge = math.Inf(1) }, ErrInvalidField},
		{"negative infinite longitude", func(f *FieldSet) { f.Longitude = math.Inf(-1) }, ErrInvalidField},
		{"infinite elevation", func(f *FieldSet) { f.Elevation = math.Inf(1) }, ErrInvalidField},
		{"NaN water level", func(f *FieldSet) { f.WaterLevel = math.NaN() }, ErrInvalidField},
		{"unknown land cover", func(f *FieldSet) { f.LandCover = "Forest" }, ErrUnknownCategory},
		{"unknown soil type", func(f *FieldSet) { f.SoilType = "Soil Type_5" }, ErrUnknownCategory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFieldSet()
			tt.mutate(&f)

			err := f.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
