// Package domain models flood-prediction input, the feature contract shared
// with the fitted artifacts, and the historical dataset rows shown on the map.
//
// # Feature Contract
//
// The scaler and classifier were fitted offline on a 20-column frame. The
// column order is fixed by [FeatureColumns] and versioned by
// [FeatureContractVersion]:
//
//	Latitude, Longitude, Rainfall (mm), Temperature (°C), Humidity (%),
//	River Discharge (m³/s), Water Level (m), Elevation (m),
//	Population Density, Infrastructure,
//	Land Cover_0 … Land Cover_4, Soil Type_0 … Soil Type_4
//
// Artifacts declaring a different column list or version are rejected at load
// time, and every vector is length-checked before inference ([ErrFeatureShape]).
//
// # Categorical Fields
//
// Land cover and soil type are label-encoded classes 0–4 in the source dataset,
// one-hot encoded as five slots each. The form submits the column tokens
// themselves ("Land Cover_2", "Soil Type_4"). Tokens are matched exactly;
// anything else fails with [ErrUnknownCategory] instead of producing an
// all-zero segment.
//
// # Input Ranges
//
// [FieldSet.Validate] applies the form ranges: latitude −90…90, longitude
// −180…180, temperature −50…60 °C, humidity 0…100 as an integer percent,
// non-negative rainfall, discharge, water level, elevation and population
// density, and an infrastructure flag of 1 (urban) or 0 (rural).
//
// # Dataset
//
// The historical CSV ("flood_risk_dataset_india.csv") must contain at least the
// columns in [DatasetColumns]. "Flood Occurred" is 0 or 1.
package domain
