package domain

// Required dataset columns, as written in the historical CSV header.
const (
	ColLatitude    = "Latitude"
	ColLongitude   = "Longitude"
	ColRainfall    = "Rainfall (mm)"
	ColTemperature = "Temperature (°C)"
	ColHumidity    = "Humidity (%)"
	ColWaterLevel  = "Water Level (m)"
	ColFlood       = "Flood Occurred"
)

// DatasetColumns lists the columns the map needs. Other columns are ignored.
var DatasetColumns = []string{
	ColLatitude, ColLongitude, ColRainfall, ColTemperature, ColHumidity, ColWaterLevel, ColFlood,
}

// DatasetRow is one historical record.
type DatasetRow struct {
	Latitude      float64
	Longitude     float64
	Rainfall      float64
	Temperature   float64
	Humidity      float64
	WaterLevel    float64
	FloodOccurred int
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}
