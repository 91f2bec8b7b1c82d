// Package mapview selects historical locations for the flood map.
package mapview

import (
	"strconv"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
)

// Defaults for the historical map filter.
const (
	DefaultRainfallThreshold = 200.0
	DefaultFloodFlag         = 0
	DefaultZoom              = 5
)

// NoLocationsWarning is shown instead of a map when the filter matches nothing.
const NoLocationsWarning = "No such locations found in the dataset!"

// Marker is one map pin. Popup is trusted HTML built from numeric fields.
type Marker struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Popup string  `json:"popup"`
}

// View is either a warning or a centered set of markers, never both.
type View struct {
	Warning string     `json:"warning,omitempty"`
	Center  domain.Geo `json:"center"`
	Zoom    int        `json:"zoom,omitempty"`
	Markers []Marker   `json:"markers,omitempty"`
}

// HasMap reports whether the view should be drawn as a map.
func (v View) HasMap() bool {
	return v.Warning == "" && len(v.Markers) > 0
}

// Render keeps rows with rainfall strictly above threshold and a flood flag
// equal to floodFlag, centers the view on their mean position, and builds one
// marker per row in dataset order.
func Render(rows []domain.DatasetRow, threshold float64, floodFlag int) View {
	var (
		markers        []Marker
		sumLat, sumLon float64
	)
	for _, r := range rows {
		if r.Rainfall <= threshold || r.FloodOccurred != floodFlag {
			continue
		}
		markers = append(markers, Marker{Lat: r.Latitude, Lon: r.Longitude, Popup: popup(r)})
		sumLat += r.Latitude
		sumLon += r.Longitude
	}

	if len(markers) == 0 {
		return View{Warning: NoLocationsWarning}
	}

	n := float64(len(markers))
	return View{
		Center:  domain.Geo{Lat: sumLat / n, Lon: sumLon / n},
		Zoom:    DefaultZoom,
		Markers: markers,
	}
}

func popup(r domain.DatasetRow) string {
	return "<b>Rainfall:</b> " + num(r.Rainfall) + " mm<br>" +
		"<b>Temperature:</b> " + num(r.Temperature) + " °C<br>" +
		"<b>Water Level:</b> " + num(r.WaterLevel) + " m<br>" +
		"<b>Humidity:</b> " + num(r.Humidity) + "%"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
