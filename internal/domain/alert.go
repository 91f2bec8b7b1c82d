package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// AlertSubject is the subject line of every flood alert.
const AlertSubject = "🚨 Flood Alert: Potential Flood Detected"

// AlertMessage is a composed plain-text alert.
type AlertMessage struct {
	Subject string
	Body    string
}

// ComposeAlert builds the alert for a flood prediction. place is optional and
// comes from reverse geocoding when enabled.
func ComposeAlert(f FieldSet, place string) AlertMessage {
	var b strings.Builder
	fmt.Fprintf(&b, "A flood is likely at location (Lat: %s, Lon: %s).\n", formatNumber(f.Latitude), formatNumber(f.Longitude))
	if place != "" {
		fmt.Fprintf(&b, "Nearest place: %s\n", place)
	}
	fmt.Fprintf(&b, "Rainfall: %s mm\n", formatNumber(f.Rainfall))
	fmt.Fprintf(&b, "Temperature: %s °C\n", formatNumber(f.Temperature))
	fmt.Fprintf(&b, "Humidity: %d%%\n", f.Humidity)
	fmt.Fprintf(&b, "Water Level: %s m\n", formatNumber(f.WaterLevel))
	b.WriteString("Please take necessary precautions.")
	return AlertMessage{Subject: AlertSubject, Body: b.String()}
}

// formatNumber prints the shortest representation, e.g. 250 or 12.75.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
