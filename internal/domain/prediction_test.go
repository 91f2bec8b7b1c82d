package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestLabel_Message(t *testing.T) {
	assert.Equal(t, "🌊 Flood Likely", Flood.Message())
	assert.Equal(t, "✅ No Flood", NoFlood.Message())
}

func TestNewPredictionResult(t *testing.T) {
	fixed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	in := validFieldSet()
	r := NewPredictionResult("pred-1", Flood, in)

	assert.Equal(t, "pred-1", r.ID)
	assert.Equal(t, Flood, r.Label)
	assert.True(t, r.Flood)
	assert.Equal(t, "🌊 Flood Likely", r.Message)
	assert.Equal(t, fixed, r.PredictedAt)
	assert.Equal(t, in, r.Input)

	r = NewPredictionResult("pred-2", NoFlood, in)
	assert.False(t, r.Flood)
	assert.Equal(t, "✅ No Flood", r.Message)
}

func TestComposeAlert(t *testing.T) {
	f := validFieldSet()
	f.Latitude = 26.14
	f.Longitude = 91.73
	f.Rainfall = 312.5
	f.Temperature = 28
	f.Humidity = 85
	f.WaterLevel = 7.25

	msg := ComposeAlert(f, "")

	assert.Equal(t, "🚨 Flood Alert: Potential Flood Detected", msg.Subject)
	want := "A flood is likely at location (Lat: 26.14, Lon: 91.73).\n" +
		"Rainfall: 312.5 mm\n" +
		"Temperature: 28 °C\n" +
		"Humidity: 85%\n" +
		"Water Level: 7.25 m\n" +
		"Please take necessary precautions."
	assert.Equal(t, want, msg.Body)
}

func TestComposeAlert_WithPlace(t *testing.T) {
	msg := ComposeAlert(validFieldSet(), "Guwahati, Assam, India")

	assert.Contains(t, msg.Body, "\nNearest place: Guwahati, Assam, India\n")
	assert.Contains(t, msg.Body, "Please take necessary precautions.")
}
