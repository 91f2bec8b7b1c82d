package http

import (
	"embed"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
	"github.com/couchcryptid/flood-alert-service/internal/mapview"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templateFuncs = map[string]any{
	"num": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) },
}

// formPage is the view model of index.html.tmpl.
type formPage struct {
	Form       domain.FieldSet
	Recipient  string
	LandCovers []string
	SoilTypes  []string
	Result     *domain.PredictionResult
	Alert      *domain.AlertOutcome
	Error      string
}

// mapPage is the view model of map.html.tmpl.
type mapPage struct {
	Threshold float64
	FloodFlag int
	View      mapview.View
	Error     string
}

func newFormPage(f domain.FieldSet) formPage {
	return formPage{
		Form:       f,
		LandCovers: domain.LandCoverOptions,
		SoilTypes:  domain.SoilTypeOptions,
	}
}

// defaultForm mirrors the initial widget values: humidity 50, urban, first
// land cover and soil type.
func defaultForm() domain.FieldSet {
	return domain.FieldSet{
		Humidity:       50,
		Infrastructure: 1,
		LandCover:      domain.LandCoverOptions[0],
		SoilType:       domain.SoilTypeOptions[0],
	}
}

// GET /
func (s *Server) handleForm(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html.tmpl", newFormPage(defaultForm()))
}

// POST / with action=predict|notify
func (s *Server) handleFormSubmit(c *gin.Context) {
	f, err := parseForm(c)
	page := newFormPage(f)
	page.Recipient = strings.TrimSpace(c.PostForm("recipient"))
	if err != nil {
		page.Error = err.Error()
		c.HTML(http.StatusBadRequest, "index.html.tmpl", page)
		return
	}

	ctx := c.Request.Context()
	switch c.PostForm("action") {
	case "notify":
		out, err := s.svc.Notify(ctx, f, page.Recipient)
		if err != nil {
			page.Error = err.Error()
			c.HTML(statusFor(err), "index.html.tmpl", page)
			return
		}
		page.Result = &out.Prediction
		if out.Alert.Attempted {
			page.Alert = &out.Alert
		}
	case "predict", "":
		result, err := s.svc.Predict(ctx, f)
		if err != nil {
			page.Error = err.Error()
			c.HTML(statusFor(err), "index.html.tmpl", page)
			return
		}
		page.Result = &result
	default:
		page.Error = "unknown action"
		c.HTML(http.StatusBadRequest, "index.html.tmpl", page)
		return
	}
	c.HTML(http.StatusOK, "index.html.tmpl", page)
}

// GET /map
func (s *Server) handleMapPage(c *gin.Context) {
	threshold, floodFlag, err := s.mapQuery(c)
	page := mapPage{Threshold: threshold, FloodFlag: floodFlag}
	if err != nil {
		page.Error = err.Error()
		c.HTML(http.StatusBadRequest, "map.html.tmpl", page)
		return
	}

	view, err := s.svc.Map(c.Request.Context(), threshold, floodFlag)
	if err != nil {
		page.Error = err.Error()
		c.HTML(http.StatusInternalServerError, "map.html.tmpl", page)
		return
	}
	page.View = view
	c.HTML(http.StatusOK, "map.html.tmpl", page)
}

// parseForm reads the posted fields. Empty numeric inputs count as zero.
// Whatever parsed is returned alongside the error so the form can be refilled.
func parseForm(c *gin.Context) (domain.FieldSet, error) {
	var (
		f    domain.FieldSet
		errs []error
	)
	float := func(name string) float64 {
		raw := strings.TrimSpace(c.PostForm(name))
		if raw == "" {
			return 0
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: not a number", name))
		}
		return v
	}
	integer := func(name string) int {
		raw := strings.TrimSpace(c.PostForm(name))
		if raw == "" {
			return 0
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: not a whole number", name))
		}
		return v
	}

	f.Latitude = float("latitude")
	f.Longitude = float("longitude")
	f.Rainfall = float("rainfall")
	f.Temperature = float("temperature")
	f.Humidity = integer("humidity")
	f.Discharge = float("discharge")
	f.WaterLevel = float("water_level")
	f.Elevation = float("elevation")
	f.PopulationDensity = integer("population_density")
	f.Infrastructure = integer("infrastructure")
	f.LandCover = c.PostForm("land_cover")
	f.SoilType = c.PostForm("soil_type")

	return f, errors.Join(errs...)
}
