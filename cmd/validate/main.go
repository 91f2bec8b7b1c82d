// Command validate checks the JSON model artifacts and the historical dataset
// before a deploy: contract columns, parameter shapes, end-to-end predictions,
// and dataset rows usable by the map.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -model data/mock/flood_model.json \
//	  -scaler data/mock/scaler.json \
//	  -dataset data/mock/flood_risk_dataset_india.csv
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/flood-alert-service/internal/dataset"
	"github.com/couchcryptid/flood-alert-service/internal/domain"
	"github.com/couchcryptid/flood-alert-service/internal/inference"
	"github.com/couchcryptid/flood-alert-service/internal/mapview"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	modelPath := flag.String("model", "", "path to the JSON classifier artifact")
	scalerPath := flag.String("scaler", "", "path to the JSON scaler artifact")
	datasetPath := flag.String("dataset", "", "path to the historical dataset CSV")
	flag.Parse()

	if *modelPath == "" || *scalerPath == "" || *datasetPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *modelPath, *scalerPath, *datasetPath))
}

func run(w io.Writer, modelPath, scalerPath, datasetPath string) int {
	fmt.Fprintln(w, "=== Flood Model Integrity Validation ===")
	fmt.Fprintln(w)

	scaler, scalerPhase := validateScaler(scalerPath)
	classifier, classifierPhase := validateClassifier(modelPath)
	phases := []*phase{scalerPhase, classifierPhase}

	if scaler != nil && classifier != nil {
		phases = append(phases, validatePredictions(w, inference.NewPredictor(scaler, classifier)))
	} else {
		skipped := &phase{name: "Phase 3: Predictions (end to end)"}
		skipped.errorf("skipped: artifacts failed to load")
		phases = append(phases, skipped)
	}

	rows, datasetPhase := validateDataset(datasetPath)
	phases = append(phases, datasetPhase)

	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	view := mapview.Render(rows, mapview.DefaultRainfallThreshold, mapview.DefaultFloodFlag)
	fmt.Fprintf(w, "Dataset: %d rows, %d map-eligible (rainfall > %g mm, flood = %d)\n",
		len(rows), len(view.Markers), mapview.DefaultRainfallThreshold, mapview.DefaultFloodFlag)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: Scaler ──

func validateScaler(path string) (*inference.JSONScaler, *phase) {
	p := &phase{name: "Phase 1: Scaler artifact"}

	scaler, err := inference.LoadJSONScaler(path)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}
	checkIdentity(p, path)
	return scaler, p
}

// ── Phase 2: Classifier ──

func validateClassifier(path string) (*inference.JSONClassifier, *phase) {
	p := &phase{name: "Phase 2: Classifier artifact"}

	classifier, err := inference.LoadJSONClassifier(path)
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}
	checkIdentity(p, path)
	return classifier, p
}

// checkIdentity requires the artifact to name its contract and columns. The
// loaders accept anonymous artifacts; a deployable one must be explicit.
func checkIdentity(p *phase, path string) {
	var id struct {
		Contract string   `json:"contract"`
		Columns  []string `json:"columns"`
	}
	if err := readJSON(path, &id); err != nil {
		p.errorf("%v", err)
		return
	}
	if id.Contract == "" {
		p.errorf("%s: contract version is not recorded (want %q)", path, domain.FeatureContractVersion)
	}
	if len(id.Columns) == 0 {
		p.errorf("%s: column list is not recorded", path)
	}
}

// ── Phase 3: Predictions ──
// Runs every land cover and soil type combination through both steps twice.

func validatePredictions(w io.Writer, predictor *inference.Predictor) *phase {
	p := &phase{name: "Phase 3: Predictions (end to end)"}
	ctx := context.Background()

	base := domain.FieldSet{
		Latitude:          22.5,
		Longitude:         80.1,
		Rainfall:          180,
		Temperature:       29,
		Humidity:          70,
		Discharge:         2500,
		WaterLevel:        5,
		Elevation:         400,
		PopulationDensity: 3000,
		Infrastructure:    1,
	}

	labels := map[domain.Label]int{}
	for _, lc := range domain.LandCoverOptions {
		for _, st := range domain.SoilTypeOptions {
			f := base
			f.LandCover, f.SoilType = lc, st

			v, err := domain.BuildFeatureVector(f)
			if err != nil {
				p.errorf("%s/%s: %v", lc, st, err)
				continue
			}
			first, err := predictor.Predict(ctx, v)
			if err != nil {
				p.errorf("%s/%s: %v", lc, st, err)
				continue
			}
			second, err := predictor.Predict(ctx, v)
			if err != nil {
				p.errorf("%s/%s: %v", lc, st, err)
				continue
			}
			if first != second {
				p.errorf("%s/%s: non-deterministic label %d then %d", lc, st, first, second)
			}
			labels[first]++
		}
	}

	// Wrong-length vectors must be rejected.
	if _, err := predictor.Predict(ctx, make(domain.FeatureVector, domain.FeatureCount-1)); err == nil {
		p.errorf("short feature vector was accepted")
	}

	fmt.Fprintf(w, "  Note: %d flood / %d no-flood labels over the category grid\n", labels[domain.Flood], labels[domain.NoFlood])
	return p
}

// ── Phase 4: Dataset ──

func validateDataset(path string) ([]domain.DatasetRow, *phase) {
	p := &phase{name: "Phase 4: Dataset (map columns)"}

	rows, err := dataset.NewSource(path).Rows()
	if err != nil {
		p.errorf("%v", err)
		return nil, p
	}
	if len(rows) == 0 {
		p.errorf("dataset has no data rows")
	}

	for i, r := range rows {
		line := i + 2
		if r.Latitude < -90 || r.Latitude > 90 {
			p.errorf("line %d: latitude %g out of range", line, r.Latitude)
		}
		if r.Longitude < -180 || r.Longitude > 180 {
			p.errorf("line %d: longitude %g out of range", line, r.Longitude)
		}
		if r.Rainfall < 0 {
			p.errorf("line %d: negative rainfall %g", line, r.Rainfall)
		}
		if r.Humidity < 0 || r.Humidity > 100 {
			p.errorf("line %d: humidity %g out of range", line, r.Humidity)
		}
	}
	return rows, p
}

// ── Helpers ──

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
