// Command genmock writes a deterministic mock flood dataset and matching JSON
// model artifacts for local runs and tests. Flood labels come from running the
// generated classifier through the inference package, so the dataset, scaler,
// and model agree with what the service computes.
//
// Usage:
//
//	go run ./cmd/genmock -out-dir data/mock -rows 500 -seed 42
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
	"github.com/couchcryptid/flood-alert-service/internal/inference"
	"github.com/couchcryptid/flood-alert-service/internal/mapview"
)

// Output file names, matching the service defaults.
const (
	datasetFile = "flood_risk_dataset_india.csv"
	scalerFile  = "scaler.json"
	modelFile   = "flood_model.json"
)

// Human-readable category names in one-hot index order.
var (
	landCoverNames = []string{"Agricultural", "Desert", "Forest", "Urban", "Water Body"}
	soilTypeNames  = []string{"Clay", "Loam", "Peat", "Sandy", "Silt"}
)

// datasetHeader is the full column set of the source dataset. The service reads
// only the map columns; the rest keep the file realistic.
var datasetHeader = []string{
	domain.ColLatitude, domain.ColLongitude, domain.ColRainfall, domain.ColTemperature,
	domain.ColHumidity, "River Discharge (m³/s)", domain.ColWaterLevel, "Elevation (m)",
	"Land Cover", "Soil Type", "Population Density", "Infrastructure", "Historical Floods",
	domain.ColFlood,
}

// coefficients of the toy logistic model over standardized features.
var coefficients = map[string]float64{
	"Rainfall (mm)":          1.4,
	"River Discharge (m³/s)": 0.7,
	"Water Level (m)":        1.1,
	"Elevation (m)":          -0.9,
	"Population Density":     0.2,
	"Land Cover_4":           0.5,
	"Soil Type_0":            0.4,
}

// labelNoise is the share of dataset rows whose flood flag is flipped.
const labelNoise = 0.1

type sample struct {
	fields           domain.FieldSet
	humidity         float64
	historicalFloods int
	flood            int
}

type output struct {
	samples    []sample
	scaler     inference.ScalerArtifact
	classifier inference.ClassifierArtifact
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out-dir", "data/mock", "directory for the dataset and artifacts")
	rows := flag.Int("rows", 500, "number of dataset rows")
	seed := flag.Uint64("seed", 42, "random seed")
	flag.Parse()

	if *rows <= 0 {
		flag.Usage()
		return fmt.Errorf("-rows must be positive")
	}

	out, err := generate(*rows, *seed)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}
	if err := writeDataset(filepath.Join(*outDir, datasetFile), out.samples); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	if err := inference.WriteArtifact(filepath.Join(*outDir, scalerFile), out.scaler); err != nil {
		return err
	}
	if err := inference.WriteArtifact(filepath.Join(*outDir, modelFile), out.classifier); err != nil {
		return err
	}
	log.Printf("wrote %s, %s, %s to %s", datasetFile, scalerFile, modelFile, *outDir)

	printStats(out.samples)
	return nil
}

// generate draws the samples, fits the scaler on them, and labels every row
// with the classifier plus a little noise.
func generate(rows int, seed uint64) (output, error) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	samples := make([]sample, rows)
	vectors := make([]domain.FeatureVector, rows)
	for i := range samples {
		samples[i] = drawSample(rng)
		v, err := domain.BuildFeatureVector(samples[i].fields)
		if err != nil {
			return output{}, fmt.Errorf("row %d: %w", i, err)
		}
		vectors[i] = v
	}

	out := output{
		samples:    samples,
		scaler:     fitStandardScaler(vectors),
		classifier: logisticModel(),
	}

	scaler, err := inference.NewJSONScaler(out.scaler)
	if err != nil {
		return output{}, err
	}
	classifier, err := inference.NewJSONClassifier(out.classifier)
	if err != nil {
		return output{}, err
	}
	predictor := inference.NewPredictor(scaler, classifier)

	ctx := context.Background()
	for i := range out.samples {
		label, err := predictor.Predict(ctx, vectors[i])
		if err != nil {
			return output{}, fmt.Errorf("row %d: %w", i, err)
		}
		flood := int(label)
		if rng.Float64() < labelNoise {
			flood = 1 - flood
		}
		out.samples[i].flood = flood
	}
	return out, nil
}

// drawSample picks one row inside the Indian subcontinent bounding box.
func drawSample(rng *rand.Rand) sample {
	humidity := round2(20 + rng.Float64()*80)
	return sample{
		fields: domain.FieldSet{
			Latitude:          round2(8 + rng.Float64()*29),
			Longitude:         round2(68 + rng.Float64()*29),
			Rainfall:          round2(rng.Float64() * 300),
			Temperature:       round2(15 + rng.Float64()*30),
			Humidity:          int(math.Round(humidity)),
			Discharge:         round2(rng.Float64() * 5000),
			WaterLevel:        round2(rng.Float64() * 10),
			Elevation:         round2(rng.Float64() * 8500),
			PopulationDensity: rng.IntN(10000),
			Infrastructure:    rng.IntN(2),
			LandCover:         domain.LandCoverOptions[rng.IntN(len(domain.LandCoverOptions))],
			SoilType:          domain.SoilTypeOptions[rng.IntN(len(domain.SoilTypeOptions))],
		},
		humidity:         humidity,
		historicalFloods: rng.IntN(2),
	}
}

func fitStandardScaler(vectors []domain.FeatureVector) inference.ScalerArtifact {
	n := float64(len(vectors))
	mean := make([]float64, domain.FeatureCount)
	scale := make([]float64, domain.FeatureCount)

	for _, v := range vectors {
		for j, x := range v {
			mean[j] += x / n
		}
	}
	for _, v := range vectors {
		for j, x := range v {
			d := x - mean[j]
			scale[j] += d * d / n
		}
	}
	for j := range scale {
		scale[j] = math.Sqrt(scale[j])
		// Constant columns keep a unit scale, as scikit-learn does.
		if scale[j] == 0 {
			scale[j] = 1
		}
	}

	return inference.ScalerArtifact{
		Kind:     inference.ScalerStandard,
		Contract: domain.FeatureContractVersion,
		Columns:  domain.FeatureColumns,
		Mean:     mean,
		Scale:    scale,
	}
}

func logisticModel() inference.ClassifierArtifact {
	coef := make([]float64, domain.FeatureCount)
	for j, col := range domain.FeatureColumns {
		coef[j] = coefficients[col]
	}
	return inference.ClassifierArtifact{
		Kind:      inference.ClassifierLogistic,
		Contract:  domain.FeatureContractVersion,
		Columns:   domain.FeatureColumns,
		Classes:   []int{0, 1},
		Coef:      coef,
		Intercept: -0.3,
	}
}

func writeDataset(path string, samples []sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(datasetHeader); err != nil {
		return err
	}
	for _, s := range samples {
		if err := w.Write(datasetRecord(s)); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func datasetRecord(s sample) []string {
	f := s.fields
	return []string{
		num(f.Latitude), num(f.Longitude), num(f.Rainfall), num(f.Temperature),
		num(s.humidity), num(f.Discharge), num(f.WaterLevel), num(f.Elevation),
		landCoverNames[indexOf(domain.LandCoverOptions, f.LandCover)],
		soilTypeNames[indexOf(domain.SoilTypeOptions, f.SoilType)],
		strconv.Itoa(f.PopulationDensity), strconv.Itoa(f.Infrastructure),
		strconv.Itoa(s.historicalFloods), strconv.Itoa(s.flood),
	}
}

func printStats(samples []sample) {
	var floods, eligible int
	for _, s := range samples {
		if s.flood == 1 {
			floods++
		}
		if s.fields.Rainfall > mapview.DefaultRainfallThreshold && s.flood == mapview.DefaultFloodFlag {
			eligible++
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Rows: %d\n", len(samples))
	fmt.Printf("Flood occurred: %d, no flood: %d\n", floods, len(samples)-floods)
	fmt.Printf("Map-eligible (rainfall > %g mm, flood = %d): %d\n",
		mapview.DefaultRainfallThreshold, mapview.DefaultFloodFlag, eligible)
}

func indexOf(options []string, token string) int {
	for i, o := range options {
		if o == token {
			return i
		}
	}
	return 0
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func num(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
