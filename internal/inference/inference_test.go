package inference

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(v float64) []float64 {
	out := make([]float64, domain.FeatureCount)
	for i := range out {
		out[i] = v
	}
	return out
}

func standardScaler() ScalerArtifact {
	return ScalerArtifact{
		Kind:     ScalerStandard,
		Contract: domain.FeatureContractVersion,
		Columns:  domain.FeatureColumns,
		Mean:     repeat(0),
		Scale:    repeat(1),
	}
}

// rainfallLogistic flags flood when scaled rainfall exceeds 200.
func rainfallLogistic() ClassifierArtifact {
	coef := repeat(0)
	coef[2] = 1
	return ClassifierArtifact{
		Kind:      ClassifierLogistic,
		Contract:  domain.FeatureContractVersion,
		Columns:   domain.FeatureColumns,
		Coef:      coef,
		Intercept: -200,
	}
}

// stump splits on water level (index 6) at 5 m.
func stump(leftFlood, rightFlood float64) Tree {
	return Tree{
		ChildrenLeft:  []int{1, -1, -1},
		ChildrenRight: []int{2, -1, -1},
		Feature:       []int{6, -2, -2},
		Threshold:     []float64{5, -2, -2},
		Value:         [][]float64{{50, 50}, {40 - leftFlood, leftFlood}, {40 - rightFlood, rightFlood}},
	}
}

func vectorWith(idx int, v float64) domain.FeatureVector {
	x := make(domain.FeatureVector, domain.FeatureCount)
	x[idx] = v
	return x
}

// --- scaler ---

func TestJSONScaler_Standard(t *testing.T) {
	a := standardScaler()
	a.Mean[0] = 10
	a.Scale[0] = 2
	s, err := NewJSONScaler(a)
	require.NoError(t, err)

	out, err := s.Transform(context.Background(), vectorWith(0, 14))
	require.NoError(t, err)
	assert.InDelta(t, 2.0, out[0], 1e-12)
	assert.InDelta(t, 0.0, out[1], 1e-12)
}

func TestJSONScaler_MinMax(t *testing.T) {
	s, err := NewJSONScaler(ScalerArtifact{
		Kind:  ScalerMinMax,
		Min:   repeat(-1),
		Scale: repeat(0.5),
	})
	require.NoError(t, err)

	out, err := s.Transform(context.Background(), vectorWith(3, 4))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, out[3], 1e-12)
	assert.InDelta(t, -1.0, out[0], 1e-12)
}

func TestJSONScaler_RejectsWrongLength(t *testing.T) {
	s, err := NewJSONScaler(standardScaler())
	require.NoError(t, err)

	_, err = s.Transform(context.Background(), make([]float64, 19))
	assert.ErrorIs(t, err, domain.ErrFeatureShape)
}

func TestScalerArtifact_Validate(t *testing.T) {
	reordered := append([]string{}, domain.FeatureColumns...)
	reordered[10], reordered[15] = reordered[15], reordered[10]

	tests := []struct {
		name   string
		mutate func(*ScalerArtifact)
	}{
		{"missing kind", func(a *ScalerArtifact) { a.Kind = "" }},
		{"unknown kind", func(a *ScalerArtifact) { a.Kind = "robust" }},
		{"short mean", func(a *ScalerArtifact) { a.Mean = a.Mean[:19] }},
		{"zero scale", func(a *ScalerArtifact) { a.Scale[4] = 0 }},
		{"nan mean", func(a *ScalerArtifact) { a.Mean[1] = math.NaN() }},
		{"reordered columns", func(a *ScalerArtifact) { a.Columns = reordered }},
		{"other contract", func(a *ScalerArtifact) { a.Contract = "flood-v2" }},
		{"minmax without min", func(a *ScalerArtifact) { a.Kind = ScalerMinMax }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := standardScaler()
			tt.mutate(&a)
			_, err := NewJSONScaler(a)
			assert.Error(t, err)
		})
	}
}

// --- classifier ---

func TestJSONClassifier_Logistic(t *testing.T) {
	c, err := NewJSONClassifier(rainfallLogistic())
	require.NoError(t, err)

	label, err := c.Predict(context.Background(), vectorWith(2, 250))
	require.NoError(t, err)
	assert.Equal(t, domain.Flood, label)

	label, err = c.Predict(context.Background(), vectorWith(2, 150))
	require.NoError(t, err)
	assert.Equal(t, domain.NoFlood, label)

	label, err = c.Predict(context.Background(), vectorWith(2, 200))
	require.NoError(t, err)
	assert.Equal(t, domain.NoFlood, label, "boundary is not flood")
}

func TestJSONClassifier_Forest(t *testing.T) {
	a := ClassifierArtifact{
		Kind:  ClassifierForest,
		Trees: []Tree{stump(5, 35), stump(10, 30), stump(30, 10)},
	}
	c, err := NewJSONClassifier(a)
	require.NoError(t, err)

	// Left leaves: 5/40, 10/40, 30/40 flood -> mean 0.375.
	label, err := c.Predict(context.Background(), vectorWith(6, 3))
	require.NoError(t, err)
	assert.Equal(t, domain.NoFlood, label)

	// Right leaves: 35/40, 30/40, 10/40 flood -> mean 0.625.
	label, err = c.Predict(context.Background(), vectorWith(6, 8))
	require.NoError(t, err)
	assert.Equal(t, domain.Flood, label)

	// Threshold goes left.
	label, err = c.Predict(context.Background(), vectorWith(6, 5))
	require.NoError(t, err)
	assert.Equal(t, domain.NoFlood, label)
}

func TestJSONClassifier_ReversedClasses(t *testing.T) {
	a := rainfallLogistic()
	a.Classes = []int{1, 0}
	c, err := NewJSONClassifier(a)
	require.NoError(t, err)

	label, err := c.Predict(context.Background(), vectorWith(2, 250))
	require.NoError(t, err)
	assert.Equal(t, domain.NoFlood, label)
}

func TestClassifierArtifact_Validate(t *testing.T) {
	badChild := stump(1, 1)
	badChild.ChildrenLeft[0] = 7
	badFeature := stump(1, 1)
	badFeature.Feature[0] = 20
	ragged := stump(1, 1)
	ragged.Threshold = ragged.Threshold[:2]
	cycle := stump(1, 1)
	cycle.ChildrenRight[0] = 0

	tests := []struct {
		name string
		a    ClassifierArtifact
	}{
		{"missing kind", ClassifierArtifact{}},
		{"unknown kind", ClassifierArtifact{Kind: "svm"}},
		{"short coef", ClassifierArtifact{Kind: ClassifierLogistic, Coef: repeat(1)[:5]}},
		{"infinite intercept", ClassifierArtifact{Kind: ClassifierLogistic, Coef: repeat(1), Intercept: math.Inf(1)}},
		{"multiclass", ClassifierArtifact{Kind: ClassifierLogistic, Coef: repeat(1), Classes: []int{0, 1, 2}}},
		{"empty forest", ClassifierArtifact{Kind: ClassifierForest}},
		{"child out of range", ClassifierArtifact{Kind: ClassifierForest, Trees: []Tree{badChild}}},
		{"feature out of range", ClassifierArtifact{Kind: ClassifierForest, Trees: []Tree{badFeature}}},
		{"ragged arrays", ClassifierArtifact{Kind: ClassifierForest, Trees: []Tree{ragged}}},
		{"self loop", ClassifierArtifact{Kind: ClassifierForest, Trees: []Tree{cycle}}},
		{"wrong contract", ClassifierArtifact{Kind: ClassifierLogistic, Coef: repeat(1), Contract: "rain-v1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJSONClassifier(tt.a)
			assert.Error(t, err)
		})
	}
}

// --- predictor ---

type stubScaler struct {
	out []float64
	err error
}

func (s stubScaler) Transform(_ context.Context, x []float64) ([]float64, error) {
	if s.out != nil || s.err != nil {
		return s.out, s.err
	}
	return x, nil
}

type stubClassifier struct {
	label domain.Label
	err   error
	calls int
}

func (c *stubClassifier) Predict(_ context.Context, _ []float64) (domain.Label, error) {
	c.calls++
	return c.label, c.err
}

func TestPredictor_Predict(t *testing.T) {
	p, err := func() (*Predictor, error) {
		s, err := NewJSONScaler(standardScaler())
		if err != nil {
			return nil, err
		}
		c, err := NewJSONClassifier(rainfallLogistic())
		if err != nil {
			return nil, err
		}
		return NewPredictor(s, c), nil
	}()
	require.NoError(t, err)

	f := domain.FieldSet{
		Latitude: 26, Longitude: 91, Rainfall: 320, Temperature: 30, Humidity: 90,
		Discharge: 3000, WaterLevel: 8, Elevation: 40, PopulationDensity: 2000,
		Infrastructure: 1, LandCover: "Land Cover_1", SoilType: "Soil Type_3",
	}
	v, err := domain.BuildFeatureVector(f)
	require.NoError(t, err)

	first, err := p.Predict(context.Background(), v)
	require.NoError(t, err)
	assert.Equal(t, domain.Flood, first)

	for range 5 {
		again, err := p.Predict(context.Background(), v)
		require.NoError(t, err)
		assert.Equal(t, first, again, "prediction must be deterministic")
	}
}

func TestPredictor_ShapeMismatch(t *testing.T) {
	c := &stubClassifier{label: domain.Flood}
	p := NewPredictor(stubScaler{}, c)

	_, err := p.Predict(context.Background(), make(domain.FeatureVector, 18))
	require.ErrorIs(t, err, domain.ErrFeatureShape)
	assert.Equal(t, 0, c.calls, "classifier must not run on a malformed vector")

	p = NewPredictor(stubScaler{out: make([]float64, 3)}, c)
	_, err = p.Predict(context.Background(), make(domain.FeatureVector, domain.FeatureCount))
	require.ErrorIs(t, err, domain.ErrFeatureShape)
	assert.Equal(t, 0, c.calls)
}

func TestPredictor_PropagatesErrors(t *testing.T) {
	v := make(domain.FeatureVector, domain.FeatureCount)

	p := NewPredictor(stubScaler{err: errors.New("scaler broke")}, &stubClassifier{})
	_, err := p.Predict(context.Background(), v)
	assert.ErrorContains(t, err, "scale features")

	p = NewPredictor(stubScaler{}, &stubClassifier{err: errors.New("session closed")})
	_, err = p.Predict(context.Background(), v)
	assert.ErrorContains(t, err, "classify")

	p = NewPredictor(stubScaler{}, &stubClassifier{label: 3})
	_, err = p.Predict(context.Background(), v)
	assert.ErrorContains(t, err, "non-binary")
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "flood_model.json")
	scalerPath := filepath.Join(dir, "scaler.json")

	require.NoError(t, WriteArtifact(modelPath, rainfallLogistic()))
	require.NoError(t, WriteArtifact(scalerPath, standardScaler()))

	p, err := LoadJSON(modelPath, scalerPath)
	require.NoError(t, err)

	label, err := p.Predict(context.Background(), vectorWith(2, 500))
	require.NoError(t, err)
	assert.Equal(t, domain.Flood, label)
}

func TestLoadJSON_Failures(t *testing.T) {
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "flood_model.json")
	scalerPath := filepath.Join(dir, "scaler.json")
	require.NoError(t, WriteArtifact(modelPath, rainfallLogistic()))

	_, err := LoadJSON(modelPath, scalerPath)
	assert.ErrorContains(t, err, "load scaler")

	require.NoError(t, os.WriteFile(scalerPath, []byte("{not json"), 0o644))
	_, err = LoadJSON(modelPath, scalerPath)
	assert.ErrorContains(t, err, "decode artifact")

	bad := standardScaler()
	bad.Columns = domain.FeatureColumns[:19]
	require.NoError(t, WriteArtifact(scalerPath, bad))
	_, err = LoadJSON(modelPath, scalerPath)
	assert.ErrorIs(t, err, domain.ErrFeatureShape)

	require.NoError(t, WriteArtifact(scalerPath, standardScaler()))
	_, err = LoadJSON(filepath.Join(dir, "missing.json"), scalerPath)
	assert.ErrorContains(t, err, "load model")
}
