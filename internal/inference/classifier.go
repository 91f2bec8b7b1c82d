package inference

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
)

// Classifier kinds.
const (
	ClassifierLogistic = "logistic"
	ClassifierForest   = "forest"
)

// leafMarker is the children_left value of a leaf node in exported trees.
const leafMarker = -1

// ClassifierArtifact is the JSON export of a fitted binary classifier.
type ClassifierArtifact struct {
	Kind     string   `json:"kind"`
	Contract string   `json:"contract,omitempty"`
	Columns  []string `json:"columns,omitempty"`
	Classes  []int    `json:"classes,omitempty"` // defaults to [0, 1]

	// logistic
	Coef      []float64 `json:"coef,omitempty"`
	Intercept float64   `json:"intercept,omitempty"`

	// forest
	Trees []Tree `json:"trees,omitempty"`
}

// Tree is one decision tree in array form. Node i is a leaf when
// ChildrenLeft[i] == -1; otherwise samples with x[Feature[i]] <= Threshold[i]
// go left. Value[i] holds per-class weights at the node.
type Tree struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

func (a *ClassifierArtifact) classes() []int {
	if len(a.Classes) == 0 {
		return []int{0, 1}
	}
	return a.Classes
}

// Validate checks the artifact against the feature contract and its own shape.
func (a *ClassifierArtifact) Validate() error {
	if err := domain.CheckColumns(a.Contract, a.Columns); err != nil {
		return err
	}
	classes := slices.Sorted(slices.Values(a.classes()))
	if !slices.Equal(classes, []int{0, 1}) {
		return fmt.Errorf("classifier must be binary over {0, 1}, got classes %v", a.Classes)
	}

	switch a.Kind {
	case ClassifierLogistic:
		if err := checkParams("coef", a.Coef); err != nil {
			return err
		}
		if !isFinite(a.Intercept) {
			return errors.New("intercept is not finite")
		}
	case ClassifierForest:
		if len(a.Trees) == 0 {
			return errors.New("forest has no trees")
		}
		for i := range a.Trees {
			if err := a.Trees[i].validate(); err != nil {
				return fmt.Errorf("tree %d: %w", i, err)
			}
		}
	case "":
		return errors.New("classifier kind is required")
	default:
		return fmt.Errorf("unsupported classifier kind %q", a.Kind)
	}
	return nil
}

func (t *Tree) validate() error {
	n := len(t.ChildrenLeft)
	if n == 0 {
		return errors.New("empty tree")
	}
	if len(t.ChildrenRight) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return errors.New("node arrays differ in length")
	}
	for i := range n {
		if len(t.Value[i]) != 2 {
			return fmt.Errorf("node %d: want 2 class weights, got %d", i, len(t.Value[i]))
		}
		if t.ChildrenLeft[i] == leafMarker {
			continue
		}
		l, r := t.ChildrenLeft[i], t.ChildrenRight[i]
		// Children always follow their parent, which also rules out cycles.
		if l <= i || l >= n || r <= i || r >= n {
			return fmt.Errorf("node %d: child index out of range", i)
		}
		if t.Feature[i] < 0 || t.Feature[i] >= domain.FeatureCount {
			return fmt.Errorf("node %d: feature %d out of range", i, t.Feature[i])
		}
		if !isFinite(t.Threshold[i]) {
			return fmt.Errorf("node %d: threshold is not finite", i)
		}
	}
	return nil
}

// leaf walks x down the tree and returns the normalized class distribution.
func (t *Tree) leaf(x []float64) [2]float64 {
	node := 0
	for t.ChildrenLeft[node] != leafMarker {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.ChildrenLeft[node]
		} else {
			node = t.ChildrenRight[node]
		}
	}
	v := t.Value[node]
	total := v[0] + v[1]
	if total == 0 {
		return [2]float64{}
	}
	return [2]float64{v[0] / total, v[1] / total}
}

// JSONClassifier implements domain.Classifier from a ClassifierArtifact.
type JSONClassifier struct {
	artifact ClassifierArtifact
}

// NewJSONClassifier validates the artifact and wraps it.
func NewJSONClassifier(a ClassifierArtifact) (*JSONClassifier, error) {
	if err := a.Validate(); err != nil {
		return nil, fmt.Errorf("classifier artifact: %w", err)
	}
	return &JSONClassifier{artifact: a}, nil
}

// LoadJSONClassifier reads and validates a classifier artifact from disk.
func LoadJSONClassifier(path string) (*JSONClassifier, error) {
	var a ClassifierArtifact
	if err := readArtifact(path, &a); err != nil {
		return nil, err
	}
	return NewJSONClassifier(a)
}

func (c *JSONClassifier) Predict(_ context.Context, x []float64) (domain.Label, error) {
	if len(x) != domain.FeatureCount {
		return 0, fmt.Errorf("%w: classifier got %d values, want %d", domain.ErrFeatureShape, len(x), domain.FeatureCount)
	}

	a := c.artifact
	var idx int
	switch a.Kind {
	case ClassifierLogistic:
		z := a.Intercept
		for i, w := range a.Coef {
			z += w * x[i]
		}
		// Decision function > 0 is probability > 0.5.
		if z > 0 {
			idx = 1
		}
	case ClassifierForest:
		var proba [2]float64
		for i := range a.Trees {
			p := a.Trees[i].leaf(x)
			proba[0] += p[0]
			proba[1] += p[1]
		}
		// Ties go to the first class.
		if proba[1] > proba[0] {
			idx = 1
		}
	}
	return domain.Label(a.classes()[idx]), nil
}
