package inference

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
)

func readArtifact(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return nil
}

// WriteArtifact writes v as indented JSON. Used by the mock generator.
func WriteArtifact(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

// checkParams requires exactly one finite parameter per feature column.
func checkParams(name string, params []float64) error {
	if len(params) != domain.FeatureCount {
		return fmt.Errorf("%w: %s has %d values, want %d", domain.ErrFeatureShape, name, len(params), domain.FeatureCount)
	}
	for i, p := range params {
		if !isFinite(p) {
			return fmt.Errorf("%s[%d] is not finite", name, i)
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
