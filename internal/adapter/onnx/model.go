package onnx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
)

var errClosed = errors.New("onnx session closed")

// session wraps a dynamic session with one input and one output.
type session struct {
	mu      sync.Mutex
	sess    *ort.DynamicAdvancedSession
	path    string
	inShape ort.Shape
}

func newSession(path, input, output string) (*session, error) {
	sess, err := ort.NewDynamicAdvancedSession(path, []string{input}, []string{output}, nil)
	if err != nil {
		return nil, fmt.Errorf("open onnx model %s: %w", path, err)
	}
	return &session{
		sess:    sess,
		path:    path,
		inShape: ort.NewShape(1, int64(domain.FeatureCount)),
	}, nil
}

// run feeds x as a [1, 20] float tensor into the session and fills out.
func (s *session) run(ctx context.Context, x []float64, out ort.Value) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(x) != domain.FeatureCount {
		return fmt.Errorf("%w: onnx input has %d values, want %d", domain.ErrFeatureShape, len(x), domain.FeatureCount)
	}

	in, err := ort.NewTensor(s.inShape, toFloat32(x))
	if err != nil {
		return fmt.Errorf("create input tensor: %w", err)
	}
	defer in.Destroy()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return errClosed
	}
	if err := s.sess.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return fmt.Errorf("run %s: %w", s.path, err)
	}
	return nil
}

func (s *session) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return nil
	}
	err := s.sess.Destroy()
	s.sess = nil
	return err
}

// Scaler implements domain.Scaler with an ONNX scaler export
// (float [1, 20] in, float [1, 20] out).
type Scaler struct {
	s *session
}

// NewScaler opens the scaler model. Acquire must have been called.
func NewScaler(path, inputName, outputName string) (*Scaler, error) {
	s, err := newSession(path, inputName, outputName)
	if err != nil {
		return nil, err
	}
	return &Scaler{s: s}, nil
}

func (m *Scaler) Transform(ctx context.Context, x []float64) ([]float64, error) {
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(domain.FeatureCount)))
	if err != nil {
		return nil, fmt.Errorf("create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := m.s.run(ctx, x, out); err != nil {
		return nil, err
	}
	return toFloat64(out.GetData()), nil
}

// Close releases the session.
func (m *Scaler) Close() error { return m.s.close() }

// Classifier implements domain.Classifier with an ONNX classifier export
// (float [1, 20] in, int64 label [1] out).
type Classifier struct {
	s *session
}

// NewClassifier opens the classifier model. Acquire must have been called.
func NewClassifier(path, inputName, labelName string) (*Classifier, error) {
	s, err := newSession(path, inputName, labelName)
	if err != nil {
		return nil, err
	}
	return &Classifier{s: s}, nil
}

func (m *Classifier) Predict(ctx context.Context, x []float64) (domain.Label, error) {
	out, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		return 0, fmt.Errorf("create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := m.s.run(ctx, x, out); err != nil {
		return 0, err
	}
	return labelFrom(out.GetData())
}

// Close releases the session.
func (m *Classifier) Close() error { return m.s.close() }

func labelFrom(data []int64) (domain.Label, error) {
	if len(data) != 1 {
		return 0, fmt.Errorf("onnx classifier returned %d labels, want 1", len(data))
	}
	switch data[0] {
	case 0:
		return domain.NoFlood, nil
	case 1:
		return domain.Flood, nil
	default:
		return 0, fmt.Errorf("onnx classifier returned non-binary label %d", data[0])
	}
}

func toFloat32(x []float64) []float32 {
	out := make([]float32, len(x))
	for i, v := range x {
		out[i] = float32(v)
	}
	return out
}

func toFloat64(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}
