package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/flood-alert-service/internal/domain"
	"github.com/couchcryptid/flood-alert-service/internal/mapview"
	"github.com/couchcryptid/flood-alert-service/internal/observability"
)

// Predictor runs the scaler and classifier over a feature vector.
type Predictor interface {
	Predict(ctx context.Context, v domain.FeatureVector) (domain.Label, error)
}

// Notifier delivers one alert message.
type Notifier interface {
	Notify(ctx context.Context, recipient, subject, body string) error
}

// AlertPublisher emits flood alert events to downstream consumers.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, event domain.FloodAlertEvent) error
}

// DatasetSource provides the historical rows for the map.
type DatasetSource interface {
	Rows() ([]domain.DatasetRow, error)
}

// ErrNoRecipient is reported when neither the request nor the config names
// an alert recipient.
var ErrNoRecipient = errors.New("no alert recipient configured")

// DatasetError wraps a dataset load or parse failure with the message shown
// to users.
type DatasetError struct {
	Err error
}

func (e *DatasetError) Error() string {
	return "Failed to load or process dataset: " + e.Err.Error()
}

func (e *DatasetError) Unwrap() error { return e.Err }

// NotifyResult is the outcome of the notify action.
type NotifyResult struct {
	Prediction domain.PredictionResult `json:"prediction"`
	Alert      domain.AlertOutcome     `json:"alert"`
}

// Option configures optional collaborators of a Service.
type Option func(*Service)

// WithNotifier sets the alert notifier.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithPublisher enables alert events.
func WithPublisher(p AlertPublisher) Option { return func(s *Service) { s.publisher = p } }

// WithGeocoder enables the "Nearest place" line in alerts.
func WithGeocoder(g domain.Geocoder) Option { return func(s *Service) { s.geocoder = g } }

// WithDefaultRecipient sets the recipient used when a request names none.
func WithDefaultRecipient(addr string) Option {
	return func(s *Service) { s.defaultRecipient = addr }
}

// WithMapFilter sets the default historical map filter.
func WithMapFilter(threshold float64, floodFlag int) Option {
	return func(s *Service) {
		s.mapThreshold = threshold
		s.mapFloodFlag = floodFlag
	}
}

// WithIDGenerator replaces the prediction ID source.
func WithIDGenerator(fn func() string) Option { return func(s *Service) { s.newID = fn } }

// Service implements the predict, notify, and map actions.
type Service struct {
	predictor Predictor
	dataset   DatasetSource
	notifier  Notifier
	publisher AlertPublisher
	geocoder  domain.Geocoder
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	newID     func() string

	defaultRecipient string
	mapThreshold     float64
	mapFloodFlag     int
}

// NewService creates a Service around loaded artifacts and a dataset source.
func NewService(p Predictor, d DatasetSource, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Service {
	s := &Service{
		predictor:    p,
		dataset:      d,
		logger:       logger,
		metrics:      metrics,
		newID:        uuid.NewString,
		mapThreshold: mapview.DefaultRainfallThreshold,
		mapFloodFlag: mapview.DefaultFloodFlag,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkReady flags the service as accepting requests.
func (s *Service) MarkReady() {
	s.ready.Store(true)
	s.metrics.ServiceReady.Set(1)
}

// MarkDraining flags the service as shutting down.
func (s *Service) MarkDraining() {
	s.ready.Store(false)
	s.metrics.ServiceReady.Set(0)
}

// CheckReadiness returns nil once the model artifacts are loaded and the
// service has not started draining.
func (s *Service) CheckReadiness(_ context.Context) error {
	if !s.ready.Load() {
		return errors.New("flood service is not ready")
	}
	return nil
}

// MapFilter returns the configured default map filter.
func (s *Service) MapFilter() (threshold float64, floodFlag int) {
	return s.mapThreshold, s.mapFloodFlag
}

// Predict validates the input, builds the feature vector, and classifies it.
// Validation failures wrap domain.ErrInvalidField or domain.ErrUnknownCategory.
func (s *Service) Predict(ctx context.Context, f domain.FieldSet) (domain.PredictionResult, error) {
	if err := f.Validate(); err != nil {
		s.metrics.ValidationErrors.Inc()
		return domain.PredictionResult{}, err
	}
	v, err := domain.BuildFeatureVector(f)
	if err != nil {
		s.metrics.ValidationErrors.Inc()
		return domain.PredictionResult{}, err
	}

	start := time.Now()
	label, err := s.predictor.Predict(ctx, v)
	s.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.Predictions.WithLabelValues("error").Inc()
		s.logger.Error("prediction failed", "error", err)
		return domain.PredictionResult{}, fmt.Errorf("predict: %w", err)
	}

	result := domain.NewPredictionResult(s.newID(), label, f)
	if result.Flood {
		s.metrics.Predictions.WithLabelValues("flood").Inc()
	} else {
		s.metrics.Predictions.WithLabelValues("no_flood").Inc()
	}
	s.logger.Info("prediction served",
		"id", result.ID,
		"label", int(label),
		"lat", f.Latitude,
		"lon", f.Longitude,
	)
	return result, nil
}

// Notify predicts and, only when the label is flood, sends one alert email.
// Alert failures are reported in the outcome and never fail the call; the
// prediction is returned regardless.
func (s *Service) Notify(ctx context.Context, f domain.FieldSet, recipient string) (NotifyResult, error) {
	result, err := s.Predict(ctx, f)
	if err != nil {
		return NotifyResult{}, err
	}

	out := NotifyResult{Prediction: result}
	if !result.Flood {
		s.metrics.Alerts.WithLabelValues("skipped").Inc()
		return out, nil
	}

	in := result.Input
	place := domain.DescribeLocation(ctx, in.Latitude, in.Longitude, s.geocoder, s.logger)
	out.Alert = s.sendAlert(ctx, result, place, recipient)
	s.publishAlert(ctx, result, place, out.Alert)
	return out, nil
}

func (s *Service) sendAlert(ctx context.Context, result domain.PredictionResult, place, recipient string) domain.AlertOutcome {
	outcome := domain.AlertOutcome{Attempted: true}

	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		recipient = s.defaultRecipient
	}
	outcome.Recipient = recipient

	var err error
	switch {
	case recipient == "":
		err = ErrNoRecipient
	case s.notifier == nil:
		err = errors.New("alert delivery is not configured")
	default:
		msg := domain.ComposeAlert(result.Input, place)

		start := time.Now()
		err = s.notifier.Notify(ctx, recipient, msg.Subject, msg.Body)
		s.metrics.AlertSendTiming.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		s.metrics.Alerts.WithLabelValues("failed").Inc()
		s.logger.Warn("alert not sent", "prediction_id", result.ID, "recipient", recipient, "error", err)
		outcome.Error = err.Error()
		return outcome
	}

	s.metrics.Alerts.WithLabelValues("sent").Inc()
	outcome.Sent = true
	return outcome
}

func (s *Service) publishAlert(ctx context.Context, result domain.PredictionResult, place string, alert domain.AlertOutcome) {
	if s.publisher == nil {
		return
	}
	in := result.Input
	event := domain.FloodAlertEvent{
		PredictionID: result.ID,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Rainfall:     in.Rainfall,
		WaterLevel:   in.WaterLevel,
		PlaceName:    place,
		AlertSent:    alert.Sent,
		PredictedAt:  result.PredictedAt,
	}

	if err := s.publisher.PublishAlert(ctx, event); err != nil {
		s.metrics.AlertEvents.WithLabelValues("error").Inc()
		s.logger.Warn("flood alert event not published", "prediction_id", result.ID, "error", err)
		return
	}
	s.metrics.AlertEvents.WithLabelValues("published").Inc()
}

// Map loads the dataset and renders the historical map. Dataset failures are
// returned as *DatasetError.
func (s *Service) Map(_ context.Context, threshold float64, floodFlag int) (mapview.View, error) {
	rows, err := s.dataset.Rows()
	if err != nil {
		s.metrics.DatasetErrors.Inc()
		s.metrics.MapRenders.WithLabelValues("error").Inc()
		s.logger.Error("dataset load failed", "error", err)
		return mapview.View{}, &DatasetError{Err: err}
	}

	view := mapview.Render(rows, threshold, floodFlag)
	if view.HasMap() {
		s.metrics.MapRenders.WithLabelValues("markers").Inc()
	} else {
		s.metrics.MapRenders.WithLabelValues("empty").Inc()
	}
	s.metrics.MapMarkers.Observe(float64(len(view.Markers)))
	return view, nil
}
