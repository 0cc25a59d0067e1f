// Package service wires the reference dataset, feature schema, classifier
// and prediction history into a single scoring entry point.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"heartrisk/config"
	"heartrisk/dataset"
	"heartrisk/db"
	"heartrisk/ml"
	"heartrisk/monitoring"
)

// Publisher receives every scored prediction.
type Publisher interface {
	Publish(msgType monitoring.MessageType, id string, data interface{}) error
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithMetrics(m *monitoring.MetricsCollector) Option {
	return func(s *Service) { s.metrics = m }
}

// Prediction is the outcome of one scored form submission.
type Prediction struct {
	ID            string         `json:"id"`
	Probability   float64        `json:"probability"`
	Percent       float64        `json:"percent"`
	Color         string         `json:"color"`
	SchemaVersion string         `json:"schema_version"`
	Cached        bool           `json:"cached"`
	CreatedAt     time.Time      `json:"created_at"`
	Record        dataset.Record `json:"record"`
}

// Service holds the immutable scoring pipeline plus the mutable cache and store.
type Service struct {
	logger    *zap.Logger
	reference *dataset.Table
	choices   dataset.Choices
	schema    *ml.FeatureSchema
	encoder   *ml.Encoder
	predictor *ml.Predictor
	store     *db.Store
	cache     *lru.Cache[string, ml.Probability]
	publisher Publisher
	metrics   *monitoring.MetricsCollector
}

// New loads every artifact named in cfg and checks that the reference
// dataset, the bundled schema and the classifier agree on one column layout.
// Any failure is returned and no Service is built.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{logger: logger}
	for _, opt := range opts {
		opt(s)
	}

	reference, err := dataset.NewLoader(cfg.Data.ReferencePath, logger).Load()
	if err != nil {
		return nil, fmt.Errorf("load reference dataset: %w", err)
	}
	s.reference = reference
	s.choices = dataset.BuildChoices(reference)

	schema, err := resolveSchema(cfg.ML.SchemaPath, reference, logger)
	if err != nil {
		return nil, err
	}
	s.schema = schema

	if s.encoder, err = ml.NewEncoder(schema); err != nil {
		return nil, err
	}

	model, err := ml.LoadModel(cfg.ML.ModelType, cfg.ML.ModelPath)
	if err != nil {
		return nil, err
	}
	if err := schema.Verify(model.FeatureNames()); err != nil {
		return nil, fmt.Errorf("model %s: %w", cfg.ML.ModelPath, err)
	}
	if v := model.SchemaVersion(); v != "" && v != schema.Version {
		return nil, fmt.Errorf("%w: model trained on schema %s, active schema is %s", ml.ErrSchemaMismatch, v, schema.Version)
	}
	s.predictor = ml.NewPredictor(model)

	if cfg.Cache.Size > 0 {
		if s.cache, err = lru.New[string, ml.Probability](cfg.Cache.Size); err != nil {
			return nil, fmt.Errorf("prediction cache: %w", err)
		}
	}

	if s.store, err = db.Open(cfg.Database.Path); err != nil {
		return nil, fmt.Errorf("open prediction store: %w", err)
	}

	logger.Info("scoring service ready",
		zap.String("schema_version", schema.Version),
		zap.Int("columns", len(schema.Columns)),
		zap.String("model_type", cfg.ML.ModelType),
		zap.Int("cache_size", cfg.Cache.Size),
	)
	return s, nil
}

func resolveSchema(path string, reference *dataset.Table, logger *zap.Logger) (*ml.FeatureSchema, error) {
	live, err := ml.BuildSchema(reference)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	if path == "" {
		logger.Warn("no bundled feature schema configured, using the layout derived from the reference dataset",
			zap.String("schema_version", live.Version))
		return live, nil
	}

	bundled, err := ml.LoadSchema(path)
	if err != nil {
		return nil, err
	}
	if !bundled.Equal(live) {
		return nil, fmt.Errorf("%w: bundled schema %s differs from reference dataset: %s",
			ml.ErrSchemaMismatch, bundled.Version, bundled.Diff(live))
	}
	return bundled, nil
}

func (s *Service) Choices() dataset.Choices {
	return s.choices
}

func (s *Service) Schema() *ml.FeatureSchema {
	return s.schema
}

// Reference returns the reference table loaded at startup.
func (s *Service) Reference() *dataset.Table {
	return s.reference
}

// Predict collects, encodes and scores one submission, then records it in
// the history store and announces it to the publisher. Storage and publish
// failures are logged and do not fail the prediction.
func (s *Service) Predict(ctx context.Context, in dataset.FormInput) (*Prediction, error) {
	start := time.Now()

	rec, err := dataset.Collect(in, s.choices)
	if err != nil {
		s.observeError(err)
		return nil, err
	}
	vector, err := s.encoder.Encode(rec)
	if err != nil {
		s.observeError(err)
		return nil, err
	}

	key := s.schema.Version + "|" + vector.Key()
	probability, cached := ml.Probability(0), false
	if s.cache != nil {
		probability, cached = s.cache.Get(key)
	}
	if !cached {
		probability, err = s.predictor.Predict(ctx, vector)
		if err != nil {
			s.observeError(err)
			return nil, err
		}
		if s.cache != nil {
			s.cache.Add(key, probability)
		}
	}

	percent := probability.Percent()
	prediction := &Prediction{
		ID:            uuid.NewString(),
		Probability:   float64(probability),
		Percent:       percent,
		Color:         RiskColor(percent),
		SchemaVersion: s.schema.Version,
		Cached:        cached,
		CreatedAt:     time.Now().UTC(),
		Record:        rec,
	}

	if err := s.store.SavePrediction(ctx, db.PredictionRecord{
		ID:            prediction.ID,
		SchemaVersion: prediction.SchemaVersion,
		Probability:   prediction.Probability,
		Record:        rec,
		CreatedAt:     prediction.CreatedAt,
	}); err != nil {
		s.logger.Error("failed to store prediction", zap.String("id", prediction.ID), zap.Error(err))
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(monitoring.PredictionEvent, prediction.ID, prediction); err != nil {
			s.logger.Warn("failed to publish prediction", zap.String("id", prediction.ID), zap.Error(err))
		}
	}
	if s.metrics != nil {
		s.metrics.ObservePrediction(time.Since(start), prediction.Probability, cached)
	}

	s.logger.Debug("prediction scored",
		zap.String("id", prediction.ID),
		zap.Float64("probability", prediction.Probability),
		zap.Bool("cached", cached),
	)
	return prediction, nil
}

func (s *Service) observeError(err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveError(ErrorKind(err))
}

// ErrorKind classifies a prediction error for metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, dataset.ErrInvalidChoice):
		return "invalid_choice"
	case errors.Is(err, ml.ErrUnknownCategory):
		return "unknown_category"
	case errors.Is(err, ml.ErrSchemaMismatch):
		return "schema_mismatch"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

// History returns the most recent stored predictions, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]db.PredictionRecord, error) {
	return s.store.RecentPredictions(ctx, limit)
}

func (s *Service) Close() error {
	return s.store.Close()
}
