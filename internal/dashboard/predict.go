package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/couchcryptid/energy-analytics-service/internal/domain"
)

// PredictionDefaults seeds the prediction form. Suggested is nil for an
// empty dataset.
type PredictionDefaults struct {
	Defaults  domain.PredictionInput `json:"defaults"`
	Suggested *domain.CovariateMeans `json:"suggested"`
	Entities  []int                  `json:"entities"`
	MinYear   int                    `json:"min_year"`
	MaxYear   int                    `json:"max_year"`
}

// PredictionDefaults returns the initial form values and the dataset means
// of every covariate.
func (s *Service) PredictionDefaults() (PredictionDefaults, error) {
	snap, err := s.current()
	if err != nil {
		return PredictionDefaults{}, err
	}
	return view(s, snap, "prediction_defaults", "", func() PredictionDefaults {
		d := PredictionDefaults{
			Defaults: domain.DefaultPredictionInput(),
			Entities: snap.entities,
			MinYear:  domain.MinPredictionYear,
			MaxYear:  domain.MaxPredictionYear,
		}
		if means, ok := domain.SuggestCovariates(snap.assets.Rows); ok {
			d.Suggested = &means
		}
		return d
	}), nil
}

// Predict validates in against the loaded entities, scores it remotely and
// records the result. Validation failures never reach the model. A failed
// event publish is logged and does not fail the prediction.
func (s *Service) Predict(ctx context.Context, in domain.PredictionInput) (domain.PredictionRecord, error) {
	if s.predictor == nil {
		return domain.PredictionRecord{}, ErrPredictionDisabled
	}
	snap, err := s.current()
	if err != nil {
		return domain.PredictionRecord{}, err
	}

	if err := in.Validate(snap.entities); err != nil {
		s.metrics.Predictions.WithLabelValues("invalid").Inc()
		return domain.PredictionRecord{}, err
	}

	start := time.Now()
	res, err := s.predictor.Predict(ctx, in)
	s.metrics.PredictionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.Predictions.WithLabelValues("error").Inc()
		s.logger.Warn("prediction failed", "entity_id", in.EntityID, "error", err)
		return domain.PredictionRecord{}, err
	}
	s.metrics.Predictions.WithLabelValues("success").Inc()

	rec := domain.NewPredictionRecord(in, res)
	s.history.add(rec)
	s.logger.Info("prediction completed",
		"id", rec.ID,
		"entity_id", in.EntityID,
		"year", in.Year,
		"month", in.Month,
		"prediction", rec.Prediction,
	)

	s.publish(ctx, rec)
	return rec, nil
}

func (s *Service) publish(ctx context.Context, rec domain.PredictionRecord) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishPrediction(ctx, rec); err != nil {
		s.metrics.EventsPublished.WithLabelValues("error").Inc()
		s.logger.Error("publish prediction event", "id", rec.ID, "error", err)
		return
	}
	s.metrics.EventsPublished.WithLabelValues("success").Inc()
}

// History returns the most recent predictions, newest first.
func (s *Service) History() []domain.PredictionRecord {
	return s.history.list()
}

// IsValidation reports whether err is a prediction input validation failure.
func IsValidation(err error) bool {
	var ve *domain.ValidationError
	return errors.As(err, &ve)
}
