package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/forecast"
	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const (
	trainingLockKey = "analytics:train"
	rollingWindow   = 3
	maxWindowHours  = 168
)

// demandModel is a fitted predictor plus the per-category demand history needed to
// build the rolling feature at prediction time.
type demandModel struct {
	model     forecast.Model
	recent    map[model.Category][]float64
	trainedAt time.Time
	samples   int
	orders    int
}

type persistedModel struct {
	Model     json.RawMessage              `json:"model"`
	Recent    map[model.Category][]float64 `json:"recent"`
	TrainedAt time.Time                    `json:"trained_at"`
	Samples   int                          `json:"samples"`
	Orders    int                          `json:"orders"`
}

type bucketKey struct {
	day      time.Time
	hour     int
	category model.Category
}

// featureVector encodes (category, hour of day, day of week, month, rolling demand).
func featureVector(c model.Category, at time.Time, rolling float64) []float64 {
	return []float64{
		float64(c.Index()),
		float64(at.Hour()),
		float64(at.Weekday()),
		float64(at.Month()),
		rolling,
	}
}

// buildSamples turns completed sales into one sample per (date, hour, category) bucket
// with quantity sold as the target. It also returns the last buckets per category.
func buildSamples(orders []saleOrder) ([]forecast.Sample, map[model.Category][]float64) {
	quantities := make(map[bucketKey]int)
	for _, o := range orders {
		key := bucketKey{day: startOfDay(o.CreatedAt), hour: o.CreatedAt.Hour()}
		for _, l := range o.Lines {
			key.category = l.Category
			quantities[key] += l.Quantity
		}
	}

	perCategory := make(map[model.Category][]bucketKey)
	for key := range quantities {
		perCategory[key.category] = append(perCategory[key.category], key)
	}

	var samples []forecast.Sample
	recent := make(map[model.Category][]float64)
	for _, c := range model.Categories {
		keys := perCategory[c]
		sort.Slice(keys, func(i, j int) bool {
			if !keys[i].day.Equal(keys[j].day) {
				return keys[i].day.Before(keys[j].day)
			}
			return keys[i].hour < keys[j].hour
		})

		var history []float64
		for _, key := range keys {
			at := key.day.Add(time.Duration(key.hour) * time.Hour)
			qty := float64(quantities[key])
			samples = append(samples, forecast.Sample{
				Features: featureVector(c, at, rollingMean(history)),
				Target:   qty,
			})
			history = append(history, qty)
		}
		recent[c] = tail(history, rollingWindow)
	}
	return samples, recent
}

func rollingMean(history []float64) float64 {
	return mean(tail(history, rollingWindow))
}

func tail(xs []float64, n int) []float64 {
	if len(xs) > n {
		xs = xs[len(xs)-n:]
	}
	out := make([]float64, len(xs))
	copy(out, xs)
	return out
}

func (uc *analyticsUseCase) TrainDemandModel(ctx context.Context) (report *dto.TrainingReport, err error) {
	ctx, end := uc.startSpan(ctx, "analytics.train")
	defer func() { end(err) }()

	unlock, err := uc.locker.Lock(ctx, trainingLockKey)
	if err != nil {
		return nil, apperror.Internal(err, "acquire training lock")
	}
	defer unlock()

	var (
		count int
		lines []dto.SaleLine
	)
	err = uc.txm.WithSnapshot(ctx, func(ctx context.Context) error {
		var err error
		if count, err = uc.repo.CountCompleted(ctx); err != nil {
			return apperror.Internal(err, "count completed orders")
		}
		if count < uc.cfg.MinTrainingOrders {
			return apperror.New(apperror.KindInsufficientData,
				"need at least %d completed orders to train, have %d", uc.cfg.MinTrainingOrders, count)
		}
		if lines, err = uc.repo.CompletedSales(ctx); err != nil {
			return apperror.Internal(err, "read completed sales")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	samples, recent := buildSamples(groupOrders(lines, uc.loc))
	fitted, err := uc.trainer.Fit(samples)
	if err != nil {
		return nil, apperror.Internal(err, "fit demand model")
	}

	trained := &demandModel{
		model:     fitted,
		recent:    recent,
		trainedAt: uc.now().UTC(),
		samples:   len(samples),
		orders:    count,
	}
	if uc.cfg.ModelPath != "" {
		if err := uc.save(trained); err != nil {
			uc.logger.Warn("failed to persist demand model", zap.String("path", uc.cfg.ModelPath), zap.Error(err))
		}
	}

	uc.mu.Lock()
	uc.current = trained
	uc.mu.Unlock()

	report = &dto.TrainingReport{
		Orders:    count,
		Samples:   len(samples),
		TrainMAE:  round2(forecast.MeanAbsoluteError(fitted, samples)),
		TrainedAt: trained.trainedAt,
	}
	uc.logger.Info("demand model trained",
		zap.Int("orders", report.Orders),
		zap.Int("samples", report.Samples),
		zap.Float64("train_mae", report.TrainMAE),
	)
	return report, nil
}

func (uc *analyticsUseCase) PredictDemand(ctx context.Context, category model.Category, window dto.PredictionWindow) (p *dto.Prediction, err error) {
	_, end := uc.startSpan(ctx, "analytics.predict", attribute.String("category", string(category)))
	defer func() { end(err) }()

	if !category.Valid() {
		return nil, apperror.New(apperror.KindValidation, "unknown category %q", category)
	}
	if window.Hours == 0 {
		window.Hours = 1
	}
	if window.Hours < 0 || window.Hours > maxWindowHours {
		return nil, apperror.New(apperror.KindValidation, "hours must be between 1 and %d", maxWindowHours)
	}
	if window.Start.IsZero() {
		window.Start = uc.now()
	}

	uc.mu.RLock()
	current := uc.current
	uc.mu.RUnlock()
	if current == nil {
		return nil, apperror.New(apperror.KindModelNotTrained, "demand model has not been trained")
	}

	rolling := mean(current.recent[category])
	start := window.Start.In(uc.loc).Truncate(time.Hour)
	var total float64
	for h := 0; h < window.Hours; h++ {
		at := start.Add(time.Duration(h) * time.Hour)
		total += math.Max(0, current.model.Predict(featureVector(category, at, rolling)))
	}

	return &dto.Prediction{
		Category: category,
		Start:    start,
		Hours:    window.Hours,
		Quantity: int(math.Round(total)),
	}, nil
}

func (uc *analyticsUseCase) Recommendations(ctx context.Context, at time.Time) ([]dto.Recommendation, error) {
	recs := make([]dto.Recommendation, 0, len(model.Categories))
	for _, c := range model.Categories {
		p, err := uc.PredictDemand(ctx, c, dto.PredictionWindow{Start: at, Hours: 1})
		if err != nil {
			return nil, err
		}
		recs = append(recs, dto.Recommendation{
			Category:        c,
			PredictedDemand: p.Quantity,
			SuggestedStock:  p.Quantity * 2,
		})
	}
	return recs, nil
}

func (uc *analyticsUseCase) LoadModel(ctx context.Context) error {
	if uc.cfg.ModelPath == "" {
		return nil
	}
	data, err := os.ReadFile(uc.cfg.ModelPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read demand model: %w", err)
	}

	var stored persistedModel
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("decode demand model: %w", err)
	}
	fitted, err := forecast.Unmarshal(stored.Model)
	if err != nil {
		return err
	}

	uc.mu.Lock()
	uc.current = &demandModel{
		model:     fitted,
		recent:    stored.Recent,
		trainedAt: stored.TrainedAt,
		samples:   stored.Samples,
		orders:    stored.Orders,
	}
	uc.mu.Unlock()

	uc.logger.Info("demand model loaded",
		zap.String("path", uc.cfg.ModelPath),
		zap.Time("trained_at", stored.TrainedAt),
	)
	return nil
}

// save writes the model next to its destination and renames it into place.
func (uc *analyticsUseCase) save(m *demandModel) error {
	encoded, err := forecast.Marshal(m.model)
	if err != nil {
		return err
	}
	data, err := json.Marshal(persistedModel{
		Model:     encoded,
		Recent:    m.recent,
		TrainedAt: m.trainedAt,
		Samples:   m.samples,
		Orders:    m.orders,
	})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(uc.cfg.ModelPath), ".demand-model-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), uc.cfg.ModelPath)
}
