// Package forecast holds the demand predictor. Any regression technique that can fit
// (features, quantity) pairs and estimate quantities for unseen feature tuples plugs in
// through Trainer and Model.
package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

var ErrNoSamples = errors.New("forecast: no training samples")

type Sample struct {
	Features []float64 `json:"features"`
	Target   float64   `json:"target"`
}

type Model interface {
	Predict(features []float64) float64
}

type Trainer interface {
	Fit(samples []Sample) (Model, error)
}

func checkSamples(samples []Sample) (int, error) {
	if len(samples) == 0 {
		return 0, ErrNoSamples
	}
	width := len(samples[0].Features)
	for i, s := range samples {
		if len(s.Features) != width {
			return 0, fmt.Errorf("forecast: sample %d has %d features, want %d", i, len(s.Features), width)
		}
	}
	return width, nil
}

// MeanTrainer fits a constant model predicting the mean target.
type MeanTrainer struct{}

type MeanModel struct {
	Mean float64 `json:"mean"`
}

func (MeanTrainer) Fit(samples []Sample) (Model, error) {
	if _, err := checkSamples(samples); err != nil {
		return nil, err
	}
	var sum float64
	for _, s := range samples {
		sum += s.Target
	}
	return &MeanModel{Mean: sum / float64(len(samples))}, nil
}

func (m *MeanModel) Predict([]float64) float64 {
	return m.Mean
}

// MeanAbsoluteError scores m against held-out samples.
func MeanAbsoluteError(m Model, samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var total float64
	for _, s := range samples {
		total += math.Abs(m.Predict(s.Features) - s.Target)
	}
	return total / float64(len(samples))
}

type envelope struct {
	Kind   string     `json:"kind"`
	Forest *Forest    `json:"forest,omitempty"`
	Mean   *MeanModel `json:"mean,omitempty"`
}

// Marshal encodes the models this package knows how to restore.
func Marshal(m Model) ([]byte, error) {
	switch v := m.(type) {
	case *Forest:
		return json.Marshal(envelope{Kind: "forest", Forest: v})
	case *MeanModel:
		return json.Marshal(envelope{Kind: "mean", Mean: v})
	}
	return nil, fmt.Errorf("forecast: cannot encode model of type %T", m)
}

func Unmarshal(data []byte) (Model, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("forecast: decode model: %w", err)
	}
	switch {
	case env.Kind == "forest" && env.Forest != nil:
		return env.Forest, nil
	case env.Kind == "mean" && env.Mean != nil:
		return env.Mean, nil
	}
	return nil, fmt.Errorf("forecast: unknown model kind %q", env.Kind)
}
