// Package focus implements the windowed activity analyzer that converts
// interaction samples into a 0.0-1.0 focus score.
//
// Scoring is deliberately coarse: each component maps a ratio against a
// personal baseline onto a small set of discrete levels rather than a
// continuous curve, producing explainable focus bands. The weights and
// bucket thresholds are behavioral constants; changing them changes when
// alerts fire.
package focus

import (
	"math"

	"go_backend/input"
)

const (
	// NeutralScore is returned until enough samples exist to score.
	NeutralScore = 0.8

	// ScoreWindow is how many recent samples one score is computed from.
	ScoreWindow = 5

	// Component weights.
	typingWeight   = 0.4
	mouseWeight    = 0.3
	activityWeight = 0.3

	// The mouse variance gate. Units are accumulated pointer distance;
	// the calibration of this constant is inherited and kept as-is.
	mouseVarianceGate = 10.0
)

// Analyzer maintains the rolling sample history and per-user baselines.
// It is owned by the evaluation loop and is not safe for concurrent use.
type Analyzer struct {
	history        []input.Sample
	capacity       int
	calibrateAfter int

	typingBaseline float64
	mouseBaseline  float64
	calibrated     bool
}

// NewAnalyzer creates an analyzer holding at most capacity samples, with
// baselines calibrated once the history first exceeds calibrateAfter.
// Non-positive arguments fall back to 60 and 10.
func NewAnalyzer(capacity, calibrateAfter int) *Analyzer {
	if capacity <= 0 {
		capacity = 60
	}
	if calibrateAfter <= 0 {
		calibrateAfter = 10
	}
	return &Analyzer{
		history:        make([]input.Sample, 0, capacity),
		capacity:       capacity,
		calibrateAfter: calibrateAfter,
	}
}

// AddSample appends a sample, evicting the oldest beyond capacity. The
// first time the history length exceeds the calibration count, baselines
// are fixed as the mean keystrokes and mean mouse distance over the
// entire history collected so far. Calibration happens exactly once; the
// baselines never adapt afterwards.
func (a *Analyzer) AddSample(s input.Sample) {
	a.history = append(a.history, s)
	if len(a.history) > a.capacity {
		a.history = a.history[1:]
	}

	if !a.calibrated && len(a.history) > a.calibrateAfter {
		keystrokes := make([]float64, len(a.history))
		distances := make([]float64, len(a.history))
		for i, h := range a.history {
			keystrokes[i] = float64(h.KeystrokeCount)
			distances[i] = h.MouseMovementDistance
		}
		a.typingBaseline = mean(keystrokes)
		a.mouseBaseline = mean(distances)
		a.calibrated = true
	}
}

// SampleCount returns the current history length.
func (a *Analyzer) SampleCount() int { return len(a.history) }

// Calibrated reports whether baselines have been established.
func (a *Analyzer) Calibrated() bool { return a.calibrated }

// Baselines returns the typing and mouse baselines; ok is false before
// calibration.
func (a *Analyzer) Baselines() (typing, mouse float64, ok bool) {
	return a.typingBaseline, a.mouseBaseline, a.calibrated
}

// Score computes the focus score over the most recent samples. With
// fewer than ScoreWindow samples it returns the neutral default. The
// result is always within [0, 1] and deterministic for a given history.
func (a *Analyzer) Score() float64 {
	if len(a.history) < ScoreWindow {
		return NeutralScore
	}

	recent := a.history[len(a.history)-ScoreWindow:]
	score := typingWeight*a.typingScore(recent) +
		mouseWeight*a.mouseScore(recent) +
		activityWeight*a.activityScore(recent)

	return math.Max(0.0, math.Min(1.0, score))
}

// typingScore compares the recent typing rate to the baseline.
func (a *Analyzer) typingScore(recent []input.Sample) float64 {
	if !a.calibrated || a.typingBaseline == 0 {
		return 0.5
	}
	keystrokes := make([]float64, len(recent))
	for i, s := range recent {
		keystrokes[i] = float64(s.KeystrokeCount)
	}
	ratio := mean(keystrokes) / a.typingBaseline
	switch {
	case ratio > 0.8:
		return 0.9
	case ratio > 0.5:
		return 0.7
	case ratio > 0.2:
		return 0.4
	default:
		return 0.2
	}
}

// mouseScore compares recent movement to the baseline and requires some
// spread in the window before granting the top band: steady-rate motion
// with no variance reads as passive scrolling rather than engagement.
func (a *Analyzer) mouseScore(recent []input.Sample) float64 {
	if !a.calibrated || a.mouseBaseline == 0 {
		return 0.5
	}
	distances := make([]float64, len(recent))
	for i, s := range recent {
		distances[i] = s.MouseMovementDistance
	}
	ratio := mean(distances) / a.mouseBaseline
	variance := sampleStdDev(distances)
	switch {
	case ratio > 0.7 && variance > mouseVarianceGate:
		return 0.8
	case ratio > 0.3:
		return 0.5
	default:
		return 0.3
	}
}

// activityScore buckets the mean idle time of the window.
func (a *Analyzer) activityScore(recent []input.Sample) float64 {
	idle := make([]float64, len(recent))
	for i, s := range recent {
		idle[i] = s.IdleTime
	}
	switch avg := mean(idle); {
	case avg < 2.0:
		return 0.9
	case avg < 5.0:
		return 0.6
	case avg < 10.0:
		return 0.3
	default:
		return 0.1
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev is the n-1 standard deviation, 0 for fewer than 2 values.
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	sum := 0.0
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
