package engine

import (
	"math"
	"sync"
	"time"

	"networkinfo/internal/models"
)

const (
	initialStability  = 0.8
	stabilityPenalty  = 0.3
	stabilityReward   = 0.1
	stableThreshold   = 0.7
	unstableThreshold = 0.4
)

type Intervals struct {
	Base time.Duration
	Fast time.Duration
	Min  time.Duration
	// Tolerance is the smallest interval change worth reprogramming the
	// refresh timer for.
	Tolerance time.Duration
}

func DefaultIntervals() Intervals {
	return Intervals{
		Base:      120 * time.Second,
		Fast:      30 * time.Second,
		Min:       15 * time.Second,
		Tolerance: 5 * time.Second,
	}
}

// For maps a stability score to a refresh interval.
func (iv Intervals) For(score float64) time.Duration {
	switch {
	case score > stableThreshold:
		return iv.Base
	case score > unstableThreshold:
		return iv.Fast
	default:
		return iv.Min
	}
}

// ShouldReschedule reports whether target differs from current by more than
// the tolerance.
func (iv Intervals) ShouldReschedule(current, target time.Duration) bool {
	diff := current - target
	if diff < 0 {
		diff = -diff
	}
	return diff > iv.Tolerance
}

// Stability scores how steady the network path has been. The first
// observation sets the score to 0.8; afterwards every change of status,
// expensive or constrained costs 0.3 and every unchanged observation earns
// 0.1, within [0, 1].
type Stability struct {
	mu          sync.Mutex
	score       float64
	initialized bool
	last        models.PathStatus
}

func (s *Stability) Observe(p models.PathStatus) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		s.initialized = true
		s.score = initialStability
		s.last = p
		return s.score
	}

	if p.SameShape(s.last) {
		s.score = math.Min(1, s.score+stabilityReward)
	} else {
		s.score = math.Max(0, s.score-stabilityPenalty)
	}
	s.score = math.Round(s.score*100) / 100
	s.last = p
	return s.score
}

func (s *Stability) Score() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score, s.initialized
}
