package scoring

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/MikeSquared-Agency/Psyche/internal/store"
)

// ErrInvalidAnswerValue is returned when a submitted answer matches no scale item.
var ErrInvalidAnswerValue = errors.New("invalid answer value")

// valueEpsilon absorbs float noise from JSON/YAML decoding when matching answers.
const valueEpsilon = 1e-9

// Scale is the ordered set of selectable answers for one tenant.
type Scale []store.ScaleItem

// NewScale copies items and orders them by display order, then value.
func NewScale(items []store.ScaleItem) Scale {
	s := make(Scale, len(items))
	copy(s, items)
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].Order != s[j].Order {
			return s[i].Order < s[j].Order
		}
		return s[i].Value < s[j].Value
	})
	return s
}

// Max is the largest configured value. An empty scale has max 0.
func (s Scale) Max() float64 {
	var m float64
	for i, it := range s {
		if i == 0 || it.Value > m {
			m = it.Value
		}
	}
	return m
}

func (s Scale) Contains(v float64) bool {
	_, ok := s.Item(v)
	return ok
}

// Item returns the scale item whose value equals v.
func (s Scale) Item(v float64) (store.ScaleItem, bool) {
	for _, it := range s {
		if math.Abs(it.Value-v) < valueEpsilon {
			return it, true
		}
	}
	return store.ScaleItem{}, false
}

// ValidateAnswer rejects values that are not one of the configured scale values.
// Answers are never coerced to the nearest item.
func ValidateAnswer(s Scale, v float64) error {
	if !s.Contains(v) {
		return fmt.Errorf("%w: %v", ErrInvalidAnswerValue, v)
	}
	return nil
}

// Resolve maps a raw answer to its scored value.
//
//	direct:  answer
//	inverse: scaleMax - answer
//
// The result is clamped to [0, scaleMax].
func Resolve(answerValue float64, inverse bool, scaleMax float64) float64 {
	v := answerValue
	if inverse {
		v = scaleMax - answerValue
	}
	return clamp(v, 0, scaleMax)
}

// Rescore re-derives the scored value of a persisted response from its own
// snapshot, independent of the scale currently configured.
func Rescore(r store.Response) float64 {
	return Resolve(r.AnswerValue, r.IsInverse, r.ScaleMax)
}

// RoundTrips reports whether the stored scored value matches a fresh derivation.
func RoundTrips(r store.Response) bool {
	return math.Abs(Rescore(r)-r.ScoredValue) < valueEpsilon
}

// Round1 rounds half away from zero to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
