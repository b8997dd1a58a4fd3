package core

import (
	"fmt"
	"reflect"
)

// Score is the opaque result of evaluating a working solution.
// Implementations must be comparable with == so two scores of equal value are equal.
type Score interface {
	fmt.Stringer

	// IsSolutionInitialized reports whether every genuine variable was assigned
	// when the score was calculated.
	IsSolutionInitialized() bool
}

// SimpleScore is a single-level score with an initialization component.
// InitScore is 0 for a fully initialized solution and negative otherwise.
type SimpleScore struct {
	InitScore int   `json:"init_score" yaml:"init_score"`
	Score     int64 `json:"score" yaml:"score"`
}

// NewSimpleScore creates an initialized simple score.
func NewSimpleScore(score int64) SimpleScore {
	return SimpleScore{Score: score}
}

// IsSolutionInitialized implements Score.
func (s SimpleScore) IsSolutionInitialized() bool {
	return s.InitScore >= 0
}

// Add returns the sum of both scores.
func (s SimpleScore) Add(other SimpleScore) SimpleScore {
	return SimpleScore{InitScore: s.InitScore + other.InitScore, Score: s.Score + other.Score}
}

// Compare returns -1, 0 or +1. The init score dominates.
func (s SimpleScore) Compare(other SimpleScore) int {
	switch {
	case s.InitScore != other.InitScore:
		if s.InitScore < other.InitScore {
			return -1
		}
		return 1
	case s.Score < other.Score:
		return -1
	case s.Score > other.Score:
		return 1
	}
	return 0
}

// String implements fmt.Stringer.
func (s SimpleScore) String() string {
	if s.InitScore != 0 {
		return fmt.Sprintf("%dinit/%d", s.InitScore, s.Score)
	}
	return fmt.Sprintf("%d", s.Score)
}

// IsNil reports whether v is nil or a nil pointer, map, slice, func, chan or interface
// wrapped in an interface value.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// SameObject reports whether a and b denote the same object: identical pointers,
// or equal values for comparable non-pointer types. Non-comparable values are never the same.
func SameObject(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !IsComparable(a) || !IsComparable(b) {
		return false
	}
	return a == b
}

// IsComparable reports whether v can key a map. Unlike a check on its type, it
// looks at the dynamic values held in interface fields.
func IsComparable(v any) bool {
	return v != nil && reflect.ValueOf(v).Comparable()
}
