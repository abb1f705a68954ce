package covsim

import (
	"errors"
	"math"
	"testing"

	"github.com/gonum/floats"
)

func testEvaluator(target float64) *Evaluator {
	set := DefaultSettings()
	set.TargetCoverage = target
	return NewEvaluator(Earth, set, 360, 180, DefaultEvaluatorStep, nil, nil)
}

func testDesign() Design {
	return Design{Inclination: 45 * deg2rad, RAAN: []float64{0, 2, 4}, Phase: []float64{0, 1, 2}}
}

func TestEvaluatorDeterministic(t *testing.T) {
	e := testEvaluator(20)
	first, err := e.Evaluate(testDesign())
	if err != nil {
		t.Fatal(err)
	}
	if first <= 0 || first >= Unreached {
		t.Fatalf("20%% should be reached, got %f days", first)
	}
	if k := first * secondsPerDay / DefaultEvaluatorStep; !floats.EqualWithinAbs(k, math.Round(k), 1e-6) {
		t.Fatalf("%f days is not a whole number of steps", first)
	}
	for i := 0; i < 3; i++ {
		again, err := e.Evaluate(testDesign())
		if err != nil || again != first {
			t.Fatalf("evaluation #%d returned %f (%v) instead of %f", i+2, again, err, first)
		}
	}
	if other, _ := testEvaluator(20).Evaluate(testDesign()); other != first {
		t.Fatalf("another evaluator returned %f instead of %f", other, first)
	}
}

func TestEvaluatorBounds(t *testing.T) {
	if days, err := testEvaluator(0).Evaluate(testDesign()); err != nil || days != 0 {
		t.Fatalf("target 0 should be reached at once: %f (%v)", days, err)
	}
	// A 45° inclination never sees beyond ~58° of latitude, which caps the coverage of the
	// ±80° band well below 90%.
	if days, err := testEvaluator(90).Evaluate(testDesign()); err != nil || days != Unreached {
		t.Fatalf("target 90 should be unreached: %f (%v)", days, err)
	}
	e := testEvaluator(20)
	e.Step = 250
	fine, err := e.Evaluate(testDesign())
	if err != nil || fine >= Unreached {
		t.Fatalf("finer step: %f (%v)", fine, err)
	}
}

func TestEvaluatorErrors(t *testing.T) {
	e := testEvaluator(50)
	for _, d := range []Design{
		{},
		{Inclination: 0.5, RAAN: []float64{0, 1}, Phase: []float64{0}},
		{Inclination: -1, RAAN: []float64{0}, Phase: []float64{0}},
		{Inclination: 0.5, RAAN: []float64{math.NaN()}, Phase: []float64{0}},
		{Inclination: 0.5, RAAN: make([]float64, 11), Phase: make([]float64, 11)},
	} {
		if days, err := e.Evaluate(d); !errors.Is(err, ErrInvalidDesign) || days != Unreached {
			t.Fatalf("%v: expected ErrInvalidDesign, got %f (%v)", d, days, err)
		}
	}
	empty := NewEvaluator(Earth, DefaultSettings(), 0, 0, 0, nil, nil)
	if empty.Step != DefaultEvaluatorStep {
		t.Fatalf("default step not applied: %f", empty.Step)
	}
	if _, err := empty.Evaluate(testDesign()); !errors.Is(err, ErrEvaluation) {
		t.Fatalf("expected ErrEvaluation, got %v", err)
	}
}
