package covsim

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
)

// bowl scores a design by its distance to a fixed optimum, unreached beyond some distance.
type bowl struct {
	calls   int
	failAt  int
	optimum float64
}

func (b *bowl) Evaluate(d Design) (float64, error) {
	b.calls++
	if b.failAt > 0 && b.calls >= b.failAt {
		return Unreached, errors.New("boom")
	}
	cost := math.Abs(d.Inclination - b.optimum)
	for i := range d.RAAN {
		cost += math.Abs(math.Sin(d.RAAN[i])) + math.Abs(math.Sin(d.Phase[i]))
	}
	if cost > 5 {
		return Unreached, nil
	}
	return cost, nil
}

type recorder struct {
	commits []Design
}

func (r *recorder) Commit(d Design) {
	r.commits = append(r.commits, d)
}

func testAnnealer(conf AnnealingConfig, scorer Scorer, committer Committer, seed int64) *Annealer {
	return NewAnnealer(conf, testDesign(), math.Pi/2, scorer, committer, rand.New(rand.NewSource(seed)), nil, nil)
}

func TestAnnealerZeroIterations(t *testing.T) {
	rec := &recorder{}
	conf := DefaultAnnealingConfig()
	conf.MaxIterations = 0
	a := testAnnealer(conf, &bowl{optimum: 1}, rec, 1)
	if a.State() != AnnealIdle {
		t.Fatalf("new annealer is %s", a.State())
	}
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	if a.State() != AnnealConverged {
		t.Fatalf("expected converged, got %s", a.State())
	}
	if !a.Best().Equals(testDesign()) {
		t.Fatalf("best %s differs from the initial design", a.Best())
	}
	if len(rec.commits) != 1 || !rec.commits[0].Equals(testDesign()) {
		t.Fatalf("expected the initial design to be committed once, got %v", rec.commits)
	}
	if more, err := a.Step(); more || err != nil {
		t.Fatal("a converged annealer must not step")
	}
	if err := a.Start(); !errors.Is(err, ErrAnnealerState) {
		t.Fatalf("expected ErrAnnealerState, got %v", err)
	}
}

func TestAnnealerBestNonIncreasing(t *testing.T) {
	for seed := int64(1); seed <= 5; seed++ {
		rec := &recorder{}
		conf := DefaultAnnealingConfig()
		conf.MaxIterations = 300
		a := testAnnealer(conf, &bowl{optimum: 0.3}, rec, seed)
		if err := a.Start(); err != nil {
			t.Fatal(err)
		}
		prev := a.BestCost()
		for {
			more, err := a.Step()
			if err != nil {
				t.Fatal(err)
			}
			if a.BestCost() > prev {
				t.Fatalf("seed %d: best cost regressed from %f to %f", seed, prev, a.BestCost())
			}
			prev = a.BestCost()
			if !more {
				break
			}
		}
		if a.State() != AnnealConverged {
			t.Fatalf("seed %d: expected converged, got %s", seed, a.State())
		}
		if len(rec.commits) != 1 || !rec.commits[0].Equals(a.Best()) {
			t.Fatalf("seed %d: best design not committed", seed)
		}
		for i, h := range a.History() {
			if h.Best > h.Cost && h.Cost < Unreached {
				t.Fatalf("seed %d: iteration %d best %f above candidate %f", seed, i, h.Best, h.Cost)
			}
		}
		d := a.Best()
		if d.Inclination < 0 || d.Inclination > math.Pi/2 {
			t.Fatalf("seed %d: inclination %f out of bounds", seed, d.Inclination)
		}
		for i := range d.RAAN {
			if d.RAAN[i] < 0 || d.RAAN[i] >= twoπ || d.Phase[i] < 0 || d.Phase[i] >= twoπ {
				t.Fatalf("seed %d: angles not wrapped: %s", seed, d)
			}
		}
		if !a.Feasible() {
			t.Fatalf("seed %d: no feasible design found", seed)
		}
	}
}

func TestAnnealerTermination(t *testing.T) {
	conf := AnnealingConfig{InitialTemperature: 100, CoolingRate: 0.5, MinTemperature: 1, MaxIterations: 1000}
	a := testAnnealer(conf, &bowl{optimum: 1}, nil, 1)
	if err := a.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	// 100 * 0.5^7 < 1
	if a.State() != AnnealConverged || a.Iteration() != 7 {
		t.Fatalf("expected convergence after 7 iterations, got %s after %d", a.State(), a.Iteration())
	}
	if a.Temperature() > conf.MinTemperature {
		t.Fatalf("temperature %f above the minimum", a.Temperature())
	}
}

func TestAnnealerCancel(t *testing.T) {
	rec := &recorder{}
	a := testAnnealer(DefaultAnnealingConfig(), &bowl{optimum: 1}, rec, 1)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		if _, err := a.Step(); err != nil {
			t.Fatal(err)
		}
	}
	a.Cancel()
	if a.State() != AnnealRunning {
		t.Fatal("cancellation must wait for the next iteration")
	}
	if more, err := a.Step(); more || err != nil || a.State() != AnnealCancelled {
		t.Fatalf("expected cancelled, got %s (%v)", a.State(), err)
	}
	if a.Iteration() != 5 || len(rec.commits) != 1 {
		t.Fatalf("cancelled run: %d iterations, %d commits", a.Iteration(), len(rec.commits))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := testAnnealer(DefaultAnnealingConfig(), &bowl{optimum: 1}, nil, 1)
	if err := b.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if b.State() != AnnealCancelled || b.Iteration() != 0 {
		t.Fatalf("expected immediate cancellation, got %s after %d", b.State(), b.Iteration())
	}
}

func TestAnnealerFailure(t *testing.T) {
	rec := &recorder{}
	a := testAnnealer(DefaultAnnealingConfig(), &bowl{optimum: 0.3, failAt: 10}, rec, 3)
	err := a.Run(context.Background())
	if err == nil || a.State() != AnnealFailed {
		t.Fatalf("expected a failure, got %s (%v)", a.State(), err)
	}
	if len(rec.commits) != 0 {
		t.Fatal("a failed run must not commit")
	}
	if a.Iteration() < 8 || a.BestCost() >= Unreached {
		t.Fatalf("best design lost: %d iterations, best %f", a.Iteration(), a.BestCost())
	}
	if more, err2 := a.Step(); more || err2 == nil {
		t.Fatal("a failed annealer must keep reporting its error")
	}
	if !a.State().Done() {
		t.Fatal("failed is a terminal state")
	}
}

func TestAnnealerUnchangedCandidate(t *testing.T) {
	b := &bowl{}
	// No inclination move survives the clamp to [0, 0].
	a := NewAnnealer(DefaultAnnealingConfig(), Design{Inclination: 0, RAAN: []float64{0}, Phase: []float64{0}}, 0, b, nil, rand.New(rand.NewSource(4)), nil, nil)
	if err := a.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if a.State() != AnnealConverged || len(a.History()) != a.Iteration() {
		t.Fatalf("%s after %d iterations and %d samples", a.State(), a.Iteration(), len(a.History()))
	}
	if b.calls <= 1 || b.calls > a.Iteration() {
		t.Fatalf("%d evaluations for %d iterations", b.calls, a.Iteration())
	}
	if a.Best().Inclination != 0 {
		t.Fatalf("inclination moved to %f", a.Best().Inclination)
	}
}

func TestAnnealerProgress(t *testing.T) {
	a := testAnnealer(DefaultAnnealingConfig(), &bowl{optimum: 0.3}, nil, 2)
	if err := a.Start(); err != nil {
		t.Fatal(err)
	}
	initial := a.BestCost()
	for i := 0; i < 50; i++ {
		a.Step()
	}
	p := a.Progress()
	if p.Iteration != 50 || p.MaxIterations != 500 || p.State != AnnealRunning {
		t.Fatalf("unexpected progress %s", p)
	}
	if exp := (initial - a.BestCost()) / initial * 100; math.Abs(p.Improvement-exp) > 1e-9 {
		t.Fatalf("improvement %f expected %f", p.Improvement, exp)
	}
}

func TestAnnealingConfigClamp(t *testing.T) {
	c := AnnealingConfig{InitialTemperature: 5, CoolingRate: 1.5, MinTemperature: -1, MaxIterations: 0}.Clamp()
	if c.InitialTemperature != 100 || c.CoolingRate != 0.999 || c.MinTemperature != 0.1 || c.MaxIterations != 100 {
		t.Fatalf("unexpected clamp %+v", c)
	}
	if c := (AnnealingConfig{MaxIterations: 5000}).Clamp(); c.MaxIterations != 2000 {
		t.Fatalf("unexpected clamp %+v", c)
	}
}

func TestSimulatorOptimize(t *testing.T) {
	sim := testSimulator()
	set := DefaultSettings()
	set.TargetCoverage = 10
	sim.Tick(set)
	conf := DefaultAnnealingConfig()
	conf.MaxIterations = 3
	a, err := sim.Optimize(context.Background(), conf)
	if err != nil {
		t.Fatal(err)
	}
	if a.State() != AnnealConverged || !sim.Design().Equals(a.Best()) {
		t.Fatalf("best design %s not committed (live %s)", a.Best(), sim.Design())
	}
	if sim.Time != 0 || sim.State() != Running {
		t.Fatal("commit must reset the simulation and resume it")
	}
}
