package stats

import (
	"math"
	"slices"
	"testing"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
)

const eps = 1e-9

func approx(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func TestPercentileEmpty(t *testing.T) {
	for _, p := range []float64{0, 25, 50, 99, 100} {
		if got := Percentile(nil, p); got != 0 {
			t.Errorf("Percentile(nil, %v) = %v, want 0", p, got)
		}
		if got := Percentile([]float64{}, p); got != 0 {
			t.Errorf("Percentile([], %v) = %v, want 0", p, got)
		}
	}
}

func TestPercentileSingleValue(t *testing.T) {
	for _, p := range []float64{0, 1, 50, 95, 100} {
		if got := Percentile([]float64{42.5}, p); got != 42.5 {
			t.Errorf("Percentile([42.5], %v) = %v, want 42.5", p, got)
		}
	}
}

func TestPercentileMedian(t *testing.T) {
	got := Percentile([]float64{10, 20, 30, 40, 50}, 50)
	if got != 30 {
		t.Errorf("expected 30, got %v", got)
	}
}

func TestPercentileInterpolates(t *testing.T) {
	// index = 0.95 * 4 = 3.8 -> 40 + (50-40)*0.8
	got := Percentile([]float64{50, 10, 40, 20, 30}, 95)
	if !approx(got, 48) {
		t.Errorf("expected 48, got %v", got)
	}
	if got := Percentile([]float64{1, 2}, 25); !approx(got, 1.25) {
		t.Errorf("expected 1.25, got %v", got)
	}
}

func TestPercentileDoesNotMutateInput(t *testing.T) {
	in := []float64{5, 3, 9, 1}
	orig := slices.Clone(in)
	_ = Percentile(in, 75)
	if !slices.Equal(in, orig) {
		t.Errorf("input mutated: %v, want %v", in, orig)
	}
}

func TestPercentileMonotonic(t *testing.T) {
	in := []float64{12, 7, 150, 33, 33, 2, 99, 64}
	prev := math.Inf(-1)
	for p := 0.0; p <= 100; p += 0.5 {
		got := Percentile(in, p)
		if got < prev {
			t.Fatalf("percentile decreased at p=%v: %v < %v", p, got, prev)
		}
		prev = got
	}
}

func TestPercentileClampsP(t *testing.T) {
	in := []float64{1, 2, 3}
	if got := Percentile(in, -10); got != 1 {
		t.Errorf("expected min for p<0, got %v", got)
	}
	if got := Percentile(in, 150); got != 3 {
		t.Errorf("expected max for p>100, got %v", got)
	}
}

func TestPercentileNaNTreatedAsZero(t *testing.T) {
	if got := Percentile([]float64{3, 1, 2}, math.NaN()); got != 1 {
		t.Errorf("Percentile(NaN) = %v, want minimum 1", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4, 5}, 3)
	want := []float64{1, 1.5, 2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMovingAverageSingle(t *testing.T) {
	got := MovingAverage([]float64{5}, 3)
	if len(got) != 1 || got[0] != 5 {
		t.Errorf("expected [5], got %v", got)
	}
}

func TestMovingAverageEmptyAndBadWindow(t *testing.T) {
	if got := MovingAverage(nil, 3); len(got) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
	in := []float64{4, 8}
	got := MovingAverage(in, 0)
	if !slices.Equal(got, in) {
		t.Errorf("window 0 should behave as 1, got %v", got)
	}
}

func TestMovingAverageWindowLargerThanInput(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6}, 10)
	want := []float64{2, 3, 4}
	for i := range want {
		if !approx(got[i], want[i]) {
			t.Errorf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := Aggregate(nil)
	if got != (Aggregates{}) {
		t.Errorf("expected zero aggregates, got %+v", got)
	}
	for _, v := range []float64{got.AvgResponseTime, got.P50, got.P95, got.P99, got.SuccessRate} {
		if math.IsNaN(v) {
			t.Fatal("NaN in empty aggregates")
		}
	}
}

func TestAggregateSuccessRate(t *testing.T) {
	samples := []domain.PerformanceSample{
		{Timestamp: 1, Agent: "zumbi", ResponseTime: 100, Success: true},
		{Timestamp: 2, Agent: "anita", ResponseTime: 200, Success: true},
		{Timestamp: 3, Agent: "zumbi", ResponseTime: 300, Success: false},
		{Timestamp: 4, Agent: "nana", ResponseTime: 400, Success: true},
	}

	got := Aggregate(samples)
	if got.SuccessRate != 0.75 {
		t.Errorf("expected success rate 0.75, got %v", got.SuccessRate)
	}
	if got.TotalRequests != 4 {
		t.Errorf("expected 4 requests, got %d", got.TotalRequests)
	}
	if !approx(got.AvgResponseTime, 250) {
		t.Errorf("expected avg 250, got %v", got.AvgResponseTime)
	}
	if !approx(got.P50, 250) {
		t.Errorf("expected p50 250, got %v", got.P50)
	}
	if got.P95 < got.P50 || got.P99 < got.P95 {
		t.Errorf("percentiles not ordered: %+v", got)
	}
}

func TestTail(t *testing.T) {
	samples := make([]domain.PerformanceSample, 50)
	for i := range samples {
		samples[i].Timestamp = int64(i)
	}

	tail := Tail(samples, 20)
	if len(tail) != 20 {
		t.Fatalf("expected 20, got %d", len(tail))
	}
	if tail[0].Timestamp != 30 || tail[19].Timestamp != 49 {
		t.Errorf("unexpected tail bounds: %d..%d", tail[0].Timestamp, tail[19].Timestamp)
	}
	if got := Tail(samples[:5], 20); len(got) != 5 {
		t.Errorf("expected whole slice when shorter than n, got %d", len(got))
	}
	if got := Tail(samples, 0); len(got) != 0 {
		t.Errorf("expected empty tail for n=0, got %d", len(got))
	}
}

func TestByAgent(t *testing.T) {
	samples := []domain.PerformanceSample{
		{Agent: "zumbi", ResponseTime: 100},
		{Agent: "zumbi", ResponseTime: 300},
		{Agent: "anita", ResponseTime: 50},
		{Agent: "ghost", ResponseTime: 999},
	}

	got := ByAgent(samples, []string{"zumbi", "anita", "nana"})
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if z := got["zumbi"]; z.Count != 2 || !approx(z.AvgResponseTime, 200) {
		t.Errorf("zumbi: %+v", z)
	}
	if n := got["nana"]; n.Count != 0 || n.AvgResponseTime != 0 {
		t.Errorf("nana should be empty: %+v", n)
	}
	if _, ok := got["ghost"]; ok {
		t.Error("unknown agent must not appear")
	}
}
