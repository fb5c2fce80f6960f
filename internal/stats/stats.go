// Package stats содержит чистые функции для агрегации метрик производительности.
// Все функции безопасны на пустом входе: возвращают 0, а не NaN.
package stats

import (
	"math"
	"slices"

	"github.com/xela07ax/agent-metrics-console/internal/domain"
)

// Aggregates - сводка по последовательности PerformanceSample
type Aggregates struct {
	AvgResponseTime float64 `json:"avgResponseTime"`
	P50             float64 `json:"p50"`
	P95             float64 `json:"p95"`
	P99             float64 `json:"p99"`
	SuccessRate     float64 `json:"successRate"`
	TotalRequests   int     `json:"totalRequests"`
}

// Percentile считает перцентиль с линейной интерполяцией.
// Вход не мутируется: сортируется копия.
func Percentile(samples []float64, p float64) float64 {
	n := len(samples)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return samples[0]
	}

	if math.IsNaN(p) {
		p = 0
	}
	p = math.Max(0, math.Min(100, p))

	sorted := slices.Clone(samples)
	slices.Sort(sorted)

	index := p / 100 * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	if lower == upper {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*weight
}

// MovingAverage - скользящее среднее по хвостовому окну, без паддинга и заглядывания вперед.
func MovingAverage(samples []float64, window int) []float64 {
	if window <= 0 {
		window = 1
	}

	out := make([]float64, len(samples))
	var sum float64
	for i, v := range samples {
		sum += v
		if i >= window {
			sum -= samples[i-window]
		}
		size := min(i+1, window)
		out[i] = sum / float64(size)
	}
	return out
}

// Aggregate считает avg/p50/p95/p99/successRate. Для пустого входа - все нули.
func Aggregate(samples []domain.PerformanceSample) Aggregates {
	if len(samples) == 0 {
		return Aggregates{}
	}

	times := ResponseTimes(samples)
	var total float64
	successes := 0
	for i, s := range samples {
		total += times[i]
		if s.Success {
			successes++
		}
	}

	n := float64(len(samples))
	return Aggregates{
		AvgResponseTime: total / n,
		P50:             Percentile(times, 50),
		P95:             Percentile(times, 95),
		P99:             Percentile(times, 99),
		SuccessRate:     float64(successes) / n,
		TotalRequests:   len(samples),
	}
}

// ResponseTimes вытаскивает ряд времени ответа
func ResponseTimes(samples []domain.PerformanceSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.ResponseTime
	}
	return out
}

// Tail возвращает последние n элементов (последовательность упорядочена old -> new).
func Tail(samples []domain.PerformanceSample, n int) []domain.PerformanceSample {
	if n <= 0 {
		return nil
	}
	if len(samples) <= n {
		return samples
	}
	return samples[len(samples)-n:]
}

// ByAgent - количество и среднее время ответа по каждому агенту из ids.
// Агенты без выборок присутствуют с нулями.
func ByAgent(samples []domain.PerformanceSample, ids []string) map[string]domain.AgentBreakdown {
	type acc struct {
		count int
		total float64
	}
	byID := make(map[string]*acc, len(ids))
	for _, id := range ids {
		byID[id] = &acc{}
	}
	for _, s := range samples {
		if a, ok := byID[s.Agent]; ok {
			a.count++
			a.total += s.ResponseTime
		}
	}

	out := make(map[string]domain.AgentBreakdown, len(ids))
	for id, a := range byID {
		b := domain.AgentBreakdown{Agent: id, Count: a.count}
		if a.count > 0 {
			b.AvgResponseTime = a.total / float64(a.count)
		}
		out[id] = b
	}
	return out
}
