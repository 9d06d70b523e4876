package bench

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Metrics collects the outcome of every request in a run
type Metrics struct {
	mu sync.Mutex

	total  atomic.Int64
	errors atomic.Int64

	// latency in microseconds, 1us to 60s, 3 significant digits
	histogram *hdrhistogram.Histogram
	statuses  map[int]int64

	startTime time.Time
	endTime   time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
		statuses:  make(map[int]int64),
	}
}

func (m *Metrics) Start() {
	m.startTime = time.Now()
}

func (m *Metrics) Stop() {
	m.endTime = time.Now()
}

// RecordResponse records a request that produced a response.
func (m *Metrics) RecordResponse(status int, duration time.Duration) {
	m.total.Add(1)

	latencyUs := min(max(duration.Microseconds(), minLatencyUs), maxLatencyUs)

	m.mu.Lock()
	_ = m.histogram.RecordValue(latencyUs)
	m.statuses[status]++
	m.mu.Unlock()
}

// RecordError records a request that failed before a response arrived.
func (m *Metrics) RecordError() {
	m.total.Add(1)
	m.errors.Add(1)
}

// Summary is the final report of a run
type Summary struct {
	Duration  time.Duration
	Total     int64
	Errors    int64
	Statuses  map[int]int64
	RPS       float64
	ErrorRate float64

	Min  time.Duration
	Mean time.Duration
	P50  time.Duration
	P90  time.Duration
	P99  time.Duration
	Max  time.Duration
}

// StatusCodes returns the observed status codes in ascending order.
func (s *Summary) StatusCodes() []int {
	codes := make([]int, 0, len(s.Statuses))
	for code := range s.Statuses {
		codes = append(codes, code)
	}
	sort.Ints(codes)
	return codes
}

func (m *Metrics) Summary() *Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := m.endTime.Sub(m.startTime)
	if m.endTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	total := m.total.Load()
	errors := m.errors.Load()

	s := &Summary{
		Duration: duration,
		Total:    total,
		Errors:   errors,
		Statuses: make(map[int]int64, len(m.statuses)),
		Min:      usToDuration(m.histogram.Min()),
		Mean:     usToDuration(int64(m.histogram.Mean())),
		P50:      usToDuration(m.histogram.ValueAtQuantile(50)),
		P90:      usToDuration(m.histogram.ValueAtQuantile(90)),
		P99:      usToDuration(m.histogram.ValueAtQuantile(99)),
		Max:      usToDuration(m.histogram.Max()),
	}
	for code, n := range m.statuses {
		s.Statuses[code] = n
	}
	if duration > 0 {
		s.RPS = float64(total) / duration.Seconds()
	}
	if total > 0 {
		s.ErrorRate = float64(errors) / float64(total)
	}
	return s
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
