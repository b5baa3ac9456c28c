package resource

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/standardbeagle/scout/internal/debug"
)

const (
	// memoryAdmissionRatio is the share of MaxMemoryMB above which new work is refused
	memoryAdmissionRatio = 0.90
	// warnRatio is the share of any budget above which the sampler warns
	warnRatio = 0.80
	// warnRepeatInterval throttles repeat warnings while usage stays high
	warnRepeatInterval = time.Minute

	bytesPerMB = 1024 * 1024
)

// Reason identifies which budget rejected a candidate.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonFileCount Reason = "file_count"
	ReasonFileSize  Reason = "file_size"
	ReasonMemory    Reason = "memory"
	ReasonTime      Reason = "time"
)

// Decision is the outcome of an admission check. A rejection is not an
// error; callers skip the work and log Detail.
type Decision struct {
	Allowed bool
	Reason  Reason
	Detail  string
}

// Usage is a point-in-time copy of what a Monitor has observed.
type Usage struct {
	CurrentMemoryMB float64
	PeakMemoryMB    float64
	FilesProcessed  int
	StartTime       time.Time
	Elapsed         time.Duration
}

// MemoryReader returns current memory usage in bytes.
type MemoryReader func() uint64

// RuntimeMemory reports heap bytes in use plus the runtime's non-heap
// allocations (stacks, span and cache metadata, GC metadata, other).
func RuntimeMemory() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc + m.StackInuse + m.MSpanInuse + m.MCacheInuse + m.GCSys + m.OtherSys
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// WithMemoryReader replaces RuntimeMemory.
func WithMemoryReader(r MemoryReader) Option {
	return func(m *Monitor) { m.readMemory = r }
}

// WithLogger sets the logger used for sampler warnings.
func WithLogger(l debug.Logger) Option {
	return func(m *Monitor) { m.logger = debug.OrNop(l) }
}

// Monitor tracks usage for one exploration or analysis batch and answers
// admission checks. Safe for concurrent use.
type Monitor struct {
	budget     Budget
	now        func() time.Time
	readMemory MemoryReader
	logger     debug.Logger
	start      time.Time

	filesProcessed atomic.Int64

	memMu     sync.Mutex
	currentMB float64
	peakMB    float64

	samplerMu  sync.Mutex
	stopCh     chan struct{}
	samplerWG  sync.WaitGroup
	warnState  map[Reason]bool
	warnLimits map[Reason]*rate.Limiter
}

// NewMonitor validates budget and starts the elapsed-time clock.
func NewMonitor(budget Budget, opts ...Option) (*Monitor, error) {
	if err := budget.Validate(); err != nil {
		return nil, err
	}
	m := &Monitor{
		budget:     budget,
		now:        time.Now,
		readMemory: RuntimeMemory,
		logger:     debug.Nop(),
		warnState:  make(map[Reason]bool),
		warnLimits: make(map[Reason]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.start = m.now()
	m.refreshMemory()
	return m, nil
}

// Budget returns the limits this monitor enforces.
func (m *Monitor) Budget() Budget {
	return m.budget
}

// CanProceed decides whether a unit of work of candidateSize bytes may
// start. Checks run in a fixed order and the first failure wins: file
// count, candidate size, memory (90% of budget), elapsed time. Memory is
// re-read on every call; callers must check before each unit of work.
func (m *Monitor) CanProceed(candidateSize int64) Decision {
	if files := m.filesProcessed.Load(); files >= int64(m.budget.MaxFiles) {
		return Decision{Reason: ReasonFileCount,
			Detail: fmt.Sprintf("file limit reached: %d >= %d", files, m.budget.MaxFiles)}
	}

	if candidateSize > m.budget.MaxFileSizeBytes {
		return Decision{Reason: ReasonFileSize,
			Detail: fmt.Sprintf("file too large: %d > %d bytes", candidateSize, m.budget.MaxFileSizeBytes)}
	}

	current := m.refreshMemory()
	if limit := float64(m.budget.MaxMemoryMB) * memoryAdmissionRatio; current >= limit {
		return Decision{Reason: ReasonMemory,
			Detail: fmt.Sprintf("memory usage %.1fMB at or above %.1fMB (90%% of %dMB)", current, limit, m.budget.MaxMemoryMB)}
	}

	if elapsed := m.now().Sub(m.start); elapsed >= m.budget.MaxProcessingTime {
		return Decision{Reason: ReasonTime,
			Detail: fmt.Sprintf("processing time %s exceeded limit %s", elapsed.Round(time.Millisecond), m.budget.MaxProcessingTime)}
	}

	return Decision{Allowed: true}
}

// RecordProcessed counts one admitted and processed unit of work.
func (m *Monitor) RecordProcessed() {
	m.filesProcessed.Add(1)
	m.refreshMemory()
}

// FilesProcessed returns the processed counter without touching memory.
func (m *Monitor) FilesProcessed() int {
	return int(m.filesProcessed.Load())
}

// Snapshot returns a copy of current usage, refreshing the memory reading.
func (m *Monitor) Snapshot() Usage {
	m.refreshMemory()
	m.memMu.Lock()
	defer m.memMu.Unlock()
	now := m.now()
	return Usage{
		CurrentMemoryMB: m.currentMB,
		PeakMemoryMB:    m.peakMB,
		FilesProcessed:  int(m.filesProcessed.Load()),
		StartTime:       m.start,
		Elapsed:         now.Sub(m.start),
	}
}

func (m *Monitor) refreshMemory() float64 {
	mb := float64(m.readMemory()) / bytesPerMB
	m.memMu.Lock()
	defer m.memMu.Unlock()
	m.currentMB = mb
	if mb > m.peakMB {
		m.peakMB = mb
	}
	return mb
}

// StartBackgroundSampling launches a sampler that refreshes the memory
// reading every interval and warns when usage crosses 80% of a budget. It is
// advisory and never rejects work. Calling it while a sampler runs is a
// no-op. Stop joins the sampler.
func (m *Monitor) StartBackgroundSampling(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}

	m.samplerMu.Lock()
	defer m.samplerMu.Unlock()
	if m.stopCh != nil {
		return
	}
	stop := make(chan struct{})
	m.stopCh = stop

	m.samplerWG.Add(1)
	go func() {
		defer m.samplerWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				m.Sample()
			}
		}
	}()
}

// Stop halts the background sampler and waits for it to exit. Safe to call
// more than once and without a running sampler.
func (m *Monitor) Stop() {
	m.samplerMu.Lock()
	stop := m.stopCh
	m.stopCh = nil
	m.samplerMu.Unlock()

	if stop != nil {
		close(stop)
	}
	m.samplerWG.Wait()
}

// Sample performs one sampler tick synchronously.
func (m *Monitor) Sample() Usage {
	u := m.Snapshot()

	m.checkThreshold(ReasonMemory, u.CurrentMemoryMB/float64(m.budget.MaxMemoryMB),
		"memoryMB", fmt.Sprintf("%.1f", u.CurrentMemoryMB), "limitMB", m.budget.MaxMemoryMB)
	m.checkThreshold(ReasonFileCount, float64(u.FilesProcessed)/float64(m.budget.MaxFiles),
		"files", u.FilesProcessed, "limit", m.budget.MaxFiles)
	m.checkThreshold(ReasonTime, float64(u.Elapsed)/float64(m.budget.MaxProcessingTime),
		"elapsed", u.Elapsed.Round(time.Millisecond), "limit", m.budget.MaxProcessingTime)

	debug.Log(debug.ComponentMonitor, "sample: memory=%.1fMB peak=%.1fMB files=%d elapsed=%s\n",
		u.CurrentMemoryMB, u.PeakMemoryMB, u.FilesProcessed, u.Elapsed)
	return u
}

// checkThreshold warns when ratio first crosses warnRatio and then at most
// once per warnRepeatInterval while it stays above.
func (m *Monitor) checkThreshold(reason Reason, ratio float64, kv ...any) {
	m.samplerMu.Lock()
	defer m.samplerMu.Unlock()

	if ratio < warnRatio {
		m.warnState[reason] = false
		return
	}

	lim, ok := m.warnLimits[reason]
	if !ok {
		lim = rate.NewLimiter(rate.Every(warnRepeatInterval), 1)
		m.warnLimits[reason] = lim
	}
	crossed := !m.warnState[reason]
	m.warnState[reason] = true

	// Consume a token either way so a fresh crossing restarts the interval
	allowed := lim.AllowN(m.now(), 1)
	if !crossed && !allowed {
		return
	}
	fields := append([]any{"budget", string(reason), "percent", fmt.Sprintf("%.0f", ratio*100)}, kv...)
	m.logger.Warn(debug.ComponentMonitor, "resource usage approaching limit", fields...)
}
