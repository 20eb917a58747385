package app

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"os"
	"sync"
	"time"

	"homeseeker/go-backend/internal/platform/privacylog"
	"homeseeker/go-backend/pkg/models"
)

type NotificationEvent struct {
	Seq       int64
	Method    string
	Payload   any
	Timestamp time.Time
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

type NotificationHub struct {
	mu      sync.Mutex
	nextSeq int64
	limit   int
	history []NotificationEvent
	subs    map[int]chan NotificationEvent
	nextSub int
}

func NewNotificationHub(limit int) *NotificationHub {
	if limit < 1 {
		limit = 1
	}
	return &NotificationHub{
		limit: limit,
		subs:  make(map[int]chan NotificationEvent),
	}
}

func (h *NotificationHub) Publish(method string, payload any) NotificationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	event := NotificationEvent{
		Seq:       h.nextSeq,
		Method:    method,
		Payload:   payload,
		Timestamp: nowUTC(),
	}
	h.history = append(h.history, event)
	if len(h.history) > h.limit {
		h.history = append([]NotificationEvent(nil), h.history[len(h.history)-h.limit:]...)
	}

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			close(ch)
			delete(h.subs, id)
		}
	}

	return event
}

func (h *NotificationHub) Subscribe(fromSeq int64) ([]NotificationEvent, <-chan NotificationEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	replay := make([]NotificationEvent, 0)
	for _, event := range h.history {
		if event.Seq > fromSeq {
			replay = append(replay, event)
		}
	}

	id := h.nextSub
	h.nextSub++
	ch := make(chan NotificationEvent, 128)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			close(sub)
			delete(h.subs, id)
		}
	}
	return replay, ch, cancel
}

func (h *NotificationHub) BacklogSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.history)
}

// ActionGuard enforces at-most-one in-flight mutating operation per logical
// action. A second attempt fails fast instead of queuing; nothing after tx
// broadcast is cancellable anyway.
type ActionGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewActionGuard() *ActionGuard {
	return &ActionGuard{inflight: make(map[string]struct{})}
}

func actionKey(action, key string) string {
	return action + "|" + key
}

func (g *ActionGuard) TryBegin(action, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	k := actionKey(action, key)
	if _, busy := g.inflight[k]; busy {
		return false
	}
	g.inflight[k] = struct{}{}
	return true
}

func (g *ActionGuard) End(action, key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, actionKey(action, key))
}

func (g *ActionGuard) InFlight(action, key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, busy := g.inflight[actionKey(action, key)]
	return busy
}

func DefaultLogger() *slog.Logger {
	return slog.New(privacylog.WrapHandler(slog.NewJSONHandler(os.Stdout, nil)))
}

func GeneratePrefixedID(prefix string) (string, error) {
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return prefix + "_" + hex.EncodeToString(buf), nil
}

type opMetric struct {
	count   int
	errors  int
	totalNs int64
	maxNs   int64
	lastNs  int64
}

type ServiceMetricsState struct {
	mu            sync.RWMutex
	errorCounters map[string]int
	opMetrics     map[string]*opMetric
	lastUpdatedAt time.Time
}

func NewServiceMetricsState() *ServiceMetricsState {
	return &ServiceMetricsState{
		errorCounters: make(map[string]int),
		opMetrics:     make(map[string]*opMetric),
	}
}

func (m *ServiceMetricsState) Snapshot() (map[string]int, map[string]models.OperationMetric, time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counters := make(map[string]int, len(m.errorCounters))
	for k, v := range m.errorCounters {
		counters[k] = v
	}
	opStats := make(map[string]models.OperationMetric, len(m.opMetrics))
	for name, metric := range m.opMetrics {
		avg := int64(0)
		if metric.count > 0 {
			avg = metric.totalNs / int64(metric.count) / int64(time.Millisecond)
		}
		opStats[name] = models.OperationMetric{
			Count:         metric.count,
			Errors:        metric.errors,
			AvgLatencyMs:  avg,
			MaxLatencyMs:  metric.maxNs / int64(time.Millisecond),
			LastLatencyMs: metric.lastNs / int64(time.Millisecond),
		}
	}
	return counters, opStats, m.lastUpdatedAt
}

func (m *ServiceMetricsState) RecordError(kind ErrorKind) {
	m.mu.Lock()
	m.errorCounters[string(kind)]++
	m.lastUpdatedAt = time.Now().UTC()
	m.mu.Unlock()
}

func (m *ServiceMetricsState) RecordOp(operation string, started time.Time) {
	latency := time.Since(started).Nanoseconds()
	m.mu.Lock()
	defer m.mu.Unlock()
	metric, ok := m.opMetrics[operation]
	if !ok {
		metric = &opMetric{}
		m.opMetrics[operation] = metric
	}
	metric.count++
	metric.totalNs += latency
	metric.lastNs = latency
	if latency > metric.maxNs {
		metric.maxNs = latency
	}
	m.lastUpdatedAt = time.Now().UTC()
}

func (m *ServiceMetricsState) RecordOpError(operation string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	metric, ok := m.opMetrics[operation]
	if !ok {
		metric = &opMetric{}
		m.opMetrics[operation] = metric
	}
	metric.errors++
	m.lastUpdatedAt = time.Now().UTC()
}
