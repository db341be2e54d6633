package metrics

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы merge-update.
const (
	OutcomeMerged  = "merged"
	OutcomeCreated = "created"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// BakeryMetrics содержит метрики операций над тортами, покупателями и заказами.
// Методы безопасно вызывать на nil-указателе: метрики тогда не пишутся.
type BakeryMetrics struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	mergeOutcomes     *prometheus.CounterVec

	unresolvedCakeRefs prometheus.Counter
	outboxEnqueued     *prometheus.CounterVec

	httpRequestDuration *prometheus.HistogramVec
}

// NewBakeryMetrics регистрирует метрики в DefaultRegisterer.
func NewBakeryMetrics() *BakeryMetrics {
	return NewBakeryMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewBakeryMetricsWithRegisterer регистрирует метрики в переданном registerer.
// Повторная регистрация возвращает уже существующие коллекторы.
func NewBakeryMetricsWithRegisterer(registerer prometheus.Registerer) *BakeryMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &BakeryMetrics{
		operations: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bakery_entity_operations_total",
			Help: "Total number of entity operations grouped by entity, operation and result.",
		}, []string{"entity", "operation", "result"}),
		operationDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "bakery_entity_operation_duration_seconds",
			Help:    "Duration of entity operations in seconds.",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"entity", "operation"}),
		mergeOutcomes: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bakery_merge_outcomes_total",
			Help: "Outcome of merge-update calls: merged into existing entity or created a new one.",
		}, []string{"entity", "outcome"}),
		unresolvedCakeRefs: registerCounter(registerer, prometheus.CounterOpts{
			Name: "bakery_unresolved_cake_refs_total",
			Help: "Cake references in orders that did not resolve to a stored cake.",
		}),
		outboxEnqueued: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "bakery_outbox_enqueued_total",
			Help: "Order events written to the outbox grouped by event type and result.",
		}, []string{"event_type", "result"}),
		httpRequestDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "bakery_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	return register(registerer, opts.Name, prometheus.NewCounter(opts))
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	return register(registerer, opts.Name, prometheus.NewCounterVec(opts, labels))
}

func registerHistogramVec(registerer prometheus.Registerer, opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	return register(registerer, opts.Name, prometheus.NewHistogramVec(opts, labels))
}

func register[C prometheus.Collector](registerer prometheus.Registerer, name string, collector C) C {
	if err := registerer.Register(collector); err != nil {
		var alreadyRegistered prometheus.AlreadyRegisteredError
		if errors.As(err, &alreadyRegistered) {
			existing, ok := alreadyRegistered.ExistingCollector.(C)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", name))
			}
			return existing
		}
		panic(fmt.Sprintf("register collector %q: %v", name, err))
	}
	return collector
}

// RecordOperation учитывает вызов операции сервиса и его длительность.
func (m *BakeryMetrics) RecordOperation(entity, operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.operations.WithLabelValues(entity, operation, result).Inc()
	m.operationDuration.WithLabelValues(entity, operation).Observe(duration.Seconds())
}

// RecordMergeOutcome учитывает, чем закончился merge-update: слиянием или созданием.
func (m *BakeryMetrics) RecordMergeOutcome(entity, outcome string) {
	if m == nil {
		return
	}
	m.mergeOutcomes.WithLabelValues(entity, outcome).Inc()
}

// RecordUnresolvedCakeRefs учитывает ссылки на несуществующие торты.
func (m *BakeryMetrics) RecordUnresolvedCakeRefs(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.unresolvedCakeRefs.Add(float64(count))
}

// RecordOutboxEnqueue учитывает запись события заказа в outbox.
func (m *BakeryMetrics) RecordOutboxEnqueue(eventType string, err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.outboxEnqueued.WithLabelValues(eventType, result).Inc()
}

// ObserveHTTPRequest записывает длительность HTTP-запроса.
func (m *BakeryMetrics) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
