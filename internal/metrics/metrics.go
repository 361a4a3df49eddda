package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Task metrics
	TasksSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agentspawn_tasks_submitted_total",
			Help: "Total number of tasks submitted",
		},
	)

	TasksCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentspawn_tasks_completed_total",
			Help: "Total number of tasks completed",
		},
		[]string{"complexity", "status"},
	)

	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentspawn_task_duration_seconds",
			Help:    "End-to-end task pipeline duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"complexity"},
	)

	// Agent metrics
	AgentExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentspawn_agent_executions_total",
			Help: "Total number of specialist executions",
		},
		[]string{"specialist", "status"},
	)

	AgentExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentspawn_agent_execution_duration_ms",
			Help:    "Specialist execution duration in milliseconds",
			Buckets: []float64{100, 500, 1000, 2000, 5000, 10000, 30000},
		},
		[]string{"specialist"},
	)

	// Tool metrics
	ToolExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentspawn_tool_executions_total",
			Help: "Total number of tool executions",
		},
		[]string{"tool", "status"},
	)

	ToolExecutionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agentspawn_tool_execution_duration_seconds",
			Help:    "Tool execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"tool"},
	)

	// LLM metrics
	LLMRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentspawn_llm_requests_total",
			Help: "Total number of LLM completion requests",
		},
		[]string{"status"},
	)

	LLMRequestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentspawn_llm_request_duration_seconds",
			Help:    "LLM completion request duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	// Memory metrics
	MemoryStores = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentspawn_memory_stores_total",
			Help: "Total number of memory store operations",
		},
		[]string{"provider", "status"},
	)

	MemoryRetrievals = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentspawn_memory_retrievals_total",
			Help: "Total number of memory retrieval operations",
		},
		[]string{"provider", "status"},
	)

	ContextAssemblyDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentspawn_context_assembly_duration_seconds",
			Help:    "Time spent assembling cross-session context",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Embedding metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentspawn_embedding_requests_total",
			Help: "Total number of embedding requests by outcome",
		},
		[]string{"model", "status"},
	)

	EmbeddingLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "agentspawn_embedding_latency_seconds",
			Help:    "Embedding generation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Vector store metrics
	VectorSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentspawn_vector_searches_total",
			Help: "Total number of vector store searches",
		},
		[]string{"collection", "status"},
	)

	VectorUpserts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentspawn_vector_upserts_total",
			Help: "Total number of vector store upserts",
		},
		[]string{"collection", "status"},
	)

	// Circuit breaker metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "agentspawn_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTrips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agentspawn_circuit_breaker_trips_total",
			Help: "Total number of circuit breaker open transitions",
		},
		[]string{"name"},
	)
)

// RecordEmbeddingMetrics records one embedding request outcome.
func RecordEmbeddingMetrics(model, status string, seconds float64) {
	EmbeddingRequests.WithLabelValues(model, status).Inc()
	if seconds > 0 {
		EmbeddingLatency.Observe(seconds)
	}
}

// RecordVectorSearchMetrics records one vector search outcome.
func RecordVectorSearchMetrics(collection, status string) {
	VectorSearches.WithLabelValues(collection, status).Inc()
}
