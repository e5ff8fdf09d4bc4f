package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the chat pipeline.
type ChatMetrics struct {
	turnsTotal         *prometheus.CounterVec
	functionCallsTotal *prometheus.CounterVec
	llmLatency         *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadboard",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total processed chat turns",
		}, []string{"outcome"}),
		functionCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadboard",
			Subsystem: "chat",
			Name:      "function_calls_total",
			Help:      "Total model-requested function executions",
		}, []string{"function", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadboard",
			Subsystem: "chat",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM completion calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"round"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.functionCallsTotal, m.llmLatency)
	return m
}

func (m *ChatMetrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveFunctionCall(function string, success bool) {
	if m == nil {
		return
	}
	status := "error"
	if success {
		status = "ok"
	}
	m.functionCallsTotal.WithLabelValues(function, status).Inc()
}

func (m *ChatMetrics) ObserveLLMLatency(round string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(round).Observe(seconds)
}
