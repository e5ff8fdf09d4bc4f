package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)
	m.ObserveTurn("success")
	m.ObserveFunctionCall("search_leads", true)
	m.ObserveFunctionCall("create_lead", false)
	m.ObserveLLMLatency("intent", 0.5)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather failed: %v", err)
	}

	var turns *dto.MetricFamily
	for _, mf := range families {
		if mf.GetName() == "leadboard_chat_turns_total" {
			turns = mf
		}
	}
	if turns == nil {
		t.Fatal("turns counter not registered")
	}
	if got := turns.GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("expected 1 turn observed, got %v", got)
	}
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveTurn("success")
	m.ObserveFunctionCall("search_leads", true)
	m.ObserveLLMLatency("reply", 0.1)
}
