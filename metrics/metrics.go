// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type collectors struct {
	once sync.Once

	chatTurns    *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	llmRequests  *prometheus.CounterVec
	indexedColls prometheus.Counter
	turnDuration prometheus.Histogram
}

var m collectors

func (c *collectors) init() {
	c.once.Do(func() {
		c.chatTurns = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mongochat_chat_turns_total",
			Help: "Chat turns by outcome",
		}, []string{"outcome"})
		c.toolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mongochat_tool_calls_total",
			Help: "Query executor invocations by action and outcome",
		}, []string{"action", "outcome"})
		c.llmRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mongochat_llm_requests_total",
			Help: "Chat completion requests by status",
		}, []string{"status"})
		c.indexedColls = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mongochat_indexed_collections_total",
			Help: "Collection schemas written to the vector store",
		})
		c.turnDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "mongochat_turn_seconds",
			Help:    "End-to-end chat turn duration",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		})

		prometheus.MustRegister(c.chatTurns, c.toolCalls, c.llmRequests, c.indexedColls, c.turnDuration)
	})
}

func RecordChatTurn(outcome string) { m.init(); m.chatTurns.WithLabelValues(outcome).Inc() }

func RecordToolCall(action, outcome string) {
	m.init()
	m.toolCalls.WithLabelValues(action, outcome).Inc()
}

func RecordLLMRequest(status string) { m.init(); m.llmRequests.WithLabelValues(status).Inc() }

func RecordIndexedCollections(n int) { m.init(); m.indexedColls.Add(float64(n)) }

func ObserveTurn(start time.Time) { m.init(); m.turnDuration.Observe(time.Since(start).Seconds()) }
