// Copyright (c) 2018 NEC Laboratories Europe GmbH.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the counters and histograms the replica/client engines
// update. A nil *Metrics is valid everywhere it's accepted; every method
// below is a nil-receiver no-op, the same contract DiscardLogger gives
// Logger.
type Metrics struct {
	messagesAccepted *prometheus.CounterVec
	messagesDropped  *prometheus.CounterVec
	slotTransitions  *prometheus.CounterVec
	quorumLatency    *prometheus.HistogramVec
}

// NewMetrics registers a Metrics set against reg. Pass
// prometheus.NewRegistry() in tests to avoid colliding with the default
// global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messagesAccepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pbft",
			Name:      "messages_accepted_total",
			Help:      "Protocol messages accepted, by kind.",
		}, []string{"kind"}),
		messagesDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pbft",
			Name:      "messages_dropped_total",
			Help:      "Protocol messages dropped, by kind and reason.",
		}, []string{"kind", "reason"}),
		slotTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pbft",
			Name:      "slot_transitions_total",
			Help:      "Slot state transitions, by resulting state.",
		}, []string{"state"}),
		quorumLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pbft",
			Name:      "quorum_latency_seconds",
			Help:      "Time between two consecutive slot-state transitions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"from", "to"}),
	}
	reg.MustRegister(m.messagesAccepted, m.messagesDropped, m.slotTransitions, m.quorumLatency)
	return m
}

func (m *Metrics) MessageAccepted(kind string) {
	if m == nil {
		return
	}
	m.messagesAccepted.WithLabelValues(kind).Inc()
}

func (m *Metrics) MessageDropped(kind, reason string) {
	if m == nil {
		return
	}
	m.messagesDropped.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) SlotTransition(state string) {
	if m == nil {
		return
	}
	m.slotTransitions.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveQuorumLatency(from, to string, d time.Duration) {
	if m == nil {
		return
	}
	m.quorumLatency.WithLabelValues(from, to).Observe(d.Seconds())
}
