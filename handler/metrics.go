// Copyright 2020 ChainSafe Systems
// SPDX-License-Identifier: LGPL-3.0-only

package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts handler activity. A nil *Metrics records nothing.
type Metrics struct {
	Registrations   prometheus.Counter
	Unregistrations prometheus.Counter
	Outbound        *prometheus.CounterVec
	Inbound         *prometheus.CounterVec
	Failures        *prometheus.CounterVec
}

// NewMetrics registers the handler counters for chain with reg.
func NewMetrics(chain string, reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"chain": chain}
	return &Metrics{
		Registrations: f.NewCounter(prometheus.CounterOpts{
			Name:        "handler_resource_registrations_total",
			Help:        "Resource ids registered",
			ConstLabels: labels,
		}),
		Unregistrations: f.NewCounter(prometheus.CounterOpts{
			Name:        "handler_resource_unregistrations_total",
			Help:        "Resource ids removed",
			ConstLabels: labels,
		}),
		Outbound: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "handler_transfers_to_bridge_total",
			Help:        "Transfers dispatched to the bridge by custody action",
			ConstLabels: labels,
		}, []string{"action"}),
		Inbound: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "handler_transfers_from_bridge_total",
			Help:        "Transfers received from the bridge by custody action",
			ConstLabels: labels,
		}, []string{"action"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "handler_call_failures_total",
			Help:        "Rejected handler calls",
			ConstLabels: labels,
		}, []string{"call"}),
	}
}

func (m *Metrics) registered() {
	if m != nil {
		m.Registrations.Inc()
	}
}

func (m *Metrics) unregistered() {
	if m != nil {
		m.Unregistrations.Inc()
	}
}

func (m *Metrics) outbound(kind OriginKind) {
	if m != nil {
		m.Outbound.WithLabelValues(kind.outbound()).Inc()
	}
}

func (m *Metrics) inbound(kind OriginKind) {
	if m != nil {
		m.Inbound.WithLabelValues(kind.inbound()).Inc()
	}
}

func (m *Metrics) failed(call string) {
	if m != nil {
		m.Failures.WithLabelValues(call).Inc()
	}
}
