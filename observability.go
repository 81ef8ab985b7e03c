// observability.go: Zero-dependency lifecycle counters
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"sync/atomic"
	"time"

	"github.com/agilira/go-timecache"
)

// managerMetrics accumulates lifecycle counters across the manager's life.
type managerMetrics struct {
	searchCalls       atomic.Int64
	loadCalls         atomic.Int64
	unloadCalls       atomic.Int64
	pluginsDiscovered atomic.Int64
	pluginsActivated  atomic.Int64
	requestsRouted    atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of the manager's counters.
type MetricsSnapshot struct {
	InstanceID        string    `json:"instance_id"`
	SearchCalls       int64     `json:"search_calls"`
	LoadCalls         int64     `json:"load_calls"`
	UnloadCalls       int64     `json:"unload_calls"`
	PluginsDiscovered int64     `json:"plugins_discovered"`
	PluginsActivated  int64     `json:"plugins_activated"`
	RequestsRouted    int64     `json:"requests_routed"`
	RegistrySize      int       `json:"registry_size"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// Metrics returns a snapshot of the manager's lifecycle counters.
func (m *PluginManager) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		InstanceID:        m.instanceID,
		SearchCalls:       m.metrics.searchCalls.Load(),
		LoadCalls:         m.metrics.loadCalls.Load(),
		UnloadCalls:       m.metrics.unloadCalls.Load(),
		PluginsDiscovered: m.metrics.pluginsDiscovered.Load(),
		PluginsActivated:  m.metrics.pluginsActivated.Load(),
		RequestsRouted:    m.metrics.requestsRouted.Load(),
		RegistrySize:      m.Count(),
		GeneratedAt:       timecache.CachedTime(),
	}
}
