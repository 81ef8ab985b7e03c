// manager_unload_test.go: Unload phase and lifecycle round-trip tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnloadReversesLoadOrder(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("u_base", "1.0.0")
	w.addPlugin("u_mid", "1.0.0", Dependency{Name: "u_base", Version: "1.0.0"})
	w.addPlugin("u_top", "1.0.0", Dependency{Name: "u_mid", Version: "1.0.0"})
	m := w.manager()

	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))
	require.Equal(t, OutcomeSuccess, m.Load(true, nil))
	require.Equal(t, OutcomeSuccess, m.Unload(nil))

	idx := func(e string) int { return w.events.indexOf(e) }
	assert.Less(t, idx("u_top:unloading"), idx("u_mid:unloading"))
	assert.Less(t, idx("u_mid:unloading"), idx("u_base:unloading"))
}

func TestUnloadResetsManagerState(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("r_a", "1.0.0")
	w.addPlugin("r_b", "1.0.0", Dependency{Name: "r_a", Version: "1.0.0"})
	m := w.manager()

	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))
	require.Equal(t, OutcomeSuccess, m.Load(true, nil))
	require.Equal(t, OutcomeSuccess, m.Unload(nil))

	assert.Zero(t, m.Count())
	assert.Empty(t, m.List())
	assert.Empty(t, m.Locations())
	assert.Empty(t, m.loadOrder)
	assert.False(t, m.Has("r_a"))
	assert.Nil(t, m.PluginObject("r_b"))
}

func TestSearchThenUnloadRoundTrip(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("rt", "1.0.0")
	m := w.manager()

	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))
	require.Equal(t, OutcomeSuccess, m.Unload(nil))

	// Indistinguishable from the initial state: drained records never ran
	// any hook, and the registry is empty.
	assert.Zero(t, m.Count())
	assert.Empty(t, m.Locations())
	assert.Empty(t, w.events.list())

	// The cycle can start again from scratch.
	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))
	require.Equal(t, OutcomeSuccess, m.Load(true, nil))
	assert.True(t, m.IsLoaded("rt"))
	require.Equal(t, OutcomeSuccess, m.Unload(nil))
}

func TestUnloadDrainsRecordsOutsideLoadOrder(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("fine", "1.0.0")
	w.addPlugin("lonely", "1.0.0", Dependency{Name: "ghost", Version: "1.0.0"})
	m := w.manager()

	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))
	require.Equal(t, OutcomeSuccess, m.Load(true, nil))
	require.False(t, m.IsLoaded("lonely"))

	require.Equal(t, OutcomeSuccess, m.Unload(nil))
	assert.Zero(t, m.Count())
	// Only the activated plugin ran lifecycle hooks.
	assert.Equal(t, []string{"fine:loaded", "fine:unloading"}, w.events.list())
}

func TestUnloadReportsStuckHandles(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("free_ok", "1.0.0")
	w.addFile(w.dir, "stuck", &fakeArtifact{
		name:       "stuck",
		metadata:   buildMetadata("stuck", "1.0.0", nil),
		failUnload: true,
		create: func(router RouterFunc, deps []Plugin) Plugin {
			return &testPlugin{name: "stuck", events: &w.events}
		},
	})
	m := w.manager()

	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))
	require.Equal(t, OutcomeSuccess, m.Load(true, nil))

	var sink reportSink
	code := m.Unload(sink.reporter())

	assert.Equal(t, OutcomeUnloadNotAll, code)
	assert.Equal(t, []string{"stuck"}, sink.detailsFor(OutcomeUnloadNotAll))
	// The registry is cleared even when a handle was not freed.
	assert.Zero(t, m.Count())
	// Hooks still ran for everyone.
	assert.Contains(t, w.events.list(), "stuck:unloading")
	assert.Contains(t, w.events.list(), "free_ok:unloading")
}

func TestCloseRunsImplicitUnload(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("implicit", "1.0.0")
	m := w.manager()

	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))
	require.Equal(t, OutcomeSuccess, m.Load(true, nil))

	require.NoError(t, m.Close())
	assert.Zero(t, m.Count())
	assert.Contains(t, w.events.list(), "implicit:unloading")

	// Idempotent on an empty manager.
	assert.NoError(t, m.Close())
}

func TestDefaultManagerIsAProcessSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestMetricsSnapshot(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("counted", "1.0.0")
	m := w.manager()

	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))
	require.Equal(t, OutcomeSuccess, m.Load(true, nil))
	require.Equal(t, OutcomeSuccess, m.Unload(nil))

	snap := m.Metrics()
	assert.NotEmpty(t, snap.InstanceID)
	assert.Equal(t, int64(1), snap.SearchCalls)
	assert.Equal(t, int64(1), snap.LoadCalls)
	assert.Equal(t, int64(1), snap.UnloadCalls)
	assert.Equal(t, int64(1), snap.PluginsDiscovered)
	assert.Equal(t, int64(1), snap.PluginsActivated)
	assert.Zero(t, snap.RegistrySize)
	assert.False(t, snap.GeneratedAt.IsZero())
}
