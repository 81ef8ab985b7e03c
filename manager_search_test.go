// manager_search_test.go: Discovery phase tests
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchEmptyDirectory(t *testing.T) {
	w := newFakeWorld(t)
	m := w.manager()

	var sink reportSink
	code := m.Search(w.dir, false, sink.reporter())

	assert.Equal(t, OutcomeNothingFound, code)
	assert.Zero(t, m.Count())
	assert.Empty(t, m.Locations())
	assert.Empty(t, sink.codes())
}

func TestSearchMissingDirectory(t *testing.T) {
	w := newFakeWorld(t)
	m := w.manager()

	var sink reportSink
	code := m.Search(filepath.Join(w.dir, "nope"), false, sink.reporter())

	assert.Equal(t, OutcomeListFilesError, code)
	assert.True(t, sink.has(OutcomeListFilesError))
}

func TestSearchInstallsPlugins(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("alpha", "1.0.0")
	w.addPlugin("beta", "2.1.0")
	m := w.manager()

	code := m.Search(w.dir, false, nil)

	require.Equal(t, OutcomeSuccess, code)
	assert.Equal(t, 2, m.Count())
	assert.ElementsMatch(t, []string{"alpha", "beta"}, m.List())
	assert.Equal(t, []string{w.dir}, m.Locations())
	assert.True(t, m.Has("alpha"))
	assert.False(t, m.IsLoaded("alpha"))

	info, ok := m.Info("beta")
	require.True(t, ok)
	assert.Equal(t, "2.1.0", info.Version)

	// Library handles stay loaded between discovery and unload.
	for _, name := range m.List() {
		rec := m.records[name]
		assert.True(t, rec.lib.Loaded())
		assert.Equal(t, -1, rec.graphID)
		assert.Equal(t, triUnknown, rec.depVerdict)
	}
}

func TestSearchSkipsNonPluginsSilently(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("alpha", "1.0.0")
	// A loadable shared object without the plugin symbols.
	w.addFile(w.dir, "libplain", &fakeArtifact{missingSymbols: true})
	// A file with the right extension that is not loadable at all.
	require.NoError(t, os.WriteFile(filepath.Join(w.dir, "junk."+libraryExtension()), []byte("junk"), 0o600))
	m := w.manager()

	var sink reportSink
	code := m.Search(w.dir, false, sink.reporter())

	assert.Equal(t, OutcomeSuccess, code)
	assert.Equal(t, 1, m.Count())
	assert.Empty(t, sink.codes())
}

func TestSearchDuplicateNameKeepsFirst(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("plug", "1.0.0")

	other := filepath.Join(w.dir, "other")
	w.addFile(other, "plug_copy", &fakeArtifact{
		name:     "plug",
		metadata: buildMetadata("plug", "9.9.9", nil),
	})
	m := w.manager()

	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))

	var sink reportSink
	code := m.Search(other, false, sink.reporter())

	assert.Equal(t, OutcomeNothingFound, code)
	assert.True(t, sink.has(OutcomeNameAlreadyExists))
	assert.Equal(t, 1, m.Count())

	// The first record stays authoritative.
	info, ok := m.Info("plug")
	require.True(t, ok)
	assert.Equal(t, "1.0.0", info.Version)
	// The rejected directory yielded nothing, so it is not recorded.
	assert.Equal(t, []string{w.dir}, m.Locations())
}

func TestSearchInvalidMetadataReported(t *testing.T) {
	w := newFakeWorld(t)
	badPath := w.addFile(w.dir, "broken", &fakeArtifact{
		name:     "broken",
		metadata: `{"api": "1.0.0"`,
	})
	badAPI := w.addFile(w.dir, "oldapi", &fakeArtifact{
		name:     "oldapi",
		metadata: buildMetadata("oldapi", "1.0.0", nil),
	})
	w.artifacts[badAPI].metadata = `{"api":"2.0.0","name":"oldapi","prettyName":"x","version":"1.0.0","author":"a","url":"u","license":"l","copyright":"c","dependencies":[]}`
	m := w.manager()

	var sink reportSink
	code := m.Search(w.dir, false, sink.reporter())

	assert.Equal(t, OutcomeNothingFound, code)
	assert.Zero(t, m.Count())
	assert.ElementsMatch(t,
		[]string{badPath, badAPI},
		sink.detailsFor(OutcomeCannotParseMetadata))
}

func TestSearchRejectsInvalidNameSymbol(t *testing.T) {
	w := newFakeWorld(t)
	w.addFile(w.dir, "badname", &fakeArtifact{
		name:     "9starts-with-digit",
		metadata: buildMetadata("9starts-with-digit", "1.0.0", nil),
	})
	m := w.manager()

	var sink reportSink
	code := m.Search(w.dir, false, sink.reporter())

	assert.Equal(t, OutcomeNothingFound, code)
	assert.True(t, sink.has(OutcomeCannotParseMetadata))
}

func TestSearchIsCumulativeAndIdempotent(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("alpha", "1.0.0")
	m := w.manager()

	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))

	// Re-searching the same directory re-finds the same plugin, which is a
	// duplicate of itself: nothing new is installed.
	var sink reportSink
	code := m.Search(w.dir, false, sink.reporter())
	assert.Equal(t, OutcomeNothingFound, code)
	assert.True(t, sink.has(OutcomeNameAlreadyExists))
	assert.Equal(t, 1, m.Count())
	assert.Equal(t, []string{w.dir}, m.Locations())

	// New plugins in the same directory are picked up by a later call.
	w.addPlugin("beta", "1.0.0")
	assert.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))
	assert.Equal(t, 2, m.Count())
}

func TestHasVersion(t *testing.T) {
	w := newFakeWorld(t)
	w.addPlugin("versioned", "1.2.3")
	m := w.manager()

	require.Equal(t, OutcomeSuccess, m.Search(w.dir, false, nil))

	assert.True(t, m.HasVersion("versioned", "1.0.0"))
	assert.True(t, m.HasVersion("versioned", "1.2.3"))
	assert.False(t, m.HasVersion("versioned", "1.3.0"))
	assert.False(t, m.HasVersion("versioned", "2.0.0"))
	assert.False(t, m.HasVersion("missing", "1.0.0"))
}

func TestPluginAPIAccessor(t *testing.T) {
	assert.Equal(t, PluginAPIVersion, NewPluginManager().PluginAPI())
}

func TestSearchRecursive(t *testing.T) {
	w := newFakeWorld(t)
	nested := filepath.Join(w.dir, "sub", "deeper")
	w.addFile(nested, "nested", &fakeArtifact{
		name:     "nested",
		metadata: buildMetadata("nested", "1.0.0", nil),
		create: func(router RouterFunc, deps []Plugin) Plugin {
			return &testPlugin{name: "nested", events: &w.events}
		},
	})
	m := w.manager()

	assert.Equal(t, OutcomeNothingFound, m.Search(w.dir, false, nil))
	assert.Equal(t, OutcomeSuccess, m.Search(w.dir, true, nil))
	assert.True(t, m.Has("nested"))
}
