// testing_helpers_test.go: Shared fakes and builders for the test suite
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// buildMetadata renders a well-formed metadata document for tests.
func buildMetadata(name, version string, deps []Dependency) string {
	if deps == nil {
		deps = []Dependency{}
	}
	doc := map[string]any{
		"api":          PluginAPIVersion,
		"name":         name,
		"prettyName":   "Pretty " + name,
		"version":      version,
		"author":       "tester",
		"url":          "https://example.com/" + name,
		"license":      "MPL-2.0",
		"copyright":    "(c) testers",
		"dependencies": deps,
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return string(raw)
}

// eventLog records lifecycle events in call order.
type eventLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *eventLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.entries))
	copy(out, l.entries)
	return out
}

// indexOf returns the position of entry, or -1.
func (l *eventLog) indexOf(entry string) int {
	for i, e := range l.list() {
		if e == entry {
			return i
		}
	}
	return -1
}

// testPlugin implements the Go plugin contract and records its lifecycle.
type testPlugin struct {
	name        string
	events      *eventLog
	router      RouterFunc
	deps        []Plugin
	loadedCalls int
	handle      func(sender string, code RequestCode, data []byte) ([]byte, RequestStatus)
}

func (p *testPlugin) Loaded() {
	p.loadedCalls++
	p.events.add(p.name + ":loaded")
}

func (p *testPlugin) AboutToBeUnloaded() {
	p.events.add(p.name + ":unloading")
}

func (p *testPlugin) HandleRequest(sender string, code RequestCode, data []byte) ([]byte, RequestStatus) {
	if p.handle != nil {
		return p.handle(sender, code, data)
	}
	return nil, ReqStatusCommonError
}

// mainTestPlugin additionally satisfies MainPlugin.
type mainTestPlugin struct {
	testPlugin
	mainRuns int
}

func (p *mainTestPlugin) MainPluginExec() {
	p.mainRuns++
	p.events.add(p.name + ":main")
}

// fakeArtifact describes one shared object the fake linker can open.
type fakeArtifact struct {
	name           string
	metadata       string
	create         CreateFunc
	missingSymbols bool
	failUnload     bool
}

// fakeWorld wires a temp directory of dummy artifacts to a LibraryFactory,
// so the manager exercises discovery against real files without a real
// dynamic linker.
type fakeWorld struct {
	t         *testing.T
	dir       string
	artifacts map[string]*fakeArtifact
	events    eventLog
}

func newFakeWorld(t *testing.T) *fakeWorld {
	t.Helper()
	return &fakeWorld{
		t:         t,
		dir:       t.TempDir(),
		artifacts: make(map[string]*fakeArtifact),
	}
}

// addFile drops a dummy artifact file and registers it with the fake linker.
func (w *fakeWorld) addFile(dir, file string, artifact *fakeArtifact) string {
	w.t.Helper()
	path := filepath.Join(dir, file+"."+libraryExtension())
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		w.t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("\x7fELF-fake"), 0o600); err != nil {
		w.t.Fatal(err)
	}
	w.artifacts[path] = artifact
	return path
}

// addPlugin registers a plugin artifact whose instance is a testPlugin
// recording into the world's event log.
func (w *fakeWorld) addPlugin(name, version string, deps ...Dependency) string {
	w.t.Helper()
	return w.addFile(w.dir, name, &fakeArtifact{
		name:     name,
		metadata: buildMetadata(name, version, deps),
		create: func(router RouterFunc, depInstances []Plugin) Plugin {
			return &testPlugin{name: name, events: &w.events, router: router, deps: depInstances}
		},
	})
}

func (w *fakeWorld) factory() LibraryFactory {
	return func() PluginLibrary {
		return &fakeLibrary{world: w}
	}
}

func (w *fakeWorld) manager(opts ...ManagerOption) *PluginManager {
	all := append([]ManagerOption{WithLibraryFactory(w.factory())}, opts...)
	return NewPluginManager(all...)
}

// fakeLibrary implements PluginLibrary over a fakeWorld.
type fakeLibrary struct {
	world    *fakeWorld
	artifact *fakeArtifact
	path     string
	loaded   bool
	lastErr  string
}

func (l *fakeLibrary) Load(path string) error {
	if l.loaded {
		_ = l.Unload()
	}
	artifact, ok := l.world.artifacts[path]
	if !ok {
		l.lastErr = "not a loadable object"
		return NewLibraryLoadError(path, NewLibraryNotLoadedError())
	}
	l.artifact = artifact
	l.path = path
	l.loaded = true
	return nil
}

func (l *fakeLibrary) Loaded() bool {
	return l.loaded
}

func (l *fakeLibrary) HasSymbol(name string) bool {
	if !l.loaded || l.artifact.missingSymbols {
		return false
	}
	switch name {
	case symbolName, symbolMetadata, symbolCreatePlugin:
		return true
	}
	return false
}

func (l *fakeLibrary) SymbolString(name string) (string, error) {
	if !l.loaded {
		return "", NewLibraryNotLoadedError()
	}
	switch name {
	case symbolName:
		return l.artifact.name, nil
	case symbolMetadata:
		return l.artifact.metadata, nil
	}
	return "", NewSymbolMissingError(name, l.path)
}

func (l *fakeLibrary) CreateInstance(router RouterBinding, deps []Plugin) (Plugin, error) {
	if !l.loaded {
		return nil, NewLibraryNotLoadedError()
	}
	if l.artifact.create == nil {
		return nil, NewInstanceCreateError(l.artifact.name, nil)
	}
	return l.artifact.create(router.Go, deps), nil
}

func (l *fakeLibrary) Unload() error {
	if !l.loaded {
		return nil
	}
	if l.artifact.failUnload {
		// The fake linker refuses to free the handle.
		return NewLibraryCloseError(l.path, NewLibraryNotLoadedError())
	}
	l.loaded = false
	return nil
}

func (l *fakeLibrary) Path() string {
	return l.path
}

func (l *fakeLibrary) LastError() string {
	return l.lastErr
}

// collectReports gathers reporter callbacks for assertions.
type reportSink struct {
	mu      sync.Mutex
	reports []reportEntry
}

type reportEntry struct {
	code   Outcome
	detail string
}

func (s *reportSink) reporter() Reporter {
	return func(code Outcome, detail string) {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.reports = append(s.reports, reportEntry{code: code, detail: detail})
	}
}

func (s *reportSink) codes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Outcome, len(s.reports))
	for i, r := range s.reports {
		out[i] = r.code
	}
	return out
}

func (s *reportSink) has(code Outcome) bool {
	for _, c := range s.codes() {
		if c == code {
			return true
		}
	}
	return false
}

func (s *reportSink) detailsFor(code Outcome) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, r := range s.reports {
		if r.code == code {
			out = append(out, r.detail)
		}
	}
	return out
}
