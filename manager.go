// manager.go: Plugin lifecycle manager: search, load, unload and introspection
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"slices"
	"sync"

	"github.com/agilira/go-timecache"
	"github.com/google/uuid"
)

// PluginManager owns the plugin registry and drives the lifecycle phases:
// Search (discovery), Load (dependency check, ordering, activation) and
// Unload (mirror teardown). It also answers read-only queries about the
// registry and routes plugin requests.
//
// Scheduling model: single-threaded cooperative. The phase operations
// serialize against each other, but plugin hooks and the router run on the
// calling host thread without additional locking; the router is not safe to
// call from a plugin-spawned thread while Load or Unload is in progress.
type PluginManager struct {
	mu sync.Mutex

	records map[string]*pluginRecord
	names   []string // discovery order

	loadOrder  []string
	locations  []string
	mainPlugin string

	logger     Logger
	logEnabled bool

	libFactory LibraryFactory
	appDir     string

	router     RouterBinding
	routerOnce sync.Once

	instanceID string
	metrics    managerMetrics

	noop Logger
}

// ManagerOption configures a PluginManager.
type ManagerOption func(*PluginManager)

// WithLogger sets the logger used for lifecycle and router events.
// Accepts a Logger implementation or nil (silent).
func WithLogger(logger any) ManagerOption {
	return func(m *PluginManager) {
		m.logger = NewLogger(logger)
	}
}

// WithLibraryFactory replaces the shared-library implementation used for
// every candidate artifact. Hosts embedding in-process plugins and tests use
// this to substitute the dynamic linker.
func WithLibraryFactory(factory LibraryFactory) ManagerOption {
	return func(m *PluginManager) {
		m.libFactory = factory
	}
}

// WithAppDirectory overrides the application directory reported by
// AppDirectory and the GetAppDirectory request. The default is the running
// executable's directory.
func WithAppDirectory(dir string) ManagerOption {
	return func(m *PluginManager) {
		m.appDir = dir
	}
}

// NewPluginManager creates an empty manager.
func NewPluginManager(opts ...ManagerOption) *PluginManager {
	m := &PluginManager{
		records:    make(map[string]*pluginRecord),
		logger:     DefaultLogger(),
		logEnabled: true,
		libFactory: defaultLibraryFactory,
		instanceID: uuid.NewString(),
		noop:       NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var (
	defaultOnce    sync.Once
	defaultManager *PluginManager
)

// Default returns the lazily initialized process-wide manager. Hosts that
// prefer owning their manager can ignore it and use NewPluginManager.
func Default() *PluginManager {
	defaultOnce.Do(func() {
		defaultManager = NewPluginManager()
	})
	return defaultManager
}

// log returns the active logger, honoring the enable flag.
func (m *PluginManager) log() Logger {
	if !m.logEnabled {
		return m.noop
	}
	return m.logger
}

// SetLogger replaces the manager's logger. Accepts a Logger or nil.
func (m *PluginManager) SetLogger(logger any) {
	m.logger = NewLogger(logger)
}

// SetLogEnabled toggles log output without discarding the configured logger.
func (m *PluginManager) SetLogEnabled(enabled bool) {
	m.logEnabled = enabled
}

// routerBinding materializes the router handed to plugin factories, once per
// manager. The C trampoline is only functional on platforms with a dynamic
// linker bridge.
func (m *PluginManager) routerBinding() RouterBinding {
	m.routerOnce.Do(func() {
		m.router = RouterBinding{
			Go: m.routeManagerRequest,
			C:  newRouterTrampoline(m),
		}
	})
	return m.router
}

//
// Phase 1 — Search
//

// Search enumerates shared objects under dir, extracts the self-describing
// metadata of every candidate that exports the plugin symbols, and installs
// one record per new plugin name. It may be called repeatedly for different
// roots; results accumulate.
//
// Candidates missing any of the three plugin symbols are skipped silently.
// Duplicate names and undecodable metadata are reported and skipped.
//
// Returns OutcomeSuccess iff at least one plugin was installed by this call,
// OutcomeNothingFound otherwise. A filesystem walk failure is reported; it
// aborts the call with OutcomeListFilesError only when no candidates were
// collected at all.
func (m *PluginManager) Search(dir string, recursive bool, reporter Reporter) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.searchCalls.Add(1)

	paths, err := listLibrariesInDir(dir, recursive)
	if err != nil {
		m.log().Error("plugin directory scan failed", "dir", dir, "error", err)
		report(reporter, OutcomeListFilesError, err.Error())
		if len(paths) == 0 {
			return OutcomeListFilesError
		}
	}

	installed := 0
	for _, path := range paths {
		if m.installCandidate(path, reporter) {
			installed++
		}
	}

	if installed == 0 {
		return OutcomeNothingFound
	}
	if !slices.Contains(m.locations, dir) {
		m.locations = append(m.locations, dir)
	}
	return OutcomeSuccess
}

// installCandidate loads one artifact and installs its record if it is a
// well-formed plugin with a new name.
func (m *PluginManager) installCandidate(path string, reporter Reporter) bool {
	lib := m.libFactory()
	if err := lib.Load(path); err != nil {
		m.log().Debug("cannot open candidate", "path", path, "error", err)
		return false
	}

	if !lib.HasSymbol(symbolName) || !lib.HasSymbol(symbolMetadata) || !lib.HasSymbol(symbolCreatePlugin) {
		// Not a plugin.
		_ = lib.Unload()
		return false
	}

	name, err := lib.SymbolString(symbolName)
	if err != nil || !validPluginName(name) {
		m.log().Warn("unreadable or invalid name symbol", "path", path)
		report(reporter, OutcomeCannotParseMetadata, path)
		_ = lib.Unload()
		return false
	}

	if _, dup := m.records[name]; dup {
		m.log().Warn("duplicate plugin name", "name", name, "path", path)
		report(reporter, OutcomeNameAlreadyExists, path)
		_ = lib.Unload()
		return false
	}

	raw, err := lib.SymbolString(symbolMetadata)
	var info PluginInfo
	if err == nil {
		info = parseMetadata(raw)
	}
	if !info.Valid() {
		m.log().Warn("cannot parse plugin metadata", "name", name, "path", path)
		report(reporter, OutcomeCannotParseMetadata, path)
		_ = lib.Unload()
		return false
	}

	m.records[name] = &pluginRecord{
		name:         name,
		path:         path,
		lib:          lib,
		info:         info,
		graphID:      -1,
		discoveredAt: timecache.CachedTime(),
	}
	m.names = append(m.names, name)
	m.metrics.pluginsDiscovered.Add(1)
	m.log().Info("plugin discovered", "name", name, "version", info.Version, "path", path)
	return true
}

//
// Phase 2 — Load
//

// Load brings every discovered plugin with satisfied dependencies into the
// activated state, in an order where each plugin's dependencies are
// activated strictly before it.
//
// With tryToContinue true, per-plugin dependency faults are reported and the
// offending plugins excluded; the call still returns OutcomeSuccess. With
// tryToContinue false the first fault aborts the call. A dependency cycle
// always aborts with OutcomeDependencyCycle before any activation.
//
// Load may be called again without an intervening Unload: verdicts are
// re-evaluated, but plugins whose instance is still live are not
// re-activated and their Loaded hook does not run again.
func (m *PluginManager) Load(tryToContinue bool, reporter Reporter) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.loadCalls.Add(1)

	// Step 1: reset flags from any previous pass and re-run the resolver.
	for _, name := range m.names {
		rec := m.records[name]
		rec.graphID = -1
		rec.depVerdict = triUnknown
		rec.depFailure = OutcomeSuccess
	}

	var graph depGraph
	for _, name := range m.names {
		rec := m.records[name]
		code := m.checkDependencies(rec, reporter)
		if !code.OK() && !tryToContinue {
			return code
		}
		if rec.depVerdict == triYes {
			rec.graphID = graph.addNode(name)
		}
	}

	// Step 2: one edge per declared dependency, dependency -> dependant.
	for _, name := range m.names {
		rec := m.records[name]
		if rec.graphID == -1 {
			continue
		}
		for _, dep := range rec.info.Dependencies {
			graph.addParent(rec.graphID, m.records[dep.Name].graphID)
		}
	}

	// Step 3: topological sort.
	order, ok := graph.topologicalSort()
	if !ok {
		m.log().Error("dependency graph contains a cycle")
		report(reporter, OutcomeDependencyCycle, "")
		return OutcomeDependencyCycle
	}
	m.loadOrder = order
	m.log().Debug("load order computed", "order", order)

	// Step 4: activate in order.
	for _, name := range order {
		rec := m.records[name]
		if rec.instance != nil {
			continue
		}
		deps := make([]Plugin, len(rec.info.Dependencies))
		for i, dep := range rec.info.Dependencies {
			deps[i] = m.records[dep.Name].instance
		}
		instance, err := rec.lib.CreateInstance(m.routerBinding(), deps)
		if err != nil || instance == nil {
			m.log().Error("plugin activation failed", "name", name, "error", err)
			report(reporter, OutcomeUnknownError, rec.path)
			continue
		}
		rec.instance = instance
		m.metrics.pluginsActivated.Add(1)
		instance.Loaded()
		m.log().Info("plugin loaded", "name", name)
	}

	// Step 5: run the main plugin, if registered and activated.
	if m.mainPlugin != "" {
		if rec, ok := m.records[m.mainPlugin]; ok && rec.instance != nil {
			if mp, ok := rec.instance.(MainPlugin); ok {
				m.log().Info("running main plugin", "name", m.mainPlugin)
				mp.MainPluginExec()
			}
		}
	}

	return OutcomeSuccess
}

//
// Phase 3 — Unload
//

// Unload releases every record: the last load order is walked in reverse so
// each plugin's AboutToBeUnloaded runs before any of its dependencies', then
// the remaining records are drained in discovery order. The locations set is
// cleared. After Unload the manager is indistinguishable from a fresh one;
// plugins must be searched again before another Load.
//
// Returns OutcomeSuccess iff the dynamic linker released every handle;
// otherwise OutcomeUnloadNotAll, with each offending plugin reported.
func (m *PluginManager) Unload(reporter Reporter) Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metrics.unloadCalls.Add(1)

	clean := true
	for i := len(m.loadOrder) - 1; i >= 0; i-- {
		name := m.loadOrder[i]
		rec, ok := m.records[name]
		if !ok {
			continue
		}
		if !rec.release(m.log()) {
			clean = false
			report(reporter, OutcomeUnloadNotAll, name)
		}
		m.removeRecord(name)
	}

	// Drain records that never made it into the load order.
	for _, name := range slices.Clone(m.names) {
		rec := m.records[name]
		if !rec.release(m.log()) {
			clean = false
			report(reporter, OutcomeUnloadNotAll, name)
		}
		m.removeRecord(name)
	}

	m.loadOrder = nil
	m.locations = nil
	m.log().Info("all plugins unloaded", "clean", clean)

	if !clean {
		return OutcomeUnloadNotAll
	}
	return OutcomeSuccess
}

func (m *PluginManager) removeRecord(name string) {
	delete(m.records, name)
	if i := slices.Index(m.names, name); i >= 0 {
		m.names = slices.Delete(m.names, i, i+1)
	}
}

// Close releases any remaining records. It is the destructor-equivalent
// safety net for hosts that drop the manager without calling Unload.
func (m *PluginManager) Close() error {
	if m.Count() == 0 {
		return nil
	}
	if code := m.Unload(nil); !code.OK() {
		return NewUnloadIncompleteError(code)
	}
	return nil
}

//
// Introspection
//

// Count returns the number of records in the registry.
func (m *PluginManager) Count() int {
	return len(m.records)
}

// List returns the registered plugin names in discovery order.
func (m *PluginManager) List() []string {
	return slices.Clone(m.names)
}

// Locations returns the directories that have yielded at least one plugin.
func (m *PluginManager) Locations() []string {
	return slices.Clone(m.locations)
}

// Has reports whether a plugin with the given name was discovered.
func (m *PluginManager) Has(name string) bool {
	_, ok := m.records[name]
	return ok
}

// HasVersion reports whether the named plugin is present and its version
// satisfies minVersion under the same-major rule.
func (m *PluginManager) HasVersion(name, minVersion string) bool {
	rec, ok := m.records[name]
	return ok && versionCompatible(rec.info.Version, minVersion)
}

// IsLoaded reports whether the named plugin is present, its library loaded
// and its instance activated.
func (m *PluginManager) IsLoaded(name string) bool {
	rec, ok := m.records[name]
	return ok && rec.lib.Loaded() && rec.instance != nil
}

// Info returns an immutable metadata snapshot of the named plugin.
func (m *PluginManager) Info(name string) (PluginInfo, bool) {
	rec, ok := m.records[name]
	if !ok {
		return PluginInfo{}, false
	}
	return rec.info.clone(), true
}

// PluginObject returns the live instance of the named plugin, or nil when
// the plugin is unknown or not activated.
func (m *PluginManager) PluginObject(name string) Plugin {
	rec, ok := m.records[name]
	if !ok {
		return nil
	}
	return rec.instance
}

// RegisterMainPlugin names the plugin whose MainPluginExec hook runs after
// all activations of a Load pass. The plugin does not need to be discovered
// yet.
func (m *PluginManager) RegisterMainPlugin(name string) error {
	if !validPluginName(name) {
		return NewInvalidPluginNameError(name)
	}
	m.mainPlugin = name
	return nil
}

// AppDirectory returns the host application directory: the configured
// override if set, otherwise the running executable's directory.
func (m *PluginManager) AppDirectory() string {
	if m.appDir != "" {
		return m.appDir
	}
	return executableDir()
}

// PluginAPI returns the plugin API version implemented by this host.
func (m *PluginManager) PluginAPI() string {
	return PluginAPIVersion
}
