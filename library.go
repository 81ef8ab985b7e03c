// library.go: Shared-library abstraction between the manager and the dynamic linker
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

// Exported symbol names every plugin shared object must provide.
const (
	symbolName         = "np_name"
	symbolMetadata     = "np_metadata"
	symbolCreatePlugin = "np_createPlugin"
)

// PluginLibrary is the manager's view of one shared object. The production
// implementation (NewSharedLibrary) wraps the platform dynamic linker via
// purego; tests substitute in-memory implementations.
//
// A PluginLibrary has exactly one owner at a time and must not be copied.
type PluginLibrary interface {
	// Load acquires a handle for the shared object at path. An already-held
	// handle is released first.
	Load(path string) error

	// Loaded reports whether a handle is held.
	Loaded() bool

	// HasSymbol reports whether the named symbol resolves. It does not
	// alter error state visible to later calls.
	HasSymbol(name string) bool

	// SymbolString reads a null-terminated C string through the named
	// pointer symbol.
	SymbolString(name string) (string, error)

	// CreateInstance resolves the factory symbol and invokes it with the
	// router binding and the dependency instances, returning the adapted
	// plugin instance.
	CreateInstance(router RouterBinding, deps []Plugin) (Plugin, error)

	// Unload releases the handle. It returns an error when the dynamic
	// linker refuses to free the object; the handle is considered dropped
	// either way.
	Unload() error

	// Path returns the path the library was loaded from.
	Path() string

	// LastError returns the most recent linker error text, if any.
	LastError() string
}

// LibraryFactory produces the PluginLibrary implementation the manager uses
// for every candidate artifact. The default factory returns the platform
// dynamic-linker implementation.
type LibraryFactory func() PluginLibrary

// RouterBinding carries the manager's router in both calling conventions:
// the Go function for in-process plugins and a C-ABI trampoline address for
// native ones. C is zero when no native trampoline has been materialized
// (pure-Go hosts and tests).
type RouterBinding struct {
	Go RouterFunc
	C  uintptr
}
