// library_stub.go: Placeholder library implementation for unsupported platforms
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

//go:build !(darwin || freebsd || linux)

package nativeplugins

// unsupportedLibrary satisfies PluginLibrary on platforms without a dlopen
// bridge. Every candidate fails to load, so Search reports NothingFound; the
// manager itself (and in-process Go plugins through custom factories) keeps
// working.
type unsupportedLibrary struct{}

// NewSharedLibrary returns the platform implementation of PluginLibrary.
// This platform has none.
func NewSharedLibrary() PluginLibrary {
	return unsupportedLibrary{}
}

func defaultLibraryFactory() PluginLibrary {
	return NewSharedLibrary()
}

func (unsupportedLibrary) Load(path string) error {
	return NewUnsupportedPlatformError()
}

func (unsupportedLibrary) Loaded() bool { return false }

func (unsupportedLibrary) HasSymbol(name string) bool { return false }

func (unsupportedLibrary) SymbolString(name string) (string, error) {
	return "", NewUnsupportedPlatformError()
}

func (unsupportedLibrary) CreateInstance(router RouterBinding, deps []Plugin) (Plugin, error) {
	return nil, NewUnsupportedPlatformError()
}

func (unsupportedLibrary) Unload() error { return nil }

func (unsupportedLibrary) Path() string { return "" }

func (unsupportedLibrary) LastError() string { return "" }

func newRouterTrampoline(m *PluginManager) uintptr {
	return 0
}
