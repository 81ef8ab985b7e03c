// library_dl.go: Dynamic-linker backed PluginLibrary implementation
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

//go:build darwin || freebsd || linux

package nativeplugins

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// sharedLibrary owns one dlopen handle. Exactly one live owner at a time;
// the struct must not be copied.
type sharedLibrary struct {
	handle  uintptr
	path    string
	lastErr string
}

// NewSharedLibrary returns the platform dynamic-linker implementation of
// PluginLibrary.
func NewSharedLibrary() PluginLibrary {
	return &sharedLibrary{}
}

func defaultLibraryFactory() PluginLibrary {
	return NewSharedLibrary()
}

func (l *sharedLibrary) Load(path string) error {
	if l.handle != 0 {
		_ = l.Unload()
	}
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		l.lastErr = err.Error()
		return NewLibraryLoadError(path, err)
	}
	l.handle = handle
	l.path = path
	return nil
}

func (l *sharedLibrary) Loaded() bool {
	return l.handle != 0
}

func (l *sharedLibrary) HasSymbol(name string) bool {
	if l.handle == 0 {
		return false
	}
	_, err := purego.Dlsym(l.handle, name)
	return err == nil
}

func (l *sharedLibrary) symbol(name string) (uintptr, error) {
	if l.handle == 0 {
		return 0, NewLibraryNotLoadedError()
	}
	addr, err := purego.Dlsym(l.handle, name)
	if err != nil {
		l.lastErr = err.Error()
		return 0, NewSymbolMissingError(name, l.path)
	}
	return addr, nil
}

// SymbolString reads a null-terminated string through a `const char *`
// symbol: the symbol address holds the pointer, the pointer holds the bytes.
func (l *sharedLibrary) SymbolString(name string) (string, error) {
	addr, err := l.symbol(name)
	if err != nil {
		return "", err
	}
	ptr := *(*uintptr)(unsafe.Pointer(addr))
	if ptr == 0 {
		return "", NewSymbolReadError(name, nil)
	}
	return goStringAt(ptr), nil
}

// CreateInstance resolves np_createPlugin (a pointer variable holding the
// factory address) and invokes it with the C router trampoline and the
// dependencies' native instance pointers.
func (l *sharedLibrary) CreateInstance(router RouterBinding, deps []Plugin) (Plugin, error) {
	addr, err := l.symbol(symbolCreatePlugin)
	if err != nil {
		return nil, err
	}
	factory := *(*uintptr)(unsafe.Pointer(addr))
	if factory == 0 {
		return nil, NewInstanceCreateError(l.path, nil)
	}

	depPtrs := make([]uintptr, len(deps)+1)
	for i, dep := range deps {
		if ni, ok := dep.(*nativeInstance); ok {
			depPtrs[i] = ni.self
		}
	}
	var depsArg uintptr
	if len(deps) > 0 {
		depsArg = uintptr(unsafe.Pointer(&depPtrs[0]))
	}

	self, _, _ := purego.SyscallN(factory, router.C, depsArg, uintptr(len(deps)))
	runtime.KeepAlive(depPtrs)
	if self == 0 {
		return nil, NewInstanceCreateError(l.path, nil)
	}
	return newNativeInstance(self), nil
}

func (l *sharedLibrary) Unload() error {
	if l.handle == 0 {
		return nil
	}
	handle := l.handle
	l.handle = 0
	if err := purego.Dlclose(handle); err != nil {
		l.lastErr = err.Error()
		return NewLibraryCloseError(l.path, err)
	}
	return nil
}

func (l *sharedLibrary) Path() string {
	return l.path
}

func (l *sharedLibrary) LastError() string {
	return l.lastErr
}
