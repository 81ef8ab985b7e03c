// errors.go: structured error definitions for the native-plugins system
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"github.com/agilira/go-errors"
)

// Error codes for the native-plugins system
const (
	// Shared library errors (1000-1099)
	ErrCodeLibraryLoad   = "NPLUG_1001"
	ErrCodeLibraryClose  = "NPLUG_1002"
	ErrCodeSymbolMissing = "NPLUG_1003"
	ErrCodeSymbolRead    = "NPLUG_1004"
	ErrCodeNotLoaded     = "NPLUG_1005"
	ErrCodeUnsupported   = "NPLUG_1006"

	// Metadata errors (1100-1199)
	ErrCodeMetadataParse     = "NPLUG_1101"
	ErrCodeAPIIncompatible   = "NPLUG_1102"
	ErrCodeInvalidPluginName = "NPLUG_1103"

	// Lifecycle errors (1200-1299)
	ErrCodeInstanceCreate   = "NPLUG_1201"
	ErrCodePluginNotFound   = "NPLUG_1202"
	ErrCodeUnloadIncomplete = "NPLUG_1203"

	// Discovery errors (1300-1399)
	ErrCodeListFiles = "NPLUG_1301"

	// Configuration errors (1400-1499)
	ErrCodeConfigParse   = "NPLUG_1401"
	ErrCodeConfigWatcher = "NPLUG_1402"
	ErrCodeConfigApply   = "NPLUG_1403"
)

// Shared library error constructors

func NewLibraryLoadError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeLibraryLoad, "Cannot load shared library").
		WithUserMessage("The shared object could not be opened by the dynamic linker").
		WithContext("path", path).
		WithSeverity("error")
}

func NewLibraryCloseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeLibraryClose, "Cannot close shared library").
		WithUserMessage("The dynamic linker refused to release the shared object").
		WithContext("path", path).
		WithSeverity("warning")
}

func NewSymbolMissingError(symbol, path string) *errors.Error {
	return errors.New(ErrCodeSymbolMissing, "Symbol not found").
		WithContext("symbol", symbol).
		WithContext("path", path).
		WithSeverity("error")
}

func NewSymbolReadError(symbol string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeSymbolRead, "Cannot read symbol").
			WithContext("symbol", symbol).
			WithSeverity("error")
	}
	return errors.New(ErrCodeSymbolRead, "Cannot read symbol").
		WithContext("symbol", symbol).
		WithSeverity("error")
}

func NewLibraryNotLoadedError() *errors.Error {
	return errors.New(ErrCodeNotLoaded, "Library not loaded").
		WithUserMessage("The operation requires a loaded shared library handle").
		WithSeverity("error")
}

func NewUnsupportedPlatformError() *errors.Error {
	return errors.New(ErrCodeUnsupported, "Native library loading is not supported on this platform").
		WithSeverity("error")
}

// Metadata error constructors

func NewMetadataParseError(path string, cause error) *errors.Error {
	err := errors.New(ErrCodeMetadataParse, "Invalid plugin metadata").
		WithContext("path", path).
		WithSeverity("error")
	if cause != nil {
		return errors.Wrap(cause, ErrCodeMetadataParse, "Invalid plugin metadata").
			WithContext("path", path).
			WithSeverity("error")
	}
	return err
}

func NewAPIIncompatibleError(pluginAPI, hostAPI string) *errors.Error {
	return errors.New(ErrCodeAPIIncompatible, "Incompatible plugin API version").
		WithContext("plugin_api", pluginAPI).
		WithContext("host_api", hostAPI).
		WithSeverity("error")
}

func NewInvalidPluginNameError(name string) *errors.Error {
	return errors.New(ErrCodeInvalidPluginName, "Invalid plugin name").
		WithUserMessage("Plugin names must be ASCII identifiers (letters, digits, underscore, no leading digit)").
		WithContext("provided_name", name).
		WithSeverity("error")
}

// Lifecycle error constructors

func NewInstanceCreateError(name string, cause error) *errors.Error {
	if cause != nil {
		return errors.Wrap(cause, ErrCodeInstanceCreate, "Cannot create plugin instance").
			WithContext("plugin", name).
			WithSeverity("error")
	}
	return errors.New(ErrCodeInstanceCreate, "Cannot create plugin instance").
		WithUserMessage("The plugin factory returned a null instance").
		WithContext("plugin", name).
		WithSeverity("error")
}

func NewPluginNotFoundError(name string) *errors.Error {
	return errors.New(ErrCodePluginNotFound, "Plugin not found").
		WithContext("plugin", name).
		WithSeverity("error")
}

func NewUnloadIncompleteError(code Outcome) *errors.Error {
	return errors.New(ErrCodeUnloadIncomplete, "Not all plugins have been unloaded").
		WithContext("outcome", code.String()).
		WithSeverity("warning")
}

// Discovery error constructors

func NewListFilesError(dir string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeListFiles, "Cannot list plugin directory").
		WithContext("dir", dir).
		WithSeverity("error").
		AsRetryable()
}

// Configuration error constructors

func NewConfigParseError(path string, cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigParse, "Cannot parse manager configuration").
		WithContext("path", path).
		WithSeverity("error")
}

func NewConfigWatcherError(cause error) *errors.Error {
	return errors.Wrap(cause, ErrCodeConfigWatcher, "Configuration watcher failure").
		WithSeverity("error").
		AsRetryable()
}

func NewConfigApplyError(detail string) *errors.Error {
	return errors.New(ErrCodeConfigApply, "Cannot apply manager configuration").
		WithContext("detail", detail).
		WithSeverity("error")
}
