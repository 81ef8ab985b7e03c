// plugin.go: Plugin contract, request codes and router types
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

// Plugin is the activation contract every plugin instance satisfies. Native
// shared-object plugins are adapted to it by the library loader; in-process
// Go plugins implement it directly.
type Plugin interface {
	// Loaded is called once, after all of the plugin's dependencies have
	// completed their own Loaded calls. It is safe to use dependency
	// instances from here on.
	Loaded()

	// AboutToBeUnloaded is called exactly once, just before the instance is
	// dropped and its library closed. Dependency instances remain valid
	// until this method returns.
	AboutToBeUnloaded()
}

// RequestHandler is implemented by plugins that accept peer requests.
// A plugin without it answers every peer request with ReqStatusCommonError.
type RequestHandler interface {
	// HandleRequest processes a request from sender. The returned payload's
	// ownership transfers to the caller.
	HandleRequest(sender string, code RequestCode, data []byte) ([]byte, RequestStatus)
}

// MainPlugin is implemented by plugins that can act as the host's main
// plugin. MainPluginExec runs after every activation of a Load pass.
type MainPlugin interface {
	Plugin

	MainPluginExec()
}

// RouterFunc is the manager-directed request entry point handed to every
// plugin at construction. The returned payload's ownership transfers to the
// caller; its length is the payload size.
type RouterFunc func(sender string, code RequestCode, data []byte) ([]byte, RequestStatus)

// CreateFunc is the factory signature for in-process Go plugins, mirroring
// the native np_createPlugin ABI. deps holds the instances of the plugin's
// declared dependencies, in declaration order; they are non-owning references
// valid until the new plugin's AboutToBeUnloaded returns.
type CreateFunc func(router RouterFunc, deps []Plugin) Plugin

// RequestCode identifies a request routed through the manager. Values below
// RequestCodeUserBase form the closed manager-directed set; values at or
// above it are reserved for plugin-defined protocols.
type RequestCode uint16

const (
	// ReqGetAppDirectory returns the host application directory path.
	ReqGetAppDirectory RequestCode = iota
	// ReqGetPluginAPI returns the host's plugin API version string.
	ReqGetPluginAPI
	// ReqGetPluginsCount returns the registry size as 8 little-endian bytes.
	ReqGetPluginsCount
	// ReqGetPluginInfo returns a metadata snapshot of the named plugin
	// (empty data addresses the sender itself).
	ReqGetPluginInfo
	// ReqGetPluginVersion returns the named plugin's version string
	// (empty data addresses the sender itself).
	ReqGetPluginVersion
	// ReqCheckPlugin answers ReqStatusTrue/ReqStatusFalse for existence.
	ReqCheckPlugin
	// ReqCheckPluginLoaded answers ReqStatusTrue/ReqStatusFalse for activation.
	ReqCheckPluginLoaded

	// RequestCodeUserBase is the first code available to plugin protocols.
	RequestCodeUserBase RequestCode = 100
)

// RequestStatus is the result of a routed request. Values below
// ReqStatusUserBase are reserved by the library.
type RequestStatus uint16

const (
	ReqStatusSuccess RequestStatus = iota
	ReqStatusCommonError
	ReqStatusUnknownRequest
	ReqStatusDataSizeNull
	ReqStatusNotADependency
	ReqStatusNotFound
	ReqStatusTrue
	ReqStatusFalse

	// ReqStatusUserBase is the first status available to plugin protocols.
	ReqStatusUserBase RequestStatus = 100
)

// String returns a short identifier for the status.
func (s RequestStatus) String() string {
	switch s {
	case ReqStatusSuccess:
		return "success"
	case ReqStatusCommonError:
		return "common_error"
	case ReqStatusUnknownRequest:
		return "unknown_request"
	case ReqStatusDataSizeNull:
		return "data_size_null"
	case ReqStatusNotADependency:
		return "not_a_dependency"
	case ReqStatusNotFound:
		return "not_found"
	case ReqStatusTrue:
		return "true"
	case ReqStatusFalse:
		return "false"
	}
	return "user_status"
}
