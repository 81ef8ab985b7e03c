// record.go: Per-plugin bookkeeping owned by the manager
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"time"
)

// pluginRecord tracks one discovered plugin from installation during Search
// until its release during Unload. Records are created, mutated and
// destroyed only by the manager; plugin code observes them through the
// immutable snapshots the router hands out.
type pluginRecord struct {
	name string
	path string
	lib  PluginLibrary
	info PluginInfo

	// instance is non-nil iff the plugin is loaded in the activation sense.
	instance Plugin

	// Flags used during the Load phase.
	depVerdict triBool
	depFailure Outcome // outcome recorded when depVerdict became triNo
	checking   bool    // guards the resolver's recursion against cycles
	graphID    int

	discoveredAt time.Time
}

// release runs the teardown half of the lifecycle: aboutToBeUnloaded on a
// live instance, drop the instance, close the library. It reports whether
// the dynamic linker released the handle cleanly.
func (r *pluginRecord) release(logger Logger) bool {
	if r.instance != nil {
		r.instance.AboutToBeUnloaded()
		r.instance = nil
	}
	if err := r.lib.Unload(); err != nil {
		logger.Warn("library not released", "plugin", r.name, "path", r.path, "error", err)
		return false
	}
	return true
}
