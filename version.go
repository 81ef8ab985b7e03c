// version.go: Semantic-version compatibility used by metadata and dependency checks
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"github.com/Masterminds/semver/v3"
)

// PluginAPIVersion is the plugin API implemented by this host. A plugin whose
// metadata declares an "api" value not compatible with it is rejected during
// Search.
const PluginAPIVersion = "1.0.0"

// versionCompatible reports whether the provided version satisfies the
// requested one: both must share the major component and the provided
// minor.patch must be greater than or equal to the requested one.
//
// Unparsable versions never satisfy anything.
func versionCompatible(have, want string) bool {
	hv, err := semver.StrictNewVersion(have)
	if err != nil {
		return false
	}
	wv, err := semver.StrictNewVersion(want)
	if err != nil {
		return false
	}
	if hv.Major() != wv.Major() {
		return false
	}
	return hv.Compare(wv) >= 0
}

// validVersion reports whether s parses as strict semver (no leading v, all
// three components present).
func validVersion(s string) bool {
	_, err := semver.StrictNewVersion(s)
	return err == nil
}
