// resolver.go: Recursive, memoized dependency resolution
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

// checkDependencies verifies that every dependency the record declares is
// present and version-compatible, transitively, and memoizes the verdict on
// the record. A record whose own declared dependency is missing or
// incompatible is reported once per pass, with its path as detail; a
// dependant that fails only through such a record is not reported.
//
// A dependency cycle is treated as satisfied here as long as each link's
// version check passes; the in-progress guard stops the recursion from
// revisiting a record already on the stack. Cycles are rejected later by the
// topological sort.
func (m *PluginManager) checkDependencies(rec *pluginRecord, reporter Reporter) Outcome {
	if rec.depVerdict.known() {
		if rec.depVerdict == triYes {
			return OutcomeSuccess
		}
		return rec.depFailure
	}
	if rec.checking {
		return OutcomeSuccess
	}
	rec.checking = true
	defer func() { rec.checking = false }()

	for _, dep := range rec.info.Dependencies {
		target, exists := m.records[dep.Name]
		if !exists {
			rec.depVerdict = triNo
			rec.depFailure = OutcomeDependencyNotFound
			m.log().Warn("dependency not found", "plugin", rec.name, "dependency", dep.Name)
			report(reporter, OutcomeDependencyNotFound, rec.path)
			return OutcomeDependencyNotFound
		}

		if !versionCompatible(target.info.Version, dep.Version) {
			rec.depVerdict = triNo
			rec.depFailure = OutcomeDependencyBadVersion
			m.log().Warn("dependency version mismatch",
				"plugin", rec.name,
				"dependency", dep.Name,
				"have", target.info.Version,
				"want", dep.Version)
			report(reporter, OutcomeDependencyBadVersion, rec.path)
			return OutcomeDependencyBadVersion
		}

		// Propagate a transitive failure without overwriting this record's
		// own verdict; it stays unknown and is excluded from the graph.
		if code := m.checkDependencies(target, reporter); !code.OK() {
			return code
		}
	}

	rec.depVerdict = triYes
	return OutcomeSuccess
}
