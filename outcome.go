// outcome.go: Closed result-code enumeration for the public phase API
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import "strconv"

// Outcome is the result kind returned by the manager's phase operations and
// delivered to Reporter callbacks. The numeric values are stable and part of
// the public contract; new codes may be appended but existing values never
// change.
type Outcome uint16

const (
	OutcomeSuccess      Outcome = 0
	OutcomeUnknownError Outcome = 1

	// Raised by Search
	OutcomeNothingFound        Outcome = 100
	OutcomeNameAlreadyExists   Outcome = 101
	OutcomeCannotParseMetadata Outcome = 102
	OutcomeListFilesError      Outcome = 103

	// Raised by Load
	OutcomeDependencyBadVersion Outcome = 200
	OutcomeDependencyNotFound   Outcome = 201
	OutcomeDependencyCycle      Outcome = 202

	// Raised by Unload
	OutcomeUnloadNotAll Outcome = 300
)

// OK reports whether the outcome is OutcomeSuccess.
func (o Outcome) OK() bool {
	return o == OutcomeSuccess
}

// String returns a short identifier for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeUnknownError:
		return "unknown_error"
	case OutcomeNothingFound:
		return "nothing_found"
	case OutcomeNameAlreadyExists:
		return "name_already_exists"
	case OutcomeCannotParseMetadata:
		return "cannot_parse_metadata"
	case OutcomeListFilesError:
		return "list_files_error"
	case OutcomeDependencyBadVersion:
		return "dependency_bad_version"
	case OutcomeDependencyNotFound:
		return "dependency_not_found"
	case OutcomeDependencyCycle:
		return "dependency_cycle"
	case OutcomeUnloadNotAll:
		return "unload_not_all"
	}
	return "outcome(" + strconv.Itoa(int(o)) + ")"
}

// Message returns a human-readable description of the outcome.
func (o Outcome) Message() string {
	switch o {
	case OutcomeSuccess:
		return "Success"
	case OutcomeUnknownError:
		return "Unknown error"
	case OutcomeNothingFound:
		return "No plugins were found in that directory"
	case OutcomeNameAlreadyExists:
		return "A plugin with the same name was already found"
	case OutcomeCannotParseMetadata:
		return "Plugin metadata cannot be parsed"
	case OutcomeListFilesError:
		return "An error occurred during the scan of the plugin directory"
	case OutcomeDependencyBadVersion:
		return "The plugin requires a dependency that is present in an incompatible version"
	case OutcomeDependencyNotFound:
		return "The plugin requires a dependency that was not found"
	case OutcomeDependencyCycle:
		return "The dependency graph contains a cycle, which makes loading impossible"
	case OutcomeUnloadNotAll:
		return "Not all plugins have been unloaded"
	}
	return "Unknown outcome"
}

// Reporter receives per-plugin faults raised during a phase call. The detail
// string typically carries the offending shared object's path; it may be
// empty for global faults such as a dependency cycle.
//
// The reporter is invoked on the caller's goroutine, between the phase's
// internal steps. It must not call back into the manager.
type Reporter func(code Outcome, detail string)

func report(r Reporter, code Outcome, detail string) {
	if r != nil {
		r(code, detail)
	}
}
