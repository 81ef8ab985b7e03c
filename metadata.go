// metadata.go: Decoder for the JSON metadata blob embedded in every plugin
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"encoding/json"
	"strings"
)

// Dependency is a named, version-constrained reference from one plugin to
// another, as declared in the plugin's metadata.
type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// PluginInfo is the immutable metadata snapshot of a discovered plugin.
// A zero Name marks the snapshot as invalid.
type PluginInfo struct {
	Name         string       `json:"name"`
	PrettyName   string       `json:"prettyName"`
	Version      string       `json:"version"`
	Author       string       `json:"author"`
	URL          string       `json:"url"`
	License      string       `json:"license"`
	Copyright    string       `json:"copyright"`
	Dependencies []Dependency `json:"dependencies"`
}

// Valid reports whether the snapshot carries decoded metadata.
func (i PluginInfo) Valid() bool {
	return i.Name != ""
}

// String renders the snapshot in a printable multi-line form.
func (i PluginInfo) String() string {
	if !i.Valid() {
		return "Invalid PluginInfo"
	}
	var b strings.Builder
	b.WriteString("Plugin info:\n")
	b.WriteString("Name: " + i.Name + "\n")
	b.WriteString("Pretty name: " + i.PrettyName + "\n")
	b.WriteString("Version: " + i.Version + "\n")
	b.WriteString("Author: " + i.Author + "\n")
	b.WriteString("Url: " + i.URL + "\n")
	b.WriteString("License: " + i.License + "\n")
	b.WriteString("Copyright: " + i.Copyright + "\n")
	b.WriteString("Dependencies:\n")
	for _, dep := range i.Dependencies {
		b.WriteString(" - " + dep.Name + " (" + dep.Version + ")\n")
	}
	return b.String()
}

// clone returns a deep copy so callers cannot mutate the registry's state
// through a returned snapshot.
func (i PluginInfo) clone() PluginInfo {
	out := i
	if i.Dependencies != nil {
		out.Dependencies = make([]Dependency, len(i.Dependencies))
		copy(out.Dependencies, i.Dependencies)
	}
	return out
}

// metadataDoc mirrors the wire schema. Pointer fields distinguish a missing
// field from an empty one; unknown fields are ignored.
type metadataDoc struct {
	API          *string `json:"api"`
	Name         *string `json:"name"`
	PrettyName   *string `json:"prettyName"`
	Version      *string `json:"version"`
	Author       *string `json:"author"`
	URL          *string `json:"url"`
	License      *string `json:"license"`
	Copyright    *string `json:"copyright"`
	Dependencies *[]struct {
		Name    *string `json:"name"`
		Version *string `json:"version"`
	} `json:"dependencies"`
}

// parseMetadata decodes the UTF-8 JSON blob read from a plugin's metadata
// symbol. It returns the invalid sentinel (empty Name) when the document is
// not well formed, any required field is missing, the declared "api" is not
// compatible with PluginAPIVersion, or the dependency array is malformed.
// It never panics across the public boundary.
func parseMetadata(data string) PluginInfo {
	var doc metadataDoc
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return PluginInfo{}
	}

	if doc.API == nil || doc.Name == nil || doc.PrettyName == nil || doc.Version == nil ||
		doc.Author == nil || doc.URL == nil || doc.License == nil || doc.Copyright == nil ||
		doc.Dependencies == nil {
		return PluginInfo{}
	}

	if !versionCompatible(*doc.API, PluginAPIVersion) {
		return PluginInfo{}
	}

	info := PluginInfo{
		Name:       *doc.Name,
		PrettyName: *doc.PrettyName,
		Version:    *doc.Version,
		Author:     *doc.Author,
		URL:        *doc.URL,
		License:    *doc.License,
		Copyright:  *doc.Copyright,
	}

	info.Dependencies = make([]Dependency, 0, len(*doc.Dependencies))
	for _, d := range *doc.Dependencies {
		if d.Name == nil || d.Version == nil {
			return PluginInfo{}
		}
		info.Dependencies = append(info.Dependencies, Dependency{Name: *d.Name, Version: *d.Version})
	}

	if info.Name == "" {
		return PluginInfo{}
	}
	return info
}

// validPluginName reports whether name is an ASCII identifier: letters,
// digits and underscore, not starting with a digit.
func validPluginName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
