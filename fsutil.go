// fsutil.go: Filesystem enumeration of shared-object candidates
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package nativeplugins

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
)

// libraryExtension returns the shared-object suffix for the current
// platform, without the dot.
func libraryExtension() string {
	switch runtime.GOOS {
	case "windows":
		return "dll"
	case "darwin":
		return "dylib"
	default:
		return "so"
	}
}

func isLibraryFile(name string) bool {
	return filepath.Ext(name) == "."+libraryExtension()
}

// listLibrariesInDir enumerates regular files under dir carrying the
// platform library extension, in lexical order. Symbolic links are followed
// as the directory iterator reports them.
//
// On a walk error the candidates collected so far are still returned
// together with the error; the caller decides whether the partial result is
// usable.
func listLibrariesInDir(dir string, recursive bool) ([]string, error) {
	var paths []string

	if !recursive {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !isLibraryFile(entry.Name()) {
				continue
			}
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
		return paths, nil
	}

	var walkErr error
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Remember the first failure but keep collecting what we can.
			if walkErr == nil {
				walkErr = err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isLibraryFile(d.Name()) {
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil && walkErr == nil {
		walkErr = err
	}
	sort.Strings(paths)
	return paths, walkErr
}

var (
	appDirOnce sync.Once
	appDirPath string
)

// executableDir resolves the directory of the running executable, cached for
// the process lifetime. An empty string means the path could not be
// determined.
func executableDir() string {
	appDirOnce.Do(func() {
		exe, err := os.Executable()
		if err != nil {
			return
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		appDirPath = filepath.Dir(exe)
	})
	return appDirPath
}
