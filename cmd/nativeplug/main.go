// main.go: Demo host driving the native-plugins lifecycle from the command line
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"log/slog"
	"os"

	nativeplugins "github.com/agilira/native-plugins"
	"github.com/spf13/cobra"
)

var (
	flagDirs      []string
	flagRecursive bool
	flagConfig    string
	flagVerbose   bool
)

func main() {
	root := &cobra.Command{
		Use:          "nativeplug",
		Short:        "Discover, load and inspect native shared-object plugins",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringArrayVarP(&flagDirs, "dir", "d", nil, "plugin directory to search (repeatable)")
	root.PersistentFlags().BoolVarP(&flagRecursive, "recursive", "r", false, "search sub-directories too")
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "manager configuration file (JSON or YAML)")
	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log lifecycle events")

	root.AddCommand(newListCmd(), newInfoCmd(), newRunCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// newManager builds a manager from the flags, applying the configuration
// file when one was given.
func newManager() (*nativeplugins.PluginManager, nativeplugins.ManagerConfig, error) {
	var opts []nativeplugins.ManagerOption
	if flagVerbose {
		opts = append(opts, nativeplugins.WithLogger(slogAdapter{slog.Default()}))
	}
	mgr := nativeplugins.NewPluginManager(opts...)

	config := nativeplugins.DefaultManagerConfig()
	if flagConfig != "" {
		loaded, err := nativeplugins.LoadManagerConfigFile(flagConfig)
		if err != nil {
			return nil, config, err
		}
		config = loaded
		if err := mgr.ApplyConfig(config); err != nil {
			return nil, config, err
		}
	}
	for _, dir := range flagDirs {
		config.SearchPaths = append(config.SearchPaths, nativeplugins.SearchPath{Dir: dir, Recursive: flagRecursive})
	}
	if len(config.SearchPaths) == 0 {
		return nil, config, fmt.Errorf("no plugin directories: pass --dir or a config file with search_paths")
	}
	return mgr, config, nil
}

func reporter(cmd *cobra.Command) nativeplugins.Reporter {
	return func(code nativeplugins.Outcome, detail string) {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", code, detail)
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Search the plugin directories and list what was found",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, config, err := newManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			mgr.SearchConfigured(config, reporter(cmd))
			for _, name := range mgr.List() {
				info, _ := mgr.Info(name)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", name, info.Version, info.PrettyName)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d plugin(s) in %d location(s)\n", mgr.Count(), len(mgr.Locations()))
			return nil
		},
	}
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <name>",
		Short: "Print the metadata snapshot of one plugin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, config, err := newManager()
			if err != nil {
				return err
			}
			defer mgr.Close()

			mgr.SearchConfigured(config, reporter(cmd))
			info, ok := mgr.Info(args[0])
			if !ok {
				return fmt.Errorf("plugin %q not found", args[0])
			}
			fmt.Fprint(cmd.OutOrStdout(), info.String())
			return nil
		},
	}
}

func newRunCmd() *cobra.Command {
	var mainPlugin string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search, load every plugin, run the main plugin and unload",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, config, err := newManager()
			if err != nil {
				return err
			}

			if mainPlugin != "" {
				if err := mgr.RegisterMainPlugin(mainPlugin); err != nil {
					return err
				}
			}

			rep := reporter(cmd)
			if code := mgr.SearchConfigured(config, rep); !code.OK() {
				return fmt.Errorf("search: %s", code.Message())
			}
			if code := mgr.Load(true, rep); !code.OK() {
				_ = mgr.Unload(rep)
				return fmt.Errorf("load: %s", code.Message())
			}
			for _, name := range mgr.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s loaded=%v\n", name, mgr.IsLoaded(name))
			}
			if code := mgr.Unload(rep); !code.OK() {
				return fmt.Errorf("unload: %s", code.Message())
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&mainPlugin, "main", "m", "", "plugin whose main hook runs after loading")
	return cmd
}

// slogAdapter bridges the library's Logger interface onto log/slog.
type slogAdapter struct {
	l *slog.Logger
}

func (a slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
func (a slogAdapter) With(args ...any) nativeplugins.Logger {
	return slogAdapter{a.l.With(args...)}
}
