// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/goalsync/internal/logging"
	"github.com/mesh-intelligence/goalsync/pkg/orchestrator"
)

// envPrefix scopes environment overrides, e.g. GOALSYNC_TRACKER_REPOSITORY.
const envPrefix = "GOALSYNC"

// overridable lists the configuration keys that flags and environment
// variables may set.
var overridable = []string{
	"goals.root",
	"tracker.repository",
	"tracker.tracking_label",
	"tracker.milestone_label_prefix",
	"tracker.gh_bin",
	"tracker.docs_url",
	"sync.commit",
	"sync.sleep_ms",
	"export.dir",
}

// app holds the state shared by the commands of one invocation.
type app struct {
	v          *viper.Viper
	out        io.Writer
	configPath string
	verbose    bool
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func newRootCmd(version string, out io.Writer) *cobra.Command {
	a := &app{v: newViper(), out: out}

	root := &cobra.Command{
		Use:   "goalsync",
		Short: "Sync project goal documents with their tracking issues",
		Long: `goalsync reads goal documents from half-year milestone directories
(such as src/2025h1) and keeps one GitHub tracking issue per goal in sync:
it creates missing issues, updates changed ones, and closes the issues of
completed or rejected goals. Runs are dry runs unless --commit is given,
and are safe to repeat: rerun the command to resume after a failure.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logging.ConfigureRuntime(a.verbose)
		},
	}
	root.SetOut(out)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "configuration file (default goalsync.yaml or goalsync.toml if present)")
	pf.String("root", "", "directory holding the milestone directories (default src)")
	pf.String("repository", "", "owner/name of the issue repository (default detected from the git remote)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	a.v.BindPFlag("goals.root", pf.Lookup("root"))
	a.v.BindPFlag("tracker.repository", pf.Lookup("repository"))

	root.AddCommand(a.checkCmd(), a.issuesCmd(), a.exportCmd(), versionCmd(version))
	return root
}

func (a *app) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate every goal document without contacting GitHub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.orchestrator()
			if err != nil {
				return err
			}
			return o.Check()
		},
	}
}

func (a *app) issuesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "issues",
		Short: "Create, update and close tracking issues to match the goal documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.orchestrator()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			_, err = o.Issues(ctx)
			return err
		},
	}
	f := cmd.Flags()
	f.Bool("commit", false, "apply the changes (default is a dry run)")
	f.Int("sleep", 500, "milliseconds to pause after each remote change, 0 to disable")
	a.v.BindPFlag("sync.commit", f.Lookup("commit"))
	a.v.BindPFlag("sync.sleep_ms", f.Lookup("sleep"))
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write per-milestone progress data for the goal book",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := a.orchestrator()
			if err != nil {
				return err
			}
			paths, err := o.Export(cmd.Context())
			for _, p := range paths {
				fmt.Fprintln(a.out, p)
			}
			return err
		},
	}
	f := cmd.Flags()
	f.String("dir", "", "output directory (default book/api)")
	a.v.BindPFlag("export.dir", f.Lookup("dir"))
	return cmd
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "goalsync %s\n", version)
		},
	}
}

// orchestrator loads the configuration file, layers environment variables
// and flags over it, and returns the Orchestrator for this invocation.
func (a *app) orchestrator() (*orchestrator.Orchestrator, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return orchestrator.New(cfg, orchestrator.WithOutput(a.out)), nil
}

func (a *app) loadConfig() (orchestrator.Config, error) {
	path := a.configPath
	if path == "" {
		path = orchestrator.FindConfig(".")
	}
	cfg := orchestrator.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = orchestrator.LoadConfig(path); err != nil {
			return cfg, err
		}
		log.Debug().Str("path", path).Msg("loaded configuration")
	}
	applyOverrides(a.v, &cfg)
	return cfg, nil
}

// applyOverrides copies every key set by a flag or environment variable
// into cfg.
func applyOverrides(v *viper.Viper, cfg *orchestrator.Config) {
	for _, key := range overridable {
		if !v.IsSet(key) {
			continue
		}
		switch key {
		case "goals.root":
			cfg.Goals.Root = v.GetString(key)
		case "tracker.repository":
			cfg.Tracker.Repository = v.GetString(key)
		case "tracker.tracking_label":
			cfg.Tracker.TrackingLabel = v.GetString(key)
		case "tracker.milestone_label_prefix":
			cfg.Tracker.MilestoneLabelPrefix = v.GetString(key)
		case "tracker.gh_bin":
			cfg.Tracker.GhBin = v.GetString(key)
		case "tracker.docs_url":
			cfg.Tracker.DocsURL = v.GetString(key)
		case "sync.commit":
			cfg.Sync.Commit = v.GetBool(key)
		case "sync.sleep_ms":
			cfg.Sync.SleepMS = v.GetInt(key)
			if cfg.Sync.SleepMS == 0 {
				cfg.Sync.SleepMS = -1
			}
		case "export.dir":
			cfg.Export.Dir = v.GetString(key)
		}
	}
}

// Execute runs the goalsync command line.
func Execute(version string) error {
	root := newRootCmd(version, os.Stdout)
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
