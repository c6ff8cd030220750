// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command bapsfmotion is the operator-facing CLI for a run manager
// (spec.md §6/§10): load a configuration document, validate it, bring
// motion groups online, and drive them from the terminal. Grounded on
// raymyers-ralph-cc-go's cmd/ralph-cc/main.go newRootCmd pattern — a
// constructor taking explicit out/errOut writers, RunE closures per
// subcommand, and os.Exit(run()) in main.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rocco8773/bapsf-motion-sub001/config"
	"github.com/rocco8773/bapsf-motion-sub001/config/tomlview"
	"github.com/rocco8773/bapsf-motion-sub001/motiongroup"
	"github.com/rocco8773/bapsf-motion-sub001/rlog"
	"github.com/rocco8773/bapsf-motion-sub001/runmanager"
)

var version = "0.1.0"

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

var (
	configPath string
	configType string
	drainSecs  float64
	groupID    string
	moveIndex  int
)

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "bapsfmotion",
		Short:         "bapsfmotion drives a probe-drive run manager from a configuration document",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the run configuration document")
	rootCmd.PersistentFlags().StringVar(&configType, "config-type", "yaml", "configuration format: yaml or toml")
	rootCmd.MarkPersistentFlagRequired("config")

	rootCmd.AddCommand(newValidateCmd(out, errOut))
	rootCmd.AddCommand(newRunCmd(out, errOut))
	rootCmd.AddCommand(newMoveCmd(out, errOut))
	rootCmd.AddCommand(newPositionCmd(out, errOut))
	return rootCmd
}

func loadRunConfig() (*config.RunConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("bapsfmotion: reading %s: %w", configPath, err)
	}
	switch configType {
	case "yaml", "":
		return config.Decode(data)
	case "toml":
		root, err := tomlview.Decode(data)
		if err != nil {
			return nil, err
		}
		return config.DecodeMap(root)
	default:
		return nil, fmt.Errorf("bapsfmotion: unknown --config-type %q", configType)
	}
}

func newValidateCmd(out, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "parse and validate the configuration document without connecting to hardware",
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := loadRunConfig()
			if err != nil {
				return err
			}
			for id, mg := range rc.MotionGroups {
				if mg.XForm == nil {
					return fmt.Errorf("motion group %q: no transform configured", id)
				}
				gc := motiongroup.Config{Name: mg.Name, Drive: mg.Drive, Builder: mg.Builder, User: mg.User}
				if ok := runmanager.ValidateMotionGroup(gc, mg.XForm); !ok {
					return fmt.Errorf("motion group %q failed validation", id)
				}
			}
			fmt.Fprintf(out, "bapsfmotion: run %q: %d motion group(s) valid\n", rc.Name, len(rc.MotionGroups))
			return nil
		},
	}
}

func newRunCmd(out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "connect every motion group and block until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := loadRunConfig()
			if err != nil {
				return err
			}
			mgr, err := rc.ToRunManager()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := mgr.RunAll(ctx); err != nil {
				return err
			}
			rlog.Banner("bapsfmotion: run %q online, %d motion group(s)", mgr.Name(), len(rc.MotionGroups))

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			<-sig

			rlog.Info("bapsfmotion: shutting down")
			mgr.TerminateAll(time.Duration(drainSecs * float64(time.Second)))
			return nil
		},
	}
	cmd.Flags().Float64Var(&drainSecs, "drain", 6, "seconds to allow in-flight moves to settle on shutdown")
	return cmd
}

func newMoveCmd(out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move",
		Short: "move one motion group to a motion-list index",
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := loadRunConfig()
			if err != nil {
				return err
			}
			mgr, err := rc.ToRunManager()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := mgr.RunAll(ctx); err != nil {
				return err
			}
			defer mgr.TerminateAll(time.Duration(drainSecs * float64(time.Second)))

			g, err := mgr.Get(groupID)
			if err != nil {
				return err
			}
			if err := g.MoveToIndex(ctx, moveIndex); err != nil {
				return err
			}
			fmt.Fprintf(out, "bapsfmotion: %s moved to index %d\n", groupID, moveIndex)
			return nil
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "motion group id")
	cmd.Flags().IntVar(&moveIndex, "index", 0, "motion-list index to move to")
	cmd.MarkFlagRequired("group")
	return cmd
}

func newPositionCmd(out, errOut io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "report one motion group's current motion-space position",
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := loadRunConfig()
			if err != nil {
				return err
			}
			mgr, err := rc.ToRunManager()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := mgr.RunAll(ctx); err != nil {
				return err
			}
			defer mgr.TerminateAll(time.Duration(drainSecs * float64(time.Second)))

			g, err := mgr.Get(groupID)
			if err != nil {
				return err
			}
			pos, err := g.Position(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "bapsfmotion: %s position: %v\n", groupID, pos)
			return nil
		},
	}
	cmd.Flags().StringVar(&groupID, "group", "", "motion group id")
	cmd.MarkFlagRequired("group")
	return cmd
}
