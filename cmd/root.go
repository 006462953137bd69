// Copyright 2024 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd wires the split and cat subcommands to cfg.Config via cobra
// and viper, the way gcsfuse's cmd package wires its own flags to cfg.Config.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/scfs-dev/scfs/cfg"
)

var rootCmd = &cobra.Command{
	Use:   "scfs",
	Short: "Mount a mirror directory as a split or concatenated virtual view",
	Long: `scfs is a FUSE adapter with two modes: split mode presents each
file under a mirror directory as a virtual directory of fixed-size chunks,
and cat mode presents a directory of numbered chunks as a single virtual
file. The two are inverses of each other.`,
}

func init() {
	rootCmd.AddCommand(splitCmd)
	rootCmd.AddCommand(catCmd)
}

// Execute runs the root command, the package's single entry point for
// package main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveConfig unmarshals v's bound flags into a fresh cfg.Config seeded
// with cfg.DefaultConfig, the way gcsfuse's initConfig populates
// MountConfig, then fills in the mode and the positional paths, made
// absolute with filepath.Abs (symlinks in them are not resolved).
func resolveConfig(v *viper.Viper, mode cfg.Mode, mirrorRoot, mountPoint string) (cfg.Config, error) {
	var err error
	if mirrorRoot, err = filepath.Abs(mirrorRoot); err != nil {
		return cfg.Config{}, fmt.Errorf("resolving mirror path: %w", err)
	}
	if mountPoint, err = filepath.Abs(mountPoint); err != nil {
		return cfg.Config{}, fmt.Errorf("resolving mount point: %w", err)
	}

	c := cfg.DefaultConfig()
	if err := v.Unmarshal(&c, viper.DecodeHook(cfg.DecodeHook())); err != nil {
		return cfg.Config{}, fmt.Errorf("unmarshalling flags: %w", err)
	}

	c.Mode = mode
	c.MirrorRoot = mirrorRoot
	c.MountPoint = mountPoint

	if mode == cfg.ModeCat {
		c.BlockSizeBytes = 0
	}

	return c, nil
}
