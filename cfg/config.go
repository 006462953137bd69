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

// Package cfg holds the resolved configuration for a scfs mount: the mode
// (split or cat), the chunk size, the mirror and mount paths, and the
// ownership/permission/timeout values the Attribute Resolver hands back to
// the kernel. Values here are populated by cmd from pflag/viper and validated
// once before the filesystem server is constructed.
package cfg

import (
	"os"
	"time"
)

// Mode selects which half of the SplitFS/CatFS pair a mount implements.
type Mode string

const (
	ModeSplit Mode = "split"
	ModeCat   Mode = "cat"
)

// Config is the fully resolved set of knobs for one mount. mapstructure tags
// let viper decode flags/env/config-file values directly into it, the way
// gcsfuse's cfg.Config is bound in cmd/root.go.
type Config struct {
	Mode Mode `mapstructure:"mode"`

	// BlockSizeBytes is the chunk size B used by SplitScan (split mode
	// only; ignored, and must be zero, in cat mode).
	BlockSizeBytes uint64 `mapstructure:"blocksize"`

	MirrorRoot string `mapstructure:"mirror-root"`
	MountPoint string `mapstructure:"mount-point"`

	Uid uint32 `mapstructure:"uid"`
	Gid uint32 `mapstructure:"gid"`

	FilePerms os.FileMode `mapstructure:"file-perms"`
	DirPerms  os.FileMode `mapstructure:"dir-perms"`

	// DirHandleReadAheadEntries bounds how many entries the Directory
	// Lister pulls from the Metadata Store per internal page fetch. It is
	// not visible to the kernel; it only shapes how ReadDir refills its
	// buffer between fuseutil.AppendDirent calls.
	DirHandleReadAheadEntries int `mapstructure:"dir-readahead-entries"`

	EntryTimeout time.Duration `mapstructure:"entry-timeout"`
	AttrTimeout  time.Duration `mapstructure:"attr-timeout"`

	// StatePath is the directory the bbolt-backed Metadata Store's file
	// lives in. Empty means a process-private directory is created with
	// os.MkdirTemp and removed on unmount.
	StatePath string `mapstructure:"state-path"`

	Daemonize bool `mapstructure:"daemonize"`
	MkdirMnt  bool `mapstructure:"mkdir"`

	MountOptions []string `mapstructure:"mount-options"`

	LogFormat string `mapstructure:"log-format"`
	LogLevel  string `mapstructure:"log-level"`
	LogFile   string `mapstructure:"log-file"`
}

// DefaultConfig returns the Config a bare `scfs split <mirror> <mountpoint>`
// invocation resolves to before flags are applied.
func DefaultConfig() Config {
	return Config{
		BlockSizeBytes:            2 * 1024 * 1024,
		Uid:                       uint32(os.Getuid()),
		Gid:                       uint32(os.Getgid()),
		FilePerms:                 0o444,
		DirPerms:                  0o555,
		DirHandleReadAheadEntries: 512,
		EntryTimeout:              24 * time.Hour,
		AttrTimeout:               24 * time.Hour,
		LogFormat:                 "text",
		LogLevel:                  "info",
	}
}
