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

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/jacobsa/daemonize"
	"github.com/jacobsa/fuse"

	"github.com/scfs-dev/scfs/cfg"
	"github.com/scfs-dev/scfs/fs"
	"github.com/scfs-dev/scfs/logger"
	"github.com/scfs-dev/scfs/metastore"
	"github.com/scfs-dev/scfs/scanner"
)

// scfsInBackgroundEnvVar marks a process as the re-exec'd daemon child, the
// way gcsfuse's GCSFuseInBackgroundMode env var distinguishes the daemon
// from the process the user invoked directly.
const scfsInBackgroundEnvVar = "SCFS_IN_BACKGROUND_MODE"

// runMount is the shared body of the split and cat subcommands: validate,
// daemonize if asked, build the Metadata Store from a one-shot scan, and
// mount. It mirrors the split between gcsfuse's mountWithArgs (validation
// and setup) and its ExecuteLegacyMain daemonizing dance, collapsed into one
// function since scfs has no bucket/credential setup to share across them.
func runMount(c cfg.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}

	logFile := os.Stderr
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logFile = f
	}
	logger.Init(logger.Config{Format: c.LogFormat, Level: c.LogLevel, Writer: logFile})

	if c.MkdirMnt {
		if err := os.MkdirAll(c.MountPoint, 0o755); err != nil {
			return fmt.Errorf("creating mount point: %w", err)
		}
	}

	if c.Daemonize && os.Getenv(scfsInBackgroundEnvVar) == "" {
		return daemonizeAndMount(c)
	}

	mfs, teardown, err := mountForeground(c)
	if err != nil {
		if os.Getenv(scfsInBackgroundEnvVar) != "" {
			if err2 := daemonize.SignalOutcome(err); err2 != nil {
				logger.Errorf("signaling mount failure to parent: %v", err2)
			}
		}
		return err
	}
	defer teardown()

	if os.Getenv(scfsInBackgroundEnvVar) != "" {
		if err2 := daemonize.SignalOutcome(nil); err2 != nil {
			logger.Errorf("signaling successful mount to parent: %v", err2)
		}
	}

	registerSIGINTHandler(mfs, c.MountPoint)
	logger.Infof("scfs mounted at %s", c.MountPoint)
	return mfs.Join(context.Background())
}

// daemonizeAndMount re-execs the current binary with the background-mode
// env var set, the way gcsfuse's runCLIApp re-execs itself with
// --foreground via daemonize.Run and waits for the child to signal the
// outcome over its status pipe. Unlike gcsfuse, which resolves its own
// binary path with kardianos/osext for GCS credential-helper reasons that
// don't apply here, scfs re-execs os.Args[0] directly.
func daemonizeAndMount(c cfg.Config) error {
	env := append(os.Environ(), fmt.Sprintf("%s=true", scfsInBackgroundEnvVar))
	if err := daemonize.Run(os.Args[0], os.Args[1:], env, os.Stdout); err != nil {
		return fmt.Errorf("daemonize.Run: %w", err)
	}

	logger.Infof("scfs mounted at %s", c.MountPoint)
	return nil
}

// mountForeground builds the Metadata Store, runs the one-shot scan, and
// mounts the FUSE server. It never daemonizes; runMount has already decided
// this process is the one that should actually serve requests.
//
// The returned teardown func closes the Metadata Store and, if its backing
// file lives in a private temp directory this call created (c.StatePath was
// empty), removes that directory, per §6.3's "private temp location, removed
// on unmount" contract. The caller must invoke it exactly once after the
// mount ends, on every path (clean unmount or otherwise) — this function
// itself only calls it on its own early-return error paths.
func mountForeground(c cfg.Config) (*fuse.MountedFileSystem, func(), error) {
	statePath := c.StatePath
	var rmDir func()
	if statePath == "" {
		dir, err := os.MkdirTemp("", "scfs-state-*")
		if err != nil {
			return nil, nil, fmt.Errorf("creating state directory: %w", err)
		}
		statePath = dir
		rmDir = func() { os.RemoveAll(dir) }
	}
	dbPath := statePath + "/scfs.db"

	store, err := metastore.Open(dbPath)
	if err != nil {
		if rmDir != nil {
			rmDir()
		}
		return nil, nil, fmt.Errorf("opening metadata store: %w", err)
	}
	teardown := func() {
		if err := store.Close(); err != nil {
			logger.Errorf("closing metadata store: %v", err)
		}
		if rmDir != nil {
			rmDir()
		}
	}

	logger.Infof("scanning %s in %s mode", c.MirrorRoot, c.Mode)
	switch c.Mode {
	case cfg.ModeSplit:
		err = scanner.SplitScan(store, c.MirrorRoot, c.BlockSizeBytes)
	case cfg.ModeCat:
		err = scanner.CatScan(store, c.MirrorRoot)
	default:
		err = fmt.Errorf("unknown mode %q", c.Mode)
	}
	if err != nil {
		teardown()
		return nil, nil, fmt.Errorf("scanning mirror: %w", err)
	}

	server, err := fs.NewServer(fs.ServerConfig{
		Store:               store,
		Mode:                c.Mode,
		Uid:                 c.Uid,
		Gid:                 c.Gid,
		FilePerms:           c.FilePerms,
		DirPerms:            c.DirPerms,
		EntryTimeout:        c.EntryTimeout,
		AttrTimeout:         c.AttrTimeout,
		DirReadAheadEntries: c.DirHandleReadAheadEntries,
		BlockSize:           c.BlockSizeBytes,
	})
	if err != nil {
		teardown()
		return nil, nil, fmt.Errorf("building fuse server: %w", err)
	}

	// Each -o value is "name" or "name=value".
	opts := make(map[string]string, len(c.MountOptions))
	for _, o := range c.MountOptions {
		name, value, _ := strings.Cut(o, "=")
		opts[name] = value
	}

	mfs, err := fuse.Mount(c.MountPoint, server, &fuse.MountConfig{Options: opts})
	if err != nil {
		teardown()
		return nil, nil, fmt.Errorf("mount: %w", err)
	}

	return mfs, teardown, nil
}

// registerSIGINTHandler lets the user unmount with Ctrl-C, the same
// behavior gcsfuse's registerSIGINTHandler gives its own mounts.
func registerSIGINTHandler(mfs *fuse.MountedFileSystem, mountPoint string) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, os.Interrupt)

	go func() {
		for range signalChan {
			logger.Info("received SIGINT, attempting to unmount...")
			if err := fuse.Unmount(mountPoint); err != nil {
				logger.Errorf("failed to unmount in response to SIGINT: %v", err)
				continue
			}
			logger.Infof("successfully unmounted in response to SIGINT.")
			return
		}
	}()
}
