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

package cfg

import (
	"os"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// BindFlags registers every mount flag shared by the split and cat
// subcommands on flagSet and binds each one into v under the same key
// Config's mapstructure tags expect, the way gcsfuse's generated
// cfg.BindFlags wires its own flag set. Callers pass a private *viper.Viper
// per subcommand rather than viper's package-level instance, since scfs
// (unlike gcsfuse) has two subcommands whose flag sets would otherwise
// stomp on one shared global binding.
func BindFlags(v *viper.Viper, flagSet *pflag.FlagSet) error {
	var err error

	flagSet.StringP("blocksize", "b", "2M", "Chunk size for split mode (accepts K/M/G/T suffixes).")
	if err = v.BindPFlag("blocksize", flagSet.Lookup("blocksize")); err != nil {
		return err
	}

	// Defaulted to the invoking user's real uid/gid, not a sentinel: Config's
	// fields are unsigned, and mapstructure rejects decoding a negative int
	// into a uint32, so an unset flag must resolve to a real value here
	// rather than downstream in DefaultConfig.
	flagSet.Uint32P("uid", "", uint32(os.Getuid()), "Owning UID reported for every inode; defaults to the current user.")
	if err = v.BindPFlag("uid", flagSet.Lookup("uid")); err != nil {
		return err
	}

	flagSet.Uint32P("gid", "", uint32(os.Getgid()), "Owning GID reported for every inode; defaults to the current group.")
	if err = v.BindPFlag("gid", flagSet.Lookup("gid")); err != nil {
		return err
	}

	flagSet.StringP("file-perms", "", "0444", "Permission bits reported for files, in octal.")
	if err = v.BindPFlag("file-perms", flagSet.Lookup("file-perms")); err != nil {
		return err
	}

	flagSet.StringP("dir-perms", "", "0555", "Permission bits reported for directories, in octal.")
	if err = v.BindPFlag("dir-perms", flagSet.Lookup("dir-perms")); err != nil {
		return err
	}

	flagSet.IntP("dir-readahead-entries", "", 512, "Metadata Store page size used internally by ReadDir.")
	if err = v.BindPFlag("dir-readahead-entries", flagSet.Lookup("dir-readahead-entries")); err != nil {
		return err
	}

	flagSet.DurationP("entry-timeout", "", 24*60*60*1e9, "Kernel dentry cache TTL.")
	if err = v.BindPFlag("entry-timeout", flagSet.Lookup("entry-timeout")); err != nil {
		return err
	}

	flagSet.DurationP("attr-timeout", "", 24*60*60*1e9, "Kernel attribute cache TTL.")
	if err = v.BindPFlag("attr-timeout", flagSet.Lookup("attr-timeout")); err != nil {
		return err
	}

	flagSet.StringP("state-path", "", "", "Directory to hold the Metadata Store's database file; defaults to a private temp directory removed on unmount.")
	if err = v.BindPFlag("state-path", flagSet.Lookup("state-path")); err != nil {
		return err
	}

	flagSet.BoolP("daemon", "d", false, "Mount and detach into the background.")
	if err = v.BindPFlag("daemonize", flagSet.Lookup("daemon")); err != nil {
		return err
	}

	flagSet.BoolP("mkdir", "", false, "Create the mount point if it does not already exist.")
	if err = v.BindPFlag("mkdir", flagSet.Lookup("mkdir")); err != nil {
		return err
	}

	flagSet.StringSliceP("o", "o", nil, "Mount option, in the form name or name=value. May be repeated.")
	if err = v.BindPFlag("mount-options", flagSet.Lookup("o")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "Log line format: text or json.")
	if err = v.BindPFlag("log-format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-level", "", "info", "Minimum log severity: trace, debug, info, warn, error, off.")
	if err = v.BindPFlag("log-level", flagSet.Lookup("log-level")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Write logs here instead of stderr.")
	if err = v.BindPFlag("log-file", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	return nil
}
