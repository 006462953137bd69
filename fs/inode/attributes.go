// Copyright 2015 Google Inc. All Rights Reserved.
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

package inode

import (
	"os"
	"time"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/scfs-dev/scfs/metastore"
)

// AttrParams carries the mount-wide values the Attribute Resolver needs but
// that no individual row stores: ownership and the permission bits the mount
// was given for files and directories. It carries no block size, and
// Attributes sets no block count.
//
// FilePerms/DirPerms override the scanned row's own permission bits
// (row.Perm) the same way gcsfuse's own file/dir permission flags override
// the GCS object's default mode: a read-only mount reports one mount-wide
// mode per kind rather than whatever the mirrored host files happened to
// carry, so every file (or directory) looks the same to callers regardless
// of how permissive or restrictive the source tree's own bits were.
type AttrParams struct {
	Uid uint32
	Gid uint32

	FilePerms os.FileMode
	DirPerms  os.FileMode
}

// Attributes implements the Attribute Resolver (§4.6): it turns a row into
// the stat-like record the kernel asked for, entirely from data the scanner
// already captured, so answering getattr never re-stats the mirror. Symlinks
// report the target's byte length as Size and ModeSymlink in Mode, the way
// gcsfuse's SymlinkInode.Attributes does; directories and regular files
// (including SplitFS chunks and vdirs) share one path since a row's Kind and
// Size already encode every distinction the resolver needs to make.
func Attributes(row *metastore.Row, p AttrParams) fuseops.InodeAttributes {
	var mode os.FileMode

	switch row.Kind {
	case metastore.KindDir:
		mode = p.DirPerms | os.ModeDir
	case metastore.KindSymlink:
		mode = p.FilePerms | os.ModeSymlink
	case metastore.KindFile:
		mode = p.FilePerms
	}

	nlink := uint32(1)
	if row.Kind == metastore.KindDir {
		// A conventional stat nlink for a directory (self + ".." from each
		// child directory) is not tracked by the scanner; 2 is the
		// customary floor callers expect and is what gcsfuse's DirInode
		// reports for its own synthetic directories.
		nlink = 2
	}

	mtime := time.Unix(0, row.ModTimeUnixNano)

	return fuseops.InodeAttributes{
		Size:   row.Size,
		Nlink:  nlink,
		Mode:   mode,
		Uid:    p.Uid,
		Gid:    p.Gid,
		Atime:  mtime,
		Mtime:  mtime,
		Ctime:  mtime,
		Crtime: mtime,
	}
}

// Target returns the symlink target for a KindSymlink row (§6.1 readlink).
func Target(row *metastore.Row) string {
	return string(row.LinkTarget)
}
