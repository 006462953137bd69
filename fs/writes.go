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

// Every mutating FUSE op scfs actually wires up is rejected with the
// read-only-filesystem errno (§6.1, §7 Unsupported) rather than the ENOSYS
// fuseutil.NotImplementedFileSystem would otherwise answer with, since EROFS
// is what userspace tools check for on a deliberately read-only mount.
package fs

import (
	"github.com/jacobsa/fuse/fuseops"

	"github.com/scfs-dev/scfs/scfserr"
)

func (fs *fileSystem) MkDir(op *fuseops.MkDirOp) error {
	return scfserr.Unsupported
}

func (fs *fileSystem) CreateFile(op *fuseops.CreateFileOp) error {
	return scfserr.Unsupported
}

func (fs *fileSystem) CreateSymlink(op *fuseops.CreateSymlinkOp) error {
	return scfserr.Unsupported
}

func (fs *fileSystem) RmDir(op *fuseops.RmDirOp) error {
	return scfserr.Unsupported
}

func (fs *fileSystem) Unlink(op *fuseops.UnlinkOp) error {
	return scfserr.Unsupported
}

func (fs *fileSystem) WriteFile(op *fuseops.WriteFileOp) error {
	return scfserr.Unsupported
}

func (fs *fileSystem) Rename(op *fuseops.RenameOp) error {
	return scfserr.Unsupported
}

func (fs *fileSystem) SetXattr(op *fuseops.SetXattrOp) error {
	return scfserr.Unsupported
}

func (fs *fileSystem) RemoveXattr(op *fuseops.RemoveXattrOp) error {
	return scfserr.Unsupported
}
