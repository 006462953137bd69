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

package fs

import (
	"sync"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/scfs-dev/scfs/metastore"
)

// dirHandle is the Directory Lister's record for one open(dir) call (§4.5).
// Unlike gcsfuse's dirHandle, there is no continuation token to track: the
// Metadata Store answers a (parentIno, offset, limit) page query directly,
// so all a handle needs to remember is which directory it lists.
type dirHandle struct {
	mu  sync.Mutex
	ino fuseops.InodeID
}

// dotOffset and dotdotOffset are the synthetic "." and ".." entries every
// directory reports before any Metadata Store child (§4.5).
const (
	dotOffset    fuseops.DirOffset = 1
	dotdotOffset fuseops.DirOffset = 2
)

func direntType(row *metastore.Row) fuseutil.DirentType {
	switch row.Kind {
	case metastore.KindDir:
		return fuseutil.DT_Directory
	case metastore.KindSymlink:
		return fuseutil.DT_Link
	default:
		return fuseutil.DT_File
	}
}

// OpenDir answers the DL's open(ino) (§4.5).
func (fs *fileSystem) OpenDir(op *fuseops.OpenDirOp) error {
	if _, err := fs.inodeFor(op.Inode); err != nil {
		return err
	}

	handle := fs.allocateHandleID()
	dh := &dirHandle{ino: op.Inode}

	fs.mu.Lock()
	fs.handles[handle] = dh
	fs.mu.Unlock()

	op.Handle = handle
	return nil
}

// ReadDir answers the DL's readdir(fh, offset, size) (§4.5): synthetic "."
// and ".." at offsets 1 and 2, then a page of Metadata Store children
// starting at offset-2, using fs.dirReadAhead as the page size for the
// underlying Children query regardless of how small a page the kernel asked
// for in op.Size.
func (fs *fileSystem) ReadDir(op *fuseops.ReadDirOp) error {
	fs.mu.Lock()
	dh, ok := fs.handles[op.Handle].(*dirHandle)
	fs.mu.Unlock()
	if !ok {
		return fuse.EIO
	}

	dh.mu.Lock()
	defer dh.mu.Unlock()

	var data []byte
	offset := op.Offset

	if offset < dotOffset {
		data = fuseutil.AppendDirent(data, fuseutil.Dirent{
			Offset: dotOffset,
			Inode:  dh.ino,
			Name:   ".",
			Type:   fuseutil.DT_Directory,
		})
		if len(data) > op.Size {
			data = data[:op.Size]
			op.Data = data
			return nil
		}
		offset = dotOffset
	}

	if offset < dotdotOffset {
		self, err := fs.store.GetByIno(uint64(dh.ino))
		if err != nil {
			return err
		}
		parentIno := self.ParentIno
		if dh.ino == fuseops.InodeID(metastore.InoRoot) {
			parentIno = metastore.InoRoot
		}
		data = fuseutil.AppendDirent(data, fuseutil.Dirent{
			Offset: dotdotOffset,
			Inode:  fuseops.InodeID(parentIno),
			Name:   "..",
			Type:   fuseutil.DT_Directory,
		})
		if len(data) > op.Size {
			data = data[:op.Size]
			op.Data = data
			return nil
		}
		offset = dotdotOffset
	}

	childOffset := int(offset - dotdotOffset)
	limit := fs.dirReadAhead
	if limit <= 0 {
		limit = 1
	}

	for {
		rows, err := fs.store.Children(uint64(dh.ino), childOffset, limit)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			break
		}

		full := false
		for i, row := range rows {
			d := fuseutil.AppendDirent(data, fuseutil.Dirent{
				Offset: offset + fuseops.DirOffset(i) + 1,
				Inode:  fuseops.InodeID(row.Ino),
				Name:   string(row.FileName),
				Type:   direntType(row),
			})
			if len(d) > op.Size {
				full = true
				break
			}
			data = d
		}

		childOffset += len(rows)
		offset += fuseops.DirOffset(len(rows))

		if full || len(rows) < limit {
			break
		}
	}

	op.Data = data
	return nil
}

// ReleaseDirHandle answers the DL's release(fh) (§4.5).
func (fs *fileSystem) ReleaseDirHandle(op *fuseops.ReleaseDirHandleOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.handles, op.Handle)
	return nil
}
