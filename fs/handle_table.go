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
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/scfs-dev/scfs/cfg"
	"github.com/scfs-dev/scfs/metastore"
)

// chunkDescriptor is one entry of a CatFS open-file's prebuilt chunk list
// (§3.3): the chunk's file name within the mirror directory, its size, and
// its cumulative offset within the virtual concatenated file.
type chunkDescriptor struct {
	name       string
	size       uint64
	cumulative uint64
}

// openFile is the Handle Table's record for one open(ino) call (§4.3,
// §3.3). In split mode it describes a single chunk's byte range within its
// backing file; in cat mode it carries the prebuilt, ordered chunk list a
// read fans out across.
type openFile struct {
	row *metastore.Row

	// Split mode.
	hostPath    string // the original file's absolute host path
	chunkOffset uint64 // part * blockSize
	chunkSize   uint64 // this chunk's logical length L

	// Cat mode.
	mirrorDir string
	chunks    []chunkDescriptor
}

// openForRead materializes the derived state an open(ino) call needs (§4.3:
// "open materializes any derived state ... so that subsequent reads are
// lock-free on the table except for the short get"). For CatFS this means
// listing the backing chunk directory once, up front.
func openForRead(mode cfg.Mode, blockSize uint64, row *metastore.Row) (*openFile, error) {
	switch mode {
	case cfg.ModeSplit:
		return &openFile{
			row:         row,
			hostPath:    string(row.Path),
			chunkOffset: row.Part * blockSize,
			chunkSize:   row.Size,
		}, nil

	case cfg.ModeCat:
		dir := string(row.Path)
		if info, err := os.Lstat(dir); err == nil && info.Mode().IsRegular() {
			// A loose regular file CatScan exposed as-is: read it as a
			// single chunk.
			return &openFile{row: row, mirrorDir: filepath.Dir(dir), chunks: []chunkDescriptor{
				{name: filepath.Base(dir), size: uint64(info.Size())},
			}}, nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("listing chunk directory %s: %w", dir, err)
		}

		chunks := make([]chunkDescriptor, 0, len(entries))
		for _, e := range entries {
			info, err := os.Lstat(filepath.Join(dir, e.Name()))
			if err != nil {
				return nil, fmt.Errorf("stat chunk %s: %w", e.Name(), err)
			}
			chunks = append(chunks, chunkDescriptor{name: e.Name(), size: uint64(info.Size())})
		}
		sortChunksNumerically(chunks)

		var cum uint64
		for i := range chunks {
			chunks[i].cumulative = cum
			cum += chunks[i].size
		}

		return &openFile{row: row, mirrorDir: dir, chunks: chunks}, nil

	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func sortChunksNumerically(chunks []chunkDescriptor) {
	less := func(i, j int) bool {
		a, errA := strconv.ParseUint(chunks[i].name, 10, 64)
		b, errB := strconv.ParseUint(chunks[j].name, 10, 64)
		if errA == nil && errB == nil {
			return a < b
		}
		return chunks[i].name < chunks[j].name
	}
	// Insertion sort: chunk directories are small enough in practice
	// (bounded by blocksize-driven fan-out of a single file) that this
	// avoids pulling in sort.Slice's reflection-based comparator for a list
	// that is already nearly ordered by os.ReadDir's lexicographic return.
	for i := 1; i < len(chunks); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			chunks[j], chunks[j-1] = chunks[j-1], chunks[j]
		}
	}
}

// OpenFile answers the HT's open(ino) (§4.3).
func (fs *fileSystem) OpenFile(op *fuseops.OpenFileOp) error {
	in, err := fs.inodeFor(op.Inode)
	if err != nil {
		return err
	}

	of, err := openForRead(fs.mode, fs.blockSize, in.Row())
	if err != nil {
		return err
	}

	handle := fs.allocateHandleID()
	fs.mu.Lock()
	fs.handles[handle] = of
	fs.mu.Unlock()

	op.Handle = handle
	return nil
}

// ReleaseFileHandle answers the HT's release(fh) (§4.3).
func (fs *fileSystem) ReleaseFileHandle(op *fuseops.ReleaseFileHandleOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.handles, op.Handle)
	return nil
}

func (fs *fileSystem) getOpenFile(h fuseops.HandleID) (*openFile, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	of, ok := fs.handles[h].(*openFile)
	return of, ok
}
