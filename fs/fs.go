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

// Package fs is the FUSE adapter shell: it wires the Metadata Store, Handle
// Table, Read Engine, Directory Lister and Attribute Resolver together
// behind a github.com/jacobsa/fuse FileSystem implementation, the way
// gcsfuse's fs package wires GCS, the lease pool and the inode map behind
// the same library.
package fs

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/scfs-dev/scfs/cfg"
	"github.com/scfs-dev/scfs/fs/inode"
	"github.com/scfs-dev/scfs/logger"
	"github.com/scfs-dev/scfs/metastore"
	"github.com/scfs-dev/scfs/scfserr"
)

// ServerConfig is everything NewServer needs beyond the populated Metadata
// Store: ownership, permission bits and cache TTLs, mirroring the shape of
// gcsfuse's own ServerConfig.
type ServerConfig struct {
	Store *metastore.Store

	Mode cfg.Mode

	Uid uint32
	Gid uint32

	FilePerms os.FileMode
	DirPerms  os.FileMode

	EntryTimeout time.Duration
	AttrTimeout  time.Duration

	DirReadAheadEntries int

	// BlockSize is the SplitScan chunk size; required in split mode, ignored
	// in cat mode.
	BlockSize uint64
}

// NewServer builds a fuse.Server ready to be passed to fuse.Mount. It is the
// SCFS analogue of gcsfuse's fs.NewServer: validate permission bits, build
// the root inode's wrapper, and wrap the fileSystem value in
// fuseutil.NewFileSystemServer.
func NewServer(c ServerConfig) (fuse.Server, error) {
	if c.FilePerms&^os.ModePerm != 0 {
		return nil, fmt.Errorf("illegal file perms: %v", c.FilePerms)
	}
	if c.DirPerms&^os.ModePerm != 0 {
		return nil, fmt.Errorf("illegal dir perms: %v", c.DirPerms)
	}
	if c.Mode == cfg.ModeSplit && c.BlockSize == 0 {
		return nil, fmt.Errorf("split mode requires a non-zero block size")
	}

	fs := &fileSystem{
		store: c.Store,
		mode:  c.Mode,

		attrParams: inode.AttrParams{
			Uid:       c.Uid,
			Gid:       c.Gid,
			FilePerms: c.FilePerms,
			DirPerms:  c.DirPerms,
		},

		entryTimeout: c.EntryTimeout,
		attrTimeout:  c.AttrTimeout,

		dirReadAhead: c.DirReadAheadEntries,
		blockSize:    c.BlockSize,

		inodes:       make(map[fuseops.InodeID]*inode.Inode),
		handles:      make(map[fuseops.HandleID]interface{}),
		nextHandleID: 1,
	}

	rootRow, err := c.Store.GetByIno(metastore.InoRoot)
	if err != nil {
		return nil, fmt.Errorf("loading root row: %w", err)
	}
	root := inode.New(rootRow)
	root.IncrementLookupCount()
	fs.inodes[root.ID()] = root

	return fuseutil.NewFileSystemServer(fs), nil
}

// LOCK ORDERING
//
// Let FS be the fileSystem lock. Define a strict partial order < as follows:
//
//  1. For any inode lock I, FS < I.
//
// Acquire A then B only if A < B: an inode lock is only ever taken while
// already holding the fileSystem lock (ForgetInode), and never more than one
// inode lock at a time. A directory handle lock is never held together with
// any other lock: ReadDir releases the fileSystem lock before taking it.
// Unlike gcsfuse's fs.go, no operation blocks on a remote network call, so
// holding the fileSystem lock across an inode lock costs nothing here.
type fileSystem struct {
	fuseutil.NotImplementedFileSystem

	store *metastore.Store
	mode  cfg.Mode

	attrParams inode.AttrParams

	entryTimeout time.Duration
	attrTimeout  time.Duration

	dirReadAhead int
	blockSize    uint64

	// mu guards everything below, including every inode's lookup count. Per
	// the lock ordering comment, it is the outermost lock: acquire it before
	// an inode's own lock if both are needed.
	mu sync.Mutex

	// inodes lazily wraps Metadata Store rows in *inode.Inode on first
	// reference, and never evicts a live entry until its lookup count hits
	// zero. Rows themselves are never destroyed; only the wrapper is.
	//
	// GUARDED_BY(mu)
	inodes map[fuseops.InodeID]*inode.Inode

	// handles holds *dirHandle and *openFile values, the Directory Lister's
	// and Handle Table's live records respectively.
	//
	// GUARDED_BY(mu)
	handles map[fuseops.HandleID]interface{}

	// GUARDED_BY(mu)
	nextHandleID fuseops.HandleID
}

// inodeFor returns the wrapper for ino, minting one from the Metadata Store
// row if this is the first reference this mount has made to it. Unlike
// gcsfuse's mintInode, there is no generation to branch from: the row
// already exists, fully formed, from the one-shot scan.
func (fs *fileSystem) inodeFor(ino fuseops.InodeID) (*inode.Inode, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if in, ok := fs.inodes[ino]; ok {
		return in, nil
	}

	row, err := fs.store.GetByIno(uint64(ino))
	if err != nil {
		return nil, err
	}
	in := inode.New(row)
	fs.inodes[ino] = in
	return in, nil
}

func (fs *fileSystem) allocateHandleID() fuseops.HandleID {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	id := fs.nextHandleID
	fs.nextHandleID++
	return id
}

func (fs *fileSystem) StatFS(op *fuseops.StatFSOp) error {
	return nil
}

func (fs *fileSystem) LookUpInode(op *fuseops.LookUpInodeOp) error {
	row, err := fs.store.Lookup(uint64(op.Parent), []byte(op.Name))
	if err != nil {
		if scfserr.IsNotFound(err) {
			return fuse.ENOENT
		}
		logger.Errorf("LookUpInode(%d, %q): %v", op.Parent, op.Name, err)
		return scfserr.IoError
	}

	fs.mu.Lock()
	child, ok := fs.inodes[fuseops.InodeID(row.Ino)]
	if !ok {
		child = inode.New(row)
		fs.inodes[child.ID()] = child
	}
	child.IncrementLookupCount()
	fs.mu.Unlock()

	op.Entry.Child = child.ID()
	op.Entry.Attributes = inode.Attributes(row, fs.attrParams)
	op.Entry.EntryExpiration = time.Now().Add(fs.entryTimeout)
	op.Entry.AttributesExpiration = time.Now().Add(fs.attrTimeout)
	return nil
}

func (fs *fileSystem) GetInodeAttributes(op *fuseops.GetInodeAttributesOp) error {
	in, err := fs.inodeFor(op.Inode)
	if err != nil {
		if scfserr.IsNotFound(err) {
			return fuse.ENOENT
		}
		return scfserr.IoError
	}

	op.Attributes = inode.Attributes(in.Row(), fs.attrParams)
	op.AttributesExpiration = time.Now().Add(fs.attrTimeout)
	return nil
}

// SetInodeAttributes answers the one legitimate caller of this op on a
// read-only mount: the kernel re-querying attributes it already has (no
// fields set). Any actual attribute change request is rejected.
func (fs *fileSystem) SetInodeAttributes(op *fuseops.SetInodeAttributesOp) error {
	if op.Size != nil || op.Mode != nil || op.Atime != nil || op.Mtime != nil {
		return scfserr.Unsupported
	}

	in, err := fs.inodeFor(op.Inode)
	if err != nil {
		if scfserr.IsNotFound(err) {
			return fuse.ENOENT
		}
		return scfserr.IoError
	}
	op.Attributes = inode.Attributes(in.Row(), fs.attrParams)
	op.AttributesExpiration = time.Now().Add(fs.attrTimeout)
	return nil
}

func (fs *fileSystem) ForgetInode(op *fuseops.ForgetInodeOp) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	in, ok := fs.inodes[op.ID]
	if !ok {
		return nil
	}

	in.Lock()
	forgotten := in.DecrementLookupCount(op.N)
	in.Unlock()

	if forgotten {
		delete(fs.inodes, op.ID)
	}
	return nil
}

func (fs *fileSystem) ReadSymlink(op *fuseops.ReadSymlinkOp) error {
	in, err := fs.inodeFor(op.Inode)
	if err != nil {
		if scfserr.IsNotFound(err) {
			return fuse.ENOENT
		}
		return scfserr.IoError
	}
	op.Target = inode.Target(in.Row())
	return nil
}
