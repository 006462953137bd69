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

// Package inode wraps a metadata-store row with the bookkeeping the kernel's
// lookup-count protocol requires. Unlike gcsfuse's inode package, there is no
// generation to clobber and no object to delete: every Inode here is backed
// by a row written once during the scan and kept for the whole mount, so the
// only state an Inode carries beyond the row is its lookup count.
package inode

import (
	"sync"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/scfs-dev/scfs/metastore"
)

// Inode is the in-memory handle the fs package's inode table hands out for a
// Metadata Store row. The table holds at most one Inode for a given ino at
// a time; once an evicted ino is referenced again, a fresh Inode is minted.
type Inode struct {
	mu sync.Mutex

	row *metastore.Row
	lc  lookupCount
}

// New wraps row. Initial lookup count is zero; a caller that hands the inode
// to the kernel through a lookup increments it once, immediately after
// minting, the way gcsfuse's lookUpOrCreateInodeIfNotStale does. Wrappers
// minted for getattr, open or opendir keep a zero count.
func New(row *metastore.Row) *Inode {
	in := &Inode{row: row}
	return in
}

func (in *Inode) Lock()   { in.mu.Lock() }
func (in *Inode) Unlock() { in.mu.Unlock() }

// ID returns the kernel-visible inode number.
func (in *Inode) ID() fuseops.InodeID {
	return fuseops.InodeID(in.row.Ino)
}

// Name returns the final path component, as recorded by the scanner.
func (in *Inode) Name() string {
	return string(in.row.FileName)
}

// Row returns the backing Metadata Store row. Safe to call without holding
// the inode's lock: rows are immutable for the life of the mount (§3.2).
func (in *Inode) Row() *metastore.Row {
	return in.row
}

// IncrementLookupCount records one more kernel reference to this inode.
func (in *Inode) IncrementLookupCount() {
	in.lc.inc(1)
}

// DecrementLookupCount records the kernel forgetting n references. It
// reports forgotten = true once the count reaches zero, so the inode table
// knows it may evict its map entry — the backing row stays in the Metadata
// Store regardless, since rows never depend on in-memory Inode lifetime.
func (in *Inode) DecrementLookupCount(n uint64) (forgotten bool) {
	return in.lc.dec(n)
}
