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

import "fmt"

// lookupCount tracks how many times the kernel has asked us to remember an
// inode. Unlike gcsfuse's version, reaching zero destroys nothing — the
// Metadata Store row this Inode wraps is not owned by the Inode and is never
// freed mid-mount — it only reports that the fs package's inode table may
// evict its in-memory entry. External synchronization is required; the fs
// package's inode table makes every inc and dec while holding its own lock.
type lookupCount struct {
	count uint64
}

func (lc *lookupCount) inc(n uint64) {
	lc.count += n
}

func (lc *lookupCount) dec(n uint64) (forgotten bool) {
	if n > lc.count {
		panic(fmt.Sprintf("n is greater than lookup count: %v vs. %v", n, lc.count))
	}
	lc.count -= n
	return lc.count == 0
}
