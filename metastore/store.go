// Package metastore implements the Metadata Store (§4.1): a bbolt-backed,
// indexed catalog of every virtual inode a mount will serve, populated once
// by the scanner and read-only for the rest of the mount's lifetime. The
// design follows rclone's backend/cache.Persistent — JSON-encoded values in
// bbolt buckets keyed by big-endian integers for free numeric ordering —
// rather than a hand-rolled index, because the pack already shows exactly
// this pattern for exactly this kind of catalog.
package metastore

import (
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"

	"go.etcd.io/bbolt"

	"github.com/scfs-dev/scfs/scfserr"
)

const (
	bucketInodes   = "inodes"
	bucketByName   = "byName"
	bucketChildren = "children"

	// bucketChildOrdinals holds, per parent, a nested bucket keyed by a
	// dense 0-based sequence number assigned at Insert time (bbolt's
	// Bucket.NextSequence) mapping straight to an ino. It exists only so
	// Children can Cursor.Seek directly to a page's first entry instead of
	// walking every preceding key, since the natural (part, ino) ordering
	// in bucketChildren carries no relationship to an arbitrary caller
	// offset.
	bucketChildOrdinals = "childOrdinals"
)

// Store is the process-local Metadata Store for one mount.
type Store struct {
	db   *bbolt.DB
	path string

	// nextIno is the monotonic inode allocator (§9: "use a monotonic
	// counter seeded past the small reserved values"). It lives in memory,
	// not in bbolt, since the store is rebuilt fresh on every mount.
	nextIno atomic.Uint64
}

// Open creates a fresh on-disk bbolt file at path and returns a Store ready
// for population. The caller owns path's lifetime; Close does not remove it
// (cmd removes the whole state directory on unmount, per §6.3).
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store at %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{bucketInodes, bucketByName, bucketChildren, bucketChildOrdinals} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing metadata store buckets: %w", err)
	}

	s := &Store{db: db, path: path}
	s.nextIno.Store(InoFirstFree)
	return s, nil
}

// Close closes the underlying bbolt file. It does not remove it from disk.
func (s *Store) Close() error {
	return s.db.Close()
}

// Remove closes the store and deletes its backing file, for the "private
// temp location, removed on unmount" contract in §6.3.
func (s *Store) Remove() error {
	if err := s.Close(); err != nil {
		return err
	}
	return os.Remove(s.path)
}

// AllocateIno returns the next free inode number. Only the scanner calls
// this, single-threaded, during population.
func (s *Store) AllocateIno() uint64 {
	return s.nextIno.Add(1) - 1
}

// Insert adds row to the catalog (§4.1 insert). Called only during the
// one-shot scan.
func (s *Store) Insert(row *Row) error {
	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("encoding row for ino %d: %w", row.Ino, err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		inodes := tx.Bucket([]byte(bucketInodes))
		if err := inodes.Put(itob(row.Ino), data); err != nil {
			return err
		}

		byName := tx.Bucket([]byte(bucketByName))
		if err := byName.Put(nameKey(row.ParentIno, row.FileName), itob(row.Ino)); err != nil {
			return err
		}

		children := tx.Bucket([]byte(bucketChildren))
		childBucket, err := children.CreateBucketIfNotExists(childrenBucketName(row.ParentIno))
		if err != nil {
			return err
		}
		if err := childBucket.Put(childKey(row.Part, row.Ino), itob(row.Ino)); err != nil {
			return err
		}

		ordinals := tx.Bucket([]byte(bucketChildOrdinals))
		ordBucket, err := ordinals.CreateBucketIfNotExists(childrenBucketName(row.ParentIno))
		if err != nil {
			return err
		}
		seq, err := ordBucket.NextSequence()
		if err != nil {
			return err
		}
		return ordBucket.Put(itob(seq-1), itob(row.Ino))
	})
}

// GetByIno answers §4.1's get_by_ino. Returns scfserr.NotFound when absent.
func (s *Store) GetByIno(ino uint64) (*Row, error) {
	var row Row
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketInodes)).Get(itob(ino))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &row)
	})
	if err != nil {
		return nil, fmt.Errorf("reading ino %d: %w", ino, err)
	}
	if !found {
		return nil, scfserr.NotFound
	}
	return &row, nil
}

// Lookup answers §4.1's lookup: a single byName Get followed by an inodes
// Get, both O(log n) under bbolt's B+tree.
func (s *Store) Lookup(parentIno uint64, fileName []byte) (*Row, error) {
	var ino uint64
	found := false

	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketByName)).Get(nameKey(parentIno, fileName))
		if v == nil {
			return nil
		}
		found = true
		ino = btoi(v)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("looking up %s under ino %d: %w", fileName, parentIno, err)
	}
	if !found {
		return nil, scfserr.NotFound
	}
	return s.GetByIno(ino)
}

// Children answers §4.1's children: Cursor.Seek jumps straight to the
// ordinal bucket key for offset, then Next walks forward exactly limit
// times, so a page costs O(log n + limit) rather than O(offset) — the
// per-parent ordinal bucket built alongside bucketChildren exists
// specifically to make that seek meaningful, since the (part, ino) keys in
// bucketChildren carry no relationship to a caller-supplied offset.
func (s *Store) Children(parentIno uint64, offset, limit int) ([]*Row, error) {
	var inos []uint64

	err := s.db.View(func(tx *bbolt.Tx) error {
		ordinals := tx.Bucket([]byte(bucketChildOrdinals))
		ordBucket := ordinals.Bucket(childrenBucketName(parentIno))
		if ordBucket == nil {
			return nil
		}

		c := ordBucket.Cursor()
		for k, v := c.Seek(itob(uint64(offset))); k != nil; k, v = c.Next() {
			if limit > 0 && len(inos) >= limit {
				break
			}
			inos = append(inos, btoi(v))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing children of ino %d: %w", parentIno, err)
	}

	rows := make([]*Row, 0, len(inos))
	for _, ino := range inos {
		row, err := s.GetByIno(ino)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ChildCount reports the number of children currently indexed under
// parentIno. The Directory Lister does not call it; ReadDir stops when a
// Children page comes back shorter than its limit.
func (s *Store) ChildCount(parentIno uint64) (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		children := tx.Bucket([]byte(bucketChildren))
		childBucket := children.Bucket(childrenBucketName(parentIno))
		if childBucket == nil {
			return nil
		}
		n = childBucket.Stats().KeyN
		return nil
	})
	return n, err
}
