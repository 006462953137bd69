// Package scanner implements the one-shot mirror walk (§4.2) that populates
// the Metadata Store before FUSE registration. SplitScan and CatScan are the
// two VirtualFs-style populate() variants §9 calls for: they differ only in
// how a host subtree is classified, and both share the same MS.
package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/scfs-dev/scfs/logger"
	"github.com/scfs-dev/scfs/metastore"
	"github.com/scfs-dev/scfs/scfserr"
)

// SplitScan walks mirrorRoot once and populates store with a SplitFS-shaped
// namespace: every directory becomes a directory row, every regular file
// becomes a virtual directory of blockSize-sized chunk rows, every symlink
// becomes a symlink row. Device files, FIFOs and sockets are silently
// skipped (§1 non-goals). Any I/O error walking the mirror is fatal.
func SplitScan(store *metastore.Store, mirrorRoot string, blockSize uint64) error {
	if blockSize == 0 {
		return scfserr.NewScanFatal("split_scan", fmt.Errorf("blocksize must be >= 1"))
	}

	info, err := os.Lstat(mirrorRoot)
	if err != nil {
		return scfserr.NewScanFatal("split_scan", fmt.Errorf("stat mirror root: %w", err))
	}
	if !info.IsDir() {
		return scfserr.NewScanFatal("split_scan", fmt.Errorf("mirror root %s is not a directory", mirrorRoot))
	}

	root := &metastore.Row{
		Ino:             metastore.InoRoot,
		ParentIno:       metastore.InoRoot,
		Path:            []byte(mirrorRoot),
		FileName:        nil,
		Vdir:            false,
		Kind:            metastore.KindDir,
		ModTimeUnixNano: info.ModTime().UnixNano(),
		Perm:            uint32(info.Mode().Perm()),
	}
	if err := store.Insert(root); err != nil {
		return scfserr.NewScanFatal("split_scan", err)
	}

	count := 0
	if err := splitScanDir(store, mirrorRoot, metastore.InoRoot, blockSize, &count); err != nil {
		return scfserr.NewScanFatal("split_scan", err)
	}
	logger.Infof("split_scan: indexed %d entries under %s", count, mirrorRoot)
	return nil
}

func splitScanDir(store *metastore.Store, hostDir string, parentIno uint64, blockSize uint64, count *int) error {
	entries, err := os.ReadDir(hostDir)
	if err != nil {
		return fmt.Errorf("reading dir %s: %w", hostDir, err)
	}

	for _, entry := range entries {
		childPath := filepath.Join(hostDir, entry.Name())
		info, err := os.Lstat(childPath)
		if err != nil {
			return fmt.Errorf("stat %s: %w", childPath, err)
		}

		mode := info.Mode()
		switch {
		case mode&os.ModeSymlink != 0:
			if err := emitSymlink(store, childPath, entry.Name(), parentIno, info); err != nil {
				return err
			}
			*count++

		case mode.IsDir():
			ino := store.AllocateIno()
			row := &metastore.Row{
				Ino:             ino,
				ParentIno:       parentIno,
				Path:            []byte(childPath),
				FileName:        []byte(entry.Name()),
				Vdir:            false,
				Kind:            metastore.KindDir,
				ModTimeUnixNano: info.ModTime().UnixNano(),
				Perm:            uint32(mode.Perm()),
			}
			if err := store.Insert(row); err != nil {
				return err
			}
			*count++
			if err := splitScanDir(store, childPath, ino, blockSize, count); err != nil {
				return err
			}

		case mode.IsRegular():
			if err := emitSplitFile(store, childPath, entry.Name(), parentIno, info, blockSize, count); err != nil {
				return err
			}

		default:
			// Device, FIFO, socket: ignored at scan time (§7).
		}
	}
	return nil
}

func emitSymlink(store *metastore.Store, childPath, name string, parentIno uint64, info os.FileInfo) error {
	target, err := os.Readlink(childPath)
	if err != nil {
		return fmt.Errorf("readlink %s: %w", childPath, err)
	}
	ino := store.AllocateIno()
	row := &metastore.Row{
		Ino:             ino,
		ParentIno:       parentIno,
		Path:            []byte(childPath),
		FileName:        []byte(name),
		Kind:            metastore.KindSymlink,
		Size:            uint64(len(target)),
		LinkTarget:      []byte(target),
		ModTimeUnixNano: info.ModTime().UnixNano(),
		Perm:            uint32(info.Mode().Perm()),
	}
	return store.Insert(row)
}

func emitSplitFile(store *metastore.Store, childPath, name string, parentIno uint64, info os.FileInfo, blockSize uint64, count *int) error {
	size := uint64(info.Size())
	vdirIno := store.AllocateIno()
	vdirRow := &metastore.Row{
		Ino:             vdirIno,
		ParentIno:       parentIno,
		Path:            []byte(childPath),
		FileName:        []byte(name),
		Vdir:            true,
		Kind:            metastore.KindDir,
		Size:            size,
		ModTimeUnixNano: info.ModTime().UnixNano(),
		Perm:            uint32(info.Mode().Perm()),
	}
	if err := store.Insert(vdirRow); err != nil {
		return err
	}
	*count++

	numChunks, lastChunkSize := ChunkLayout(size, blockSize)
	width := decimalWidth(numChunks - 1)

	for i := uint64(0); i < numChunks; i++ {
		chunkSize := blockSize
		if i == numChunks-1 {
			chunkSize = lastChunkSize
		}
		chunkName := fmt.Sprintf("%0*d", width, i)
		chunkRow := &metastore.Row{
			Ino:             store.AllocateIno(),
			ParentIno:       vdirIno,
			Path:            []byte(childPath),
			FileName:        []byte(chunkName),
			Vdir:            false,
			Kind:            metastore.KindFile,
			Part:            i,
			Size:            chunkSize,
			ModTimeUnixNano: info.ModTime().UnixNano(),
			Perm:            uint32(info.Mode().Perm()),
		}
		if err := store.Insert(chunkRow); err != nil {
			return err
		}
		*count++
	}
	return nil
}

// ChunkLayout computes the chunk count and last chunk's logical size for a
// file of the given size under blockSize (§3.2): count is
// max(1, ceil(size/blockSize)); an empty file always yields exactly one
// zero-length chunk, which is what keeps Split and Cat mutual inverses.
func ChunkLayout(size, blockSize uint64) (numChunks, lastChunkSize uint64) {
	if size == 0 {
		return 1, 0
	}
	numChunks = (size + blockSize - 1) / blockSize
	lastChunkSize = size - (numChunks-1)*blockSize
	return numChunks, lastChunkSize
}

func decimalWidth(n uint64) int {
	return len(strconv.FormatUint(n, 10))
}
