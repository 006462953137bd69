package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/scfs-dev/scfs/metastore"
)

func TestCatScan(t *testing.T) { suite.Run(t, new(CatScanTest)) }

type CatScanTest struct {
	suite.Suite
	mirror string
	store  *metastore.Store
}

func (t *CatScanTest) SetupTest() {
	t.mirror = t.T().TempDir()
	store, err := metastore.Open(filepath.Join(t.T().TempDir(), "scfs.db"))
	t.Require().NoError(err)
	t.store = store
}

func (t *CatScanTest) TearDownTest() {
	t.Require().NoError(t.store.Close())
}

func (t *CatScanTest) writeChunks(dir string, sizes ...int) {
	t.Require().NoError(os.Mkdir(dir, 0o755))
	for i, size := range sizes {
		data := make([]byte, size)
		name := filepath.Join(dir, string(rune('0'+i)))
		t.Require().NoError(os.WriteFile(name, data, 0o644))
	}
}

func (t *CatScanTest) TestChunkedDirectoryCollapsesToOneFile() {
	t.writeChunks(filepath.Join(t.mirror, "big.bin"), 10, 10, 5)

	t.Require().NoError(CatScan(t.store, t.mirror))

	row, err := t.store.Lookup(metastore.InoRoot, []byte("big.bin"))
	t.Require().NoError(err)
	t.Equal(metastore.KindFile, row.Kind)
	t.EqualValues(25, row.Size)

	children, err := t.store.Children(row.Ino, 0, 0)
	t.Require().NoError(err)
	t.Empty(children, "a collapsed chunked directory must not also appear as a listable directory")
}

func (t *CatScanTest) TestMixedNumberedAndNamedEntriesTreatedAsPlainDir() {
	mixed := filepath.Join(t.mirror, "mixed")
	t.Require().NoError(os.Mkdir(mixed, 0o755))
	t.Require().NoError(os.WriteFile(filepath.Join(mixed, "0"), []byte("a"), 0o644))
	t.Require().NoError(os.WriteFile(filepath.Join(mixed, "notes.txt"), []byte("b"), 0o644))
	// Give the scan a real chunked subtree elsewhere so the mount isn't
	// refused outright (E5).
	t.writeChunks(filepath.Join(t.mirror, "ok.bin"), 1)

	t.Require().NoError(CatScan(t.store, t.mirror))

	row, err := t.store.Lookup(metastore.InoRoot, []byte("mixed"))
	t.Require().NoError(err)
	t.Equal(metastore.KindDir, row.Kind)

	zero, err := t.store.Lookup(row.Ino, []byte("0"))
	t.Require().NoError(err)
	t.Equal(metastore.KindFile, zero.Kind)

	notes, err := t.store.Lookup(row.Ino, []byte("notes.txt"))
	t.Require().NoError(err)
	t.Equal(metastore.KindFile, notes.Kind)
}

func (t *CatScanTest) TestGapInNumberingTreatedAsPlainDir() {
	gap := filepath.Join(t.mirror, "gap")
	t.Require().NoError(os.Mkdir(gap, 0o755))
	t.Require().NoError(os.WriteFile(filepath.Join(gap, "0"), nil, 0o644))
	t.Require().NoError(os.WriteFile(filepath.Join(gap, "2"), nil, 0o644))
	t.writeChunks(filepath.Join(t.mirror, "ok.bin"), 1)

	t.Require().NoError(CatScan(t.store, t.mirror))

	row, err := t.store.Lookup(metastore.InoRoot, []byte("gap"))
	t.Require().NoError(err)
	t.Equal(metastore.KindDir, row.Kind)
}

func (t *CatScanTest) TestNoChunkedSubtreeRefusesMount() {
	t.Require().NoError(os.WriteFile(filepath.Join(t.mirror, "plain.txt"), []byte("x"), 0o644))

	t.Error(CatScan(t.store, t.mirror))
}

func (t *CatScanTest) TestSplitThenCatRoundTripsToOriginalSize() {
	data := make([]byte, 37)
	for i := range data {
		data[i] = byte(i)
	}
	splitMirror := t.mirror
	t.Require().NoError(os.WriteFile(filepath.Join(splitMirror, "orig.bin"), data, 0o644))

	splitStore, err := metastore.Open(filepath.Join(t.T().TempDir(), "split.db"))
	t.Require().NoError(err)
	defer splitStore.Close()
	t.Require().NoError(SplitScan(splitStore, splitMirror, 10))

	vdir, err := splitStore.Lookup(metastore.InoRoot, []byte("orig.bin"))
	t.Require().NoError(err)
	chunks, err := splitStore.Children(vdir.Ino, 0, 0)
	t.Require().NoError(err)

	chunkedMirror := t.T().TempDir()
	chunkDir := filepath.Join(chunkedMirror, "orig.bin")
	t.Require().NoError(os.Mkdir(chunkDir, 0o755))
	offset := uint64(0)
	for _, c := range chunks {
		end := offset + c.Size
		t.Require().NoError(os.WriteFile(filepath.Join(chunkDir, string(c.FileName)), data[offset:end], 0o644))
		offset = end
	}

	t.Require().NoError(CatScan(t.store, chunkedMirror))
	got, err := t.store.Lookup(metastore.InoRoot, []byte("orig.bin"))
	t.Require().NoError(err)
	t.EqualValues(len(data), got.Size)
}
