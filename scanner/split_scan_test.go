package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/scfs-dev/scfs/metastore"
)

func TestSplitScan(t *testing.T) { suite.Run(t, new(SplitScanTest)) }

type SplitScanTest struct {
	suite.Suite
	mirror string
	store  *metastore.Store
}

func (t *SplitScanTest) SetupTest() {
	t.mirror = t.T().TempDir()
	store, err := metastore.Open(filepath.Join(t.T().TempDir(), "scfs.db"))
	t.Require().NoError(err)
	t.store = store
}

func (t *SplitScanTest) TearDownTest() {
	t.Require().NoError(t.store.Close())
}

// ChunkLayout is cross-checked here against EtiennePerot/splitfs's
// ceil-and-remainder chunk-count formula (other_examples/).
func (t *SplitScanTest) TestChunkLayout() {
	cases := []struct {
		size, blockSize    uint64
		wantCount, wantLast uint64
	}{
		{size: 0, blockSize: 10, wantCount: 1, wantLast: 0},
		{size: 5, blockSize: 10, wantCount: 1, wantLast: 5},
		{size: 10, blockSize: 10, wantCount: 1, wantLast: 10},
		{size: 11, blockSize: 10, wantCount: 2, wantLast: 1},
		{size: 25, blockSize: 10, wantCount: 3, wantLast: 5},
		{size: 20, blockSize: 10, wantCount: 2, wantLast: 10},
	}
	for _, c := range cases {
		gotCount, gotLast := ChunkLayout(c.size, c.blockSize)
		t.Equal(c.wantCount, gotCount, "size=%d blockSize=%d", c.size, c.blockSize)
		t.Equal(c.wantLast, gotLast, "size=%d blockSize=%d", c.size, c.blockSize)
	}
}

func (t *SplitScanTest) TestEmptyFileYieldsOneZeroLengthChunk() {
	t.Require().NoError(os.WriteFile(filepath.Join(t.mirror, "empty.bin"), nil, 0o644))

	t.Require().NoError(SplitScan(t.store, t.mirror, 4096))

	vdir, err := t.store.Lookup(metastore.InoRoot, []byte("empty.bin"))
	t.Require().NoError(err)
	t.True(vdir.Vdir)

	chunks, err := t.store.Children(vdir.Ino, 0, 0)
	t.Require().NoError(err)
	t.Require().Len(chunks, 1)
	t.EqualValues(0, chunks[0].Size)
}

func (t *SplitScanTest) TestRegularFileSplitIntoChunks() {
	data := make([]byte, 25)
	for i := range data {
		data[i] = byte(i)
	}
	t.Require().NoError(os.WriteFile(filepath.Join(t.mirror, "data.bin"), data, 0o644))

	t.Require().NoError(SplitScan(t.store, t.mirror, 10))

	vdir, err := t.store.Lookup(metastore.InoRoot, []byte("data.bin"))
	t.Require().NoError(err)
	t.True(vdir.Vdir)
	t.EqualValues(25, vdir.Size)

	chunks, err := t.store.Children(vdir.Ino, 0, 0)
	t.Require().NoError(err)
	t.Require().Len(chunks, 3)
	t.Equal([]byte("0"), chunks[0].FileName)
	t.Equal([]byte("1"), chunks[1].FileName)
	t.Equal([]byte("2"), chunks[2].FileName)
	t.EqualValues(10, chunks[0].Size)
	t.EqualValues(10, chunks[1].Size)
	t.EqualValues(5, chunks[2].Size)
}

func (t *SplitScanTest) TestDirectoriesAreWalkedRecursively() {
	sub := filepath.Join(t.mirror, "subdir")
	t.Require().NoError(os.Mkdir(sub, 0o755))
	t.Require().NoError(os.WriteFile(filepath.Join(sub, "nested.bin"), []byte("hi"), 0o644))

	t.Require().NoError(SplitScan(t.store, t.mirror, 4096))

	subRow, err := t.store.Lookup(metastore.InoRoot, []byte("subdir"))
	t.Require().NoError(err)
	t.False(subRow.Vdir)
	t.Equal(metastore.KindDir, subRow.Kind)

	vdir, err := t.store.Lookup(subRow.Ino, []byte("nested.bin"))
	t.Require().NoError(err)
	t.True(vdir.Vdir)
}

func (t *SplitScanTest) TestSymlinkPreservesTarget() {
	target := filepath.Join(t.mirror, "real.txt")
	t.Require().NoError(os.WriteFile(target, []byte("x"), 0o644))
	link := filepath.Join(t.mirror, "link.txt")
	t.Require().NoError(os.Symlink(target, link))

	t.Require().NoError(SplitScan(t.store, t.mirror, 4096))

	row, err := t.store.Lookup(metastore.InoRoot, []byte("link.txt"))
	t.Require().NoError(err)
	t.Equal(metastore.KindSymlink, row.Kind)
	t.Equal(target, string(row.LinkTarget))
}

func (t *SplitScanTest) TestZeroBlockSizeRejected() {
	t.Error(SplitScan(t.store, t.mirror, 0))
}
