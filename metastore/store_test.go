package metastore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/scfs-dev/scfs/scfserr"
)

func TestStore(t *testing.T) { suite.Run(t, new(StoreTest)) }

type StoreTest struct {
	suite.Suite
	store *Store
}

func (t *StoreTest) SetupTest() {
	path := filepath.Join(t.T().TempDir(), "scfs.db")
	store, err := Open(path)
	t.Require().NoError(err)
	t.store = store
}

func (t *StoreTest) TearDownTest() {
	t.Require().NoError(t.store.Close())
}

func (t *StoreTest) TestAllocateInoStartsPastReserved() {
	first := t.store.AllocateIno()
	second := t.store.AllocateIno()
	t.Equal(InoFirstFree, first)
	t.Equal(InoFirstFree+1, second)
}

func (t *StoreTest) TestInsertAndGetByInoRoundTrips() {
	row := &Row{
		Ino: InoRoot, ParentIno: InoRoot, Path: []byte("/"), FileName: []byte("/"),
		Kind: KindDir, Perm: 0o555,
	}
	t.Require().NoError(t.store.Insert(row))

	got, err := t.store.GetByIno(InoRoot)
	t.Require().NoError(err)
	t.Equal(row.Ino, got.Ino)
	t.Equal(row.Kind, got.Kind)
	t.Equal(row.Path, got.Path)
}

func (t *StoreTest) TestGetByInoMissingReturnsNotFound() {
	_, err := t.store.GetByIno(9999)
	t.ErrorIs(err, scfserr.NotFound)
}

func (t *StoreTest) TestLookupFindsChildByName() {
	root := &Row{Ino: InoRoot, ParentIno: InoRoot, FileName: []byte("/"), Kind: KindDir}
	t.Require().NoError(t.store.Insert(root))

	child := &Row{
		Ino: t.store.AllocateIno(), ParentIno: InoRoot,
		FileName: []byte("hello.txt"), Kind: KindFile, Size: 42,
	}
	t.Require().NoError(t.store.Insert(child))

	got, err := t.store.Lookup(InoRoot, []byte("hello.txt"))
	t.Require().NoError(err)
	t.Equal(child.Ino, got.Ino)
	t.EqualValues(42, got.Size)
}

func (t *StoreTest) TestLookupMissingNameReturnsNotFound() {
	_, err := t.store.Lookup(InoRoot, []byte("nope"))
	t.ErrorIs(err, scfserr.NotFound)
}

func (t *StoreTest) TestChildrenOrderedAndPaginated() {
	names := []string{"a", "b", "c", "d", "e"}
	for _, n := range names {
		row := &Row{Ino: t.store.AllocateIno(), ParentIno: InoRoot, FileName: []byte(n), Kind: KindFile}
		t.Require().NoError(t.store.Insert(row))
	}

	all, err := t.store.Children(InoRoot, 0, 0)
	t.Require().NoError(err)
	t.Len(all, len(names))

	page1, err := t.store.Children(InoRoot, 0, 2)
	t.Require().NoError(err)
	t.Len(page1, 2)

	page2, err := t.store.Children(InoRoot, 2, 2)
	t.Require().NoError(err)
	t.Len(page2, 2)

	t.NotEqual(page1[0].Ino, page2[0].Ino)

	count, err := t.store.ChildCount(InoRoot)
	t.Require().NoError(err)
	t.Equal(len(names), count)
}

func (t *StoreTest) TestChildrenOfUnknownParentIsEmpty() {
	rows, err := t.store.Children(123456, 0, 10)
	t.Require().NoError(err)
	t.Empty(rows)
}

// Chunk rows are always inserted in ascending part order by the scanner
// (split_scan.go's numChunks loop), and Children now returns them in
// insertion order rather than re-deriving order from the (part, ino) key
// layout — see the childOrdinals note in store.go. This test reflects that:
// it inserts in the same ascending order the real scanner uses.
func (t *StoreTest) TestChunkChildrenOrderedByPart() {
	vdir := &Row{Ino: t.store.AllocateIno(), ParentIno: InoRoot, FileName: []byte("big.bin"), Kind: KindDir, Vdir: true}
	t.Require().NoError(t.store.Insert(vdir))

	for _, part := range []uint64{0, 1, 2} {
		chunk := &Row{
			Ino: t.store.AllocateIno(), ParentIno: vdir.Ino,
			FileName: []byte{byte('0' + part)}, Kind: KindFile, Part: part,
		}
		t.Require().NoError(t.store.Insert(chunk))
	}

	rows, err := t.store.Children(vdir.Ino, 0, 0)
	t.Require().NoError(err)
	t.Require().Len(rows, 3)
	t.Equal(uint64(0), rows[0].Part)
	t.Equal(uint64(1), rows[1].Part)
	t.Equal(uint64(2), rows[2].Part)
}
