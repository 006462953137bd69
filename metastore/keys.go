package metastore

import "encoding/binary"

// itob encodes a uint64 as 8 big-endian bytes so that bbolt's natural
// byte-wise key ordering is also numeric ordering, the same encoding
// rclone's backend/cache.Persistent uses for its timestamp-bucket keys.
func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// nameKey builds the byName secondary-index key: parent_ino (8 bytes, for
// numeric grouping) followed by the raw file_name bytes.
func nameKey(parentIno uint64, fileName []byte) []byte {
	k := make([]byte, 8+len(fileName))
	binary.BigEndian.PutUint64(k, parentIno)
	copy(k[8:], fileName)
	return k
}

// childKey builds a children/<parent_ino> bucket key: part (8 bytes) then
// ino (8 bytes), giving (part asc, ino asc) ordering under Cursor iteration.
func childKey(part, ino uint64) []byte {
	k := make([]byte, 16)
	binary.BigEndian.PutUint64(k[0:8], part)
	binary.BigEndian.PutUint64(k[8:16], ino)
	return k
}

// childrenBucketName derives the nested per-parent bucket name from an ino.
func childrenBucketName(parentIno uint64) []byte {
	return itob(parentIno)
}
