package fuse

import "hash/fnv"

// stableIno returns a stable inode number for a path within the mounted
// snapshot. Paths are unique per mount, so collisions are only hash collisions.
func stableIno(path string) uint64 {
	h := fnv.New64a()
	h.Write([]byte("memex-vc:" + path))
	return h.Sum64()
}
