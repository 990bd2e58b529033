package fuse

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"syscall"

	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
	"github.com/systemshift/memex-vc/internal/dag"
	"github.com/systemshift/memex-vc/internal/graph"
)

const (
	// commitFileName holds the commit metadata at the mount root.
	commitFileName = ".commit"

	// blobFileName names the single file shown when a commit's content is a blob.
	blobFileName = "content"
)

// NewCommitRoot resolves the commit at addr and builds the root directory.
func NewCommitRoot(ctx context.Context, g *graph.Graph, addr dag.Address) (*DirNode, error) {
	info, found, err := g.GetCommitInfo(ctx, addr)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("commit %s: %w", addr, dag.ErrNotFound)
	}
	tree, found, err := g.ResolveTree(ctx, info.ContentAddress)
	if err != nil {
		return nil, fmt.Errorf("commit %s: %w", addr, err)
	}
	if !found {
		return nil, fmt.Errorf("commit %s content %s: %w", addr, info.ContentAddress, dag.ErrNotFound)
	}

	meta, err := json.MarshalIndent(commitView{Address: addr, Commit: info}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal commit: %w", err)
	}

	if tree.Kind == dag.KindBlob {
		tree = &graph.Node{
			Kind:     dag.KindTree,
			Children: []*graph.Node{{Name: blobFileName, Kind: dag.KindBlob, Address: tree.Address, Content: tree.Content}},
		}
	}
	return &DirNode{node: tree, commitJSON: append(meta, '\n')}, nil
}

type commitView struct {
	Address dag.Address `json:"address"`
	*dag.Commit
}

// DirNode is a directory backed by a materialized tree.
type DirNode struct {
	fs.Inode
	node       *graph.Node
	path       string
	commitJSON []byte // root only
}

var _ = (fs.NodeLookuper)((*DirNode)(nil))
var _ = (fs.NodeReaddirer)((*DirNode)(nil))
var _ = (fs.NodeGetattrer)((*DirNode)(nil))

// showCommitFile reports whether the commit metadata file is listed. A real
// tree entry with the same name takes precedence.
func (d *DirNode) showCommitFile() bool {
	if d.commitJSON == nil {
		return false
	}
	_, shadowed := d.node.Child(commitFileName)
	return !shadowed
}

func (d *DirNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	out.Mode = syscall.S_IFDIR | 0555
	out.Ino = stableIno(d.path)
	return fs.OK
}

func (d *DirNode) Readdir(ctx context.Context) (fs.DirStream, syscall.Errno) {
	var entries []fuse.DirEntry
	if d.showCommitFile() {
		entries = append(entries, fuse.DirEntry{
			Name: commitFileName,
			Mode: syscall.S_IFREG,
			Ino:  stableIno(path.Join(d.path, commitFileName)),
		})
	}
	for _, c := range d.node.Children {
		mode := uint32(syscall.S_IFREG)
		if c.Kind == dag.KindTree {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{
			Name: c.Name,
			Mode: mode,
			Ino:  stableIno(path.Join(d.path, c.Name)),
		})
	}
	return fs.NewListDirStream(entries), fs.OK
}

func (d *DirNode) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	childPath := path.Join(d.path, name)

	if name == commitFileName && d.showCommitFile() {
		f := &FileNode{data: d.commitJSON, path: childPath}
		f.fill(&out.Attr)
		return d.NewInode(ctx, f, fs.StableAttr{Mode: syscall.S_IFREG, Ino: stableIno(childPath)}), fs.OK
	}

	c, ok := d.node.Child(name)
	if !ok {
		return nil, syscall.ENOENT
	}
	if c.Kind == dag.KindTree {
		sub := &DirNode{node: c, path: childPath}
		out.Mode = syscall.S_IFDIR | 0555
		out.Ino = stableIno(childPath)
		return d.NewInode(ctx, sub, fs.StableAttr{Mode: syscall.S_IFDIR, Ino: stableIno(childPath)}), fs.OK
	}
	f := &FileNode{data: c.Content, path: childPath}
	f.fill(&out.Attr)
	return d.NewInode(ctx, f, fs.StableAttr{Mode: syscall.S_IFREG, Ino: stableIno(childPath)}), fs.OK
}

// FileNode is a read-only file with fixed contents.
type FileNode struct {
	fs.Inode
	data []byte
	path string
}

var _ = (fs.NodeGetattrer)((*FileNode)(nil))
var _ = (fs.NodeReader)((*FileNode)(nil))
var _ = (fs.NodeOpener)((*FileNode)(nil))

func (f *FileNode) fill(attr *fuse.Attr) {
	attr.Mode = syscall.S_IFREG | 0444
	attr.Size = uint64(len(f.data))
	attr.Ino = stableIno(f.path)
}

func (f *FileNode) Getattr(ctx context.Context, fh fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	f.fill(&out.Attr)
	return fs.OK
}

func (f *FileNode) Open(ctx context.Context, flags uint32) (fs.FileHandle, uint32, syscall.Errno) {
	if flags&(syscall.O_WRONLY|syscall.O_RDWR) != 0 {
		return nil, 0, syscall.EROFS
	}
	return nil, fuse.FOPEN_KEEP_CACHE, fs.OK
}

func (f *FileNode) Read(ctx context.Context, fh fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if off >= int64(len(f.data)) {
		return fuse.ReadResultData(nil), fs.OK
	}
	end := off + int64(len(dest))
	if end > int64(len(f.data)) {
		end = int64(len(f.data))
	}
	return fuse.ReadResultData(f.data[off:end]), fs.OK
}
