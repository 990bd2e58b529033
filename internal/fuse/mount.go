// Package fuse exposes one commit's snapshot as a read-only filesystem.
package fuse

import (
	"context"
	"fmt"

	"github.com/hanwen/go-fuse/v2/fs"
	gofuse "github.com/hanwen/go-fuse/v2/fuse"
	"github.com/systemshift/memex-vc/internal/dag"
	"github.com/systemshift/memex-vc/internal/graph"
)

// MountCommit materializes the commit at addr and mounts it at mountpoint.
// Returns the server (call server.Wait() to block, server.Unmount() to stop).
func MountCommit(ctx context.Context, mountpoint string, g *graph.Graph, addr dag.Address) (*gofuse.Server, error) {
	root, err := NewCommitRoot(ctx, g, addr)
	if err != nil {
		return nil, err
	}

	opts := &fs.Options{
		MountOptions: gofuse.MountOptions{
			FsName:        "memex-vc",
			Name:          "memex-vc",
			DisableXAttrs: true,
			Options:       []string{"ro"},
		},
	}

	server, err := fs.Mount(mountpoint, root, opts)
	if err != nil {
		return nil, fmt.Errorf("mount %s: %w", mountpoint, err)
	}
	return server, nil
}
