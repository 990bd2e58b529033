package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/systemshift/memex-vc/internal/dag"
)

// buildSnapshot stores:
//
//	README        "hello"
//	src/main.go   "package main"
//	src/util/x.go "package util"
//	docs/         empty tree
func buildSnapshot(t *testing.T, g *Graph) dag.Address {
	t.Helper()
	ctx := context.Background()
	put := func(content string) dag.Address {
		a, err := g.PutBlob(ctx, dag.NewBlob([]byte(content)))
		require.NoError(t, err)
		return a
	}
	tree := func(entries ...dag.TreeEntry) dag.Address {
		tr, err := dag.NewTree(entries...)
		require.NoError(t, err)
		a, err := g.PutTree(ctx, tr)
		require.NoError(t, err)
		return a
	}

	util := tree(dag.TreeEntry{Name: "x.go", Address: put("package util"), Kind: dag.KindBlob})
	src := tree(
		dag.TreeEntry{Name: "util", Address: util, Kind: dag.KindTree},
		dag.TreeEntry{Name: "main.go", Address: put("package main"), Kind: dag.KindBlob},
	)
	return tree(
		dag.TreeEntry{Name: "src", Address: src, Kind: dag.KindTree},
		dag.TreeEntry{Name: "README", Address: put("hello"), Kind: dag.KindBlob},
		dag.TreeEntry{Name: "docs", Address: tree(), Kind: dag.KindTree},
	)
}

func TestResolveTree_Materializes(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t, nil)
	root := buildSnapshot(t, g)

	n, found, err := g.ResolveTree(ctx, root)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, dag.KindTree, n.Kind)
	assert.Equal(t, root, n.Address)

	files := map[string]string{}
	var dirs []string
	require.NoError(t, n.Walk(func(p string, n *Node) error {
		if n.Kind == dag.KindBlob {
			files[p] = string(n.Content)
		} else {
			dirs = append(dirs, p)
		}
		return nil
	}))
	assert.Equal(t, map[string]string{
		"README":        "hello",
		"src/main.go":   "package main",
		"src/util/x.go": "package util",
	}, files)
	assert.Equal(t, []string{".", "docs", "src", "src/util"}, dirs)

	src, ok := n.Child("src")
	require.True(t, ok)
	_, ok = src.Child("util")
	assert.True(t, ok)
	_, ok = n.Child("missing")
	assert.False(t, ok)
}

func TestResolveTree_BlobRoot(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t, nil)
	blob, err := g.PutBlob(ctx, dag.NewBlob([]byte("solo")))
	require.NoError(t, err)

	n, found, err := g.ResolveTree(ctx, blob)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, dag.KindBlob, n.Kind)
	assert.Equal(t, []byte("solo"), n.Content)
	assert.Empty(t, n.Children)
}

func TestResolveTree_MissingRoot(t *testing.T) {
	g, _ := newTestGraph(t, nil)
	e, err := dag.NewBlob([]byte("nowhere")).Entry()
	require.NoError(t, err)
	addr, err := e.Address()
	require.NoError(t, err)

	n, found, err := g.ResolveTree(context.Background(), addr)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, n)
}

func TestResolveTree_MissingChildNamesPath(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t, nil)

	ghost, err := dag.NewBlob([]byte("not replicated")).Entry()
	require.NoError(t, err)
	ghostAddr, err := ghost.Address()
	require.NoError(t, err)

	inner, err := dag.NewTree(dag.TreeEntry{Name: "lost.txt", Address: ghostAddr, Kind: dag.KindBlob})
	require.NoError(t, err)
	innerAddr, err := g.PutTree(ctx, inner)
	require.NoError(t, err)
	outer, err := dag.NewTree(dag.TreeEntry{Name: "dir", Address: innerAddr, Kind: dag.KindTree})
	require.NoError(t, err)
	outerAddr, err := g.PutTree(ctx, outer)
	require.NoError(t, err)

	_, found, err := g.ResolveTree(ctx, outerAddr)
	require.Error(t, err)
	assert.False(t, found)
	assert.True(t, errors.Is(err, dag.ErrNotFound))
	assert.Contains(t, err.Error(), "dir/lost.txt")
}

func TestResolveTree_KindMismatch(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t, nil)
	blob, err := g.PutBlob(ctx, dag.NewBlob([]byte("file")))
	require.NoError(t, err)

	tr, err := dag.NewTree(dag.TreeEntry{Name: "sub", Address: blob, Kind: dag.KindTree})
	require.NoError(t, err)
	addr, err := g.PutTree(ctx, tr)
	require.NoError(t, err)

	_, _, err = g.ResolveTree(ctx, addr)
	assert.ErrorIs(t, err, dag.ErrSerialization)
}

func TestResolveCommitTree(t *testing.T) {
	ctx := context.Background()
	g, _ := newTestGraph(t, nil)
	root := buildSnapshot(t, g)
	commit, err := g.CreateCommit(ctx, testIdentity(t), contextAddress(t), "snapshot", root, nil)
	require.NoError(t, err)

	n, found, err := g.ResolveCommitTree(ctx, commit)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, root, n.Address)
	assert.Len(t, n.Children, 3)
}
