package graph

import (
	"context"
	"fmt"
	"path"

	"github.com/systemshift/memex-vc/internal/dag"
)

// Node is a materialized blob or tree.
type Node struct {
	Name     string
	Kind     dag.Kind
	Address  dag.Address
	Content  []byte  // blobs only
	Children []*Node // trees only, sorted by name
}

// Child returns the direct child called name.
func (n *Node) Child(name string) (*Node, bool) {
	for _, c := range n.Children {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Walk calls fn for n and every descendant in depth-first, name order.
// Paths are slash-separated and relative to n, which is visited as ".".
func (n *Node) Walk(fn func(p string, n *Node) error) error {
	return n.walk(".", fn)
}

func (n *Node) walk(p string, fn func(string, *Node) error) error {
	if err := fn(p, n); err != nil {
		return err
	}
	for _, c := range n.Children {
		if err := c.walk(path.Join(p, c.Name), fn); err != nil {
			return err
		}
	}
	return nil
}

// ResolveTree materializes the blob or tree at addr, recursing through every
// subtree. A missing root is (nil, false, nil); a missing descendant is an
// error naming its path, since the snapshot cannot be completed.
func (g *Graph) ResolveTree(ctx context.Context, addr dag.Address) (*Node, bool, error) {
	e, found, err := g.lookup(ctx, addr)
	if err != nil || !found {
		return nil, false, err
	}
	r := &resolver{g: g, seen: make(map[dag.Address]*dag.Entry)}
	r.seen[addr] = e
	n, err := r.resolve(ctx, ".", "", addr, "")
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// ResolveCommitTree materializes the content of the commit at addr.
func (g *Graph) ResolveCommitTree(ctx context.Context, addr dag.Address) (*Node, bool, error) {
	c, found, err := g.GetCommitInfo(ctx, addr)
	if err != nil || !found {
		return nil, false, err
	}
	n, found, err := g.ResolveTree(ctx, c.ContentAddress)
	if err != nil {
		return nil, false, fmt.Errorf("commit %s: %w", addr, err)
	}
	return n, found, nil
}

// resolver caches entries for one ResolveTree call; identical subtrees are
// fetched once.
type resolver struct {
	g    *Graph
	seen map[dag.Address]*dag.Entry
}

func (r *resolver) resolve(ctx context.Context, p, name string, addr dag.Address, want dag.Kind) (*Node, error) {
	e, ok := r.seen[addr]
	if !ok {
		var found bool
		var err error
		e, found, err = r.g.lookup(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		if !found {
			return nil, fmt.Errorf("resolve %s: %w: %s", p, dag.ErrNotFound, addr)
		}
		r.seen[addr] = e
	}
	if want != "" && e.Kind != want {
		return nil, fmt.Errorf("resolve %s: %w: entry is a %s, tree says %s", p, dag.ErrSerialization, e.Kind, want)
	}

	content, err := dag.DecodeContent(e)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", p, err)
	}
	n := &Node{Name: name, Kind: e.Kind, Address: addr}
	switch c := content.(type) {
	case *dag.Blob:
		n.Content = c.Content
	case *dag.Tree:
		n.Children = make([]*Node, 0, len(c.Entries))
		for _, child := range c.Entries {
			cn, err := r.resolve(ctx, path.Join(p, child.Name), child.Name, child.Address, child.Kind)
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, cn)
		}
	}
	return n, nil
}
