// Package graph creates and resolves commits over a content store.
//
// Every call is a single request/response against the store. The graph
// keeps no state of its own, so any number of participants may share one
// store: two commits on the same parent simply become sibling branches.
package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/systemshift/memex-vc/internal/dag"
	"github.com/systemshift/memex-vc/internal/policy"
	"github.com/systemshift/memex-vc/internal/store"
)

// Graph is the commit graph API.
type Graph struct {
	store     store.Store
	validator policy.Validator
	fetcher   *policy.Fetcher
	logger    *log.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger logs each publication to l.
func WithLogger(l *log.Logger) Option {
	return func(g *Graph) { g.logger = l }
}

// WithMaxChain bounds how many ancestors are fetched for validation.
func WithMaxChain(n int) Option {
	return func(g *Graph) { g.fetcher.MaxChain = n }
}

// New creates a Graph publishing into s under validator v. A nil v selects
// policy.Default().
func New(s store.Store, v policy.Validator, opts ...Option) *Graph {
	if v == nil {
		v = policy.Default()
	}
	g := &Graph{
		store:     s,
		validator: v,
		fetcher:   policy.NewFetcher(s),
		logger:    log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the underlying store.
func (g *Graph) Store() store.Store { return g.store }

// publish validates e against the policy and stores it.
func (g *Graph) publish(ctx context.Context, e *dag.Entry) (dag.Address, error) {
	spec := g.validator.RequiredContext(e)
	vd, err := g.fetcher.Fetch(ctx, spec, e)
	if err != nil {
		return dag.Undef, fmt.Errorf("fetch %s context for %s: %w", spec, e.Kind, err)
	}
	if err := g.validator.Accepts(e, vd); err != nil {
		if !errors.Is(err, dag.ErrValidation) {
			err = fmt.Errorf("%w: %v", dag.ErrValidation, err)
		}
		return dag.Undef, err
	}
	addr, err := g.store.Put(ctx, e)
	if err != nil {
		return dag.Undef, fmt.Errorf("store %s: %w", e.Kind, err)
	}
	g.logger.Printf("published %s %s", e.Kind, addr)
	return addr, nil
}

// CreateCommit builds a commit authored by caller and publishes it. The
// context and content addresses are taken as given; whether they must
// already resolve is up to the policy.
func (g *Graph) CreateCommit(ctx context.Context, caller dag.Caller, contextAddr dag.Address, message string, contentAddr dag.Address, parents []dag.Address) (dag.Address, error) {
	if caller == nil {
		return dag.Undef, dag.ErrIdentity
	}
	author, err := caller.AuthorAddress()
	if err != nil {
		if !errors.Is(err, dag.ErrIdentity) {
			err = fmt.Errorf("%w: %v", dag.ErrIdentity, err)
		}
		return dag.Undef, err
	}

	commit := dag.NewCommit(contextAddr, author, message, contentAddr, parents)
	e, err := commit.Entry()
	if err != nil {
		return dag.Undef, err
	}
	return g.publish(ctx, e)
}

// PutBlob publishes a blob.
func (g *Graph) PutBlob(ctx context.Context, b *dag.Blob) (dag.Address, error) {
	e, err := b.Entry()
	if err != nil {
		return dag.Undef, err
	}
	return g.publish(ctx, e)
}

// PutTree publishes a tree.
func (g *Graph) PutTree(ctx context.Context, t *dag.Tree) (dag.Address, error) {
	e, err := t.Entry()
	if err != nil {
		return dag.Undef, err
	}
	return g.publish(ctx, e)
}

// lookup fetches one entry. A missing entry is reported as found == false.
func (g *Graph) lookup(ctx context.Context, addr dag.Address) (*dag.Entry, bool, error) {
	e, err := g.store.Get(ctx, addr)
	if errors.Is(err, dag.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return e, true, nil
}

// GetCommitInfo returns the commit stored at addr. A missing entry is
// (nil, false, nil); an entry that is not a commit is an ErrSerialization.
func (g *Graph) GetCommitInfo(ctx context.Context, addr dag.Address) (*dag.Commit, bool, error) {
	e, found, err := g.lookup(ctx, addr)
	if err != nil || !found {
		return nil, false, err
	}
	c, err := dag.DecodeCommit(e)
	if err != nil {
		return nil, false, fmt.Errorf("commit %s: %w", addr, err)
	}
	return c, true, nil
}

// GetContent resolves a blob or tree address without knowing its kind.
func (g *Graph) GetContent(ctx context.Context, addr dag.Address) (dag.Content, bool, error) {
	e, found, err := g.lookup(ctx, addr)
	if err != nil || !found {
		return nil, false, err
	}
	content, err := dag.DecodeContent(e)
	if err != nil {
		return nil, false, fmt.Errorf("content %s: %w", addr, err)
	}
	return content, true, nil
}

// GetCommitContent follows a commit to its content, exactly one level: a
// tree's children are not fetched. Absence at either hop is (nil, false, nil).
func (g *Graph) GetCommitContent(ctx context.Context, addr dag.Address) (dag.Content, bool, error) {
	c, found, err := g.GetCommitInfo(ctx, addr)
	if err != nil || !found {
		return nil, false, err
	}
	return g.GetContent(ctx, c.ContentAddress)
}
