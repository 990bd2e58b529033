package policy

import (
	"context"
	"errors"
	"fmt"

	"github.com/systemshift/memex-vc/internal/dag"
	"github.com/systemshift/memex-vc/internal/store"
)

// FetchSpec is the amount of surrounding data a validator needs.
type FetchSpec int

const (
	// FetchEntry needs only the candidate entry.
	FetchEntry FetchSpec = iota

	// FetchLinks adds the entries the candidate references directly: a
	// commit's content and parents, or a tree's children.
	FetchLinks

	// FetchChainFull adds every ancestor commit reachable through parents.
	FetchChainFull
)

func (s FetchSpec) String() string {
	switch s {
	case FetchEntry:
		return "entry"
	case FetchLinks:
		return "links"
	case FetchChainFull:
		return "chain-full"
	}
	return fmt.Sprintf("FetchSpec(%d)", int(s))
}

// ValidationData is the context gathered for one candidate entry.
type ValidationData struct {
	Spec FetchSpec

	// Links holds the directly referenced entries that were found.
	Links map[dag.Address]*dag.Entry

	// Chain holds ancestor commits in breadth-first order from the
	// candidate's parents. ChainAddresses is parallel to Chain.
	Chain          []*dag.Commit
	ChainAddresses []dag.Address

	// Missing lists referenced or ancestor addresses the store lacks.
	Missing []dag.Address
}

// Link returns a fetched direct link.
func (vd *ValidationData) Link(addr dag.Address) (*dag.Entry, bool) {
	if vd == nil {
		return nil, false
	}
	e, ok := vd.Links[addr]
	return e, ok
}

// Fetcher gathers ValidationData from a store.
type Fetcher struct {
	store store.Store

	// MaxChain bounds the ancestor walk; zero means unbounded.
	MaxChain int
}

// NewFetcher creates a Fetcher reading from s.
func NewFetcher(s store.Store) *Fetcher {
	return &Fetcher{store: s}
}

// Fetch gathers what spec asks for around e. Absent entries are recorded in
// Missing; any other store failure aborts.
func (f *Fetcher) Fetch(ctx context.Context, spec FetchSpec, e *dag.Entry) (*ValidationData, error) {
	vd := &ValidationData{Spec: spec, Links: make(map[dag.Address]*dag.Entry)}
	if spec == FetchEntry || e == nil {
		return vd, nil
	}

	links, parents, err := references(e)
	if err != nil {
		// Undecodable candidates are left for the validator to reject.
		return vd, nil
	}
	for _, addr := range links {
		if _, seen := vd.Links[addr]; seen || !addr.Defined() || containsAddress(vd.Missing, addr) {
			continue
		}
		linked, found, err := f.get(ctx, addr)
		if err != nil {
			return nil, err
		}
		if !found {
			vd.Missing = append(vd.Missing, addr)
			continue
		}
		vd.Links[addr] = linked
	}

	if spec >= FetchChainFull {
		if err := f.walkChain(ctx, vd, parents); err != nil {
			return nil, err
		}
	}
	return vd, nil
}

// walkChain visits ancestors breadth first, each once.
func (f *Fetcher) walkChain(ctx context.Context, vd *ValidationData, start []dag.Address) error {
	visited := make(map[dag.Address]bool)
	queue := append([]dag.Address(nil), start...)
	for len(queue) > 0 {
		if f.MaxChain > 0 && len(vd.Chain) >= f.MaxChain {
			return nil
		}
		addr := queue[0]
		queue = queue[1:]
		if visited[addr] || !addr.Defined() {
			continue
		}
		visited[addr] = true

		e, ok := vd.Links[addr]
		if !ok {
			var found bool
			var err error
			e, found, err = f.get(ctx, addr)
			if err != nil {
				return err
			}
			if !found {
				if !containsAddress(vd.Missing, addr) {
					vd.Missing = append(vd.Missing, addr)
				}
				continue
			}
		}
		c, err := dag.DecodeCommit(e)
		if err != nil {
			continue // not a commit; strict link checks report it
		}
		vd.Chain = append(vd.Chain, c)
		vd.ChainAddresses = append(vd.ChainAddresses, addr)
		queue = append(queue, c.ParentCommitsAddresses...)
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, addr dag.Address) (*dag.Entry, bool, error) {
	e, err := f.store.Get(ctx, addr)
	if errors.Is(err, dag.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("fetch %s: %w", addr, err)
	}
	return e, true, nil
}

// references lists the direct links of e and, for commits, its parents.
func references(e *dag.Entry) (links, parents []dag.Address, err error) {
	switch e.Kind {
	case dag.KindCommit:
		c, err := dag.DecodeCommit(e)
		if err != nil {
			return nil, nil, err
		}
		links = append([]dag.Address{c.ContentAddress}, c.ParentCommitsAddresses...)
		return links, c.ParentCommitsAddresses, nil
	case dag.KindTree:
		t, err := dag.DecodeTree(e)
		if err != nil {
			return nil, nil, err
		}
		for _, child := range t.Entries {
			links = append(links, child.Address)
		}
		return links, nil, nil
	}
	return nil, nil, nil
}

func containsAddress(list []dag.Address, addr dag.Address) bool {
	for _, a := range list {
		if a == addr {
			return true
		}
	}
	return false
}
