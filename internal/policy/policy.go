// Package policy decides what may be published into a store. A Validator
// names the context it needs for an entry, a Fetcher gathers that context,
// and the Validator then accepts or rejects the entry.
//
// The shipped Policy only checks that entries are well formed, optionally
// also that their links resolve. It is an extension point: signature
// checks or merge rules belong in further Validators combined with All.
package policy

import (
	"fmt"
	"strings"

	"github.com/systemshift/memex-vc/internal/dag"
)

// Validator is a publication policy.
type Validator interface {
	// RequiredContext names what must be fetched before e can be judged.
	RequiredContext(e *dag.Entry) FetchSpec

	// Accepts returns nil to accept e, or an error wrapping
	// dag.ErrValidation (normally a *ValidationError) to reject it.
	Accepts(e *dag.Entry, vd *ValidationData) error
}

// ValidationError describes a rejection.
type ValidationError struct {
	Policy string
	Kind   dag.Kind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("policy %s rejected %s: %s", e.Policy, e.Kind, e.Reason)
}

// Unwrap lets errors.Is match dag.ErrValidation.
func (e *ValidationError) Unwrap() error { return dag.ErrValidation }

// Reject builds a *ValidationError.
func Reject(policy string, kind dag.Kind, format string, args ...interface{}) error {
	return &ValidationError{Policy: policy, Kind: kind, Reason: fmt.Sprintf(format, args...)}
}

// LinkCheck selects whether links must resolve at publication time.
type LinkCheck int

const (
	// LinkOptimistic accepts links to entries the store does not hold yet,
	// tolerating data that has not replicated.
	LinkOptimistic LinkCheck = iota

	// LinkStrict requires every link to resolve to an entry of the right kind
	// and a commit to name each parent once.
	LinkStrict
)

func (l LinkCheck) String() string {
	switch l {
	case LinkOptimistic:
		return "optimistic"
	case LinkStrict:
		return "strict"
	}
	return fmt.Sprintf("LinkCheck(%d)", int(l))
}

// ParseLinkCheck parses "optimistic" or "strict".
func ParseLinkCheck(s string) (LinkCheck, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "optimistic":
		return LinkOptimistic, nil
	case "strict":
		return LinkStrict, nil
	}
	return LinkOptimistic, fmt.Errorf("policy: unknown link check %q (want \"optimistic\" or \"strict\")", s)
}

const (
	defaultName    = "default"
	permissiveName = "permissive"
)

// Policy is the default validator: structural checks per kind, plus link
// resolution when LinkCheck is LinkStrict.
type Policy struct {
	LinkCheck LinkCheck
}

var _ Validator = (*Policy)(nil)

// Default returns the optimistic default policy.
func Default() *Policy { return &Policy{LinkCheck: LinkOptimistic} }

// Strict returns the default policy with link checking enabled.
func Strict() *Policy { return &Policy{LinkCheck: LinkStrict} }

// RequiredContext asks for the full ancestor chain of a commit before it is
// accepted. Trees only need their children, and only in strict mode.
func (p *Policy) RequiredContext(e *dag.Entry) FetchSpec {
	switch e.Kind {
	case dag.KindCommit:
		return FetchChainFull
	case dag.KindTree:
		if p.LinkCheck == LinkStrict {
			return FetchLinks
		}
	}
	return FetchEntry
}

// Accepts implements Validator.
func (p *Policy) Accepts(e *dag.Entry, vd *ValidationData) error {
	if e == nil {
		return Reject(defaultName, "", "nil entry")
	}
	switch e.Kind {
	case dag.KindBlob:
		if _, err := dag.DecodeBlob(e); err != nil {
			return Reject(defaultName, e.Kind, "%v", err)
		}
		return nil
	case dag.KindTree:
		return p.acceptTree(e, vd)
	case dag.KindCommit:
		return p.acceptCommit(e, vd)
	}
	return Reject(defaultName, e.Kind, "unknown kind")
}

func (p *Policy) acceptTree(e *dag.Entry, vd *ValidationData) error {
	t, err := dag.DecodeTree(e)
	if err != nil {
		return Reject(defaultName, e.Kind, "%v", err)
	}
	if err := t.Validate(); err != nil {
		return Reject(defaultName, e.Kind, "%v", err)
	}
	if p.LinkCheck != LinkStrict {
		return nil
	}
	for _, child := range t.Entries {
		if err := requireLink(vd, child.Address, child.Kind); err != nil {
			return Reject(defaultName, e.Kind, "entry %q: %v", child.Name, err)
		}
	}
	return nil
}

func (p *Policy) acceptCommit(e *dag.Entry, vd *ValidationData) error {
	c, err := dag.DecodeCommit(e)
	if err != nil {
		return Reject(defaultName, e.Kind, "%v", err)
	}
	if err := c.Validate(); err != nil {
		return Reject(defaultName, e.Kind, "%v", err)
	}
	if p.LinkCheck != LinkStrict {
		return nil
	}
	if i := c.DuplicateParent(); i >= 0 {
		return Reject(defaultName, e.Kind, "parent %d: duplicate parent %s", i, c.ParentCommitsAddresses[i])
	}
	if err := requireLink(vd, c.ContentAddress, dag.KindBlob, dag.KindTree); err != nil {
		return Reject(defaultName, e.Kind, "content: %v", err)
	}
	for i, parent := range c.ParentCommitsAddresses {
		if err := requireLink(vd, parent, dag.KindCommit); err != nil {
			return Reject(defaultName, e.Kind, "parent %d: %v", i, err)
		}
	}
	return nil
}

// requireLink checks that addr was fetched and has one of the wanted kinds.
func requireLink(vd *ValidationData, addr dag.Address, want ...dag.Kind) error {
	linked, ok := vd.Link(addr)
	if !ok {
		return fmt.Errorf("%s does not resolve", addr)
	}
	for _, k := range want {
		if linked.Kind == k {
			return nil
		}
	}
	return fmt.Errorf("%s is a %s, want %v", addr, linked.Kind, want)
}

// Permissive accepts every entry without fetching anything.
type Permissive struct{}

var _ Validator = Permissive{}

// RequiredContext implements Validator.
func (Permissive) RequiredContext(*dag.Entry) FetchSpec { return FetchEntry }

// Accepts implements Validator.
func (Permissive) Accepts(*dag.Entry, *ValidationData) error { return nil }

// All combines validators: the entry must satisfy each of them, and the
// widest requested context is fetched once for all.
func All(vs ...Validator) Validator { return all(vs) }

type all []Validator

func (a all) RequiredContext(e *dag.Entry) FetchSpec {
	spec := FetchEntry
	for _, v := range a {
		if s := v.RequiredContext(e); s > spec {
			spec = s
		}
	}
	return spec
}

func (a all) Accepts(e *dag.Entry, vd *ValidationData) error {
	for _, v := range a {
		if err := v.Accepts(e, vd); err != nil {
			return err
		}
	}
	return nil
}
