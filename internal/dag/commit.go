package dag

import (
	"fmt"
	"unicode/utf8"
)

// Commit records a snapshot pointer, its authorship and its parent commits.
// A root commit has no parents; a merge commit has more than one.
type Commit struct {
	ContextAddress         Address   `json:"context_address"`
	AuthorAddress          Address   `json:"author_address"`
	Message                string    `json:"message"`
	ContentAddress         Address   `json:"content_address"`
	ParentCommitsAddresses []Address `json:"parent_commits_addresses"`
}

// NewCommit builds a Commit. The parent list is copied so later changes to
// the caller's slice cannot alter the commit's address.
func NewCommit(context, author Address, message string, content Address, parents []Address) *Commit {
	ps := make([]Address, len(parents))
	copy(ps, parents)
	return &Commit{
		ContextAddress:         context,
		AuthorAddress:          author,
		Message:                message,
		ContentAddress:         content,
		ParentCommitsAddresses: ps,
	}
}

// IsRoot reports whether c has no parents.
func (c *Commit) IsRoot() bool { return len(c.ParentCommitsAddresses) == 0 }

// IsMerge reports whether c has more than one parent.
func (c *Commit) IsMerge() bool { return len(c.ParentCommitsAddresses) > 1 }

// Validate checks that every address field is set and the message is UTF-8.
// Repeated parents are well formed; rejecting them is a policy choice.
func (c *Commit) Validate() error {
	if !c.ContextAddress.Defined() {
		return fmt.Errorf("context_address: %w", ErrUndefinedAddress)
	}
	if !c.AuthorAddress.Defined() {
		return fmt.Errorf("author_address: %w", ErrUndefinedAddress)
	}
	if !c.ContentAddress.Defined() {
		return fmt.Errorf("content_address: %w", ErrUndefinedAddress)
	}
	if !utf8.ValidString(c.Message) {
		return fmt.Errorf("%w: message is not valid UTF-8", ErrSerialization)
	}
	for i, p := range c.ParentCommitsAddresses {
		if !p.Defined() {
			return fmt.Errorf("parent %d: %w", i, ErrUndefinedAddress)
		}
	}
	return nil
}

// DuplicateParent returns the index of the first parent that repeats an
// earlier one, or -1.
func (c *Commit) DuplicateParent() int {
	seen := make(map[Address]bool, len(c.ParentCommitsAddresses))
	for i, p := range c.ParentCommitsAddresses {
		if seen[p] {
			return i
		}
		seen[p] = true
	}
	return -1
}

// Entry returns the canonical envelope for c. A message that is not valid
// UTF-8 is an ErrSerialization: JSON would rewrite it and merge addresses.
func (c *Commit) Entry() (*Entry, error) {
	if !utf8.ValidString(c.Message) {
		return nil, fmt.Errorf("%w: commit message is not valid UTF-8", ErrSerialization)
	}
	payload := *c
	if payload.ParentCommitsAddresses == nil {
		payload.ParentCommitsAddresses = []Address{}
	}
	return newEntry(KindCommit, payload)
}

// DecodeCommit decodes a commit entry.
func DecodeCommit(e *Entry) (*Commit, error) {
	var c Commit
	if err := e.decodePayload(KindCommit, &c); err != nil {
		return nil, err
	}
	if c.ParentCommitsAddresses == nil {
		c.ParentCommitsAddresses = []Address{}
	}
	return &c, nil
}
