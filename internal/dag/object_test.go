package dag

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func mustAddress(t *testing.T, c Content) Address {
	t.Helper()
	e, err := c.Entry()
	if err != nil {
		t.Fatalf("Entry: %v", err)
	}
	a, err := e.Address()
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	return a
}

func TestAddress_StringRoundTrip(t *testing.T) {
	a := mustAddress(t, NewBlob([]byte("hello")))
	if !strings.HasPrefix(a.String(), "b") {
		t.Errorf("address %q is not base32 multibase", a)
	}
	parsed, err := ParseAddress(a.String())
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if !parsed.Equals(a) {
		t.Errorf("parsed %s, want %s", parsed, a)
	}
	fromBytes, err := AddressFromBytes(a.Bytes())
	if err != nil {
		t.Fatalf("AddressFromBytes: %v", err)
	}
	if fromBytes != a {
		t.Errorf("from bytes %s, want %s", fromBytes, a)
	}
}

func TestAddress_Undef(t *testing.T) {
	if Undef.Defined() {
		t.Error("Undef should not be defined")
	}
	if Undef.String() != "" {
		t.Errorf("Undef.String() = %q", Undef.String())
	}
	if _, err := ParseAddress(""); !errors.Is(err, ErrUndefinedAddress) {
		t.Errorf("ParseAddress(\"\") err = %v", err)
	}
	if _, err := ParseAddress("not-a-cid"); err == nil {
		t.Error("expected error for garbage address")
	}
}

func TestBlob_SameContentSameAddress(t *testing.T) {
	a := mustAddress(t, NewBlob([]byte("hello")))
	b := mustAddress(t, NewBlob([]byte("hello")))
	c := mustAddress(t, NewBlob([]byte("hello!")))
	if a != b {
		t.Errorf("identical blobs got %s and %s", a, b)
	}
	if a == c {
		t.Error("different blobs share an address")
	}
}

func TestBlob_EmptyAndNilAgree(t *testing.T) {
	nilBlob := mustAddress(t, &Blob{})
	empty := mustAddress(t, NewBlob([]byte{}))
	if nilBlob != empty {
		t.Errorf("nil content %s != empty content %s", nilBlob, empty)
	}
}

func TestEntry_KindIsPartOfAddress(t *testing.T) {
	// A tree and a blob never collide even if payload bytes were equal.
	blobEntry := &Entry{Kind: KindBlob, Payload: []byte(`{"entries":[]}`)}
	treeEntry := &Entry{Kind: KindTree, Payload: []byte(`{"entries":[]}`)}
	a, _ := blobEntry.Address()
	b, _ := treeEntry.Address()
	if a == b {
		t.Error("kind tag not included in address")
	}
}

func TestEntry_BytesRoundTrip(t *testing.T) {
	e, err := NewBlob([]byte("payload")).Entry()
	if err != nil {
		t.Fatal(err)
	}
	data, err := e.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"payload":{"content":"cGF5bG9hZA=="},"type":"blob","v":1}`
	if string(data) != want {
		t.Errorf("envelope = %s\nwant %s", data, want)
	}

	back, err := DecodeEntry(data)
	if err != nil {
		t.Fatalf("DecodeEntry: %v", err)
	}
	again, err := back.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again, data) {
		t.Errorf("re-encoded %s, want %s", again, data)
	}
}

func TestDecodeEntry_Rejects(t *testing.T) {
	for name, data := range map[string]string{
		"garbage":      "{",
		"unknown kind": `{"payload":{},"type":"tag","v":1}`,
		"bad version":  `{"payload":{},"type":"blob","v":7}`,
	} {
		if _, err := DecodeEntry([]byte(data)); !errors.Is(err, ErrSerialization) {
			t.Errorf("%s: err = %v, want ErrSerialization", name, err)
		}
	}
}

func TestTree_InsertionOrderIrrelevant(t *testing.T) {
	a := mustAddress(t, NewBlob([]byte("a")))
	b := mustAddress(t, NewBlob([]byte("b")))

	t1, err := NewTree(
		TreeEntry{Name: "a.txt", Address: a, Kind: KindBlob},
		TreeEntry{Name: "b.txt", Address: b, Kind: KindBlob},
	)
	if err != nil {
		t.Fatal(err)
	}
	t2, err := NewTree(
		TreeEntry{Name: "b.txt", Address: b, Kind: KindBlob},
		TreeEntry{Name: "a.txt", Address: a, Kind: KindBlob},
	)
	if err != nil {
		t.Fatal(err)
	}
	if mustAddress(t, t1) != mustAddress(t, t2) {
		t.Error("tree address depends on insertion order")
	}

	got, ok := t2.Lookup("b.txt")
	if !ok || got.Address != b {
		t.Errorf("Lookup(b.txt) = %+v, %v", got, ok)
	}
	if _, ok := t2.Lookup("c.txt"); ok {
		t.Error("Lookup found a missing name")
	}
}

func TestNewTree_Rejects(t *testing.T) {
	a := mustAddress(t, NewBlob([]byte("a")))
	cases := map[string][]TreeEntry{
		"duplicate": {
			{Name: "x", Address: a, Kind: KindBlob},
			{Name: "x", Address: a, Kind: KindTree},
		},
		"empty name":   {{Name: "", Address: a, Kind: KindBlob}},
		"dot dot":      {{Name: "..", Address: a, Kind: KindTree}},
		"slash":        {{Name: "a/b", Address: a, Kind: KindBlob}},
		"commit child": {{Name: "c", Address: a, Kind: KindCommit}},
		"no address":   {{Name: "n", Kind: KindBlob}},
		"invalid utf8": {{Name: "a\xff", Address: a, Kind: KindBlob}},
	}
	for name, entries := range cases {
		if _, err := NewTree(entries...); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestTree_DecodeRoundTrip(t *testing.T) {
	a := mustAddress(t, NewBlob([]byte("a")))
	tree, err := NewTree(TreeEntry{Name: "file", Address: a, Kind: KindBlob})
	if err != nil {
		t.Fatal(err)
	}
	e, err := tree.Entry()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeTree(e)
	if err != nil {
		t.Fatalf("DecodeTree: %v", err)
	}
	if len(got.Entries) != 1 || got.Entries[0] != tree.Entries[0] {
		t.Errorf("decoded %+v, want %+v", got.Entries, tree.Entries)
	}
}

func testCommit(t *testing.T, message string, parents ...Address) *Commit {
	t.Helper()
	author, err := testIdentity(t).AuthorAddress()
	if err != nil {
		t.Fatal(err)
	}
	ctxAddr := mustAddress(t, NewBlob([]byte("context")))
	content := mustAddress(t, NewBlob([]byte("hello")))
	return NewCommit(ctxAddr, author, message, content, parents)
}

func commitAddress(t *testing.T, c *Commit) Address {
	t.Helper()
	e, err := c.Entry()
	if err != nil {
		t.Fatal(err)
	}
	a, err := e.Address()
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestCommit_Deterministic(t *testing.T) {
	a := commitAddress(t, testCommit(t, "init"))
	b := commitAddress(t, testCommit(t, "init"))
	if a != b {
		t.Errorf("identical commits got %s and %s", a, b)
	}
	if a == commitAddress(t, testCommit(t, "other")) {
		t.Error("message not part of the address")
	}
}

func TestCommit_ParentOrderMatters(t *testing.T) {
	p1 := commitAddress(t, testCommit(t, "p1"))
	p2 := commitAddress(t, testCommit(t, "p2"))
	a := commitAddress(t, testCommit(t, "merge", p1, p2))
	b := commitAddress(t, testCommit(t, "merge", p2, p1))
	if a == b {
		t.Error("parent order should change the address")
	}
}

func TestCommit_RootEncodesEmptyParents(t *testing.T) {
	c := &Commit{ContextAddress: Undef}
	e, err := c.Entry()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(e.Payload), `"parent_commits_addresses":[]`) {
		t.Errorf("payload %s should encode parents as []", e.Payload)
	}
}

func TestCommit_DecodeRoundTrip(t *testing.T) {
	p1 := commitAddress(t, testCommit(t, "p1"))
	want := testCommit(t, "child", p1)
	e, err := want.Entry()
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeCommit(e)
	if err != nil {
		t.Fatalf("DecodeCommit: %v", err)
	}
	if got.Message != "child" || got.ContentAddress != want.ContentAddress ||
		got.AuthorAddress != want.AuthorAddress || got.ContextAddress != want.ContextAddress {
		t.Errorf("decoded %+v, want %+v", got, want)
	}
	if len(got.ParentCommitsAddresses) != 1 || got.ParentCommitsAddresses[0] != p1 {
		t.Errorf("parents = %v, want [%s]", got.ParentCommitsAddresses, p1)
	}
}

func TestCommit_NewCopiesParents(t *testing.T) {
	p1 := commitAddress(t, testCommit(t, "p1"))
	parents := []Address{p1}
	c := testCommit(t, "child", parents...)
	parents[0] = Undef
	if c.ParentCommitsAddresses[0] != p1 {
		t.Error("NewCommit aliases the caller's parent slice")
	}
}

func TestCommit_Validate(t *testing.T) {
	ok := testCommit(t, "ok")
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	noContent := testCommit(t, "x")
	noContent.ContentAddress = Undef
	if err := noContent.Validate(); !errors.Is(err, ErrUndefinedAddress) {
		t.Errorf("missing content err = %v", err)
	}

	p := commitAddress(t, ok)
	dup := testCommit(t, "dup", p, p)
	if err := dup.Validate(); err != nil {
		t.Errorf("repeated parents are well formed: %v", err)
	}
	if i := dup.DuplicateParent(); i != 1 {
		t.Errorf("DuplicateParent = %d, want 1", i)
	}
	if i := ok.DuplicateParent(); i != -1 {
		t.Errorf("DuplicateParent on root = %d, want -1", i)
	}
}

func TestCommit_InvalidUTF8Message(t *testing.T) {
	c := testCommit(t, "msg\xff")
	if _, err := c.Entry(); !errors.Is(err, ErrSerialization) {
		t.Errorf("Entry err = %v, want ErrSerialization", err)
	}
	if err := c.Validate(); !errors.Is(err, ErrSerialization) {
		t.Errorf("Validate err = %v, want ErrSerialization", err)
	}

	// Valid non-ASCII text round-trips unchanged.
	e, err := testCommit(t, "héllo \u2603").Entry()
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeCommit(e)
	if err != nil {
		t.Fatal(err)
	}
	if back.Message != "héllo \u2603" {
		t.Errorf("message = %q", back.Message)
	}
}

func TestDecode_KindMismatch(t *testing.T) {
	e, err := NewBlob([]byte("x")).Entry()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeCommit(e); !errors.Is(err, ErrSerialization) {
		t.Errorf("DecodeCommit(blob) err = %v", err)
	}
	if _, err := DecodeTree(e); !errors.Is(err, ErrSerialization) {
		t.Errorf("DecodeTree(blob) err = %v", err)
	}
}

func TestDecodeContent_Variants(t *testing.T) {
	blobEntry, _ := NewBlob([]byte("hello")).Entry()
	c, err := DecodeContent(blobEntry)
	if err != nil {
		t.Fatal(err)
	}
	b, ok := c.(*Blob)
	if !ok || string(b.Content) != "hello" {
		t.Errorf("DecodeContent(blob) = %#v", c)
	}

	tree, _ := NewTree()
	treeEntry, _ := tree.Entry()
	c, err = DecodeContent(treeEntry)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := c.(*Tree); !ok {
		t.Errorf("DecodeContent(tree) = %#v", c)
	}

	commitEntry, _ := testCommit(t, "c").Entry()
	if _, err := DecodeContent(commitEntry); !errors.Is(err, ErrSerialization) {
		t.Errorf("DecodeContent(commit) err = %v", err)
	}
}

func TestTree_InvalidUTF8Names(t *testing.T) {
	a := mustAddress(t, NewBlob([]byte("a")))
	_, err := NewTree(
		TreeEntry{Name: "a\xff", Address: a, Kind: KindBlob},
		TreeEntry{Name: "a\xfe", Address: a, Kind: KindBlob},
	)
	if !errors.Is(err, ErrSerialization) {
		t.Errorf("NewTree err = %v, want ErrSerialization", err)
	}

	// A tree built without NewTree must not encode either.
	raw := &Tree{Entries: []TreeEntry{{Name: "a\xfe", Address: a, Kind: KindBlob}}}
	if _, err := raw.Entry(); !errors.Is(err, ErrSerialization) {
		t.Errorf("Entry err = %v, want ErrSerialization", err)
	}
}
