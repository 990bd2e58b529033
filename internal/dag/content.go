package dag

import "fmt"

// Content is what a commit's content address resolves to: a *Blob or a *Tree.
type Content interface {
	Kind() Kind
	Entry() (*Entry, error)
	isContent()
}

var (
	_ Content = (*Blob)(nil)
	_ Content = (*Tree)(nil)
)

// DecodeContent decodes a blob or tree entry, chosen by the envelope kind.
func DecodeContent(e *Entry) (Content, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil entry", ErrSerialization)
	}
	switch e.Kind {
	case KindBlob:
		b, err := DecodeBlob(e)
		if err != nil {
			return nil, err
		}
		return b, nil
	case KindTree:
		t, err := DecodeTree(e)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("%w: entry is a %s, want blob or tree", ErrSerialization, e.Kind)
	}
}
