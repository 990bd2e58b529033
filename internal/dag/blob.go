package dag

// Blob is a leaf entry holding raw bytes.
type Blob struct {
	Content []byte `json:"content"`
}

// NewBlob copies content into a new Blob.
func NewBlob(content []byte) *Blob {
	b := make([]byte, len(content))
	copy(b, content)
	return &Blob{Content: b}
}

// Kind implements Content.
func (b *Blob) Kind() Kind { return KindBlob }

func (*Blob) isContent() {}

// Entry returns the canonical envelope for b.
func (b *Blob) Entry() (*Entry, error) {
	payload := Blob{Content: b.Content}
	if payload.Content == nil {
		payload.Content = []byte{}
	}
	return newEntry(KindBlob, payload)
}

// DecodeBlob decodes a blob entry.
func DecodeBlob(e *Entry) (*Blob, error) {
	var b Blob
	if err := e.decodePayload(KindBlob, &b); err != nil {
		return nil, err
	}
	if b.Content == nil {
		b.Content = []byte{}
	}
	return &b, nil
}
