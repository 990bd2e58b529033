package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/systemshift/memex-vc/internal/dag"
)

// DefaultKuboAPI is the local Kubo daemon RPC endpoint.
const DefaultKuboAPI = "http://localhost:5001/api/v0"

// maxBlockSize is the largest block Kubo will accept from block/put.
const maxBlockSize = 2 << 20

// KuboStore publishes entries as raw IPFS blocks through the Kubo RPC API.
// Addresses are computed locally and cross-checked against the CID the
// daemon reports, so both sides agree on the dag-json/sha2-256 encoding.
// Addresses inside payloads are plain strings, not {"/": cid} link objects,
// so IPLD tooling sees each block as a leaf. Pinning keeps a block alive but
// not what it references.
type KuboStore struct {
	apiURL string
	client *http.Client
}

var _ Store = (*KuboStore)(nil)

// NewKuboStore creates a store talking to the Kubo API at apiURL.
func NewKuboStore(apiURL string) *KuboStore {
	if apiURL == "" {
		apiURL = DefaultKuboAPI
	}
	return &KuboStore{
		apiURL: strings.TrimRight(apiURL, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// IsAvailable checks if the Kubo daemon is reachable.
func (k *KuboStore) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	resp, err := k.post(ctx, "/id", nil, "", nil)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Put implements Store.
func (k *KuboStore) Put(ctx context.Context, e *dag.Entry) (dag.Address, error) {
	data, addr, err := encode(e)
	if err != nil {
		return dag.Undef, err
	}
	if len(data) > maxBlockSize {
		return dag.Undef, fmt.Errorf("%w: entry is %d bytes, block limit is %d", ErrRemote, len(data), maxBlockSize)
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "data")
	if err != nil {
		return dag.Undef, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return dag.Undef, fmt.Errorf("write form data: %w", err)
	}
	if err := w.Close(); err != nil {
		return dag.Undef, fmt.Errorf("close form: %w", err)
	}

	params := url.Values{
		"cid-codec": {"dag-json"},
		"mhtype":    {"sha2-256"},
		"pin":       {"true"},
	}
	resp, err := k.post(ctx, "/block/put", params, w.FormDataContentType(), &buf)
	if err != nil {
		return dag.Undef, fmt.Errorf("%w: block put: %v", ErrRemote, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return dag.Undef, remoteError("block put", resp)
	}

	var result struct {
		Key string `json:"Key"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return dag.Undef, fmt.Errorf("%w: block put: parse response: %v", ErrRemote, err)
	}
	got, err := dag.ParseAddress(result.Key)
	if err != nil {
		return dag.Undef, fmt.Errorf("%w: block put: %v", ErrRemote, err)
	}
	if !got.Equals(addr) {
		return dag.Undef, fmt.Errorf("%w: daemon stored %s, expected %s", ErrCorrupt, got, addr)
	}
	return addr, nil
}

// Get implements Store. Lookups run offline so a missing block is reported
// immediately instead of waiting on the network.
func (k *KuboStore) Get(ctx context.Context, addr dag.Address) (*dag.Entry, error) {
	if err := checkAddress(addr); err != nil {
		return nil, err
	}
	params := url.Values{
		"arg":     {addr.String()},
		"offline": {"true"},
	}
	resp, err := k.post(ctx, "/block/get", params, "", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: block get: %v", ErrRemote, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, remoteError("block get "+addr.String(), resp)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBlockSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: block get: read: %v", ErrRemote, err)
	}
	return decode(addr, data)
}

func (k *KuboStore) post(ctx context.Context, path string, params url.Values, contentType string, body io.Reader) (*http.Response, error) {
	u := k.apiURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return k.client.Do(req)
}

// remoteError maps a failed Kubo response. Kubo reports a missing block as a
// 500 whose message says "not found".
func remoteError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var kerr struct {
		Message string `json:"Message"`
	}
	msg := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &kerr) == nil && kerr.Message != "" {
		msg = kerr.Message
	}
	if strings.Contains(strings.ToLower(msg), "not found") {
		return fmt.Errorf("%w: %s: %s", ErrNotFound, op, msg)
	}
	return fmt.Errorf("%w: %s: status %d: %s", ErrRemote, op, resp.StatusCode, msg)
}
