package cache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/klauspost/compress/zstd"

	"forge/internal/auth"
	"forge/internal/version"
)

// RemoteClient talks to a forge remote cache server, authenticating with
// a bearer API key in the forge_sk_ token format internal/auth issues for
// the build-cache-sharing service.
type RemoteClient struct {
	baseURL string
	apiKey  string
	http    *http.Client

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewRemoteClient creates a client for the remote cache at baseURL,
// authenticating with apiKey. apiKey must look like a forge API token
// (see internal/auth.IsValidTokenFormat); the server, not this client,
// verifies its hash.
func NewRemoteClient(baseURL, apiKey string) (*RemoteClient, error) {
	if !auth.IsValidTokenFormat(apiKey) {
		return nil, fmt.Errorf("remote cache: %q is not a recognised forge API token", auth.MaskToken(apiKey))
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("remote cache: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("remote cache: %w", err)
	}

	return &RemoteClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
		encoder: enc,
		decoder: dec,
	}, nil
}

// Close releases the compressor/decompressor resources.
func (c *RemoteClient) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

// Fetch downloads a cached entry by key, compressed with zstd on the wire.
func (c *RemoteClient) Fetch(ctx context.Context, key string) (*Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/cache/"+key, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote cache fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrMiss
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote cache fetch: server returned %s", resp.Status)
	}

	compressed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	raw, err := c.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("remote cache fetch: %w", err)
	}

	return decodeEntry(raw)
}

// Push uploads a cached entry, compressed with zstd.
func (c *RemoteClient) Push(ctx context.Context, key string, e Entry) error {
	raw := encodeEntry(e)
	compressed := c.encoder.EncodeAll(raw, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/cache/"+key, bytes.NewReader(compressed))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Encoding", "zstd")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("remote cache push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("remote cache push: server returned %s", resp.Status)
	}
	return nil
}

// encodeEntry serialises an Entry as a small length-prefixed wire format:
// fileName, then code, then map, each prefixed with a 4-byte big-endian
// length.
func encodeEntry(e Entry) []byte {
	var buf bytes.Buffer
	writeChunk(&buf, []byte(e.FileName))
	writeChunk(&buf, e.Code)
	writeChunk(&buf, e.Map)
	return buf.Bytes()
}

func decodeEntry(raw []byte) (*Entry, error) {
	r := bytes.NewReader(raw)

	fileName, err := readChunk(r)
	if err != nil {
		return nil, err
	}
	code, err := readChunk(r)
	if err != nil {
		return nil, err
	}
	mapBytes, err := readChunk(r)
	if err != nil {
		return nil, err
	}

	return &Entry{FileName: string(fileName), Code: code, Map: mapBytes}, nil
}

func writeChunk(buf *bytes.Buffer, data []byte) {
	var length [4]byte
	n := uint32(len(data))
	length[0] = byte(n >> 24)
	length[1] = byte(n >> 16)
	length[2] = byte(n >> 8)
	length[3] = byte(n)
	buf.Write(length[:])
	buf.Write(data)
}

func readChunk(r *bytes.Reader) ([]byte, error) {
	var length [4]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return nil, fmt.Errorf("remote cache: truncated entry: %w", err)
	}
	n := uint32(length[0])<<24 | uint32(length[1])<<16 | uint32(length[2])<<8 | uint32(length[3])
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("remote cache: truncated entry: %w", err)
	}
	return data, nil
}
