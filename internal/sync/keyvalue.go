package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultBaseURL = "https://api.keyvalue.xyz"

// KeyValueGateway talks to a keyvalue.xyz style store: GET /{key} reads
// the snapshot, POST /{key} overwrites it, POST /new mints a fresh key.
type KeyValueGateway struct {
	baseURL string
	client  *http.Client
}

func NewKeyValueGateway(baseURL string) *KeyValueGateway {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &KeyValueGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *KeyValueGateway) Pull(ctx context.Context, key string) (Data, error) {
	var data Data

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/"+key, nil)
	if err != nil {
		return data, fmt.Errorf("build pull request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return data, fmt.Errorf("pull snapshot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return data, ErrKeyNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return data, fmt.Errorf("pull snapshot: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return data, fmt.Errorf("read snapshot: %w", err)
	}
	// The store serves an empty body for keys that were minted but never
	// written, treat that the same as a missing key.
	if len(bytes.TrimSpace(body)) == 0 {
		return data, ErrKeyNotFound
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return data, fmt.Errorf("decode snapshot: %w", err)
	}
	return data, nil
}

func (g *KeyValueGateway) Push(ctx context.Context, key string, data Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/"+key, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("push snapshot: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("push snapshot: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// CreateKey asks the store for a new key. When the store is unreachable
// a locally generated key is returned so the app keeps working offline;
// the key becomes shareable once the first push lands.
func (g *KeyValueGateway) CreateKey(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/new", nil)
	if err != nil {
		return "", fmt.Errorf("build create request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return localKey(), nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return localKey(), nil
	}

	// The store answers with a full key URL, the key is the last segment.
	keyURL := strings.TrimSpace(string(body))
	if i := strings.LastIndex(keyURL, "/"); i >= 0 {
		keyURL = keyURL[i+1:]
	}
	if keyURL == "" {
		return localKey(), nil
	}
	return keyURL, nil
}

func localKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:13]
}
