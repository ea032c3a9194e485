// ABOUTME: Charm KV client wrapper for cloud-synced video and chat storage
// ABOUTME: Keys are namespaced by prefix, values are JSON documents
package charm

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/charm/kv"
	"github.com/dgraph-io/badger/v3"
)

// Key prefixes for different entity types
const (
	VideoPrefix   = "video:"
	MessagePrefix = "message:"
)

const (
	defaultHost   = "cloud.charm.sh"
	defaultDBName = "vidchat"
)

// ErrNotFound is returned by Get for missing keys
var ErrNotFound = errors.New("key not found")

// Config holds charm client configuration
type Config struct {
	Host     string
	DBName   string
	AutoSync bool
}

// Client wraps charm KV for storage operations
type Client struct {
	kv       *kv.KV
	autoSync bool
	mu       sync.Mutex
}

// NewClient opens the named charm KV database, pulling remote data first when AutoSync is set.
// Empty Host and DBName fall back to CHARM_HOST (or the public charm cloud) and "vidchat".
func NewClient(cfg *Config) (*Client, error) {
	host := cfg.Host
	if host == "" {
		host = os.Getenv("CHARM_HOST")
	}
	if host == "" {
		host = defaultHost
	}
	name := cfg.DBName
	if name == "" {
		name = defaultDBName
	}

	// kv reads the server from the environment
	if err := os.Setenv("CHARM_HOST", host); err != nil {
		return nil, err
	}

	db, err := kv.OpenWithDefaults(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open charm kv %s: %w", name, err)
	}

	if cfg.AutoSync {
		_ = db.Sync()
	}

	return &Client{kv: db, autoSync: cfg.AutoSync}, nil
}

// Close closes the KV database
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.kv == nil {
		return nil
	}
	err := c.kv.Close()
	c.kv = nil
	return err
}

// write applies a mutation under the lock and pushes it to the cloud when auto sync is on
func (c *Client) write(key string, op func(k []byte) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := op([]byte(key)); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	if c.autoSync {
		_ = c.kv.Sync()
	}
	return nil
}

// Set stores a value with the given key
func (c *Client) Set(key string, value []byte) error {
	return c.write(key, func(k []byte) error { return c.kv.Set(k, value) })
}

// Delete removes a key
func (c *Client) Delete(key string) error {
	return c.write(key, c.kv.Delete)
}

// Get retrieves a value by key; missing keys return ErrNotFound
func (c *Client) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := c.kv.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) || (err == nil && data == nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return data, err
}

// ListKeys returns all keys with the given prefix, sorted
func (c *Client) ListKeys(prefix string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, err := c.kv.Keys()
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	var result []string
	for _, key := range keys {
		if k := string(key); strings.HasPrefix(k, prefix) {
			result = append(result, k)
		}
	}
	sort.Strings(result)
	return result, nil
}

func setJSON(store KV, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal value: %w", err)
	}
	return store.Set(key, data)
}

func getJSON(store KV, key string, dest any) error {
	data, err := store.Get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// VideoKey generates a key for a VideoInfo
func VideoKey(videoID string) string {
	return VideoPrefix + videoID
}

// MessageKeyPrefix is the prefix shared by every message of a video
func MessageKeyPrefix(videoID string) string {
	return MessagePrefix + videoID + ":"
}

// MessageKey generates a key that sorts by seq within a video
func MessageKey(videoID string, seq int64, messageID string) string {
	return fmt.Sprintf("%s%020d:%s", MessageKeyPrefix(videoID), seq, messageID)
}
