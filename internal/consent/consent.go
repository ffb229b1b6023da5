// Package consent remembers whether the user previously agreed to share
// their location for distance sorting. Only a boolean is ever stored.
package consent

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Key names the flag wherever it is persisted
const Key = "distance-sort-consent"

// Store reads and writes the consent flag
type Store interface {
	Get() bool
	Set(granted bool)
}

// MemoryStore keeps the flag for the life of the process
type MemoryStore struct {
	mu      sync.RWMutex
	granted bool
}

func (m *MemoryStore) Get() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.granted
}

func (m *MemoryStore) Set(granted bool) {
	m.mu.Lock()
	m.granted = granted
	m.mu.Unlock()
}

const cookieMaxAge = 365 * 24 * time.Hour

// CookieStore mirrors the flag held in the client's cookie. Load it from
// each incoming request and Flush any change onto the response.
type CookieStore struct {
	Secure bool

	mu      sync.Mutex
	granted bool
	dirty   bool
}

// NewCookieStore creates a store whose cookies carry the Secure attribute when secure is set
func NewCookieStore(secure bool) *CookieStore {
	return &CookieStore{Secure: secure}
}

// Load replaces the current value with the request's cookie
func (c *CookieStore) Load(r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.granted = FromRequest(r)
	c.dirty = false
}

func (c *CookieStore) Get() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.granted
}

func (c *CookieStore) Set(granted bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if granted != c.granted {
		c.dirty = true
	}
	c.granted = granted
}

// Flush writes a Set-Cookie header if the value changed since Load
func (c *CookieStore) Flush(w http.ResponseWriter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dirty {
		return
	}
	WriteCookie(w, c.granted, c.Secure)
	c.dirty = false
}

// FromRequest reports whether the request carries a granted consent cookie
func FromRequest(r *http.Request) bool {
	ck, err := r.Cookie(Key)
	return err == nil && ck.Value == "true"
}

// WriteCookie sets the cookie when granted and expires it otherwise
func WriteCookie(w http.ResponseWriter, granted bool, secure bool) {
	ck := &http.Cookie{
		Name:     Key,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	if granted {
		ck.Value = "true"
		ck.MaxAge = int(cookieMaxAge.Seconds())
	} else {
		ck.MaxAge = -1
	}
	http.SetCookie(w, ck)
}

// FileStore keeps the flag in a file, for the CLI
type FileStore struct {
	path string
}

// NewFileStore stores the flag at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultPath is umnpray/distance-sort-consent under the user config dir
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locating config dir: %w", err)
	}
	return filepath.Join(dir, "umnpray", Key), nil
}

func (f *FileStore) Get() bool {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(raw)) == "true"
}

// Set writes or removes the file. Write failures leave the flag unset.
func (f *FileStore) Set(granted bool) {
	if !granted {
		_ = os.Remove(f.path)
		return
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return
	}
	_ = os.WriteFile(f.path, []byte("true\n"), 0o600)
}
