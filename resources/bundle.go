// Package resources provides the key/value configuration bundle that
// identity providers are resolved from.
package resources

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	oidckit "github.com/open-rails/moreidps/oidc"
)

// ErrNotFound is returned for a key the bundle does not define.
var ErrNotFound = errors.New("resource not found")

// Bundle is an in-memory set of boolean and string resources.
type Bundle struct {
	mu      sync.RWMutex
	bools   map[string]bool
	strings map[string]string
}

func New() *Bundle {
	return &Bundle{bools: map[string]bool{}, strings: map[string]string{}}
}

func (b *Bundle) SetBool(key string, v bool) *Bundle {
	b.mu.Lock()
	b.bools[key] = v
	b.mu.Unlock()
	return b
}

func (b *Bundle) SetString(key, v string) *Bundle {
	b.mu.Lock()
	b.strings[key] = v
	b.mu.Unlock()
	return b
}

func (b *Bundle) Bool(ref oidckit.Ref) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.bools[string(ref)]
	if !ok {
		return false, fmt.Errorf("bool %q: %w", ref, ErrNotFound)
	}
	return v, nil
}

func (b *Bundle) String(ref oidckit.Ref) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.strings[string(ref)]
	if !ok {
		return "", fmt.Errorf("string %q: %w", ref, ErrNotFound)
	}
	return v, nil
}

// Keys lists every defined key, sorted.
func (b *Bundle) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.bools)+len(b.strings))
	for k := range b.bools {
		keys = append(keys, k)
	}
	for k := range b.strings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Merge copies every value of other into b, overwriting existing keys.
func (b *Bundle) Merge(other *Bundle) *Bundle {
	other.mu.RLock()
	defer other.mu.RUnlock()
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range other.bools {
		b.bools[k] = v
	}
	for k, v := range other.strings {
		b.strings[k] = v
	}
	return b
}

// ApplyEnv overrides defined keys from PREFIX_KEY environment variables
// (key upper-cased). Unset variables leave the bundle untouched.
func (b *Bundle) ApplyEnv(prefix string) error {
	return b.applyEnv(prefix, os.LookupEnv)
}

func (b *Bundle) applyEnv(prefix string, lookup func(string) (string, bool)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for k := range b.bools {
		raw, ok := lookup(envName(prefix, k))
		if !ok {
			continue
		}
		v, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("env %s: %w", envName(prefix, k), err)
		}
		b.bools[k] = v
	}
	for k := range b.strings {
		if raw, ok := lookup(envName(prefix, k)); ok {
			b.strings[k] = raw
		}
	}
	return nil
}

func envName(prefix, key string) string {
	name := strings.ToUpper(key)
	if prefix == "" {
		return name
	}
	return strings.ToUpper(strings.TrimSuffix(prefix, "_")) + "_" + name
}

// Load reads a bundle file, choosing the format by extension (.yaml/.yml or .xml).
func Load(path string) (*Bundle, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAML(path)
	case ".xml":
		return LoadAndroidXML(path)
	default:
		return nil, fmt.Errorf("unsupported resource file %q (want .yaml, .yml or .xml)", path)
	}
}
