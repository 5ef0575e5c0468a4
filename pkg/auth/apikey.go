// Package auth guards the HTTP surface with static API keys loaded from
// the environment. The STDIO transport is never authenticated: whoever
// spawned the process already owns both ends of the pipe.
package auth

import (
	"crypto/subtle"
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/utcsync/mcp-time-server/pkg/logging"
)

// Key is one configured API key. The value of an API_KEY_<NAME> variable
// may be either the bare key or a JSON document carrying metadata.
type Key struct {
	Key       string `json:"key"`
	Name      string `json:"name,omitempty"`
	RateLimit uint32 `json:"rate_limit,omitempty"`
}

// KeyValidator holds the configured keys for the process lifetime
type KeyValidator struct {
	keys []Key
}

// FromEnv builds a validator from the process environment
func FromEnv(logger logging.Logger) *KeyValidator {
	return FromEnviron(os.Environ(), logger)
}

// FromEnviron builds a validator from an environ-style slice. Every
// API_KEY_<NAME> variable contributes one key; the legacy API_KEYS
// variable contributes a comma-separated list.
func FromEnviron(env []string, logger logging.Logger) *KeyValidator {
	v := &KeyValidator{}

	type namedVar struct {
		suffix string
		value  string
	}
	var named []namedVar
	var legacy string

	for _, kv := range env {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		if suffix, found := strings.CutPrefix(name, "API_KEY_"); found {
			named = append(named, namedVar{suffix: suffix, value: value})
		} else if name == "API_KEYS" {
			legacy = value
		}
	}

	// Environ order is arbitrary; sort by variable name so metadata
	// resolution is stable across runs
	sort.Slice(named, func(i, j int) bool { return named[i].suffix < named[j].suffix })

	for _, nv := range named {
		if strings.HasPrefix(nv.value, "{") {
			var key Key
			if err := json.Unmarshal([]byte(nv.value), &key); err != nil {
				logger.Warn("failed to parse API key as JSON, treating as plain key",
					logging.String("var", "API_KEY_"+nv.suffix),
					logging.ErrorField(err))
				v.add(Key{Key: nv.value, Name: "Key " + nv.suffix})
				continue
			}
			logger.Info("loaded API key with metadata", logging.String("var", "API_KEY_"+nv.suffix))
			v.add(key)
			continue
		}
		logger.Info("loaded API key", logging.String("var", "API_KEY_"+nv.suffix))
		v.add(Key{Key: nv.value, Name: "Key " + nv.suffix})
	}

	if legacy != "" {
		logger.Info("loading keys from API_KEYS environment variable")
		for _, k := range strings.Split(legacy, ",") {
			k = strings.TrimSpace(k)
			if k == "" {
				continue
			}
			v.add(Key{Key: k, Name: "Legacy key"})
		}
	}

	logger.Info("loaded API keys", logging.Int("count", v.KeyCount()))
	return v
}

// FromKeys builds a validator from a static key list
func FromKeys(keys []string) *KeyValidator {
	v := &KeyValidator{}
	for i, k := range keys {
		v.add(Key{Key: k, Name: "Static key " + strconv.Itoa(i+1)})
	}
	return v
}

// add stores a key unless it is empty or already present. The first
// occurrence keeps its metadata.
func (v *KeyValidator) add(key Key) {
	if key.Key == "" {
		return
	}
	for i := range v.keys {
		if v.keys[i].Key == key.Key {
			return
		}
	}
	v.keys = append(v.keys, key)
}

// Validate reports whether the candidate matches a configured key. Every
// configured key is compared in constant time with no early exit, so a
// probe learns nothing from response latency.
func (v *KeyValidator) Validate(candidate string) bool {
	if candidate == "" {
		return false
	}

	match := false
	for i := range v.keys {
		if subtle.ConstantTimeCompare([]byte(v.keys[i].Key), []byte(candidate)) == 1 {
			match = true
		}
	}
	return match
}

// Metadata returns the metadata stored for a key
func (v *KeyValidator) Metadata(key string) (Key, bool) {
	for i := range v.keys {
		if v.keys[i].Key == key {
			return v.keys[i], true
		}
	}
	return Key{}, false
}

// KeyCount returns the number of distinct configured keys
func (v *KeyValidator) KeyCount() int {
	return len(v.keys)
}

// HasKeys reports whether any key is configured
func (v *KeyValidator) HasKeys() bool {
	return len(v.keys) > 0
}
