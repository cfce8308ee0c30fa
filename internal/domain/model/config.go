package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	gojson "github.com/goccy/go-json"
)

// Config holds an effect's parameter values. It is a flat mapping from field
// name to value that remembers the order in which keys were first seen, so a
// form derived from it keeps its rows in place across edits.
//
// A Config is treated as immutable: edits produce a new Config.
type Config struct {
	keys   []string
	values map[string]any
}

// NewConfig builds a Config from alternating key/value arguments.
// Non-string keys are formatted with %v.
func NewConfig(kv ...any) Config {
	c := Config{values: make(map[string]any, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		c.set(fmt.Sprint(kv[i]), kv[i+1])
	}
	return c
}

// ConfigFromParts takes ownership of keys and values. Keys missing from
// values are dropped, values missing from keys are appended in no
// particular order.
func ConfigFromParts(keys []string, values map[string]any) Config {
	c := Config{keys: make([]string, 0, len(values)), values: values}
	if c.values == nil {
		c.values = map[string]any{}
	}
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if _, ok := c.values[k]; ok && !seen[k] {
			seen[k] = true
			c.keys = append(c.keys, k)
		}
	}
	for k := range c.values {
		if !seen[k] {
			c.keys = append(c.keys, k)
		}
	}
	return c
}

func (c *Config) set(key string, value any) {
	if c.values == nil {
		c.values = map[string]any{}
	}
	if _, ok := c.values[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Keys returns the keys in insertion order.
func (c Config) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Get returns the value stored under key.
func (c Config) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is set.
func (c Config) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

func (c Config) Len() int {
	return len(c.keys)
}

// Values returns a shallow copy of the underlying mapping.
func (c Config) Values() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// With returns a shallow copy of c with key set to value. New keys are
// appended at the end.
func (c Config) With(key string, value any) Config {
	out := Config{keys: c.Keys(), values: c.Values()}
	out.set(key, value)
	return out
}

func (c Config) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := gojson.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := gojson.Marshal(c.values[k])
		if err != nil {
			return nil, fmt.Errorf("encoding config field %q: %w", k, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the order of its keys. A JSON
// null decodes to an empty Config.
func (c *Config) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	out := Config{values: map[string]any{}}
	if tok == nil {
		*c = out
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("config must be a JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected config key %v", tok)
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("decoding config field %q: %w", key, err)
		}
		out.set(key, value)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}
