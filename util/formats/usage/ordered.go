// SPDX-License-Identifier: MIT

package usage

import (
	"bytes"
	"encoding/json"
)

// A string-keyed map that remembers insertion order.  Setting an existing key replaces the value
// but keeps the key in its original position.  The zero value is an empty map ready for use.

type OrderedMap[V any] struct {
	keys []string
	vals map[string]V
}

func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{vals: make(map[string]V)}
}

func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, found := m.vals[key]
	return v, found
}

func (m *OrderedMap[V]) Set(key string, val V) {
	if m.vals == nil {
		m.vals = make(map[string]V)
	}
	if _, found := m.vals[key]; !found {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = val
}

// The returned slice must not be modified.
func (m *OrderedMap[V]) Keys() []string {
	return m.keys
}

func (m *OrderedMap[V]) Last() (key string, val V, found bool) {
	if len(m.keys) == 0 {
		return
	}
	key = m.keys[len(m.keys)-1]
	return key, m.vals[key], true
}

// Ensure returns the submap at key, creating and inserting an empty one if it is not there.

func Ensure[T any](m *OrderedMap[*OrderedMap[T]], key string) *OrderedMap[T] {
	if sub, found := m.Get(key); found && sub != nil {
		return sub
	}
	sub := NewOrderedMap[T]()
	m.Set(key, sub)
	return sub
}

// Keys and values are encoded without HTML escaping so that the document reads the same as the
// input, user names included.

func (m *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalUnescaped(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalUnescaped(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
