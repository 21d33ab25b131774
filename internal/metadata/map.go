package metadata

// Map is an insertion-ordered string map. Rows read from CSV keep their
// column order, and prepared metadata keeps schema field order.
type Map struct {
	keys   []string
	values map[string]string
}

// MapOf builds a Map from alternating key/value arguments.
// Example: MapOf("name", "Bored Ape", "edition_size", "10")
func MapOf(kv ...string) Map {
	var m Map
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Set stores value under key. A new key is appended to the key order; an
// existing key keeps its position.
func (m *Map) Set(key, value string) {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m Map) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Value returns the value stored under key, or "" if absent.
func (m Map) Value(key string) string {
	return m.values[key]
}

// Keys returns a copy of the keys in insertion order.
func (m Map) Keys() []string {
	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m Map) Len() int {
	return len(m.keys)
}

// Clone returns a copy of m that shares no storage with it.
func (m Map) Clone() Map {
	c := Map{keys: append([]string(nil), m.keys...)}
	if m.values != nil {
		c.values = make(map[string]string, len(m.values))
		for k, v := range m.values {
			c.values[k] = v
		}
	}
	return c
}
