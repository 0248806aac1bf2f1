package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// PairCodec encodes maps as ordered [key, value] pair arrays. Pairs are
// sorted by the encoded key so output is stable. Decoding keeps the last
// value for a repeated key.
type PairCodec[K comparable, V any] struct{}

// Encode renders m as [[k, v], ...].
func (PairCodec[K, V]) Encode(m map[K]V) ([]byte, error) {
	type pair struct {
		key  json.RawMessage
		data [2]json.RawMessage
	}
	pairs := make([]pair, 0, len(m))
	for k, v := range m {
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("encode key: %w", err)
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode value for %s: %w", kb, err)
		}
		pairs = append(pairs, pair{key: kb, data: [2]json.RawMessage{kb, vb}})
	}
	sort.Slice(pairs, func(i, j int) bool { return bytes.Compare(pairs[i].key, pairs[j].key) < 0 })

	out := make([][2]json.RawMessage, len(pairs))
	for i, p := range pairs {
		out[i] = p.data
	}
	return json.Marshal(out)
}

// Decode parses a pair array. A plain JSON object is accepted as well so
// older snapshots still load.
func (PairCodec[K, V]) Decode(data []byte) (map[K]V, error) {
	out := make(map[K]V)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return out, nil
	}
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode object map: %w", err)
		}
		return out, nil
	}

	var raw [][]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decode pair array: %w", err)
	}
	for i, p := range raw {
		if len(p) != 2 {
			return nil, fmt.Errorf("pair %d has %d elements, want 2", i, len(p))
		}
		var k K
		if err := json.Unmarshal(p[0], &k); err != nil {
			return nil, fmt.Errorf("decode key of pair %d: %w", i, err)
		}
		var v V
		if err := json.Unmarshal(p[1], &v); err != nil {
			return nil, fmt.Errorf("decode value of pair %d: %w", i, err)
		}
		out[k] = v
	}
	return out, nil
}

// Pairs is a map that serializes through PairCodec.
type Pairs[K comparable, V any] map[K]V

// MarshalJSON implements json.Marshaler.
func (p Pairs[K, V]) MarshalJSON() ([]byte, error) {
	return PairCodec[K, V]{}.Encode(p)
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *Pairs[K, V]) UnmarshalJSON(data []byte) error {
	m, err := PairCodec[K, V]{}.Decode(data)
	if err != nil {
		return err
	}
	*p = m
	return nil
}
