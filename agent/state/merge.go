package state

import (
	"encoding/json"
)

// Strategy decides how a source value is folded into a destination value.
type Strategy int

const (
	// StrategyDefault recurses into objects and lets the source replace
	// everything else.
	StrategyDefault Strategy = iota
	StrategyReplace
	StrategyConcatenate
	StrategyRecursiveMerge
	StrategyUnion
)

// Strategies maps dotted field paths ("learning.configuration") to a strategy.
type Strategies map[string]Strategy

// Merge folds src into dst over decoded JSON trees and returns the result.
// A key missing from src, or null in src, keeps the dst value. Neither
// argument is modified.
func Merge(dst, src any, strategies Strategies) any {
	return merge("", dst, src, strategies)
}

func merge(path string, dst, src any, strategies Strategies) any {
	if src == nil {
		return dst
	}
	switch strategies[path] {
	case StrategyReplace:
		return src
	case StrategyConcatenate:
		d, dok := dst.([]any)
		s, sok := src.([]any)
		if dok && sok {
			out := make([]any, 0, len(d)+len(s))
			return append(append(out, d...), s...)
		}
		return src
	case StrategyUnion:
		d, dok := dst.([]any)
		s, sok := src.([]any)
		if dok && sok {
			return union(d, s)
		}
		return src
	}

	d, dok := dst.(map[string]any)
	s, sok := src.(map[string]any)
	if !dok || !sok {
		return src
	}
	out := make(map[string]any, len(d)+len(s))
	for k, v := range d {
		out[k] = v
	}
	for k, v := range s {
		out[k] = merge(join(path, k), d[k], v, strategies)
	}
	return out
}

func union(a, b []any) []any {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]any, 0, len(a)+len(b))
	for _, list := range [][]any{a, b} {
		for _, v := range list {
			key, err := json.Marshal(v)
			if err != nil || seen[string(key)] {
				continue
			}
			seen[string(key)] = true
			out = append(out, v)
		}
	}
	return out
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

// toTree round-trips v through JSON into a generic tree.
func toTree(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(b, &tree); err != nil {
		return nil, err
	}
	return tree, nil
}
