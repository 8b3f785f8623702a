package mediagraph

import (
	"path/filepath"
	"strings"
)

// PropertyBag is a string->string map with insertion-order iteration,
// implemented by pairing a map with a parallel order slice rather than
// reaching for a third-party ordered-map library: the need here is a
// handful of string keys, not a hot path.
type PropertyBag struct {
	order []string
	kv    map[string]string
}

// NewPropertyBag creates an empty bag.
func NewPropertyBag() *PropertyBag {
	return &PropertyBag{kv: make(map[string]string)}
}

// Set inserts or overwrites key, preserving the original insertion position
// on overwrite.
func (b *PropertyBag) Set(key, value string) {
	if _, ok := b.kv[key]; !ok {
		b.order = append(b.order, key)
	}
	b.kv[key] = value
}

// Get returns key's value and whether it was present.
func (b *PropertyBag) Get(key string) (string, bool) {
	v, ok := b.kv[key]
	return v, ok
}

// Delete removes key if present.
func (b *PropertyBag) Delete(key string) {
	if _, ok := b.kv[key]; !ok {
		return
	}
	delete(b.kv, key)
	for i, k := range b.order {
		if k == key {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}

// Keys returns keys in insertion order.
func (b *PropertyBag) Keys() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Clone returns an independent copy.
func (b *PropertyBag) Clone() *PropertyBag {
	out := NewPropertyBag()
	for _, k := range b.order {
		out.Set(k, b.kv[k])
	}
	return out
}

// Merge copies every key from other into b, overwriting on conflict, in
// other's iteration order.
func (b *PropertyBag) Merge(other *PropertyBag) {
	if other == nil {
		return
	}
	for _, k := range other.order {
		b.Set(k, other.kv[k])
	}
}

// Rule is one match/action entry of a stream.rules or filter.rules list
// (spec.md §4.8). Match patterns use shell-glob syntax against the current
// value of the named property (a key absent from the dict never matches).
type Rule struct {
	Match  map[string]string
	Update map[string]string
}

// RuleSet is an ordered list of Rules, applied in order.
type RuleSet []Rule

// Apply runs every rule in rs against bag, mutating it via each matching
// rule's Update action, and returns the number of keys changed (spec.md
// §4.8: "The engine counts the number of rule-driven changes").
func (rs RuleSet) Apply(bag *PropertyBag) int {
	changes := 0
	for _, rule := range rs {
		if !rule.matches(bag) {
			continue
		}
		for k, v := range rule.Update {
			old, existed := bag.Get(k)
			if existed && old == v {
				continue
			}
			bag.Set(k, v)
			changes++
		}
	}
	return changes
}

func (r Rule) matches(bag *PropertyBag) bool {
	for key, pattern := range r.Match {
		val, ok := bag.Get(key)
		if !ok {
			return false
		}
		if ok2, err := filepath.Match(pattern, val); err != nil || !ok2 {
			return false
		}
	}
	return true
}

// UpdateProperties implements spec.md §4.8 "update_properties": merge
// updates into current, run rules, and report whether the caller should
// bump the Props bit in its change mask and call emit_info.
func UpdateProperties(current *PropertyBag, updates *PropertyBag, rules RuleSet) (changed bool) {
	current.Merge(updates)
	n := rules.Apply(current)
	return n > 0
}

// KeysWithPrefix returns the keys of b starting with prefix, in insertion
// order, used to filter a property bag down to a namespace such as
// "stream." or "node." (spec.md §4.8 namespaced properties).
func (b *PropertyBag) KeysWithPrefix(prefix string) []string {
	var out []string
	for _, k := range b.Keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}
