package x86levels

import (
	"encoding/json"
	"maps"
	"slices"
)

// FlagSet is an immutable set of CPU feature flag tokens.
// The zero value is an empty set.
type FlagSet struct {
	m map[string]struct{}
}

// NewFlagSet builds a set from the given tokens. Duplicates collapse and
// case is kept as given.
func NewFlagSet(tokens ...string) FlagSet {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return FlagSet{m: m}
}

// Has reports whether the token is in the set.
func (fs FlagSet) Has(token string) bool {
	_, ok := fs.m[token]
	return ok
}

// Len returns the number of distinct tokens.
func (fs FlagSet) Len() int {
	return len(fs.m)
}

// Missing returns the tokens not in the set, in the order given.
func (fs FlagSet) Missing(tokens []string) []string {
	var missing []string
	for _, t := range tokens {
		if !fs.Has(t) {
			missing = append(missing, t)
		}
	}
	return missing
}

// Sorted returns the tokens in lexical order.
func (fs FlagSet) Sorted() []string {
	return slices.Sorted(maps.Keys(fs.m))
}

func (fs FlagSet) MarshalJSON() ([]byte, error) {
	sorted := fs.Sorted()
	if sorted == nil {
		sorted = []string{}
	}
	return json.Marshal(sorted)
}

func (fs *FlagSet) UnmarshalJSON(data []byte) error {
	var tokens []string
	if err := json.Unmarshal(data, &tokens); err != nil {
		return err
	}
	*fs = NewFlagSet(tokens...)
	return nil
}
