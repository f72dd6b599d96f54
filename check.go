package x86levels

import "fmt"

// Check detects the machine's levels with default options and returns a
// *[LevelError] for the first required level that is not supported, or nil
// if all are.
func Check(required ...Level) error {
	r, err := Detect()
	if err != nil {
		return fmt.Errorf("detect levels: %w", err)
	}
	return r.Check(required...)
}

// Check returns a *[LevelError] for the first required level the report does
// not support. Duplicates are ignored; order of first occurrence is kept.
func (r *Report) Check(required ...Level) error {
	for _, l := range normalizeLevels(required) {
		if Requirements(l) == nil {
			return fmt.Errorf("unknown level %s", l)
		}
		if !r.Supported(l) {
			return &LevelError{Level: l, Missing: r.Missing(l)}
		}
	}
	return nil
}
