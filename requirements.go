package x86levels

import (
	"slices"
	"strings"
)

// requirement is one row of the level table.
type requirement struct {
	level Level
	flags []string
}

// requirementTable lists the flags each level needs, in canonical order.
// Tokens are matched literally against the kernel's flag names.
var requirementTable = [...]requirement{
	{LevelV1, []string{"cmov", "cx8", "fpu", "fxsr", "mmx", "syscall", "sse", "sse2"}},
	{LevelV2, []string{"cx16", "lahf_lm", "popcnt", "sse4_1", "sse4_2", "ssse3"}},
	{LevelV3, []string{"avx", "avx2", "bmi1", "bmi2", "f16c", "fma", "abm", "movbe", "xsave"}},
	{LevelV4, []string{"avx512f", "avx512bw", "avx512cd", "avx512dq", "avx512vl"}},
}

// Requirements returns the flags the level needs, or nil for an unknown level.
func Requirements(l Level) []string {
	for _, r := range requirementTable {
		if r.level == l {
			return slices.Clone(r.flags)
		}
	}
	return nil
}

// SupportedLevels returns, in canonical order, every level whose required
// flags are all present. Each level is checked on its own: a higher level can
// be reported while a lower one is not.
func SupportedLevels(flags FlagSet) []Level {
	var supported []Level
	for _, r := range requirementTable {
		if len(flags.Missing(r.flags)) == 0 {
			supported = append(supported, r.level)
		}
	}
	return supported
}

// MissingFlags returns the required flags of the level absent from flags,
// in table order.
func MissingFlags(l Level, flags FlagSet) []string {
	return flags.Missing(Requirements(l))
}

// FormatLevels renders levels as a single space separated line.
// An empty list renders as the empty string.
func FormatLevels(levels []Level) string {
	return JoinLevels(levels, " ")
}

// JoinLevels joins level names with sep.
func JoinLevels(levels []Level, sep string) string {
	names := make([]string, 0, len(levels))
	for _, l := range levels {
		names = append(names, l.String())
	}
	return strings.Join(names, sep)
}

// normalizeLevels deduplicates levels keeping the first occurrence order.
func normalizeLevels(required []Level) []Level {
	seen := make(map[Level]struct{}, len(required))
	levels := make([]Level, 0, len(required))
	for _, l := range required {
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		levels = append(levels, l)
	}
	return levels
}
