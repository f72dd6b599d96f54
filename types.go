package x86levels

import (
	"errors"
	"fmt"
	"strings"
)

// Level is an x86-64 psABI microarchitecture level.
type Level int

const (
	// LevelV1 is the x86-64 baseline (CMOV, CX8, FPU, FXSR, MMX, SYSCALL, SSE, SSE2).
	LevelV1 Level = iota
	// LevelV2 adds CMPXCHG16B, LAHF/SAHF, POPCNT, SSE3, SSE4.1, SSE4.2 and SSSE3.
	LevelV2
	// LevelV3 adds AVX, AVX2, BMI1, BMI2, F16C, FMA, LZCNT, MOVBE and XSAVE.
	LevelV3
	// LevelV4 adds the AVX-512 F, BW, CD, DQ and VL subsets.
	LevelV4
)

var levelNames = map[Level]string{
	LevelV1: "x86-64",
	LevelV2: "x86-64-v2",
	LevelV3: "x86-64-v3",
	LevelV4: "x86-64-v4",
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("Level(%d)", l)
}

// MarshalText encodes the level by its canonical name.
func (l Level) MarshalText() ([]byte, error) {
	if _, ok := levelNames[l]; !ok {
		return nil, fmt.Errorf("unknown level %d", int(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a canonical level name.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// LevelValues returns all levels in canonical order.
func LevelValues() []Level {
	return []Level{LevelV1, LevelV2, LevelV3, LevelV4}
}

// LevelNames returns the canonical names of all levels in canonical order.
func LevelNames() []string {
	values := LevelValues()
	names := make([]string, 0, len(values))
	for _, l := range values {
		names = append(names, l.String())
	}
	return names
}

// ParseLevel returns the level with the given canonical name.
func ParseLevel(name string) (Level, error) {
	for _, l := range LevelValues() {
		if l.String() == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown level %q (available: %s)", name, strings.Join(LevelNames(), ", "))
}

// Source selects where the feature flags come from.
type Source int

const (
	// SourceProcfs parses the kernel's per-processor description (/proc/cpuinfo).
	SourceProcfs Source = iota
	// SourceCPUID queries the CPUID instruction directly.
	SourceCPUID
	// SourceGHW uses the processor capabilities collected by ghw.
	SourceGHW
)

var sourceNames = map[Source]string{
	SourceProcfs: "procfs",
	SourceCPUID:  "cpuid",
	SourceGHW:    "ghw",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Source(%d)", s)
}

// MarshalText encodes the source by name.
func (s Source) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SourceValues returns all flag sources.
func SourceValues() []Source {
	return []Source{SourceProcfs, SourceCPUID, SourceGHW}
}

// ErrMissingFlags is wrapped by a [MalformedInputError] when the processor
// description has no "flags" entry.
var ErrMissingFlags = errors.New(`missing "flags" key`)

// ErrMissingSeparator is wrapped by a [MalformedInputError] when a non-blank
// line cannot be split into a key and a value.
var ErrMissingSeparator = errors.New(`missing ":" separator`)

// PreconditionError reports that the machine is not an x86-64 machine.
type PreconditionError struct {
	Architecture string
	Want         string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("unsupported architecture %q: want %q", e.Architecture, e.Want)
}

// MalformedInputError reports a processor description that cannot be used.
// Line is 1-based and zero when the error is not tied to a single line.
type MalformedInputError struct {
	Path string
	Line int
	Text string
	Err  error
}

func (e *MalformedInputError) Error() string {
	var b strings.Builder
	b.WriteString("malformed processor description")
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d %q", e.Line, e.Text)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *MalformedInputError) Unwrap() error {
	return e.Err
}

// LevelError reports a required level the machine does not support.
type LevelError struct {
	Level   Level
	Missing []string
}

func (e *LevelError) Error() string {
	if len(e.Missing) == 0 {
		return fmt.Sprintf("level %s: not supported", e.Level)
	}
	return fmt.Sprintf("level %s: missing flags %s", e.Level, strings.Join(e.Missing, ", "))
}

// Report is the outcome of a detection run.
type Report struct {
	Architecture string  `json:"architecture"`
	Source       Source  `json:"source"`
	Flags        FlagSet `json:"flags"`
	Levels       []Level `json:"levels"`
}

// Supported reports whether the level is in the supported list.
func (r *Report) Supported(l Level) bool {
	for _, s := range r.Levels {
		if s == l {
			return true
		}
	}
	return false
}

// Missing returns the flags the level requires but the machine lacks.
func (r *Report) Missing(l Level) []string {
	return MissingFlags(l, r.Flags)
}
