package x86levels

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
)

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelV1, "x86-64"},
		{LevelV2, "x86-64-v2"},
		{LevelV3, "x86-64-v3"},
		{LevelV4, "x86-64-v4"},
		{Level(99), "Level(99)"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestLevelNames(t *testing.T) {
	want := []string{"x86-64", "x86-64-v2", "x86-64-v3", "x86-64-v4"}
	if got := LevelNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("LevelNames() = %v, want %v", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	for _, l := range LevelValues() {
		got, err := ParseLevel(l.String())
		if err != nil {
			t.Fatalf("ParseLevel(%q) error = %v", l.String(), err)
		}
		if got != l {
			t.Errorf("ParseLevel(%q) = %v, want %v", l.String(), got, l)
		}
	}

	_, err := ParseLevel("x86-64-v5")
	if err == nil {
		t.Fatal("ParseLevel(x86-64-v5) expected error")
	}
	if !strings.Contains(err.Error(), "available: x86-64, x86-64-v2") {
		t.Errorf("error %q missing available levels", err)
	}
}

func TestLevel_JSON(t *testing.T) {
	data, err := json.Marshal([]Level{LevelV1, LevelV4})
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if got, want := string(data), `["x86-64","x86-64-v4"]`; got != want {
		t.Fatalf("json.Marshal() = %s, want %s", got, want)
	}

	var decoded []Level
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if !reflect.DeepEqual(decoded, []Level{LevelV1, LevelV4}) {
		t.Fatalf("json.Unmarshal() = %v", decoded)
	}

	if _, err := json.Marshal(Level(7)); err == nil {
		t.Error("json.Marshal(Level(7)) expected error")
	}
}

func TestSource_String(t *testing.T) {
	tests := []struct {
		source Source
		want   string
	}{
		{SourceProcfs, "procfs"},
		{SourceCPUID, "cpuid"},
		{SourceGHW, "ghw"},
		{Source(9), "Source(9)"},
	}
	for _, tt := range tests {
		if got := tt.source.String(); got != tt.want {
			t.Errorf("Source(%d).String() = %q, want %q", tt.source, got, tt.want)
		}
	}
}

func TestPreconditionError(t *testing.T) {
	err := error(&PreconditionError{Architecture: "aarch64", Want: "x86_64"})
	if got, want := err.Error(), `unsupported architecture "aarch64": want "x86_64"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	var pe *PreconditionError
	if !errors.As(fmt.Errorf("wrapped: %w", err), &pe) {
		t.Fatal("errors.As should find *PreconditionError")
	}
	if pe.Architecture != "aarch64" {
		t.Errorf("Architecture = %q, want aarch64", pe.Architecture)
	}
}

func TestMalformedInputError(t *testing.T) {
	t.Run("with line", func(t *testing.T) {
		err := &MalformedInputError{Path: "/proc/cpuinfo", Line: 3, Text: "justtext", Err: ErrMissingSeparator}
		want := `malformed processor description /proc/cpuinfo: line 3 "justtext": missing ":" separator`
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if !errors.Is(err, ErrMissingSeparator) {
			t.Error("errors.Is should match ErrMissingSeparator")
		}
	})

	t.Run("without line", func(t *testing.T) {
		err := &MalformedInputError{Err: ErrMissingFlags}
		want := `malformed processor description: missing "flags" key`
		if got := err.Error(); got != want {
			t.Errorf("Error() = %q, want %q", got, want)
		}
		if !errors.Is(err, ErrMissingFlags) {
			t.Error("errors.Is should match ErrMissingFlags")
		}
		if errors.Is(err, ErrMissingSeparator) {
			t.Error("errors.Is should not match ErrMissingSeparator")
		}
	})
}

func TestLevelError(t *testing.T) {
	err := &LevelError{Level: LevelV4, Missing: []string{"avx512f", "avx512vl"}}
	if got, want := err.Error(), "level x86-64-v4: missing flags avx512f, avx512vl"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	bare := &LevelError{Level: LevelV2}
	if got, want := bare.Error(), "level x86-64-v2: not supported"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestReport_SupportedAndMissing(t *testing.T) {
	flags := NewFlagSet(concat(v1Flags, v2Flags)...)
	r := &Report{Flags: flags, Levels: SupportedLevels(flags)}

	if !r.Supported(LevelV1) || !r.Supported(LevelV2) {
		t.Errorf("Supported() false for v1/v2, levels = %v", r.Levels)
	}
	if r.Supported(LevelV3) {
		t.Error("Supported(v3) = true, want false")
	}
	if got := r.Missing(LevelV4); !reflect.DeepEqual(got, v4Flags) {
		t.Errorf("Missing(v4) = %v, want %v", got, v4Flags)
	}
}
