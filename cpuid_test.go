package x86levels

import (
	"reflect"
	"slices"
	"testing"

	"github.com/klauspost/cpuid/v2"
)

func TestCPUIDFlags_CoverRequirementTable(t *testing.T) {
	mapped := make(map[string]struct{}, len(cpuidFlags))
	for _, f := range cpuidFlags {
		if _, dup := mapped[f.name]; dup {
			t.Errorf("flag %q mapped twice", f.name)
		}
		mapped[f.name] = struct{}{}
	}

	for _, l := range LevelValues() {
		for _, flag := range Requirements(l) {
			if _, ok := mapped[flag]; !ok {
				t.Errorf("level %s flag %q has no CPUID mapping", l, flag)
			}
		}
	}
}

func TestFlagsFromCPUID_OnlyKnownTokens(t *testing.T) {
	known := make([]string, 0, len(cpuidFlags))
	for _, f := range cpuidFlags {
		known = append(known, f.name)
	}

	for _, tok := range FlagsFromCPUID().Sorted() {
		if !slices.Contains(known, tok) {
			t.Errorf("unexpected token %q", tok)
		}
	}
}

func TestFlagsFromCPUInfo_Disabled(t *testing.T) {
	var c cpuid.CPUInfo
	if got := flagsFromCPUInfo(c); got.Len() != 0 {
		t.Fatalf("flagsFromCPUInfo(zero) = %v, want empty", got.Sorted())
	}
}

func TestLevelsUpTo(t *testing.T) {
	tests := []struct {
		n    int
		want []Level
	}{
		{-1, nil},
		{0, nil},
		{1, []Level{LevelV1}},
		{3, []Level{LevelV1, LevelV2, LevelV3}},
		{4, []Level{LevelV1, LevelV2, LevelV3, LevelV4}},
		{9, []Level{LevelV1, LevelV2, LevelV3, LevelV4}},
	}
	for _, tt := range tests {
		if got := levelsUpTo(tt.n); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("levelsUpTo(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestHardwareLevels_Cumulative(t *testing.T) {
	got := HardwareLevels()
	if want := levelsUpTo(len(got)); !reflect.DeepEqual(got, want) {
		t.Fatalf("HardwareLevels() = %v, not a prefix of the level list", got)
	}
}
