package x86levels

import (
	"strings"
	"testing"
)

func TestReport_String(t *testing.T) {
	flags := NewFlagSet(concat(v1Flags, v2Flags, []string{"avx"})...)
	r := &Report{
		Architecture: "x86_64",
		Source:       SourceProcfs,
		Flags:        flags,
		Levels:       SupportedLevels(flags),
	}

	got := r.String()
	for _, want := range []string{
		"Architecture: x86_64\n",
		"Source: procfs\n",
		"Flags: 15\n",
		"  x86-64: yes\n",
		"  x86-64-v2: yes\n",
		"  x86-64-v3: no (missing: avx2 bmi1 bmi2 f16c fma abm movbe xsave)\n",
		"  x86-64-v4: no (missing: avx512f avx512bw avx512cd avx512dq avx512vl)\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("String() missing %q in:\n%s", want, got)
		}
	}
}
