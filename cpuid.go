package x86levels

import "github.com/klauspost/cpuid/v2"

// cpuidFlags maps CPUID feature bits to the kernel's flag names.
var cpuidFlags = []struct {
	id   cpuid.FeatureID
	name string
}{
	{cpuid.CMOV, "cmov"},
	{cpuid.CMPXCHG8, "cx8"},
	{cpuid.X87, "fpu"},
	{cpuid.FXSR, "fxsr"},
	{cpuid.MMX, "mmx"},
	{cpuid.SYSCALL, "syscall"},
	{cpuid.SSE, "sse"},
	{cpuid.SSE2, "sse2"},
	{cpuid.CX16, "cx16"},
	{cpuid.LAHF, "lahf_lm"},
	{cpuid.POPCNT, "popcnt"},
	{cpuid.SSE4, "sse4_1"},
	{cpuid.SSE42, "sse4_2"},
	{cpuid.SSSE3, "ssse3"},
	{cpuid.AVX, "avx"},
	{cpuid.AVX2, "avx2"},
	{cpuid.BMI1, "bmi1"},
	{cpuid.BMI2, "bmi2"},
	{cpuid.F16C, "f16c"},
	{cpuid.FMA3, "fma"},
	{cpuid.LZCNT, "abm"},
	{cpuid.MOVBE, "movbe"},
	{cpuid.XSAVE, "xsave"},
	{cpuid.AVX512F, "avx512f"},
	{cpuid.AVX512BW, "avx512bw"},
	{cpuid.AVX512CD, "avx512cd"},
	{cpuid.AVX512DQ, "avx512dq"},
	{cpuid.AVX512VL, "avx512vl"},
}

// FlagsFromCPUID returns the level-relevant flags reported by the CPUID
// instruction, named the way the kernel names them.
func FlagsFromCPUID() FlagSet {
	return flagsFromCPUInfo(cpuid.CPU)
}

func flagsFromCPUInfo(c cpuid.CPUInfo) FlagSet {
	tokens := make([]string, 0, len(cpuidFlags))
	for _, f := range cpuidFlags {
		if c.Supports(f.id) {
			tokens = append(tokens, f.name)
		}
	}
	return NewFlagSet(tokens...)
}

// HardwareLevels returns every level up to the highest one CPUID detection
// supports. The list is empty when not even the baseline is detected.
func HardwareLevels() []Level {
	return levelsUpTo(cpuid.CPU.X64Level())
}

// levelsUpTo returns the first n levels in canonical order.
func levelsUpTo(n int) []Level {
	values := LevelValues()
	if n <= 0 {
		return nil
	}
	if n > len(values) {
		n = len(values)
	}
	return values[:n]
}
