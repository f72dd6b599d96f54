// Package x86levels reports which x86-64 psABI microarchitecture levels the
// running CPU supports.
//
// The levels (x86-64, x86-64-v2, x86-64-v3, x86-64-v4) are evaluated from the
// feature flags the kernel reports for the processor. Each level is checked
// independently against a fixed table of required flags, and the supported
// levels are returned in canonical order.
//
// # Quick Detection
//
//	r, err := x86levels.Detect()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(x86levels.FormatLevels(r.Levels)) // "x86-64 x86-64-v2 x86-64-v3"
//
// # Gating
//
// Validate that a binary built for a given level can run here:
//
//	if err := x86levels.Check(x86levels.LevelV3); err != nil {
//	    var le *x86levels.LevelError
//	    if errors.As(err, &le) {
//	        log.Fatalf("cpu not ready: %s: missing %v", le.Level, le.Missing)
//	    }
//	    log.Fatal(err)
//	}
//
// Requirements can also be read from a binary's GNU property note with
// [FromELF].
//
// # Flag Sources
//
// By default flags are parsed from /proc/cpuinfo ([SourceProcfs]). Two other
// sources are available through [WithSource]: [SourceCPUID] asks the CPUID
// instruction directly, and [SourceGHW] uses the hardware inventory collected
// by ghw. All sources name flags the way the kernel does, so the same
// requirement table applies.
//
// # Errors
//
// [PreconditionError] reports a machine that is not x86-64; nothing else is
// attempted in that case. [MalformedInputError] reports a processor
// description without a "flags" entry ([ErrMissingFlags]) or with a non-blank
// line lacking the ":" separator ([ErrMissingSeparator]). [LevelError]
// reports an unsatisfied level from [Check].
package x86levels
