package x86levels

import (
	"fmt"

	"github.com/jaypipes/ghw"
	"github.com/jaypipes/ghw/pkg/cpu"
)

// FlagsFromGHW returns the union of the capabilities ghw reports for every
// physical processor.
func FlagsFromGHW() (FlagSet, error) {
	info, err := ghw.CPU()
	if err != nil {
		return FlagSet{}, fmt.Errorf("ghw cpu: %w", err)
	}
	return flagsFromProcessors(info.Processors)
}

func flagsFromProcessors(procs []*cpu.Processor) (FlagSet, error) {
	if len(procs) == 0 {
		return FlagSet{}, &MalformedInputError{Err: ErrMissingFlags}
	}

	var tokens []string
	for _, p := range procs {
		if p == nil {
			continue
		}
		tokens = append(tokens, p.Capabilities...)
	}
	return NewFlagSet(tokens...), nil
}
