package x86levels

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultCPUInfoPath is where the kernel exposes the per-processor description.
const DefaultCPUInfoPath = "/proc/cpuinfo"

const flagsKey = "flags"

// Flag lines on recent CPUs exceed the default scanner buffer.
const maxLineSize = 1 << 20

// ReadFlags reads the feature flags from [DefaultCPUInfoPath].
func ReadFlags() (FlagSet, error) {
	return ReadFlagsFrom(DefaultCPUInfoPath)
}

// ReadFlagsFrom reads the file at path fully into memory and parses its
// feature flags.
func ReadFlagsFrom(path string) (FlagSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FlagSet{}, fmt.Errorf("read processor description: %w", err)
	}

	fs, err := ParseFlags(bytes.NewReader(data))
	if err != nil {
		var me *MalformedInputError
		if errors.As(err, &me) {
			me.Path = path
		}
		return FlagSet{}, err
	}
	return fs, nil
}

// ParseFlags parses a processor description and returns the whitespace
// separated tokens of its "flags" entry.
func ParseFlags(r io.Reader) (FlagSet, error) {
	info, err := parseCPUInfo(r)
	if err != nil {
		return FlagSet{}, err
	}

	value, ok := info[flagsKey]
	if !ok {
		return FlagSet{}, &MalformedInputError{Err: ErrMissingFlags}
	}
	return NewFlagSet(strings.Fields(value)...), nil
}

// parseCPUInfo parses "key : value" lines into a map.
// Blank lines are skipped; any other line without a separator is an error.
// Repeated keys (one block per processor) keep the last value.
func parseCPUInfo(r io.Reader) (map[string]string, error) {
	info := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineno := 0
	for scanner.Scan() {
		lineno++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			return nil, &MalformedInputError{
				Line: lineno,
				Text: line,
				Err:  ErrMissingSeparator,
			}
		}

		info[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return info, nil
}
