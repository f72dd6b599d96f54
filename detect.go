package x86levels

import (
	"fmt"

	"go.uber.org/zap"
)

// detectConfig holds the configuration for a detection run.
type detectConfig struct {
	source      Source
	cpuinfoPath string
	machine     string // overrides the uname query when set (for testing)
	logger      *zap.Logger
}

// DetectOption configures [Detect].
type DetectOption func(*detectConfig)

// WithSource selects where the feature flags come from.
// The default is [SourceProcfs].
func WithSource(s Source) DetectOption {
	return func(c *detectConfig) {
		c.source = s
	}
}

// WithCPUInfoPath sets the processor description read by [SourceProcfs].
// The default is [DefaultCPUInfoPath].
func WithCPUInfoPath(path string) DetectOption {
	return func(c *detectConfig) {
		c.cpuinfoPath = path
	}
}

// WithMachine replaces the machine query with a fixed architecture name.
// This is primarily for testing.
func WithMachine(arch string) DetectOption {
	return func(c *detectConfig) {
		c.machine = arch
	}
}

// WithLogger sets the logger used for debug events.
func WithLogger(l *zap.Logger) DetectOption {
	return func(c *detectConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Detect checks that the machine is x86-64, collects its feature flags and
// evaluates every level against them.
// Nothing is read when the architecture check fails.
func Detect(opts ...DetectOption) (*Report, error) {
	cfg := &detectConfig{
		source:      SourceProcfs,
		cpuinfoPath: DefaultCPUInfoPath,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	log := cfg.logger

	arch := cfg.machine
	if arch == "" {
		var err error
		if arch, err = machine(); err != nil {
			return nil, err
		}
	}
	log.Debug("machine architecture", zap.String("arch", arch))
	if err := CheckArchitecture(arch); err != nil {
		return nil, err
	}

	flags, err := readFlags(cfg)
	if err != nil {
		return nil, err
	}
	log.Debug("feature flags collected",
		zap.Stringer("source", cfg.source),
		zap.Int("count", flags.Len()),
	)

	levels := SupportedLevels(flags)
	for _, l := range LevelValues() {
		log.Debug("level evaluated",
			zap.Stringer("level", l),
			zap.Strings("missing", MissingFlags(l, flags)),
		)
	}

	return &Report{
		Architecture: arch,
		Source:       cfg.source,
		Flags:        flags,
		Levels:       levels,
	}, nil
}

func readFlags(cfg *detectConfig) (FlagSet, error) {
	switch cfg.source {
	case SourceProcfs:
		cfg.logger.Debug("reading processor description", zap.String("path", cfg.cpuinfoPath))
		return ReadFlagsFrom(cfg.cpuinfoPath)
	case SourceCPUID:
		return FlagsFromCPUID(), nil
	case SourceGHW:
		return FlagsFromGHW()
	default:
		return FlagSet{}, fmt.Errorf("unknown flag source %s", cfg.source)
	}
}
