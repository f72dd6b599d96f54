package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/leodido/structcli"
	"github.com/leodido/x86levels"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/thediveo/enumflag/v2"
	"go.uber.org/zap"
)

// Build metadata injected via ldflags.
// When built without ldflags (e.g., plain `go build`), these remain
// at their zero values and the version command omits them gracefully.
var (
	version = ""
	commit  = ""
	date    = ""
)

// errReported marks failures whose diagnostic has already been printed.
var errReported = errors.New("failure already reported")

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "x86levels",
		Short: "x86-64 microarchitecture level detection",
		Long: `x86levels reports which x86-64 psABI microarchitecture levels
(x86-64, x86-64-v2, x86-64-v3, x86-64-v4) the running CPU supports.

Without a subcommand it prints the supported level names on a single line,
separated by spaces. Use it to pick a GOAMD64 value, select optimized
binaries at install time, or gate deployments in CI.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			return g.initLogger()
		},
		PersistentPostRun: func(c *cobra.Command, args []string) {
			_ = g.logger.Sync()
		},
		RunE: func(c *cobra.Command, args []string) error {
			r, err := x86levels.Detect(g.detectOptions()...)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), x86levels.FormatLevels(r.Levels))
			return nil
		},
	}

	g.attach(root.PersistentFlags())

	root.AddCommand(flagsCmd(g))
	root.AddCommand(explainCmd(g))
	root.AddCommand(checkCmd(g))
	root.AddCommand(elfCmd())
	root.AddCommand(cpuidCmd())
	root.AddCommand(versionCmd())

	return root
}

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	source  x86levels.Source
	cpuinfo string
	machine string
	verbose bool

	logger *zap.Logger
}

var sourceIdentifierMap = func() map[x86levels.Source][]string {
	ids := make(map[x86levels.Source][]string, len(x86levels.SourceValues()))
	for _, s := range x86levels.SourceValues() {
		ids[s] = []string{s.String()}
	}
	return ids
}()

func (g *globalOptions) attach(fs *pflag.FlagSet) {
	names := make([]string, 0, len(x86levels.SourceValues()))
	for _, s := range x86levels.SourceValues() {
		names = append(names, s.String())
	}

	fs.Var(
		enumflag.New(&g.source, "source", sourceIdentifierMap, enumflag.EnumCaseInsensitive),
		"source",
		"Feature flag source ("+strings.Join(names, ", ")+")",
	)
	fs.StringVar(&g.cpuinfo, "cpuinfo", x86levels.DefaultCPUInfoPath, "Processor description read by the procfs source")
	fs.StringVar(&g.machine, "machine", "", "Use this machine architecture instead of querying uname")
	_ = fs.MarkHidden("machine")
	fs.BoolVarP(&g.verbose, "verbose", "v", false, "Log debug information to stderr")
}

func (g *globalOptions) initLogger() error {
	if !g.verbose {
		g.logger = zap.NewNop()
		return nil
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	g.logger = l
	return nil
}

func (g *globalOptions) detectOptions() []x86levels.DetectOption {
	opts := []x86levels.DetectOption{
		x86levels.WithSource(g.source),
		x86levels.WithCPUInfoPath(g.cpuinfo),
		x86levels.WithLogger(g.logger),
	}
	if g.machine != "" {
		opts = append(opts, x86levels.WithMachine(g.machine))
	}
	return opts
}

// FlagsOptions defines flags for the flags subcommand.
type FlagsOptions struct {
	JSON bool `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *FlagsOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func flagsCmd(g *globalOptions) *cobra.Command {
	opts := &FlagsOptions{}

	cmd := &cobra.Command{
		Use:   "flags",
		Short: "Display the detected feature flags",
		Args:  cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			r, err := x86levels.Detect(g.detectOptions()...)
			if err != nil {
				return err
			}

			if opts.JSON {
				return printJSON(c.OutOrStdout(), r.Flags)
			}

			fmt.Fprintln(c.OutOrStdout(), strings.Join(r.Flags.Sorted(), " "))
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// ExplainOptions defines flags for the explain subcommand.
type ExplainOptions struct {
	JSON bool `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *ExplainOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

// explainView is the JSON shape of the explain subcommand.
type explainView struct {
	*x86levels.Report
	Missing map[string][]string `json:"missing"`
}

func explainCmd(g *globalOptions) *cobra.Command {
	opts := &ExplainOptions{}

	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show every level with the flags it is missing",
		Args:  cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			r, err := x86levels.Detect(g.detectOptions()...)
			if err != nil {
				return err
			}

			if opts.JSON {
				view := explainView{Report: r, Missing: map[string][]string{}}
				for _, l := range x86levels.LevelValues() {
					if missing := r.Missing(l); len(missing) > 0 {
						view.Missing[l.String()] = missing
					}
				}
				return printJSON(c.OutOrStdout(), view)
			}

			fmt.Fprint(c.OutOrStdout(), r)
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

// CheckOptions defines flags for the check subcommand.
type CheckOptions struct {
	Require levelRequirements `flag:"require" flagshort:"r" flagdescr:"Required levels (see available levels above)" flagcustom:"true"`
	ELF     string            `flag:"elf" flagdescr:"Also require the levels this ELF binary declares as needed"`
	JSON    bool              `flag:"json" flagshort:"j" flagdescr:"Output in JSON format"`
}

func (o *CheckOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func (o *CheckOptions) DefineRequire(name, short, descr string, structField reflect.StructField, fieldValue reflect.Value) (pflag.Value, string) {
	fieldPtr := fieldValue.Addr().Interface().(*levelRequirements)
	*fieldPtr = nil
	return fieldPtr, descr
}

func (o *CheckOptions) DecodeRequire(input any) (any, error) {
	s, ok := input.(string)
	if !ok {
		return input, nil
	}

	return parseLevelRequirements(s)
}

// CompleteRequire completes comma separated level identifiers.
func (o *CheckOptions) CompleteRequire(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	prefix := ""
	current := toComplete
	if i := strings.LastIndex(toComplete, ","); i >= 0 {
		prefix = toComplete[:i+1]
		current = toComplete[i+1:]
	}

	selected := map[string]struct{}{}
	for _, part := range strings.Split(prefix, ",") {
		if name := strings.ToLower(strings.TrimSpace(part)); name != "" {
			selected[name] = struct{}{}
		}
	}

	current = strings.ToLower(strings.TrimSpace(current))
	var candidates []string
	for _, name := range x86levels.LevelNames() {
		if _, ok := selected[name]; ok {
			continue
		}
		if strings.HasPrefix(name, current) {
			candidates = append(candidates, prefix+name)
		}
	}

	return candidates, cobra.ShellCompDirectiveNoFileComp | cobra.ShellCompDirectiveNoSpace
}

func checkCmd(g *globalOptions) *cobra.Command {
	opts := &CheckOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the CPU supports specific levels",
		Long:  checkLongDescription(),
		Args:  cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			if len(opts.Require) == 0 && opts.ELF == "" {
				return fmt.Errorf("no levels specified")
			}

			required := append([]x86levels.Level(nil), opts.Require...)
			if opts.ELF != "" {
				needed, err := x86levels.FromELF(opts.ELF)
				if err != nil {
					return err
				}
				required = append(required, needed...)
			}

			r, err := x86levels.Detect(g.detectOptions()...)
			if err != nil {
				return err
			}

			err = r.Check(required...)
			if err != nil {
				var le *x86levels.LevelError
				if !errors.As(err, &le) {
					return err
				}
				if opts.JSON {
					if err := printJSON(c.OutOrStdout(), map[string]any{
						"ok":      false,
						"level":   le.Level,
						"missing": le.Missing,
					}); err != nil {
						return err
					}
					return errReported
				}
				fmt.Fprintf(c.ErrOrStderr(), "FAIL: %s: missing %s\n", le.Level, strings.Join(le.Missing, " "))
				return errReported
			}

			if opts.JSON {
				return printJSON(c.OutOrStdout(), map[string]any{"ok": true})
			}
			fmt.Fprintln(c.OutOrStdout(), "OK: all levels supported")
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func elfCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "elf PATH",
		Short: "Show the levels an ELF binary declares as needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			levels, err := x86levels.FromELF(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), x86levels.FormatLevels(levels))
			return nil
		},
	}
}

// CpuidOptions defines flags for the cpuid subcommand.
type CpuidOptions struct {
	Separator string `flag:"separator" flagshort:"s" flagdescr:"Separator between level names"`
}

func (o *CpuidOptions) Attach(c *cobra.Command) error {
	return structcli.Define(c, o)
}

func cpuidCmd() *cobra.Command {
	opts := &CpuidOptions{Separator: ";"}

	cmd := &cobra.Command{
		Use:   "cpuid",
		Short: "Detect levels with the CPUID instruction instead of kernel flags",
		Long: `Detect levels with the CPUID instruction instead of kernel flags.

Levels are cumulative here: a level is only reported when every level below it
is supported too. Exits with code 1 if not even the x86-64 baseline is found.`,
		Args: cobra.NoArgs,
		PreRunE: func(c *cobra.Command, args []string) error {
			return structcli.Unmarshal(c, opts)
		},
		RunE: func(c *cobra.Command, args []string) error {
			levels := x86levels.HardwareLevels()
			if len(levels) == 0 {
				fmt.Fprintln(c.ErrOrStderr(), "no x86-64 level detected")
				return errReported
			}

			sep := opts.Separator
			if sep == "" {
				sep = ";"
			}
			fmt.Fprintln(c.OutOrStdout(), x86levels.JoinLevels(levels, sep))
			return nil
		},
	}

	if err := opts.Attach(cmd); err != nil {
		panic(err)
	}
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tool version and machine architecture",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			out := c.OutOrStdout()
			if version != "" {
				fmt.Fprintf(out, "x86levels %s", version)
				if commit != "" {
					fmt.Fprintf(out, " (%s)", commit)
				}
				if date != "" {
					fmt.Fprintf(out, " built %s", date)
				}
				fmt.Fprintln(out)
			} else {
				fmt.Fprintln(out, "x86levels (dev)")
			}

			arch, err := x86levels.CurrentArchitecture()
			var pe *x86levels.PreconditionError
			if err != nil && !errors.As(err, &pe) {
				return err
			}
			fmt.Fprintf(out, "Architecture: %s\n", arch)
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func availableLevels() string {
	return strings.Join(x86levels.LevelNames(), ", ")
}

func checkLongDescription() string {
	return fmt.Sprintf(`Check that the CPU supports all required levels.
Exits with code 0 if all requirements are met, 1 if any are missing.
Levels may be given by name or as v1..v4.

Available levels:
%s`, formatWrappedList(x86levels.LevelNames(), "  ", 80))
}

func formatWrappedList(items []string, indent string, maxWidth int) string {
	if len(items) == 0 {
		return indent + "(none)"
	}

	lines := make([]string, 0, len(items))
	line := indent
	for i, item := range items {
		token := item
		if i < len(items)-1 {
			token += ", "
		}

		if len(line)+len(token) > maxWidth && line != indent {
			lines = append(lines, strings.TrimRight(line, " "))
			line = indent + token
			continue
		}

		line += token
	}

	lines = append(lines, strings.TrimRight(line, " "))
	return strings.Join(lines, "\n")
}

type levelRequirements []x86levels.Level

var levelIdentifierMap = func() map[x86levels.Level][]string {
	ids := make(map[x86levels.Level][]string, len(x86levels.LevelValues()))
	for _, l := range x86levels.LevelValues() {
		ids[l] = []string{l.String(), fmt.Sprintf("v%d", int(l)+1)}
	}
	return ids
}()

func (r *levelRequirements) String() string {
	names := make([]string, 0, len(*r))
	for _, l := range *r {
		names = append(names, l.String())
	}

	return strings.Join(names, ",")
}

func (r *levelRequirements) Set(input string) error {
	levels, err := parseLevelRequirements(input)
	if err != nil {
		return err
	}

	*r = append(*r, levels...)
	return nil
}

func (r *levelRequirements) Type() string {
	return "level"
}

func parseLevelRequirements(input string) (levelRequirements, error) {
	if strings.TrimSpace(input) == "" {
		return levelRequirements{}, nil
	}

	parts := strings.Split(input, ",")
	levels := make(levelRequirements, 0, len(parts))
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			continue
		}

		var level x86levels.Level
		enumValue := enumflag.New(&level, "x86levels.Level", levelIdentifierMap, enumflag.EnumCaseInsensitive)
		if err := enumValue.Set(name); err != nil {
			return nil, fmt.Errorf("unknown level: %q (available: %s)", name, availableLevels())
		}

		levels = append(levels, level)
	}

	return levels, nil
}
