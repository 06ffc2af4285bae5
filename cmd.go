package main

import (
	"bufio"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ardanlabs/apidump/generator"
	"github.com/ardanlabs/apidump/parser"
)

type rootOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	maxMemory  string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "apidump",
		Short:         "Decode C API dumps and generate ffi bindings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to YAML config file")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format (console, json)")
	flags.StringVar(&opts.maxMemory, "max-memory", "", "Cap on decoded string bytes, e.g. 64MiB")

	root.AddCommand(newGenCmd(opts))
	root.AddCommand(newInspectCmd(opts))

	return root
}

// load merges the config file with flags given on the command line.
func (o *rootOptions) load() (Config, *zap.Logger, error) {
	cfg, err := LoadConfig(o.configPath)
	if err != nil {
		return Config{}, nil, err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if o.maxMemory != "" {
		cfg.MaxMemory = o.maxMemory
	}

	log, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return Config{}, nil, err
	}

	return cfg, log, nil
}

func newGenCmd(root *rootOptions) *cobra.Command {
	var (
		input       string
		outputDir   string
		packageName string
		libName     string
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate Go ffi bindings from an API dump",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if cmd.Flags().Changed("output") || cfg.Output == "" {
				cfg.Output = outputDir
			}
			if cmd.Flags().Changed("package") || cfg.Package == "" {
				cfg.Package = packageName
			}
			if libName != "" {
				cfg.Lib = libName
			}
			if cfg.Lib == "" {
				if input == "-" {
					return fmt.Errorf("--lib is required when reading from stdin")
				}
				base := filepath.Base(input)
				cfg.Lib = strings.TrimSuffix(base, filepath.Ext(base))
			}

			api, _, err := decodeInput(input, cfg, log)
			if err != nil {
				return err
			}
			defer api.Release()

			gen := generator.New(cfg.Package, cfg.Lib, api, generator.WithLogger(log.Named("generator")))

			files, err := gen.Generate()
			if err != nil {
				return fmt.Errorf("generating code: %w", err)
			}

			if err := os.MkdirAll(cfg.Output, 0755); err != nil {
				return fmt.Errorf("creating output directory: %w", err)
			}

			for _, filename := range slices.Sorted(maps.Keys(files)) {
				path := filepath.Join(cfg.Output, filename)
				if err := os.WriteFile(path, []byte(files[filename]), 0644); err != nil {
					return fmt.Errorf("writing %s: %w", filename, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Generated: %s\n", path)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to API dump, - for stdin")
	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory for generated Go files")
	cmd.Flags().StringVar(&packageName, "package", "bindings", "Go package name")
	cmd.Flags().StringVar(&libName, "lib", "", "Library name (e.g., 'raylib' for libraylib.so)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newInspectCmd(root *rootOptions) *cobra.Command {
	var (
		input  string
		format string
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decode an API dump and print its contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := root.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			api, n, err := decodeInput(input, cfg, log)
			if err != nil {
				return err
			}
			defer api.Release()

			out := cmd.OutOrStdout()
			switch format {
			case "text":
				return printSummary(out, input, api, n)
			case "yaml":
				enc := yaml.NewEncoder(out)
				enc.SetIndent(2)
				if err := enc.Encode(api); err != nil {
					return fmt.Errorf("encoding yaml: %w", err)
				}
				return enc.Close()
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Path to API dump, - for stdin")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, yaml)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// countingReader counts the bytes the decoder pulls from the input.
type countingReader struct {
	r *bufio.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingReader) ReadByte() (byte, error) {
	b, err := c.r.ReadByte()
	if err == nil {
		c.n++
	}
	return b, err
}

// decodeInput decodes the dump at path, or stdin for "-".
func decodeInput(path string, cfg Config, log *zap.Logger) (*parser.API, int64, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, 0, fmt.Errorf("opening dump: %w", err)
		}
		defer f.Close()
		r = f
	}

	opts, err := cfg.decoderOptions(log)
	if err != nil {
		return nil, 0, err
	}

	cr := &countingReader{r: bufio.NewReader(r)}
	api, err := parser.NewDecoder(opts...).Decode(cr)
	if err != nil {
		return nil, cr.n, fmt.Errorf("decoding %s: %w", path, err)
	}

	log.Info("decoded api dump",
		zap.String("input", path),
		zap.Int64("bytes", cr.n),
		zap.Int("functions", len(api.Functions)),
	)

	return api, cr.n, nil
}

var (
	headingStyle = lipgloss.NewStyle().Bold(true)
	labelStyle   = lipgloss.NewStyle().Width(12)
)

func printSummary(w io.Writer, path string, api *parser.API, n int64) error {
	rows := []struct {
		label string
		count int
	}{
		{"Defines", len(api.Defines)},
		{"Structs", len(api.Structs)},
		{"Aliases", len(api.Aliases)},
		{"Enums", len(api.Enums)},
		{"Callbacks", len(api.Callbacks)},
		{"Functions", len(api.Functions)},
	}

	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("%s (%s)", path, humanize.Bytes(uint64(n)))))
	b.WriteByte('\n')
	for _, row := range rows {
		b.WriteString(labelStyle.Render(row.label))
		fmt.Fprintf(&b, "%d\n", row.count)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
