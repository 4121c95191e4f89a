package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/JonMunkholm/TagConvert/internal/core"
	"github.com/JonMunkholm/TagConvert/internal/logging"
	"github.com/spf13/cobra"
)

const confirmationPrompt = "Do you want to import Tags or Alarms list file?"

var errAborted = errors.New("aborted")

type convertOptions struct {
	output  string
	format  string
	yes     bool
	maxSize int64
}

func newRootCommand() *cobra.Command {
	var logLevel string
	cmd := &cobra.Command{
		Use:           "tagconv",
		Short:         "Convert CSV, XML or JSON tag exports to a JSON import document",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), logLevel, "text"))
		},
	}
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	cmd.AddCommand(newConvertCommand())
	cmd.AddCommand(newFormatsCommand())
	return cmd
}

func newConvertCommand() *cobra.Command {
	opts := convertOptions{}
	cmd := &cobra.Command{
		Use:   "convert <file>",
		Short: "Convert one export file",
		Long: `Convert one export file. The format comes from the file extension
unless --format is given. The document is written next to the input with a
.json extension, or to --output ("-" for stdout).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", `Output path ("-" for stdout)`)
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Input format: csv, xml or json")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().Int64Var(&opts.maxSize, "max-size", 10<<20, "Largest accepted input in bytes")
	return cmd
}

func runConvert(cmd *cobra.Command, path string, opts convertOptions) error {
	if !opts.yes {
		ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), confirmationPrompt)
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	service, err := core.NewService(core.ServiceConfig{
		MaxInputSize:  opts.maxSize,
		MaxConcurrent: 1,
	}, nil, nil)
	if err != nil {
		return err
	}

	result, err := service.Convert(context.Background(), core.ConvertRequest{
		Filename: filepath.Base(path),
		Format:   core.Format(opts.format),
		Body:     f,
	})
	if err != nil {
		slog.Debug("conversion failed", "file", path, "error", err)
		return fmt.Errorf("%s: %s", path, core.FormatUserError(err))
	}

	slog.Info("converted",
		"file", path,
		"format", result.Format,
		"tags", result.TagCount,
		"duration_ms", result.Duration.Milliseconds(),
	)

	output := opts.output
	if output == "" {
		output = filepath.Join(filepath.Dir(path), result.OutputFilename)
	}

	if output == "-" {
		out := cmd.OutOrStdout()
		if _, err := out.Write(result.Output); err != nil {
			return err
		}
		_, err := io.WriteString(out, "\n")
		return err
	}

	if err := os.WriteFile(output, append(result.Output, '\n'), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "File converted successfully! %d tags written to %s\n", result.TagCount, output)
	return nil
}

// confirm asks a yes/no question on out and reads the answer from in.
// Anything but y or yes is a no.
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N] ", question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported input formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "FORMAT\tEXTENSIONS\tDESCRIPTION")
			for _, def := range core.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", def.Format, strings.Join(def.Extensions, ","), def.Label)
			}
			return tw.Flush()
		},
	}
}
