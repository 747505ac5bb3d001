package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"retail-dashboard/internal/config"
	"retail-dashboard/internal/services"
)

// CLI is the offline front end of the analytics engine. Every command loads
// the transaction file, runs one analysis and prints a report.
type CLI struct {
	out      io.Writer
	logger   *slog.Logger
	reporter *Reporter
	defaults config.AnalysisConfig
	data     config.DataConfig
	rootCmd  *cobra.Command

	dataFile    string
	profilePath string
	jsonOutput  bool
	profile     *config.Profile
}

type Options struct {
	Output   io.Writer
	Logger   *slog.Logger
	Data     config.DataConfig
	Defaults config.AnalysisConfig
}

func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	cli := &CLI{
		out:      opts.Output,
		logger:   opts.Logger,
		reporter: NewReporter(opts.Output),
		defaults: opts.Defaults,
		data:     opts.Data,
	}
	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute(ctx context.Context) error {
	return cli.rootCmd.ExecuteContext(ctx)
}

// SetArgs overrides os.Args[1:], mainly for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "retail",
		Short:         "Retail transaction analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cli.profilePath == "" {
				return nil
			}
			p, err := config.LoadProfile(cli.profilePath)
			if err != nil {
				return err
			}
			cli.profile = p
			return nil
		},
	}
	cmd.SetOut(cli.out)

	flags := cmd.PersistentFlags()
	flags.StringVarP(&cli.dataFile, "file", "f", "", "Transaction file (.csv or .xlsx), defaults to DATA_FILE")
	flags.StringVarP(&cli.profilePath, "profile", "p", "", "Analysis profile (yaml, json or toml)")
	flags.BoolVar(&cli.jsonOutput, "json", false, "Print the raw result as JSON")

	cmd.AddCommand(
		newCountriesCmd(cli),
		newAllocateCmd(cli),
		newDolCmd(cli),
		newSeasonalityCmd(cli),
		newRevenueCmd(cli),
	)
	return cmd
}

// source picks the data file: the --file flag, then the profile, then the
// environment default.
func (cli *CLI) source() string {
	switch {
	case cli.dataFile != "":
		return cli.dataFile
	case cli.profile != nil && cli.profile.DataFile != "":
		return cli.profile.DataFile
	default:
		return cli.data.File
	}
}

func (cli *CLI) analytics(ctx context.Context) (*services.Analytics, error) {
	a := services.NewAnalytics(services.Options{
		CacheDir:        cli.data.CacheDir,
		CacheTTL:        cli.defaults.CacheTTL,
		CacheMaxEntries: cli.defaults.CacheMaxEntries,
		Logger:          cli.logger,
	})

	path := cli.source()
	if err := a.LoadFromFile(ctx, path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return a, nil
}

// emit prints v as JSON when --json is set, otherwise through render.
func (cli *CLI) emit(v any, render func() error) error {
	if !cli.jsonOutput {
		return render()
	}
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
