package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/salmonumbrella/harp-cli/internal/config"
	"github.com/salmonumbrella/harp-cli/internal/output"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	// Version is set at build time
	version = "dev"
	// Commit is set at build time
	commit = "none"
	// Date is set at build time
	date = "unknown"
)

// SetVersionInfo sets the version information from build flags
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
}

func versionTemplate() string {
	return fmt.Sprintf("harp version %s (commit: %s, built: %s)\n", version, commit, date)
}

// Global flags
var (
	outputFmt      string
	outputType     output.Format
	debug          bool
	configFile     string
	deviceSchema   string
	registerSchema string
	queryExpr      string
	queryFile      string
	errorFmt       string
	quietFlag      bool
	resultLimit    int
	resultSort     string
	resultDesc     bool
)

// activeConfig is the configuration loaded for the running command.
var activeConfig *config.Config

var rootCmd = &cobra.Command{
	Use:   "harp",
	Short: "Preview device register maps",
	Long: `harp renders device description documents as tables of device
attributes, registers, bit masks and group masks.

Attribute columns come from two schema documents: the device schema and the
register schema.

Environment Variables:
  HARP_DEVICE_SCHEMA    Path to the device schema
  HARP_REGISTER_SCHEMA  Path to the register schema
  HARP_OUTPUT_FORMAT    Default output format`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceErrors = true

		// Errors raised before the output format is resolved print as text.
		ctx := withIO(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		ctx = output.WithFormat(ctx, output.FormatText)
		ctx = WithErrorFormat(ctx, errorFmt)
		cmd.SetContext(ctx)

		skipConfigLoad := cmd.Name() == "config" || (cmd.Parent() != nil && cmd.Parent().Name() == "config")
		activeConfig = nil
		if !skipConfigLoad {
			loadedCfg, err := loadConfigFromFlag()
			if err != nil {
				return formatConfigLoadError(err)
			}
			activeConfig = loadedCfg
		}

		// Output format selection: --output > config > default
		formatStr := outputFmt
		if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") && activeConfig != nil && strings.TrimSpace(activeConfig.OutputFormat) != "" {
			formatStr = strings.TrimSpace(activeConfig.OutputFormat)
		}
		if !flagChanged(cmd, "output") && !flagChanged(cmd, "format") && !isTerminal(cmd.OutOrStdout()) {
			formatStr = "json"
		}
		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		outputType = format
		outputFmt = string(format)

		// jq query
		if queryExpr != "" && queryFile != "" {
			return fmt.Errorf("use only one of --query or --query-file")
		}
		if queryFile != "" {
			loaded, err := readInputSource(queryFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			queryExpr = loaded
		}

		// Default quiet mode for non-interactive structured output
		if !flagChanged(cmd, "quiet") && !isTerminal(cmd.OutOrStdout()) && output.IsStructured(outputType) {
			quietFlag = true
		}

		ctx = withLogger(ctx, newLogger(cmd.ErrOrStderr(), debug))
		ctx = output.WithFormat(ctx, outputType)
		ctx = output.WithQuery(ctx, queryExpr)
		ctx = output.WithLimit(ctx, resultLimit)
		ctx = output.WithSort(ctx, resultSort, resultDesc)
		ctx = output.WithQuiet(ctx, quietFlag)
		ctx = WithErrorFormat(ctx, errorFmt)
		cmd.SetContext(ctx)

		if err := validateErrorFormat(errorFmt); err != nil {
			return err
		}
		if effectiveErrorFormat(ctx) != "text" {
			cmd.SilenceUsage = true
		}

		loggerFromContext(ctx).Debug("command starting",
			"command", cmd.CommandPath(),
			"format", string(outputType),
		)
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	c, err := rootCmd.ExecuteC()
	if err != nil {
		if c == nil {
			c = rootCmd
		}
		printCommandError(c.Context(), err)
		return err
	}
	return nil
}

// GetOutputFormat returns the configured output format
func GetOutputFormat() output.Format {
	if outputType != "" {
		return outputType
	}
	parsed, err := output.ParseFormat(outputFmt)
	if err != nil {
		return output.FormatText
	}
	return parsed
}

func init() {
	rootCmd.SetVersionTemplate(versionTemplate())

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "text", "Output format (text|table|json|ndjson|yaml|html)")
	rootCmd.PersistentFlags().StringVar(&outputFmt, "format", "text", "Alias for --output")
	rootCmd.PersistentFlags().StringVar(&queryExpr, "query", "", "jq expression to filter JSON output")
	rootCmd.PersistentFlags().StringVar(&queryFile, "query-file", "", "Read jq expression from file (use - for stdin)")
	rootCmd.PersistentFlags().StringVar(&errorFmt, "error-format", "auto", "Error output format (auto|text|json|yaml)")
	rootCmd.PersistentFlags().BoolVar(&quietFlag, "quiet", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().IntVar(&resultLimit, "result-limit", 0, "Limit number of register rows in output (0 = unlimited)")
	rootCmd.PersistentFlags().StringVar(&resultSort, "result-sort-by", "", "Sort register rows by column")
	rootCmd.PersistentFlags().BoolVar(&resultDesc, "result-desc", false, "Sort register rows in descending order")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default: ~/.config/harp/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&deviceSchema, "device-schema", "", "Device schema file (env: HARP_DEVICE_SCHEMA)")
	rootCmd.PersistentFlags().StringVar(&registerSchema, "register-schema", "", "Register schema file (env: HARP_REGISTER_SCHEMA)")
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
