package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/salmonumbrella/harp-cli/internal/config"
	"github.com/salmonumbrella/harp-cli/internal/output"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration stored in ~/.config/harp/config.yaml.

You can view, set, or unset config keys such as device_schema,
register_schema, and output_format. HARP_* environment variables
override the stored values.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfigFromFlag()
		if err != nil {
			return formatConfigLoadError(err)
		}
		ctx := cmd.Context()
		if structuredOutputRequested() {
			return printStructured(ctx, configOutput(cfg))
		}

		out := stdoutFromContext(ctx)
		values := configOutput(cfg)
		rows := make([][]string, 0, len(values))
		for _, key := range config.Keys() {
			rows = append(rows, []string{key + ":", values[key]})
		}
		_, _ = fmt.Fprintln(out, "Config:")
		return output.WriteTable(out, nil, indentRows(rows))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Unset a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigUnset,
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List supported configuration keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := config.Keys()
		sort.Strings(keys)

		ctx := cmd.Context()
		if structuredOutputRequested() {
			return printStructured(ctx, keys)
		}

		out := stdoutFromContext(ctx)
		_, _ = fmt.Fprintln(out, "Supported keys:")
		for _, key := range keys {
			_, _ = fmt.Fprintf(out, "  %s\n", key)
		}
		return nil
	},
}

func configPath() (string, error) {
	if strings.TrimSpace(configFile) != "" {
		return configFile, nil
	}
	return config.DefaultConfigPath()
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
	configCmd.AddCommand(configKeysCmd)

	rootCmd.AddCommand(configCmd)
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))
	value := strings.TrimSpace(args[1])

	if key == "output_format" {
		if _, err := output.ParseFormat(value); err != nil {
			return err
		}
	}

	return updateConfig(cmd, key, func(cfg *config.Config) error {
		return cfg.Set(key, value)
	}, map[string]string{
		"status": "updated",
		"key":    key,
		"value":  value,
	}, fmt.Sprintf("Updated %s", key))
}

func runConfigUnset(cmd *cobra.Command, args []string) error {
	key := strings.ToLower(strings.TrimSpace(args[0]))

	return updateConfig(cmd, key, func(cfg *config.Config) error {
		return cfg.Unset(key)
	}, map[string]string{
		"status": "unset",
		"key":    key,
	}, fmt.Sprintf("Unset %s", key))
}

// updateConfig edits the stored file only, so environment overrides are
// never written back.
func updateConfig(cmd *cobra.Command, key string, edit func(*config.Config) error, result map[string]string, message string) error {
	path, err := configPath()
	if err != nil {
		return err
	}

	cfg, err := config.LoadFile(path)
	if err != nil {
		return formatConfigLoadError(err)
	}
	if err := edit(cfg); err != nil {
		return err
	}
	if err := cfg.Save(path); err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = currentContext()
	}
	loggerFromContext(ctx).Debug("config saved", "path", path, "key", key)

	if structuredOutputRequested() {
		return printStructured(ctx, result)
	}
	stylerFor(stdoutFromContext(ctx)).Success(stdoutFromContext(ctx), message)
	return nil
}

func configOutput(cfg *config.Config) map[string]string {
	return map[string]string{
		"device_schema":   cfg.DeviceSchema,
		"register_schema": cfg.RegisterSchema,
		"output_format":   cfg.OutputFormat,
	}
}

func indentRows(rows [][]string) [][]string {
	indented := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			indented = append(indented, row)
			continue
		}
		cp := append([]string{"  " + row[0]}, row[1:]...)
		indented = append(indented, cp)
	}
	return indented
}
