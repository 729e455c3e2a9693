package cmd

import (
	"fmt"
	"strings"

	"github.com/salmonumbrella/harp-cli/internal/config"
	"github.com/salmonumbrella/harp-cli/internal/schema"
	"github.com/spf13/cobra"
)

// loadConfigFromFlag loads config from --config if provided, otherwise from default path.
func loadConfigFromFlag() (*config.Config, error) {
	if strings.TrimSpace(configFile) != "" {
		return config.Load(configFile)
	}
	return config.ReadConfig()
}

func flagChanged(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	if cmd.Flags().Changed(name) {
		return true
	}
	return cmd.InheritedFlags().Changed(name)
}

// resolveSchemaPaths resolves the schema file paths with precedence:
// flags > env > config. The environment layer is applied by config.Load.
func resolveSchemaPaths(cmd *cobra.Command, cfg *config.Config) (string, string, error) {
	devicePath := ""
	registerPath := ""

	if flagChanged(cmd, "device-schema") {
		devicePath = strings.TrimSpace(deviceSchema)
	}
	if flagChanged(cmd, "register-schema") {
		registerPath = strings.TrimSpace(registerSchema)
	}

	if devicePath == "" && cfg != nil {
		devicePath = strings.TrimSpace(cfg.DeviceSchema)
	}
	if registerPath == "" && cfg != nil {
		registerPath = strings.TrimSpace(cfg.RegisterSchema)
	}

	if devicePath == "" {
		return "", "", fmt.Errorf("device schema required. Set HARP_DEVICE_SCHEMA or use --device-schema flag.\nRun 'harp config set device_schema <path>' to store it.")
	}
	if registerPath == "" {
		return "", "", fmt.Errorf("register schema required. Set HARP_REGISTER_SCHEMA or use --register-schema flag.\nRun 'harp config set register_schema <path>' to store it.")
	}
	return devicePath, registerPath, nil
}

// loadSchemaSet reads both schema documents once for the running command.
func loadSchemaSet(cmd *cobra.Command) (*schema.Set, error) {
	devicePath, registerPath, err := resolveSchemaPaths(cmd, activeConfig)
	if err != nil {
		return nil, err
	}

	logger := loggerFromContext(cmd.Context())
	logger.Debug("reading schemas", "device", devicePath, "register", registerPath)

	set, err := readSchemaSetFunc(devicePath, registerPath)
	if err != nil {
		return nil, err
	}
	logger.Debug("schemas loaded",
		"device_attributes", len(set.Device),
		"register_attributes", len(set.Register),
	)
	return set, nil
}

func formatConfigLoadError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("load config: %w", err)
}
