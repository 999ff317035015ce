package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/tessro/linkctl/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and checking linkctl configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration, after defaults and environment overrides.`,
	RunE:  runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the configuration file in use",
	RunE:  runConfigPath,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration for errors",
	RunE:  runConfigValidate,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	if JSONOutput() {
		return writeJSON(os.Stdout, cfg)
	}

	// Pretty print as TOML
	encoder := toml.NewEncoder(os.Stdout)
	encoder.Indent = "  "
	return encoder.Encode(cfg)
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.FindConfigFile()
	}

	if JSONOutput() {
		return writeJSON(os.Stdout, map[string]any{
			"path":   path,
			"search": config.SearchPaths(),
		})
	}

	if path == "" {
		fmt.Println("No config file found. Searched:")
		for _, p := range config.SearchPaths() {
			fmt.Println("  " + p)
		}
		return nil
	}
	fmt.Println(path)
	return nil
}

// runConfigValidate re-checks the loaded configuration. Loading already
// failed on invalid files, so reaching here means the file parsed.
func runConfigValidate(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	printResult(fmt.Sprintf("✓ Configuration is valid (%d devices)", len(cfg.Devices)), map[string]any{
		"valid":   true,
		"devices": len(cfg.Devices),
	})
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	_, _ = fmt.Fprintln(f, "# linkctl configuration")
	_, _ = fmt.Fprintln(f, "#")
	_, _ = fmt.Fprintln(f, "# Add one [[devices]] table per speaker:")
	_, _ = fmt.Fprintln(f, "#   [[devices]]")
	_, _ = fmt.Fprintln(f, "#   id = \"kitchen\"")
	_, _ = fmt.Fprintln(f, "#   host = \"192.168.1.40\"")
	_, _ = fmt.Fprintln(f, "")

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(config.Default()); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	printResult("Created config file: "+configPath, map[string]string{
		"status": "created",
		"path":   configPath,
	})
	return nil
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".linkctlrc"
	}

	return filepath.Join(home, ".linkctlrc")
}
