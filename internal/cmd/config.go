package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Ayushpate2003/Ai-doc-generater/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify aidocgen configuration",
	Long: `View or modify aidocgen configuration.

Settings are layered, later sources winning: built-in defaults, the user
config file, <repo>/.aidocgen.yaml, AIDOCGEN_* environment variables
(also read from <repo>/.env), command flags, and --set key=value.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented default config file",
	Long: `Create a commented config file with every option at its default.

Writes the user config file unless --project is set, in which case the file
is written to <repo>/.aidocgen.yaml.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value in a config file",
	Long: `Set a configuration value in the user config file, or in
<repo>/.aidocgen.yaml with --project. Keys use dot notation and values are
checked against the key's type.

Examples:
  aidocgen config set analysis.max_workers 4
  aidocgen config set analysis.exclude data-flow,request-flow --project
  aidocgen config set analysis.analyzers.data-flow.timeout 5m`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file paths",
	Args:  cobra.NoArgs,
	RunE:  runConfigPath,
}

var (
	configShowFormat string
	configProject    bool
	configForce      bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)

	configShowCmd.Flags().StringVarP(&configShowFormat, "format", "o", "yaml",
		"output format ("+strings.Join(config.ValidShowFormats(), "/")+")")
	configInitCmd.Flags().BoolVar(&configProject, "project", false, "write <repo>/.aidocgen.yaml instead of the user config")
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing file")
	configSetCmd.Flags().BoolVar(&configProject, "project", false, "write <repo>/.aidocgen.yaml instead of the user config")
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if len(s.files) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "# no config file found, showing defaults")
	} else {
		fmt.Fprintf(cmd.ErrOrStderr(), "# read: %s\n", strings.Join(s.files, ", "))
	}
	return config.Render(cmd.OutOrStdout(), s.v.AllSettings(), configShowFormat)
}

// targetFile returns the file `config init` and `config set` write to.
func targetFile() (string, error) {
	if !configProject {
		return config.ConfigFile(), nil
	}
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(root, config.ProjectFileName), nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path, err := targetFile()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("config file already exists at %s\nUse --force to overwrite or 'aidocgen config set' to modify values", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.Template), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	cmd.Printf("Created config file at %s\n", path)
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, value := strings.ToLower(args[0]), args[1]

	// Coerce and validate against the full configuration first.
	full, err := config.New()
	if err != nil {
		return err
	}
	if !full.IsSet(key) && !strings.HasPrefix(key, "analysis.analyzers.") {
		return fmt.Errorf("unknown config key %q", key)
	}
	if err := config.ApplyOverrides(full, []string{key + "=" + value}); err != nil {
		return err
	}
	if _, err := config.Load(full); err != nil {
		return err
	}

	path, err := targetFile()
	if err != nil {
		return err
	}
	file := viper.New()
	file.SetConfigType("yaml")
	if _, err := os.Stat(path); err == nil {
		file.SetConfigFile(path)
		if err := file.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
	}
	file.Set(key, full.Get(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := file.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	cmd.Printf("Set %s = %v in %s\n", key, full.Get(key), path)
	return nil
}

func runConfigPath(cmd *cobra.Command, _ []string) error {
	root, err := filepath.Abs(repoDir)
	if err != nil {
		return err
	}
	for _, p := range []string{config.ConfigFile(), filepath.Join(root, config.ProjectFileName)} {
		state := "not found"
		if _, err := os.Stat(p); err == nil {
			state = "exists"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", p, state)
	}
	return nil
}
