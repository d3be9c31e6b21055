package commands

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/taxa/am"
	"github.com/teranos/taxa/display"
	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/sym"
)

func newAmCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "am",
		Short: sym.AM + " Show and validate taxa configuration",
		Long: sym.AM + ` am - Show and validate taxa configuration ("I am")

Configuration sources (later overrides earlier):
1. Built-in defaults
2. System config (/etc/taxa/am.toml)
3. User config (~/.taxa/am.toml)
4. Project config (./am.toml, searched upwards)
5. Environment variables (TAXA_* prefix, TAXA_DB_PATH)

Examples:
  taxa am show                    # Show current configuration
  taxa am show --format json      # Show configuration in JSON format
  taxa am get taxonomy.url        # Get a specific config value
  taxa am validate                # Validate current configuration
  taxa am where                   # Show which file set each value`,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Args:  cobra.NoArgs,
		RunE:  runAmShow,
	}
	showCmd.Flags().String("format", "toml", "Output format: toml, json, yaml")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a specific configuration value",
		Long:  "Get a specific configuration value using dot notation (e.g. database.path, taxonomy.clades.phage)",
		Args:  cobra.ExactArgs(1),
		RunE:  runAmGet,
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate current configuration",
		Args:  cobra.NoArgs,
		RunE:  runAmValidate,
	}

	whereCmd := &cobra.Command{
		Use:   "where",
		Short: "Show where configuration is loaded from",
		Args:  cobra.NoArgs,
		RunE:  runAmWhere,
	}

	cmd.AddCommand(showCmd, getCmd, validateCmd, whereCmd)
	return cmd
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json":
		return display.OutputJSON(cfg)

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(display.Stdout, "# taxa configuration\n%s", data)

	case "toml":
		// viper's settings map carries the dotted key names used in am.toml
		v, err := am.GetViper()
		if err != nil {
			return err
		}
		data, err := toml.Marshal(v.AllSettings())
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(display.Stdout, "# taxa configuration\n%s", data)

	default:
		return errors.NewInvalidRequestError("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	value, err := am.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(display.Stdout, value)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	fmt.Fprintln(display.Stdout, "✓ Configuration is valid")
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	settings, err := am.Settings()
	if err != nil {
		return err
	}

	fmt.Fprintln(display.Stdout, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(display.Stdout, "  [default]      built-in defaults")
	for _, src := range am.Sources() {
		status := "missing"
		if src.Exists {
			status = "loaded"
		}
		fmt.Fprintf(display.Stdout, "  [%s]%*s%s (%s)\n", src.Source, 13-len(src.Source), "", src.Path, status)
	}
	fmt.Fprintln(display.Stdout, "  [environment]  TAXA_* variables")
	fmt.Fprintln(display.Stdout)

	fmt.Fprintln(display.Stdout, "Active configuration:")
	for _, s := range settings {
		origin := string(s.Source)
		if s.SourcePath != "" && s.Source != am.SourceDefault {
			origin = fmt.Sprintf("%s: %s", s.Source, s.SourcePath)
		}
		fmt.Fprintf(display.Stdout, "  %-36s = %-40v # %s\n", s.Key, s.Value, origin)
	}
	return nil
}
