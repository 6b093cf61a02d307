package main

import (
	"fmt"
	"io"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/handlers"
	"github.com/EasterCompany/dex-athena-service/internal/bot"
	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "Inspect the plugin command manifest",
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the plugin commands in the manifest",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadConfig()
		if err != nil {
			return err
		}
		return listPlugins(cfg.PluginFile, cmd.OutOrStdout())
	},
}

var pluginsValidateCmd = &cobra.Command{
	Use:   "validate [manifest]",
	Short: "Check a plugin manifest without starting the service",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := ""
		if len(args) == 1 {
			path = args[0]
		} else {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			path = cfg.PluginFile
		}
		return validatePlugins(path, cmd.OutOrStdout())
	},
}

func init() {
	pluginsCmd.AddCommand(pluginsListCmd, pluginsValidateCmd)
	rootCmd.AddCommand(pluginsCmd)
}

func builtinSet() map[string]bool {
	set := make(map[string]bool)
	for _, name := range bot.BuiltinNames() {
		set[name] = true
	}
	return set
}

func listPlugins(path string, out io.Writer) error {
	reg, err := handlers.LoadManifest(path)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "%s: %d plugin(s)\n", path, len(reg.Handlers))
	for _, h := range reg.Handlers {
		_, _ = fmt.Fprintf(out, "  /%-14s %-7s %s\n", h.Name, h.Kind, h.Description)
	}
	return nil
}

func validatePlugins(path string, out io.Writer) error {
	reg, err := handlers.LoadManifest(path)
	if err != nil {
		return err
	}
	problems := handlers.Validate(reg, builtinSet())
	if len(problems) == 0 {
		_, _ = fmt.Fprintf(out, "✓ %s: %d plugin(s) valid\n", path, len(reg.Handlers))
		return nil
	}
	for _, p := range problems {
		_, _ = fmt.Fprintf(out, "  ✗ %s\n", p.Error())
	}
	return &handlers.ManifestError{Problems: problems}
}
