package main

import (
	"fmt"
	"log"
	"os"

	"github.com/EasterCompany/dex-athena-service/config"
	"github.com/EasterCompany/dex-athena-service/utils"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   string
	branch    string
	commit    string
	buildDate string
	buildHash string
	arch      string
)

var rootCmd = &cobra.Command{
	Use:   "athena",
	Short: "Athena personal assistant bot",
	Long: `Athena connects Telegram and LINE to an LLM, Google Drive, Gmail and
Calendar, a hardware monitor and a plugin command registry.

Run without a subcommand to start the service.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		utils.SetVersion(version, branch, commit, buildDate, buildHash, arch)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the bot, the hardware monitor and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(utils.GetVersion().Str)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, versionCmd)
}

// loadConfig loads and validates the configuration, failing on any problem.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if problems := cfg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			log.Printf("Config: %v", p)
		}
		return nil, fmt.Errorf("invalid configuration: %d problem(s)", len(problems))
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
