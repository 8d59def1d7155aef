package commands

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	envFile  string
	logLevel string

	version = "dev"
	commit  = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "souschef",
	Short: "Hands-free live cooking assistant",
	Long: `souschef streams your microphone and camera to a realtime multimodal
assistant and plays its spoken guidance back, hands-free.

Set SOUSCHEF_API_KEY in the environment (or a .env file) before connecting.

Examples:
  # Start a session with an inline recipe
  souschef run --recipe "Spanish omelette: 4 eggs, 2 potatoes..."

  # Start a session with a recipe file
  souschef run --recipe @recipes/carbonara.md

  # List available audio input devices
  souschef devices`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Missing .env is fine; the variable may be set in the shell.
		if envFile != "" {
			godotenv.Load(envFile)
		} else {
			godotenv.Load()
		}
	},
}

// SetVersion records build metadata injected by the linker.
func SetVersion(v, c string) {
	version = v
	commit = c
	rootCmd.Version = v + " (" + c + ")"
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default: ./.env if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override configured log level (trace|debug|info|warn|error)")
}

func apiKey() string {
	return os.Getenv("SOUSCHEF_API_KEY")
}
