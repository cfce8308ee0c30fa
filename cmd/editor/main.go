package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"led-effect-editor/internal/config"
	"led-effect-editor/internal/logger"
)

var (
	configPath string
	logLevel   string
	cfg        config.Config
)

var rootCmd = &cobra.Command{
	Use:   "editor",
	Short: "Edit the effects running on an LED controller",
	Long: `editor reconciles a local view of an LED controller's effects with the
controller itself. Run "editor serve" for a simulated controller and
"editor edit" to change effect settings interactively.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		// the terminal editor owns the screen, so it logs to a file
		if cmd.Name() == editCmd.Name() {
			return nil
		}
		logger.Initialize(cfg.Logging.Level, logger.ParseFormat(cfg.Logging.Format), os.Stderr)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(serveCmd, editCmd, effectsCmd, setCmd, presetCmd, discoverCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
