package main

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"led-effect-editor/internal/adapters/input/tui"
	"led-effect-editor/internal/logger"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit effect settings in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		logFile, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return err
		}
		defer logFile.Close()
		logger.Initialize(cfg.Logging.Level, logger.ParseFormat(cfg.Logging.Format), logFile)

		s := startSession(cfg)
		defer s.Close()

		_, err = tea.NewProgram(tui.New(s.machine), tea.WithAltScreen()).Run()
		return err
	},
}
