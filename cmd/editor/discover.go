package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"led-effect-editor/internal/adapters/input/ssdp"
)

var discoverWait time.Duration

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find simulated controllers on the local network",
	RunE: func(cmd *cobra.Command, args []string) error {
		found, err := ssdp.Discover(cmd.Context(), discoverWait)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No controllers found.")
			return nil
		}
		for _, loc := range found {
			fmt.Fprintln(cmd.OutOrStdout(), loc)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().DurationVar(&discoverWait, "wait", 2*time.Second, "how long to wait for answers")
}
