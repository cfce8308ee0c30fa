package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"led-effect-editor/internal/domain/reconcile"
	"led-effect-editor/internal/ports"
)

var presetCmd = &cobra.Command{
	Use:   "preset",
	Short: "List, load and save presets",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cfg)
		defer cancel()
		s := startSession(cfg)
		defer s.Close()

		snap, err := s.waitReady(ctx)
		if err != nil {
			return err
		}
		for _, p := range snap.Context.Presets {
			fmt.Fprintln(cmd.OutOrStdout(), p.Name)
		}
		return nil
	},
}

var presetLoadCmd = &cobra.Command{
	Use:   "load <name>",
	Short: "Apply a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cfg)
		defer cancel()
		s := startSession(cfg)
		defer s.Close()

		snap, err := s.waitReady(ctx)
		if err != nil {
			return err
		}
		next := snap.Context.Issued() + 1
		if !s.machine.Send(reconcile.LoadPreset{Name: args[0]}) {
			return errors.New("editor stopped")
		}
		snap, err = s.machine.WaitFor(ctx, func(snap reconcile.Snapshot) bool {
			return snap.State == reconcile.StateError || snap.Context.PresetSettled(next)
		})
		if err != nil {
			return err
		}
		if snap.State == reconcile.StateError {
			return fmt.Errorf("could not load preset %s", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Loaded preset %s\n", args[0])
		return nil
	},
}

var presetSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save the running effects as a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cfg)
		defer cancel()
		saver, ok := newSource(cfg).(ports.PresetSaver)
		if !ok {
			return fmt.Errorf("the %s source cannot save presets", cfg.Source)
		}
		if err := saver.SavePreset(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved preset %s\n", args[0])
		return nil
	},
}

func init() {
	presetCmd.AddCommand(presetLoadCmd, presetSaveCmd)
}
