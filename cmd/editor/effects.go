package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"led-effect-editor/internal/domain/coerce"
	"led-effect-editor/internal/domain/model"
	"led-effect-editor/internal/domain/schema"
)

var effectsCmd = &cobra.Command{
	Use:   "effects",
	Short: "Show the effects running on each segment and their settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cfg)
		defer cancel()
		s := startSession(cfg)
		defer s.Close()

		snap, err := s.waitReady(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, name := range model.EffectNames(snap.Context.Effects) {
			d := snap.Context.Effects[name]
			var segments []int
			for _, e := range snap.Context.State.Effects {
				if e.Effect == name {
					segments = append(segments, e.SegmentIndex)
				}
			}
			fmt.Fprintf(w, "%s\tsegments %v\n", coerce.PrettyName(name), segments)
			for _, f := range schema.DeriveFields(d.Config, d.Schema) {
				fmt.Fprintf(w, "  %s\t%v\t%s\n", coerce.Label(f.Name, f.Schema), coerce.DisplayValue(f.Schema, f.Value), coerce.InputKind(f.Schema))
			}
		}
		return w.Flush()
	},
}
