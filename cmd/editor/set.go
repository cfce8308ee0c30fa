package main

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/spf13/cobra"

	"led-effect-editor/internal/domain/coerce"
	"led-effect-editor/internal/domain/reconcile"
	"led-effect-editor/internal/domain/schema"
)

var setCmd = &cobra.Command{
	Use:   "set <segment> <field> <value>",
	Short: "Change one setting of the effect running on a segment",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		idx, err := segmentArg(args[0])
		if err != nil {
			return err
		}
		field, raw := args[1], args[2]

		ctx, cancel := commandContext(cfg)
		defer cancel()
		s := startSession(cfg)
		defer s.Close()

		snap, err := s.waitReady(ctx)
		if err != nil {
			return err
		}
		d, ok := snap.Context.Effect(idx)
		if !ok {
			return fmt.Errorf("segment %d has no effect", idx)
		}
		f, ok := findField(schema.DeriveFields(d.Config, d.Schema), field)
		if !ok {
			return fmt.Errorf("%s has no setting %q", d.Name, field)
		}
		value, ok := coerce.ParseInput(f.Schema, parseControl(raw))
		if !ok {
			return fmt.Errorf("cannot set %s to %q", coerce.Label(f.Name, f.Schema), raw)
		}
		if reflect.DeepEqual(value, f.Value) {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to change.")
			return nil
		}
		next := snap.Context.Issued() + 1
		edit, ok := reconcile.EditField(snap.Context, idx, field, value)
		if !ok || !s.machine.Send(edit) {
			return errors.New("the editor rejected the change")
		}

		snap, err = s.machine.WaitFor(ctx, func(snap reconcile.Snapshot) bool {
			return snap.State == reconcile.StateError || snap.Context.EffectSettled(d.Name, next)
		})
		if err != nil {
			return err
		}
		if snap.State == reconcile.StateError {
			return errors.New("the controller did not accept the change")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s.%s = %v\n", d.Name, field, coerce.DisplayValue(f.Schema, value))
		return nil
	},
}

func findField(fields []schema.Field, name string) (schema.Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return schema.Field{}, false
}

// parseControl fills every reading of a control from a command line value.
func parseControl(raw string) coerce.Control {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		n = math.NaN()
	}
	checked, _ := strconv.ParseBool(raw)
	return coerce.Control{Text: raw, Number: n, Checked: checked}
}
