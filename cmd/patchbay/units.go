package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vsariola/patchbay/editor"
	"github.com/vsariola/patchbay/units"
)

func unitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "units",
		Short: "List the units that can be added to a graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := units.Factory{}
			var rows [][]string
			for _, desc := range units.Catalog() {
				u, err := f.NewUnit(desc)
				if err != nil {
					return err
				}
				rows = append(rows, []string{
					desc.Kind,
					editor.DisplayName(u.Name()),
					strconv.Itoa(u.NumInputChannels()),
					strconv.Itoa(u.NumOutputChannels()),
					midiFlags(u.AcceptsMIDI(), u.ProducesMIDI()),
				})
			}
			fmt.Println()
			table([]string{"KIND", "NAME", "IN", "OUT", "MIDI"}, rows)
			fmt.Println()
			return nil
		},
	}
}

func midiFlags(in, out bool) string {
	switch {
	case in && out:
		return "in/out"
	case in:
		return "in"
	case out:
		return "out"
	}
	return "-"
}
