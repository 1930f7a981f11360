package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/loopsim/internal/config"
	"github.com/san-kum/loopsim/internal/viz"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list built-in plant and controller presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", viz.MetricLabel.Render(fmt.Sprintf("%-16s", name)), config.Presets[name].Description)
			}
			return nil
		},
	}
}

func newInitConfigCmd() *cobra.Command {
	var preset string
	cmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write a config file to start from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				if cfg = config.GetPreset(preset); cfg == nil {
					return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
				}
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "start from this preset")
	return cmd
}
