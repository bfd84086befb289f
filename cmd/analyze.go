package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gesturehook/internal/gesture"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var downsample bool

	cmd := &cobra.Command{
		Use:   "analyze <trajectory.json>",
		Short: "Run the circle analyzer over a recorded stroke",
		Long: `Reads a JSON array of {"x":..,"y":..} points in physical pixels and prints
the analyzer report using the configured thresholds.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := loadConfig(opts)
			if err != nil {
				return err
			}

			points, err := readTrajectory(args[0])
			if err != nil {
				return err
			}

			th := mgr.Get().Gesture.Thresholds
			if downsample {
				points = gesture.Downsample(points, th.SampleDistance)
			}

			data, err := json.MarshalIndent(gesture.Inspect(points, th), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&downsample, "downsample", false, "apply the sample filter before analyzing")
	return cmd
}

func readTrajectory(path string) ([]gesture.Point, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trajectory: %w", err)
	}
	var points []gesture.Point
	if err := json.Unmarshal(data, &points); err != nil {
		return nil, fmt.Errorf("parse trajectory %s: %w", path, err)
	}
	return points, nil
}
