package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/layout"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type layoutOutput struct {
	Result layout.Result      `json:"result" yaml:"result"`
	Config layout.Config      `json:"config" yaml:"config"`
	Nodes  []layout.NodeState `json:"nodes" yaml:"nodes"`
}

func newLayoutCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout <story.yaml>",
		Short: "Compute scene positions with the force-directed layout",
		Long: `Runs the force-directed layout over the story graph until it converges or
reaches the iteration cap, then prints every scene's position and depth.

Tuning keys accepted by --set match the layout configuration, e.g.
--set idealEdgeLength=250 --set damping=0.9.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}

			changes := map[string]any{}
			if a.cfg.LayoutMaxIterations > 0 {
				changes["maxIterations"] = a.cfg.LayoutMaxIterations
			}
			sets, _ := cmd.Flags().GetStringToString("set")
			for k, v := range sets {
				changes[k] = v
			}
			if cmd.Flags().Changed("direction") {
				changes["direction"], _ = cmd.Flags().GetString("direction")
			}
			if cmd.Flags().Changed("max-iterations") {
				changes["maxIterations"], _ = cmd.Flags().GetInt("max-iterations")
			}
			cfg, err := layout.DefaultConfig().Merge(changes)
			if err != nil {
				return err
			}

			opts := []arbor.Option{arbor.WithLayoutConfig(cfg)}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetInt64("seed")
				opts = append(opts, arbor.WithLayoutSeed(seed))
			}
			pins, _ := cmd.Flags().GetStringToString("pin")
			for id, at := range pins {
				x, y, err := parsePoint(at)
				if err != nil {
					return fmt.Errorf("--pin %s: %w", id, err)
				}
				opts = append(opts, arbor.WithPin(id, x, y))
			}

			p, err := a.open(args[0], opts...)
			if err != nil {
				return err
			}
			l, res, err := p.Layout(cmd.Context())
			if err != nil {
				return err
			}
			if a.metrics != nil {
				a.metrics.ObserveLayout(res)
			}
			a.logger.Info("layout finished", "iterations", res.Iterations, "converged", res.Converged, "energy", res.Energy)

			return writeLayout(cmd.OutOrStdout(), format, layoutOutput{
				Result: res,
				Config: l.Config(),
				Nodes:  l.Nodes(),
			})
		},
	}
	cmd.Flags().StringP("format", "f", "json", "Output format (json or yaml)")
	cmd.Flags().String("direction", string(layout.LeftToRight), "Flow direction (left-to-right, right-to-left, top-to-bottom, bottom-to-top)")
	cmd.Flags().Int("max-iterations", 0, "Iteration cap (overrides ARBOR_LAYOUT_MAX_ITERATIONS)")
	cmd.Flags().Int64("seed", 0, "Seed for the initial placement (overrides ARBOR_LAYOUT_SEED)")
	cmd.Flags().StringToString("set", nil, "Layout tuning key=value")
	cmd.Flags().StringToString("pin", nil, "Fix a scene at a position, scene=x:y")
	return cmd
}

func parsePoint(s string) (float64, float64, error) {
	xs, ys, ok := strings.Cut(s, ":")
	if !ok {
		return 0, 0, fmt.Errorf("want x:y, got %q", s)
	}
	x, err := strconv.ParseFloat(xs, 64)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseFloat(ys, 64)
	if err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

func writeLayout(w io.Writer, format string, out layoutOutput) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
