package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/geotape"
	"github.com/gogpu/geotape/config"
)

// composeOutput is the document printed by the compose command.
type composeOutput struct {
	Operations []string      `json:"operations" yaml:"operations"`
	Matrix     [3][3]float64 `json:"matrix" yaml:"matrix"`
	Width      int           `json:"width" yaml:"width"`
	Height     int           `json:"height" yaml:"height"`
	Border     string        `json:"border" yaml:"border"`
}

func (c *CLI) composeCommand() *cobra.Command {
	var (
		configPath    string
		width, height int
		format        string
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Print the composed matrix and output canvas",
		Long: `Compose resolves the configuration against an input canvas and prints the
operation tape, the 3x3 matrix and the output canvas size.`,
		Example: `  geotape compose --config ops.yaml --width 640 --height 480
  GEOTAPE_ROTATE__ANGLE_DEGREES=30 geotape compose -c ops.yaml -W 640 -H 480 -f yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			tape, err := geotape.Resolve(cfg, width, height)
			if err != nil {
				return err
			}
			res, err := geotape.Build(tape, width, height)
			if err != nil {
				return err
			}
			loggerFromContext(cmd.Context()).Debug("composed", "tape", tape.String(), "canvas", fmt.Sprintf("%dx%d", res.Width, res.Height))
			return writeCompose(cmd.OutOrStdout(), format, tape, res)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "operation configuration (yaml, json or toml)")
	cmd.Flags().IntVarP(&width, "width", "W", 0, "input canvas width")
	cmd.Flags().IntVarP(&height, "height", "H", 0, "input canvas height")
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	_ = cmd.MarkFlagRequired("width")
	_ = cmd.MarkFlagRequired("height")
	return cmd
}

func writeCompose(w io.Writer, format string, tape geotape.Tape, res geotape.Result) error {
	out := composeOutput{
		Operations: make([]string, len(tape)),
		Matrix:     res.Matrix.Rows(),
		Width:      res.Width,
		Height:     res.Height,
		Border:     res.Border.String(),
	}
	for i, op := range tape {
		out.Operations[i] = op.String()
	}

	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want json or yaml)", format)
	}
}
