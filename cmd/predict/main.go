// Command predict runs one offline prediction with the same model artifact
// and feature mapping the server uses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"powercast/config"
	"powercast/ml"
)

func main() {
	if err := newPredictCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newPredictCmd(out io.Writer) *cobra.Command {
	var (
		configPath string
		modelPath  string
		modelType  string
	)

	cmd := &cobra.Command{
		Use:   "predict <Global_active_power> <Global_reactive_power> <Voltage> <Global_intensity> <Sub_metering_1> <Sub_metering_2> <Sub_metering_3>",
		Short: "Predict from seven feature values",
		Example: "  predict --model model.json 0.5 0.1 240 3 0 1 2\n" +
			"  predict -- -0.5 0.1 240 3 0 1 2",
		Args:         cobra.ExactArgs(ml.FeatureCount),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			record, err := ml.ParseFeatureValues(args)
			if err != nil {
				return err
			}

			path, kind, err := resolveModel(configPath, modelPath, modelType)
			if err != nil {
				return err
			}
			model, err := ml.LoadModel(kind, path)
			if err != nil {
				return err
			}

			prediction, err := ml.PredictOne(context.Background(), model, record)
			if err != nil {
				return err
			}
			return json.NewEncoder(out).Encode(map[string]float64{"prediction": prediction})
		},
	}
	cmd.Flags().StringVar(&configPath, "config", config.DefaultPath, "path to the YAML config file")
	cmd.Flags().StringVar(&modelPath, "model", "", "model artifact, overrides the config file")
	cmd.Flags().StringVar(&modelType, "type", "", "model type, overrides the config file")

	return cmd
}

// resolveModel picks the artifact path and type, with flags taking precedence
// over the config file.
func resolveModel(configPath, modelPath, modelType string) (string, string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", "", err
	}
	// Listener settings do not matter here, so PORT is not consulted.
	if err := cfg.Finalize(func(string) string { return "" }); err != nil {
		return "", "", fmt.Errorf("invalid config: %w", err)
	}

	path := cfg.ModelPath()
	if modelPath != "" {
		path = modelPath
	}
	kind := cfg.Model.Type
	if modelType != "" {
		kind = modelType
	}
	return path, kind, nil
}
