package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/absmach/fedfraud/pkg/artifact"
	"github.com/absmach/fedfraud/pkg/dataset"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/model"
	"github.com/spf13/cobra"
)

type datasetSummary struct {
	Path      string `json:"path"`
	Sequences int    `json:"sequences"`
	Steps     int    `json:"steps"`
	Features  int    `json:"features"`
	Fraud     int    `json:"fraud"`
}

func NewModelCmd() *cobra.Command {
	var (
		units int
		seed  uint64
	)

	cmd := &cobra.Command{
		Use:   "model [init]",
		Short: "Model artifacts",
		Long:  `Create model artifacts for the coordinator.`,
	}

	initCmd := &cobra.Command{
		Use:   "init <features> <out>",
		Short: "Create initial parameters",
		Long: `Create a freshly initialised network and store it as the coordinator's initial model.

Examples:
  fedfraud-cli model init 30 model/initial_model.cbor`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			features, err := positive(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			m := fl.BestModel{
				Parameters: model.NewParameters(features, units, seed),
				SavedAt:    time.Now().UTC(),
			}
			if err := artifact.WriteFile(args[1], m); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	initCmd.Flags().IntVarP(&units, "units", "u", model.DefaultUnits, "Recurrent units")
	initCmd.Flags().Uint64VarP(&seed, "seed", "s", 42, "Initialisation seed")
	cmd.AddCommand(initCmd)

	return cmd
}

func NewDatasetCmd() *cobra.Command {
	var (
		fraudRate float64
		seed      uint64
	)

	cmd := &cobra.Command{
		Use:   "dataset [synth]",
		Short: "Datasets",
		Long:  `Create datasets for local clients and held-out evaluation.`,
	}

	synthCmd := &cobra.Command{
		Use:   "synth <n> <seq_len> <features> <out>",
		Short: "Generate a synthetic dataset",
		Long: `Generate a reproducible labelled dataset and write it as an .npz file.

Examples:
  fedfraud-cli dataset synth 2000 10 30 data/test_sequences.npz --fraud-rate 0.05`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 4 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			dims := make([]int, 3)
			for i := range dims {
				v, err := positive(args[i])
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				dims[i] = v
			}

			d := dataset.Synthetic(dims[0], dims[1], dims[2], fraudRate, seed)
			if err := dataset.SaveNPZ(args[3], d); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, datasetSummary{
				Path:      args[3],
				Sequences: d.Len(),
				Steps:     dims[1],
				Features:  dims[2],
				Fraud:     d.Positives(),
			})
		},
	}

	synthCmd.Flags().Float64VarP(&fraudRate, "fraud-rate", "r", 0.05, "Fraction of fraud sequences")
	synthCmd.Flags().Uint64VarP(&seed, "seed", "s", 42, "Generator seed")
	cmd.AddCommand(synthCmd)

	return cmd
}

func positive(arg string) (int, error) {
	v, err := strconv.Atoi(arg)
	if err != nil {
		return 0, err
	}
	if v < 1 {
		return 0, fmt.Errorf("expected a positive integer, got %d", v)
	}

	return v, nil
}
