package cli

import (
	"strconv"

	"github.com/absmach/fedfraud/pkg/dataset"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/absmach/fedfraud/pkg/sdk"
	"github.com/spf13/cobra"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10
)

var msdk sdk.SDK

func SetSDK(s sdk.SDK) {
	msdk = s
}

func NewMetricsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics [list|latest]",
		Short: "Round metrics",
		Long:  `View the evaluation metrics reported for each federated round.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List round metrics",
		Long:  `List round metrics ordered by round number.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := msdk.ListMetrics(cmd.Context(), defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "Latest round metrics",
		Long:  `View the metrics of the most recent round.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			m, err := msdk.LatestMetrics(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	listCmd.Flags().Uint64VarP(&defOffset, "offset", "o", defOffset, "Offset")
	listCmd.Flags().Uint64VarP(&defLimit, "limit", "l", defLimit, "Limit")

	cmd.AddCommand(listCmd)
	cmd.AddCommand(latestCmd)

	return cmd
}

func NewThresholdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threshold [get|set]",
		Short: "Operating threshold",
		Long:  `View or override the operating threshold used for predictions.`,
	}

	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Get threshold",
		Long:  `Get the operating threshold.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			t, err := msdk.Threshold(cmd.Context())
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, t)
		},
	}

	setCmd := &cobra.Command{
		Use:   "set <threshold>",
		Short: "Set threshold",
		Long: `Set the operating threshold.

Examples:
  fedfraud-cli threshold set 0.206122`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			v, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if err := msdk.UpdateThreshold(cmd.Context(), v); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logOKCmd(*cmd)
		},
	}

	cmd.AddCommand(getCmd)
	cmd.AddCommand(setCmd)

	return cmd
}

type predictSummary struct {
	Round      int                  `json:"round"`
	Threshold  float64              `json:"threshold"`
	Sequences  int                  `json:"sequences"`
	Fraud      int                  `json:"fraud"`
	Evaluation *fl.EvaluationReport `json:"evaluation,omitempty"`
}

func NewPredictCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "predict <file.npz>",
		Short: "Score sequences",
		Long: `Score the sequences stored in an .npz file with the best model.
When the file carries labels the predictions are also evaluated against them.

Examples:
  fedfraud-cli predict data/test_sequences.npz`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			d, err := dataset.LoadNPZ(args[0])
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			res, err := msdk.Predict(cmd.Context(), d.X)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			if verbose {
				logJSONCmd(*cmd, res)
			}

			summary := predictSummary{
				Round:     res.Round,
				Threshold: res.Threshold,
				Sequences: len(res.Predictions),
			}
			probs := make([]float64, len(res.Predictions))
			for i, p := range res.Predictions {
				probs[i] = p.Probability
				if p.Fraud {
					summary.Fraud++
				}
			}
			if report, err := fl.Evaluate(probs, d.Y, res.Threshold); err == nil && len(probs) > 0 {
				report = report.Rounded()
				report.Round = res.Round
				report.Threshold = res.Threshold
				summary.Evaluation = &report
			}
			logJSONCmd(*cmd, summary)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every prediction")

	return cmd
}
