package main

import (
	"log"
	"os"
	"time"

	"github.com/absmach/fedfraud/cli"
	"github.com/absmach/fedfraud/pkg/sdk"
	"github.com/spf13/cobra"
)

const (
	defMonitorURL      = "http://localhost:5000"
	defTLSVerification = false
	defTimeout         = 30 * time.Second
	monitorURLEnv      = "FEDFRAUD_MONITOR_URL"
)

func main() {
	monitorURL := defMonitorURL
	if v := os.Getenv(monitorURLEnv); v != "" {
		monitorURL = v
	}

	rootCmd := &cobra.Command{
		Use:   "fedfraud-cli",
		Short: "Federated fraud detection CLI",
		Long:  `fedfraud-cli queries the monitor service and bootstraps models and datasets for federated training.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			sdkConf := sdk.Config{
				MonitorURL:      monitorURL,
				TLSVerification: defTLSVerification,
				Timeout:         defTimeout,
			}
			s := sdk.NewSDK(sdkConf)
			cli.SetSDK(s)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&monitorURL, "monitor-url", "m", monitorURL, "Monitor service URL")

	rootCmd.AddCommand(
		cli.NewMetricsCmd(),
		cli.NewThresholdCmd(),
		cli.NewPredictCmd(),
		cli.NewModelCmd(),
		cli.NewDatasetCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
