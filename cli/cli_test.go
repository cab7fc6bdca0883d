package cli_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/absmach/fedfraud/cli"
	"github.com/absmach/fedfraud/pkg/artifact"
	"github.com/absmach/fedfraud/pkg/dataset"
	"github.com/absmach/fedfraud/pkg/sdk"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, string) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	return stdout.String(), stderr.String()
}

func TestDatasetSynth(t *testing.T) {
	out := filepath.Join(t.TempDir(), "train.npz")

	stdout, stderr := run(t, cli.NewDatasetCmd(), "synth", "40", "5", "3", out, "--fraud-rate", "0.5", "--seed", "9")
	assert.Empty(t, stderr)
	assert.Contains(t, stdout, "sequences")

	d, err := dataset.LoadNPZ(out)
	require.NoError(t, err)
	assert.Equal(t, dataset.Synthetic(40, 5, 3, 0.5, 9), d)
}

func TestDatasetSynthUsage(t *testing.T) {
	stdout, _ := run(t, cli.NewDatasetCmd(), "synth", "40")
	assert.Contains(t, stdout, "usage")

	_, stderr := run(t, cli.NewDatasetCmd(), "synth", "0", "5", "3", filepath.Join(t.TempDir(), "x.npz"))
	assert.Contains(t, stderr, "positive integer")
}

func TestModelInit(t *testing.T) {
	out := filepath.Join(t.TempDir(), "initial_model.cbor")

	_, stderr := run(t, cli.NewModelCmd(), "init", "4", out, "--units", "6")
	assert.Empty(t, stderr)

	m, err := artifact.ReadFile(out)
	require.NoError(t, err)
	require.Len(t, m.Parameters, 5)
	assert.Equal(t, []int{4, 24}, m.Parameters[0].Shape)
	assert.Equal(t, []int{6, 24}, m.Parameters[1].Shape)
}

func TestMonitorCommands(t *testing.T) {
	var paths []string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		w.Header().Set("Content-Type", sdk.CTJSON)
		switch r.URL.Path {
		case "/get_metrics/latest":
			_, _ = w.Write([]byte(`{"round": 3, "pr_auc": 0.71}`))
		case "/get_threshold":
			http.Error(w, `{"error": "not found"}`, http.StatusNotFound)
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer ts.Close()
	cli.SetSDK(sdk.NewSDK(sdk.Config{MonitorURL: ts.URL}))

	stdout, _ := run(t, cli.NewMetricsCmd(), "latest")
	assert.Contains(t, stdout, "0.71")

	stdout, _ = run(t, cli.NewThresholdCmd(), "set", "0.25")
	assert.Contains(t, stdout, "ok")

	_, stderr := run(t, cli.NewThresholdCmd(), "get")
	assert.Contains(t, stderr, "not found")

	_, stderr = run(t, cli.NewThresholdCmd(), "set", "abc")
	assert.True(t, strings.Contains(stderr, "invalid syntax"))

	assert.Equal(t, []string{
		"GET /get_metrics/latest",
		"POST /update_threshold",
		"GET /get_threshold",
	}, paths)
}
