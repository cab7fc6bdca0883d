package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/absmach/fedfraud/pkg/dataset"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		data dataset.Dataset
		err  error
	}{
		{
			name: "valid",
			data: dataset.Dataset{X: [][][]float64{{{1, 2}}, {{3, 4}}}, Y: []int{0, 1}},
		},
		{
			name: "empty",
			err:  dataset.ErrEmpty,
		},
		{
			name: "label count mismatch",
			data: dataset.Dataset{X: [][][]float64{{{1}}}, Y: []int{0, 1}},
			err:  dataset.ErrMalformed,
		},
		{
			name: "ragged steps",
			data: dataset.Dataset{X: [][][]float64{{{1}, {2}}, {{3}}}, Y: []int{0, 1}},
			err:  dataset.ErrMalformed,
		},
		{
			name: "ragged features",
			data: dataset.Dataset{X: [][][]float64{{{1, 2}}, {{3}}}, Y: []int{0, 1}},
			err:  dataset.ErrMalformed,
		},
		{
			name: "non-binary label",
			data: dataset.Dataset{X: [][][]float64{{{1}}}, Y: []int{2}},
			err:  dataset.ErrMalformed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.data.Validate()
			if tc.err == nil {
				assert.NoError(t, err)

				return
			}
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestSynthetic(t *testing.T) {
	t.Parallel()

	a := dataset.Synthetic(500, 6, 4, 0.2, 9)
	b := dataset.Synthetic(500, 6, 4, 0.2, 9)

	require.NoError(t, a.Validate())
	assert.Equal(t, a, b)
	assert.Equal(t, 500, a.Len())

	steps, features := a.Shape()
	assert.Equal(t, 6, steps)
	assert.Equal(t, 4, features)
	assert.Greater(t, a.Positives(), 50)
	assert.Less(t, a.Positives(), 150)
}

func TestNPZRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sequences.npz")
	want := dataset.Synthetic(40, 3, 5, 0.3, 1)

	require.NoError(t, dataset.SaveNPZ(path, want))
	got, err := dataset.LoadNPZ(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadNPZForeignLayout(t *testing.T) {
	t.Parallel()

	// float32 X and int8 y under the names numpy.savez uses.
	x := npy("<f4", "(2, 1, 2)", []byte{
		0, 0, 128, 63, 0, 0, 0, 64,
		0, 0, 64, 64, 0, 0, 128, 64,
	})
	y := npy("|i1", "(2,)", []byte{0, 1})

	path := filepath.Join(t.TempDir(), "foreign.npz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range map[string][]byte{"X.npy": x, "y.npy": y} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(body)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	got, err := dataset.LoadNPZ(path)
	require.NoError(t, err)
	assert.Equal(t, [][][]float64{{{1, 2}}, {{3, 4}}}, got.X)
	assert.Equal(t, []int{0, 1}, got.Y)
}

func TestLoadNPZErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := dataset.LoadNPZ(filepath.Join(dir, "missing.npz"))
	assert.Error(t, err)

	path := filepath.Join(dir, "only_x.npz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("X.npy")
	require.NoError(t, err)
	_, err = w.Write(npy("<f8", "(0, 1, 1)", nil))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = dataset.LoadNPZ(path)
	assert.ErrorIs(t, err, dataset.ErrMalformed)
}

func npy(descr, shape string, data []byte) []byte {
	header := "{'descr': '" + descr + "', 'fortran_order': False, 'shape': " + shape + ", }\n"
	out := []byte("\x93NUMPY\x01\x00")
	out = append(out, byte(len(header)), byte(len(header)>>8))
	out = append(out, header...)

	return append(out, data...)
}
