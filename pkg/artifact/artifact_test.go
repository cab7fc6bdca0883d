package artifact_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/absmach/fedfraud/pkg/artifact"
	"github.com/absmach/fedfraud/pkg/errors"
	"github.com/absmach/fedfraud/pkg/fl"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bestModel(round int, prauc float64) fl.BestModel {
	return fl.BestModel{
		Round: round,
		Parameters: fl.Parameters{
			{Shape: []int{2, 2}, Data: []float64{0.1, -0.2, 0.3, 0.4}},
			{Shape: []int{1}, Data: []float64{float64(round)}},
		},
		PRAUC:     prauc,
		Threshold: 0.206122,
		SavedAt:   time.Date(2026, 3, 14, 15, 9, 26, 535000000, time.UTC),
	}
}

func assertModel(t *testing.T, want, got fl.BestModel) {
	t.Helper()

	assert.Equal(t, want.Round, got.Round)
	assert.Equal(t, want.Parameters, got.Parameters)
	assert.Equal(t, want.PRAUC, got.PRAUC)
	assert.Equal(t, want.Threshold, got.Threshold)
	assert.True(t, want.SavedAt.Equal(got.SavedAt), "saved_at %s != %s", want.SavedAt, got.SavedAt)
}

func TestCodec(t *testing.T) {
	t.Parallel()

	want := bestModel(3, 0.91)
	data, err := artifact.Encode(want)
	require.NoError(t, err)

	got, err := artifact.Decode(data)
	require.NoError(t, err)
	assertModel(t, want, got)

	_, err = artifact.Decode([]byte("not snappy"))
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store := artifact.NewFileStore(dir)
	ctx := context.Background()

	_, err := store.Load(ctx, "best")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	first := bestModel(1, 0.5)
	require.NoError(t, store.Save(ctx, "best", first))
	got, err := store.Load(ctx, "best")
	require.NoError(t, err)
	assertModel(t, first, got)

	second := bestModel(4, 0.7)
	require.NoError(t, store.Save(ctx, "best", second))
	got, err = store.Load(ctx, "best")
	require.NoError(t, err)
	assertModel(t, second, got)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "best"+artifact.Extension, entries[0].Name())
}

func TestFileStoreInvalidNames(t *testing.T) {
	t.Parallel()

	store := artifact.NewFileStore(t.TempDir())
	ctx := context.Background()

	assert.ErrorIs(t, store.Save(ctx, "", bestModel(1, 0.1)), errors.ErrEmptyKey)
	assert.Error(t, store.Save(ctx, "../escape", bestModel(1, 0.1)))
	_, err := store.Load(ctx, "a/b")
	assert.Error(t, err)
}

func TestFileStoreConcurrentReaders(t *testing.T) {
	t.Parallel()

	store := artifact.NewFileStore(t.TempDir())
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "best", bestModel(0, 0.1)))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for r := 1; r <= 20; r++ {
			assert.NoError(t, store.Save(ctx, "best", bestModel(r, float64(r)/100)))
		}
	}()

	for range 50 {
		got, err := store.Load(ctx, "best")
		require.NoError(t, err)
		assert.Equal(t, float64(got.Round), got.Parameters[1].Data[0])
	}
	wg.Wait()
}

func TestReadFileCorrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "initial.cbor.sz")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0x00, 0x01}, 0o644))

	_, err := artifact.ReadFile(path)
	assert.ErrorIs(t, err, errors.ErrInvalidData)
}

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = data

	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestS3Store(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{objects: map[string][]byte{}}
	store := artifact.NewS3StoreWithClient(fake, "models", "fedfraud/")
	ctx := context.Background()

	_, err := store.Load(ctx, "best")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	want := bestModel(2, 0.8)
	require.NoError(t, store.Save(ctx, "best", want))
	assert.Contains(t, fake.objects, "models/fedfraud/best"+artifact.Extension)

	got, err := store.Load(ctx, "best")
	require.NoError(t, err)
	assertModel(t, want, got)

	assert.ErrorIs(t, store.Save(ctx, "", want), errors.ErrEmptyKey)
}
