package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/absmach/fedfraud/pkg/api"
	pkgerrors "github.com/absmach/fedfraud/pkg/errors"
	apiutil "github.com/absmach/supermq/api/http/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"validation", errors.Join(apiutil.ErrValidation, errors.New("bad limit")), http.StatusBadRequest},
		{"content type", errors.Join(apiutil.ErrValidation, apiutil.ErrUnsupportedContentType), http.StatusUnsupportedMediaType},
		{"not found", fmt.Errorf("best model: %w", pkgerrors.ErrNotFound), http.StatusNotFound},
		{"invalid data", pkgerrors.ErrInvalidData, http.StatusBadRequest},
		{"unavailable", pkgerrors.ErrUnavailable, http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			api.EncodeError(context.Background(), tc.err, rec)

			assert.Equal(t, tc.code, rec.Code)
			assert.Equal(t, api.ContentType, rec.Header().Get("Content-Type"))

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.err.Error(), body["error"])
		})
	}
}
