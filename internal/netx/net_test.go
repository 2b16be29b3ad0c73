package netx

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadPresigned(t *testing.T) {
	photo := []byte("\xff\xd8\xff fake jpeg")

	t.Run("200 OK", func(t *testing.T) {
		var gotMethod, gotCT string
		var gotBody []byte
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotCT = r.Header.Get("Content-Type")
			gotBody, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		err := UploadPresigned(context.Background(), ts.Client(), ts.URL+"/issues/2026/03/01/k?X-Amz-Signature=abc", "image/jpeg", bytes.NewReader(photo))
		require.NoError(t, err)
		assert.Equal(t, http.MethodPut, gotMethod)
		assert.Equal(t, "image/jpeg", gotCT)
		assert.Equal(t, photo, gotBody)
	})

	t.Run("default content type", func(t *testing.T) {
		var gotCT string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotCT = r.Header.Get("Content-Type")
		}))
		defer ts.Close()

		require.NoError(t, UploadPresigned(context.Background(), nil, ts.URL, "", bytes.NewReader(photo)))
		assert.Equal(t, "application/octet-stream", gotCT)
	})

	t.Run("non-200", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("SignatureDoesNotMatch"))
		}))
		defer ts.Close()

		err := UploadPresigned(context.Background(), nil, ts.URL, "", bytes.NewReader(photo))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upload failed: 403")
		assert.Contains(t, err.Error(), "SignatureDoesNotMatch")
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		err := UploadPresigned(context.Background(), nil, ts.URL, "", bytes.NewReader(photo))
		require.Error(t, err)
		assert.NotContains(t, err.Error(), "upload failed")
	})
}
