package objstore

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		bucket:  "credit-notes",
		token:   "secret-token",
		http:    &http.Client{Timeout: 5 * time.Second},
		log:     zap.NewNop().Sugar(),
	}
}

func TestUpload(t *testing.T) {
	var gotPath, gotAuth, gotType, gotUpsert string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotUpsert = r.Header.Get("x-upsert")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	err := c.Upload(context.Background(), "credit-notes/2026/09/CN-0001.pdf", []byte("%PDF"), "application/pdf")
	require.NoError(t, err)

	require.Equal(t, "/storage/v1/object/credit-notes/credit-notes/2026/09/CN-0001.pdf", gotPath)
	require.Equal(t, "Bearer secret-token", gotAuth)
	require.Equal(t, "application/pdf", gotType)
	require.Equal(t, "true", gotUpsert)
	require.Equal(t, []byte("%PDF"), gotBody)
}

func TestUpload_ErrorStatusIncludesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Bucket not found"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	err := c.Upload(context.Background(), "a.pdf", []byte("x"), "application/pdf")
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 404")
	require.Contains(t, err.Error(), "Bucket not found")
}

func TestUpload_Unconfigured(t *testing.T) {
	c := testClient("")
	err := c.Upload(context.Background(), "a.pdf", []byte("x"), "application/pdf")
	require.Error(t, err)
}
