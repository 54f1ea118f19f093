package net

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPClient(t *testing.T) {
	client, err := GetHTTPClient()
	require.NoError(t, err)
	assert.NotNil(t, client)
	assert.NotNil(t, client.Jar)
}

func TestGetOAuthClient_SetsBearer(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	client := GetOAuthClient(context.Background(), "test-token")
	resp, err := client.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer test-token", got)
}

func TestPrintHTTPResponse_Nil(t *testing.T) {
	// should not panic
	PrintHTTPResponse(nil)
}

func TestPrintHTTPResponse_WithResponse(t *testing.T) {
	resp := &http.Response{
		StatusCode: 200,
		Header:     http.Header{},
		Body:       http.NoBody,
	}
	// should not panic
	PrintHTTPResponse(resp)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/forest.json":
			fmt.Fprint(w, `{"name":"forest"}`)
		case "/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	path := filepath.Join(dir, "forest.json")

	require.NoError(t, Download(context.Background(), nil, srv.URL+"/forest.json", path))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"forest"}`, string(b))

	err = Download(context.Background(), srv.Client(), srv.URL+"/missing", filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, ErrorURLNotFound)

	err = Download(context.Background(), srv.Client(), srv.URL+"/broken", path)
	assert.Error(t, err)

	// failed download keeps the previous file
	b, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"name":"forest"}`, string(b))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
