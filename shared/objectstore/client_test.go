package objectstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	client, err := NewClient(&Config{
		Endpoint:  strings.TrimPrefix(srv.URL, "http://"),
		AccessKey: "test",
		SecretKey: "test",
		UseSSL:    false,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	return client
}

func errorResponse(code string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>%s</Code><Message>conflict</Message><BucketName>my-bucket</BucketName><Resource>/my-bucket</Resource><RequestId>req</RequestId><HostId>host</HostId></Error>`, code)
}

func TestClient_EnsureBucket_ConcurrentCreatorWins(t *testing.T) {
	// The store reports the bucket as absent, then rejects the create
	// because someone else got there first. That is not an error.
	tests := []struct {
		name string
		code string
	}{
		{name: "already owned by you", code: "BucketAlreadyOwnedByYou"},
		{name: "already exists", code: "BucketAlreadyExists"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var createCalls int
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.Method {
				case http.MethodHead:
					w.WriteHeader(http.StatusNotFound)
				case http.MethodPut:
					createCalls++
					w.Header().Set("Content-Type", "application/xml")
					w.WriteHeader(http.StatusConflict)
					fmt.Fprint(w, errorResponse(tt.code))
				default:
					w.WriteHeader(http.StatusBadRequest)
				}
			}))
			defer srv.Close()

			client := newTestClient(t, srv)

			err := client.EnsureBucket(context.Background(), "my-bucket")
			require.NoError(t, err)
			assert.Equal(t, 1, createCalls)
		})
	}
}

func TestClient_EnsureBucket_AlreadyPresent(t *testing.T) {
	var createCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusOK)
		case http.MethodPut:
			createCalls++
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv)

	err := client.EnsureBucket(context.Background(), "my-bucket")
	require.NoError(t, err)

	// An existing bucket short-circuits; no create call is issued.
	assert.Equal(t, 0, createCalls)
}

func TestClient_EnsureBucket_CreateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, errorResponse("AccessDenied"))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv)

	err := client.EnsureBucket(context.Background(), "my-bucket")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "my-bucket")
}
