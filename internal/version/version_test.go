package version

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AylerH/DB-GPT/internal/httpclient"
)

func releaseServer(t *testing.T, status int, body string) *Checker {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/serve/releases/latest", r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := NewChecker(srv.Client())
	c.baseURL = srv.URL
	return c
}

func TestCheck(t *testing.T) {
	tests := []struct {
		current   string
		tag       string
		available bool
	}{
		{"v1.2.0", "v1.3.0", true},
		{"v1.3.0", "v1.3.0", false},
		{"1.4.0", "v1.3.9", false},
		{"v1.3.0-rc1", "v1.3.0", true},
	}

	for _, tt := range tests {
		t.Run(tt.current+"->"+tt.tag, func(t *testing.T) {
			c := releaseServer(t, http.StatusOK, `{"tag_name":"`+tt.tag+`"}`)

			u, err := c.Check(context.Background(), "acme", "serve", tt.current)
			require.NoError(t, err)
			assert.Equal(t, tt.available, u.Available)
			assert.Equal(t, tt.tag, u.Latest)
		})
	}
}

func TestCheck_Failures(t *testing.T) {
	c := releaseServer(t, http.StatusNotFound, `{"message":"Not Found"}`)
	_, err := c.Check(context.Background(), "acme", "serve", "v1.0.0")
	var upstream *httpclient.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.StatusCode)

	c = releaseServer(t, http.StatusOK, `{"tag_name":"nightly"}`)
	_, err = c.Check(context.Background(), "acme", "serve", "v1.0.0")
	assert.ErrorContains(t, err, "parse release tag")
}
