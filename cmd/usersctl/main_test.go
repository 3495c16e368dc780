package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/incident-admin/pkg/config"
)

func setBrowseFlags(t *testing.T, apiURL, query string) {
	t.Helper()
	cfg = &config.Config{Port: 8080, APIPrefix: "/api/v1", Table: config.TableConfig{DefaultPageSize: 10, MaxPageSize: 100}}
	logr = zap.NewNop()
	browseAPIURL, browseEmail, browsePassword, browseQuery = apiURL, "admin@example.com", "password123", query
	t.Cleanup(func() {
		browseAPIURL, browseEmail, browsePassword, browseQuery = "", "", "", ""
	})
}

func TestCommandTree(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["migrate"])
	assert.True(t, names["seed"])
	assert.True(t, names["browse"])

	down, _, err := rootCmd.Find([]string{"migrate", "down"})
	require.NoError(t, err)
	steps := down.Flags().Lookup("steps")
	require.NotNil(t, steps)
	assert.Equal(t, "1", steps.DefValue)
}

func TestBrowseRejectsMalformedQuery(t *testing.T) {
	setBrowseFlags(t, "http://127.0.0.1:1/api/v1", "q=%zz")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	err := runBrowse(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --query")
}

func TestBrowseReportsLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/auth/login" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid password"}`))
	}))
	defer srv.Close()
	setBrowseFlags(t, srv.URL+"/api/v1", "")

	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	err := runBrowse(cmd, nil)
	require.Error(t, err)
	assert.Equal(t, "Invalid password", err.Error())
}
