package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ibeckermayer/xextract/internal/scraper"
)

func TestOutputDir(t *testing.T) {
	dir, err := outputDir("./out", "exports")
	require.NoError(t, err)
	assert.Equal(t, "./out", dir)

	dir, err = outputDir("", "exports")
	require.NoError(t, err)
	assert.Equal(t, "exports", filepath.Base(dir))
}

func TestMetricsMux(t *testing.T) {
	m := scraper.NewMetrics()
	m.IncAccepted()

	rec := httptest.NewRecorder()
	metricsMux(m).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "xextract_posts_accepted_total"))
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"extract", "serve", "send", "watch", "analyze", "export", "errors", "history", "open", "bot-test"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}
