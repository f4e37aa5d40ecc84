// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/trl-engine/pkg/types"
)

func TestLoadConfig(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
log_level: debug
store:
  driver: mongo
  uri: mongodb://localhost:27017
scorer:
  transport: http
  endpoint: http://scorer:8080/score
  timeout: 5s
features:
  window_years: 3
server:
  cors_origins: ["http://localhost:5173"]
`)))

	c, err := loadConfig(v)
	require.NoError(t, err)

	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, types.DriverMongo, c.Store.Driver)
	assert.Equal(t, "mongodb://localhost:27017", c.Store.URI)
	assert.Equal(t, "trl", c.Store.Database)
	assert.Equal(t, types.TransportHTTP, c.Scorer.Transport)
	assert.Equal(t, 5*time.Second, c.Scorer.Timeout)
	assert.Equal(t, 3.0, c.Features.WindowYears)
	assert.Equal(t, 50.0, c.Features.KeywordNormalizer)
	assert.Equal(t, ":5001", c.Server.Addr)
	assert.Equal(t, []string{"http://localhost:5173"}, c.Server.CORSOrigins)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("TRL_ENGINE_STORE_PATH", "/tmp/env.db")
	t.Setenv("TRL_ENGINE_SCORER_TIMEOUT", "12s")

	v := viper.New()
	bindEnv(v)

	c, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env.db", c.Store.Path)
	assert.Equal(t, 12*time.Second, c.Scorer.Timeout)
	assert.Equal(t, types.DriverSQLite, c.Store.Driver)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	l, err := newLogger("warn", &buf)
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "k=v")

	_, err = newLogger("loud", io.Discard)
	assert.Error(t, err)
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, nil)
	assert.Equal(t, "No assessments recorded.\n", buf.String())

	buf.Reset()
	printHistory(&buf, []types.AssessmentRecord{{
		ID:         "a",
		Assessment: types.Assessment{Technology: strings.Repeat("x", 40), TRLScore: 7.25, Status: types.StatusDeployed, Confidence: 0.9},
		CreatedAt:  time.Now(),
	}})
	out := buf.String()
	assert.Contains(t, out, strings.Repeat("x", 27)+"...")
	assert.Contains(t, out, "7.25")
	assert.Contains(t, out, "Deployed")
	assert.Contains(t, out, "1 records")

	buf.Reset()
	printHistory(&buf, []types.AssessmentRecord{{
		ID:         "b",
		Assessment: types.Assessment{Technology: strings.Repeat("é", 40), TRLScore: 3, Status: types.StatusResearch},
		CreatedAt:  time.Now(),
	}})
	out = buf.String()
	assert.True(t, utf8.ValidString(out))
	assert.Contains(t, out, strings.Repeat("é", 27)+"...")
	assert.NotContains(t, out, strings.Repeat("é", 28))
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeJSON(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestCommandsEndToEnd(t *testing.T) {
	dir := t.TempDir()
	year := time.Now().Year()

	seeds := filepath.Join(dir, "seeds")
	require.NoError(t, os.Mkdir(seeds, 0o755))
	writeJSON(t, filepath.Join(seeds, "patents.json"), []types.Patent{
		{ID: "P1", Title: "Solid state battery cell", Abstract: "A prototype cell.", Year: year - 1},
		{ID: "P2", Title: "Solid state battery anode", Year: year - 4},
	})
	writeJSON(t, filepath.Join(seeds, "market_reports.json"), []types.MarketReport{
		{ID: "M1", Title: "Solid state battery market", Year: year - 1, FundingAmount: 2e6, Stage: types.StageProduction},
	})

	reply := `{"trl_score": 7.4, "confidence": 0.8, "reasoning": {"patent_trend": "steady",` +
		` "research_density": "low", "industry_adoption": "fielded", "funding_support": "strong"}}`
	configPath := filepath.Join(dir, "trl-engine.json")
	writeJSON(t, configPath, map[string]any{
		"log_level": "error",
		"store":     map[string]any{"path": filepath.Join(dir, "trl.db")},
		"scorer": map[string]any{
			"command": "sh",
			"args":    []string{"-c", "cat >/dev/null; echo '" + reply + "'"},
		},
	})

	out, err := execute(t, "--config", configPath, "ingest", seeds)
	require.NoError(t, err)
	assert.Contains(t, out, "loaded  patents.json (2 records)")
	assert.Contains(t, out, "skipped publications")

	out, err = execute(t, "--config", configPath, "assess", "--json", "solid", "state", "battery")
	require.NoError(t, err)
	var a types.Assessment
	require.NoError(t, json.Unmarshal([]byte(out), &a))
	assert.Equal(t, "solid state battery", a.Technology)
	assert.Equal(t, 7.4, a.TRLScore)
	assert.Equal(t, types.StatusDeployed, a.Status)
	assert.Equal(t, 2, a.Features.PatentCount5y)
	assert.Equal(t, 1, a.Features.DeploymentIndicator)

	out, err = execute(t, "--config", configPath, "history", "--export", "json", "Solid", "State", "Battery")
	require.NoError(t, err)
	var records []types.AssessmentRecord
	require.NoError(t, json.Unmarshal([]byte(out), &records))
	require.Len(t, records, 1)
	assert.Equal(t, 7.4, records[0].TRLScore)
	assert.NotEmpty(t, records[0].ID)

	out, err = execute(t, "--config", configPath, "version")
	require.NoError(t, err)
	assert.Equal(t, "trl-engine dev\n", out)
}
