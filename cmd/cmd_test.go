package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blang/semver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/tokenmgmt/api"
	"github.com/s0up4200/tokenmgmt/models"
)

func TestParseID(t *testing.T) {
	id, err := parseID("token id", " 42 ")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "0", "-3", "abc", "1.5"} {
		_, err := parseID("token id", raw)
		assert.Error(t, err, raw)
	}

	ids, err := parseIDs("location id", []string{"1", "2"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2}, ids)

	_, err = parseIDs("location id", []string{"1", "x"})
	assert.EqualError(t, err, "invalid location id 'x': must be a positive integer")
}

func TestParseFields(t *testing.T) {
	rec, err := parseFields([]string{
		"customer_name=Ada Lovelace",
		"mlocation_id=3",
		"vip=true",
		"note=",
		"token_number=A005",
		`tags=["a","b"]`,
		`quoted="7"`,
		"expr=a=b",
		"mixed=12abc",
	})
	require.NoError(t, err)

	assert.Equal(t, models.Record{
		"customer_name": "Ada Lovelace",
		"mlocation_id":  json.Number("3"),
		"vip":           true,
		"note":          "",
		"token_number":  "A005",
		"tags":          []any{"a", "b"},
		"quoted":        "7",
		"expr":          "a=b",
		"mixed":         "12abc",
	}, rec)

	_, err = parseFields([]string{"novalue"})
	assert.Error(t, err)
	_, err = parseFields([]string{"=x"})
	assert.Error(t, err)
}

func TestColumnsOf(t *testing.T) {
	cols := columnsOf(
		models.Record{"zeta": 1, "status": 0, "id": 1},
		models.Record{"alpha": 2, "token_number": "A001"},
	)
	assert.Equal(t, []string{"id", "token_number", "status", "alpha", "zeta"}, cols)
}

func TestCell(t *testing.T) {
	assert.Equal(t, "", cell(nil))
	assert.Equal(t, "A005", cell("A005"))
	assert.Equal(t, "5", cell(json.Number("5")))
	assert.Equal(t, "true", cell(true))
	assert.Equal(t, `{"prefix":"A"}`, cell(map[string]any{"prefix": "A"}))
	assert.Equal(t, `[1,2]`, cell([]any{1, 2}))
}

func TestPrinter(t *testing.T) {
	payload := models.NewPayload([]any{
		map[string]any{"id": json.Number("1"), "token_number": "A001", "status": json.Number("0")},
		map[string]any{"id": json.Number("2"), "token_number": "A002", "status": json.Number("1")},
	})

	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		p := &printer{w: &out, format: "table"}
		require.NoError(t, p.Payload(payload))

		s := out.String()
		assert.Contains(t, s, "TOKEN_NUMBER")
		assert.Contains(t, s, "A001")
		assert.Contains(t, s, "A002")
		assert.Contains(t, s, "2 records")
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		p := &printer{w: &out, format: "json"}
		require.NoError(t, p.Payload(payload))
		p.Success("not printed")

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.Len(t, decoded, 2)
		assert.NotContains(t, out.String(), "not printed")
	})

	t.Run("single record", func(t *testing.T) {
		var out bytes.Buffer
		p := &printer{w: &out, format: "table"}
		require.NoError(t, p.Payload(models.NewPayload(map[string]any{"name": "Main branch"})))
		assert.Contains(t, out.String(), "FIELD")
		assert.Contains(t, out.String(), "Main branch")
	})

	t.Run("scalars and empty", func(t *testing.T) {
		var out bytes.Buffer
		p := &printer{w: &out, format: "table"}
		require.NoError(t, p.Payload(models.NewPayload("ok")))
		require.NoError(t, p.Payload(models.NewPayload(nil)))
		require.NoError(t, p.Records(nil))
		assert.Contains(t, out.String(), "ok")
		assert.Contains(t, out.String(), "(empty)")
		assert.Contains(t, out.String(), "No records found.")
	})

	t.Run("empty records as json", func(t *testing.T) {
		var out bytes.Buffer
		p := &printer{w: &out, format: "json"}
		require.NoError(t, p.Records(nil))
		assert.Equal(t, "[]\n", out.String())
	})
}

func TestIsNewer(t *testing.T) {
	current := semver.MustParse("1.2.0")

	newer, err := isNewer(current, "v1.3.0")
	require.NoError(t, err)
	assert.True(t, newer)

	newer, err = isNewer(current, "1.2.0")
	require.NoError(t, err)
	assert.False(t, newer)

	_, err = isNewer(current, "latest")
	assert.Error(t, err)
}

func TestTokenNumbers(t *testing.T) {
	assert.Equal(t, []string{"A001", "#9"}, tokenNumbers(models.NewPayload([]any{
		map[string]any{"token_number": "A001"},
		map[string]any{"id": json.Number("9")},
	})))
	assert.Equal(t, []string{"B004"}, tokenNumbers(models.NewPayload(map[string]any{"token_number": "B004"})))
	assert.Empty(t, tokenNumbers(models.NewPayload(nil)))
}

func TestMetricsRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	w, err := newWatcher(reg, []int64{1}, 1, io.Discard)
	require.NoError(t, err)
	w.polls.WithLabelValues("success").Inc()

	srv := httptest.NewServer(newMetricsRouter(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(body), `tokenmgmt_watch_polls_total{result="success"} 1`)

	_, err = newWatcher(reg, []int64{1}, 1, io.Discard)
	assert.Error(t, err, "registering twice must fail")
}

// runCLI executes the root command with args. Every call passes its own
// --base-url and --output since flag values persist between executions.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append(args, "--log-level", "error"))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func apiServer(t *testing.T, handler http.HandlerFunc) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv.URL
}

func writeEnvelope(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestCLITokensListWithFilter(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/secured/tokens", r.URL.Path)
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, `{"status":true,"data":[
			{"id":1,"token_number":"A001","status":0},
			{"id":2,"token_number":"A002","status":2},
			{"id":3,"token_number":"A003","status":0}
		]}`)
	})

	out, err := runCLI(t, "tokens", "list", "--base-url", url, "--token", "abc", "-o", "json", "--filter", "status == 0")
	require.NoError(t, err)

	var recs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "A001", recs[0]["token_number"])
	assert.Equal(t, "A003", recs[1]["token_number"])
}

func TestCLICallNext(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/secured/tokens/call-next", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"mlocation_id": float64(1), "mservicepoint_id": float64(2)}, body)

		writeEnvelope(w, http.StatusOK, `{"status":true,"data":{"id":5,"token_number":"A005","status":1}}`)
	})

	out, err := runCLI(t, "tokens", "call-next", "--base-url", url, "-o", "table", "--location", "1", "--service-point", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Called token A005")
	assert.Contains(t, out, "A005")
}

func TestCLILocationCreate(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/secured/locations/save", r.URL.Path)

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"name": "Main", "active": true}, body)

		writeEnvelope(w, http.StatusOK, `{"status":true,"data":{"id":3,"name":"Main","active":true}}`)
	})

	out, err := runCLI(t, "locations", "create", "--base-url", url, "-o", "json", "--set", "name=Main", "--set", "active=true")
	require.NoError(t, err)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, float64(3), rec["id"])
}

func TestCLIHealth(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health", r.URL.Path)
		writeEnvelope(w, http.StatusOK, `{"status":true,"data":{"status":"ok"}}`)
	})

	out, err := runCLI(t, "health", "--base-url", url, "-o", "table")
	require.NoError(t, err)
	assert.Contains(t, out, "is healthy")
	assert.Contains(t, out, "ok")
}

func TestCLIAPIError(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusNotFound, `{"status":false,"errors":["Token not found"]}`)
	})

	_, err := runCLI(t, "tokens", "get", "7", "--base-url", url, "-o", "table")
	require.Error(t, err)

	var apiErr *api.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
	assert.Contains(t, err.Error(), "Token not found")
}

func TestCLIRejectsBadOutput(t *testing.T) {
	_, err := runCLI(t, "clients", "list", "--base-url", "http://localhost:1", "-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}

func TestCLIWatchOnce(t *testing.T) {
	url := apiServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/secured/tokens/currently-serving", r.URL.Path)
		switch r.URL.Query().Get("mlocation_id") {
		case "1":
			writeEnvelope(w, http.StatusOK, `{"status":true,"data":[{"token_number":"A001"},{"token_number":"B002"}]}`)
		default:
			writeEnvelope(w, http.StatusOK, `{"status":true,"data":[]}`)
		}
	})

	out, err := runCLI(t, "watch", "1", "2", "--once", "--base-url", url, "-o", "table")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "location 1: now serving A001, B002")
	assert.Contains(t, lines[1], "location 2: now serving")

	assert.Equal(t, 2.0, servingGauge(t, "1"))
	assert.Equal(t, 0.0, servingGauge(t, "2"))
}

// servingGauge reads the serving gauge of the last watch run
func servingGauge(t *testing.T, location string) float64 {
	t.Helper()
	families, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != "tokenmgmt_watch_serving_tokens" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "location" && l.GetValue() == location {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	t.Fatalf("gauge for location %s not found", location)
	return 0
}
