package daemon

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charlie0129/appraise/pkg/config"
	"github.com/charlie0129/appraise/pkg/events"
	"github.com/charlie0129/appraise/pkg/types"
	"github.com/charlie0129/appraise/pkg/utils/ptr"
)

func newTestServer(t *testing.T, raw *config.RawFileConfig) *Server {
	t.Helper()
	conf := config.NewFileFromConfig(raw, filepath.Join(t.TempDir(), "appraise.json"))
	s := NewServer(conf)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestCalibrateHandler(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/calibrate", `{"baseAmount": 112500, "region": "RegionA", "propertyMetadata": {"id": "PROP-001"}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	assert.JSONEq(t, `{
		"baseValue": 112500,
		"regionalValue": 151875,
		"calibratedValue": 161260.875,
		"regionalMultiplier": 1.35,
		"universalFactor": 1.0618,
		"propertyMetadata": {"id": "PROP-001"}
	}`, w.Body.String())

	stats := s.stats.Snapshot()
	assert.EqualValues(t, 1, stats.Calibrations)
	assert.EqualValues(t, 1, stats.ByRegion["RegionA"])
}

func TestCalibrateHandlerRejects(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantKind string
	}{
		{name: "unsupported region", body: `{"baseAmount": 1, "region": "Unsupported"}`, wantKind: types.ErrKindInvalidRegion},
		{name: "missing region", body: `{"baseAmount": 1}`, wantKind: types.ErrKindInvalidRegion},
		{name: "zero amount", body: `{"baseAmount": 0, "region": "RegionA"}`, wantKind: types.ErrKindInvalidAmount},
		{name: "negative amount", body: `{"baseAmount": -10, "region": "RegionB"}`, wantKind: types.ErrKindInvalidAmount},
		{name: "non-numeric amount", body: `{"baseAmount": "ten", "region": "RegionA"}`, wantKind: types.ErrKindInvalidAmount},
		{name: "malformed body", body: `{"baseAmount":`, wantKind: types.ErrKindBadRequest},
		{name: "huge exponent", body: `{"baseAmount": 1e400, "region": "RegionA"}`, wantKind: types.ErrKindInvalidAmount},
		{name: "tiny exponent", body: `{"baseAmount": 1e-400, "region": "RegionA"}`, wantKind: types.ErrKindInvalidAmount},
		{name: "quoted huge exponent", body: `{"baseAmount": "1e50000000", "region": "RegionA"}`, wantKind: types.ErrKindInvalidAmount},
		{name: "10k digit literal", body: `{"baseAmount": ` + strings.Repeat("9", 10000) + `, "region": "RegionA"}`, wantKind: types.ErrKindInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, nil)

			w := do(t, s, http.MethodPost, "/calibrate", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp types.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantKind, resp.Error)
			assert.NotContains(t, w.Body.String(), "calibratedValue")
			assert.Less(t, w.Body.Len(), 1024)
			if tt.wantKind == types.ErrKindInvalidRegion {
				assert.Equal(t, []string{"RegionA", "RegionB"}, resp.SupportedRegions)
			}
			assert.EqualValues(t, 1, s.stats.Snapshot().Rejected[tt.wantKind])
		})
	}
}

func TestYieldHandler(t *testing.T) {
	s := newTestServer(t, nil)

	body := `{"calibratedValue": 161260.875, "region": "RegionA", "annualRate": 0.055, "periodMonths": 12}`
	first := do(t, s, http.MethodPost, "/yield", body)
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.JSONEq(t, `{
		"periodYield": 8869.348125,
		"calibratedYield": 8736.307903125,
		"finalYield": 9784.6648515,
		"yieldBoost": 1.12
	}`, first.Body.String())

	second := do(t, s, http.MethodPost, "/yield", body)
	require.Equal(t, http.StatusOK, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestYieldHandlerBounds(t *testing.T) {
	tests := []struct {
		months   int
		rate     string
		wantCode int
	}{
		{months: 1, rate: "0.05", wantCode: http.StatusOK},
		{months: 120, rate: "0.05", wantCode: http.StatusOK},
		{months: 0, rate: "0.05", wantCode: http.StatusBadRequest},
		{months: 121, rate: "0.05", wantCode: http.StatusBadRequest},
		{months: 12, rate: "1.5", wantCode: http.StatusBadRequest},
		{months: 12, rate: "-0.1", wantCode: http.StatusBadRequest},
	}
	s := newTestServer(t, nil)
	for _, tt := range tests {
		body := `{"calibratedValue": 1000, "region": "RegionB", "annualRate": ` + tt.rate + `, "periodMonths": ` + strconv.Itoa(tt.months) + `}`
		w := do(t, s, http.MethodPost, "/yield", body)
		assert.Equal(t, tt.wantCode, w.Code, "months=%d rate=%s body=%s", tt.months, tt.rate, w.Body.String())
		if tt.wantCode == http.StatusBadRequest {
			var resp types.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, types.ErrKindInvalidRateOrPeriod, resp.Error)
		}
	}
}

func TestOversizedAmountsAreRejected(t *testing.T) {
	s := newTestServer(t, nil)

	for _, lit := range []string{"1e400", "1e-400", strings.Repeat("9", 10000)} {
		w := do(t, s, http.MethodPost, "/yield", `{"calibratedValue": `+lit+`, "region": "RegionA", "annualRate": 0.05, "periodMonths": 12}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Less(t, w.Body.Len(), 1024)

		w = do(t, s, http.MethodPost, "/yield", `{"calibratedValue": 1000, "region": "RegionA", "annualRate": `+lit+`, "periodMonths": 12}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Less(t, w.Body.Len(), 1024)

		w = do(t, s, http.MethodPost, "/zakat", `{"wealth": `+lit+`}`)
		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp types.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, types.ErrKindInvalidAmount, resp.Error)
	}

	stats := s.stats.Snapshot()
	assert.Zero(t, stats.YieldProjections)
	assert.Zero(t, stats.ZakatAssessments)
}


func TestZakatHandlerUsesNisab(t *testing.T) {
	s := newTestServer(t, &config.RawFileConfig{Nisab: ptr.To(decimal.RequireFromString("5000"))})

	w := do(t, s, http.MethodPost, "/zakat", `{"wealth": 100000, "currency": "aed"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"wealth": 100000, "currency": "AED", "rate": 0.025, "nisab": 5000, "zakatDue": 2500, "due": true}`, w.Body.String())

	w = do(t, s, http.MethodPost, "/zakat", `{"wealth": 4999}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"wealth": 4999, "currency": "USD", "rate": 0.025, "nisab": 5000, "zakatDue": 0, "due": false}`, w.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, &config.RawFileConfig{RateLimit: ptr.To(2)})

	body := `{"baseAmount": 1, "region": "RegionA"}`
	for i := 0; i < 2; i++ {
		w := do(t, s, http.MethodPost, "/calibrate", body)
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, s, http.MethodPost, "/calibrate", body)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// Read-only endpoints are not limited.
	w = do(t, s, http.MethodGet, "/constants", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodPut, "/rate-limit", `0`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, s, http.MethodPost, "/calibrate", body)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, s.conf.RateLimit())
}

func TestSetRateLimitRollsBackWhenSaveFails(t *testing.T) {
	s := NewServer(config.NewFileFromConfig(nil, filepath.Join(t.TempDir(), "missing", "appraise.json")))
	t.Cleanup(s.Close)

	w := do(t, s, http.MethodPut, "/rate-limit", `5`)
	require.Equal(t, http.StatusInternalServerError, w.Code, w.Body.String())
	assert.Equal(t, 120, s.conf.RateLimit())

	for i := 0; i < 10; i++ {
		w = do(t, s, http.MethodPost, "/calibrate", `{"baseAmount": 1, "region": "RegionA"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestSetRateLimitRejectsNegative(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPut, "/rate-limit", `-3`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodPut, "/rate-limit", `"many"`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 120, s.conf.RateLimit())
}

func TestReadOnlyEndpoints(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/constants", "")
	require.Equal(t, http.StatusOK, w.Code)
	var constants types.Constants
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &constants))
	assert.Equal(t, "1.0618", constants.UniversalFactor.String())
	require.Len(t, constants.Regions, 2)

	w = do(t, s, http.MethodGet, "/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	var raw config.RawFileConfig
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Equal(t, 120, *raw.RateLimit)

	w = do(t, s, http.MethodGet, "/version", "")
	require.Equal(t, http.StatusOK, w.Code)

	do(t, s, http.MethodPost, "/calibrate", `{"baseAmount": 5, "region": "RegionB"}`)
	w = do(t, s, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats types.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 1, stats.Calibrations)
	assert.Equal(t, 1, stats.RequestsLastMinute)
}

func TestRequestIDIsKept(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set(headerRequestID, "6f1c1f2e-2a7d-4a57-9f5e-2b1f6c1d9a10")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "6f1c1f2e-2a7d-4a57-9f5e-2b1f6c1d9a10", w.Header().Get(headerRequestID))

	req = httptest.NewRequest(http.MethodGet, "/version", nil)
	req.Header.Set(headerRequestID, "not-a-uuid")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.NotEqual(t, "not-a-uuid", w.Header().Get(headerRequestID))
}

func TestEventStream(t *testing.T) {
	s := newTestServer(t, nil)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return s.hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	r, err := ts.Client().Post(ts.URL+"/calibrate", "application/json", strings.NewReader(`{"baseAmount": 112500, "region": "RegionA"}`))
	require.NoError(t, err)
	r.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	var name, data string
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, "event:"); ok {
			name = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "data:"); ok {
			data = strings.TrimSpace(v)
			break
		}
	}
	require.Equal(t, events.ValuationCalibrated, name)

	payload, err := events.DecodeAs[events.ValuationEvent](events.Event{Name: name, Data: json.RawMessage(data)})
	require.NoError(t, err)
	assert.Equal(t, "161260.875", payload.Value)
	assert.Equal(t, "RegionA", payload.Region)

	// Closing the hub ends the stream so the server can shut down.
	s.hub.Close()
	for scanner.Scan() {
	}
}

func TestApplyConfigSchedulesExport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "stats.json")
	s := newTestServer(t, &config.RawFileConfig{
		StatsExportPath:     ptr.To(out),
		StatsExportSchedule: ptr.To("@every 1s"),
	})
	require.NoError(t, s.ApplyConfig())

	next, running := s.exporter.Status()
	assert.True(t, running)
	assert.False(t, next.IsZero())

	require.Eventually(t, func() bool {
		_, err := os.Stat(out)
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	var stats types.Stats
	require.NoError(t, json.Unmarshal(b, &stats))
}

func TestApplyConfigRejectsBadSchedule(t *testing.T) {
	s := newTestServer(t, &config.RawFileConfig{
		StatsExportPath:     ptr.To(filepath.Join(t.TempDir(), "stats.json")),
		StatsExportSchedule: ptr.To("every now and then"),
	})
	assert.Error(t, s.ApplyConfig())
}

func TestStatsTotals(t *testing.T) {
	s := newTestServer(t, nil)

	for i := 0; i < 2; i++ {
		w := do(t, s, http.MethodPost, "/calibrate", `{"baseAmount": 112500, "region": "RegionA"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(t, s, http.MethodPost, "/yield", `{"calibratedValue": 161260.875, "region": "RegionA", "annualRate": 0.055, "periodMonths": 12}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, http.MethodPost, "/zakat", `{"wealth": 100000}`)
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, http.MethodPost, "/zakat", `{"wealth": 20000}`)
	require.Equal(t, http.StatusOK, w.Code)
	// Rejected requests add nothing.
	w = do(t, s, http.MethodPost, "/calibrate", `{"baseAmount": 112500, "region": "Unsupported"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats types.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, "322521.75", stats.TotalCalibrated.String())
	assert.Equal(t, "9784.6648515", stats.TotalFinalYield.String())
	assert.Equal(t, "3000", stats.TotalZakatDue.String())
	assert.Contains(t, w.Body.String(), `"totalCalibrated": 322521.75`)

	w = do(t, s, http.MethodDelete, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	stats = s.stats.Snapshot()
	assert.Zero(t, stats.Calibrations)
	assert.Empty(t, stats.ByRegion)
	assert.Empty(t, stats.Rejected)
	assert.Zero(t, stats.RequestsLastMinute)
	assert.True(t, stats.TotalCalibrated.IsZero())
	assert.True(t, stats.TotalZakatDue.IsZero())
}

func TestStatsExportSkip(t *testing.T) {
	s := newTestServer(t, &config.RawFileConfig{
		StatsExportPath:     ptr.To(filepath.Join(t.TempDir(), "stats.json")),
		StatsExportSchedule: ptr.To("@every 1h"),
	})
	require.NoError(t, s.ApplyConfig())

	w := do(t, s, http.MethodGet, "/stats-export", "")
	require.Equal(t, http.StatusOK, w.Code)
	var before types.ExportStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &before))
	require.True(t, before.Enabled)
	require.NotNil(t, before.NextRun)
	assert.Equal(t, "@every 1h", before.Schedule)

	w = do(t, s, http.MethodPost, "/stats-export/skip", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var after types.ExportStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	require.NotNil(t, after.NextRun)
	assert.Equal(t, time.Hour, after.NextRun.Sub(*before.NextRun))
}

func TestStatsExportSkipWithoutSchedule(t *testing.T) {
	s := newTestServer(t, nil)
	require.NoError(t, s.ApplyConfig())

	w := do(t, s, http.MethodGet, "/stats-export", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st types.ExportStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.False(t, st.Enabled)
	assert.Nil(t, st.NextRun)

	w = do(t, s, http.MethodPost, "/stats-export/skip", "")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestListenUsesGivenAddress(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "appraise.sock")

	listeners, err := listen(sock, "127.0.0.1:0", true)
	require.NoError(t, err)
	require.Len(t, listeners, 2)
	for _, l := range listeners {
		defer l.Close()
	}
	assert.Equal(t, "tcp", listeners[1].Addr().Network())

	fi, err := os.Stat(sock)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0777), fi.Mode().Perm())
}

func TestListenUnixOnly(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "appraise.sock")

	listeners, err := listen(sock, "", false)
	require.NoError(t, err)
	require.Len(t, listeners, 1)
	defer listeners[0].Close()
	assert.Equal(t, "unix", listeners[0].Addr().Network())
}
