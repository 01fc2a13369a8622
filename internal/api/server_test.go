package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/curbside/internal/model"
	"github.com/sells-group/curbside/internal/sweep"
)

type fakeStore struct {
	mu      sync.Mutex
	saved   []model.ParkingRecord
	pingErr error
}

func (f *fakeStore) SaveLookup(ctx context.Context, rec *model.ParkingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec.ID = fmt.Sprintf("rec-%d", len(f.saved)+1)
	f.saved = append(f.saved, *rec)
	return nil
}

func (f *fakeStore) DueReminders(ctx context.Context, on time.Time) ([]model.ParkingRecord, error) {
	return nil, nil
}
func (f *fakeStore) MarkNotified(ctx context.Context, id string) error { return nil }
func (f *fakeStore) Migrate(ctx context.Context) error                 { return nil }
func (f *fakeStore) Ping(ctx context.Context) error                    { return f.pingErr }
func (f *fakeStore) Close() error                                      { return nil }

func line(coords ...float64) *geom.LineString {
	return geom.NewLineStringFlat(geom.XY, coords)
}

// fixtureSource publishes one west-east Valencia St segment with the given
// rules.
func fixtureSource(rules []model.SweepingRule) *sweep.Source {
	seg := model.Segment{
		ID:        "2468000",
		Corridor:  "Valencia St",
		FromCross: "20th St",
		ToCross:   "21st St",
		Active:    true,
		Line:      line(0, 0, 10, 0),
	}
	return sweep.NewSource(sweep.NewSnapshot([]model.Segment{seg}, rules))
}

func northRule() model.SweepingRule {
	return model.SweepingRule{
		SegmentID: "2468000",
		Side:      model.SideNorth,
		Weekday:   "Wed",
		Weeks:     model.NewWeekMask([5]bool{true, true, true, true, true}),
		FromHour:  8,
		ToHour:    10,
	}
}

// tuesdayClock pins "now" to Tuesday 2024-03-05, so a Wednesday rule
// resolves to the 6th.
func tuesdayClock() func() time.Time {
	return func() time.Time {
		return time.Date(2024, time.March, 5, 12, 0, 0, 0, time.UTC)
	}
}

func postNextSweep(t *testing.T, h http.Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/next_sweep", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), into))
}

func TestNextSweepFound(t *testing.T) {
	src := fixtureSource([]model.SweepingRule{northRule()})
	st := &fakeStore{}
	srv := NewServer(src, WithStore(st), WithClock(tuesdayClock()))
	h := srv.Router(nil)

	// Just north of the segment interior.
	rr := postNextSweep(t, h, map[string]any{
		"latitude":     0.001,
		"longitude":    5.0,
		"phone_number": "+14155550100",
	})
	require.Equal(t, http.StatusOK, rr.Code)

	var resp nextSweepResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "Valencia St", resp.Street)
	assert.Equal(t, "North", resp.Blockside)
	assert.Equal(t, "20th St - 21st St", resp.LocationLimits)
	assert.Equal(t, "Wednesday, March 6", resp.NextSweepDate)
	assert.Equal(t, [2]int{8, 10}, resp.NextSweepTime)
	assert.Equal(t, 1, resp.DaysUntilSweep)

	require.Len(t, st.saved, 1)
	rec := st.saved[0]
	assert.Equal(t, "+14155550100", rec.PhoneNumber)
	assert.Equal(t, "2468000", rec.SegmentID)
	assert.Equal(t, model.SideNorth, rec.Side)
	assert.True(t, rec.NextSweep.Equal(time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)))
}

func TestNextSweepSkipsPersistenceWithoutPhone(t *testing.T) {
	src := fixtureSource([]model.SweepingRule{northRule()})
	st := &fakeStore{}
	srv := NewServer(src, WithStore(st), WithClock(tuesdayClock()))

	rr := postNextSweep(t, srv.Router(nil), map[string]any{
		"latitude":  0.001,
		"longitude": 5.0,
	})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, st.saved)
}

func TestNextSweepNotFoundOutcomes(t *testing.T) {
	southRule := northRule()
	southRule.Side = model.SideSouth

	neverRule := northRule()
	neverRule.Weeks = model.WeekMask(0)

	tests := []struct {
		name   string
		rules  []model.SweepingRule
		detail string
	}{
		{"no rules at all", nil, DetailNoData},
		{"rules only on the far side", []model.SweepingRule{southRule}, DetailNoSchedule},
		{"empty week mask", []model.SweepingRule{neverRule}, DetailNoUpcoming},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(fixtureSource(tt.rules), WithClock(tuesdayClock()))
			rr := postNextSweep(t, srv.Router(nil), map[string]any{
				"latitude":  0.001,
				"longitude": 5.0,
			})
			require.Equal(t, http.StatusNotFound, rr.Code)

			var resp map[string]string
			decodeBody(t, rr, &resp)
			assert.Equal(t, tt.detail, resp["detail"])
		})
	}
}

func TestNextSweepBadRequests(t *testing.T) {
	srv := NewServer(fixtureSource(nil), WithClock(tuesdayClock()))
	h := srv.Router(nil)

	req := httptest.NewRequest(http.MethodPost, "/next_sweep", bytes.NewReader([]byte("{not json")))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postNextSweep(t, h, map[string]any{"latitude": 95.0, "longitude": 5.0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = postNextSweep(t, h, map[string]any{"latitude": 0.0, "longitude": 200.0})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestNextSweepEmptyDataset(t *testing.T) {
	src := sweep.NewSource(sweep.NewSnapshot(nil, nil))
	srv := NewServer(src, WithClock(tuesdayClock()))

	rr := postNextSweep(t, srv.Router(nil), map[string]any{
		"latitude":  0.001,
		"longitude": 5.0,
	})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestSegmentRules(t *testing.T) {
	srv := NewServer(fixtureSource([]model.SweepingRule{northRule()}))
	h := srv.Router(nil)

	req := httptest.NewRequest(http.MethodGet, "/segments/2468000/rules", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp segmentRulesResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "2468000", resp.SegmentID)
	assert.Equal(t, "Valencia St", resp.Street)
	require.Len(t, resp.Rules, 1)
	assert.Equal(t, model.SideNorth, resp.Rules[0].Side)
	assert.Equal(t, "Wed", resp.Rules[0].Weekday)
	assert.Equal(t, "1,2,3,4,5", resp.Rules[0].Weeks)

	req = httptest.NewRequest(http.MethodGet, "/segments/9999/rules", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestStats(t *testing.T) {
	srv := NewServer(fixtureSource([]model.SweepingRule{northRule()}))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rr := httptest.NewRecorder()
	srv.Router(nil).ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	decodeBody(t, rr, &resp)
	assert.EqualValues(t, 1, resp["segments"])
	assert.EqualValues(t, 1, resp["rules"])
	assert.NotEmpty(t, resp["loaded_at"])
}

func TestHealth(t *testing.T) {
	srv := NewServer(fixtureSource(nil), WithStore(&fakeStore{}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	srv.Router(nil).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
}
