package api

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"example.com/fitdash/internal/dataset"
	"example.com/fitdash/internal/domain"
	"example.com/fitdash/internal/notify"
)

func fixtureTables() *dataset.Tables {
	day := time.Date(2016, time.April, 12, 0, 0, 0, 0, time.UTC)
	sleep := 6.0
	return &dataset.Tables{
		SnapshotID: "snap-1",
		LoadedAt:   time.Date(2016, time.May, 1, 0, 0, 0, 0, time.UTC),
		DailyActivity: []dataset.DailyActivity{
			{UserID: 1503960366, ActivityDate: day},
		},
		Combined: []dataset.CombinedDay{
			{
				UserID:               1503960366,
				ActivityDate:         day,
				Steps:                13162,
				Distance:             8.5,
				CaloriesBurned:       1985,
				VeryActiveMinutes:    25,
				FairlyActiveMinutes:  13,
				LightlyActiveMinutes: 328,
				SedentaryMinutes:     728,
				SleepingHours:        &sleep,
			},
		},
		HourlySteps: []dataset.HourlySteps{
			{UserID: 1503960366, ActivityHour: day.Add(8 * time.Hour), StepTotal: 500},
		},
		HourlyIntensity: []dataset.HourlyIntensity{
			{UserID: 1503960366, ActivityHour: day.Add(8 * time.Hour), TotalIntensity: 5},
		},
		HourlyCalories: []dataset.HourlyCalories{
			{UserID: 1503960366, ActivityHour: day.Add(8 * time.Hour), Calories: 50},
		},
	}
}

type stubStore struct {
	tables      *dataset.Tables
	reloaded    *dataset.Tables
	reloadErr   error
	reloadCalls int
}

func (s *stubStore) Snapshot() *dataset.Tables { return s.tables }

func (s *stubStore) Reload(ctx context.Context) (*dataset.Tables, error) {
	s.reloadCalls++
	if s.reloadErr != nil {
		return nil, s.reloadErr
	}
	s.tables = s.reloaded
	return s.reloaded, nil
}

type stubPublisher struct {
	events []notify.DatasetReloaded
}

func (p *stubPublisher) PublishReload(_ context.Context, event notify.DatasetReloaded) error {
	p.events = append(p.events, event)
	return nil
}

func (p *stubPublisher) Close() error { return nil }

func newTestHandler(store *stubStore, publisher notify.Publisher) *Handler {
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	return NewHandler(domain.NewService(store), store, publisher)
}

func TestCohortSummary(t *testing.T) {
	handler := newTestHandler(&stubStore{tables: fixtureTables()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/cohort/summary", nil)
	rr := httptest.NewRecorder()
	handler.cohortSummary(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp CohortSummaryResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Days != 1 {
		t.Fatalf("expected 1 day got %d", resp.Days)
	}
	if resp.AverageSteps != 13162 {
		t.Fatalf("unexpected average steps %f", resp.AverageSteps)
	}
	if resp.AverageSleepingHours == nil || *resp.AverageSleepingHours != 6.0 {
		t.Fatalf("unexpected average sleeping hours %v", resp.AverageSleepingHours)
	}
}

func TestCohortSummaryEmptyDataset(t *testing.T) {
	handler := newTestHandler(&stubStore{tables: &dataset.Tables{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/cohort/summary", nil)
	rr := httptest.NewRecorder()
	handler.cohortSummary(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "no_data") {
		t.Fatalf("expected no_data error type, got %s", rr.Body.String())
	}
}

func TestCohortDistributionRejectsUnknownMetric(t *testing.T) {
	handler := newTestHandler(&stubStore{tables: fixtureTables()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/cohort/distribution?metric=heart_rate", nil)
	rr := httptest.NewRecorder()
	handler.cohortDistribution(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestUserDay(t *testing.T) {
	handler := newTestHandler(&stubStore{tables: fixtureTables()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/1503960366/day?date=2016-04-12", nil)
	rr := httptest.NewRecorder()
	handler.userByID(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp UserDayResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Day.Steps != 13162 {
		t.Fatalf("unexpected steps %d", resp.Day.Steps)
	}
	if resp.Minutes.Total != 1094 {
		t.Fatalf("unexpected minutes total %d", resp.Minutes.Total)
	}
	if len(resp.CombinedHourly) != 1 {
		t.Fatalf("expected one combined hourly row, got %d", len(resp.CombinedHourly))
	}
}

func TestUserDayRejectsBadDate(t *testing.T) {
	handler := newTestHandler(&stubStore{tables: fixtureTables()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/1503960366/day?date=12-04-2016", nil)
	rr := httptest.NewRecorder()
	handler.userByID(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}

func TestUserDayNotFound(t *testing.T) {
	handler := newTestHandler(&stubStore{tables: fixtureTables()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/42/day?date=2016-04-12", nil)
	rr := httptest.NewRecorder()
	handler.userByID(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rr.Code)
	}
}

func TestUserRange(t *testing.T) {
	handler := newTestHandler(&stubStore{tables: fixtureTables()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/1503960366/range", nil)
	rr := httptest.NewRecorder()
	handler.userByID(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}

	var resp RangeResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.MinDate != "2016-04-12" || resp.MaxDate != "2016-04-12" {
		t.Fatalf("unexpected range %s..%s", resp.MinDate, resp.MaxDate)
	}
}

func TestReloadPublishesEvent(t *testing.T) {
	reloaded := fixtureTables()
	reloaded.SnapshotID = "snap-2"
	store := &stubStore{tables: fixtureTables(), reloaded: reloaded}
	publisher := &stubPublisher{}
	handler := newTestHandler(store, publisher)

	req := httptest.NewRequest(http.MethodPost, "/v1/dataset/reload", nil)
	rr := httptest.NewRecorder()
	handler.reloadDataset(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rr.Code, rr.Body.String())
	}
	if store.reloadCalls != 1 {
		t.Fatalf("expected one reload call, got %d", store.reloadCalls)
	}
	if len(publisher.events) != 1 || publisher.events[0].SnapshotID != "snap-2" {
		t.Fatalf("expected published event for snap-2, got %+v", publisher.events)
	}

	var resp ReloadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SnapshotID != "snap-2" {
		t.Fatalf("unexpected snapshot id %s", resp.SnapshotID)
	}
}

func TestReloadFailureKeepsServing(t *testing.T) {
	store := &stubStore{tables: fixtureTables(), reloadErr: errors.New("disk gone")}
	publisher := &stubPublisher{}
	handler := newTestHandler(store, publisher)

	req := httptest.NewRequest(http.MethodPost, "/v1/dataset/reload", nil)
	rr := httptest.NewRecorder()
	handler.reloadDataset(rr, req)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rr.Code)
	}
	if len(publisher.events) != 0 {
		t.Fatalf("expected no events on failed reload, got %d", len(publisher.events))
	}

	// The old snapshot still answers queries.
	summaryReq := httptest.NewRequest(http.MethodGet, "/v1/cohort/summary", nil)
	summaryRR := httptest.NewRecorder()
	handler.cohortSummary(summaryRR, summaryReq)
	if summaryRR.Code != http.StatusOK {
		t.Fatalf("expected 200 after failed reload, got %d", summaryRR.Code)
	}
}

func TestExportCSV(t *testing.T) {
	handler := newTestHandler(&stubStore{tables: fixtureTables()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/dataset/export?format=csv", nil)
	rr := httptest.NewRecorder()
	handler.exportDataset(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Fatalf("unexpected content type %s", ct)
	}

	rows, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("read exported csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header plus one row, got %d rows", len(rows))
	}
	if rows[0][0] != "Id" || rows[0][13] != "Sleeping Hours" {
		t.Fatalf("unexpected header %v", rows[0])
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	handler := newTestHandler(&stubStore{tables: fixtureTables()}, nil)

	req := httptest.NewRequest(http.MethodGet, "/v1/dataset/export?format=xml", nil)
	rr := httptest.NewRecorder()
	handler.exportDataset(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rr.Code)
	}
}
