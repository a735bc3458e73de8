package server

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aijobsdash/common/cache"
	"aijobsdash/common/cache/memory"
	"aijobsdash/services/dashboard/internal/config"
	"aijobsdash/services/dashboard/internal/dataset"
	"aijobsdash/services/dashboard/internal/export"
	"aijobsdash/services/dashboard/internal/loader"
	"aijobsdash/services/dashboard/internal/messaging"
	"aijobsdash/services/dashboard/internal/warehouse"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

const datasetCSV = `job_id,job_title,salary_usd,experience_level,company_location,employee_residence,remote_ratio,required_skills,education_required,industry,posting_date,application_deadline,benefits_score,company_name
AI1,ML Engineer,150000,SE,USA,USA,100,"Python, SQL",Master,Tech,2024-01-01,2024-02-01,8,Acme
AI2,Data Analyst,60000,EN,India,India,0,"Python, R",Bachelor,Retail,2024-01-02,2024-02-02,6,Globex
AI3,AI Researcher,180000,EX,USA,Canada,50,PyTorch,PhD,Tech,2024-01-03,2024-02-03,9,Initech
`

func newTestServer(t *testing.T, path string, opts ...func(*config.Config)) *httptest.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)

	c := memory.New(cache.Options{})
	t.Cleanup(func() { c.Close() })

	store := dataset.NewStore(
		logger,
		loader.FileSource{Path: path},
		loader.New(logger),
		c,
		messaging.NewPublisher(logger, nil),
		warehouse.Disabled(),
	)
	cfg := &config.Config{
		DatasetPath:      path,
		HTTPAddr:         "127.0.0.1:0",
		ShutdownTimeout:  time.Second,
		MaxPostingsLimit: 2,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ts := httptest.NewServer(New(logger, store, cfg).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func writeDataset(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.csv")
	if err := os.WriteFile(path, []byte(datasetCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func getJSON(t *testing.T, url string, wantStatus int, out interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, writeDataset(t))
	var body map[string]string
	getJSON(t, ts.URL+"/healthz", http.StatusOK, &body)
	if body["status"] != "ok" {
		t.Errorf("health = %v", body)
	}
}

func TestFilters(t *testing.T) {
	ts := newTestServer(t, writeDataset(t))

	var body struct {
		Locations        []string `json:"locations"`
		ExperienceLevels []string `json:"experienceLevels"`
	}
	getJSON(t, ts.URL+"/api/filters", http.StatusOK, &body)

	if strings.Join(body.Locations, ",") != "India,USA" {
		t.Errorf("locations = %v", body.Locations)
	}
	if len(body.ExperienceLevels) != 4 || body.ExperienceLevels[0] != "Entry-level" {
		t.Errorf("experience levels = %v", body.ExperienceLevels)
	}
}

func TestDashboardWithFilters(t *testing.T) {
	ts := newTestServer(t, writeDataset(t))

	var body struct {
		Title     string `json:"title"`
		Rows      int    `json:"rows"`
		TotalRows int    `json:"totalRows"`
		Views     []struct {
			ID string `json:"id"`
		} `json:"views"`
	}
	getJSON(t, ts.URL+"/api/dashboard?location=USA&experience=Senior-level&experience=Executive-level", http.StatusOK, &body)

	if body.Rows != 2 || body.TotalRows != 3 {
		t.Errorf("rows/total = %d/%d, want 2/3", body.Rows, body.TotalRows)
	}
	if body.Title == "" || len(body.Views) != 8 {
		t.Errorf("title %q with %d views", body.Title, len(body.Views))
	}
}

func TestView(t *testing.T) {
	ts := newTestServer(t, writeDataset(t))

	var body struct {
		ID     string `json:"id"`
		Rows   int    `json:"rows"`
		Groups []struct {
			Key   string  `json:"key"`
			Value float64 `json:"value"`
		} `json:"groups"`
		Chart struct {
			ChartType string `json:"chartType"`
		} `json:"chart"`
	}
	getJSON(t, ts.URL+"/api/views/salary_by_country", http.StatusOK, &body)

	if body.ID != "salary_by_country" || body.Chart.ChartType != "choropleth" {
		t.Errorf("view = %+v", body)
	}
	if len(body.Groups) != 2 || body.Groups[1].Key != "USA" || body.Groups[1].Value != 165000 {
		t.Errorf("groups = %+v", body.Groups)
	}

	getJSON(t, ts.URL+"/api/views/nope", http.StatusNotFound, nil)
}

func TestPostingsLimit(t *testing.T) {
	ts := newTestServer(t, writeDataset(t))

	var body struct {
		Rows     int `json:"rows"`
		Limit    int `json:"limit"`
		Postings []struct {
			JobTitle string `json:"job_title"`
			WorkType string `json:"work_type"`
		} `json:"postings"`
	}
	getJSON(t, ts.URL+"/api/postings?limit=50", http.StatusOK, &body)

	if body.Rows != 3 || body.Limit != 2 || len(body.Postings) != 2 {
		t.Errorf("rows %d, limit %d, postings %d", body.Rows, body.Limit, len(body.Postings))
	}
	if body.Postings[0].JobTitle != "ML Engineer" || body.Postings[0].WorkType != "Remote" {
		t.Errorf("first posting = %+v", body.Postings[0])
	}

	getJSON(t, ts.URL+"/api/postings?limit=zero", http.StatusBadRequest, nil)
	getJSON(t, ts.URL+"/api/postings?limit=-1", http.StatusBadRequest, nil)
}

func TestPostingsXLSX(t *testing.T) {
	ts := newTestServer(t, writeDataset(t))

	resp, err := http.Get(ts.URL + "/api/postings.xlsx?location=India")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	f, err := excelize.OpenReader(resp.Body)
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "Data Analyst" {
		t.Errorf("rows = %v, want header plus the India posting", rows)
	}
}

func TestReload(t *testing.T) {
	ts := newTestServer(t, writeDataset(t))

	resp, err := http.Post(ts.URL+"/api/reload", "application/json", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var report loader.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.RowsKept != 3 {
		t.Errorf("report = %+v", report)
	}

	get, err := http.Get(ts.URL + "/api/reload")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	get.Body.Close()
	if get.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/reload status = %d, want 405", get.StatusCode)
	}
}

func TestMissingDatasetIsUnavailable(t *testing.T) {
	ts := newTestServer(t, filepath.Join(t.TempDir(), "missing.csv"))
	getJSON(t, ts.URL+"/api/dashboard", http.StatusServiceUnavailable, nil)
}

func TestReloadIsRateLimited(t *testing.T) {
	ts := newTestServer(t, writeDataset(t), func(cfg *config.Config) {
		cfg.ReloadInterval = time.Hour
	})

	post := func() int {
		resp, err := http.Post(ts.URL+"/api/reload", "application/json", nil)
		if err != nil {
			t.Fatalf("POST failed: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if status := post(); status != http.StatusOK {
		t.Fatalf("first reload status = %d, want 200", status)
	}
	if status := post(); status != http.StatusTooManyRequests {
		t.Errorf("second reload status = %d, want 429", status)
	}
}

func TestDashboardSkipsNonFiniteRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.csv")
	data := datasetCSV + "AI4,Broken Salary,inf,SE,USA,USA,100,Python,Master,Tech,2024-01-04,2024-02-04,NAN,Hooli\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, path)

	var body struct {
		Rows      int `json:"rows"`
		TotalRows int `json:"totalRows"`
		Views     []struct {
			ID string `json:"id"`
		} `json:"views"`
	}
	getJSON(t, ts.URL+"/api/dashboard", http.StatusOK, &body)

	if body.TotalRows != 3 || len(body.Views) == 0 {
		t.Errorf("total rows = %d with %d views, want 3 rows", body.TotalRows, len(body.Views))
	}
}

func TestBlankSelectionValuesAreIgnored(t *testing.T) {
	ts := newTestServer(t, writeDataset(t))

	var body struct {
		Rows int `json:"rows"`
	}
	getJSON(t, ts.URL+"/api/dashboard?location=&experience=", http.StatusOK, &body)

	if body.Rows != 3 {
		t.Errorf("rows = %d, want all 3 for blank selections", body.Rows)
	}
}

func TestWriteJSONUnencodableValue(t *testing.T) {
	s := &Server{logger: zaptest.NewLogger(t)}
	rec := httptest.NewRecorder()

	s.writeJSON(rec, http.StatusOK, map[string]float64{"mean": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body["error"] == "" {
		t.Errorf("body = %q (%v), want a JSON error", rec.Body.String(), err)
	}
}
