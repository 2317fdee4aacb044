package endpoints

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/canteen-works/mensa/internal/clock"
	"github.com/canteen-works/mensa/internal/menu"
	"github.com/canteen-works/mensa/internal/scanner"
	"github.com/canteen-works/mensa/internal/store"
	"github.com/canteen-works/mensa/internal/svcctx"
)

const sampleCSV = "日期,餐别,菜名\n2025-12-08,午餐,红烧肉\n2025-12-08,晚餐,清炒时蔬\n"

func testServices(t *testing.T) *svcctx.Services {
	t.Helper()

	st := store.New()
	clk := clock.NewFixed(time.Date(2025, 12, 10, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	sc, err := scanner.New(t.TempDir(), st, clk, logger)
	if err != nil {
		t.Fatalf("scanner.New() error = %v", err)
	}

	return &svcctx.Services{
		Store:   st,
		Scanner: sc,
		Clock:   clk,
		Logger:  logger,
	}
}

func newRequest(t *testing.T, svcs *svcctx.Services, method, target string, body io.Reader) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(svcctx.WithServices(req.Context(), svcs))
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func sampleMenu(date string) menu.DailyMenu {
	return menu.DailyMenu{
		Date: date,
		Meals: []menu.Meal{
			{
				Period: menu.Lunch,
				Time:   "12:00",
				Items:  []menu.Dish{{Name: "红烧肉"}},
			},
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	svcs := testServices(t)
	svcs.Store.Put(sampleMenu("2025-12-08"))
	svcs.Store.Put(sampleMenu("2025-12-09"))

	rec := httptest.NewRecorder()
	(&HealthEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp HealthResponse
	decodeJSON(t, rec, &resp)
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want %q", resp.Status, "ok")
	}
	if resp.Days != 2 {
		t.Errorf("Days = %d, want 2", resp.Days)
	}
	if resp.Today != "2025-12-10" {
		t.Errorf("Today = %q, want %q", resp.Today, "2025-12-10")
	}
}

func TestMenuEndpoint(t *testing.T) {
	t.Run("exact_date", func(t *testing.T) {
		svcs := testServices(t)
		svcs.Store.Put(sampleMenu("2025-12-08"))

		rec := httptest.NewRecorder()
		(&MenuEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/api/menu?date=2025-12-08", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp MenuResponse
		decodeJSON(t, rec, &resp)
		if resp.Menu.Date != "2025-12-08" {
			t.Errorf("Menu.Date = %q, want %q", resp.Menu.Date, "2025-12-08")
		}
		if resp.Fallback {
			t.Error("Fallback = true for exact hit")
		}
	})

	t.Run("falls_back_to_most_recent_earlier", func(t *testing.T) {
		svcs := testServices(t)
		svcs.Store.Put(sampleMenu("2025-12-05"))
		svcs.Store.Put(sampleMenu("2025-12-08"))

		rec := httptest.NewRecorder()
		(&MenuEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/api/menu?date=2025-12-09", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp MenuResponse
		decodeJSON(t, rec, &resp)
		if !resp.Fallback {
			t.Error("Fallback = false, want true")
		}
		if resp.Menu.Date != "2025-12-08" {
			t.Errorf("Menu.Date = %q, want %q", resp.Menu.Date, "2025-12-08")
		}
		if resp.Message == "" {
			t.Error("Message is empty for fallback response")
		}
	})

	t.Run("no_menu_available", func(t *testing.T) {
		svcs := testServices(t)

		rec := httptest.NewRecorder()
		(&MenuEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/api/menu?date=2025-12-09", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("malformed_date", func(t *testing.T) {
		svcs := testServices(t)

		rec := httptest.NewRecorder()
		(&MenuEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/api/menu?date=12-08", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("defaults_to_today", func(t *testing.T) {
		svcs := testServices(t)
		svcs.Store.Put(sampleMenu("2025-12-10"))

		rec := httptest.NewRecorder()
		(&MenuEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/api/menu", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var resp MenuResponse
		decodeJSON(t, rec, &resp)
		if resp.RequestedDate != "2025-12-10" {
			t.Errorf("RequestedDate = %q, want %q", resp.RequestedDate, "2025-12-10")
		}
	})
}

func TestDatesEndpoint(t *testing.T) {
	t.Run("empty_store", func(t *testing.T) {
		svcs := testServices(t)

		rec := httptest.NewRecorder()
		(&DatesEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/api/dates", nil))

		var resp DatesResponse
		decodeJSON(t, rec, &resp)
		if resp.Dates == nil || len(resp.Dates) != 0 {
			t.Errorf("Dates = %v, want empty slice", resp.Dates)
		}
		if resp.Count != 0 {
			t.Errorf("Count = %d, want 0", resp.Count)
		}
		if resp.Today != "2025-12-10" {
			t.Errorf("Today = %q, want %q", resp.Today, "2025-12-10")
		}
	})

	t.Run("sorted_with_range_summary", func(t *testing.T) {
		svcs := testServices(t)
		svcs.Store.Put(sampleMenu("2025-12-10"))
		svcs.Store.Put(sampleMenu("2025-12-08"))

		rec := httptest.NewRecorder()
		(&DatesEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/api/dates", nil))

		var resp DatesResponse
		decodeJSON(t, rec, &resp)
		want := []string{"2025-12-08", "2025-12-10"}
		if len(resp.Dates) != len(want) {
			t.Fatalf("Dates = %v, want %v", resp.Dates, want)
		}
		for i := range want {
			if resp.Dates[i] != want[i] {
				t.Errorf("Dates[%d] = %q, want %q", i, resp.Dates[i], want[i])
			}
		}
		if resp.Count != 2 {
			t.Errorf("Count = %d, want 2", resp.Count)
		}
		if resp.Earliest != "2025-12-08" || resp.Latest != "2025-12-10" {
			t.Errorf("range = %q..%q, want 2025-12-08..2025-12-10", resp.Earliest, resp.Latest)
		}
		if !resp.HasToday {
			t.Error("HasToday = false, want true")
		}
	})
}

func TestMenusEndpoint(t *testing.T) {
	t.Run("bounded_range", func(t *testing.T) {
		svcs := testServices(t)
		svcs.Store.Put(sampleMenu("2025-12-05"))
		svcs.Store.Put(sampleMenu("2025-12-08"))
		svcs.Store.Put(sampleMenu("2025-12-12"))

		rec := httptest.NewRecorder()
		(&MenusEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/api/menus?from=2025-12-06&to=2025-12-10", nil))

		var resp MenusResponse
		decodeJSON(t, rec, &resp)
		if len(resp.Menus) != 1 || resp.Menus[0].Date != "2025-12-08" {
			t.Errorf("Menus = %v, want single menu for 2025-12-08", resp.Menus)
		}
	})

	t.Run("malformed_bound", func(t *testing.T) {
		svcs := testServices(t)

		rec := httptest.NewRecorder()
		(&MenusEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/api/menus?from=last-week", nil))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestScanEndpoint(t *testing.T) {
	svcs := testServices(t)
	path := filepath.Join(svcs.Scanner.Dir(), "menu.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	rec := httptest.NewRecorder()
	(&ScanEndpoint{}).handler(rec, newRequest(t, svcs, "POST", "/api/scanner/scan", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp ScanResponse
	decodeJSON(t, rec, &resp)
	if resp.Ingested != 1 {
		t.Errorf("Ingested = %d, want 1", resp.Ingested)
	}
	if _, ok := svcs.Store.Get("2025-12-08"); !ok {
		t.Error("store has no menu for 2025-12-08 after scan")
	}
}

func TestScannerStatusEndpoint(t *testing.T) {
	svcs := testServices(t)
	svcs.Store.RecordSource(store.SourceRecord{Name: "menu.csv", Menus: 1})

	rec := httptest.NewRecorder()
	(&ScannerStatusEndpoint{}).handler(rec, newRequest(t, svcs, "GET", "/api/scanner/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp ScannerStatusResponse
	decodeJSON(t, rec, &resp)
	if len(resp.Sources) != 1 || resp.Sources[0].Name != "menu.csv" {
		t.Errorf("Sources = %v, want single record for menu.csv", resp.Sources)
	}
	if resp.Scanner.Dir != svcs.Scanner.Dir() {
		t.Errorf("Scanner.Dir = %q, want %q", resp.Scanner.Dir, svcs.Scanner.Dir())
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("CreateFormFile() error = %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestUploadEndpoint(t *testing.T) {
	t.Run("ingests_csv_document", func(t *testing.T) {
		svcs := testServices(t)
		body, contentType := multipartBody(t, "file", "menu.csv", []byte(sampleCSV))

		req := newRequest(t, svcs, "POST", "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		(&UploadEndpoint{}).handler(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var resp UploadResponse
		decodeJSON(t, rec, &resp)
		if resp.Menus != 1 {
			t.Errorf("Menus = %d, want 1", resp.Menus)
		}
		if _, ok := svcs.Store.Get("2025-12-08"); !ok {
			t.Error("store has no menu for 2025-12-08 after upload")
		}

		// Saved into the scanned directory so a restart rescan finds it.
		entries, err := os.ReadDir(svcs.Scanner.Dir())
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("menu dir has %d entries, want 1", len(entries))
		}
	})

	t.Run("missing_file_field", func(t *testing.T) {
		svcs := testServices(t)
		body, contentType := multipartBody(t, "document", "menu.csv", []byte(sampleCSV))

		req := newRequest(t, svcs, "POST", "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		(&UploadEndpoint{}).handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unsupported_extension", func(t *testing.T) {
		svcs := testServices(t)
		body, contentType := multipartBody(t, "file", "menu.pdf", []byte("%PDF-1.4"))

		req := newRequest(t, svcs, "POST", "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		(&UploadEndpoint{}).handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})

	t.Run("unparseable_document", func(t *testing.T) {
		svcs := testServices(t)
		body, contentType := multipartBody(t, "file", "broken.xlsx", []byte("not a zip"))

		req := newRequest(t, svcs, "POST", "/api/upload", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		(&UploadEndpoint{}).handler(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}
	})
}
