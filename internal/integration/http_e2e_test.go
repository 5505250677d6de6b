//go:build integration || !unit

package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"staycal/internal/adapters/http_server"
	redisad "staycal/internal/adapters/redis"
	"staycal/internal/app"
	mysqlrepo "staycal/internal/storage/mysql"
)

// ---------- helpers ----------

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Fatalf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/sql)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := mustEnv(t, "MIGRATIONS_DIR")

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startStack(t *testing.T) *httptest.Server {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=staycal",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "staycal")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)

	stmts := []string{
		`INSERT INTO listings (id, title, address, status) VALUES (1, 'Harbor House', '1 Quay St', 'published')`,
		`INSERT INTO room_types (id, listing_id, base_price_cents, weekly_rate_cents, currency) VALUES (1, 1, 100, 600, 'USD')`,
		`INSERT INTO room_units (id, room_type_id, status) VALUES (1, 1, 'active'), (2, 1, 'active')`,
		`INSERT INTO duration_discounts (room_type_id, stay_type, percent) VALUES (1, 'weekly', 10)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)

	repo := mysqlrepo.New(db)
	mat := app.NewMaterializerService(repo, cache)
	if _, err := mat.Materialize(context.Background(), 1, day("2025-01-01"), day("2025-03-31")); err != nil {
		t.Fatalf("materialize: %v", err)
	}

	srv := httpserver.New()
	srv.MountHandlers(&httpserver.Handlers{
		Avail:    app.NewAvailabilityService(repo, cache, time.Minute),
		Quote:    app.NewQuoteService(repo),
		Bookings: app.NewBookingService(repo, repo, cache, nil),
		Listings: app.NewListingService(repo),
	})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func getJSON(t *testing.T, url string, wantStatus int, dst any) {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != wantStatus {
		t.Fatalf("GET %s: status %d, want %d", url, res.StatusCode, wantStatus)
	}
	if dst != nil {
		if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

func postJSON(t *testing.T, url string, body any, wantStatus int, dst any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	res, err := http.Post(url, "application/json", &buf)
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()
	if res.StatusCode != wantStatus {
		t.Fatalf("POST %s: status %d, want %d", url, res.StatusCode, wantStatus)
	}
	if dst != nil {
		if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
}

type bookingBody struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
}

type availDay struct {
	Date      string `json:"date"`
	IsBlocked bool   `json:"is_blocked"`
}

// ---------- the tests ----------

func TestHTTP_EndToEnd_QuoteAndBookingFlow(t *testing.T) {
	ts := startStack(t)

	// daily quote off the materialized calendar: 10 nights @100
	var quote struct {
		Nights     int    `json:"nights"`
		Period     string `json:"period_type"`
		TotalCents int64  `json:"total_cents"`
		Currency   string `json:"currency"`
	}
	getJSON(t, ts.URL+"/v1/room-types/1/quote?check_in=2025-01-01&check_out=2025-01-11", http.StatusOK, &quote)
	if quote.Nights != 10 || quote.Period != "weekly" || quote.Currency != "USD" {
		t.Fatalf("unexpected quote: %+v", quote)
	}
	// 1 week @600 + 3 nights @100, minus the 10% weekly discount
	if quote.TotalCents != 810 {
		t.Fatalf("quote total %d, want 810", quote.TotalCents)
	}

	// create + confirm a booking on unit 1
	var created bookingBody
	postJSON(t, ts.URL+"/v1/bookings", map[string]any{
		"unit_id": 1, "guest_id": "g1", "check_in": "2025-01-02", "check_out": "2025-01-04", "guest_count": 2,
	}, http.StatusCreated, &created)
	if created.Status != "pending" || created.PaymentStatus != "unpaid" {
		t.Fatalf("unexpected created booking: %+v", created)
	}
	postJSON(t, ts.URL+"/v1/bookings/"+created.ID+"/confirm", nil, http.StatusOK, nil)

	// the calendar now shows 01-02 and 01-03 blocked, neighbors free
	var days []availDay
	getJSON(t, ts.URL+"/v1/room-types/1/availability?start=2025-01-01&end=2025-01-04", http.StatusOK, &days)
	want := map[string]bool{"2025-01-01": false, "2025-01-02": true, "2025-01-03": true, "2025-01-04": false}
	if len(days) != 4 {
		t.Fatalf("want 4 days, got %d", len(days))
	}
	for _, d := range days {
		if d.IsBlocked != want[d.Date] {
			t.Fatalf("%s: blocked=%v, want %v", d.Date, d.IsBlocked, want[d.Date])
		}
	}

	// quoting the blocked range now conflicts
	getJSON(t, ts.URL+"/v1/room-types/1/quote?check_in=2025-01-02&check_out=2025-01-04", http.StatusConflict, nil)

	// an overlapping booking on the same unit cannot confirm
	var second bookingBody
	postJSON(t, ts.URL+"/v1/bookings", map[string]any{
		"unit_id": 1, "guest_id": "g2", "check_in": "2025-01-03", "check_out": "2025-01-06", "guest_count": 1,
	}, http.StatusCreated, &second)
	postJSON(t, ts.URL+"/v1/bookings/"+second.ID+"/confirm", nil, http.StatusConflict, nil)

	// unpublish is refused while the first booking is confirmed
	postJSON(t, ts.URL+"/v1/listings/1/unpublish", map[string]string{"target_status": "draft"}, http.StatusConflict, nil)

	// cancel releases the dates and the listing can unpublish
	postJSON(t, ts.URL+"/v1/bookings/"+created.ID+"/cancel", nil, http.StatusOK, nil)
	days = nil
	getJSON(t, ts.URL+"/v1/room-types/1/availability?start=2025-01-01&end=2025-01-04", http.StatusOK, &days)
	for _, d := range days {
		if d.IsBlocked {
			t.Fatalf("%s still blocked after cancel", d.Date)
		}
	}
	postJSON(t, ts.URL+"/v1/listings/1/unpublish", map[string]string{"target_status": "draft"}, http.StatusOK, nil)

	// and back: publish succeeds because the listing is complete
	postJSON(t, ts.URL+"/v1/listings/1/publish", nil, http.StatusOK, nil)
}

func TestHTTP_EndToEnd_ValidationAndErrors(t *testing.T) {
	ts := startStack(t)

	getJSON(t, ts.URL+"/v1/room-types/1/quote?check_in=2025-01-05&check_out=2025-01-05", http.StatusBadRequest, nil)
	getJSON(t, ts.URL+"/v1/room-types/999/quote?check_in=2025-01-01&check_out=2025-01-03", http.StatusNotFound, nil)
	getJSON(t, ts.URL+"/v1/room-types/1/availability?start=bad&end=2025-01-03", http.StatusBadRequest, nil)

	postJSON(t, ts.URL+"/v1/bookings", map[string]any{
		"unit_id": 999, "guest_id": "g1", "check_in": "2025-01-02", "check_out": "2025-01-04", "guest_count": 1,
	}, http.StatusNotFound, nil)
	postJSON(t, ts.URL+"/v1/bookings", map[string]any{
		"unit_id": 1, "guest_id": "", "check_in": "2025-01-02", "check_out": "2025-01-04", "guest_count": 1,
	}, http.StatusBadRequest, nil)
	postJSON(t, ts.URL+"/v1/bookings/does-not-exist/confirm", nil, http.StatusNotFound, nil)
}
