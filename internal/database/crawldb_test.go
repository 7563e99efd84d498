package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitemd/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CrawlDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return db
}

// testPage builds a page row for storage tests.
func testPage(url string) *model.Page {
	p := &model.Page{
		URL:         url,
		Depth:       1,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Title:       "Test Page",
		Description: "A page for tests.",
		Markdown:    "# Test Page\n\nbody\n",
		Raw:         []byte("<html>body</html>"),
		FetchedAt:   time.Now(),
	}
	p.ComputeHash()
	return p
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		dbPath := filepath.Join(dbDir, "sitemd.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		opts := Options{
			CreateIfNotExists: false,
			EnableWAL:         true,
		}

		_, err := Open(dbDir, opts)
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to contain %q, got %q", "database not found", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created when CreateIfNotExists=false")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")

		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if err := db1.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()
	})
}

// TestUpsertPage tests page insertion and replacement.
func TestUpsertPage(t *testing.T) {
	t.Parallel()

	t.Run("insert and get", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		page := testPage("https://example.com/docs")
		if _, err := db.UpsertPage(ctx, "example.com", page); err != nil {
			t.Fatalf("UpsertPage() error = %v", err)
		}

		got, err := db.GetPage(ctx, "https://example.com/docs", "example.com")
		if err != nil {
			t.Fatalf("GetPage() error = %v", err)
		}
		if got == nil {
			t.Fatal("GetPage() = nil, want record")
		}
		if got.Title != "Test Page" {
			t.Errorf("Title = %q, want %q", got.Title, "Test Page")
		}
		if got.Markdown != page.Markdown {
			t.Errorf("Markdown = %q, want %q", got.Markdown, page.Markdown)
		}
		if got.RawHash != page.Hash {
			t.Errorf("RawHash = %q, want %q", got.RawHash, page.Hash)
		}
	})

	t.Run("upsert replaces previous snapshot", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		page := testPage("https://example.com/changing")
		if _, err := db.UpsertPage(ctx, "example.com", page); err != nil {
			t.Fatalf("UpsertPage() error = %v", err)
		}

		page.Title = "Updated Title"
		page.Raw = []byte("<html>changed</html>")
		page.ComputeHash()
		if _, err := db.UpsertPage(ctx, "example.com", page); err != nil {
			t.Fatalf("UpsertPage() second call error = %v", err)
		}

		got, err := db.GetPage(ctx, "https://example.com/changing", "example.com")
		if err != nil {
			t.Fatalf("GetPage() error = %v", err)
		}
		if got.Title != "Updated Title" {
			t.Errorf("Title = %q, want %q", got.Title, "Updated Title")
		}
		if got.RawHash != page.Hash {
			t.Errorf("RawHash not updated: %q", got.RawHash)
		}
	})

	t.Run("get missing page returns nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		got, err := db.GetPage(context.Background(), "https://example.com/never", "example.com")
		if err != nil {
			t.Fatalf("GetPage() error = %v", err)
		}
		if got != nil {
			t.Errorf("GetPage() = %+v, want nil", got)
		}
	})
}

// TestHasRecentCrawl tests the freshness check.
func TestHasRecentCrawl(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	if _, err := db.UpsertPage(ctx, "example.com", testPage("https://example.com/fresh")); err != nil {
		t.Fatalf("UpsertPage() error = %v", err)
	}

	recent, err := db.HasRecentCrawl(ctx, "https://example.com/fresh", time.Hour)
	if err != nil {
		t.Fatalf("HasRecentCrawl() error = %v", err)
	}
	if !recent {
		t.Error("HasRecentCrawl() = false for a just-stored page, want true")
	}

	recent, err = db.HasRecentCrawl(ctx, "https://example.com/unknown", time.Hour)
	if err != nil {
		t.Fatalf("HasRecentCrawl() error = %v", err)
	}
	if recent {
		t.Error("HasRecentCrawl() = true for a never-stored page, want false")
	}
}

// TestSaveCrawlResult tests run persistence and retrieval.
func TestSaveCrawlResult(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		result := model.NewCrawlResult("https://example.com/docs", "example.com")
		result.AddPage(testPage("https://example.com/docs"))
		result.AddPage(testPage("https://example.com/docs/install"))
		result.AddFailure("https://example.com/gone", 1, "status 404")
		result.FinishedAt = time.Now()

		if err := db.SaveCrawlResult(ctx, result); err != nil {
			t.Fatalf("SaveCrawlResult() error = %v", err)
		}

		got, err := db.GetLatestCrawlResult(ctx, "example.com")
		if err != nil {
			t.Fatalf("GetLatestCrawlResult() error = %v", err)
		}
		if got == nil {
			t.Fatal("GetLatestCrawlResult() = nil, want result")
		}
		if got.SeedURL != result.SeedURL {
			t.Errorf("SeedURL = %q, want %q", got.SeedURL, result.SeedURL)
		}
		if len(got.Pages) != 2 {
			t.Errorf("len(Pages) = %d, want 2", len(got.Pages))
		}
		if len(got.Failures) != 1 {
			t.Errorf("len(Failures) = %d, want 1", len(got.Failures))
		}

		// Pages are also individually queryable after a run save.
		page, err := db.GetPage(ctx, "https://example.com/docs/install", "example.com")
		if err != nil {
			t.Fatalf("GetPage() error = %v", err)
		}
		if page == nil {
			t.Error("run pages were not upserted into the pages table")
		}
	})

	t.Run("latest wins", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		first := model.NewCrawlResult("https://example.com/a", "example.com")
		if err := db.SaveCrawlResult(ctx, first); err != nil {
			t.Fatalf("SaveCrawlResult() error = %v", err)
		}

		second := model.NewCrawlResult("https://example.com/b", "example.com")
		if err := db.SaveCrawlResult(ctx, second); err != nil {
			t.Fatalf("SaveCrawlResult() error = %v", err)
		}

		got, err := db.GetLatestCrawlResult(ctx, "example.com")
		if err != nil {
			t.Fatalf("GetLatestCrawlResult() error = %v", err)
		}
		if got.SeedURL != "https://example.com/b" {
			t.Errorf("SeedURL = %q, want the most recent run", got.SeedURL)
		}
	})

	t.Run("unknown host returns nil", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)

		got, err := db.GetLatestCrawlResult(context.Background(), "never.example.com")
		if err != nil {
			t.Fatalf("GetLatestCrawlResult() error = %v", err)
		}
		if got != nil {
			t.Errorf("GetLatestCrawlResult() = %+v, want nil", got)
		}
	})
}

// TestListCrawledHosts tests host enumeration.
func TestListCrawledHosts(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	for _, host := range []string{"b.example.com", "a.example.com", "b.example.com"} {
		result := model.NewCrawlResult("https://"+host, host)
		if err := db.SaveCrawlResult(ctx, result); err != nil {
			t.Fatalf("SaveCrawlResult() error = %v", err)
		}
	}

	hosts, err := db.ListCrawledHosts(ctx)
	if err != nil {
		t.Fatalf("ListCrawledHosts() error = %v", err)
	}
	want := []string{"a.example.com", "b.example.com"}
	if len(hosts) != len(want) {
		t.Fatalf("ListCrawledHosts() = %v, want %v", hosts, want)
	}
	for i := range want {
		if hosts[i] != want[i] {
			t.Errorf("ListCrawledHosts() = %v, want %v", hosts, want)
		}
	}
}

// TestGetCrawlHistory tests run metadata retrieval.
func TestGetCrawlHistory(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	result := model.NewCrawlResult("https://example.com/docs", "example.com")
	result.AddPage(testPage("https://example.com/docs"))
	result.AddFailure("https://example.com/gone", 1, "network error")
	if err := db.SaveCrawlResult(ctx, result); err != nil {
		t.Fatalf("SaveCrawlResult() error = %v", err)
	}

	history, err := db.GetCrawlHistory(ctx, "example.com")
	if err != nil {
		t.Fatalf("GetCrawlHistory() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("len(history) = %d, want 1", len(history))
	}
	meta := history[0]
	if meta.Host != "example.com" {
		t.Errorf("Host = %q, want %q", meta.Host, "example.com")
	}
	if meta.PageCount != 1 {
		t.Errorf("PageCount = %d, want 1", meta.PageCount)
	}
	if meta.FailureCount != 1 {
		t.Errorf("FailureCount = %d, want 1", meta.FailureCount)
	}
	if meta.Timestamp.IsZero() {
		t.Error("Timestamp is zero, want parsed time")
	}
}

// TestParseTimestamp tests timestamp format tolerance.
func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		zero bool
	}{
		{name: "sqlite default", in: "2026-08-30 12:34:56"},
		{name: "iso8601 with z", in: "2026-08-30T12:34:56Z"},
		{name: "rfc3339", in: "2026-08-30T12:34:56+09:00"},
		{name: "garbage", in: "not a time", zero: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := parseTimestamp(tt.in)
			if got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q).IsZero() = %v, want %v", tt.in, got.IsZero(), tt.zero)
			}
		})
	}
}
