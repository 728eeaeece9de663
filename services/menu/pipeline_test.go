package menu

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"bentobot/lib/scrapers/menupage"
	"bentobot/lib/testutil"
	"bentobot/services/menu/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newStubListing(t testing.TB, href, title string) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><body><a href="%s">%s</a></body></html>`, href, title)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSyncForceExtractsCachedPdfs(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/menu",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewService(setup.DB)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "february.pdf"), []byte("%PDF-1.4 feb"), 0666))

	listing := newStubListing(t, "https://sumiyoshi-bento.com/uploads/february.pdf", "2月のこんだて")
	scraper, err := menupage.NewClient(listing.URL + "/menu/")
	require.NoError(t, err)

	stub := newStubGemini(t, `[{"date": "2026-02-10", "ai_lunch": "チキンカツ", "wafu_lunch": "さばのみそ煮"}]`)
	pipeline := NewPipeline(scraper, stub.extractor(), store)

	report, err := pipeline.Sync(context.Background(), SyncOptions{Dir: dir, Force: true})
	require.NoError(t, err)
	require.Empty(t, report.Errors)
	require.Equal(t, 1, report.PDFsFound)
	require.Equal(t, 0, report.PDFsDownloaded)
	require.Equal(t, 1, report.PDFsSkipped)
	require.Equal(t, 1, report.DaysUpserted)
	require.NotEqual(t, uuid.Nil, report.RunId)

	day, found, err := store.Day(context.Background(), "2026-02-10")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "チキンカツ", day.AiLunch)
	require.Equal(t, "february.pdf", day.SourcePDF)
}

func TestSyncWithoutForceLeavesCachedPdfsAlone(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/menu",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewService(setup.DB)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "february.pdf"), []byte("%PDF-1.4 feb"), 0666))

	listing := newStubListing(t, "https://sumiyoshi-bento.com/uploads/february.pdf", "2月のこんだて")
	scraper, err := menupage.NewClient(listing.URL + "/menu/")
	require.NoError(t, err)

	stub := newStubGemini(t, `[]`)
	pipeline := NewPipeline(scraper, stub.extractor(), store)

	report, err := pipeline.Sync(context.Background(), SyncOptions{Dir: dir})
	require.NoError(t, err)
	require.Empty(t, report.Errors)
	require.Equal(t, 1, report.PDFsSkipped)
	require.Equal(t, 0, report.DaysUpserted)
	require.Equal(t, 0, stub.callCount())
}

func TestSyncCollectsDownloadFailures(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/menu",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewService(setup.DB)

	// a relative href resolves to the loopback test server, which the
	// download client refuses to dial
	listing := newStubListing(t, "uploads/march.pdf", "3月のこんだて")
	scraper, err := menupage.NewClient(listing.URL + "/menu/")
	require.NoError(t, err)

	stub := newStubGemini(t, `[]`)
	pipeline := NewPipeline(scraper, stub.extractor(), store)

	report, err := pipeline.Sync(context.Background(), SyncOptions{Dir: t.TempDir()})
	require.NoError(t, err)
	require.Equal(t, 1, report.PDFsFound)
	require.Equal(t, 0, report.PDFsDownloaded)
	require.Len(t, report.Errors, 1)
	require.Contains(t, report.Errors[0], "download")
	require.Equal(t, 0, stub.callCount())
}

func TestSyncAbortsWithoutApiKey(t *testing.T) {
	setup, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "services/menu",
		DbSchema: db.Schema,
	})
	defer cleanup()
	store := NewService(setup.DB)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "february.pdf"), []byte("%PDF-1.4 feb"), 0666))

	listing := newStubListing(t, "https://sumiyoshi-bento.com/uploads/february.pdf", "2月のこんだて")
	scraper, err := menupage.NewClient(listing.URL + "/menu/")
	require.NoError(t, err)

	stub := newStubGemini(t, `[]`)
	extractor := stub.extractor()
	extractor.apiKey = ""
	pipeline := NewPipeline(scraper, extractor, store)

	_, err = pipeline.Sync(context.Background(), SyncOptions{Dir: dir, Force: true})
	require.ErrorIs(t, err, MissingApiKey)
}
