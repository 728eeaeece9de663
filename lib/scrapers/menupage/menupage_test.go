package menupage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"bentobot/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const listingFixture = `<html><body>
<div class="entry-content">
<a href="https://sumiyoshi-bento.com/wp-content/uploads/february.pdf">2月のこんだて</a>
<a href="uploads/march.pdf"> 3月のこんだて </a>
<a href="UPLOADS/April.PDF">4月のこんだて</a>
<a href="https://sumiyoshi-bento.com/wp-content/uploads/february.pdf">2月のこんだて（再掲）</a>
<a href="/company/">会社案内</a>
<a href="uploads/menu.jpg">こんだて画像</a>
</div>
</body></html>`

func TestFetchPDFLinks(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/menupage")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/menu/" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, listingFixture)
	}))
	defer server.Close()

	client, err := NewClient(server.URL + "/menu/")
	require.NoError(t, err)

	links, err := client.FetchPDFLinks(context.Background())
	require.NoError(t, err)

	// the duplicate february link keeps its first title, the non-pdf
	// anchors are ignored
	expected := []PDFLink{
		{URL: "https://sumiyoshi-bento.com/wp-content/uploads/february.pdf", Title: "2月のこんだて"},
		{URL: server.URL + "/menu/uploads/march.pdf", Title: "3月のこんだて"},
		{URL: server.URL + "/menu/UPLOADS/April.PDF", Title: "4月のこんだて"},
	}
	require.Empty(t, cmp.Diff(expected, links))
}

func TestFetchPDFLinksEmptyPage(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/menupage")
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>メンテナンス中</p></body></html>")
	}))
	defer server.Close()

	client, err := NewClient(server.URL + "/menu/")
	require.NoError(t, err)

	links, err := client.FetchPDFLinks(context.Background())
	require.NoError(t, err)
	require.Empty(t, links)
}

func TestFilenameForUrl(t *testing.T) {
	cases := map[string]string{
		"https://sumiyoshi-bento.com/wp-content/uploads/2026/02/menu.pdf": "menu.pdf",
		"https://sumiyoshi-bento.com/uploads/%E3%81%93%E3%82%93%E3%81%A0%E3%81%A62%E6%9C%88.pdf": "こんだて2月.pdf",
		"https://sumiyoshi-bento.com/uploads/menu%20(1).pdf":                                     "menu__1_.pdf",
		"https://sumiyoshi-bento.com/uploads/メニュー表（２月）.pdf":                                        "メニュー表（２月）.pdf",
		"https://sumiyoshi-bento.com/uploads/10-22_lunch.pdf":                                    "10-22_lunch.pdf",
	}
	for input, expected := range cases {
		require.Equal(t, expected, FilenameForUrl(input), input)
	}
}

func TestDownloadSkipsExisting(t *testing.T) {
	cleanup := telemetry.SetupForTesting(t, "test:scrapers/menupage")
	defer cleanup()

	dir := t.TempDir()
	existing := filepath.Join(dir, "february.pdf")
	require.NoError(t, os.WriteFile(existing, []byte("%PDF-1.7 existing"), 0666))

	client, err := NewClient("")
	require.NoError(t, err)

	link := PDFLink{URL: "https://sumiyoshi-bento.com/uploads/february.pdf", Title: "2月のこんだて"}
	path, downloaded, err := client.Download(context.Background(), link, dir)
	require.NoError(t, err)
	require.False(t, downloaded)
	require.Equal(t, existing, path)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "%PDF-1.7 existing", string(contents))
}
