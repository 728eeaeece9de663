// Package menupage scrapes the public sumiyoshi-bento site for the
// menu PDFs it publishes each month.
package menupage

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"bentobot/lib/htmlutil"
	"bentobot/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/doyensec/safeurl"
	"github.com/go-resty/resty/v2"
)

const DefaultPageUrl = "https://sumiyoshi-bento.com/menu/"

// PDFLink is one menu pdf advertised on the listing page.
type PDFLink struct {
	URL   string
	Title string
}

type Client struct {
	PageUrl *url.URL

	pages *resty.Client
	files *resty.Client
}

func NewClient(pageUrl string) (Client, error) {
	if pageUrl == "" {
		pageUrl = DefaultPageUrl
	}
	parsed, err := url.Parse(pageUrl)
	if err != nil {
		return Client{}, err
	}

	pages := resty.New().SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(pages, "scrapers/menupage")

	// pdf urls come straight off a scraped page, safeurl refuses to
	// dial private, loopback and link-local targets
	config := safeurl.GetConfigBuilder().
		SetTimeout(time.Second * 60).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()
	files := resty.NewWithClient(safeurl.Client(config).Client)

	return Client{
		PageUrl: parsed,
		pages:   pages,
		files:   files,
	}, nil
}

// FetchPDFLinks pulls every anchor on the listing page that points at
// a pdf, in page order with duplicates removed.
func (c Client) FetchPDFLinks(ctx context.Context) ([]PDFLink, error) {
	ctx, span := tracer.Start(ctx, "client:FetchPDFLinks")
	defer span.End()

	res, err := c.pages.R().
		SetContext(ctx).
		Get(c.PageUrl.String())
	if err != nil {
		return nil, err
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch menu page: status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var links []PDFLink
	for _, anchor := range htmlutil.GetAnchors(ctx, doc.Find("a[href]")) {
		if !strings.HasSuffix(strings.ToLower(anchor.Href), ".pdf") {
			continue
		}
		resolved, err := c.PageUrl.Parse(anchor.Href)
		if err != nil {
			continue
		}
		pdfUrl := resolved.String()
		if seen[pdfUrl] {
			continue
		}
		seen[pdfUrl] = true
		links = append(links, PDFLink{
			URL:   pdfUrl,
			Title: anchor.Name,
		})
	}

	slog.InfoContext(ctx, "scraped menu listing", "pdf_links", len(links))
	return links, nil
}

// keeps word characters plus the cjk and fullwidth blocks, everything
// shell-hostile becomes "_"
var unsafeFilenameChars = regexp.MustCompile(`[^\p{L}\p{N}_\-.\x{3000}-\x{9fff}\x{ff00}-\x{ffef}]`)

// FilenameForUrl derives a local filename from the last path segment
// of a pdf url, percent-decoding it first so japanese names stay
// readable on disk.
func FilenameForUrl(pdfUrl string) string {
	segments := strings.Split(pdfUrl, "/")
	base := segments[len(segments)-1]
	if decoded, err := url.PathUnescape(base); err == nil {
		base = decoded
	}
	return unsafeFilenameChars.ReplaceAllString(base, "_")
}

// Download fetches one pdf into dir. A file already on disk is left
// alone, the bool reports whether a request was actually made.
func (c Client) Download(ctx context.Context, link PDFLink, dir string) (string, bool, error) {
	ctx, span := tracer.Start(ctx, "client:Download")
	defer span.End()

	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return "", false, err
	}

	path := filepath.Join(dir, FilenameForUrl(link.URL))
	if _, err := os.Stat(path); err == nil {
		slog.DebugContext(ctx, "pdf already on disk", "path", path)
		return path, false, nil
	}

	res, err := c.files.R().
		SetContext(ctx).
		Get(link.URL)
	if err != nil {
		return "", false, err
	}
	if res.IsError() {
		return "", false, fmt.Errorf("download %s: status %d", link.URL, res.StatusCode())
	}

	// temp name first, the skip check above must never see a
	// half-written pdf
	tmp := path + ".tmp"
	err = os.WriteFile(tmp, res.Body(), 0666)
	if err != nil {
		return "", false, err
	}
	err = os.Rename(tmp, path)
	if err != nil {
		return "", false, err
	}

	slog.InfoContext(ctx, "downloaded menu pdf", "path", path, "bytes", len(res.Body()))
	return path, true, nil
}
