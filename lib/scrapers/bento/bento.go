// Package bento drives the Sumiyoshi bento ordering site: login
// behind an anti-forgery token, session reuse across runs, order
// submission and status scraping.
package bento

import (
	"context"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"bentobot/lib/restyutil"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const DefaultBaseUrl = "https://sumiyoshi.azurewebsites.net"

const defaultSessionFile = "bento_session.json"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36"

type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	creds    Credentials
	sessions SessionStore
	loginMu  sync.Mutex
}

type ClientOptions struct {
	// defaults to DefaultBaseUrl
	BaseUrl string
	// where login cookies are persisted, defaults to
	// "bento_session.json" in the working directory
	SessionFile string
	Credentials Credentials
	// optional sink for request/response dumps
	InstrumentOutput restyutil.InstrumentOutput
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.SessionFile == "" {
		opts.SessionFile = defaultSessionFile
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("User-Agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(time.Second * 30)

	// 2 requests max per second
	// max burst >= 2 just means that no requests will be dropped
	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	restyutil.InstrumentClient(client, tracer, opts.InstrumentOutput)

	c := &Client{
		BaseUrl:  baseUrl,
		Http:     client,
		creds:    opts.Credentials,
		sessions: SessionStore{Path: opts.SessionFile},
	}
	return c, nil
}
