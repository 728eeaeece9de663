package bento

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"bentobot/lib/timezone"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"
)

var LoginFailed = fmt.Errorf("ログインに失敗しました。")

const authCookieName = ".ASPXAUTH"

// EnsureAuthenticated makes sure the client holds a live server
// session, reusing the persisted cookies when they still validate and
// logging in fresh otherwise. force skips the persisted session
// entirely. Reports false with a nil error when the site rejects the
// credentials.
func (c *Client) EnsureAuthenticated(ctx context.Context, force bool) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:EnsureAuthenticated")
	defer span.End()

	c.loginMu.Lock()
	defer c.loginMu.Unlock()

	if !force && c.restoreSession() {
		if c.sessionValid(ctx) {
			slog.DebugContext(ctx, "persisted session still valid")
			return true, nil
		}
		slog.InfoContext(ctx, "persisted session expired, logging in again")
	}

	return c.login(ctx)
}

// restoreSession loads the persisted cookies into the jar. Reports
// false when there is nothing usable on disk.
func (c *Client) restoreSession() bool {
	session, ok := c.sessions.Load()
	if !ok {
		return false
	}

	cookies := make([]*http.Cookie, len(session.Cookies))
	for i, stored := range session.Cookies {
		cookies[i] = &http.Cookie{
			Name:   stored.Name,
			Value:  stored.Value,
			Domain: stored.Domain,
			Path:   stored.Path,
		}
	}
	c.Http.GetClient().Jar.SetCookies(c.BaseUrl, cookies)
	return true
}

// sessionValid probes the order listing with redirects disabled. A
// bounce back to the login page means the cookies expired.
func (c *Client) sessionValid(ctx context.Context) bool {
	c.Http.SetRedirectPolicy(resty.NoRedirectPolicy())
	res, _ := c.Http.R().
		SetContext(ctx).
		Get("/Order")
	c.Http.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(c.BaseUrl.Hostname()))

	// resty reports the blocked redirect as an error, the response
	// still carries the status and headers, so the error itself is
	// not inspected
	if res == nil {
		return false
	}

	code := res.StatusCode()
	if code == http.StatusOK {
		return true
	}
	if code >= 300 && code < 400 {
		location := strings.ToLower(res.Header().Get("Location"))
		if location == "/" || strings.HasSuffix(location, "/") || strings.Contains(location, "login") {
			slog.InfoContext(ctx, "session invalid", "location", location)
			return false
		}
		return true
	}
	return false
}

// login performs the credential exchange: fetch the login page for its
// anti-forgery token, post the credentials, then look for the auth
// cookie. The site answers 200 even on bad credentials, the cookie is
// the only reliable signal.
func (c *Client) login(ctx context.Context) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:login")
	defer span.End()

	if c.creds.UserCode == "" || c.creds.Password == "" {
		span.SetStatus(codes.Error, MissingCredentials.Error())
		return false, MissingCredentials
	}

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return false, err
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "failed to fetch login page")
		return false, fmt.Errorf("login page returned %s", res.Status())
	}
	token, err := ExtractToken(res.Body())
	if err != nil {
		span.SetStatus(codes.Error, "failed to extract login token")
		return false, err
	}

	_, err = c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"__RequestVerificationToken": token,
			"CompanyCD":                  c.creds.CompanyCode,
			"UserCD":                     c.creds.UserCode,
			"Password":                   c.creds.Password,
		}).
		SetHeader("Referer", c.BaseUrl.String()+"/").
		SetHeader("Origin", c.BaseUrl.String()).
		Post("/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post credentials")
		return false, err
	}

	if !c.hasAuthCookie() {
		span.SetStatus(codes.Error, LoginFailed.Error())
		return false, nil
	}

	err = c.persistSession()
	if err != nil {
		// an unsaved session only costs the next run a re-login
		slog.WarnContext(ctx, "failed to persist session", "err", err)
	}
	slog.InfoContext(ctx, "logged in", "user", c.creds.UserCode)
	return true, nil
}

func (c *Client) hasAuthCookie() bool {
	for _, cookie := range c.Http.GetClient().Jar.Cookies(c.BaseUrl) {
		if cookie.Name == authCookieName {
			return true
		}
	}
	return false
}

// persistSession snapshots the jar to disk. The jar strips Domain and
// Path metadata on read, so those are filled back in from the base
// url before writing.
func (c *Client) persistSession() error {
	jarCookies := c.Http.GetClient().Jar.Cookies(c.BaseUrl)

	session := PersistedSession{
		SavedAt: timezone.Now(),
		Cookies: make([]SessionCookie, len(jarCookies)),
	}
	for i, cookie := range jarCookies {
		session.Cookies[i] = SessionCookie{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: c.BaseUrl.Hostname(),
			Path:   "/",
		}
	}
	return c.sessions.Save(session)
}
