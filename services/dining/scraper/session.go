// Package scraper implements the menu scraping pipeline: a rate
// limited, cache backed engine that extracts menu structure and
// nutrition facts from the campus dining site and persists them
// idempotently.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"time"

	"nutribruin-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/dining/scraper")

const (
	navigationTimeout = time.Second * 30
	retryAttempts     = 3
	retryBackoff      = time.Second * 2
)

// Session owns the HTTP client shared by every page of one scrape
// run. Pages fetch documents only, so image/style/font/media
// subresources are never requested at all.
type Session struct {
	http *resty.Client
}

func NewSession() *Session {
	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err == nil {
		client.SetCookieJar(jar)
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetHeader("accept-language", "en-US,en;q=0.9")
	client.SetTimeout(navigationTimeout)

	telemetry.InstrumentResty(client, "services/dining/scraper/http")

	return &Session{http: client}
}

// AcquirePage returns a page ready to navigate. Pages share the
// session's client and cookie jar but track their own current
// document, so menu-structure navigation and nutrition-detail
// navigation never block each other.
func (s *Session) AcquirePage() *Page {
	return &Page{session: s}
}

// ExecuteWithRetry runs op, retrying after a fixed backoff up to the
// attempt limit before propagating the final error.
func (s *Session) ExecuteWithRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == retryAttempts {
			break
		}

		select {
		case <-time.After(retryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Shutdown releases the session's connections. Called exactly once
// per orchestration run, on every exit path.
func (s *Session) Shutdown() {
	s.http.GetClient().CloseIdleConnections()
}

// Page holds the most recently navigated document.
type Page struct {
	session *Session
	url     string
	body    []byte
	doc     *goquery.Document
}

// Navigate fetches url and parses the response into a document.
// Non-2xx statuses are navigation failures so callers can retry them.
func (p *Page) Navigate(ctx context.Context, url string) error {
	ctx, span := tracer.Start(ctx, "page:Navigate")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	res, err := p.session.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return err
	}
	if res.IsError() {
		err := fmt.Errorf("navigation to %s failed: status %d", url, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected response status")
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse html")
		return err
	}

	p.url = url
	p.body = res.Body()
	p.doc = doc
	return nil
}

func (p *Page) URL() string {
	return p.url
}

func (p *Page) Body() string {
	return string(p.body)
}

// Document returns the parsed document of the last successful
// navigation, or nil before any.
func (p *Page) Document() *goquery.Document {
	return p.doc
}
