package pdfextract

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/ternarybob/confero/internal/models"
	"golang.org/x/time/rate"
)

// downloader fetches remote PDFs to bounded temporary files. The byte cap is
// enforced on observed bytes during streaming, not on the Content-Length
// header, which may be absent or wrong.
type downloader struct {
	client    *http.Client
	maxBytes  int64
	allowHTTP bool

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perHost  rate.Limit
}

func newDownloader(client *http.Client, maxBytes int64, allowHTTP bool, perHostRate float64) *downloader {
	if perHostRate <= 0 {
		perHostRate = 2
	}
	return &downloader{
		client:    client,
		maxBytes:  maxBytes,
		allowHTTP: allowHTTP,
		limiters:  make(map[string]*rate.Limiter),
		perHost:   rate.Limit(perHostRate),
	}
}

// validateURL applies the SSRF guard: https only (http when explicitly
// allowed), no loopback, link-local or unspecified hosts.
func (d *downloader) validateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodePDFFetchFailed, "invalid pdf_url", err.Error())
	}

	switch u.Scheme {
	case "https":
	case "http":
		if !d.allowHTTP {
			return nil, models.NewExtractError(models.ErrCodePDFFetchFailed, "plain http URLs are not allowed", raw)
		}
	default:
		return nil, models.NewExtractError(models.ErrCodePDFFetchFailed, fmt.Sprintf("unsupported URL scheme %q", u.Scheme), raw)
	}

	host := u.Hostname()
	if host == "" {
		return nil, models.NewExtractError(models.ErrCodePDFFetchFailed, "URL has no host", raw)
	}
	// allow_http is a development toggle; it also lifts the loopback
	// restriction so local fixture servers work.
	if !d.allowHTTP {
		if strings.EqualFold(host, "localhost") {
			return nil, models.NewExtractError(models.ErrCodePDFFetchFailed, "loopback hosts are not allowed", host)
		}
		if ip := net.ParseIP(host); ip != nil {
			if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
				return nil, models.NewExtractError(models.ErrCodePDFFetchFailed, "loopback and link-local addresses are not allowed", host)
			}
		}
	}

	return u, nil
}

// fetch streams the PDF at rawURL into a temp file in dir, enforcing the
// byte cap incrementally. The caller owns the returned path.
func (d *downloader) fetch(ctx context.Context, rawURL, dir string) (string, int64, error) {
	u, err := d.validateURL(rawURL)
	if err != nil {
		return "", 0, err
	}

	if err := d.limiter(u.Hostname()).Wait(ctx); err != nil {
		return "", 0, models.NewExtractError(models.ErrCodePDFFetchFailed, "fetch cancelled", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", 0, models.NewExtractError(models.ErrCodePDFFetchFailed, "failed to build request", err.Error())
	}

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", 0, models.NewExtractError(models.ErrCodeTimeout, "PDF fetch timed out", rawURL)
		}
		return "", 0, models.NewExtractError(models.ErrCodePDFFetchFailed, "failed to fetch PDF", err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, models.NewExtractError(models.ErrCodePDFFetchFailed,
			fmt.Sprintf("unexpected HTTP status %d", resp.StatusCode), rawURL)
	}

	// Reject early on a declared size over the cap; the streaming guard
	// below still catches bodies that lie about their length.
	if resp.ContentLength > d.maxBytes {
		return "", 0, models.NewExtractError(models.ErrCodeUnsupportedPDF,
			fmt.Sprintf("PDF too large: declared %d bytes > %d limit", resp.ContentLength, d.maxBytes), rawURL)
	}

	tmp, err := os.CreateTemp(dir, "fetch_*.pdf")
	if err != nil {
		return "", 0, models.NewExtractError(models.ErrCodeInternal, "failed to create temp file", err.Error())
	}
	defer tmp.Close()

	// Read one byte past the cap so an oversized body is detected even when
	// it is exactly at the boundary of the declared length.
	written, err := io.Copy(tmp, io.LimitReader(resp.Body, d.maxBytes+1))
	if err != nil {
		os.Remove(tmp.Name())
		if ctx.Err() == context.DeadlineExceeded {
			return "", 0, models.NewExtractError(models.ErrCodeTimeout, "PDF fetch timed out mid-stream", rawURL)
		}
		return "", 0, models.NewExtractError(models.ErrCodePDFFetchFailed, "failed to stream PDF body", err.Error())
	}
	if written > d.maxBytes {
		os.Remove(tmp.Name())
		return "", 0, models.NewExtractError(models.ErrCodeUnsupportedPDF,
			fmt.Sprintf("PDF too large: observed more than %d bytes", d.maxBytes), rawURL)
	}

	return tmp.Name(), written, nil
}

func (d *downloader) limiter(host string) *rate.Limiter {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.limiters[host]
	if !ok {
		l = rate.NewLimiter(d.perHost, 1)
		d.limiters[host] = l
	}
	return l
}
