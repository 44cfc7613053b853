package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// vendorHTTPTimeout bounds every outbound vendor call so a stalled third
// party cannot pin a request indefinitely.
const vendorHTTPTimeout = 8 * time.Second

func newVendorHTTPClient() *http.Client {
	return &http.Client{Timeout: vendorHTTPTimeout}
}

type vendorRequest struct {
	Method  string
	URL     string
	Query   url.Values
	Body    any
	Headers map[string]string
	// BasicAuth as user:password when set; Bearer wins if both are present.
	Bearer    string
	BasicUser string
	BasicPass string
}

// doVendorJSON performs an outbound vendor call and decodes the JSON
// response into out (out may be nil). Non-2xx statuses are returned alongside
// the decode attempt so callers can branch on vendor-specific success codes.
func doVendorJSON(ctx context.Context, client *http.Client, vr vendorRequest, out any) (int, error) {
	var body io.Reader
	if vr.Body != nil {
		raw, err := json.Marshal(vr.Body)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(raw)
	}

	reqURL := vr.URL
	if len(vr.Query) > 0 {
		reqURL += "?" + vr.Query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, vr.Method, reqURL, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if vr.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+vr.Bearer)
	} else if vr.BasicUser != "" {
		req.SetBasicAuth(vr.BasicUser, vr.BasicPass)
	}
	for k, v := range vr.Headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
		return resp.StatusCode, nil
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, nil
}

// parseVendorTime parses vendor-reported timestamps. Vendors are loose about
// formats, so a few common layouts are tried before giving up.
func parseVendorTime(raw string, layout string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05-0700", "2006-01-02T15:04:05", "2006-01-02 15:04"}
	if layout != "" {
		layouts = []string{layout}
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
