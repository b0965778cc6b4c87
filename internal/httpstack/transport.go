// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package httpstack

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/nesv/factorix/internal/config"
	"github.com/nesv/factorix/internal/ferr"
)

const maxRedirects = 10

// Transport executes one HTTPS request. It never retries and never
// consults a cache; those are the job of the decorators built on top
// of it.
type Transport struct {
	client *http.Client
	masked []string
	log    *zap.Logger
}

// NewTransport builds a Transport from the configured timeouts and
// masked query-parameter list. A zap.NewNop logger is used if log is nil.
func NewTransport(t config.Timeouts, maskedQueryParams []string, log *zap.Logger) *Transport {
	if log == nil {
		log = zap.NewNop()
	}
	dialer := &net.Dialer{Timeout: t.Connect}
	rt := &http.Transport{
		DialContext:           dialer.DialContext,
		ResponseHeaderTimeout: t.Read,
		TLSHandshakeTimeout:   t.Connect,
		ExpectContinueTimeout: t.Write,
	}
	return &Transport{
		client: &http.Client{
			Transport: rt,
			// Redirects are handled manually so the stack can enforce
			// its own hop cap and the GET-rewrite-on-redirect rule.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		masked: maskedQueryParams,
		log:    log,
	}
}

// Do implements Client.
func (t *Transport) Do(ctx context.Context, req Request) (*Response, error) {
	return t.do(ctx, req, 0)
}

func (t *Transport) do(ctx context.Context, req Request, redirectCount int) (*Response, error) {
	if redirectCount > maxRedirects {
		return nil, ferr.New(ferr.KindURL, fmt.Sprintf("exceeded %d redirects", maxRedirects))
	}

	u, err := url.Parse(req.URL)
	if err != nil {
		return nil, ferr.Wrap(ferr.KindURL, "parse URL", err)
	}
	if u.Scheme != "https" {
		return nil, ferr.New(ferr.KindURL, fmt.Sprintf("non-HTTPS URL rejected: %s", MaskURL(req.URL, t.masked)))
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, string(req.Method), u.String(), body)
	if err != nil {
		return nil, ferr.Wrap(ferr.KindURL, "build request", err)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	t.log.Debug("http request",
		zap.String("method", string(req.Method)),
		zap.String("url", MaskURL(req.URL, t.masked)),
		zap.Int("redirect", redirectCount),
	)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode < 400 {
		loc := resp.Header.Get("Location")
		if loc == "" {
			return nil, ferr.New(ferr.KindHTTP, "redirect response missing Location header")
		}
		next, err := u.Parse(loc)
		if err != nil {
			return nil, ferr.Wrap(ferr.KindHTTP, "invalid redirect location", err)
		}
		redirected := req
		redirected.Method = MethodGet
		redirected.Body = nil
		redirected.Stream = req.Stream
		redirected.URL = next.String()
		return t.do(ctx, redirected, redirectCount+1)
	}

	var (
		buf io.Reader = resp.Body
		raw []byte
	)
	if req.Stream != nil {
		if err := streamBody(resp.Body, req.Stream); err != nil {
			return nil, ferr.Wrap(ferr.KindNetworkTimeout, "stream response body", err)
		}
	} else {
		raw, err = io.ReadAll(buf)
		if err != nil {
			return nil, ferr.Wrap(ferr.KindNetworkTimeout, "read response body", err)
		}
	}

	return classifyResponse(resp, raw, req.URL)
}

func streamBody(r io.Reader, fn StreamFunc) error {
	const chunkSize = 32 * 1024
	chunk := make([]byte, chunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if cbErr := fn(chunk[:n]); cbErr != nil {
				return cbErr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func classifyResponse(resp *http.Response, body []byte, finalURL string) (*Response, error) {
	switch {
	case resp.StatusCode == 206 || (resp.StatusCode >= 200 && resp.StatusCode < 300):
		return &Response{
			Code:     resp.StatusCode,
			Body:     body,
			Headers:  resp.Header,
			FinalURL: finalURL,
		}, nil

	case resp.StatusCode == 404:
		e := ferr.New(ferr.KindHTTPNotFound, fmt.Sprintf("404 Not Found: %s", finalURL))
		return nil, withParsedAPIError(e, body)

	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		e := ferr.New(ferr.KindHTTPClient, fmt.Sprintf("%d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), finalURL))
		return nil, withParsedAPIError(e, body)

	case resp.StatusCode >= 500 && resp.StatusCode < 600:
		return nil, ferr.New(ferr.KindHTTPServer, fmt.Sprintf("%d %s: %s", resp.StatusCode, http.StatusText(resp.StatusCode), finalURL))

	default:
		return nil, ferr.New(ferr.KindHTTP, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, finalURL))
	}
}

func withParsedAPIError(e *ferr.Error, body []byte) error {
	var ae apiError
	if len(body) > 0 && json.Unmarshal(body, &ae) == nil && (ae.Error != "" || ae.Message != "") {
		return e.WithAPI(ae.Error, ae.Message)
	}
	return e
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ferr.Wrap(ferr.KindNetworkTimeout, "request timed out", err)
	}
	var tlsErr *tls.CertificateVerificationError
	if errors.As(err, &tlsErr) {
		return ferr.Wrap(ferr.KindTLS, "TLS verification failed", err)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return ferr.Wrap(ferr.KindNetworkConnection, "connection failed", err)
		}
	}
	if ue, ok := err.(*url.Error); ok {
		if ue.Timeout() {
			return ferr.Wrap(ferr.KindNetworkTimeout, "request timed out", err)
		}
		return ferr.Wrap(ferr.KindNetworkConnection, "request failed", err)
	}
	return ferr.Wrap(ferr.KindNetworkConnection, "request failed", err)
}
