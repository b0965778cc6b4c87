package httpstack

import (
	"context"
	"testing"

	"github.com/nesv/factorix/internal/cache"
)

type countingClient struct {
	calls int
	resp  *Response
	err   error
}

func (c *countingClient) Do(ctx context.Context, req Request) (*Response, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.resp, nil
}

func newTestCacheStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.New(cache.NameAPI, t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCacheLayerServesSecondGETFromCache(t *testing.T) {
	delegate := &countingClient{resp: &Response{Code: 200, Body: []byte("payload")}}
	layer := NewCacheLayer(delegate, newTestCacheStore(t))

	req := Request{Method: MethodGet, URL: "https://mods.factorio.com/api/mods/flib"}

	first, err := layer.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached {
		t.Error("the first request must not be marked as served from cache")
	}

	second, err := layer.Do(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("the second identical GET must be served from the cache")
	}
	if string(second.Body) != "payload" {
		t.Errorf("got body %q, want %q", second.Body, "payload")
	}
	if delegate.calls != 1 {
		t.Errorf("delegate was called %d times, want 1", delegate.calls)
	}
}

func TestCacheLayerNeverCachesNonGET(t *testing.T) {
	delegate := &countingClient{resp: &Response{Code: 200, Body: []byte("payload")}}
	layer := NewCacheLayer(delegate, newTestCacheStore(t))

	req := Request{Method: MethodPost, URL: "https://mods.factorio.com/api/mods/flib"}
	for i := 0; i < 2; i++ {
		if _, err := layer.Do(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	if delegate.calls != 2 {
		t.Errorf("delegate was called %d times, want 2 (POSTs are never cached)", delegate.calls)
	}
}

func TestCacheLayerNeverCachesStreamingRequests(t *testing.T) {
	delegate := &countingClient{resp: &Response{Code: 200, Body: []byte("payload")}}
	layer := NewCacheLayer(delegate, newTestCacheStore(t))

	req := Request{
		Method: MethodGet,
		URL:    "https://mods.factorio.com/api/downloads/data/mods/1/flib.zip",
		Stream: func(chunk []byte) error { return nil },
	}
	for i := 0; i < 2; i++ {
		if _, err := layer.Do(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	if delegate.calls != 2 {
		t.Errorf("delegate was called %d times, want 2 (streaming requests are never cached)", delegate.calls)
	}
}

func TestCacheLayerDoesNotCacheNon2xxResponses(t *testing.T) {
	delegate := &countingClient{resp: &Response{Code: 404, Body: []byte("not found")}}
	layer := NewCacheLayer(delegate, newTestCacheStore(t))

	req := Request{Method: MethodGet, URL: "https://mods.factorio.com/api/mods/missing"}
	for i := 0; i < 2; i++ {
		if _, err := layer.Do(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	if delegate.calls != 2 {
		t.Errorf("delegate was called %d times, want 2 (a 404 must never be cached)", delegate.calls)
	}
}
