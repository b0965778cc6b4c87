// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package httpstack

import (
	"bytes"
	"context"
	"net/http"

	"github.com/nesv/factorix/internal/cache"
)

// CacheLayer decorates a Client with a double-checked-locking cache
// algorithm. Only GETs without a streaming callback are cacheable.
type CacheLayer struct {
	delegate Client
	store    *cache.Store
}

// NewCacheLayer wraps delegate, serving cacheable GETs from store.
func NewCacheLayer(delegate Client, store *cache.Store) *CacheLayer {
	return &CacheLayer{delegate: delegate, store: store}
}

// Do implements Client.
func (c *CacheLayer) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method != MethodGet || req.Stream != nil {
		return c.delegate.Do(ctx, req)
	}

	key := cache.KeyFor(req.URL)

	if body, err := c.store.Read(key, req.URL); err != nil {
		return nil, err
	} else if body != nil {
		return cachedResponse(body), nil
	}

	var result *Response
	err := c.store.WithLock(key, func() error {
		// Double-check: another caller may have filled the cache while
		// we waited for the lock.
		if body, err := c.store.Read(key, req.URL); err != nil {
			return err
		} else if body != nil {
			result = cachedResponse(body)
			return nil
		}

		resp, err := c.delegate.Do(ctx, req)
		if err != nil {
			return err
		}
		if resp.Code >= 200 && resp.Code < 300 {
			if storeErr := c.store.Store(key, bytes.NewReader(resp.Body)); storeErr != nil {
				result = resp
				return nil
			}
		}
		result = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func cachedResponse(body []byte) *Response {
	return &Response{
		Code:    200,
		Body:    body,
		Headers: http.Header{"Content-Type": []string{"application/octet-stream"}},
		Cached:  true,
	}
}
