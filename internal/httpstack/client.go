// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package httpstack

import "context"

// Client is the request surface every layer of the stack exposes,
// satisfied by *Transport, *Retrier, and *CacheLayer alike so that any
// of them can wrap any other.
type Client interface {
	Do(ctx context.Context, req Request) (*Response, error)
}
