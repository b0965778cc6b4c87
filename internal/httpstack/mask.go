// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package httpstack

import "net/url"

// maskedValue replaces a masked query parameter's value in log output.
const maskedValue = "*****"

// MaskURL returns rawURL with every query parameter named in masked
// replaced by maskedValue. It is used before any URL reaches a log
// line; never call it on a URL used for the actual request.
func MaskURL(rawURL string, masked []string) string {
	if len(masked) == 0 {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	changed := false
	for _, name := range masked {
		if _, ok := q[name]; ok {
			q.Set(name, maskedValue)
			changed = true
		}
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = q.Encode()
	return u.String()
}
