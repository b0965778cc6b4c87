// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/schollz/progressbar/v3"

	"github.com/nesv/factorix/internal/events"
)

// subscribeProgress wires a download-progress bar to the event bus. Each
// bar is an indeterminate spinner counting bytes received; it does not
// read TotalBytes, so no percentage or total is shown. Bars are
// keyed by URL since several downloads may be in flight at once under
// ApplyInstalls' bounded concurrency.
func (a *app) subscribeProgress() {
	if !a.tty {
		return
	}

	var mu sync.Mutex
	bars := make(map[string]*progressbar.ProgressBar)

	a.bus.Subscribe(func(e events.Event) {
		mu.Lock()
		defer mu.Unlock()

		switch e.Kind {
		case events.KindDownloadStart:
			bars[e.URL] = progressbar.NewOptions64(-1,
				progressbar.OptionSetDescription(shortURL(e.URL)),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetPredictTime(false),
			)
		case events.KindDownloadProgress:
			if bar, ok := bars[e.URL]; ok {
				bar.Set64(e.BytesRead)
			}
		case events.KindDownloadDone:
			if bar, ok := bars[e.URL]; ok {
				bar.Finish()
				bar.Exit()
				delete(bars, e.URL)
			}
		}
	})
}

func shortURL(u string) string {
	const max = 40
	if len(u) <= max {
		return u
	}
	return fmt.Sprintf("...%s", u[len(u)-max:])
}
