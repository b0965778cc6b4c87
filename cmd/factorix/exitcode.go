// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package main

import "github.com/nesv/factorix/internal/ferr"

// exitCodeFor assigns the process exit code: 0 success, 1
// validation/user error, 2 I/O/network error. Errors that
// never reach here (a nil Exec return) imply 0.
func exitCodeFor(err error) int {
	switch ferr.KindOf(err) {
	case ferr.KindURL, ferr.KindInvalidArgument, ferr.KindConfiguration,
		ferr.KindDependencyMissing, ferr.KindDependencyDisabled,
		ferr.KindVersionMismatch, ferr.KindConflict, ferr.KindCircularDependency,
		ferr.KindGameRunning, ferr.KindVersionParse:
		return 1
	case ferr.KindNetworkTimeout, ferr.KindNetworkConnection, ferr.KindTLS,
		ferr.KindHTTPNotFound, ferr.KindHTTPClient, ferr.KindHTTPServer, ferr.KindHTTP,
		ferr.KindFileNotFound, ferr.KindDirectoryNotFound, ferr.KindDirectoryNotWritable,
		ferr.KindFileExists, ferr.KindSHA1Mismatch, ferr.KindFileFormat, ferr.KindCancelled:
		return 2
	default:
		return 1
	}
}
