// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package portal

import (
	"bytes"
	"mime/multipart"
)

// multipartBody builds the multipart/form-data body for the publish/
// upload endpoints: a "file" part carrying the zip and an optional
// "changelog" text part.
func multipartBody(archive []byte, fileName, changelog string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(archive); err != nil {
		return nil, "", err
	}

	if changelog != "" {
		if err := w.WriteField("changelog", changelog); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
