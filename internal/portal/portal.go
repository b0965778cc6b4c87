// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

// Package portal implements the Mod Portal HTTPS API client, built atop
// internal/httpstack's composed client instead of a raw http.Client.
// Response shapes (modListResult/modRelease) parse the portal's JSON
// and convert it directly into depgraph types.
package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/nesv/factorix/internal/depgraph"
	"github.com/nesv/factorix/internal/ferr"
	"github.com/nesv/factorix/internal/httpstack"
)

// Client is the Mod Portal API client. It satisfies
// depgraph.ReleaseSource so the planner can consume it directly.
type Client struct {
	http    httpstack.Client
	baseURL string
	apiKey  string
}

// New builds a Client against baseURL (normally
// "https://mods.factorio.com"), using http for every call.
func New(http httpstack.Client, baseURL, apiKey string) *Client {
	return &Client{http: http, baseURL: baseURL, apiKey: apiKey}
}

type paginationLinks struct {
	First *string `json:"first"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
	Last  *string `json:"last"`
}

// Pagination is /api/mods's pagination block.
type Pagination struct {
	Count     int             `json:"count"`
	Links     paginationLinks `json:"links"`
	Page      int             `json:"page"`
	PageCount int             `json:"page_count"`
	PageSize  int             `json:"page_size"`
}

// ModSummary is one entry from the /api/mods listing.
type ModSummary struct {
	Name           string
	Owner          string
	Title          string
	Summary        string
	Category       string
	DownloadsCount int
	LatestRelease  Release
}

type modListResult struct {
	DownloadsCount int          `json:"downloads_count"`
	Name           string       `json:"name"`
	Owner          string       `json:"owner"`
	Releases       []modRelease `json:"releases"`
	Summary        string       `json:"summary"`
	Title          string       `json:"title"`
	Category       string       `json:"category"`
	LatestRelease  modRelease   `json:"latest_release"`
	Thumbnail      string       `json:"thumbnail"`
	Changelog      string       `json:"changelog"`
	CreatedAt      time.Time    `json:"created_at"`
	Description    string       `json:"description"`
	SourceURL      string       `json:"source_url"`
	Homepage       string       `json:"homepage"`
	Tags           []string     `json:"tags"`
}

type modRelease struct {
	DownloadURL string          `json:"download_url"`
	FileName    string          `json:"file_name"`
	ReleasedAt  time.Time       `json:"released_at"`
	Version     string          `json:"version"`
	SHA1        string          `json:"sha1"`
	InfoJSON    json.RawMessage `json:"info_json"`
}

// Release mirrors depgraph.Release but keeps the portal's raw
// info_json JSON around for dependency extraction.
type Release = depgraph.Release

func (r modRelease) toRelease() (Release, error) {
	v, err := depgraph.ParseModVersion(r.Version)
	if err != nil {
		return Release{}, err
	}

	var fv struct {
		FactorioVersion string `json:"factorio_version"`
	}
	_ = json.Unmarshal(r.InfoJSON, &fv)

	return Release{
		Version:         v,
		ReleasedAt:      r.ReleasedAt,
		DownloadURL:     r.DownloadURL,
		FileName:        r.FileName,
		SHA1:            r.SHA1,
		InfoJSONBlob:    r.InfoJSON,
		FactorioVersion: fv.FactorioVersion,
	}, nil
}

// ListMods calls GET /api/mods with the given query parameters (namelist,
// page, page_size, sort, sort_order, version, hide_deprecated).
func (c *Client) ListMods(ctx context.Context, query url.Values) ([]ModSummary, Pagination, error) {
	u := c.baseURL + "/api/mods"
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	resp, err := c.http.Do(ctx, httpstack.Request{Method: httpstack.MethodGet, URL: u})
	if err != nil {
		return nil, Pagination{}, err
	}

	var body struct {
		Pagination Pagination      `json:"pagination"`
		Results    []modListResult `json:"results"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return nil, Pagination{}, ferr.Wrap(ferr.KindFileFormat, "parse /api/mods response", err)
	}

	out := make([]ModSummary, 0, len(body.Results))
	for _, r := range body.Results {
		rel, _ := r.LatestRelease.toRelease()
		out = append(out, ModSummary{
			Name:           r.Name,
			Owner:          r.Owner,
			Title:          r.Title,
			Summary:        r.Summary,
			Category:       r.Category,
			DownloadsCount: r.DownloadsCount,
			LatestRelease:  rel,
		})
	}
	return out, body.Pagination, nil
}

// GetMod calls GET /api/mods/{name} ("short" endpoint, no dependencies).
func (c *Client) GetMod(ctx context.Context, name string) (ModSummary, error) {
	return c.getMod(ctx, name, false)
}

// GetModFull calls GET /api/mods/{name}/full, which includes every
// release's dependencies.
func (c *Client) GetModFull(ctx context.Context, name string) (ModSummary, error) {
	return c.getMod(ctx, name, true)
}

func (c *Client) getMod(ctx context.Context, name string, full bool) (ModSummary, error) {
	u := fmt.Sprintf("%s/api/mods/%s", c.baseURL, url.PathEscape(name))
	if full {
		u += "/full"
	}

	resp, err := c.http.Do(ctx, httpstack.Request{Method: httpstack.MethodGet, URL: u})
	if err != nil {
		return ModSummary{}, err
	}

	var r modListResult
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return ModSummary{}, ferr.Wrap(ferr.KindFileFormat, fmt.Sprintf("parse mod %q response", name), err)
	}
	rel, _ := r.LatestRelease.toRelease()
	return ModSummary{
		Name:           r.Name,
		Owner:          r.Owner,
		Title:          r.Title,
		Summary:        r.Summary,
		Category:       r.Category,
		DownloadsCount: r.DownloadsCount,
		LatestRelease:  rel,
	}, nil
}

// Releases implements depgraph.ReleaseSource: fetches the mod's full
// listing and returns every release, parsed.
func (c *Client) Releases(ctx context.Context, name string) ([]Release, error) {
	u := fmt.Sprintf("%s/api/mods/%s/full", c.baseURL, url.PathEscape(name))
	resp, err := c.http.Do(ctx, httpstack.Request{Method: httpstack.MethodGet, URL: u})
	if err != nil {
		return nil, err
	}

	var r modListResult
	if err := json.Unmarshal(resp.Body, &r); err != nil {
		return nil, ferr.Wrap(ferr.KindFileFormat, fmt.Sprintf("parse mod %q response", name), err)
	}

	out := make([]Release, 0, len(r.Releases))
	for _, mr := range r.Releases {
		rel, err := mr.toRelease()
		if err != nil {
			return nil, fmt.Errorf("release %s of %s: %w", mr.Version, name, err)
		}
		out = append(out, rel)
	}
	return out, nil
}

// DownloadURL builds a release's authenticated download URL, appending
// the username/token query parameters the portal requires (masked
// before logging by internal/httpstack.MaskURL).
func DownloadURL(baseURL string, release Release, username, token string) (string, error) {
	u, err := url.Parse(baseURL + release.DownloadURL)
	if err != nil {
		return "", ferr.Wrap(ferr.KindURL, "build download URL", err)
	}
	q := u.Query()
	q.Set("username", username)
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// uploadURLResponse is the {upload_url} shape returned by the v2 publish
// and upload endpoints.
type uploadURLResponse struct {
	UploadURL string `json:"upload_url"`
}

// PublishUploadURL calls GET /api/v2/mods/publish with Bearer auth,
// returning the URL the caller should POST the new mod's zip to.
func (c *Client) PublishUploadURL(ctx context.Context) (string, error) {
	return c.bearerGetUploadURL(ctx, "/api/v2/mods/publish")
}

// UploadURL calls GET /api/v2/mods/{name}/upload with Bearer auth.
func (c *Client) UploadURL(ctx context.Context, name string) (string, error) {
	return c.bearerGetUploadURL(ctx, fmt.Sprintf("/api/v2/mods/%s/upload", url.PathEscape(name)))
}

func (c *Client) bearerGetUploadURL(ctx context.Context, path string) (string, error) {
	if c.apiKey == "" {
		return "", ferr.New(ferr.KindConfiguration, "FACTORIO_API_KEY is required for portal write operations")
	}
	resp, err := c.http.Do(ctx, httpstack.Request{
		Method:  httpstack.MethodGet,
		URL:     c.baseURL + path,
		Headers: map[string]string{"Authorization": "Bearer " + c.apiKey},
	})
	if err != nil {
		return "", err
	}
	var body uploadURLResponse
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		return "", ferr.Wrap(ferr.KindFileFormat, "parse upload_url response", err)
	}
	return body.UploadURL, nil
}

// UploadArchive POSTs a mod zip (and optional changelog) to uploadURL as
// multipart/form-data, completing the publish/upload flow.
func (c *Client) UploadArchive(ctx context.Context, uploadURL string, archive []byte, fileName, changelog string) error {
	body, contentType, err := multipartBody(archive, fileName, changelog)
	if err != nil {
		return err
	}
	_, err = c.http.Do(ctx, httpstack.Request{
		Method:  httpstack.MethodPost,
		URL:     uploadURL,
		Headers: map[string]string{"Content-Type": contentType, "Authorization": "Bearer " + c.apiKey},
		Body:    body,
	})
	return err
}

// EditMod calls GET /api/v2/mods/{name}/edit with Bearer auth and a JSON
// body of fields to change (title, summary, etc.).
func (c *Client) EditMod(ctx context.Context, name string, fields map[string]string) error {
	if c.apiKey == "" {
		return ferr.New(ferr.KindConfiguration, "FACTORIO_API_KEY is required for portal write operations")
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal edit fields: %w", err)
	}
	_, err = c.http.Do(ctx, httpstack.Request{
		Method:  httpstack.MethodGet,
		URL:     fmt.Sprintf("%s/api/v2/mods/%s/edit", c.baseURL, url.PathEscape(name)),
		Headers: map[string]string{"Content-Type": "application/json", "Authorization": "Bearer " + c.apiKey},
		Body:    payload,
	})
	return err
}
