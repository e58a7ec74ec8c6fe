package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mayri/cookbook/internal/apperr"
)

const defaultAPIBase = "https://api.github.com"

// conflictRetries bounds the refetch-and-retry loop on version-marker
// conflicts during create-or-replace.
const conflictRetries = 3

// GitHub is a minimal client for the GitHub contents API: versioned file
// reads and SHA-guarded writes and deletes on a single repo branch.
type GitHub struct {
	hc     *http.Client
	base   string
	token  string
	repo   string // "owner/name"
	branch string
}

// GitHubOption configures a GitHub client.
type GitHubOption func(*GitHub)

// WithBaseURL overrides the API base URL (used in tests).
func WithBaseURL(u string) GitHubOption {
	return func(g *GitHub) { g.base = strings.TrimSuffix(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) GitHubOption {
	return func(g *GitHub) { g.hc = c }
}

// NewGitHub creates a contents API client for the given repo and branch,
// authenticated by bearer token.
func NewGitHub(token, repo, branch string, opts ...GitHubOption) *GitHub {
	g := &GitHub{
		hc:     &http.Client{Timeout: 30 * time.Second},
		base:   defaultAPIBase,
		token:  token,
		repo:   repo,
		branch: branch,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GitHub) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/contents/%s", g.base, g.repo, path)
}

func (g *GitHub) do(ctx context.Context, method, rawURL string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("storage: encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return nil, fmt.Errorf("storage: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := g.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: github request: %w", err)
	}
	return resp, nil
}

// apiError extracts the "message" field from a GitHub error response.
func apiError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if body.Message == "" {
		body.Message = resp.Status
	}
	return fmt.Errorf("storage: github API error: %s", body.Message)
}

type contentEntry struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// listDir returns the filenames in a repo directory. A missing directory
// is an empty listing.
func (g *GitHub) listDir(ctx context.Context, dir string) ([]string, error) {
	resp, err := g.do(ctx, http.MethodGet, g.contentsURL(dir)+"?ref="+url.QueryEscape(g.branch), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp)
	}
	var entries []contentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("storage: decode listing: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.Type == "file" {
			out = append(out, e.Name)
		}
	}
	return out, nil
}

// getFile fetches a file's content and version SHA. A missing file wraps
// os.ErrNotExist.
func (g *GitHub) getFile(ctx context.Context, path string) ([]byte, string, error) {
	resp, err := g.do(ctx, http.MethodGet, g.contentsURL(path)+"?ref="+url.QueryEscape(g.branch), nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, "", fmt.Errorf("storage: %s: %w", path, os.ErrNotExist)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", apiError(resp)
	}
	var entry contentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entry); err != nil {
		return nil, "", fmt.Errorf("storage: decode file: %w", err)
	}
	// The API wraps base64 payloads with newlines.
	raw := strings.ReplaceAll(entry.Content, "\n", "")
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, "", fmt.Errorf("storage: decode content of %s: %w", path, err)
	}
	return data, entry.SHA, nil
}

// fileSHA returns the current version SHA of a file, or "" when the file
// does not exist yet.
func (g *GitHub) fileSHA(ctx context.Context, path string) (string, error) {
	_, sha, err := g.getFile(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		// Treat SHA lookup failures as "new file"; the PUT's own version
		// check catches a stale assumption.
		return "", nil
	}
	return sha, nil
}

// putFile creates or replaces a file. The fetch-SHA-then-PUT sequence is
// optimistic; a 409 from the API means another writer won the race, and
// the whole sequence retries with exponential backoff up to
// conflictRetries times before surfacing the conflict.
func (g *GitHub) putFile(ctx context.Context, path string, data []byte, message string) error {
	op := func() error {
		sha, err := g.fileSHA(ctx, path)
		if err != nil {
			return backoff.Permanent(err)
		}
		body := map[string]any{
			"message": message,
			"content": base64.StdEncoding.EncodeToString(data),
			"branch":  g.branch,
		}
		if sha != "" {
			body["sha"] = sha
		}
		resp, err := g.do(ctx, http.MethodPut, g.contentsURL(path), body)
		if err != nil {
			return backoff.Permanent(err)
		}
		defer resp.Body.Close()
		switch {
		case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
			return nil
		case resp.StatusCode == http.StatusConflict:
			return fmt.Errorf("storage: version conflict on %s: %w", path, apperr.ErrConflict)
		default:
			return backoff.Permanent(apiError(resp))
		}
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), conflictRetries), ctx)
	return backoff.Retry(op, bo)
}

// deleteFile removes a file; the contents API requires the current SHA.
func (g *GitHub) deleteFile(ctx context.Context, path string, message string) error {
	_, sha, err := g.getFile(ctx, path)
	if err != nil {
		return err
	}
	resp, err := g.do(ctx, http.MethodDelete, g.contentsURL(path), map[string]any{
		"message": message,
		"sha":     sha,
		"branch":  g.branch,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	return nil
}

// GitHubContent implements Provider over a directory of a GitHub repo.
type GitHubContent struct {
	gh  *GitHub
	dir string
}

// NewGitHubContent creates a record provider storing files under dir.
func NewGitHubContent(gh *GitHub, dir string) *GitHubContent {
	return &GitHubContent{gh: gh, dir: strings.Trim(dir, "/")}
}

func (c *GitHubContent) path(name string) string { return c.dir + "/" + name }

func (c *GitHubContent) List(ctx context.Context) ([]string, error) {
	return c.gh.listDir(ctx, c.dir)
}

func (c *GitHubContent) Read(ctx context.Context, name string) ([]byte, error) {
	data, _, err := c.gh.getFile(ctx, c.path(name))
	return data, err
}

func (c *GitHubContent) Write(ctx context.Context, name string, content []byte) error {
	return c.gh.putFile(ctx, c.path(name), content, "Update "+name)
}

func (c *GitHubContent) Delete(ctx context.Context, name string) error {
	return c.gh.deleteFile(ctx, c.path(name), "Delete "+name)
}

// GitHubBlobs implements BlobStore over a repo uploads directory, with
// public URLs served from raw.githubusercontent.com.
type GitHubBlobs struct {
	gh         *GitHub
	dir        string
	publicBase string
}

// NewGitHubBlobs creates a blob store committing under dir. publicBase
// may be empty, in which case the raw.githubusercontent.com URL for the
// repo branch is used.
func NewGitHubBlobs(gh *GitHub, dir, publicBase string) *GitHubBlobs {
	if publicBase == "" {
		publicBase = fmt.Sprintf("https://raw.githubusercontent.com/%s/%s", gh.repo, gh.branch)
	}
	return &GitHubBlobs{
		gh:         gh,
		dir:        strings.Trim(dir, "/"),
		publicBase: strings.TrimSuffix(publicBase, "/"),
	}
}

func (b *GitHubBlobs) Put(ctx context.Context, name string, data []byte) (string, error) {
	path := b.dir + "/" + name
	if err := b.gh.putFile(ctx, path, data, "Upload "+name); err != nil {
		return "", err
	}
	return b.publicBase + "/" + path, nil
}

func (b *GitHubBlobs) Remove(ctx context.Context, publicURL string) error {
	path, ok := strings.CutPrefix(publicURL, b.publicBase+"/")
	if !ok || !strings.HasPrefix(path, b.dir+"/") {
		return fmt.Errorf("storage: blob URL not owned by this store: %s", publicURL)
	}
	name := strings.TrimPrefix(path, b.dir+"/")
	return b.gh.deleteFile(ctx, path, "Remove "+name)
}
