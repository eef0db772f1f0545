// Package release queries GitHub Releases for the latest qualifying release of a project.
package release

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-version"
)

const (
	defaultBaseURL   = "https://api.github.com"
	defaultUserAgent = "launchpad/dev"

	perPage  = 100
	maxPages = 5

	// maxResponseBytes bounds a single page of release JSON.
	maxResponseBytes = 10 << 20
)

// ErrFetch is returned when release metadata cannot be fetched or no release qualifies.
var ErrFetch = errors.New("fetching release")

// Release is a tagged publication of a project and its downloadable assets.
type Release struct {
	Version string
	Assets  []Asset
}

// Asset is a single downloadable file attached to a release.
type Asset struct {
	Name        string
	DownloadURL string
}

// Options filters which releases qualify.
type Options struct {
	// PreRelease allows releases marked as pre-release.
	PreRelease bool
	// RequireAssets skips releases that list no assets.
	RequireAssets bool
	// Constraint is an optional version constraint such as ">= 0.3, < 1.0".
	Constraint string
}

// RateLimitError is returned when the GitHub API rate limit is exhausted.
type RateLimitError struct {
	Limit   int
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("GitHub API rate limit of %d exceeded, resets at %s",
		e.Limit, e.ResetAt.UTC().Format("15:04 UTC"))
}

// Client talks to the GitHub Releases API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL, mostly for test servers and GitHub Enterprise.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithToken sets a token for authenticated requests.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a Client targeting api.github.com unless overridden.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// wireRelease is the GitHub JSON shape of a release.
type wireRelease struct {
	TagName    string      `json:"tag_name"`
	Draft      bool        `json:"draft"`
	Prerelease bool        `json:"prerelease"`
	Assets     []wireAsset `json:"assets"`
}

type wireAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Latest returns the newest release of project ("owner/repo") that satisfies opts.
// Releases are considered in the order the API returns them, newest first.
func (c *Client) Latest(ctx context.Context, project string, opts Options) (*Release, error) {
	if err := validateProject(project); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	var constraint version.Constraints
	if opts.Constraint != "" {
		cs, err := version.NewConstraint(opts.Constraint)
		if err != nil {
			return nil, fmt.Errorf("%w: parsing version constraint %q: %w", ErrFetch, opts.Constraint, err)
		}

		constraint = cs
	}

	pageURL := fmt.Sprintf("%s/repos/%s/releases?per_page=%d", c.baseURL, project, perPage)

	for page := 0; page < maxPages && pageURL != ""; page++ {
		releases, next, err := c.listPage(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("%w for %s: %w", ErrFetch, project, err)
		}

		for i := range releases {
			if qualifies(&releases[i], opts, constraint) {
				rel := toRelease(&releases[i])
				c.logger.Debug("resolved release", "project", project, "version", rel.Version, "assets", len(rel.Assets))

				return rel, nil
			}
		}

		pageURL = next
	}

	return nil, fmt.Errorf("%w for %s: no release matching pre_release=%t require_assets=%t",
		ErrFetch, project, opts.PreRelease, opts.RequireAssets)
}

func (c *Client) listPage(ctx context.Context, pageURL string) ([]wireRelease, string, error) {
	c.logger.Debug("listing releases", "url", pageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, http.NoBody)
	if err != nil {
		return nil, "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if rlErr := checkRateLimit(resp); rlErr != nil {
		return nil, "", rlErr
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // best-effort error detail
		return nil, "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var releases []wireRelease
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&releases); err != nil {
		return nil, "", fmt.Errorf("decoding releases: %w", err)
	}

	return releases, nextPage(resp.Header.Get("Link")), nil
}

func qualifies(r *wireRelease, opts Options, constraint version.Constraints) bool {
	if r.Draft {
		return false
	}

	if r.Prerelease && !opts.PreRelease {
		return false
	}

	if opts.RequireAssets && len(r.Assets) == 0 {
		return false
	}

	if constraint != nil {
		v, err := version.NewVersion(r.TagName)
		if err != nil {
			return false
		}

		if !constraint.Check(v) {
			return false
		}
	}

	return true
}

func toRelease(r *wireRelease) *Release {
	assets := make([]Asset, 0, len(r.Assets))
	for _, a := range r.Assets {
		assets = append(assets, Asset{Name: a.Name, DownloadURL: a.BrowserDownloadURL})
	}

	return &Release{Version: r.TagName, Assets: assets}
}

func validateProject(project string) error {
	owner, repo, ok := strings.Cut(project, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("invalid project %q, expected owner/repo", project)
	}

	return nil
}

// checkRateLimit reports a RateLimitError when the remaining quota is zero.
func checkRateLimit(resp *http.Response) error {
	remaining := resp.Header.Get("X-RateLimit-Remaining")
	if remaining == "" || resp.StatusCode == http.StatusOK {
		return nil
	}

	if rem, err := strconv.Atoi(remaining); err != nil || rem > 0 {
		return nil //nolint:nilerr // malformed header is not a rate limit
	}

	limit, _ := strconv.Atoi(resp.Header.Get("X-RateLimit-Limit"))             //nolint:errcheck // best-effort
	reset, _ := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64) //nolint:errcheck // best-effort

	return &RateLimitError{Limit: limit, ResetAt: time.Unix(reset, 0)}
}

// nextPage extracts the rel="next" URL from a Link header.
func nextPage(header string) string {
	for part := range strings.SplitSeq(header, ",") {
		if !strings.Contains(part, `rel="next"`) {
			continue
		}

		start := strings.Index(part, "<")
		end := strings.Index(part, ">")
		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}

	return ""
}
