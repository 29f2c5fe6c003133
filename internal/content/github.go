package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/config"
	"git.home.luguber.info/inful/sitebuilder/internal/errors"
	"git.home.luguber.info/inful/sitebuilder/internal/retry"
)

const (
	githubHost   = "github.com"
	rawHost      = "https://raw.githubusercontent.com"
	maxSourceLen = 10 << 20
)

// GitHubRef identifies a file in a GitHub repository.
type GitHubRef struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

// ParseGitHubURL parses https://github.com/<owner>/<repo>/(blob|tree)/<ref>/<path>.
// A tree URL refers to the README.md of that directory.
func ParseGitHubURL(raw string) (GitHubRef, bool) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") || !strings.EqualFold(u.Host, githubHost) {
		return GitHubRef{}, false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || (parts[2] != "blob" && parts[2] != "tree") {
		return GitHubRef{}, false
	}
	ref := GitHubRef{Owner: parts[0], Repo: parts[1], Ref: parts[3], Path: strings.Join(parts[4:], "/")}
	if parts[2] == "tree" {
		ref.Path = path.Join(ref.Path, "README.md")
	}
	if ref.Path == "" {
		return GitHubRef{}, false
	}
	return ref, true
}

// GitHubLoader fetches raw file content through the GitHub contents API.
type GitHubLoader struct {
	APIURL     string
	Token      string
	HTTPClient *http.Client
	Policy     retry.Policy
	MaxSize    int64 // response bytes accepted per source; 0 means 10 MiB
}

// NewGitHubLoader builds a loader from configuration.
func NewGitHubLoader(cfg config.GitHubConfig, policy retry.Policy) *GitHubLoader {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = config.DefaultGitHubAPIURL
	}
	return &GitHubLoader{
		APIURL:     apiURL,
		Token:      cfg.Token,
		HTTPClient: &http.Client{Timeout: timeout},
		Policy:     policy,
	}
}

func (g *GitHubLoader) Name() string { return "github" }

func (g *GitHubLoader) Match(sourceURL string) bool {
	_, ok := ParseGitHubURL(sourceURL)
	return ok
}

// Load fetches sourceURL, retrying transient failures per Policy.
func (g *GitHubLoader) Load(ctx context.Context, sourceURL string) (*Source, error) {
	ref, ok := ParseGitHubURL(sourceURL)
	if !ok {
		return nil, errors.ContentError("not a GitHub file URL").WithContext("source", sourceURL).Build()
	}

	var data []byte
	err := g.Policy.Do(ctx, func(ctx context.Context) error {
		var ferr error
		data, ferr = g.fetch(ctx, ref)
		return ferr
	})
	if err != nil {
		if ce, ok := errors.AsClassified(err); ok {
			return nil, ce.WithContext("source", sourceURL)
		}
		return nil, err
	}

	dir := path.Dir(ref.Path)
	if dir == "." {
		dir = ""
	} else {
		dir += "/"
	}
	return &Source{
		URL:       sourceURL,
		Data:      data,
		LinkBase:  fmt.Sprintf("https://%s/%s/%s/blob/%s/%s", githubHost, ref.Owner, ref.Repo, ref.Ref, dir),
		AssetBase: fmt.Sprintf("%s/%s/%s/%s/%s", rawHost, ref.Owner, ref.Repo, ref.Ref, dir),
	}, nil
}

func (g *GitHubLoader) newRequest(ctx context.Context, ref GitHubRef) (*http.Request, error) {
	u, err := url.Parse(g.APIURL)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "invalid GitHub API URL").Fatal().Build()
	}
	u.Path = path.Join(u.Path, "repos", ref.Owner, ref.Repo, "contents", ref.Path)
	u.RawQuery = url.Values{"ref": []string{ref.Ref}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to build request").Build()
	}
	if g.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.Token)
	}
	req.Header.Set("Accept", "application/vnd.github.raw+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", "sitebuilder")
	return req, nil
}

func (g *GitHubLoader) fetch(ctx context.Context, ref GitHubRef) ([]byte, error) {
	req, err := g.newRequest(ctx, ref)
	if err != nil {
		return nil, err
	}
	client := g.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.WrapError(err, errors.CategoryNetwork, "GitHub request failed").Retryable().Build()
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		return nil, errors.NetworkError("GitHub rate limit exceeded").RateLimit().
			WithContext("status", resp.StatusCode).Build()
	case resp.StatusCode >= 500:
		return nil, errors.NetworkError("GitHub API error: "+resp.Status).WithContext("status", resp.StatusCode).Build()
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.ContentError("source not found on GitHub").WithContext("status", resp.StatusCode).Build()
	case resp.StatusCode >= 400:
		return nil, errors.ContentError("GitHub API error: "+resp.Status).WithContext("status", resp.StatusCode).Build()
	}

	limit := g.MaxSize
	if limit <= 0 {
		limit = maxSourceLen
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "failed to read GitHub response").Retryable().Build()
	}
	if int64(len(data)) > limit {
		return nil, errors.ContentError("source exceeds size limit").WithContext("limit", limit).Build()
	}
	return data, nil
}
