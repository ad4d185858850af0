// Package version reports the build version and checks for newer releases.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/AylerH/DB-GPT/internal/httpclient"
)

// Version is set at build time with -ldflags.
var Version = "v0.0.0"

const defaultReleaseAPI = "https://api.github.com"

type release struct {
	TagName string `json:"tag_name"`
}

// Update describes the outcome of a release check.
type Update struct {
	Current   string
	Latest    string
	Available bool
}

type Checker struct {
	client  httpclient.HTTPClient
	baseURL string
}

func NewChecker(client httpclient.HTTPClient) *Checker {
	return &Checker{client: client, baseURL: defaultReleaseAPI}
}

// Check compares current against the latest GitHub release of owner/repo.
func (c *Checker) Check(ctx context.Context, owner, repo, current string) (*Update, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", strings.TrimRight(c.baseURL, "/"), owner, repo)

	resp, err := httpclient.Exchange(ctx, c.client, http.MethodGet, url, map[string]string{
		"Accept": "application/vnd.github+json",
	}, nil, 64<<10)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httpclient.UpstreamError{StatusCode: resp.StatusCode, Body: resp.Body, URL: url}
	}

	var rel release
	if err := json.Unmarshal(resp.Body, &rel); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}

	cur, err := goversion.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("parse current version %q: %w", current, err)
	}
	latest, err := goversion.NewVersion(rel.TagName)
	if err != nil {
		return nil, fmt.Errorf("parse release tag %q: %w", rel.TagName, err)
	}

	return &Update{
		Current:   cur.Original(),
		Latest:    latest.Original(),
		Available: cur.LessThan(latest),
	}, nil
}
