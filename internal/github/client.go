// Package github is a minimal REST client covering the one operation
// the workflow needs: opening a pull request.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to one repository on a GitHub-compatible API.
type Client struct {
	token   string
	repo    string
	baseURL string
	http    *http.Client
}

// NewClient builds a client for repo ("owner/name"). baseURL may be
// empty for github.com or point at an enterprise instance.
func NewClient(token, repo, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		token:   token,
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type pullRequest struct {
	Title string `json:"title"`
	Head  string `json:"head"`
	Base  string `json:"base"`
	Body  string `json:"body"`
	Draft bool   `json:"draft"`
}

type pullRequestResponse struct {
	Number  int    `json:"number"`
	HTMLURL string `json:"html_url"`
}

// CreatePullRequest opens a PR from head into base and returns its URL.
func (c *Client) CreatePullRequest(ctx context.Context, title, body, head, base string) (string, error) {
	payload, err := json.Marshal(pullRequest{
		Title: title,
		Head:  head,
		Base:  base,
		Body:  body,
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/repos/%s/pulls", c.baseURL, c.repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("create pull request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read pull request response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("create pull request: %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	var pr pullRequestResponse
	if err := json.Unmarshal(data, &pr); err != nil {
		return "", fmt.Errorf("decode pull request response: %w", err)
	}
	return pr.HTMLURL, nil
}
