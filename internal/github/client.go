// Package github reads the GitHub endpoints the dashboard needs: public user
// events, git trees, file contents and commits. Results are converted to
// the small Event and TreeEntry types the rest of the code depends on.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v68/github"
)

// DefaultAPIURL is the public GitHub API.
const DefaultAPIURL = "https://api.github.com"

var (
	// ErrStatus is wrapped by errors for non-2xx responses.
	ErrStatus = errors.New("github: unexpected status")
	// ErrRepo is returned for a repository not written as owner/name.
	ErrRepo = errors.New("github: repo must be owner/name")
)

// Client is a GitHub REST client.
type Client struct {
	api *gh.Client
}

// NewClient creates a client. An empty token sends unauthenticated requests.
func NewClient(baseURL, token string) *Client {
	api := gh.NewClient(&http.Client{Timeout: 30 * time.Second})
	if token != "" {
		api = api.WithAuthToken(token)
	}
	if baseURL != "" {
		if u, err := url.Parse(strings.TrimRight(baseURL, "/") + "/"); err == nil {
			api.BaseURL = u
		}
	}
	return &Client{api: api}
}

func wrap(op string, resp *gh.Response, err error) error {
	if resp != nil && (resp.StatusCode < 200 || resp.StatusCode >= 300) {
		return fmt.Errorf("%s: %w: %d: %v", op, ErrStatus, resp.StatusCode, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func splitRepo(repo string) (owner, name string, err error) {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" {
		return "", "", fmt.Errorf("%w: %q", ErrRepo, repo)
	}
	return owner, name, nil
}

// Commit is a commit carried by a push event.
type Commit struct {
	SHA     string `json:"sha"`
	Message string `json:"message"`
}

// Event is a public activity event.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Repo struct {
		Name string `json:"name"`
	} `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
	Payload   struct {
		Commits []Commit `json:"commits"`
	} `json:"payload"`
}

// PushEventType is the event type for pushes.
const PushEventType = "PushEvent"

func toEvent(e *gh.Event) (Event, error) {
	out := Event{ID: e.GetID(), Type: e.GetType(), CreatedAt: e.GetCreatedAt().Time}
	out.Repo.Name = e.GetRepo().GetName()
	if e.RawPayload != nil {
		if err := json.Unmarshal(*e.RawPayload, &out.Payload); err != nil {
			return out, fmt.Errorf("event %s payload: %w", out.ID, err)
		}
	}
	return out, nil
}

// UserEvents returns the most recent public events for a user. Events whose
// payload cannot be read are returned without commits.
func (c *Client) UserEvents(ctx context.Context, user string) ([]Event, error) {
	events, resp, err := c.api.Activity.ListEventsPerformedByUser(ctx, user, true, nil)
	if err != nil {
		return nil, wrap("user events", resp, err)
	}
	out := make([]Event, 0, len(events))
	for _, e := range events {
		ev, err := toEvent(e)
		if err != nil {
			ev.Payload.Commits = nil
		}
		out = append(out, ev)
	}
	return out, nil
}

// TreeEntry is one item of a recursive git tree.
type TreeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"`
	SHA  string `json:"sha"`
	Size int64  `json:"size"`
}

// Tree lists every entry of a branch recursively.
func (c *Client) Tree(ctx context.Context, repo, branch string) ([]TreeEntry, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	tree, resp, err := c.api.Git.GetTree(ctx, owner, name, branch, true)
	if err != nil {
		return nil, wrap("tree", resp, err)
	}
	out := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		out = append(out, TreeEntry{
			Path: e.GetPath(),
			Type: e.GetType(),
			SHA:  e.GetSHA(),
			Size: int64(e.GetSize()),
		})
	}
	return out, nil
}

// Contents fetches and decodes a file.
func (c *Client) Contents(ctx context.Context, repo, filePath string) ([]byte, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return nil, err
	}
	file, _, resp, err := c.api.Repositories.GetContents(ctx, owner, name, filePath, nil)
	if err != nil {
		return nil, wrap("contents", resp, err)
	}
	if file == nil {
		return nil, fmt.Errorf("contents: %s is a directory", filePath)
	}
	text, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("contents: decode: %w", err)
	}
	return []byte(text), nil
}

// LastCommitDate returns the committer date of the newest commit touching a file.
func (c *Client) LastCommitDate(ctx context.Context, repo, filePath string) (time.Time, error) {
	owner, name, err := splitRepo(repo)
	if err != nil {
		return time.Time{}, err
	}
	commits, resp, err := c.api.Repositories.ListCommits(ctx, owner, name, &gh.CommitsListOptions{
		Path:        filePath,
		ListOptions: gh.ListOptions{PerPage: 1},
	})
	if err != nil {
		return time.Time{}, wrap("commits", resp, err)
	}
	if len(commits) == 0 {
		return time.Time{}, fmt.Errorf("commits: no commits for %s", filePath)
	}
	return commits[0].GetCommit().GetCommitter().GetDate().Time, nil
}
