package vault

import (
	"context"
	"time"

	"github.com/starford/lifedash/internal/github"
)

// DefaultMaxFiles caps how many files a GitHub vault scan touches, to stay
// under API rate limits.
const DefaultMaxFiles = 100

// GitHubAPI is the subset of the GitHub client a hosted vault needs.
type GitHubAPI interface {
	Tree(ctx context.Context, repo, branch string) ([]github.TreeEntry, error)
	Contents(ctx context.Context, repo, path string) ([]byte, error)
	LastCommitDate(ctx context.Context, repo, path string) (time.Time, error)
}

// GitHub reads notes from a vault kept in a GitHub repository. The
// modification time of a note is its last commit date.
type GitHub struct {
	api      GitHubAPI
	repo     string
	branch   string
	maxFiles int
}

// NewGitHub creates a GitHub-hosted vault source.
func NewGitHub(api GitHubAPI, repo, branch string, maxFiles int) *GitHub {
	if branch == "" {
		branch = "main"
	}
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &GitHub{api: api, repo: repo, branch: branch, maxFiles: maxFiles}
}

// Files lists the first maxFiles Markdown blobs of the branch, in tree order.
func (g *GitHub) Files(ctx context.Context) ([]string, error) {
	tree, err := g.api.Tree(ctx, g.repo, g.branch)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range tree {
		if e.Type != "blob" || !IsNote(e.Path) {
			continue
		}
		out = append(out, e.Path)
		if len(out) == g.maxFiles {
			break
		}
	}
	return out, nil
}

// Modified returns the date of the newest commit touching path.
func (g *GitHub) Modified(ctx context.Context, path string) (time.Time, error) {
	return g.api.LastCommitDate(ctx, g.repo, path)
}

// Read returns the decoded file contents.
func (g *GitHub) Read(ctx context.Context, path string) ([]byte, error) {
	return g.api.Contents(ctx, g.repo, path)
}
