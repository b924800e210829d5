package github

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserEvents_SendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octo/events/public", r.URL.Path)
		assert.Equal(t, "application/vnd.github.v3+json", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":"1","type":"PushEvent","repo":{"name":"octo/site"},"created_at":"2026-10-17T10:00:00Z","payload":{"commits":[{"sha":"a","message":"fix"}]}}]`))
	}))
	defer srv.Close()

	events, err := NewClient(srv.URL, "secret").UserEvents(context.Background(), "octo")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, PushEventType, events[0].Type)
	assert.Equal(t, "octo/site", events[0].Repo.Name)
	assert.Equal(t, "fix", events[0].Payload.Commits[0].Message)
	assert.True(t, events[0].CreatedAt.Equal(time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)))
}

func TestTree_RejectsBareRepoName(t *testing.T) {
	_, err := NewClient("", "").Tree(context.Background(), "vault", "main")
	assert.ErrorIs(t, err, ErrRepo)
}

func TestGet_NoTokenNoAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").UserEvents(context.Background(), "octo")
	require.NoError(t, err)
}

func TestGet_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").UserEvents(context.Background(), "octo")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStatus))
}

func TestTreeContentsAndCommitDate(t *testing.T) {
	body := "---\ntags: [work]\n---\nShipped the pilot."
	encoded := base64.StdEncoding.EncodeToString([]byte(body))
	wrapped := encoded[:10] + "\n" + encoded[10:]

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/me/vault/git/trees/main", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("recursive"))
		w.Write([]byte(`{"tree":[{"path":"_Journal/2026-10-17.md","type":"blob"},{"path":"_Journal","type":"tree"}]}`))
	})
	mux.HandleFunc("/repos/me/vault/contents/_Journal/2026-10-17.md", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"encoding":"base64","content":"` + jsonEscape(wrapped) + `"}`))
	})
	mux.HandleFunc("/repos/me/vault/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "_Journal/2026-10-17.md", r.URL.Query().Get("path"))
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		w.Write([]byte(`[{"commit":{"committer":{"date":"2026-10-17T21:04:00Z"}}}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL, "")
	ctx := context.Background()

	tree, err := c.Tree(ctx, "me/vault", "main")
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "blob", tree[0].Type)

	data, err := c.Contents(ctx, "me/vault", "_Journal/2026-10-17.md")
	require.NoError(t, err)
	assert.Equal(t, body, string(data))

	date, err := c.LastCommitDate(ctx, "me/vault", "_Journal/2026-10-17.md")
	require.NoError(t, err)
	assert.True(t, date.Equal(time.Date(2026, 10, 17, 21, 4, 0, 0, time.UTC)))
}

func jsonEscape(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			out = append(out, '\\', 'n')
			continue
		}
		out = append(out, s[i])
	}
	return string(out)
}
