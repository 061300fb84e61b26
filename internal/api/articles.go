// ABOUTME: Handlers for reading articles and rendering markdown previews.
// ABOUTME: Reads are gated on the reader role for the article's own desk.

package api

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ledekit/newsroom/internal/auth"
	"github.com/ledekit/newsroom/internal/scope"
	"github.com/ledekit/newsroom/internal/store"
)

// markdown renders article bodies for the preview route. Raw HTML in a body
// is escaped, not passed through.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// ArticleResponse is the JSON response for GET /api/articles/{id}.
type ArticleResponse struct {
	ID        int64     `json:"id"`
	Topic     string    `json:"topic"`
	Headline  string    `json:"headline"`
	Body      string    `json:"body"`
	Status    string    `json:"status"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// loadReadableArticle fetches an article and checks the caller may read it.
func (s *Server) loadReadableArticle(w http.ResponseWriter, r *http.Request) *store.Article {
	user := auth.MustFromContext(r.Context())

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.sendJSON(w, http.StatusBadRequest, errorBody{Error: "invalid article id", Code: "bad_request"})
		return nil
	}

	article, err := s.store.GetArticle(r.Context(), id)
	if err != nil {
		s.sendError(w, err)
		return nil
	}

	if !user.Scopes.Authorize(scope.RoleReader, article.Topic, true) {
		s.sendError(w, scope.Deny(scope.RoleReader, article.Topic))
		return nil
	}
	return article
}

func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	article := s.loadReadableArticle(w, r)
	if article == nil {
		return
	}

	s.sendJSON(w, http.StatusOK, ArticleResponse{
		ID:        article.ID,
		Topic:     article.Topic,
		Headline:  article.Headline,
		Body:      article.Body,
		Status:    string(article.Status),
		AuthorID:  article.AuthorID,
		CreatedAt: article.CreatedAt,
		UpdatedAt: article.UpdatedAt,
	})
}

func (s *Server) handlePreviewArticle(w http.ResponseWriter, r *http.Request) {
	article := s.loadReadableArticle(w, r)
	if article == nil {
		return
	}

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(article.Body), &buf); err != nil {
		s.sendError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
