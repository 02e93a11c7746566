// Package server exposes the simplification pipeline over HTTP. The
// surface is deliberately thin: decode, delegate, encode. All domain
// decisions live in the pipeline.
package server

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/klartext/klartext/internal/ingest"
	"github.com/klartext/klartext/internal/model"
	"github.com/klartext/klartext/internal/pipeline"
)

// Server wires the HTTP routes to the pipeline and the ingest fetcher.
type Server struct {
	echo     *echo.Echo
	pipeline *pipeline.Pipeline
	fetcher  *ingest.Fetcher
	cfg      model.ServerConfig
}

// New builds the server and registers all routes.
func New(p *pipeline.Pipeline, fetcher *ingest.Fetcher, cfg model.ServerConfig) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{echo: e, pipeline: p, fetcher: fetcher, cfg: cfg}

	e.GET("/healthz", s.health)
	e.POST("/v1/simplify", s.simplify)
	e.POST("/v1/simplify/batch", s.simplifyBatch)
	e.POST("/v1/ingest/url", s.ingestURL)
	e.POST("/v1/feedback", s.feedback)
	e.GET("/v1/stats", s.stats)

	return s
}

// Start blocks serving HTTP on the configured address.
func (s *Server) Start() error {
	return s.echo.Start(s.cfg.Addr)
}

// Handler exposes the routing tree, used by tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

type simplifyRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
	Level      string `json:"level"`
}

type simplifyResponse struct {
	RunID          string             `json:"run_id"`
	SimplifiedText string             `json:"simplified_text"`
	Warnings       []string           `json:"warnings"`
	Scores         model.QualityScore `json:"scores"`
	NeedsReview    bool               `json:"needs_review"`
	ChunkCount     int                `json:"chunk_count"`
	ModelUsed      string             `json:"model_used"`
	LatencyMS      int64              `json:"latency_ms"`
}

func (s *Server) simplify(c echo.Context) error {
	var req simplifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}

	resp, err := s.pipeline.Simplify(c.Request().Context(), pipeline.Request{
		Text:       req.Text,
		TargetLang: req.TargetLang,
		Level:      req.Level,
	})
	if err != nil {
		return c.JSON(statusForPipelineError(err), errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, toSimplifyResponse(resp))
}

type batchRequest struct {
	Texts      []string `json:"texts"`
	TargetLang string   `json:"target_lang"`
	Level      string   `json:"level"`
}

type batchItem struct {
	Index  int               `json:"index"`
	Result *simplifyResponse `json:"result,omitempty"`
	Error  string            `json:"error,omitempty"`
}

// simplifyBatch runs up to cfg.BatchMaxTexts independent texts
// concurrently. Items fail in isolation: one bad text never poisons
// its neighbors.
func (s *Server) simplifyBatch(c echo.Context) error {
	var req batchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if len(req.Texts) == 0 {
		return c.JSON(http.StatusBadRequest, errorBody("texts must not be empty"))
	}
	if len(req.Texts) > s.cfg.BatchMaxTexts {
		return c.JSON(http.StatusBadRequest, errorBody("too many texts in one batch"))
	}

	items := make([]batchItem, len(req.Texts))
	g, ctx := errgroup.WithContext(c.Request().Context())
	limit := s.cfg.BatchConcurrency
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, text := range req.Texts {
		i, text := i, text
		g.Go(func() error {
			items[i].Index = i
			if len([]rune(text)) > s.cfg.BatchMaxChars {
				items[i].Error = "text exceeds the per-item length cap"
				return nil
			}
			resp, err := s.pipeline.Simplify(ctx, pipeline.Request{
				Text:       text,
				TargetLang: req.TargetLang,
				Level:      req.Level,
			})
			if err != nil {
				items[i].Error = err.Error()
				return nil
			}
			r := toSimplifyResponse(resp)
			items[i].Result = &r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}

	return c.JSON(http.StatusOK, map[string]any{"results": items})
}

type urlIngestRequest struct {
	URL string `json:"url"`
}

func (s *Server) ingestURL(c echo.Context) error {
	var req urlIngestRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if req.URL == "" {
		return c.JSON(http.StatusBadRequest, errorBody("url is required"))
	}

	article, err := s.fetcher.FetchArticle(c.Request().Context(), req.URL)
	if err != nil {
		if errors.Is(err, ingest.ErrRobotsDisallowed) {
			return c.JSON(http.StatusForbidden, errorBody(err.Error()))
		}
		return c.JSON(http.StatusBadGateway, errorBody(err.Error()))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"extracted_text": article.Text,
		"title":          article.Title,
		"warnings":       article.Warnings,
	})
}

type feedbackRequest struct {
	RunID    string `json:"run_id"`
	Feedback string `json:"feedback"`
}

func (s *Server) feedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody("invalid request body"))
	}
	if req.RunID == "" {
		return c.JSON(http.StatusBadRequest, errorBody("run_id is required"))
	}
	if err := s.pipeline.Feedback(req.RunID, req.Feedback); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) stats(c echo.Context) error {
	stats, err := s.pipeline.Stats()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
	}
	return c.JSON(http.StatusOK, stats)
}

func toSimplifyResponse(resp *pipeline.Response) simplifyResponse {
	warnings := resp.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return simplifyResponse{
		RunID:          resp.RunID,
		SimplifiedText: resp.Output,
		Warnings:       warnings,
		Scores:         resp.Scores,
		NeedsReview:    resp.NeedsReview,
		ChunkCount:     resp.ChunkCount,
		ModelUsed:      resp.ModelUsed,
		LatencyMS:      resp.LatencyMS,
	}
}

func statusForPipelineError(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput),
		errors.Is(err, pipeline.ErrInputTooLong),
		errors.Is(err, pipeline.ErrUnsupportedLanguage),
		errors.Is(err, pipeline.ErrUnsupportedLevel):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}
