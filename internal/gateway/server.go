package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/safechecks/safechecks/internal/sheets"
	"github.com/safechecks/safechecks/pkg/errclass"
	"github.com/safechecks/safechecks/pkg/logging"
)

const (
	bodyKey     = "rawBody"
	maxBodySize = 8 << 20
)

// Options configures a Server.
type Options struct {
	// Secret, when set, requires a valid signature header on every request.
	Secret string
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
}

// Server exposes a RowStore over the web app protocol.
type Server struct {
	store  sheets.RowStore
	opts   Options
	engine *gin.Engine
}

// NewServer builds the router for store.
func NewServer(store sheets.RowStore, opts Options) *Server {
	s := &Server{store: store, opts: opts}
	s.engine = s.router()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", sheets.SignatureHeader},
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.opts.Metrics))
	}

	// Apps Script deployments answer on /exec; accept both.
	for _, path := range []string{"/", "/exec"} {
		r.GET(path, s.verify(), s.handleGet)
		r.POST(path, s.verify(), s.handlePost)
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debug("gateway request", map[string]any{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"action":   c.Query("action"),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// verify reads the body once, stores it for the handler and checks the
// signature over the body (POST) or the raw query (GET).
func (s *Server) verify() gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload []byte
		if c.Request.Method == http.MethodPost {
			body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodySize))
			if err != nil {
				fail(c, http.StatusBadRequest, "cannot read body")
				return
			}
			c.Set(bodyKey, body)
			payload = body
		} else {
			payload = []byte(c.Request.URL.RawQuery)
		}
		if s.opts.Secret != "" && !sheets.Verify(payload, s.opts.Secret, c.GetHeader(sheets.SignatureHeader)) {
			fail(c, http.StatusUnauthorized, "invalid signature")
			return
		}
		c.Next()
	}
}

func fail(c *gin.Context, code int, msg string) {
	c.AbortWithStatusJSON(code, gin.H{"status": "error", "message": msg})
}

func failErr(c *gin.Context, err error) {
	code := http.StatusInternalServerError
	if errors.Is(err, errclass.ErrValidation) {
		code = http.StatusBadRequest
	}
	logging.Warn("gateway request failed", map[string]any{"action": c.Query("action"), "error": err.Error()})
	fail(c, code, err.Error())
}

func (s *Server) handleGet(c *gin.Context) {
	ctx := c.Request.Context()
	switch action := c.Query("action"); action {
	case "read":
		tab := c.Query("tab")
		if tab == "" {
			fail(c, http.StatusBadRequest, "tab is required")
			return
		}
		rows, err := s.store.Read(ctx, tab)
		if err != nil {
			failErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "rows": rows})
	case "readSettings":
		blob, err := s.store.ReadSettings(ctx)
		if err != nil {
			failErr(c, err)
			return
		}
		var settings any
		if blob != nil {
			settings = json.RawMessage(blob)
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "settings": settings})
	default:
		fail(c, http.StatusBadRequest, "unknown action "+action)
	}
}

type postRequest struct {
	Action   string          `json:"action"`
	SheetTab string          `json:"sheetTab"`
	Key      string          `json:"key"`
	Headers  []string        `json:"headers"`
	Row      []string        `json:"row"`
	Settings json.RawMessage `json:"settings"`
}

func (s *Server) handlePost(c *gin.Context) {
	raw, _ := c.Get(bodyKey)
	body, _ := raw.([]byte)
	var req postRequest
	if err := json.Unmarshal(body, &req); err != nil {
		fail(c, http.StatusBadRequest, "invalid json body")
		return
	}

	ctx := c.Request.Context()
	var err error
	switch req.Action {
	case "append":
		err = s.store.Append(ctx, req.SheetTab, req.Headers, req.Row)
	case "upsert":
		err = s.store.Upsert(ctx, req.SheetTab, req.Key, req.Headers, req.Row)
	case "saveSettings":
		if len(req.Settings) == 0 {
			fail(c, http.StatusBadRequest, "settings are required")
			return
		}
		err = s.store.SaveSettings(ctx, req.Settings)
	default:
		fail(c, http.StatusBadRequest, "unknown action "+req.Action)
		return
	}
	if err != nil {
		failErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.Info("gateway listening", map[string]any{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
