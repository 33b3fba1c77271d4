package main

import (
	_ "embed"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nubank/doc-ia/internal"
	"github.com/nubank/doc-ia/internal/bootstrap"
	"github.com/nubank/doc-ia/internal/config"
	"github.com/nubank/doc-ia/internal/store"
	"github.com/nubank/doc-ia/internal/turn"
)

//go:embed templates/index.html
var indexHTML []byte

const (
	sessionCookie = "doc_session"
	// uploads are only sniffed and excerpted, never stored whole
	uploadReadLimit = 1 << 20
)

type SendMessageRequest struct {
	Content string `json:"content"`
}

type SendMessageResponse struct {
	Reply internal.Message `json:"reply"`
	Model string           `json:"model"`
}

// server holds one history per browser session, keyed by cookie.
type server struct {
	sessions   *store.Sessions[*turn.Session]
	controller *turn.Controller
	model      string
	logger     *zap.Logger
}

func newServer(controller *turn.Controller, model string, cfg config.ServerConfig, logger *zap.Logger) *server {
	newSession := func() *turn.Session { return turn.NewSession(nil) }
	return &server{
		sessions:   store.NewSessions(newSession, cfg.SessionTTL, uint64(cfg.MaxSessions)),
		controller: controller,
		model:      model,
		logger:     logger,
	}
}

func newRouter(srv *server, allowedOrigin string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(srv.logger))

	// CORS with credentials for a separately served front-end
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	started := time.Now()
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "started": started.Format(time.RFC3339)})
	})

	r.GET("/api/model", func(c *gin.Context) {
		c.JSON(http.StatusOK, internal.ModelResponse{Model: srv.model})
	})

	// a page load is a new conversation
	r.GET("/", func(c *gin.Context) {
		srv.fresh(c)
		c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
	})

	r.POST("/ask", srv.ask)

	// reading never starts a session
	r.GET("/api/messages", func(c *gin.Context) {
		messages := []internal.Message{}
		id, _ := c.Cookie(sessionCookie)
		if sess, ok := srv.sessions.Lookup(id); ok {
			messages = sess.History.All()
		}
		c.JSON(http.StatusOK, internal.ChatHistory{Messages: messages})
	})

	r.POST("/api/messages", func(c *gin.Context) {
		var req SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
		reply, ok := srv.submit(c, internal.Event{Text: req.Content, Source: internal.SourceTyped})
		if !ok {
			return
		}
		c.JSON(http.StatusOK, SendMessageResponse{
			Reply: internal.Message{Role: internal.RoleAssistant, Content: reply.Text, CreatedAt: time.Now()},
			Model: srv.model,
		})
	})

	r.POST("/api/reset", func(c *gin.Context) {
		srv.fresh(c)
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	return r
}

// ask takes the page form: message, optional source and optional file.
func (srv *server) ask(c *gin.Context) {
	ev := internal.Event{Text: c.PostForm("message"), Source: internal.SourceTyped}
	if c.PostForm("source") == string(internal.SourceSpeech) {
		ev.Source = internal.SourceSpeech
	}
	if fh, err := c.FormFile("file"); err == nil && fh.Filename != "" {
		ev.Attachment = srv.readUpload(fh)
	}

	reply, ok := srv.submit(c, ev)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, internal.AskResponse{Response: reply.Text})
}

func (srv *server) submit(c *gin.Context, ev internal.Event) (internal.Reply, bool) {
	sess := srv.open(c)
	reply, err := srv.controller.Submit(c.Request.Context(), sess, ev)
	if errors.Is(err, turn.ErrBusy) {
		c.JSON(http.StatusConflict, gin.H{"error": "still answering your previous message"})
		return internal.Reply{}, false
	}
	if err != nil {
		srv.logger.Error("exchange failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return internal.Reply{}, false
	}
	return reply, true
}

// readUpload keeps the filename even when the body cannot be read; the
// normalizer then falls back to the filename marker alone.
func (srv *server) readUpload(fh *multipart.FileHeader) *internal.Attachment {
	a := &internal.Attachment{Filename: fh.Filename}
	f, err := fh.Open()
	if err != nil {
		srv.logger.Warn("upload could not be opened", zap.String("filename", fh.Filename), zap.Error(err))
		return a
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, uploadReadLimit))
	if err != nil {
		srv.logger.Warn("upload could not be read", zap.String("filename", fh.Filename), zap.Error(err))
		return a
	}
	a.Data = data
	return a
}

func (srv *server) open(c *gin.Context) *turn.Session {
	id, _ := c.Cookie(sessionCookie)
	id, sess := srv.sessions.Open(id)
	setSessionCookie(c, id)
	return sess
}

func (srv *server) fresh(c *gin.Context) {
	previous, _ := c.Cookie(sessionCookie)
	id, _ := srv.sessions.Fresh(previous)
	setSessionCookie(c, id)
}

func setSessionCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, id, 0, "/", "", false, true)
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}

func main() {
	services, err := bootstrap.Build(false)
	if err != nil {
		panic(err)
	}
	logger := services.Logger
	defer func() { _ = logger.Sync() }()

	cfg := services.Config
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := newServer(services.Controller, services.Model, cfg.Server, logger)
	go srv.sessions.Start()
	defer srv.sessions.Stop()
	r := newRouter(srv, cfg.Server.AllowedOrigin)

	logger.Info("listening",
		zap.String("port", cfg.Server.Port),
		zap.Duration("session_ttl", cfg.Server.SessionTTL),
		zap.Int("max_sessions", cfg.Server.MaxSessions))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
