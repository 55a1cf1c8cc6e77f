// Package web serves the task page and the JSON API used by `todo serve`.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"simpletodo/internal/logging"
	"simpletodo/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// PageTemplate is the template the task page is rendered from.
const PageTemplate = "index.html"

// ErrMissingElement is returned by NewServer when the page template is absent.
var ErrMissingElement = errors.New("missing page element")

// Options configures a Server.
type Options struct {
	// Templates overrides the embedded page templates. Files must match
	// templates/*.html.
	Templates fs.FS

	// Logger receives request and change-feed logs. Nil discards.
	Logger *logging.Logger
}

// Server is the task web server.
type Server struct {
	svc    service.Service
	router *gin.Engine
	log    *logging.Logger
	hub    *hub

	unsubscribe func()
}

// NewServer builds the router and subscribes the change feed to svc.
func NewServer(svc service.Service, opts Options) (*Server, error) {
	fsys := opts.Templates
	if fsys == nil {
		fsys = templateFS
	}
	tmpl, err := template.ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingElement, err)
	}
	if tmpl.Lookup(PageTemplate) == nil {
		return nil, fmt.Errorf("%w: template %s", ErrMissingElement, PageTemplate)
	}

	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}
	log = log.WithComponent("web")

	router := gin.New()
	router.Use(gin.Recovery(), requestID(), accessLog(log))
	router.SetHTMLTemplate(tmpl)

	s := &Server{
		svc:    svc,
		router: router,
		log:    log,
		hub:    newHub(svc, log),
	}
	s.unsubscribe = svc.Subscribe(s.hub.broadcast)

	// Page routes
	router.GET("/", s.handleIndex)
	router.POST("/tasks", s.handleFormAdd)
	router.POST("/tasks/:id/toggle", s.handleFormToggle)
	router.POST("/tasks/:id/delete", s.handleFormDelete)

	// API routes
	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleAPIList)
		api.GET("/tasks/:id", s.handleAPIGet)
		api.POST("/tasks", s.handleAPICreate)
		api.PATCH("/tasks/:id", s.handleAPIUpdate)
		api.DELETE("/tasks/:id", s.handleAPIDelete)
		api.GET("/events", s.handleEvents)
	}

	return s, nil
}

// ServeHTTP makes the server usable with httptest and custom listeners.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", logging.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.hub.closeAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close detaches the change feed from the repository and drops all
// websocket clients. The repository itself is left open.
func (s *Server) Close() error {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.hub.closeAll()
	return nil
}

// requestID tags every request with an X-Request-ID, reusing the client's.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

func accessLog(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request", logging.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"request_id": c.GetString("request_id"),
			"elapsed":    time.Since(start).String(),
		})
	}
}
