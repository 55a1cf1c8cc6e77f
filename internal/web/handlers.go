package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"simpletodo/internal/logging"
	"simpletodo/internal/service"
)

const maxTextSize = 10 << 10 // 10KB

// taskJSON is the wire form of a task, matching the persisted field names.
type taskJSON struct {
	ID     service.ID `json:"id"`
	Text   string     `json:"text"`
	IsDone bool       `json:"isDone"`
}

func toJSON(t service.Task) taskJSON {
	return taskJSON{ID: t.ID, Text: t.Text, IsDone: t.IsDone}
}

func toJSONList(tasks []service.Task) []taskJSON {
	out := make([]taskJSON, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toJSON(t))
	}
	return out
}

type createRequest struct {
	Text   string `json:"text"`
	IsDone bool   `json:"isDone"`
}

// updateRequest carries the changeable fields. ID is only decoded so a
// request trying to change it can be rejected.
type updateRequest struct {
	ID     json.RawMessage `json:"id"`
	Text   *string         `json:"text"`
	IsDone *bool           `json:"isDone"`
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", logging.Fields{
			"path":       c.Request.URL.Path,
			"request_id": c.GetString("request_id"),
			"error":      err.Error(),
		})
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func paramID(c *gin.Context) (service.ID, error) {
	return service.ParseID(c.Param("id"))
}

// Page handlers

func (s *Server) renderIndex(c *gin.Context, status int, errMsg string) {
	tasks := s.svc.List()
	open := 0
	for _, t := range tasks {
		if !t.IsDone {
			open++
		}
	}
	c.HTML(status, PageTemplate, gin.H{
		"tasks": tasks,
		"open":  open,
		"error": errMsg,
	})
}

func (s *Server) handleIndex(c *gin.Context) {
	s.renderIndex(c, http.StatusOK, "")
}

func (s *Server) handleFormAdd(c *gin.Context) {
	if _, err := s.svc.Add(c.PostForm("text"), false); err != nil {
		s.renderIndex(c, statusFor(err), err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleFormToggle(c *gin.Context) {
	id, err := paramID(c)
	if err == nil {
		err = s.toggle(id)
	}
	if err != nil {
		s.renderIndex(c, statusFor(err), err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) handleFormDelete(c *gin.Context) {
	id, err := paramID(c)
	if err == nil {
		err = s.svc.Delete(id)
	}
	if err != nil {
		s.renderIndex(c, statusFor(err), err.Error())
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// toggle flips the stored flag; the page's view of the task is never trusted.
func (s *Server) toggle(id service.ID) error {
	t, err := s.svc.Get(id)
	if err != nil {
		return err
	}
	return s.svc.Update(id, service.SetDone(!t.IsDone))
}

// API handlers

func (s *Server) handleAPIList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toJSONList(s.svc.List()),
	})
}

func (s *Server) handleAPIGet(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.svc.Get(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toJSON(t),
	})
}

func (s *Server) handleAPICreate(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", service.ErrInvalidArgument, err))
		return
	}
	if len(req.Text) > maxTextSize {
		s.fail(c, fmt.Errorf("%w: text exceeds maximum size of 10KB", service.ErrInvalidArgument))
		return
	}

	t, err := s.svc.Add(req.Text, req.IsDone)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    toJSON(t),
	})
}

func (s *Server) handleAPIUpdate(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, fmt.Errorf("%w: %v", service.ErrInvalidArgument, err))
		return
	}
	if req.ID != nil {
		s.fail(c, fmt.Errorf("%w: id cannot be changed", service.ErrInvalidArgument))
		return
	}
	if req.Text != nil && len(*req.Text) > maxTextSize {
		s.fail(c, fmt.Errorf("%w: text exceeds maximum size of 10KB", service.ErrInvalidArgument))
		return
	}

	if err := s.svc.Update(id, service.Patch{Text: req.Text, IsDone: req.IsDone}); err != nil {
		s.fail(c, err)
		return
	}
	t, err := s.svc.Get(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    toJSON(t),
	})
}

func (s *Server) handleAPIDelete(c *gin.Context) {
	id, err := paramID(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	if err := s.svc.Delete(id); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
