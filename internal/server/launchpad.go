package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alkime/repurpose/internal/launchpad"
	"github.com/alkime/repurpose/internal/session"
)

// launchpadView is the client-facing session; unrevealed days stay hidden.
type launchpadView struct {
	ID        string                  `json:"id"`
	Screen    launchpad.Screen        `json:"screen"`
	ShowGuide bool                    `json:"show_guide"`
	Inputs    launchpad.Inputs        `json:"inputs"`
	UserTopic string                  `json:"user_topic,omitempty"`
	Relevance *launchpad.Relevance    `json:"relevance,omitempty"`
	Options   []launchpad.TopicOption `json:"options,omitempty"`
	Selected  *launchpad.TopicOption  `json:"selected,omitempty"`
	Strategy  string                  `json:"strategy,omitempty"`
	Days      []launchpad.Day         `json:"days"`
	Revealed  int                     `json:"revealed"`
	TotalDays int                     `json:"total_days"`
	Docs      *launchpad.Docs         `json:"docs,omitempty"`
	PlanCount int                     `json:"plan_count"`
}

func newLaunchpadView(s *launchpad.Session) launchpadView {
	revealed, total := s.Progress()
	days := s.VisibleDays()
	if days == nil {
		days = []launchpad.Day{}
	}

	return launchpadView{
		ID:        s.ID,
		Screen:    s.Screen,
		ShowGuide: s.ShowGuide,
		Inputs:    s.Inputs,
		UserTopic: s.UserTopic,
		Relevance: s.Relevance,
		Options:   s.Options,
		Selected:  s.Selected,
		Strategy:  s.Strategy,
		Days:      days,
		Revealed:  revealed,
		TotalDays: total,
		Docs:      s.Docs,
		PlanCount: s.PlanCount,
	}
}

type beginRequest struct {
	ShowGuide bool `json:"show_guide"`
}

type topicRequest struct {
	Topic string `json:"topic"`
}

type selectRequest struct {
	Index *int `json:"index" binding:"required"`
}

// withLaunchpad loads a session under its lock, applies op and saves the
// session only when op succeeded.
func (s *Server) withLaunchpad(c *gin.Context, op func(ctx context.Context, sess *launchpad.Session) error) {
	id := c.Param("id")
	if !session.ValidID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrNotFound.Error()})
		return
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	ctx := c.Request.Context()

	sess, err := s.launchpads.Get(ctx, id)
	if err != nil {
		s.launchpadError(c, err)
		return
	}

	genCtx, cancel := s.generationContext(ctx)
	defer cancel()

	if err := op(genCtx, &sess); err != nil {
		s.launchpadError(c, err)
		return
	}

	if err := s.launchpads.Put(ctx, id, sess); err != nil {
		s.logger.Error("Failed to save launchpad session", "session", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save session"})
		return
	}

	c.JSON(http.StatusOK, newLaunchpadView(&sess))
}

func (s *Server) launchpadError(c *gin.Context, err error) {
	var inputErr *launchpad.InputError

	switch {
	case errors.Is(err, session.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "fields": inputErr.Fields})
	case errors.Is(err, launchpad.ErrInvalidSelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, launchpad.ErrWrongScreen),
		errors.Is(err, launchpad.ErrWeekComplete),
		errors.Is(err, launchpad.ErrWeekIncomplete):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case launchpad.IsGenerationError(err):
		s.logger.Error("Launchpad generation failed", "session", c.Param("id"), "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// bindOptional binds a JSON body when one was sent.
func bindOptional(c *gin.Context, v any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}

	return c.ShouldBindJSON(v)
}

func (s *Server) handleLaunchpadCreate(c *gin.Context) {
	sess := launchpad.New(session.NewID())
	if err := s.launchpads.Put(c.Request.Context(), sess.ID, *sess); err != nil {
		s.logger.Error("Failed to create launchpad session", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, newLaunchpadView(sess))
}

func (s *Server) handleLaunchpadGet(c *gin.Context) {
	s.withLaunchpad(c, func(context.Context, *launchpad.Session) error { return nil })
}

func (s *Server) handleLaunchpadBegin(c *gin.Context) {
	var req beginRequest
	if err := bindOptional(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.withLaunchpad(c, func(_ context.Context, sess *launchpad.Session) error {
		return s.engine.Begin(sess, req.ShowGuide)
	})
}

func (s *Server) handleLaunchpadInputs(c *gin.Context) {
	var in launchpad.Inputs
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.withLaunchpad(c, func(_ context.Context, sess *launchpad.Session) error {
		return s.engine.SubmitInputs(sess, in)
	})
}

func (s *Server) handleLaunchpadTopic(c *gin.Context) {
	var req topicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.withLaunchpad(c, func(ctx context.Context, sess *launchpad.Session) error {
		return s.engine.CheckTopic(ctx, sess, req.Topic)
	})
}

func (s *Server) handleLaunchpadKeep(c *gin.Context) {
	s.withLaunchpad(c, func(_ context.Context, sess *launchpad.Session) error {
		return s.engine.KeepTopic(sess)
	})
}

func (s *Server) handleLaunchpadSuggest(c *gin.Context) {
	s.withLaunchpad(c, func(ctx context.Context, sess *launchpad.Session) error {
		return s.engine.SuggestTopics(ctx, sess)
	})
}

func (s *Server) handleLaunchpadRegenerate(c *gin.Context) {
	s.withLaunchpad(c, func(ctx context.Context, sess *launchpad.Session) error {
		return s.engine.Regenerate(ctx, sess)
	})
}

func (s *Server) handleLaunchpadSelect(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index is required"})
		return
	}

	s.withLaunchpad(c, func(ctx context.Context, sess *launchpad.Session) error {
		return s.engine.Select(ctx, sess, *req.Index)
	})
}

func (s *Server) handleLaunchpadReveal(c *gin.Context) {
	s.withLaunchpad(c, func(_ context.Context, sess *launchpad.Session) error {
		_, err := s.engine.RevealNext(sess)
		return err
	})
}

func (s *Server) handleLaunchpadDocs(c *gin.Context) {
	s.withLaunchpad(c, func(ctx context.Context, sess *launchpad.Session) error {
		return s.engine.BuildDocs(ctx, sess)
	})
}

func (s *Server) handleLaunchpadRestart(c *gin.Context) {
	s.withLaunchpad(c, func(_ context.Context, sess *launchpad.Session) error {
		return s.engine.Restart(sess)
	})
}

func (s *Server) handleLaunchpadDownload(c *gin.Context) {
	id := c.Param("id")
	if !session.ValidID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": session.ErrNotFound.Error()})
		return
	}

	sess, err := s.launchpads.Get(c.Request.Context(), id)
	if err != nil {
		s.launchpadError(c, err)
		return
	}

	pack, err := sess.Export()
	if err != nil {
		s.launchpadError(c, err)
		return
	}

	attachment(c, sess.Filename(), "text/plain; charset=utf-8", pack)
}
