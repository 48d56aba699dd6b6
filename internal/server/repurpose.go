package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alkime/repurpose/internal/content"
	"github.com/alkime/repurpose/internal/session"
	"github.com/alkime/repurpose/pkg/channels"
)

const pipelineName = "repurpose"

// Run is a finished repurpose run kept around for download.
type Run struct {
	ID        string          `json:"id"`
	Profile   content.Profile `json:"profile"`
	Result    content.Result  `json:"result"`
	CreatedAt time.Time       `json:"created_at"`
}

// repurposeForm is the body of both the HTML form and the JSON API.
type repurposeForm struct {
	Name       string   `form:"name" json:"name"`
	Profession string   `form:"profession" json:"profession"`
	Objective  string   `form:"objective" json:"objective"`
	Tone       string   `form:"tone" json:"tone"`
	ExtraInfo  string   `form:"extra_info" json:"extra_info"`
	Platforms  []string `form:"platforms" json:"platforms"`
	Content    string   `form:"content" json:"content"`
}

func (f repurposeForm) input() content.Input {
	return content.Input{
		Profile: content.Profile{
			Name:       f.Name,
			Profession: f.Profession,
			Objective:  f.Objective,
			Tone:       f.Tone,
			ExtraInfo:  f.ExtraInfo,
			Platforms:  f.Platforms,
		},
		Content: f.Content,
	}
}

type indexView struct {
	Form      repurposeForm
	Platforms []string
	Error     string
	Fields    []string
}

type resultView struct {
	Run      Run
	Filename string
}

func newIndexView(form repurposeForm) indexView {
	if len(form.Platforms) == 0 {
		form.Platforms = content.DefaultPlatforms
	}

	return indexView{Form: form, Platforms: content.Platforms}
}

// runPipeline executes the pipeline with metrics and stores the run.
func (s *Server) runPipeline(ctx context.Context, in content.Input, report content.ProgressFunc) (*Run, error) {
	ctx, cancel := s.generationContext(ctx)
	defer cancel()

	res, err := s.pipeline.Run(ctx, in, func(p content.Progress) {
		if p.Status != content.StatusStarted {
			s.metrics.ObserveStage(pipelineName, string(p.Stage), p.Elapsed, p.Status == content.StatusFailed)
		}
		if report != nil {
			report(p)
		}
	})
	if err != nil {
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			s.metrics.ObserveRun("invalid")
		} else {
			s.metrics.ObserveRun("failed")
		}

		return nil, err
	}

	run := &Run{
		ID:        session.NewID(),
		Profile:   in.Normalize().Profile,
		Result:    *res,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.runs.Put(ctx, run.ID, *run); err != nil {
		s.metrics.ObserveRun("failed")
		return nil, fmt.Errorf("failed to store run: %w", err)
	}

	s.metrics.ObserveRun("success")
	s.logger.Info("Repurpose run complete", "run_id", run.ID, "platforms", run.Profile.Platforms)

	return run, nil
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.tmpl", newIndexView(repurposeForm{}))
}

func (s *Server) handleRepurposeForm(c *gin.Context) {
	var form repurposeForm
	if err := c.ShouldBind(&form); err != nil {
		view := newIndexView(form)
		view.Error = "Could not read the form."
		c.HTML(http.StatusBadRequest, "index.tmpl", view)
		return
	}

	run, err := s.runPipeline(c.Request.Context(), form.input(), nil)
	if err != nil {
		view := newIndexView(form)
		view.Error = err.Error()

		status := http.StatusBadGateway
		var verr *content.ValidationError
		if errors.As(err, &verr) {
			status = http.StatusBadRequest
			view.Fields = verr.Fields
		}

		c.HTML(status, "index.tmpl", view)
		return
	}

	c.HTML(http.StatusOK, "result.tmpl", resultView{Run: *run, Filename: run.Result.Filename(run.Profile)})
}

func (s *Server) handleDownloadRun(c *gin.Context) {
	id := c.Param("id")
	if !session.ValidID(id) {
		c.String(http.StatusNotFound, "run not found")
		return
	}

	run, err := s.runs.Get(c.Request.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		c.String(http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to load run", "run_id", id, "error", err)
		c.String(http.StatusInternalServerError, "failed to load run")
		return
	}

	attachment(c, run.Result.Filename(run.Profile), "text/markdown; charset=utf-8", run.Result.Markdown(run.Profile))
}

func (s *Server) handleRepurposeAPI(c *gin.Context) {
	var form repurposeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	run, err := s.runPipeline(c.Request.Context(), form.input(), nil)
	if err != nil {
		status, body := pipelineError(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, runResponse(run))
}

// handleRepurposeStream runs the pipeline and reports each stage as a
// server-sent event, ending with a "result" or "error" event.
func (s *Server) handleRepurposeStream(c *gin.Context) {
	var form repurposeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := form.input()
	if err := in.Validate(); err != nil {
		status, body := pipelineError(err)
		c.JSON(status, body)
		return
	}

	type outcome struct {
		run *Run
		err error
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events := make(chan content.Progress, len(content.Stages)*2)
	done := make(chan outcome, 1)

	go func() {
		run, err := s.runPipeline(ctx, in, func(p content.Progress) {
			if err := channels.Send(ctx, events, p, time.Second); err != nil {
				s.logger.Warn("Dropped progress event", "stage", p.Stage, "error", err)
			}
		})
		close(events)
		done <- outcome{run: run, err: err}
	}()

	c.Header("Cache-Control", "no-cache")
	for p := range events {
		c.SSEvent("stage", p)
		c.Writer.Flush()
	}

	out := <-done
	if out.err != nil {
		_, body := pipelineError(out.err)
		c.SSEvent("error", body)
	} else {
		c.SSEvent("result", runResponse(out.run))
	}
	c.Writer.Flush()
}

func (s *Server) generationContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.GenerationTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, s.config.GenerationTimeout)
}

func runResponse(run *Run) gin.H {
	return gin.H{
		"id":          run.ID,
		"order_block": run.Result.OrderBlock,
		"blueprint":   run.Result.Blueprint,
		"content":     run.Result.Final,
		"filename":    run.Result.Filename(run.Profile),
	}
}

func pipelineError(err error) (int, gin.H) {
	var verr *content.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, gin.H{"error": err.Error(), "fields": verr.Fields}
	}

	var serr *content.StageError
	if errors.As(err, &serr) {
		return http.StatusBadGateway, gin.H{"error": err.Error(), "stage": serr.Stage}
	}

	return http.StatusInternalServerError, gin.H{"error": err.Error()}
}

func attachment(c *gin.Context, filename, contentType, body string) {
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, contentType, []byte(body))
}
