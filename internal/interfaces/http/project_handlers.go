package http

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/garyjia/freelance-billing/internal/application/port"
	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

type hoursRequest struct {
	Hours decimal.Decimal `json:"hours" binding:"required"`
}

func (h *Handlers) CreateProject(c *gin.Context) {
	var in entity.ProjectInput
	if !bind(c, &in) {
		return
	}
	project, err := h.svc.Projects.CreateProject(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "create project", err)
		return
	}
	created(c, project)
}

// ListProjects handles GET /api/v1/projects?client_id=&status=&q=
func (h *Handlers) ListProjects(c *gin.Context) {
	clientID, valid := queryID(c, "client_id")
	if !valid {
		return
	}
	filter := port.ProjectFilter{ClientID: clientID, Search: c.Query("q")}
	if raw := c.Query("status"); raw != "" {
		status, err := entity.ParseProjectStatus(raw)
		if err != nil {
			h.fail(c, "list projects", err)
			return
		}
		filter.Status = status
	}

	projects, err := h.svc.Projects.ListProjects(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "list projects", err)
		return
	}
	ok(c, projects)
}

func (h *Handlers) GetProject(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	project, err := h.svc.Projects.GetProject(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get project", err)
		return
	}
	ok(c, project)
}

func (h *Handlers) UpdateProject(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var in entity.ProjectInput
	if !bind(c, &in) {
		return
	}
	project, err := h.svc.Projects.UpdateProject(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, "update project", err)
		return
	}
	ok(c, project)
}

func (h *Handlers) DeleteProject(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Projects.DeleteProject(c.Request.Context(), id); err != nil {
		h.fail(c, "delete project", err)
		return
	}
	ok(c, gin.H{"deleted": id})
}

// AddHours handles POST /api/v1/projects/:id/hours
func (h *Handlers) AddHours(c *gin.Context) {
	h.hours(c, "add hours", h.svc.Projects.AddHours)
}

// CorrectHours handles PUT /api/v1/projects/:id/hours and replaces the logged total
func (h *Handlers) CorrectHours(c *gin.Context) {
	h.hours(c, "correct hours", h.svc.Projects.CorrectHours)
}

func (h *Handlers) hours(c *gin.Context, action string, apply func(context.Context, int64, decimal.Decimal) (*entity.Project, error)) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var req hoursRequest
	if !bind(c, &req) {
		return
	}
	project, err := apply(c.Request.Context(), id, req.Hours)
	if err != nil {
		h.fail(c, action, err)
		return
	}
	ok(c, project)
}

func (h *Handlers) ProjectEarnings(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	earned, err := h.svc.Projects.ProjectEarnings(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "compute project earnings", err)
		return
	}
	ok(c, gin.H{"project_id": id, "earnings": earned})
}

func (h *Handlers) CompleteProject(c *gin.Context) {
	h.projectTransition(c, "complete project", h.svc.Projects.CompleteProject)
}

func (h *Handlers) PauseProject(c *gin.Context) {
	h.projectTransition(c, "pause project", h.svc.Projects.PauseProject)
}

func (h *Handlers) ResumeProject(c *gin.Context) {
	h.projectTransition(c, "resume project", h.svc.Projects.ResumeProject)
}

func (h *Handlers) CancelProject(c *gin.Context) {
	h.projectTransition(c, "cancel project", h.svc.Projects.CancelProject)
}

func (h *Handlers) projectTransition(c *gin.Context, action string, fire func(context.Context, int64) (*entity.Project, error)) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	project, err := fire(c.Request.Context(), id)
	if err != nil {
		h.fail(c, action, err)
		return
	}
	ok(c, project)
}
