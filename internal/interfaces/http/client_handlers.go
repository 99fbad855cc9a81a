package http

import (
	"github.com/gin-gonic/gin"

	"github.com/garyjia/freelance-billing/internal/domain/entity"
)

// CreateClient handles POST /api/v1/clients
func (h *Handlers) CreateClient(c *gin.Context) {
	var in entity.ClientInput
	if !bind(c, &in) {
		return
	}
	client, err := h.svc.Clients.CreateClient(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "create client", err)
		return
	}
	created(c, client)
}

// ListClients handles GET /api/v1/clients
func (h *Handlers) ListClients(c *gin.Context) {
	clients, err := h.svc.Clients.ListClients(c.Request.Context())
	if err != nil {
		h.fail(c, "list clients", err)
		return
	}
	ok(c, clients)
}

// SearchClients handles GET /api/v1/clients/search?q=
func (h *Handlers) SearchClients(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		badRequest(c, "query parameter q is required")
		return
	}
	clients, err := h.svc.Clients.SearchClients(c.Request.Context(), term)
	if err != nil {
		h.fail(c, "search clients", err)
		return
	}
	ok(c, clients)
}

func (h *Handlers) GetClient(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	client, err := h.svc.Clients.GetClient(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get client", err)
		return
	}
	ok(c, client)
}

// UpdateClient applies a partial update; omitted fields are kept
func (h *Handlers) UpdateClient(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	var in entity.ClientInput
	if !bind(c, &in) {
		return
	}
	client, err := h.svc.Clients.UpdateClient(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, "update client", err)
		return
	}
	ok(c, client)
}

func (h *Handlers) DeleteClient(c *gin.Context) {
	id, valid := pathID(c, "id")
	if !valid {
		return
	}
	if err := h.svc.Clients.DeleteClient(c.Request.Context(), id); err != nil {
		h.fail(c, "delete client", err)
		return
	}
	ok(c, gin.H{"deleted": id})
}
