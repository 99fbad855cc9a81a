// Package report holds read-only aggregations over billing records. Every
// function is a deterministic fold over its inputs and never fails on a
// dangling reference: a missing client or project is reported as Unknown.
package report

import "github.com/garyjia/freelance-billing/internal/domain/entity"

// UnknownLabel stands in for a related record that no longer exists
const UnknownLabel = "Unknown"

// Directory resolves client and project ids to display names
type Directory struct {
	clients  map[int64]*entity.Client
	projects map[int64]*entity.Project
}

// NewDirectory indexes clients and projects by id
func NewDirectory(clients []*entity.Client, projects []*entity.Project) Directory {
	d := Directory{
		clients:  make(map[int64]*entity.Client, len(clients)),
		projects: make(map[int64]*entity.Project, len(projects)),
	}
	for _, c := range clients {
		d.clients[c.ID] = c
	}
	for _, p := range projects {
		d.projects[p.ID] = p
	}
	return d
}

// Client returns the client with id, or nil
func (d Directory) Client(id int64) *entity.Client {
	return d.clients[id]
}

// ClientName returns the client's display name or UnknownLabel
func (d Directory) ClientName(id int64) string {
	if c, ok := d.clients[id]; ok {
		return c.DisplayName()
	}
	return UnknownLabel
}

// ClientEmail returns the client's email or ""
func (d Directory) ClientEmail(id int64) string {
	if c, ok := d.clients[id]; ok {
		return c.Email
	}
	return ""
}

// ProjectName returns the project name, "" for nil, or UnknownLabel
func (d Directory) ProjectName(id *int64) string {
	if id == nil {
		return ""
	}
	if p, ok := d.projects[*id]; ok {
		return p.Name
	}
	return UnknownLabel
}
