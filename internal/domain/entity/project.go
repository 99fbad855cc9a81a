package entity

import (
	"context"
	"fmt"

	"github.com/garyjia/freelance-billing/internal/domain/money"
	"github.com/garyjia/freelance-billing/pkg/utils"
	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle status of a project
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCancelled ProjectStatus = "cancelled"
)

// ProjectStatuses lists every project status in display order
var ProjectStatuses = []ProjectStatus{ProjectActive, ProjectOnHold, ProjectCompleted, ProjectCancelled}

func (s ProjectStatus) String() string { return string(s) }

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold, ProjectCancelled:
		return true
	}
	return false
}

func (s ProjectStatus) IsTerminal() bool {
	return s == ProjectCompleted || s == ProjectCancelled
}

// ParseProjectStatus converts a stored or user supplied value
func ParseProjectStatus(s string) (ProjectStatus, error) {
	status := ProjectStatus(s)
	if !status.IsValid() {
		return "", Invalid("unknown project status %q", s)
	}
	return status, nil
}

// Project is billable work for one client, priced either hourly or at a fixed rate
type Project struct {
	Record
	ClientID    int64               `json:"client_id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	HourlyRate  decimal.NullDecimal `json:"hourly_rate"`
	FixedRate   decimal.NullDecimal `json:"fixed_rate"`
	HoursWorked decimal.Decimal     `json:"hours_worked"`
	Status      ProjectStatus       `json:"status"`
}

// ProjectInput carries editable project fields. Nil pointers leave a field unchanged on update.
type ProjectInput struct {
	ClientID    int64            `json:"client_id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
	FixedRate   *decimal.Decimal `json:"fixed_rate"`
}

// NewProject validates a new active project
func NewProject(in ProjectInput, limits money.Limits) (*Project, error) {
	if in.ClientID <= 0 {
		return nil, Invalid("client id is required")
	}
	if in.HourlyRate != nil && in.FixedRate != nil {
		return nil, Invalid("project must have either an hourly rate or a fixed rate, not both")
	}
	if in.HourlyRate == nil && in.FixedRate == nil {
		return nil, Invalid("project must have either an hourly rate or a fixed rate")
	}

	p := &Project{
		ClientID:    in.ClientID,
		HoursWorked: decimal.Zero,
		Status:      ProjectActive,
	}
	p.apply(in)
	if err := p.Validate(limits); err != nil {
		return nil, err
	}
	return p, nil
}

// Update applies in. Setting one pricing mode clears the other.
func (p *Project) Update(in ProjectInput, limits money.Limits) error {
	if in.HourlyRate != nil && in.FixedRate != nil {
		return Invalid("project must have either an hourly rate or a fixed rate, not both")
	}
	updated := *p
	updated.apply(in)
	if err := updated.Validate(limits); err != nil {
		return err
	}
	*p = updated
	return nil
}

func (p *Project) apply(in ProjectInput) {
	if in.Name != nil {
		p.Name = utils.SanitizeString(*in.Name)
	}
	if in.Description != nil {
		p.Description = utils.SanitizeString(*in.Description)
	}
	if in.HourlyRate != nil {
		p.HourlyRate = decimal.NewNullDecimal(money.Round(*in.HourlyRate))
		p.FixedRate = decimal.NullDecimal{}
	}
	if in.FixedRate != nil {
		p.FixedRate = decimal.NewNullDecimal(money.Round(*in.FixedRate))
		p.HourlyRate = decimal.NullDecimal{}
	}
}

// Validate checks the project invariants
func (p *Project) Validate(limits money.Limits) error {
	if err := utils.ValidateRequired("project name", p.Name, utils.MaxStringLength); err != nil {
		return InvalidErr(err)
	}
	if p.HourlyRate.Valid == p.FixedRate.Valid {
		return Invalid("project must have exactly one of hourly rate or fixed rate")
	}
	rate := p.Rate()
	if !rate.IsPositive() {
		return Invalid("project rate must be greater than 0")
	}
	if err := money.ValidateRate(rate, limits); err != nil {
		return InvalidErr(err)
	}
	if p.HoursWorked.IsNegative() {
		return Invalid("hours worked cannot be negative")
	}
	if !p.Status.IsValid() {
		return Invalid("unknown project status %q", p.Status)
	}
	return nil
}

// IsHourly reports whether the project is billed by the hour
func (p *Project) IsHourly() bool {
	return p.HourlyRate.Valid
}

// Rate returns whichever rate is set
func (p *Project) Rate() decimal.Decimal {
	if p.HourlyRate.Valid {
		return p.HourlyRate.Decimal
	}
	return p.FixedRate.Decimal
}

// RateType returns "Hourly" or "Fixed"
func (p *Project) RateType() string {
	if p.IsHourly() {
		return "Hourly"
	}
	return "Fixed"
}

// CalculateAmount is the fixed rate, or hourly rate times hours worked
func (p *Project) CalculateAmount() decimal.Decimal {
	if p.FixedRate.Valid {
		return p.FixedRate.Decimal
	}
	if p.HourlyRate.Valid {
		return money.Round(p.HourlyRate.Decimal.Mul(p.HoursWorked))
	}
	return decimal.Zero
}

// AddHours logs time on an active hourly project
func (p *Project) AddHours(hours decimal.Decimal, limits money.Limits) error {
	if !hours.IsPositive() {
		return Invalid("hours must be greater than 0")
	}
	if !p.IsHourly() {
		return NotAllowed("cannot add hours to fixed-rate project %q", p.Name)
	}
	if p.Status != ProjectActive {
		return NotAllowed("cannot add hours to %s project %q", p.Status, p.Name)
	}
	total := p.HoursWorked.Add(hours)
	if !limits.MaxQuantity.IsZero() && total.GreaterThan(limits.MaxQuantity) {
		return Invalid("hours worked cannot exceed %s", limits.MaxQuantity)
	}
	p.HoursWorked = total
	return nil
}

// CorrectHours replaces the logged hours. It is the only way to lower them.
func (p *Project) CorrectHours(hours decimal.Decimal) error {
	if hours.IsNegative() {
		return Invalid("hours worked cannot be negative")
	}
	if !p.IsHourly() {
		return NotAllowed("cannot set hours on fixed-rate project %q", p.Name)
	}
	p.HoursWorked = hours
	return nil
}

// Complete marks an active or paused project as completed
func (p *Project) Complete(ctx context.Context) error {
	return p.fire(ctx, ProjectTriggerComplete)
}

// Pause puts an active project on hold
func (p *Project) Pause(ctx context.Context) error {
	return p.fire(ctx, ProjectTriggerPause)
}

// Resume reactivates a project on hold
func (p *Project) Resume(ctx context.Context) error {
	return p.fire(ctx, ProjectTriggerResume)
}

// Cancel abandons a project that is not finished
func (p *Project) Cancel(ctx context.Context) error {
	return p.fire(ctx, ProjectTriggerCancel)
}

func (p *Project) fire(ctx context.Context, trigger ProjectTrigger) error {
	next, err := fire(ctx, projectLifecycle, p.Status, trigger)
	if err != nil {
		return fmt.Errorf("project %q: %w", p.Name, err)
	}
	p.Status = next
	return nil
}
