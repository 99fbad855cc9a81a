package entity

import (
	"fmt"
	"strings"

	"github.com/garyjia/freelance-billing/pkg/utils"
)

// Client is a customer who receives invoices
type Client struct {
	Record
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Address string `json:"address,omitempty"`
}

// ClientInput carries the editable client fields. Nil pointers leave a field unchanged on update.
type ClientInput struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Company *string `json:"company"`
	Address *string `json:"address"`
}

// NewClient validates and normalises a new client
func NewClient(in ClientInput) (*Client, error) {
	c := &Client{}
	c.apply(in)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Update applies the non-nil fields of in and revalidates
func (c *Client) Update(in ClientInput) error {
	updated := *c
	updated.apply(in)
	if err := updated.Validate(); err != nil {
		return err
	}
	*c = updated
	return nil
}

func (c *Client) apply(in ClientInput) {
	if in.Name != nil {
		c.Name = utils.SanitizeString(*in.Name)
	}
	if in.Email != nil {
		c.Email = utils.NormalizeEmail(*in.Email)
	}
	if in.Phone != nil {
		c.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Company != nil {
		c.Company = utils.SanitizeString(*in.Company)
	}
	if in.Address != nil {
		c.Address = utils.SanitizeString(*in.Address)
	}
}

// Validate checks the client invariants
func (c *Client) Validate() error {
	if err := utils.ValidateRequired("client name", c.Name, utils.MaxStringLength); err != nil {
		return InvalidErr(err)
	}
	if err := utils.ValidateEmail(c.Email); err != nil {
		return InvalidErr(err)
	}
	for field, value := range map[string]string{"phone": c.Phone, "company": c.Company} {
		if err := utils.ValidateLength(field, value, utils.MaxStringLength); err != nil {
			return InvalidErr(err)
		}
	}
	return nil
}

// DisplayName returns "Name (Company)" when a company is set
func (c *Client) DisplayName() string {
	if c.Company != "" {
		return fmt.Sprintf("%s (%s)", c.Name, c.Company)
	}
	return c.Name
}
