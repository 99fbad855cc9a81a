package event

// Type identifies the type of domain event
type Type string

const (
	TypeInvoiceCreated       Type = "invoice.created"
	TypeInvoiceStatusChanged Type = "invoice.status_changed"
	TypeInvoiceDeleted       Type = "invoice.deleted"
	TypePaymentRecorded      Type = "payment.recorded"
	TypePaymentUpdated       Type = "payment.updated"
	TypePaymentDeleted       Type = "payment.deleted"
	TypePaymentStatusChanged Type = "payment.status_changed"
	TypeProjectStatusChanged Type = "project.status_changed"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeInvoiceCreated,
		TypeInvoiceStatusChanged,
		TypeInvoiceDeleted,
		TypePaymentRecorded,
		TypePaymentUpdated,
		TypePaymentDeleted,
		TypePaymentStatusChanged,
		TypeProjectStatusChanged:
		return true
	default:
		return false
	}
}

// IsStatusChange reports whether events of this type carry a previous and new status
func (t Type) IsStatusChange() bool {
	switch t {
	case TypeInvoiceStatusChanged, TypePaymentStatusChanged, TypeProjectStatusChanged:
		return true
	default:
		return false
	}
}
