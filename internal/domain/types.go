package domain

import (
	"slices"
	"time"
)

type Category string

const (
	CategoryStandard Category = "standard"
	CategoryReduced  Category = "reduced"
	CategoryGroup    Category = "group"
)

// Categories lists the fare classes a ticket can be issued in.
var Categories = []Category{CategoryStandard, CategoryReduced, CategoryGroup}

func (c Category) Valid() bool {
	return slices.Contains(Categories, c)
}

type TicketState string

const (
	TicketIssued    TicketState = "issued"
	TicketActivated TicketState = "activated"
	TicketValidated TicketState = "validated"
)

type Activation struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

type Validation struct {
	At           time.Time `json:"at"`
	CheckInCount int       `json:"check_in_count"`
}

// Ticket is treated as a value: transitions replace Activation and
// Validation with fresh pointers instead of mutating them in place.
type Ticket struct {
	ID         string      `json:"id"`
	Code       string      `json:"code"`
	Category   Category    `json:"category"`
	IssuedAt   time.Time   `json:"issued_at"`
	Activation *Activation `json:"activation,omitempty"`
	Validation *Validation `json:"validation,omitempty"`
}

func (t Ticket) State() TicketState {
	switch {
	case t.Validation != nil:
		return TicketValidated
	case t.Activation != nil:
		return TicketActivated
	default:
		return TicketIssued
	}
}

// ActivatedBy returns the attributed company name, or "" for an issued ticket.
func (t Ticket) ActivatedBy() string {
	if t.Activation == nil {
		return ""
	}
	return t.Activation.By
}

type ValidationOutcome string

const (
	OutcomeValid     ValidationOutcome = "valid"
	OutcomeInvalid   ValidationOutcome = "invalid"
	OutcomeDuplicate ValidationOutcome = "duplicate"
)

type ActivationLogEntry struct {
	ID          string    `json:"id"`
	TicketID    string    `json:"ticket_id"`
	CompanyName string    `json:"company_name"`
	Timestamp   time.Time `json:"timestamp"`
}

type ValidationLogEntry struct {
	ID              string            `json:"id"`
	TicketID        string            `json:"ticket_id"`
	Timestamp       time.Time         `json:"timestamp"`
	ScannerLocation string            `json:"scanner_location,omitempty"`
	Outcome         ValidationOutcome `json:"outcome"`
}

type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	APIKey    string    `json:"api_key"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

// LedgerSnapshot is the full durable contents of the ticket ledger.
// Tickets are kept in insertion order.
type LedgerSnapshot struct {
	Version       int                  `json:"version"`
	Tickets       []Ticket             `json:"tickets"`
	ActivationLog []ActivationLogEntry `json:"activation_log"`
	ValidationLog []ValidationLogEntry `json:"validation_log"`
}

type RegistrySnapshot struct {
	Version   int       `json:"version"`
	Companies []Company `json:"companies"`
}

const SnapshotVersion = 1

type Stats struct {
	TotalTickets     int `json:"total_tickets"`
	ActivatedTickets int `json:"activated_tickets"`
	ValidatedTickets int `json:"validated_tickets"`
	ActivationLogs   int `json:"activation_logs"`
	ValidationLogs   int `json:"validation_logs"`
}

type CompanyActivations struct {
	Count   int      `json:"count"`
	Tickets []Ticket `json:"tickets"`
}

// ChangeEvent describes a committed ledger mutation.
type ChangeEvent struct {
	Type        string            `json:"type"`
	TicketID    string            `json:"ticket_id,omitempty"`
	CompanyName string            `json:"company_name,omitempty"`
	Outcome     ValidationOutcome `json:"outcome,omitempty"`
	Count       int               `json:"count,omitempty"`
	TsUnix      int64             `json:"ts_unix"`
}

const (
	EventTicketIssued    = "ticket_issued"
	EventTicketActivated = "ticket_activated"
	EventTicketValidated = "ticket_validated"
	EventTicketRemoved   = "ticket_removed"
	EventCompanyPurged   = "company_tickets_removed"
)
