package httpgin

import (
	"time"

	"github.com/kirinyoku/tix-gate/internal/domain"
)

type IssueTicketRequest struct {
	Category domain.Category `json:"category" binding:"required,oneof=standard reduced group"`
}

type BulkIssueRequest struct {
	Category domain.Category `json:"category" binding:"required,oneof=standard reduced group"`
	Count    int             `json:"count" binding:"required,min=1,max=500"`
}

type ActivateRequest struct {
	Code        string `json:"code" binding:"required"`
	CompanyName string `json:"company_name" binding:"required"`
	APIKey      string `json:"api_key" binding:"required"`
}

type ValidateRequest struct {
	Code            string `json:"code" binding:"required"`
	ScannerLocation string `json:"scanner_location"`
}

type DeleteTicketRequest struct {
	Code string `json:"code" binding:"required"`
}

type DeleteCompanyTicketsRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
}

type VerifyKeyRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	APIKey      string `json:"api_key" binding:"required"`
}

type CreateCompanyRequest struct {
	Name string `json:"name" binding:"required"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type TicketResponse struct {
	Ticket domain.Ticket `json:"ticket"`
}

type TicketsResponse struct {
	Tickets []domain.Ticket `json:"tickets"`
	Count   int             `json:"count"`
}

type CheckResponse struct {
	Ticket domain.Ticket      `json:"ticket"`
	State  domain.TicketState `json:"state"`
}

// ValidateResponse carries UsedAt only for duplicate scans.
type ValidateResponse struct {
	Valid  bool           `json:"valid"`
	Reason string         `json:"reason,omitempty"`
	UsedAt *time.Time     `json:"used_at,omitempty"`
	Ticket *domain.Ticket `json:"ticket,omitempty"`
}

type DeleteCompanyTicketsResponse struct {
	Removed int `json:"removed"`
}

type VerifyKeyResponse struct {
	Valid bool `json:"valid"`
}

type CompaniesResponse struct {
	Companies []domain.Company `json:"companies"`
}

type ActivationLogResponse struct {
	Entries []domain.ActivationLogEntry `json:"entries"`
}

type ValidationLogResponse struct {
	Entries []domain.ValidationLogEntry `json:"entries"`
}
