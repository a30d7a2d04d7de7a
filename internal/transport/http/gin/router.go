package httpgin

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/kirinyoku/tix-gate/internal/metrics"
	redisrepo "github.com/kirinyoku/tix-gate/internal/repository/redis"
	"github.com/kirinyoku/tix-gate/internal/service"
	"github.com/kirinyoku/tix-gate/internal/service/ledger"
	"github.com/kirinyoku/tix-gate/internal/service/registry"
	"github.com/kirinyoku/tix-gate/internal/uow"
)

const (
	idemScopeIssue = "issue"
	idemPendingTTL = time.Minute
)

// Deps are the collaborators the router serves. Only Services is
// required; redis-backed features switch off when their dependency is nil.
type Deps struct {
	Services      *service.Services
	AdminPassword string
	Idempotency   *redisrepo.IdempotencyStore
	Limiter       Limiter
	Events        *EventHub
	Metrics       *metrics.Metrics
}

func NewRouter(deps Deps, logger *slog.Logger, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), LoggingMiddleware(logger), RequestIDMiddleware(), CORS())
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	svcs := deps.Services

	// Swagger UI
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/healthz", handleHealth(svcs))

	// Scanner API
	scan := r.Group("/api")
	if deps.Limiter != nil {
		scan.Use(RateLimit(deps.Limiter, logger))
	}
	{
		scan.POST("/tickets/activate", handleActivate(svcs))
		scan.POST("/tickets/validate", handleValidate(svcs))
		scan.GET("/tickets/check", handleCheck(svcs))
		scan.POST("/companies/verify-key", handleVerifyKey(svcs))
	}

	// Admin API
	admin := r.Group("/api", AdminGate(deps.AdminPassword, logger))
	{
		admin.POST("/tickets", handleIssue(svcs, deps.Idempotency))
		admin.POST("/tickets/bulk", handleBulkIssue(svcs))
		admin.GET("/tickets", handleListTickets(svcs))
		admin.GET("/tickets/stats", handleStats(svcs))
		admin.GET("/tickets/activations-by-company", handleGroupByCompany(svcs))
		admin.POST("/tickets/delete", handleDeleteTicket(svcs))
		admin.POST("/tickets/delete-company-tickets", handleDeleteCompanyTickets(svcs))

		admin.GET("/logs/activations", handleActivationLog(svcs))
		admin.GET("/logs/validations", handleValidationLog(svcs))

		admin.GET("/companies", handleListCompanies(svcs))
		admin.POST("/companies", handleCreateCompany(svcs))
		admin.DELETE("/companies/:id", handleDeleteCompany(svcs))
		admin.POST("/companies/:id/regenerate-key", handleRegenerateKey(svcs))
		admin.POST("/companies/:id/active", handleSetActive(svcs))

		if deps.Events != nil {
			admin.GET("/events", handleEvents(deps.Events))
		}
	}

	return r
}

// @Summary  Liveness and load status
// @Success  200 {object} map[string]string
// @Failure  503 {object} ErrorResponse
// @Router   /healthz [get]
func handleHealth(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.WaitReady(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "state not loaded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// @Summary  Activate ticket for a company
// @Param    req body  ActivateRequest true "payload"
// @Success  200 {object} TicketResponse
// @Failure  401 {object} ErrorResponse "unknown company or key"
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "already activated"
// @Failure  429 {object} ErrorResponse "rate limited"
// @Router   /api/tickets/activate [post]
func handleActivate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ActivateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ok, err := svcs.Registry.Authorize(c.Request.Context(), req.CompanyName, req.APIKey)
		if err != nil {
			respondErr(c, err)
			return
		}
		if !ok {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid company name or api key"})
			return
		}

		t, err := svcs.Ledger.Activate(c.Request.Context(), req.Code, req.CompanyName)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, TicketResponse{Ticket: t})
	}
}

// @Summary  Validate ticket at the gate
// @Param    req body  ValidateRequest true "payload"
// @Success  200 {object} ValidateResponse
// @Failure  404 {object} ErrorResponse
// @Failure  409 {object} ValidateResponse "not activated or already used"
// @Router   /api/tickets/validate [post]
func handleValidate(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ValidateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		t, err := svcs.Ledger.Validate(c.Request.Context(), req.Code, req.ScannerLocation)
		if err != nil {
			var dup *ledger.AlreadyValidatedError
			switch {
			case errors.As(err, &dup):
				usedAt := dup.UsedAt
				c.JSON(http.StatusConflict, ValidateResponse{Reason: "already used", UsedAt: &usedAt})
			case errors.Is(err, ledger.ErrNotActivated):
				c.JSON(http.StatusConflict, ValidateResponse{Reason: "not activated"})
			default:
				respondErr(c, err)
			}
			return
		}

		c.JSON(http.StatusOK, ValidateResponse{Valid: true, Ticket: &t})
	}
}

// @Summary  Look up a ticket
// @Param    code query string true "ticket code"
// @Success  200 {object} CheckResponse
// @Failure  404 {object} ErrorResponse
// @Router   /api/tickets/check [get]
func handleCheck(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		if strings.TrimSpace(code) == "" {
			badRequest(c, "code is required")
			return
		}

		t, err := svcs.Ledger.Get(c.Request.Context(), code)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, CheckResponse{Ticket: t, State: t.State()})
	}
}

// @Summary  Check a company API key
// @Param    req body  VerifyKeyRequest true "payload"
// @Success  200 {object} VerifyKeyResponse
// @Router   /api/companies/verify-key [post]
func handleVerifyKey(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyKeyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		ok, err := svcs.Registry.Authorize(c.Request.Context(), req.CompanyName, req.APIKey)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, VerifyKeyResponse{Valid: ok})
	}
}

// @Summary  Issue ticket (idempotent)
// @Param    req body  IssueTicketRequest true "payload"
// @Header   201 {string} Idempotency-Key "echo"
// @Success  201 {object} TicketResponse
// @Failure  400 {object} ErrorResponse
// @Failure  409 {object} ErrorResponse "idem in progress"
// @Router   /api/tickets [post]
func handleIssue(svcs *service.Services, idem *redisrepo.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req IssueTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		idemKey := strings.TrimSpace(c.GetHeader("Idempotency-Key"))
		owned := false
		if idem != nil && idemKey != "" {
			claim, err := idem.Reserve(c.Request.Context(), idemScopeIssue, idemKey, idemPendingTTL)
			if err != nil {
				respondErr(c, err)
				return
			}
			c.Header("Idempotency-Key", idemKey)
			switch {
			case claim.Replay != nil:
				c.Data(http.StatusCreated, "application/json; charset=utf-8", claim.Replay)
				return
			case claim.Busy():
				c.Header("Retry-After", "1")
				c.JSON(http.StatusConflict, ErrorResponse{Error: "idempotency key in progress"})
				return
			}
			owned = true
		}

		t, err := svcs.Ledger.Issue(c.Request.Context(), req.Category)
		if err != nil {
			if owned {
				_ = idem.Abandon(c.Request.Context(), idemScopeIssue, idemKey)
			}
			respondErr(c, err)
			return
		}

		resp := TicketResponse{Ticket: t}

		if owned {
			b, _ := json.Marshal(resp)
			_ = idem.Complete(c.Request.Context(), idemScopeIssue, idemKey, b)
		}

		c.JSON(http.StatusCreated, resp)
	}
}

// @Summary  Issue many tickets at once
// @Param    req body  BulkIssueRequest true "payload"
// @Success  201 {object} TicketsResponse
// @Failure  400 {object} ErrorResponse
// @Router   /api/tickets/bulk [post]
func handleBulkIssue(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkIssueRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		tickets, err := svcs.Ledger.IssueBatch(c.Request.Context(), req.Category, req.Count)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, TicketsResponse{Tickets: tickets, Count: len(tickets)})
	}
}

// @Summary  List all tickets in issue order
// @Success  200 {object} TicketsResponse
// @Router   /api/tickets [get]
func handleListTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		tickets, err := svcs.Ledger.List(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, TicketsResponse{Tickets: tickets, Count: len(tickets)})
	}
}

// @Summary  Ticket and log counters
// @Success  200 {object} domain.Stats
// @Success  304 "not modified"
// @Router   /api/tickets/stats [get]
func handleStats(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := svcs.Report.Stats(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithETag(c, http.StatusOK, st)
	}
}

// @Summary  Activated tickets grouped by company name
// @Success  200 {object} map[string]domain.CompanyActivations
// @Success  304 "not modified"
// @Router   /api/tickets/activations-by-company [get]
func handleGroupByCompany(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := svcs.Report.GroupActivationsByCompany(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		writeJSONWithETag(c, http.StatusOK, groups)
	}
}

// @Summary  Delete one ticket
// @Param    req body  DeleteTicketRequest true "payload"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /api/tickets/delete [post]
func handleDeleteTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DeleteTicketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		if err := svcs.Ledger.Remove(c.Request.Context(), req.Code); err != nil {
			respondErr(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// @Summary  Delete every ticket a company activated
// @Param    req body  DeleteCompanyTicketsRequest true "payload"
// @Success  200 {object} DeleteCompanyTicketsResponse
// @Router   /api/tickets/delete-company-tickets [post]
func handleDeleteCompanyTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DeleteCompanyTicketsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		n, err := svcs.Ledger.RemoveAllActivatedBy(c.Request.Context(), req.CompanyName)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, DeleteCompanyTicketsResponse{Removed: n})
	}
}

// @Summary  Activation audit log
// @Success  200 {object} ActivationLogResponse
// @Router   /api/logs/activations [get]
func handleActivationLog(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svcs.Ledger.ActivationLog(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, ActivationLogResponse{Entries: entries})
	}
}

// @Summary  Validation audit log
// @Success  200 {object} ValidationLogResponse
// @Router   /api/logs/validations [get]
func handleValidationLog(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := svcs.Ledger.ValidationLog(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, ValidationLogResponse{Entries: entries})
	}
}

// @Summary  List companies
// @Success  200 {object} CompaniesResponse
// @Router   /api/companies [get]
func handleListCompanies(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		companies, err := svcs.Registry.List(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, CompaniesResponse{Companies: companies})
	}
}

// @Summary  Register a company
// @Param    req body  CreateCompanyRequest true "payload"
// @Success  201 {object} domain.Company
// @Failure  400 {object} ErrorResponse
// @Router   /api/companies [post]
func handleCreateCompany(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCompanyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		company, err := svcs.Registry.Register(c.Request.Context(), req.Name)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusCreated, company)
	}
}

// @Summary  Delete a company (tickets are kept)
// @Param    id  path  string  true  "Company ID"
// @Success  204
// @Failure  404 {object} ErrorResponse
// @Router   /api/companies/{id} [delete]
func handleDeleteCompany(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svcs.Registry.Delete(c.Request.Context(), c.Param("id")); err != nil {
			respondErr(c, err)
			return
		}

		c.Status(http.StatusNoContent)
	}
}

// @Summary  Replace a company's API key
// @Param    id  path  string  true  "Company ID"
// @Success  200 {object} domain.Company
// @Failure  404 {object} ErrorResponse
// @Router   /api/companies/{id}/regenerate-key [post]
func handleRegenerateKey(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		company, err := svcs.Registry.RegenerateKey(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, company)
	}
}

// @Summary  Enable or disable a company
// @Param    id  path  string  true  "Company ID"
// @Param    req body  SetActiveRequest true "payload"
// @Success  200 {object} domain.Company
// @Failure  404 {object} ErrorResponse
// @Router   /api/companies/{id}/active [post]
func handleSetActive(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err.Error())
			return
		}

		company, err := svcs.Registry.SetActive(c.Request.Context(), c.Param("id"), *req.Active)
		if err != nil {
			respondErr(c, err)
			return
		}

		c.JSON(http.StatusOK, company)
	}
}

// @Summary  Stream ledger change events (SSE)
// @Produce  text/event-stream
// @Success  200
// @Router   /api/events [get]
func handleEvents(hub *EventHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		events := hub.Subscribe(ctx)

		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")

		heartbeat := time.NewTicker(25 * time.Second)
		defer heartbeat.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case <-ctx.Done():
				return false
			case ev, ok := <-events:
				if !ok {
					return false
				}
				c.SSEvent(ev.Type, ev)
				return true
			case <-heartbeat.C:
				c.SSEvent("ping", gin.H{"ts_unix": time.Now().Unix()})
				return true
			}
		})
	}
}

// --- Helpers ---

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	_ = c.Error(err)

	var activated *ledger.AlreadyActivatedError
	switch {
	case errors.As(err, &activated):
		c.JSON(http.StatusConflict, gin.H{
			"error":        "ticket already activated",
			"activated_by": activated.By,
			"activated_at": activated.At,
		})
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "ticket not found"})
	case errors.Is(err, registry.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "company not found"})
	case errors.Is(err, ledger.ErrNotActivated):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "ticket not activated"})
	case errors.Is(err, ledger.ErrAlreadyValidated):
		c.JSON(http.StatusConflict, ErrorResponse{Error: "ticket already used"})
	case errors.Is(err, ledger.ErrInvalidInput), errors.Is(err, registry.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, ledger.ErrPersistence), errors.Is(err, registry.ErrPersistence),
		errors.Is(err, uow.ErrClosed):
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "storage unavailable, try again"})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
