package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/dispatch-contracts/internal/http/middleware"
	"github.com/nurpe/dispatch-contracts/internal/model"
	"github.com/nurpe/dispatch-contracts/internal/repository"
	"github.com/nurpe/dispatch-contracts/internal/service"
)

// PDFGenerator renders one contract sheet.
type PDFGenerator interface {
	Generate(doc model.ContractDocument) ([]byte, error)
}

// ExcelGenerator renders the contract register workbook.
type ExcelGenerator interface {
	Generate(register model.ContractRegister) ([]byte, error)
}

type Handler struct {
	contracts *service.ContractService
	resolver  *service.AssignmentResolver
	pdf       PDFGenerator
	excel     ExcelGenerator
	log       zerolog.Logger
}

func NewHandler(contracts *service.ContractService, resolver *service.AssignmentResolver, pdf PDFGenerator, excel ExcelGenerator, log zerolog.Logger) *Handler {
	return &Handler{
		contracts: contracts,
		resolver:  resolver,
		pdf:       pdf,
		excel:     excel,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts", h.listContracts)
	protected.GET("/contracts/expiring", h.expiringContracts)
	protected.GET("/contracts/suggest-dates", h.suggestDates)
	protected.GET("/contracts/join-decision", h.joinDecision)
	protected.GET("/contracts/export", h.exportRegister)
	protected.GET("/contracts/number/:number", h.getContractByNumber)
	protected.POST("/contracts/sweep", h.sweepExpired)
	protected.GET("/contracts/:id", h.getContract)
	protected.PATCH("/contracts/:id", h.updateContract)
	protected.DELETE("/contracts/:id", h.deleteContract)
	protected.POST("/contracts/:id/activate", h.activateContract)
	protected.POST("/contracts/:id/sign", h.signContract)
	protected.POST("/contracts/:id/renew", h.renewContract)
	protected.POST("/contracts/:id/duplicate", h.duplicateContract)
	protected.GET("/contracts/:id/workers", h.listWorkers)
	protected.POST("/contracts/:id/workers", h.addWorker)
	protected.DELETE("/contracts/:id/workers/:worker_id", h.removeWorker)
	protected.GET("/contracts/:id/document", h.contractDocument)

	protected.GET("/sites/near-conflict", h.sitesNearConflict)
	protected.GET("/sites/:id/conflict-status", h.conflictStatus)
	protected.GET("/stats", h.stats)
}

type contactPersonPayload struct {
	Department string `json:"department"`
	Position   string `json:"position"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
}

func (p contactPersonPayload) toModel() model.ContactPerson {
	return model.ContactPerson{
		Department: p.Department,
		Position:   p.Position,
		Name:       p.Name,
		Phone:      p.Phone,
	}
}

type createContractRequest struct {
	SiteID            string               `json:"site_id" binding:"required"`
	DispatchStartDate string               `json:"dispatch_start_date" binding:"required"`
	DispatchEndDate   string               `json:"dispatch_end_date" binding:"required"`
	HourlyRate        *float64             `json:"hourly_rate"`
	OvertimeRate      *float64             `json:"overtime_rate"`
	NightRate         *float64             `json:"night_rate"`
	HolidayRate       *float64             `json:"holiday_rate"`
	ComplaintHandler  contactPersonPayload `json:"complaint_handler"`
	DispatchManager   contactPersonPayload `json:"dispatch_manager"`
	Notes             string               `json:"notes"`
	WorkerIDs         []string             `json:"worker_ids"`
}

func (h *Handler) createContract(c *gin.Context) {
	var req createContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	siteID, err := uuid.Parse(strings.TrimSpace(req.SiteID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site_id"})
		return
	}
	start, err := parseDate(req.DispatchStartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dispatch_start_date"})
		return
	}
	end, err := parseDate(req.DispatchEndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dispatch_end_date"})
		return
	}
	workerIDs, err := parseUUIDs(req.WorkerIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker_ids"})
		return
	}

	contract, warnings, err := h.contracts.Create(c.Request.Context(), service.CreateContractInput{
		SiteID:            siteID,
		DispatchStartDate: start,
		DispatchEndDate:   end,
		HourlyRate:        req.HourlyRate,
		OvertimeRate:      req.OvertimeRate,
		NightRate:         req.NightRate,
		HolidayRate:       req.HolidayRate,
		ComplaintHandler:  req.ComplaintHandler.toModel(),
		DispatchManager:   req.DispatchManager.toModel(),
		Notes:             req.Notes,
		WorkerIDs:         workerIDs,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contract": contract, "warnings": warnings})
}

func (h *Handler) listContracts(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contracts, total, err := h.contracts.List(c.Request.Context(), filters)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts, "total": total})
}

func (h *Handler) getContract(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	contract, err := h.contracts.GetByID(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) getContractByNumber(c *gin.Context) {
	contract, err := h.contracts.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

type updateContractRequest struct {
	DispatchStartDate *string               `json:"dispatch_start_date"`
	DispatchEndDate   *string               `json:"dispatch_end_date"`
	HourlyRate        *float64              `json:"hourly_rate"`
	OvertimeRate      *float64              `json:"overtime_rate"`
	NightRate         *float64              `json:"night_rate"`
	HolidayRate       *float64              `json:"holiday_rate"`
	ComplaintHandler  *contactPersonPayload `json:"complaint_handler"`
	DispatchManager   *contactPersonPayload `json:"dispatch_manager"`
	Notes             *string               `json:"notes"`
}

func (h *Handler) updateContract(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req updateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := service.UpdateContractInput{
		HourlyRate:   req.HourlyRate,
		OvertimeRate: req.OvertimeRate,
		NightRate:    req.NightRate,
		HolidayRate:  req.HolidayRate,
		Notes:        req.Notes,
	}
	if req.DispatchStartDate != nil {
		start, err := parseDate(*req.DispatchStartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dispatch_start_date"})
			return
		}
		input.DispatchStartDate = &start
	}
	if req.DispatchEndDate != nil {
		end, err := parseDate(*req.DispatchEndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dispatch_end_date"})
			return
		}
		input.DispatchEndDate = &end
	}
	if req.ComplaintHandler != nil {
		person := req.ComplaintHandler.toModel()
		input.ComplaintHandler = &person
	}
	if req.DispatchManager != nil {
		person := req.DispatchManager.toModel()
		input.DispatchManager = &person
	}

	contract, warnings, err := h.contracts.Update(c.Request.Context(), id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract": contract, "warnings": warnings})
}

func (h *Handler) deleteContract(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if c.Query("hard") == "true" {
		if !h.requireAdmin(c) {
			return
		}
		if err := h.contracts.HardDelete(c.Request.Context(), id); err != nil {
			h.handleError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
		return
	}

	contract, err := h.contracts.SoftDelete(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) activateContract(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	contract, err := h.contracts.Activate(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

type signContractRequest struct {
	DocumentRef string `json:"document_ref" binding:"required"`
}

func (h *Handler) signContract(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req signContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contract, err := h.contracts.Sign(c.Request.Context(), id, req.DocumentRef)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

type renewContractRequest struct {
	NewEndDate string `json:"new_end_date" binding:"required"`
}

func (h *Handler) renewContract(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req renewContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	newEnd, err := parseDate(req.NewEndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid new_end_date"})
		return
	}

	successor, warnings, err := h.contracts.Renew(c.Request.Context(), id, newEnd)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"contract": successor, "warnings": warnings})
}

func (h *Handler) duplicateContract(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	copied, err := h.contracts.Duplicate(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, copied)
}

func (h *Handler) sweepExpired(c *gin.Context) {
	if !h.requireAdmin(c) {
		return
	}

	today := time.Now()
	if raw := c.Query("today"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid today"})
			return
		}
		today = parsed
	}

	swept, err := h.contracts.SweepExpired(c.Request.Context(), today)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"swept": swept})
}

func (h *Handler) expiringContracts(c *gin.Context) {
	withinDays, err := parseIntQuery(c, "within_days", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid within_days"})
		return
	}

	contracts, err := h.contracts.ExpiringContracts(c.Request.Context(), withinDays)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contracts": contracts})
}

func (h *Handler) suggestDates(c *gin.Context) {
	siteID, err := uuid.Parse(strings.TrimSpace(c.Query("site_id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site_id"})
		return
	}
	start, err := parseDate(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}
	months, err := parseIntQuery(c, "months", 6)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid months"})
		return
	}

	suggestion, err := h.contracts.SuggestContractDates(c.Request.Context(), siteID, start, months)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (h *Handler) joinDecision(c *gin.Context) {
	siteID, err := uuid.Parse(strings.TrimSpace(c.Query("site_id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site_id"})
		return
	}
	workerID, err := uuid.Parse(strings.TrimSpace(c.Query("worker_id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker_id"})
		return
	}
	start, err := parseDate(c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return
	}

	decision, err := h.resolver.ShouldCreateNew(c.Request.Context(), workerID, siteID, start)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (h *Handler) listWorkers(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	workers, err := h.contracts.GetWorkers(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"workers": workers})
}

type addWorkerRequest struct {
	WorkerID     string   `json:"worker_id" binding:"required"`
	StartDate    *string  `json:"start_date"`
	EndDate      *string  `json:"end_date"`
	HourlyRate   *float64 `json:"hourly_rate"`
	OvertimeRate *float64 `json:"overtime_rate"`
	NightRate    *float64 `json:"night_rate"`
	HolidayRate  *float64 `json:"holiday_rate"`
}

func (h *Handler) addWorker(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req addWorkerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	workerID, err := uuid.Parse(strings.TrimSpace(req.WorkerID))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker_id"})
		return
	}

	input := service.AddWorkerInput{
		HourlyRate:   req.HourlyRate,
		OvertimeRate: req.OvertimeRate,
		NightRate:    req.NightRate,
		HolidayRate:  req.HolidayRate,
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
			return
		}
		input.StartDate = &start
	}
	if req.EndDate != nil {
		end, err := parseDate(*req.EndDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return
		}
		input.EndDate = &end
	}

	assignment, err := h.resolver.AddWorker(c.Request.Context(), id, workerID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *Handler) removeWorker(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	workerID, err := uuid.Parse(c.Param("worker_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker_id"})
		return
	}

	var endDate *time.Time
	if raw := c.Query("end_date"); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
			return
		}
		endDate = &parsed
	}

	removed, err := h.resolver.RemoveWorker(c.Request.Context(), id, workerID, endDate)
	if err != nil {
		h.handleError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "worker not assigned to contract"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) contractDocument(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	doc, err := h.contracts.Document(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	content, err := h.pdf.Generate(*doc)
	if err != nil {
		h.handleError(c, err)
		return
	}

	fileName := "contract-" + doc.Contract.ContractNumber + ".pdf"
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/pdf", content)
}

func (h *Handler) exportRegister(c *gin.Context) {
	filters, err := parseFilters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	register, err := h.contracts.Register(c.Request.Context(), filters)
	if err != nil {
		h.handleError(c, err)
		return
	}
	content, err := h.excel.Generate(*register)
	if err != nil {
		h.handleError(c, err)
		return
	}

	fileName := "contracts-" + register.GeneratedAt.Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", "attachment; filename=\""+fileName+"\"")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

func (h *Handler) conflictStatus(c *gin.Context) {
	siteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site id"})
		return
	}
	status, err := h.contracts.ConflictStatusForSite(c.Request.Context(), siteID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *Handler) sitesNearConflict(c *gin.Context) {
	withinDays, err := parseIntQuery(c, "within_days", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid within_days"})
		return
	}

	sites, err := h.contracts.SitesNearConflict(c.Request.Context(), withinDays)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites})
}

func (h *Handler) stats(c *gin.Context) {
	var siteID *uuid.UUID
	if raw := c.Query("site_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid site_id"})
			return
		}
		siteID = &parsed
	}

	stats, err := h.contracts.Stats(c.Request.Context(), siteID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// requireAdmin guards the destructive operations: hard deletion and the
// expiry sweep.
func (h *Handler) requireAdmin(c *gin.Context) bool {
	principal, ok := middleware.MustPrincipal(c)
	if !ok || !principal.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return false
	}
	return true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	code := service.Code(err)
	body := gin.H{"error": err.Error(), "code": code}

	switch code {
	case "CONTRACT_NOT_FOUND", "EMPLOYEE_NOT_FOUND", "SITE_NOT_FOUND":
		c.JSON(http.StatusNotFound, body)
	case "ALREADY_ASSIGNED", "INVALID_TRANSITION", "NUMBER_GENERATION_CONFLICT":
		c.JSON(http.StatusConflict, body)
	case "CONFLICT_DATE_EXCEEDED":
		c.JSON(http.StatusUnprocessableEntity, body)
	case "INVALID_START_DATE", "INVALID_END_DATE", "INVALID_INPUT":
		c.JSON(http.StatusBadRequest, body)
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid contract id"})
		return uuid.Nil, false
	}
	return id, true
}

func parseFilters(c *gin.Context) (repository.ContractFilters, error) {
	var filters repository.ContractFilters

	if raw := c.Query("site_id"); raw != "" {
		siteID, err := uuid.Parse(raw)
		if err != nil {
			return filters, errInvalidQuery("site_id")
		}
		filters.SiteID = &siteID
	}
	if raw := c.Query("status"); raw != "" {
		status := model.ContractStatus(strings.ToUpper(strings.TrimSpace(raw)))
		filters.Status = &status
	}
	if raw := c.Query("active_on"); raw != "" {
		activeOn, err := parseDate(raw)
		if err != nil {
			return filters, errInvalidQuery("active_on")
		}
		filters.ActiveOn = &activeOn
	}

	limit, err := parseIntQuery(c, "limit", 50)
	if err != nil {
		return filters, errInvalidQuery("limit")
	}
	offset, err := parseIntQuery(c, "offset", 0)
	if err != nil {
		return filters, errInvalidQuery("offset")
	}
	filters.Limit = limit
	filters.Offset = offset
	filters.SortBy = c.Query("sort_by")
	filters.SortDesc = c.Query("sort_dir") == "desc"
	return filters, nil
}

type queryError string

func (e queryError) Error() string { return string(e) }

func errInvalidQuery(name string) error {
	return queryError("invalid " + name)
}

func parseIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(strings.TrimSpace(value))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errInvalidQuery("date")
	}
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, errInvalidQuery("date")
}
