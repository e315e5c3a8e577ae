package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/http/middleware"
	"complaint-service/internal/model"
	"complaint-service/internal/service"
)

type ComplaintService interface {
	Create(ctx context.Context, principal model.Principal, input service.CreateComplaintInput) (*model.Complaint, error)
	List(ctx context.Context, principal model.Principal, opts service.ListComplaintsOptions) ([]model.Complaint, error)
	Export(ctx context.Context, principal model.Principal, opts service.ListComplaintsOptions) ([]byte, error)
	Get(ctx context.Context, principal model.Principal, complaintID int64) (*model.ComplaintDetail, error)
	Forward(ctx context.Context, principal model.Principal, complaintID int64, input service.ForwardInput) (*model.Complaint, error)
	UpdateStatus(ctx context.Context, principal model.Principal, complaintID int64, fields model.RemarkFields) (*model.Remark, error)
	Cancel(ctx context.Context, principal model.Principal, complaintID int64) (*model.Complaint, error)
}

type RemarkService interface {
	Edit(ctx context.Context, principal model.Principal, remarkID int64, fields model.RemarkFields) (*model.Remark, error)
	Delete(ctx context.Context, principal model.Principal, remarkID int64) error
}

type NotificationService interface {
	List(ctx context.Context, principal model.Principal) (*model.NotificationInbox, error)
	MarkRead(ctx context.Context, principal model.Principal, id uuid.UUID) error
	MarkAllRead(ctx context.Context, principal model.Principal) error
}

type HealthFunc func(ctx context.Context) error

type Handler struct {
	complaintService    ComplaintService
	remarkService       RemarkService
	notificationService NotificationService
	health              HealthFunc
	maxUploadBytes      int64
	log                 zerolog.Logger
}

func NewHandler(
	complaintService ComplaintService,
	remarkService RemarkService,
	notificationService NotificationService,
	health HealthFunc,
	maxUploadBytes int64,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		complaintService:    complaintService,
		remarkService:       remarkService,
		notificationService: notificationService,
		health:              health,
		maxUploadBytes:      maxUploadBytes,
		log:                 log,
	}
}

func (h *Handler) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health(c.Request.Context()); err != nil {
			h.log.Error().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createComplaintRequest struct {
	CategoryID     int64  `form:"category_id" json:"category_id" binding:"required"`
	SubcategoryID  int64  `form:"subcategory_id" json:"subcategory_id" binding:"required"`
	BrandID        int64  `form:"brand_id" json:"brand_id" binding:"required"`
	WarrantyStatus string `form:"warranty_status" json:"warranty_status" binding:"required"`
	Details        string `form:"details" json:"details" binding:"required"`
}

func (h *Handler) createComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	var req createComplaintRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.CreateComplaintInput{
		CategoryID:     req.CategoryID,
		SubcategoryID:  req.SubcategoryID,
		BrandID:        req.BrandID,
		WarrantyStatus: model.WarrantyStatus(strings.TrimSpace(req.WarrantyStatus)),
		Details:        req.Details,
	}

	if c.ContentType() == gin.MIMEMultipartPOSTForm {
		var err error
		if input.WarrantyProof, err = h.readUpload(c, "warranty_proof"); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
		if input.Receipt, err = h.readUpload(c, "receipt"); err != nil {
			c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
			return
		}
	}

	complaint, err := h.complaintService.Create(c.Request.Context(), principal, input)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(complaint))
}

func (h *Handler) listComplaints(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts, err := parseComplaintQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	complaints, err := h.complaintService.List(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"items": complaints}))
}

func (h *Handler) exportComplaints(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	opts, err := parseComplaintQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	data, err := h.complaintService.Export(c.Request.Context(), principal, opts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	filename := fmt.Sprintf("complaints-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func (h *Handler) getComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	detail, err := h.complaintService.Get(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(detail))
}

func (h *Handler) forwardComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req struct {
		TechnicianID string  `json:"technician_id" binding:"required"`
		Status       *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	technicianID, err := uuid.Parse(strings.TrimSpace(req.TechnicianID))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid technician_id"))
		return
	}

	complaint, err := h.complaintService.Forward(c.Request.Context(), principal, id, service.ForwardInput{
		TechnicianID: technicianID,
		Status:       parseStatus(req.Status),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

type remarkRequest struct {
	Status        *string `json:"status"`
	TransportNote *string `json:"transport_note"`
	CheckingNote  *string `json:"checking_note"`
	Remark        *string `json:"remark"`
}

func (r remarkRequest) fields() model.RemarkFields {
	return model.RemarkFields{
		Status:        parseStatus(r.Status),
		TransportNote: r.TransportNote,
		CheckingNote:  r.CheckingNote,
		Remark:        r.Remark,
	}
}

func (h *Handler) updateComplaintStatus(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	var req remarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	remark, err := h.complaintService.UpdateStatus(c.Request.Context(), principal, id, req.fields())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, successResponse(remark))
}

func (h *Handler) cancelComplaint(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid complaint id"))
		return
	}

	complaint, err := h.complaintService.Cancel(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(complaint))
}

func (h *Handler) editRemark(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid remark id"))
		return
	}

	var req remarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	remark, err := h.remarkService.Edit(c.Request.Context(), principal, id, req.fields())
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(remark))
}

func (h *Handler) deleteRemark(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid remark id"))
		return
	}

	if err := h.remarkService.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "deleted"}))
}

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	inbox, err := h.notificationService.List(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(inbox))
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid notification id"))
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "read"}))
}

func (h *Handler) markAllNotificationsRead(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}

	if err := h.notificationService.MarkAllRead(c.Request.Context(), principal); err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, successResponse(gin.H{"status": "read"}))
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrInvalidStatus):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrDependency):
		c.JSON(http.StatusBadGateway, errorResponse(service.ErrDependency.Error()))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func (h *Handler) readUpload(c *gin.Context, field string) (*service.AttachmentUpload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("invalid %s upload", field)
	}
	content, err := readLimited(header, h.maxUploadBytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &service.AttachmentUpload{Filename: header.Filename, Content: content}, nil
}

func readLimited(header *multipart.FileHeader, limit int64) ([]byte, error) {
	if limit > 0 && header.Size > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := io.Reader(file)
	if limit > 0 {
		reader = io.LimitReader(file, limit+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(content)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return content, nil
}

func parseComplaintQuery(c *gin.Context) (service.ListComplaintsOptions, error) {
	var opts service.ListComplaintsOptions

	if statusParam := c.Query("status"); statusParam != "" {
		for _, val := range splitCSV(statusParam) {
			opts.Statuses = append(opts.Statuses, model.ComplaintStatus(strings.ToLower(val)))
		}
	}
	opts.ReportNumber = strings.TrimSpace(c.Query("report_number"))
	if dateFrom := strings.TrimSpace(c.Query("date_from")); dateFrom != "" {
		ts, err := time.Parse(time.RFC3339, dateFrom)
		if err != nil {
			return opts, err
		}
		opts.DateFrom = &ts
	}
	if dateTo := strings.TrimSpace(c.Query("date_to")); dateTo != "" {
		ts, err := time.Parse(time.RFC3339, dateTo)
		if err != nil {
			return opts, err
		}
		opts.DateTo = &ts
	}
	if limit := strings.TrimSpace(c.Query("limit")); limit != "" {
		if v, err := strconv.Atoi(limit); err == nil {
			opts.Limit = v
		}
	}
	if offset := strings.TrimSpace(c.Query("offset")); offset != "" {
		if v, err := strconv.Atoi(offset); err == nil {
			opts.Offset = v
		}
	}
	return opts, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func parseStatus(raw *string) *model.ComplaintStatus {
	if raw == nil {
		return nil
	}
	value := strings.ToLower(strings.TrimSpace(*raw))
	if value == "" {
		return nil
	}
	status := model.ComplaintStatus(value)
	return &status
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
