package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"complaint-service/internal/attachment"
	"complaint-service/internal/export"
	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

type ComplaintOptions struct {
	DetailsMaxLength     int
	ReportNumberRetries  int
	NotifyAdminsOnCreate bool
	AttachmentMaxBytes   int64
}

// ComplaintService is the lifecycle engine: it validates role and state,
// mutates the complaint store and emits notifications after each mutation.
type ComplaintService struct {
	complaints  ComplaintStore
	ledger      *RemarkService
	directory   Directory
	attachments AttachmentStore
	notifier    Notifier
	validate    *validator.Validate
	opts        ComplaintOptions
	log         zerolog.Logger
}

func NewComplaintService(
	complaints ComplaintStore,
	ledger *RemarkService,
	directory Directory,
	attachments AttachmentStore,
	notifier Notifier,
	opts ComplaintOptions,
	log zerolog.Logger,
) *ComplaintService {
	if opts.DetailsMaxLength <= 0 {
		opts.DetailsMaxLength = 1000
	}
	if opts.ReportNumberRetries <= 0 {
		opts.ReportNumberRetries = 5
	}
	return &ComplaintService{
		complaints:  complaints,
		ledger:      ledger,
		directory:   directory,
		attachments: attachments,
		notifier:    notifier,
		validate:    validator.New(),
		opts:        opts,
		log:         log,
	}
}

type AttachmentUpload struct {
	Filename string
	Content  []byte
}

type CreateComplaintInput struct {
	CategoryID     int64                `validate:"gt=0"`
	SubcategoryID  int64                `validate:"gt=0"`
	BrandID        int64                `validate:"gt=0"`
	WarrantyStatus model.WarrantyStatus `validate:"required"`
	Details        string               `validate:"required"`
	WarrantyProof  *AttachmentUpload
	Receipt        *AttachmentUpload
}

func (s *ComplaintService) Create(ctx context.Context, principal model.Principal, input CreateComplaintInput) (*model.Complaint, error) {
	if !principal.IsCustomer() {
		return nil, ErrPermissionDenied
	}

	input.Details = strings.TrimSpace(input.Details)
	if err := s.validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, describeValidation(err))
	}
	if !input.WarrantyStatus.Valid() {
		return nil, fmt.Errorf("%w: warranty status %q", ErrInvalidInput, input.WarrantyStatus)
	}
	if utf8.RuneCountInString(input.Details) > s.opts.DetailsMaxLength {
		return nil, fmt.Errorf("%w: details exceed %d characters", ErrInvalidInput, s.opts.DetailsMaxLength)
	}
	if input.WarrantyStatus == model.WarrantyStatusUnder && (input.WarrantyProof == nil || input.Receipt == nil) {
		return nil, fmt.Errorf("%w: warranty proof and receipt are required under warranty", ErrInvalidInput)
	}

	proofType, err := s.inspect(input.WarrantyProof)
	if err != nil {
		return nil, err
	}
	receiptType, err := s.inspect(input.Receipt)
	if err != nil {
		return nil, err
	}

	ok, err := s.directory.ClassificationExists(ctx, input.CategoryID, input.SubcategoryID, input.BrandID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown category, subcategory or brand", ErrNotFound)
	}

	complaint := &model.Complaint{
		CustomerID:     principal.UserID,
		CategoryID:     input.CategoryID,
		SubcategoryID:  input.SubcategoryID,
		BrandID:        input.BrandID,
		WarrantyStatus: input.WarrantyStatus,
		Details:        input.Details,
		Status:         model.ComplaintStatusPending,
	}

	if complaint.WarrantyProofURL, err = s.store(ctx, "warranty-proof", input.WarrantyProof, proofType); err != nil {
		return nil, err
	}
	if complaint.ReceiptURL, err = s.store(ctx, "receipt", input.Receipt, receiptType); err != nil {
		return nil, err
	}

	if err := s.insertWithReportNumber(ctx, complaint); err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("complaint_id", complaint.ID).
		Str("report_number", complaint.ReportNumber).
		Str("customer_id", complaint.CustomerID.String()).
		Msg("complaint created")

	s.announceCreated(ctx, complaint)
	return complaint, nil
}

// insertWithReportNumber allocates the next report number and inserts. Two
// concurrent creates may compute the same number; the unique index rejects
// the loser, which recomputes from the new maximum.
func (s *ComplaintService) insertWithReportNumber(ctx context.Context, complaint *model.Complaint) error {
	for attempt := 1; attempt <= s.opts.ReportNumberRetries; attempt++ {
		latest, err := s.complaints.LatestReportNumber(ctx)
		if err != nil {
			return err
		}
		next, err := NextReportNumber(latest)
		if err != nil {
			return err
		}

		complaint.ID = 0
		complaint.ReportNumber = next
		err = s.complaints.Create(ctx, complaint)
		if err == nil {
			return nil
		}
		if !repository.IsDuplicateKey(err) {
			return err
		}
		s.log.Debug().
			Str("report_number", next).
			Int("attempt", attempt).
			Msg("report number collision, retrying")
	}
	return fmt.Errorf("%w: report number allocation exhausted %d attempts", ErrConflict, s.opts.ReportNumberRetries)
}

func (s *ComplaintService) announceCreated(ctx context.Context, complaint *model.Complaint) {
	if !s.opts.NotifyAdminsOnCreate {
		return
	}
	admins, err := s.directory.ListActiveByRole(ctx, model.UserRoleAdmin)
	if err != nil {
		s.log.Warn().Err(err).Int64("complaint_id", complaint.ID).Msg("admin lookup failed, skipping broadcast")
		return
	}
	recipients := make([]model.Recipient, 0, len(admins))
	for _, admin := range admins {
		recipients = append(recipients, model.Recipient{ID: admin.ID, Role: model.UserRoleAdmin})
	}
	id := complaint.ID
	s.notifier.NotifyAll(ctx, recipients, NotificationInput{
		Title:       "New complaint submitted",
		Message:     fmt.Sprintf("Complaint %s was submitted and awaits assignment.", complaint.ReportNumber),
		Category:    model.NotificationSystem,
		ComplaintID: &id,
	})
}

func (s *ComplaintService) inspect(upload *AttachmentUpload) (string, error) {
	if upload == nil {
		return "", nil
	}
	contentType, err := attachment.Inspect(upload.Content, s.opts.AttachmentMaxBytes)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	return contentType, nil
}

func (s *ComplaintService) store(ctx context.Context, kind string, upload *AttachmentUpload, contentType string) (*string, error) {
	if upload == nil {
		return nil, nil
	}
	name := kind + strings.ToLower(filepath.Ext(upload.Filename))
	ref, err := s.attachments.Put(ctx, name, contentType, upload.Content)
	if err != nil {
		s.log.Error().Err(err).Str("kind", kind).Msg("attachment upload failed")
		return nil, ErrDependency
	}
	return &ref, nil
}

type ListComplaintsOptions struct {
	Statuses     []model.ComplaintStatus
	ReportNumber string
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

func (s *ComplaintService) List(ctx context.Context, principal model.Principal, opts ListComplaintsOptions) ([]model.Complaint, error) {
	scope, err := resolveScope(principal)
	if err != nil {
		return nil, err
	}
	for _, st := range opts.Statuses {
		if !st.Valid() {
			return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, st)
		}
	}

	complaints, err := s.complaints.List(ctx, repository.ComplaintFilter{
		Scope:        scope,
		Statuses:     opts.Statuses,
		ReportNumber: strings.ToUpper(strings.TrimSpace(opts.ReportNumber)),
		DateFrom:     opts.DateFrom,
		DateTo:       opts.DateTo,
		Limit:        opts.Limit,
		Offset:       opts.Offset,
	})
	if err != nil {
		return nil, err
	}
	if complaints == nil {
		complaints = []model.Complaint{}
	}
	return complaints, nil
}

// Export renders the filtered complaint list as a spreadsheet. Admin only.
func (s *ComplaintService) Export(ctx context.Context, principal model.Principal, opts ListComplaintsOptions) ([]byte, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	complaints, err := s.List(ctx, principal, opts)
	if err != nil {
		return nil, err
	}
	return export.ComplaintsXLSX(complaints)
}

func (s *ComplaintService) Get(ctx context.Context, principal model.Principal, complaintID int64) (*model.ComplaintDetail, error) {
	scope, err := resolveScope(principal)
	if err != nil {
		return nil, err
	}

	complaint, err := s.complaints.GetByID(ctx, complaintID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !scope.AllowsComplaint(complaint) {
		return nil, ErrNotFound
	}

	remarks, err := s.ledger.History(ctx, complaint.ID)
	if err != nil {
		return nil, err
	}
	forwards, err := s.complaints.ListForwards(ctx, complaint.ID)
	if err != nil {
		return nil, err
	}
	if remarks == nil {
		remarks = []model.Remark{}
	}
	if forwards == nil {
		forwards = []model.ForwardRecord{}
	}

	detail := &model.ComplaintDetail{
		Complaint: *complaint,
		Remarks:   remarks,
		Forwards:  forwards,
	}
	if latest := LatestRemark(remarks); latest != nil {
		detail.TransportNote = latest.TransportNote
		detail.CheckingNote = latest.CheckingNote
	}
	return detail, nil
}

type ForwardInput struct {
	TechnicianID uuid.UUID
	Status       *model.ComplaintStatus
}

func (s *ComplaintService) Forward(ctx context.Context, principal model.Principal, complaintID int64, input ForwardInput) (*model.Complaint, error) {
	if !principal.IsAdmin() {
		return nil, ErrPermissionDenied
	}
	if input.TechnicianID == uuid.Nil {
		return nil, fmt.Errorf("%w: technician is required", ErrInvalidInput)
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, *input.Status)
	}

	if _, err := s.directory.GetActiveUser(ctx, input.TechnicianID, model.UserRoleTechnician); err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("%w: technician", ErrNotFound)
		}
		return nil, err
	}

	var previousStatus model.ComplaintStatus
	record := &model.ForwardRecord{
		NewAssignee: input.TechnicianID,
		ForwardedBy: principal.UserID,
	}
	complaint, err := s.complaints.Forward(ctx, complaintID, record, input.Status, func(c *model.Complaint) error {
		if c.Status.Terminal() {
			return fmt.Errorf("%w: complaint is %s", ErrConflict, c.Status)
		}
		if input.Status != nil {
			if err := checkTransition(c.Status, *input.Status); err != nil {
				return err
			}
		}
		previousStatus = c.Status
		return nil
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.log.Info().
		Int64("complaint_id", complaint.ID).
		Str("technician_id", input.TechnicianID.String()).
		Str("status", string(complaint.Status)).
		Msg("complaint forwarded")

	id := complaint.ID
	s.notifier.Notify(ctx, NotificationInput{
		Recipient:   model.Recipient{ID: input.TechnicianID, Role: model.UserRoleTechnician},
		Message:     fmt.Sprintf("Complaint %s has been assigned to you.", complaint.ReportNumber),
		Category:    model.NotificationAssignment,
		ComplaintID: &id,
	})
	if complaint.Status != previousStatus {
		s.notifier.Notify(ctx, NotificationInput{
			Recipient:   model.Recipient{ID: complaint.CustomerID, Role: model.UserRoleCustomer},
			Message:     fmt.Sprintf("Your complaint %s is now %s.", complaint.ReportNumber, statusLabel(complaint.Status)),
			Category:    model.NotificationStatusUpdate,
			ComplaintID: &id,
		})
	}

	return complaint, nil
}

// UpdateStatus records a remark by an admin or the assigned technician and
// applies its status, then tells the customer what changed.
func (s *ComplaintService) UpdateStatus(ctx context.Context, principal model.Principal, complaintID int64, fields model.RemarkFields) (*model.Remark, error) {
	if !(principal.IsAdmin() || principal.IsTechnician()) {
		return nil, ErrPermissionDenied
	}
	if fields.Status != nil && !remarkStatusAllowed(*fields.Status) {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, *fields.Status)
	}

	fields = fields.Normalize()
	remark, complaint, err := s.ledger.Append(ctx, principal, complaintID, fields, func(c *model.Complaint) error {
		if principal.IsTechnician() && !c.IsAssignedTo(principal.UserID) {
			return ErrPermissionDenied
		}
		if fields.Status != nil && !c.Status.Terminal() {
			return checkTransition(c.Status, *fields.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Int64("complaint_id", complaint.ID).
		Int64("remark_id", remark.ID).
		Str("status", string(complaint.Status)).
		Msg("complaint updated")

	if category, ok := ClassifyUpdate(fields); ok {
		id := complaint.ID
		s.notifier.Notify(ctx, NotificationInput{
			Recipient:   model.Recipient{ID: complaint.CustomerID, Role: model.UserRoleCustomer},
			Message:     updateMessage(complaint, fields, category),
			Category:    category,
			ComplaintID: &id,
		})
	}
	return remark, nil
}

func (s *ComplaintService) Cancel(ctx context.Context, principal model.Principal, complaintID int64) (*model.Complaint, error) {
	if !principal.IsCustomer() {
		return nil, ErrPermissionDenied
	}

	complaint, err := s.complaints.Transition(ctx, complaintID, model.ComplaintStatusCancelled, func(c *model.Complaint) error {
		if !c.IsOwnedBy(principal.UserID) {
			return ErrPermissionDenied
		}
		if c.Status != model.ComplaintStatusPending {
			return fmt.Errorf("%w: only pending complaints can be cancelled", ErrConflict)
		}
		return nil
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.log.Info().Int64("complaint_id", complaint.ID).Msg("complaint cancelled")
	return complaint, nil
}

// ClassifyUpdate picks the single category describing a status/remark
// update. ok is false when nothing was supplied.
func ClassifyUpdate(fields model.RemarkFields) (model.NotificationCategory, bool) {
	switch {
	case fields.Status != nil && fields.HasNotes():
		return model.NotificationStatusUpdateDetailed, true
	case fields.Status != nil:
		return model.NotificationStatusUpdate, true
	case fields.TransportNote != nil:
		return model.NotificationTransportUpdate, true
	case fields.CheckingNote != nil:
		return model.NotificationCheckingUpdate, true
	case fields.Remark != nil:
		return model.NotificationRemarkUpdate, true
	default:
		return "", false
	}
}

// checkTransition enforces pending -> in_process -> closed. Re-asserting the
// current status is allowed; cancelled is reachable only through Cancel.
func checkTransition(from, to model.ComplaintStatus) error {
	if from == to && !from.Terminal() {
		return nil
	}
	switch from {
	case model.ComplaintStatusPending:
		if to == model.ComplaintStatusInProcess || to == model.ComplaintStatusClosed {
			return nil
		}
	case model.ComplaintStatusInProcess:
		if to == model.ComplaintStatusClosed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s to %s", ErrInvalidStatus, from, to)
}

func updateMessage(complaint *model.Complaint, fields model.RemarkFields, category model.NotificationCategory) string {
	switch category {
	case model.NotificationStatusUpdate:
		return fmt.Sprintf("Your complaint %s is now %s.", complaint.ReportNumber, statusLabel(complaint.Status))
	case model.NotificationStatusUpdateDetailed:
		parts := []string{fmt.Sprintf("Your complaint %s is now %s.", complaint.ReportNumber, statusLabel(complaint.Status))}
		if fields.TransportNote != nil {
			parts = append(parts, "Transport: "+*fields.TransportNote)
		}
		if fields.CheckingNote != nil {
			parts = append(parts, "Checking: "+*fields.CheckingNote)
		}
		if fields.Remark != nil {
			parts = append(parts, "Remark: "+*fields.Remark)
		}
		return strings.Join(parts, " ")
	case model.NotificationTransportUpdate:
		return fmt.Sprintf("Transport update on complaint %s: %s", complaint.ReportNumber, *fields.TransportNote)
	case model.NotificationCheckingUpdate:
		return fmt.Sprintf("Checking update on complaint %s: %s", complaint.ReportNumber, *fields.CheckingNote)
	case model.NotificationRemarkUpdate:
		return fmt.Sprintf("New remark on complaint %s: %s", complaint.ReportNumber, *fields.Remark)
	default:
		return fmt.Sprintf("Complaint %s was updated.", complaint.ReportNumber)
	}
}

func statusLabel(status model.ComplaintStatus) string {
	switch status {
	case model.ComplaintStatusPending:
		return "pending"
	case model.ComplaintStatusInProcess:
		return "in process"
	case model.ComplaintStatusClosed:
		return "closed"
	case model.ComplaintStatusCancelled:
		return "cancelled"
	default:
		return string(status)
	}
}

func resolveScope(principal model.Principal) (model.Scope, error) {
	scope, err := model.ScopeFor(principal)
	if err != nil {
		if errors.Is(err, model.ErrScopeUnsupported) {
			return model.Scope{}, ErrPermissionDenied
		}
		return model.Scope{}, err
	}
	return scope, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(fields, ", ")
}
