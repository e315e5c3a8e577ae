package service

import (
	"context"

	"github.com/google/uuid"

	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

// The interfaces below are satisfied by the gorm repositories, the
// attachment stores and the redis counter; tests swap in memory fakes.

type ComplaintStore interface {
	List(ctx context.Context, filter repository.ComplaintFilter) ([]model.Complaint, error)
	GetByID(ctx context.Context, id int64) (*model.Complaint, error)
	LatestReportNumber(ctx context.Context) (string, error)
	Create(ctx context.Context, complaint *model.Complaint) error
	Forward(ctx context.Context, complaintID int64, record *model.ForwardRecord, status *model.ComplaintStatus, guard repository.ComplaintGuard) (*model.Complaint, error)
	AppendRemark(ctx context.Context, complaintID int64, remark *model.Remark, guard repository.ComplaintGuard) (*model.Complaint, error)
	Transition(ctx context.Context, complaintID int64, status model.ComplaintStatus, guard repository.ComplaintGuard) (*model.Complaint, error)
	ListForwards(ctx context.Context, complaintID int64) ([]model.ForwardRecord, error)
}

type RemarkStore interface {
	ListByComplaint(ctx context.Context, complaintID int64) ([]model.Remark, error)
	Update(ctx context.Context, remarkID int64, fields model.RemarkFields, guard repository.RemarkGuard) (*model.Remark, error)
	Delete(ctx context.Context, remarkID int64, guard repository.RemarkGuard) error
}

type NotificationStore interface {
	Create(ctx context.Context, notification *model.Notification) error
	ListRecent(ctx context.Context, recipient model.Recipient, limit int) ([]model.Notification, error)
	CountUnread(ctx context.Context, recipient model.Recipient) (int64, error)
	MarkRead(ctx context.Context, recipient model.Recipient, id uuid.UUID) (int64, error)
	MarkAllRead(ctx context.Context, recipient model.Recipient) (int64, error)
	Exists(ctx context.Context, recipient model.Recipient, id uuid.UUID) (bool, error)
}

type Directory interface {
	GetActiveUser(ctx context.Context, id uuid.UUID, role model.UserRole) (*model.User, error)
	ListActiveByRole(ctx context.Context, role model.UserRole) ([]model.User, error)
	ClassificationExists(ctx context.Context, categoryID, subcategoryID, brandID int64) (bool, error)
}

// AttachmentStore persists uploaded bytes and returns a stable reference.
type AttachmentStore interface {
	Put(ctx context.Context, name, contentType string, content []byte) (string, error)
}

// UnreadCounter caches per-inbox unread counts. ok is false on a miss.
type UnreadCounter interface {
	Get(ctx context.Context, recipient model.Recipient) (count int64, ok bool, err error)
	Set(ctx context.Context, recipient model.Recipient, count int64) error
	Incr(ctx context.Context, recipient model.Recipient) error
	Decr(ctx context.Context, recipient model.Recipient) error
	Reset(ctx context.Context, recipient model.Recipient) error
}

// Notifier is the dispatcher as seen by the lifecycle: writes are best
// effort and never report failure to the caller.
type Notifier interface {
	Notify(ctx context.Context, input NotificationInput)
	NotifyAll(ctx context.Context, recipients []model.Recipient, input NotificationInput)
}
