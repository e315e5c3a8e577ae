package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"complaint-service/internal/model"
)

// ComplaintGuard runs against the locked complaint row inside a mutation
// transaction. A non-nil error aborts the transaction and is returned as is.
type ComplaintGuard func(complaint *model.Complaint) error

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

type ComplaintFilter struct {
	Scope        model.Scope
	Statuses     []model.ComplaintStatus
	AssignedTo   *uuid.UUID
	ReportNumber string
	DateFrom     *time.Time
	DateTo       *time.Time
	Limit        int
	Offset       int
}

func (r *ComplaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]model.Complaint, error) {
	query := r.db.WithContext(ctx).Model(&model.Complaint{})

	query = applyScopeFilter(query, filter.Scope)

	if len(filter.Statuses) > 0 {
		query = query.Where("complaints.status IN ?", filter.Statuses)
	}
	if filter.AssignedTo != nil {
		query = query.Where("complaints.assigned_to = ?", *filter.AssignedTo)
	}
	if filter.ReportNumber != "" {
		query = query.Where("complaints.report_number = ?", filter.ReportNumber)
	}
	if filter.DateFrom != nil {
		query = query.Where("complaints.created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		query = query.Where("complaints.created_at <= ?", *filter.DateTo)
	}

	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	} else {
		query = query.Limit(200)
	}

	var complaints []model.Complaint
	if err := query.Order("complaints.created_at DESC").Find(&complaints).Error; err != nil {
		return nil, err
	}
	return complaints, nil
}

func (r *ComplaintRepository) GetByID(ctx context.Context, id int64) (*model.Complaint, error) {
	var complaint model.Complaint
	if err := r.db.WithContext(ctx).First(&complaint, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

// LatestReportNumber returns the highest allocated report number, or "" when
// none exists. Longer letter prefixes sort after shorter ones; within a
// length the fixed-width suffix makes string order equal numeric order.
func (r *ComplaintRepository) LatestReportNumber(ctx context.Context) (string, error) {
	row := r.db.WithContext(ctx).
		Raw(`SELECT report_number FROM complaints
			WHERE report_number ~ '^[A-Z]+[0-9]{5}$'
			ORDER BY LENGTH(report_number) DESC, report_number DESC
			LIMIT 1`).
		Row()

	var number string
	if err := row.Scan(&number); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return number, nil
}

// Create inserts a new complaint. A report number collision surfaces as
// gorm.ErrDuplicatedKey.
func (r *ComplaintRepository) Create(ctx context.Context, complaint *model.Complaint) error {
	return r.db.WithContext(ctx).Create(complaint).Error
}

func (r *ComplaintRepository) Forward(ctx context.Context, complaintID int64, record *model.ForwardRecord, status *model.ComplaintStatus, guard ComplaintGuard) (*model.Complaint, error) {
	var updated *model.Complaint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		complaint, err := lockComplaint(tx, complaintID)
		if err != nil {
			return err
		}
		if err := guard(complaint); err != nil {
			return err
		}

		record.ComplaintID = complaint.ID
		record.PreviousAssignee = complaint.AssignedTo
		if err := tx.Create(record).Error; err != nil {
			return err
		}

		data := map[string]interface{}{
			"assigned_to": record.NewAssignee,
		}
		if status != nil {
			data["status"] = *status
		}
		if err := tx.Model(&model.Complaint{}).Where("id = ?", complaint.ID).Updates(data).Error; err != nil {
			return err
		}

		assignee := record.NewAssignee
		complaint.AssignedTo = &assignee
		if status != nil {
			complaint.Status = *status
		}
		complaint.UpdatedAt = time.Now()
		updated = complaint
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AppendRemark writes the remark and, when it carries a status, moves the
// complaint to that status in the same transaction.
func (r *ComplaintRepository) AppendRemark(ctx context.Context, complaintID int64, remark *model.Remark, guard ComplaintGuard) (*model.Complaint, error) {
	var updated *model.Complaint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		complaint, err := lockComplaint(tx, complaintID)
		if err != nil {
			return err
		}
		if err := guard(complaint); err != nil {
			return err
		}

		remark.ComplaintID = complaint.ID
		if err := tx.Create(remark).Error; err != nil {
			return err
		}

		if remark.Status != nil {
			if err := tx.Model(&model.Complaint{}).
				Where("id = ?", complaint.ID).
				Update("status", *remark.Status).Error; err != nil {
				return err
			}
			complaint.Status = *remark.Status
			complaint.UpdatedAt = time.Now()
		}
		updated = complaint
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ComplaintRepository) Transition(ctx context.Context, complaintID int64, status model.ComplaintStatus, guard ComplaintGuard) (*model.Complaint, error) {
	var updated *model.Complaint
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		complaint, err := lockComplaint(tx, complaintID)
		if err != nil {
			return err
		}
		if err := guard(complaint); err != nil {
			return err
		}
		if err := tx.Model(&model.Complaint{}).
			Where("id = ?", complaint.ID).
			Update("status", status).Error; err != nil {
			return err
		}
		complaint.Status = status
		complaint.UpdatedAt = time.Now()
		updated = complaint
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ComplaintRepository) ListForwards(ctx context.Context, complaintID int64) ([]model.ForwardRecord, error) {
	var records []model.ForwardRecord
	if err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC, id ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func lockComplaint(tx *gorm.DB, complaintID int64) (*model.Complaint, error) {
	var complaint model.Complaint
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&complaint, "id = ?", complaintID).Error; err != nil {
		return nil, err
	}
	return &complaint, nil
}

func applyScopeFilter(query *gorm.DB, scope model.Scope) *gorm.DB {
	switch scope.Type {
	case model.ScopeAll:
		return query
	case model.ScopeOwner:
		return query.Where("complaints.customer_id = ?", scope.UserID)
	case model.ScopeAssigned:
		return query.Where("complaints.assigned_to = ?", scope.UserID)
	default:
		return query.Where("1=0")
	}
}

// IsNotFound reports whether err means the looked-up row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsDuplicateKey reports whether err is a unique constraint violation.
func IsDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
