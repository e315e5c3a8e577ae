package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"complaint-service/internal/model"
)

// RemarkGuard sees the remark and its locked parent complaint before an
// edit or delete is applied.
type RemarkGuard func(complaint *model.Complaint, remark *model.Remark) error

type RemarkRepository struct {
	db *gorm.DB
}

func NewRemarkRepository(db *gorm.DB) *RemarkRepository {
	return &RemarkRepository{db: db}
}

func (r *RemarkRepository) ListByComplaint(ctx context.Context, complaintID int64) ([]model.Remark, error) {
	var remarks []model.Remark
	if err := r.db.WithContext(ctx).
		Where("complaint_id = ?", complaintID).
		Order("created_at ASC, id ASC").
		Find(&remarks).Error; err != nil {
		return nil, err
	}
	return remarks, nil
}

func (r *RemarkRepository) Update(ctx context.Context, remarkID int64, fields model.RemarkFields, guard RemarkGuard) (*model.Remark, error) {
	var updated *model.Remark
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		remark, complaint, err := lockRemark(tx, remarkID)
		if err != nil {
			return err
		}
		if err := guard(complaint, remark); err != nil {
			return err
		}

		if err := tx.Model(&model.Remark{}).
			Where("id = ?", remark.ID).
			Updates(map[string]interface{}{
				"transport_note": fields.TransportNote,
				"checking_note":  fields.CheckingNote,
				"remark":         fields.Remark,
				"status":         fields.Status,
			}).Error; err != nil {
			return err
		}

		remark.TransportNote = fields.TransportNote
		remark.CheckingNote = fields.CheckingNote
		remark.Remark = fields.Remark
		remark.Status = fields.Status
		remark.UpdatedAt = time.Now()
		updated = remark
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *RemarkRepository) Delete(ctx context.Context, remarkID int64, guard RemarkGuard) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		remark, complaint, err := lockRemark(tx, remarkID)
		if err != nil {
			return err
		}
		if err := guard(complaint, remark); err != nil {
			return err
		}
		return tx.Delete(&model.Remark{}, "id = ?", remark.ID).Error
	})
}

func lockRemark(tx *gorm.DB, remarkID int64) (*model.Remark, *model.Complaint, error) {
	var remark model.Remark
	if err := tx.First(&remark, "id = ?", remarkID).Error; err != nil {
		return nil, nil, err
	}
	complaint, err := lockComplaint(tx, remark.ComplaintID)
	if err != nil {
		return nil, nil, err
	}
	return &remark, complaint, nil
}
