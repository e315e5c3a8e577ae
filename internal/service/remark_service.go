package service

import (
	"context"
	"fmt"
	"sort"

	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

// RemarkService is the remark ledger: technician and admin annotations on a
// complaint, appended by the lifecycle and corrected by their authors.
type RemarkService struct {
	complaints ComplaintStore
	remarks    RemarkStore
}

func NewRemarkService(complaints ComplaintStore, remarks RemarkStore) *RemarkService {
	return &RemarkService{
		complaints: complaints,
		remarks:    remarks,
	}
}

// Append records a remark by author. precondition runs under the complaint
// row lock after the terminal-state check; the returned complaint reflects
// any status the remark carried.
func (s *RemarkService) Append(ctx context.Context, author model.Principal, complaintID int64, fields model.RemarkFields, precondition repository.ComplaintGuard) (*model.Remark, *model.Complaint, error) {
	if !(author.IsAdmin() || author.IsTechnician()) {
		return nil, nil, ErrPermissionDenied
	}

	fields = fields.Normalize()
	if fields.Empty() {
		return nil, nil, fmt.Errorf("%w: remark has no content", ErrInvalidInput)
	}

	remark := &model.Remark{
		AuthorID:      author.UserID,
		AuthorRole:    author.Role,
		TransportNote: fields.TransportNote,
		CheckingNote:  fields.CheckingNote,
		Remark:        fields.Remark,
		Status:        fields.Status,
	}

	complaint, err := s.complaints.AppendRemark(ctx, complaintID, remark, func(c *model.Complaint) error {
		if precondition != nil {
			if err := precondition(c); err != nil {
				return err
			}
		}
		if c.Status.Terminal() {
			return fmt.Errorf("%w: complaint is %s", ErrConflict, c.Status)
		}
		return nil
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	return remark, complaint, nil
}

func (s *RemarkService) Edit(ctx context.Context, principal model.Principal, remarkID int64, fields model.RemarkFields) (*model.Remark, error) {
	fields = fields.Normalize()
	if fields.Empty() {
		return nil, fmt.Errorf("%w: remark has no content", ErrInvalidInput)
	}
	if fields.Status != nil && !remarkStatusAllowed(*fields.Status) {
		return nil, fmt.Errorf("%w: status %q", ErrInvalidInput, *fields.Status)
	}

	remark, err := s.remarks.Update(ctx, remarkID, fields, authorGuard(principal))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return remark, nil
}

func (s *RemarkService) Delete(ctx context.Context, principal model.Principal, remarkID int64) error {
	err := s.remarks.Delete(ctx, remarkID, authorGuard(principal))
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// History returns the remarks of a complaint oldest first.
func (s *RemarkService) History(ctx context.Context, complaintID int64) ([]model.Remark, error) {
	remarks, err := s.remarks.ListByComplaint(ctx, complaintID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(remarks, func(i, j int) bool {
		return remarkBefore(remarks[i], remarks[j])
	})
	return remarks, nil
}

// LatestRemark picks the most recently created remark regardless of status.
func LatestRemark(remarks []model.Remark) *model.Remark {
	var latest *model.Remark
	for i := range remarks {
		if latest == nil || remarkBefore(*latest, remarks[i]) {
			latest = &remarks[i]
		}
	}
	return latest
}

func remarkBefore(a, b model.Remark) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID < b.ID
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func authorGuard(principal model.Principal) repository.RemarkGuard {
	return func(complaint *model.Complaint, remark *model.Remark) error {
		if !principal.IsAdmin() && !remark.IsAuthoredBy(principal) {
			return ErrPermissionDenied
		}
		if complaint.Status.Terminal() {
			return fmt.Errorf("%w: complaint is %s", ErrConflict, complaint.Status)
		}
		return nil
	}
}

func remarkStatusAllowed(status model.ComplaintStatus) bool {
	return status.Valid() && status != model.ComplaintStatusCancelled
}
