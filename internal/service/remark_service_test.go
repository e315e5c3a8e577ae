package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"complaint-service/internal/model"
)

func TestRemarkEditAndDeletePermissions(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ComplaintOptions{})
	complaint := h.createOverWarranty(t)
	_, err := h.complaints.Forward(ctx, h.admin, complaint.ID, ForwardInput{TechnicianID: h.techA.UserID})
	require.NoError(t, err)

	remark, err := h.complaints.UpdateStatus(ctx, h.techA, complaint.ID, model.RemarkFields{TransportNote: strPtr("pickup Tuesday")})
	require.NoError(t, err)

	_, err = h.remarks.Edit(ctx, h.techB, remark.ID, model.RemarkFields{TransportNote: strPtr("hijacked")})
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	// same id under another role is a different actor
	impostor := model.Principal{UserID: h.techA.UserID, Role: model.UserRoleCustomer}
	_, err = h.remarks.Edit(ctx, impostor, remark.ID, model.RemarkFields{TransportNote: strPtr("hijacked")})
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	edited, err := h.remarks.Edit(ctx, h.techA, remark.ID, model.RemarkFields{
		TransportNote: strPtr(" pickup Wednesday "),
		CheckingNote:  strPtr("door seal"),
	})
	require.NoError(t, err)
	require.NotNil(t, edited.TransportNote)
	assert.Equal(t, "pickup Wednesday", *edited.TransportNote)
	assert.Equal(t, "door seal", *edited.CheckingNote)

	edited, err = h.remarks.Edit(ctx, h.admin, remark.ID, model.RemarkFields{Remark: strPtr("admin correction")})
	require.NoError(t, err)
	assert.Nil(t, edited.TransportNote, "edit replaces every mutable field")
	assert.Equal(t, "admin correction", *edited.Remark)

	err = h.remarks.Delete(ctx, h.techB, remark.ID)
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	require.NoError(t, h.remarks.Delete(ctx, h.techA, remark.ID))

	_, err = h.remarks.Edit(ctx, h.techA, remark.ID, model.RemarkFields{Remark: strPtr("gone")})
	assert.True(t, errors.Is(err, ErrNotFound))
	err = h.remarks.Delete(ctx, h.admin, remark.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRemarkEditValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ComplaintOptions{})
	complaint := h.createOverWarranty(t)
	remark, err := h.complaints.UpdateStatus(ctx, h.admin, complaint.ID, model.RemarkFields{Status: statusPtr(model.ComplaintStatusInProcess)})
	require.NoError(t, err)

	_, err = h.remarks.Edit(ctx, h.admin, remark.ID, model.RemarkFields{Remark: strPtr("  ")})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	_, err = h.remarks.Edit(ctx, h.admin, remark.ID, model.RemarkFields{Status: statusPtr(model.ComplaintStatusCancelled)})
	assert.True(t, errors.Is(err, ErrInvalidInput))

	edited, err := h.remarks.Edit(ctx, h.admin, remark.ID, model.RemarkFields{Status: statusPtr(model.ComplaintStatusClosed)})
	require.NoError(t, err)
	assert.Equal(t, model.ComplaintStatusClosed, *edited.Status)
	assert.Equal(t, model.ComplaintStatusInProcess, h.store.complaint(complaint.ID).Status,
		"editing a snapshot does not move the complaint")
}

func TestRemarkAppendRequiresStaff(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ComplaintOptions{})
	complaint := h.createOverWarranty(t)

	_, _, err := h.remarks.Append(ctx, h.customer, complaint.ID, model.RemarkFields{Remark: strPtr("hello")}, nil)
	assert.True(t, errors.Is(err, ErrPermissionDenied))

	remark, updated, err := h.remarks.Append(ctx, h.admin, complaint.ID, model.RemarkFields{Remark: strPtr("hello")}, nil)
	require.NoError(t, err)
	assert.Equal(t, complaint.ID, remark.ComplaintID)
	assert.Equal(t, model.ComplaintStatusPending, updated.Status)
}

func TestRemarkHistoryOrdering(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, ComplaintOptions{})
	complaint := h.createOverWarranty(t)
	for _, text := range []string{"first", "second", "third"} {
		_, err := h.complaints.UpdateStatus(ctx, h.admin, complaint.ID, model.RemarkFields{Remark: strPtr(text)})
		require.NoError(t, err)
	}

	history, err := h.remarks.History(ctx, complaint.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "first", *history[0].Remark)
	assert.Equal(t, "third", *history[2].Remark)
	assert.Equal(t, "third", *LatestRemark(history).Remark)
}

func TestLatestRemark(t *testing.T) {
	assert.Nil(t, LatestRemark(nil))

	at := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	remarks := []model.Remark{
		{ID: 3, CreatedAt: at},
		{ID: 9, CreatedAt: at.Add(-time.Minute), Status: statusPtr(model.ComplaintStatusClosed)},
		{ID: 4, CreatedAt: at},
	}
	latest := LatestRemark(remarks)
	require.NotNil(t, latest)
	assert.EqualValues(t, 4, latest.ID, "ties on creation time fall back to id")
}
