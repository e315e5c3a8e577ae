package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"complaint-service/internal/model"
	"complaint-service/internal/repository"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	pdfBytes = []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n")
)

// memStore backs both ComplaintStore and RemarkStore. Guards run while mu
// is held, which mirrors the row lock of the gorm repositories.
type memStore struct {
	mu         sync.Mutex
	clock      time.Time
	nextID     int64
	complaints map[int64]*model.Complaint
	forwards   []model.ForwardRecord
	remarks    map[int64]*model.Remark
	latestErr  error
}

func newMemStore() *memStore {
	return &memStore{
		clock:      time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC),
		complaints: map[int64]*model.Complaint{},
		remarks:    map[int64]*model.Remark{},
	}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) List(_ context.Context, filter repository.ComplaintFilter) ([]model.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []model.Complaint
	for _, c := range m.complaints {
		if !filter.Scope.AllowsComplaint(c) {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, c.Status) {
			continue
		}
		if filter.ReportNumber != "" && c.ReportNumber != filter.ReportNumber {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) GetByID(_ context.Context, id int64) (*model.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) LatestReportNumber(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latestErr != nil {
		return "", m.latestErr
	}
	latest := ""
	for _, c := range m.complaints {
		n := c.ReportNumber
		if len(n) > len(latest) || (len(n) == len(latest) && n > latest) {
			latest = n
		}
	}
	return latest, nil
}

func (m *memStore) Create(_ context.Context, complaint *model.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.complaints {
		if c.ReportNumber == complaint.ReportNumber {
			return gorm.ErrDuplicatedKey
		}
	}
	complaint.ID = m.id()
	complaint.CreatedAt = m.tick()
	complaint.UpdatedAt = complaint.CreatedAt
	cp := *complaint
	m.complaints[cp.ID] = &cp
	return nil
}

func (m *memStore) Forward(_ context.Context, complaintID int64, record *model.ForwardRecord, status *model.ComplaintStatus, guard repository.ComplaintGuard) (*model.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[complaintID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	locked := *c
	if err := guard(&locked); err != nil {
		return nil, err
	}

	record.ID = m.id()
	record.ComplaintID = c.ID
	record.PreviousAssignee = c.AssignedTo
	record.CreatedAt = m.tick()
	m.forwards = append(m.forwards, *record)

	assignee := record.NewAssignee
	c.AssignedTo = &assignee
	if status != nil {
		c.Status = *status
	}
	c.UpdatedAt = record.CreatedAt
	cp := *c
	return &cp, nil
}

func (m *memStore) AppendRemark(_ context.Context, complaintID int64, remark *model.Remark, guard repository.ComplaintGuard) (*model.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[complaintID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	locked := *c
	if err := guard(&locked); err != nil {
		return nil, err
	}

	remark.ID = m.id()
	remark.ComplaintID = c.ID
	remark.CreatedAt = m.tick()
	remark.UpdatedAt = remark.CreatedAt
	stored := *remark
	m.remarks[stored.ID] = &stored

	if remark.Status != nil {
		c.Status = *remark.Status
		c.UpdatedAt = remark.CreatedAt
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) Transition(_ context.Context, complaintID int64, status model.ComplaintStatus, guard repository.ComplaintGuard) (*model.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.complaints[complaintID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	locked := *c
	if err := guard(&locked); err != nil {
		return nil, err
	}
	c.Status = status
	c.UpdatedAt = m.tick()
	cp := *c
	return &cp, nil
}

func (m *memStore) ListForwards(_ context.Context, complaintID int64) ([]model.ForwardRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.ForwardRecord
	for _, f := range m.forwards {
		if f.ComplaintID == complaintID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memStore) ListByComplaint(_ context.Context, complaintID int64) ([]model.Remark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Remark
	for _, r := range m.remarks {
		if r.ComplaintID == complaintID {
			out = append(out, *r)
		}
	}
	// map order is random; the ledger sorts
	return out, nil
}

func (m *memStore) Update(_ context.Context, remarkID int64, fields model.RemarkFields, guard repository.RemarkGuard) (*model.Remark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, c, err := m.lockRemark(remarkID)
	if err != nil {
		return nil, err
	}
	if err := guard(c, r); err != nil {
		return nil, err
	}
	stored := m.remarks[remarkID]
	stored.TransportNote = fields.TransportNote
	stored.CheckingNote = fields.CheckingNote
	stored.Remark = fields.Remark
	stored.Status = fields.Status
	stored.UpdatedAt = m.tick()
	cp := *stored
	return &cp, nil
}

func (m *memStore) Delete(_ context.Context, remarkID int64, guard repository.RemarkGuard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, c, err := m.lockRemark(remarkID)
	if err != nil {
		return err
	}
	if err := guard(c, r); err != nil {
		return err
	}
	delete(m.remarks, remarkID)
	return nil
}

func (m *memStore) lockRemark(remarkID int64) (*model.Remark, *model.Complaint, error) {
	r, ok := m.remarks[remarkID]
	if !ok {
		return nil, nil, gorm.ErrRecordNotFound
	}
	c, ok := m.complaints[r.ComplaintID]
	if !ok {
		return nil, nil, gorm.ErrRecordNotFound
	}
	rc, cc := *r, *c
	return &rc, &cc, nil
}

func (m *memStore) complaint(id int64) model.Complaint {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.complaints[id]
}

func containsStatus(list []model.ComplaintStatus, status model.ComplaintStatus) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}

type memDirectory struct {
	users           []model.User
	unknownCategory bool
	listErr         error
}

func (d *memDirectory) GetActiveUser(_ context.Context, id uuid.UUID, role model.UserRole) (*model.User, error) {
	for _, u := range d.users {
		if u.ID == id && u.Role == role && u.IsActive {
			cp := u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (d *memDirectory) ListActiveByRole(_ context.Context, role model.UserRole) ([]model.User, error) {
	if d.listErr != nil {
		return nil, d.listErr
	}
	var out []model.User
	for _, u := range d.users {
		if u.Role == role && u.IsActive {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *memDirectory) ClassificationExists(_ context.Context, _, _, _ int64) (bool, error) {
	return !d.unknownCategory, nil
}

type memAttachments struct {
	mu   sync.Mutex
	puts []string
	err  error
}

func (a *memAttachments) Put(_ context.Context, name, contentType string, _ []byte) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	ref := "/uploads/" + name
	a.puts = append(a.puts, contentType)
	return ref, nil
}

type memNotifications struct {
	mu        sync.Mutex
	items     []model.Notification
	createErr error
	clock     time.Time
}

func (n *memNotifications) Create(_ context.Context, notification *model.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.createErr != nil {
		return n.createErr
	}
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	n.clock = n.clock.Add(time.Second)
	notification.CreatedAt = n.clock
	n.items = append(n.items, *notification)
	return nil
}

func (n *memNotifications) ListRecent(_ context.Context, recipient model.Recipient, limit int) ([]model.Notification, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Notification
	for i := len(n.items) - 1; i >= 0 && len(out) < limit; i-- {
		if n.items[i].Recipient() == recipient {
			out = append(out, n.items[i])
		}
	}
	return out, nil
}

func (n *memNotifications) CountUnread(_ context.Context, recipient model.Recipient) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var count int64
	for _, item := range n.items {
		if item.Recipient() == recipient && !item.IsRead {
			count++
		}
	}
	return count, nil
}

func (n *memNotifications) MarkRead(_ context.Context, recipient model.Recipient, id uuid.UUID) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := range n.items {
		item := &n.items[i]
		if item.ID == id && item.Recipient() == recipient && !item.IsRead {
			now := time.Now()
			item.IsRead = true
			item.ReadAt = &now
			return 1, nil
		}
	}
	return 0, nil
}

func (n *memNotifications) MarkAllRead(_ context.Context, recipient model.Recipient) (int64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var changed int64
	for i := range n.items {
		item := &n.items[i]
		if item.Recipient() == recipient && !item.IsRead {
			item.IsRead = true
			changed++
		}
	}
	return changed, nil
}

func (n *memNotifications) Exists(_ context.Context, recipient model.Recipient, id uuid.UUID) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, item := range n.items {
		if item.ID == id && item.Recipient() == recipient {
			return true, nil
		}
	}
	return false, nil
}

func (n *memNotifications) forRecipient(recipient model.Recipient) []model.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []model.Notification
	for _, item := range n.items {
		if item.Recipient() == recipient {
			out = append(out, item)
		}
	}
	return out
}

type memCounter struct {
	mu     sync.Mutex
	counts map[model.Recipient]int64
	getErr error
}

func newMemCounter() *memCounter {
	return &memCounter{counts: map[model.Recipient]int64{}}
}

func (c *memCounter) Get(_ context.Context, recipient model.Recipient) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return 0, false, c.getErr
	}
	v, ok := c.counts[recipient]
	return v, ok, nil
}

func (c *memCounter) Set(_ context.Context, recipient model.Recipient, count int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[recipient] = count
	return nil
}

func (c *memCounter) Incr(_ context.Context, recipient model.Recipient) error {
	return c.adjust(recipient, 1)
}

func (c *memCounter) Decr(_ context.Context, recipient model.Recipient) error {
	return c.adjust(recipient, -1)
}

func (c *memCounter) adjust(recipient model.Recipient, delta int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.counts[recipient]; ok {
		v += delta
		if v < 0 {
			v = 0
		}
		c.counts[recipient] = v
	}
	return nil
}

func (c *memCounter) Reset(_ context.Context, recipient model.Recipient) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.counts, recipient)
	return nil
}

type harness struct {
	store         *memStore
	directory     *memDirectory
	files         *memAttachments
	inbox         *memNotifications
	notifications *NotificationService
	remarks       *RemarkService
	complaints    *ComplaintService

	admin    model.Principal
	customer model.Principal
	techA    model.Principal
	techB    model.Principal
}

func newHarness(t *testing.T, opts ComplaintOptions) *harness {
	t.Helper()

	h := &harness{
		store:    newMemStore(),
		files:    &memAttachments{},
		inbox:    &memNotifications{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		admin:    model.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin},
		customer: model.Principal{UserID: uuid.New(), Role: model.UserRoleCustomer},
		techA:    model.Principal{UserID: uuid.New(), Role: model.UserRoleTechnician},
		techB:    model.Principal{UserID: uuid.New(), Role: model.UserRoleTechnician},
	}
	h.directory = &memDirectory{users: []model.User{
		{ID: h.admin.UserID, FullName: "Admin", Role: model.UserRoleAdmin, IsActive: true},
		{ID: h.techA.UserID, FullName: "Tech A", Role: model.UserRoleTechnician, IsActive: true},
		{ID: h.techB.UserID, FullName: "Tech B", Role: model.UserRoleTechnician, IsActive: true},
	}}

	log := zerolog.Nop()
	h.notifications = NewNotificationService(h.inbox, nil, 0, log)
	h.remarks = NewRemarkService(h.store, h.store)
	h.complaints = NewComplaintService(h.store, h.remarks, h.directory, h.files, h.notifications, opts, log)
	return h
}

func (h *harness) createOverWarranty(t *testing.T) *model.Complaint {
	t.Helper()
	complaint, err := h.complaints.Create(context.Background(), h.customer, CreateComplaintInput{
		CategoryID:     1,
		SubcategoryID:  2,
		BrandID:        3,
		WarrantyStatus: model.WarrantyStatusOver,
		Details:        "Washing machine leaks",
	})
	if err != nil {
		t.Fatalf("create complaint: %v", err)
	}
	return complaint
}

func statusPtr(s model.ComplaintStatus) *model.ComplaintStatus {
	return &s
}

func strPtr(s string) *string {
	return &s
}

var errBoom = errors.New("boom")
