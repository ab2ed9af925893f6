package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-complaints/internal/domain"
	"github.com/spec-kit/civic-complaints/internal/events"
	"github.com/spec-kit/civic-complaints/internal/repository"
)

// fakeTxRunner invokes the function directly; fakes do not roll anything
// back, tests assert on the rollback counter instead.
type fakeTxRunner struct {
	mu        sync.Mutex
	calls     int
	rollbacks int
}

func (r *fakeTxRunner) InTx(_ context.Context, fn func(pgx.Tx) error) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if err := fn(nil); err != nil {
		r.mu.Lock()
		r.rollbacks++
		r.mu.Unlock()
		return err
	}
	return nil
}

type fakeComplaintRepo struct {
	mu           sync.Mutex
	complaints   map[string]*domain.Complaint
	seq          int
	failCreate   error
	conflictOnce bool
}

func newFakeComplaintRepo() *fakeComplaintRepo {
	return &fakeComplaintRepo{complaints: map[string]*domain.Complaint{}}
}

func (r *fakeComplaintRepo) WithTx(_ pgx.Tx) repository.ComplaintRepository { return r }

func (r *fakeComplaintRepo) Create(_ context.Context, complaint *domain.Complaint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.seq++
	complaint.ID = fmt.Sprintf("complaint-%d", r.seq)
	if complaint.CreatedAt.IsZero() {
		complaint.CreatedAt = time.Now()
	}
	complaint.UpdatedAt = complaint.CreatedAt
	clone := *complaint
	r.complaints[complaint.ID] = &clone
	return nil
}

func (r *fakeComplaintRepo) GetByID(_ context.Context, id string) (*domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	complaint, ok := r.complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *complaint
	return &clone, nil
}

func (r *fakeComplaintRepo) ListWithFilter(_ context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Complaint
	for _, c := range r.complaints {
		if filter.CreatedBy != nil && c.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.DepartmentID != nil && (c.DepartmentID == nil || *c.DepartmentID != *filter.DepartmentID) {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, s := range filter.Statuses {
				if c.Status == s {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *c)
	}
	return out, nil
}

func (r *fakeComplaintRepo) CountByCreatorSince(_ context.Context, creatorID string, since time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.complaints {
		if c.CreatedBy == creatorID && !c.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeComplaintRepo) UpdateStatus(_ context.Context, id string, expected domain.ComplaintStatus, update repository.StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflictOnce {
		r.conflictOnce = false
		return pgx.ErrNoRows
	}
	complaint, ok := r.complaints[id]
	if !ok || complaint.Status != expected {
		return pgx.ErrNoRows
	}
	complaint.Status = update.Status
	complaint.ResolutionTime = update.ResolutionTime
	if update.SetAssignee {
		complaint.AssignedTo = update.AssignedTo
	}
	complaint.UpdatedAt = time.Now()
	return nil
}

func (r *fakeComplaintRepo) UpdateAssignee(_ context.Context, id string, staffID *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	complaint, ok := r.complaints[id]
	if !ok {
		return pgx.ErrNoRows
	}
	complaint.AssignedTo = staffID
	return nil
}

func (r *fakeComplaintRepo) Counts(_ context.Context, orgID *string, now time.Time) (*repository.StatusCounts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := &repository.StatusCounts{}
	for _, c := range r.complaints {
		if orgID != nil && c.OrganizationID != *orgID {
			continue
		}
		counts.Total++
		switch c.Status {
		case domain.ComplaintStatusOpen:
			counts.Open++
		case domain.ComplaintStatusInProgress:
			counts.InProgress++
		case domain.ComplaintStatusResolved:
			counts.Resolved++
		}
		if c.SLABreached(now) {
			counts.SLABreach++
		}
	}
	return counts, nil
}

type fakeHistoryRepo struct {
	mu         sync.Mutex
	entries    []domain.ComplaintHistory
	seq        int
	failCreate error
}

func (r *fakeHistoryRepo) WithTx(_ pgx.Tx) repository.ComplaintHistoryRepository { return r }

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.ComplaintHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate != nil {
		return r.failCreate
	}
	r.seq++
	entry.ID = fmt.Sprintf("history-%d", r.seq)
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByComplaint(_ context.Context, complaintID string) ([]domain.ComplaintHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ComplaintHistory
	for _, e := range r.entries {
		if e.ComplaintID == complaintID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeDepartmentRepo struct {
	departments []*domain.Department
	failWith    error
}

func (r *fakeDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	dept.ID = fmt.Sprintf("dept-%d", len(r.departments)+1)
	dept.CreatedAt = time.Now()
	r.departments = append(r.departments, dept)
	return nil
}

func (r *fakeDepartmentRepo) Update(_ context.Context, dept *domain.Department) error {
	for i, d := range r.departments {
		if d.ID == dept.ID {
			r.departments[i] = dept
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	for _, d := range r.departments {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeDepartmentRepo) FindByCategory(_ context.Context, category string) (*domain.Department, error) {
	if r.failWith != nil {
		return nil, r.failWith
	}
	var best *domain.Department
	for _, d := range r.departments {
		if !d.Handles(category) {
			continue
		}
		if best == nil || d.Code < best.Code {
			best = d
		}
	}
	if best == nil {
		return nil, pgx.ErrNoRows
	}
	return best, nil
}

func (r *fakeDepartmentRepo) List(_ context.Context) ([]domain.Department, error) {
	out := make([]domain.Department, 0, len(r.departments))
	for _, d := range r.departments {
		out = append(out, *d)
	}
	return out, nil
}

type fakeStaffRepo struct {
	mu        sync.Mutex
	profiles  map[string]*domain.StaffProfile
	names     map[string]string
	failList  error
	failApply error
}

func newFakeStaffRepo() *fakeStaffRepo {
	return &fakeStaffRepo{profiles: map[string]*domain.StaffProfile{}, names: map[string]string{}}
}

func (r *fakeStaffRepo) WithTx(_ pgx.Tx) repository.StaffRepository { return r }

func (r *fakeStaffRepo) Upsert(_ context.Context, profile *domain.StaffProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *profile
	r.profiles[profile.UserID] = &clone
	return nil
}

func (r *fakeStaffRepo) GetByUserID(_ context.Context, userID string) (*domain.StaffProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *profile
	return &clone, nil
}

func (r *fakeStaffRepo) ListEligible(_ context.Context, departmentID string) ([]repository.StaffCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failList != nil {
		return nil, r.failList
	}
	var out []repository.StaffCandidate
	for _, p := range r.profiles {
		if p.DepartmentID == nil || *p.DepartmentID != departmentID {
			continue
		}
		if !p.Dispatchable() {
			continue
		}
		out = append(out, repository.StaffCandidate{Profile: *p, Name: r.names[p.UserID]})
	}
	return out, nil
}

func (r *fakeStaffRepo) ListByDepartment(_ context.Context, departmentID string) ([]repository.StaffCandidate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []repository.StaffCandidate
	for _, p := range r.profiles {
		if p.DepartmentID != nil && *p.DepartmentID == departmentID {
			out = append(out, repository.StaffCandidate{Profile: *p, Name: r.names[p.UserID]})
		}
	}
	return out, nil
}

func (r *fakeStaffRepo) SetOnDuty(_ context.Context, userID string, onDuty bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile, ok := r.profiles[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	profile.OnDutyToday = onDuty
	return nil
}

func (r *fakeStaffRepo) ApplyRating(_ context.Context, userID string, rating int) (*domain.Rating, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failApply != nil {
		return nil, r.failApply
	}
	profile, ok := r.profiles[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	profile.Rating.Sum += float64(rating)
	profile.Rating.Count++
	result := profile.Rating
	return &result, nil
}

type fakeOrgRepo struct {
	orgs map[string]*domain.Organization
}

func newFakeOrgRepo(orgs ...*domain.Organization) *fakeOrgRepo {
	repo := &fakeOrgRepo{orgs: map[string]*domain.Organization{}}
	for _, org := range orgs {
		repo.orgs[org.ID] = org
	}
	return repo
}

func (r *fakeOrgRepo) Create(_ context.Context, org *domain.Organization) error {
	org.ID = fmt.Sprintf("org-%d", len(r.orgs)+1)
	org.CreatedAt = time.Now()
	r.orgs[org.ID] = org
	return nil
}

func (r *fakeOrgRepo) GetByID(_ context.Context, id string) (*domain.Organization, error) {
	org, ok := r.orgs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return org, nil
}

func (r *fakeOrgRepo) GetByJoinCode(_ context.Context, code string) (*domain.Organization, error) {
	for _, org := range r.orgs {
		if org.JoinCode == code {
			return org, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeReviewRepo struct {
	mu      sync.Mutex
	reviews []*domain.Review
	seq     int
}

func (r *fakeReviewRepo) WithTx(_ pgx.Tx) repository.ReviewRepository { return r }

func (r *fakeReviewRepo) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	review.ID = fmt.Sprintf("review-%d", r.seq)
	review.CreatedAt = time.Now()
	clone := *review
	r.reviews = append(r.reviews, &clone)
	return nil
}

func (r *fakeReviewRepo) GetByComplaint(_ context.Context, complaintID string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, review := range r.reviews {
		if review.ComplaintID == complaintID {
			return review, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeReviewRepo) ListByStaff(_ context.Context, staffID string, from, to *time.Time) ([]domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Review
	for _, review := range r.reviews {
		if review.StaffID != staffID {
			continue
		}
		if from != nil && review.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && review.CreatedAt.After(*to) {
			continue
		}
		out = append(out, *review)
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = fmt.Sprintf("user-%d", r.seq)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	attachments []domain.Attachment
	seq         int
}

func (r *fakeAttachmentRepo) WithTx(_ pgx.Tx) repository.AttachmentRepository { return r }

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	attachment.ID = fmt.Sprintf("attachment-%d", r.seq)
	attachment.CreatedAt = time.Now()
	r.attachments = append(r.attachments, *attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByComplaint(_ context.Context, complaintID string) ([]domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Attachment
	for _, a := range r.attachments {
		if a.ComplaintID == complaintID {
			out = append(out, a)
		}
	}
	return out, nil
}

type fakeCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	getErr      error
	setErr      error
	invalidated int
	getCalls    int
	setCalls    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]byte{}}
}

func (c *fakeCache) Get(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if c.getErr != nil {
		return false, c.getErr
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setCalls++
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *fakeCache) InvalidatePrefix(_ context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated++
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

func (d *recordingDispatcher) byType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
