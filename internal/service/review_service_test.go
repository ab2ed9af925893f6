package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/civic-complaints/internal/domain"
	"github.com/spec-kit/civic-complaints/internal/events"
	apperrors "github.com/spec-kit/civic-complaints/pkg/util"
)

type reviewFixture struct {
	service    *ReviewService
	reviews    *fakeReviewRepo
	complaints *fakeComplaintRepo
	staff      *fakeStaffRepo
	tx         *fakeTxRunner
	dispatcher *recordingDispatcher
}

func newReviewFixture(t *testing.T) *reviewFixture {
	t.Helper()
	fx := &reviewFixture{
		reviews:    &fakeReviewRepo{},
		complaints: newFakeComplaintRepo(),
		staff:      newFakeStaffRepo(),
		tx:         &fakeTxRunner{},
		dispatcher: &recordingDispatcher{},
	}
	fx.service = NewReviewService(ReviewDependencies{
		ReviewRepo:    fx.reviews,
		ComplaintRepo: fx.complaints,
		StaffRepo:     fx.staff,
		TxRunner:      fx.tx,
		Dispatcher:    fx.dispatcher,
	})
	return fx
}

func (fx *reviewFixture) seedResolved(t *testing.T, creatorID, staffID string) *domain.Complaint {
	t.Helper()
	deptID := "dept-water"
	fx.staff.profiles[staffID] = &domain.StaffProfile{UserID: staffID, DepartmentID: &deptID}
	resolvedAt := time.Now()
	complaint := &domain.Complaint{
		ReferenceKey:   "CMP-TEST",
		OrganizationID: "org-1",
		CreatedBy:      creatorID,
		Title:          "Leak",
		Description:    "Leak",
		Category:       "Water Leakage",
		Priority:       domain.ComplaintPriorityLow,
		Status:         domain.ComplaintStatusResolved,
		AssignedTo:     &staffID,
		SLADeadline:    resolvedAt.Add(12 * time.Hour),
		ResolutionTime: &resolvedAt,
	}
	require.NoError(t, fx.complaints.Create(context.Background(), complaint))
	return complaint
}

func TestSubmitReviewUpdatesRunningAverage(t *testing.T) {
	fx := newReviewFixture(t)
	first := fx.seedResolved(t, "user-1", "staff-1")
	second := fx.seedResolved(t, "user-2", "staff-1")

	_, err := fx.service.Submit(context.Background(), citizen("user-1"), SubmitReviewInput{
		ComplaintID: first.ID,
		Rating:      5,
		Comment:     "fast fix",
	})
	require.NoError(t, err)

	review, err := fx.service.Submit(context.Background(), &domain.User{ID: "user-2", OrganizationID: "org-1", Role: domain.RoleCitizen}, SubmitReviewInput{
		ComplaintID: second.ID,
		Rating:      2,
	})
	require.NoError(t, err)
	assert.Equal(t, "staff-1", review.StaffID)

	profile := fx.staff.profiles["staff-1"]
	assert.Equal(t, 2, profile.Rating.Count)
	assert.InDelta(t, 3.5, profile.Rating.Average(), 1e-9)

	submitted := fx.dispatcher.byType(events.EventReviewSubmitted)
	require.Len(t, submitted, 2)
}

func TestSubmitReviewPreconditionOrder(t *testing.T) {
	fx := newReviewFixture(t)
	complaint := fx.seedResolved(t, "user-1", "staff-1")

	// unknown complaint comes first
	_, err := fx.service.Submit(context.Background(), citizen("user-1"), SubmitReviewInput{
		ComplaintID: "missing",
		Rating:      4,
	})
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)

	// unresolved beats ownership
	open := fx.seedResolved(t, "someone-else", "staff-1")
	fx.complaints.complaints[open.ID].Status = domain.ComplaintStatusOpen
	_, err = fx.service.Submit(context.Background(), citizen("user-1"), SubmitReviewInput{
		ComplaintID: open.ID,
		Rating:      4,
	})
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	// ownership beats duplicates
	_, err = fx.service.Submit(context.Background(), citizen("not-the-reporter"), SubmitReviewInput{
		ComplaintID: complaint.ID,
		Rating:      4,
	})
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestSubmitReviewRejectsDuplicate(t *testing.T) {
	fx := newReviewFixture(t)
	complaint := fx.seedResolved(t, "user-1", "staff-1")

	_, err := fx.service.Submit(context.Background(), citizen("user-1"), SubmitReviewInput{
		ComplaintID: complaint.ID,
		Rating:      4,
	})
	require.NoError(t, err)

	_, err = fx.service.Submit(context.Background(), citizen("user-1"), SubmitReviewInput{
		ComplaintID: complaint.ID,
		Rating:      5,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	profile := fx.staff.profiles["staff-1"]
	assert.Equal(t, 1, profile.Rating.Count)
}

func TestSubmitReviewValidation(t *testing.T) {
	fx := newReviewFixture(t)
	complaint := fx.seedResolved(t, "user-1", "staff-1")

	_, err := fx.service.Submit(context.Background(), citizen("user-1"), SubmitReviewInput{
		ComplaintID: complaint.ID,
		Rating:      6,
	})
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	bad := 0
	_, err = fx.service.Submit(context.Background(), citizen("user-1"), SubmitReviewInput{
		ComplaintID: complaint.ID,
		Rating:      4,
		Timeliness:  &bad,
	})
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestSubmitReviewNoAssignee(t *testing.T) {
	fx := newReviewFixture(t)
	complaint := fx.seedResolved(t, "user-1", "staff-1")
	fx.complaints.complaints[complaint.ID].AssignedTo = nil

	_, err := fx.service.Submit(context.Background(), citizen("user-1"), SubmitReviewInput{
		ComplaintID: complaint.ID,
		Rating:      4,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestSubmitReviewRollsBackWhenRatingUpdateFails(t *testing.T) {
	fx := newReviewFixture(t)
	complaint := fx.seedResolved(t, "user-1", "staff-1")
	fx.staff.failApply = errors.New("rating update failed")

	_, err := fx.service.Submit(context.Background(), citizen("user-1"), SubmitReviewInput{
		ComplaintID: complaint.ID,
		Rating:      5,
	})
	require.Error(t, err)
	assert.Equal(t, 1, fx.tx.rollbacks)
	assert.Empty(t, fx.dispatcher.byType(events.EventReviewSubmitted))
}

func TestListByStaffWindow(t *testing.T) {
	fx := newReviewFixture(t)
	complaint := fx.seedResolved(t, "user-1", "staff-1")

	_, err := fx.service.Submit(context.Background(), citizen("user-1"), SubmitReviewInput{
		ComplaintID: complaint.ID,
		Rating:      4,
	})
	require.NoError(t, err)

	all, err := fx.service.ListByStaff(context.Background(), "staff-1", nil, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	future := time.Now().Add(time.Hour)
	none, err := fx.service.ListByStaff(context.Background(), "staff-1", &future, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}
