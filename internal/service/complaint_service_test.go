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

type complaintFixture struct {
	service    *ComplaintService
	complaints *fakeComplaintRepo
	history    *fakeHistoryRepo
	depts      *fakeDepartmentRepo
	staff      *fakeStaffRepo
	orgs       *fakeOrgRepo
	cache      *fakeCache
	tx         *fakeTxRunner
	dispatcher *recordingDispatcher
	now        time.Time
}

func newComplaintFixture(t *testing.T, plan domain.PlanTier) *complaintFixture {
	t.Helper()
	fx := &complaintFixture{
		complaints: newFakeComplaintRepo(),
		history:    &fakeHistoryRepo{},
		depts:      &fakeDepartmentRepo{},
		staff:      newFakeStaffRepo(),
		orgs:       newFakeOrgRepo(&domain.Organization{ID: "org-1", Name: "Springfield", Plan: plan, JoinCode: "SPR1"}),
		cache:      newFakeCache(),
		tx:         &fakeTxRunner{},
		dispatcher: &recordingDispatcher{},
		now:        time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	fx.depts.departments = []*domain.Department{
		{ID: "dept-water", Name: "Water Supply", Code: "WATER_SUP", CategoriesHandled: []string{"Water Leakage", "No Water Supply"}, SLAPolicyHours: 12},
		{ID: "dept-roads", Name: "Roads", Code: "ROADS", CategoriesHandled: []string{"Potholes", "Road Damage"}, SLAPolicyHours: 48},
	}
	fx.service = NewComplaintService(ComplaintDependencies{
		ComplaintRepo:  fx.complaints,
		HistoryRepo:    fx.history,
		DepartmentRepo: fx.depts,
		StaffRepo:      fx.staff,
		OrgRepo:        fx.orgs,
		AttachmentRepo: &fakeAttachmentRepo{},
		TxRunner:       fx.tx,
		NearbyCache:    fx.cache,
		Dispatcher:     fx.dispatcher,
	})
	fx.service.now = func() time.Time { return fx.now }
	return fx
}

func citizen(id string) *domain.User {
	return &domain.User{ID: id, OrganizationID: "org-1", Role: domain.RoleCitizen}
}

func staffUser(id string) *domain.User {
	return &domain.User{ID: id, OrganizationID: "org-1", Role: domain.RoleStaff}
}

func adminUser(id string) *domain.User {
	return &domain.User{ID: id, OrganizationID: "org-1", Role: domain.RoleAdmin}
}

func TestCreateComplaintRoutesAndStampsSLA(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)

	complaint, err := fx.service.Create(context.Background(), citizen("user-1"), CreateComplaintInput{
		Title:       "Water leaking on Main St",
		Description: "Steady leak from a broken main",
		Category:    "Water Leakage",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ComplaintStatusOpen, complaint.Status)
	assert.Equal(t, domain.ComplaintPriorityLow, complaint.Priority)
	require.NotNil(t, complaint.DepartmentID)
	assert.Equal(t, "dept-water", *complaint.DepartmentID)
	// department hours (12) beat the free plan ceiling (72)
	assert.Equal(t, fx.now.Add(12*time.Hour), complaint.SLADeadline)
	assert.Contains(t, complaint.ReferenceKey, "CMP-")

	require.Len(t, fx.history.entries, 1)
	assert.Nil(t, fx.history.entries[0].FromStatus)
	assert.Equal(t, domain.ComplaintStatusOpen, fx.history.entries[0].ToStatus)

	created := fx.dispatcher.byType(events.EventComplaintCreated)
	require.Len(t, created, 1)
	assert.Equal(t, complaint.ID, created[0].ComplaintID)
}

func TestCreateComplaintPlanDefaults(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanTitan)

	complaint, err := fx.service.Create(context.Background(), citizen("user-1"), CreateComplaintInput{
		Title:       "Deep pothole",
		Description: "Dangerous pothole near the school",
		Category:    "Potholes",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ComplaintPriorityHigh, complaint.Priority)
	// plan ceiling (24) beats the roads department policy (48)
	assert.Equal(t, fx.now.Add(24*time.Hour), complaint.SLADeadline)
}

func TestCreateComplaintUnroutedCategory(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)

	complaint, err := fx.service.Create(context.Background(), citizen("user-1"), CreateComplaintInput{
		Title:       "Loud construction at night",
		Description: "Drilling past midnight",
		Category:    "Noise Pollution",
	})
	require.NoError(t, err)

	assert.Nil(t, complaint.DepartmentID)
	assert.Equal(t, fx.now.Add(72*time.Hour), complaint.SLADeadline)
}

func TestCreateComplaintQuota(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	actor := citizen("user-1")

	for i := 0; i < 2; i++ {
		_, err := fx.service.Create(context.Background(), actor, CreateComplaintInput{
			Title:       "Pothole",
			Description: "Another pothole",
			Category:    "Potholes",
		})
		require.NoError(t, err)
	}

	_, err := fx.service.Create(context.Background(), actor, CreateComplaintInput{
		Title:       "Pothole",
		Description: "One too many",
		Category:    "Potholes",
	})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, "QUOTA_EXCEEDED", domainErr.Code)
	assert.Equal(t, 429, domainErr.HTTPStatus)
}

func TestCreateComplaintUnlimitedPlanSkipsQuota(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanGod)
	actor := citizen("user-1")

	for i := 0; i < 5; i++ {
		_, err := fx.service.Create(context.Background(), actor, CreateComplaintInput{
			Title:       "Pothole",
			Description: "Potholes everywhere",
			Category:    "Potholes",
		})
		require.NoError(t, err)
	}
}

func TestCreateComplaintValidation(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)

	_, err := fx.service.Create(context.Background(), citizen("user-1"), CreateComplaintInput{
		Title:       "Something",
		Description: "Something",
		Category:    "Not A Category",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)

	orphan := &domain.User{ID: "user-2", Role: domain.RoleCitizen}
	_, err = fx.service.Create(context.Background(), orphan, CreateComplaintInput{
		Title:       "Something",
		Description: "Something",
		Category:    "Potholes",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestCreateComplaintValidatesPreselectedStaff(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	unknown := "ghost"

	_, err := fx.service.Create(context.Background(), citizen("user-1"), CreateComplaintInput{
		Title:       "Water leaking on Main St",
		Description: "Steady leak from a broken main",
		Category:    "Water Leakage",
		StaffID:     &unknown,
	})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
	assert.Empty(t, fx.complaints.complaints)

	// staff from another department cannot be pre-assigned
	seedStaffProfile(fx, "roads-staff", "dept-roads")
	wrongDept := "roads-staff"
	_, err = fx.service.Create(context.Background(), citizen("user-1"), CreateComplaintInput{
		Title:       "Water leaking on Main St",
		Description: "Steady leak from a broken main",
		Category:    "Water Leakage",
		StaffID:     &wrongDept,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)

	seedStaffProfile(fx, "water-staff", "dept-water")
	sameDept := "water-staff"
	complaint, err := fx.service.Create(context.Background(), citizen("user-1"), CreateComplaintInput{
		Title:       "Water leaking on Main St",
		Description: "Steady leak from a broken main",
		Category:    "Water Leakage",
		StaffID:     &sameDept,
	})
	require.NoError(t, err)
	require.NotNil(t, complaint.AssignedTo)
	assert.Equal(t, "water-staff", *complaint.AssignedTo)
}

func TestCreateComplaintRollsBackWhenHistoryFails(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	fx.history.failCreate = errors.New("history insert failed")

	_, err := fx.service.Create(context.Background(), citizen("user-1"), CreateComplaintInput{
		Title:       "Water leaking on Main St",
		Description: "Steady leak from a broken main",
		Category:    "Water Leakage",
	})
	require.Error(t, err)
	assert.Equal(t, 1, fx.tx.rollbacks)
	assert.Empty(t, fx.dispatcher.byType(events.EventComplaintCreated))
}

func seedComplaint(t *testing.T, fx *complaintFixture, category string) *domain.Complaint {
	t.Helper()
	complaint, err := fx.service.Create(context.Background(), citizen("user-1"), CreateComplaintInput{
		Title:       "Seed",
		Description: "Seed complaint",
		Category:    category,
	})
	require.NoError(t, err)
	return complaint
}

func seedStaffProfile(fx *complaintFixture, userID, deptID string) {
	fx.staff.profiles[userID] = &domain.StaffProfile{UserID: userID, DepartmentID: &deptID}
}

func TestUpdateStatusStampsResolutionTime(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	complaint := seedComplaint(t, fx, "Water Leakage")
	seedStaffProfile(fx, "staff-1", "dept-water")

	updated, err := fx.service.UpdateStatus(context.Background(), staffUser("staff-1"), complaint.ID, UpdateStatusInput{
		Status: domain.ComplaintStatusInProgress,
		Note:   "crew dispatched",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ComplaintStatusInProgress, updated.Status)
	assert.Nil(t, updated.ResolutionTime)

	resolved, err := fx.service.UpdateStatus(context.Background(), staffUser("staff-1"), complaint.ID, UpdateStatusInput{
		Status: domain.ComplaintStatusResolved,
	})
	require.NoError(t, err)
	require.NotNil(t, resolved.ResolutionTime)
	assert.Equal(t, fx.now, *resolved.ResolutionTime)

	// creation + two transitions
	assert.Len(t, fx.history.entries, 3)
	last := fx.history.entries[2]
	require.NotNil(t, last.FromStatus)
	assert.Equal(t, domain.ComplaintStatusInProgress, *last.FromStatus)
	assert.Equal(t, domain.ComplaintStatusResolved, last.ToStatus)
}

func TestUpdateStatusReopenClearsResolution(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	complaint := seedComplaint(t, fx, "Water Leakage")
	seedStaffProfile(fx, "staff-1", "dept-water")

	_, err := fx.service.UpdateStatus(context.Background(), staffUser("staff-1"), complaint.ID, UpdateStatusInput{
		Status: domain.ComplaintStatusResolved,
	})
	require.NoError(t, err)

	_, err = fx.service.UpdateStatus(context.Background(), staffUser("staff-1"), complaint.ID, UpdateStatusInput{
		Status: domain.ComplaintStatusOpen,
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	reopened, err := fx.service.UpdateStatus(context.Background(), adminUser("admin-1"), complaint.ID, UpdateStatusInput{
		Status: domain.ComplaintStatusOpen,
		Note:   "leak came back",
	})
	require.NoError(t, err)
	assert.Nil(t, reopened.ResolutionTime)
}

func TestUpdateStatusDepartmentScope(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	complaint := seedComplaint(t, fx, "Water Leakage")
	seedStaffProfile(fx, "staff-roads", "dept-roads")

	_, err := fx.service.UpdateStatus(context.Background(), staffUser("staff-roads"), complaint.ID, UpdateStatusInput{
		Status: domain.ComplaintStatusInProgress,
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)
}

func TestUpdateStatusConcurrentConflict(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	complaint := seedComplaint(t, fx, "Water Leakage")
	seedStaffProfile(fx, "staff-1", "dept-water")

	// another writer moves the complaint between our read and write
	fx.complaints.conflictOnce = true

	_, err := fx.service.UpdateStatus(context.Background(), adminUser("admin-1"), complaint.ID, UpdateStatusInput{
		Status: domain.ComplaintStatusResolved,
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestAssignStaffInvalidatesNearbyCache(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	complaint := seedComplaint(t, fx, "Water Leakage")
	seedStaffProfile(fx, "staff-1", "dept-water")

	updated, err := fx.service.AssignStaff(context.Background(), adminUser("admin-1"), complaint.ID, "staff-1")
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, "staff-1", *updated.AssignedTo)
	assert.Equal(t, 1, fx.cache.invalidated)

	assigned := fx.dispatcher.byType(events.EventStaffAssigned)
	require.Len(t, assigned, 1)
}

func TestAssignStaffRejectsWrongDepartment(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	complaint := seedComplaint(t, fx, "Water Leakage")
	seedStaffProfile(fx, "staff-roads", "dept-roads")

	_, err := fx.service.AssignStaff(context.Background(), adminUser("admin-1"), complaint.ID, "staff-roads")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperrors.ToDomainError(err).Code)
}

func TestGetForActorVisibility(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	complaint := seedComplaint(t, fx, "Water Leakage")

	_, _, err := fx.service.GetForActor(context.Background(), citizen("user-1"), complaint.ID)
	require.NoError(t, err)

	_, _, err = fx.service.GetForActor(context.Background(), citizen("user-2"), complaint.ID)
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	_, _, err = fx.service.GetForActor(context.Background(), adminUser("admin-1"), complaint.ID)
	require.NoError(t, err)
}

func TestListAllScopesStaffToDepartment(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanGod)
	seedComplaint(t, fx, "Water Leakage")
	seedComplaint(t, fx, "Potholes")
	seedStaffProfile(fx, "staff-1", "dept-water")

	mine, err := fx.service.ListAll(context.Background(), staffUser("staff-1"), ComplaintListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "dept-water", *mine[0].DepartmentID)

	all, err := fx.service.ListAll(context.Background(), adminUser("admin-1"), ComplaintListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSLABreachedIsReadTime(t *testing.T) {
	fx := newComplaintFixture(t, domain.PlanFree)
	complaint := seedComplaint(t, fx, "Water Leakage")

	assert.False(t, complaint.SLABreached(fx.now.Add(11*time.Hour)))
	assert.True(t, complaint.SLABreached(fx.now.Add(13*time.Hour)))

	complaint.Status = domain.ComplaintStatusResolved
	assert.False(t, complaint.SLABreached(fx.now.Add(13*time.Hour)))
}
