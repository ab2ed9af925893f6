package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/civic-complaints/internal/domain"
	"github.com/spec-kit/civic-complaints/internal/events"
	"github.com/spec-kit/civic-complaints/internal/repository"
	apperrors "github.com/spec-kit/civic-complaints/pkg/util"
)

// ReviewService accepts citizen feedback on resolved complaints and folds
// each rating into the staff member's running average.
type ReviewService struct {
	reviews    repository.ReviewRepository
	complaints repository.ComplaintRepository
	staff      repository.StaffRepository
	tx         repository.TxRunner
	dispatcher events.Dispatcher
	now        func() time.Time
}

// ReviewDependencies bundles collaborators for the review service.
type ReviewDependencies struct {
	ReviewRepo    repository.ReviewRepository
	ComplaintRepo repository.ComplaintRepository
	StaffRepo     repository.StaffRepository
	TxRunner      repository.TxRunner
	Dispatcher    events.Dispatcher
}

// NewReviewService constructs the service.
func NewReviewService(deps ReviewDependencies) *ReviewService {
	return &ReviewService{
		reviews:    deps.ReviewRepo,
		complaints: deps.ComplaintRepo,
		staff:      deps.StaffRepo,
		tx:         deps.TxRunner,
		dispatcher: deps.Dispatcher,
		now:        time.Now,
	}
}

// SubmitReviewInput is a review payload after boundary parsing.
type SubmitReviewInput struct {
	ComplaintID       string
	Rating            int
	ResolutionQuality *int
	Timeliness        *int
	Communication     *int
	Comment           string
}

// Submit records a review. Preconditions are checked in order: the complaint
// must exist, be resolved, belong to the caller, have an assignee, and not
// be reviewed already.
func (s *ReviewService) Submit(ctx context.Context, actor *domain.User, input SubmitReviewInput) (*domain.Review, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("actor required")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperrors.NewValidationError("rating must be between 1 and 5", map[string]any{"rating": input.Rating})
	}
	for name, sub := range map[string]*int{
		"resolution_quality": input.ResolutionQuality,
		"timeliness":         input.Timeliness,
		"communication":      input.Communication,
	} {
		if sub != nil && (*sub < 1 || *sub > 5) {
			return nil, apperrors.NewValidationError("subscore must be between 1 and 5", map[string]any{"field": name})
		}
	}

	complaint, err := s.complaints.GetByID(ctx, input.ComplaintID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": input.ComplaintID})
		}
		return nil, apperrors.MapError(err)
	}
	if complaint.Status != domain.ComplaintStatusResolved {
		return nil, apperrors.NewConflict("complaint is not resolved", map[string]any{"status": complaint.Status})
	}
	if complaint.CreatedBy != actor.ID {
		return nil, apperrors.NewForbidden("only the reporter may review")
	}
	if complaint.AssignedTo == nil {
		return nil, apperrors.NewConflict("complaint has no assigned staff", nil)
	}
	if _, err := s.reviews.GetByComplaint(ctx, complaint.ID); err == nil {
		return nil, apperrors.NewConflict("complaint already reviewed", map[string]any{"complaint_id": complaint.ID})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	review := &domain.Review{
		ComplaintID:       complaint.ID,
		StaffID:           *complaint.AssignedTo,
		CitizenID:         actor.ID,
		Rating:            input.Rating,
		ResolutionQuality: input.ResolutionQuality,
		Timeliness:        input.Timeliness,
		Communication:     input.Communication,
		Comment:           input.Comment,
	}
	// Review insert and rating fold commit together; a stored review must
	// always be reflected in the staff (sum, count) pair.
	var rating *domain.Rating
	if err := s.tx.InTx(ctx, func(tx pgx.Tx) error {
		if err := s.reviews.WithTx(tx).Create(ctx, review); err != nil {
			// The unique index on complaint_id backstops a concurrent
			// double submit.
			return apperrors.MapError(err)
		}
		var err error
		rating, err = s.staff.WithTx(tx).ApplyRating(ctx, review.StaffID, review.Rating)
		if err != nil {
			return apperrors.MapError(err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:          uuid.NewString(),
			Type:        events.EventReviewSubmitted,
			ComplaintID: complaint.ID,
			Actor:       events.Actor{UserID: actor.ID, Role: actor.Role},
			Timestamp:   s.now(),
			Payload: events.ReviewSubmittedPayload{
				ReviewID:      review.ID,
				StaffID:       review.StaffID,
				Rating:        review.Rating,
				RatingAverage: rating.Average(),
			},
		})
	}
	return review, nil
}

// ListByStaff returns reviews for a staff member, optionally windowed.
func (s *ReviewService) ListByStaff(ctx context.Context, staffID string, from, to *time.Time) ([]domain.Review, error) {
	reviews, err := s.reviews.ListByStaff(ctx, staffID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reviews, nil
}
