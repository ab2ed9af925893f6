package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-complaints/internal/api/dto"
	"github.com/spec-kit/civic-complaints/internal/auth"
	"github.com/spec-kit/civic-complaints/internal/domain"
	"github.com/spec-kit/civic-complaints/internal/service"
	apperrors "github.com/spec-kit/civic-complaints/pkg/util"
)

// ReviewsHandler manages review endpoints.
type ReviewsHandler struct {
	service *service.ReviewService
}

// NewReviewsHandler constructs the handler.
func NewReviewsHandler(reviewService *service.ReviewService) *ReviewsHandler {
	return &ReviewsHandler{service: reviewService}
}

// Submit POST /reviews.
func (h *ReviewsHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SubmitReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	review, err := h.service.Submit(c.Context(), principal.User, service.SubmitReviewInput{
		ComplaintID:       req.ComplaintID,
		Rating:            req.Rating,
		ResolutionQuality: req.ResolutionQuality,
		Timeliness:        req.Timeliness,
		Communication:     req.Communication,
		Comment:           req.Comment,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reviewResponse(review)})
}

// ListByStaff GET /staff/:id/reviews.
func (h *ReviewsHandler) ListByStaff(c *fiber.Ctx) error {
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = &t
		}
	}
	reviews, err := h.service.ListByStaff(c.Context(), c.Params("id"), from, to)
	if err != nil {
		return err
	}
	items := make([]dto.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		items = append(items, reviewResponse(&reviews[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func reviewResponse(review *domain.Review) dto.ReviewResponse {
	return dto.ReviewResponse{
		ID:                review.ID,
		ComplaintID:       review.ComplaintID,
		StaffID:           review.StaffID,
		Rating:            review.Rating,
		ResolutionQuality: review.ResolutionQuality,
		Timeliness:        review.Timeliness,
		Communication:     review.Communication,
		Comment:           review.Comment,
		CreatedAt:         review.CreatedAt,
	}
}
