package dto

import (
	"time"

	"github.com/spec-kit/civic-complaints/internal/domain"
)

// DepartmentRequest payload for create and update.
type DepartmentRequest struct {
	Name              string   `json:"name"`
	Code              string   `json:"code"`
	CategoriesHandled []string `json:"categories_handled"`
	SLAPolicyHours    int      `json:"sla_policy_hours"`
	ManagerID         *string  `json:"manager_id,omitempty"`
	ContactEmail      string   `json:"contact_email,omitempty"`
	ContactPhone      string   `json:"contact_phone,omitempty"`
}

// DepartmentResponse payload.
type DepartmentResponse struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Code              string    `json:"code"`
	CategoriesHandled []string  `json:"categories_handled"`
	SLAPolicyHours    int       `json:"sla_policy_hours"`
	ManagerID         *string   `json:"manager_id,omitempty"`
	ContactEmail      string    `json:"contact_email,omitempty"`
	ContactPhone      string    `json:"contact_phone,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// StaffProfileRequest payload for profile upsert.
type StaffProfileRequest struct {
	DepartmentID *string      `json:"department_id,omitempty"`
	Title        string       `json:"title,omitempty"`
	Skills       []string     `json:"skills,omitempty"`
	ShiftStart   string       `json:"shift_start,omitempty"`
	ShiftEnd     string       `json:"shift_end,omitempty"`
	City         string       `json:"city,omitempty"`
	Zones        []string     `json:"zones,omitempty"`
	Location     *LocationDTO `json:"location,omitempty"`
	ContactPhone string       `json:"contact_phone,omitempty"`
	ContactEmail string       `json:"contact_email,omitempty"`
}

// StaffProfileResponse payload.
type StaffProfileResponse struct {
	UserID        string       `json:"user_id"`
	DepartmentID  *string      `json:"department_id,omitempty"`
	Title         string       `json:"title,omitempty"`
	Skills        []string     `json:"skills,omitempty"`
	ShiftStart    string       `json:"shift_start,omitempty"`
	ShiftEnd      string       `json:"shift_end,omitempty"`
	OnDutyToday   bool         `json:"on_duty_today"`
	City          string       `json:"city,omitempty"`
	Zones         []string     `json:"zones,omitempty"`
	Location      *LocationDTO `json:"location,omitempty"`
	ContactPhone  string       `json:"contact_phone,omitempty"`
	ContactEmail  string       `json:"contact_email,omitempty"`
	RatingAverage float64      `json:"rating_average"`
	RatingCount   int          `json:"rating_count"`
}

// DutyRequest payload.
type DutyRequest struct {
	OnDuty bool `json:"on_duty"`
}

// NearbyStaffResponse is one ranked dispatch candidate.
type NearbyStaffResponse struct {
	UserID               string  `json:"user_id"`
	Name                 string  `json:"name"`
	Email                string  `json:"email,omitempty"`
	RatingAverage        float64 `json:"rating_average"`
	DistanceKm           float64 `json:"distance_km"`
	EstimatedArrivalMins int     `json:"estimated_arrival_mins"`
}

// NearbyResponse is the locator answer.
type NearbyResponse struct {
	DepartmentID   string                `json:"department_id"`
	DepartmentName string                `json:"department_name"`
	Primary        []NearbyStaffResponse `json:"primary"`
	Fallback       []NearbyStaffResponse `json:"fallback,omitempty"`
	Cached         bool                  `json:"cached"`
}

// SubmitReviewRequest payload.
type SubmitReviewRequest struct {
	ComplaintID       string `json:"complaint_id"`
	Rating            int    `json:"rating"`
	ResolutionQuality *int   `json:"resolution_quality,omitempty"`
	Timeliness        *int   `json:"timeliness,omitempty"`
	Communication     *int   `json:"communication,omitempty"`
	Comment           string `json:"comment,omitempty"`
}

// ReviewResponse payload.
type ReviewResponse struct {
	ID                string    `json:"id"`
	ComplaintID       string    `json:"complaint_id"`
	StaffID           string    `json:"staff_id"`
	Rating            int       `json:"rating"`
	ResolutionQuality *int      `json:"resolution_quality,omitempty"`
	Timeliness        *int      `json:"timeliness,omitempty"`
	Communication     *int      `json:"communication,omitempty"`
	Comment           string    `json:"comment,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ProfileFromDomain maps a staff profile to its response shape.
func ProfileFromDomain(profile *domain.StaffProfile) StaffProfileResponse {
	resp := StaffProfileResponse{
		UserID:        profile.UserID,
		DepartmentID:  profile.DepartmentID,
		Title:         profile.Title,
		Skills:        profile.Skills,
		ShiftStart:    profile.ShiftStart,
		ShiftEnd:      profile.ShiftEnd,
		OnDutyToday:   profile.OnDutyToday,
		City:          profile.WorkArea.City,
		Zones:         profile.WorkArea.Zones,
		ContactPhone:  profile.ContactPhone,
		ContactEmail:  profile.ContactEmail,
		RatingAverage: profile.Rating.Average(),
		RatingCount:   profile.Rating.Count,
	}
	if loc := profile.WorkArea.Location; loc != nil {
		resp.Location = &LocationDTO{Lat: loc.Lat, Lng: loc.Lng}
	}
	return resp
}
