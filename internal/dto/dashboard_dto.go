package dto

// StudentDashboardResponse aggregates the student's presence, gamification
// and catch-up state into one payload.
type StudentDashboardResponse struct {
	Profile         ProfileResponse      `json:"profile"`
	Badges          []BadgeResponse      `json:"badges"`
	Enrollments     []EnrollmentResponse `json:"enrollments"`
	TotalActiveMs   int64                `json:"total_active_ms"`
	PendingCatchUps []CatchUpResponse    `json:"pending_catch_ups"`
	OverdueCatchUps int                  `json:"overdue_catch_ups"`
}
