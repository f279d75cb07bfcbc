package lms

import (
	"encoding/json"
	"strings"
	"time"
)

// UserSummary is the profile snapshot the API reports for the signed-in user.
// The login endpoints disagree on the id key, so both user_id and id are read.
type UserSummary struct {
	ID            int64  `json:"id"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name,omitempty"`
	Email         string `json:"email"`
	Role          string `json:"role"`
	CurrentPoints int    `json:"current_points"`
	IsAdmin       bool   `json:"is_admin,omitempty"`
}

// UnmarshalJSON accepts either "id" or "user_id".
func (u *UserSummary) UnmarshalJSON(data []byte) error {
	type alias UserSummary
	var raw struct {
		alias
		UserID int64 `json:"user_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = UserSummary(raw.alias)
	if u.ID == 0 {
		u.ID = raw.UserID
	}
	return nil
}

// IsZero reports whether no user is set.
func (u UserSummary) IsZero() bool {
	return u == UserSummary{}
}

// DisplayName returns the best available label for the user.
func (u UserSummary) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	if name != "" {
		return name
	}
	return u.Email
}

// Course mirrors a course record. Public listings key it as "id".
type Course struct {
	ID           int64   `json:"course_id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	IsActive     bool    `json:"is_active"`
	CreatedBy    string  `json:"created_by"`
	CreationDate string  `json:"creation_date"`
	Points       int     `json:"points"`
}

// UnmarshalJSON accepts either "course_id" or "id".
func (c *Course) UnmarshalJSON(data []byte) error {
	type alias Course
	var raw struct {
		alias
		AltID int64 `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Course(raw.alias)
	if c.ID == 0 {
		c.ID = raw.AltID
	}
	return nil
}

// IsZero reports whether the course is unset.
func (c Course) IsZero() bool {
	return c == Course{}
}

// Module is a chapter of a course.
type Module struct {
	ID       int64  `json:"module_id"`
	Title    string `json:"title"`
	Order    int    `json:"order"`
	Points   int    `json:"points"`
	CourseID int64  `json:"course_id"`
}

// IsZero reports whether the module is unset.
func (m Module) IsZero() bool {
	return m == Module{}
}

// Lesson is a unit of a module.
type Lesson struct {
	ID                int64  `json:"lesson_id"`
	Title             string `json:"title"`
	Content           string `json:"content"`
	LearningObjective string `json:"learning_objective"`
	SignsTaught       string `json:"signs_taught"`
	Order             int    `json:"order"`
	TrialVisible      bool   `json:"trial_visible"`
	ModuleID          int64  `json:"module_id"`
}

// IsZero reports whether the lesson is unset.
func (l Lesson) IsZero() bool {
	return l == Lesson{}
}

// Resource is a multimedia attachment of a lesson.
type Resource struct {
	ID              int64  `json:"resource_id"`
	LessonID        int64  `json:"lesson_id"`
	Type            string `json:"type"`
	URL             string `json:"url"`
	DurationSeconds int    `json:"duration_seconds"`
	Description     string `json:"description"`
	Order           int    `json:"order"`
}

// Duration returns the resource length.
func (r Resource) Duration() time.Duration {
	if r.DurationSeconds <= 0 {
		return 0
	}
	return time.Duration(r.DurationSeconds) * time.Second
}

// ProgressRecord tracks completion of one lesson.
type ProgressRecord struct {
	ID                 int64    `json:"progress_id"`
	CourseTitle        string   `json:"course_title"`
	ModuleTitle        string   `json:"module_title"`
	LessonTitle        string   `json:"lesson_title"`
	Completed          bool     `json:"completed"`
	ProgressPercentage *float64 `json:"progress_percentage,omitempty"`
	LessonID           int64    `json:"lesson_id,omitempty"`
	UserID             int64    `json:"user_id,omitempty"`
	StartDate          string   `json:"start_date,omitempty"`
	CompletionDate     string   `json:"completion_date,omitempty"`
}

// Percent returns the reported percentage, or 100/0 from Completed when the
// server omitted it.
func (p ProgressRecord) Percent() float64 {
	if p.ProgressPercentage != nil {
		return *p.ProgressPercentage
	}
	if p.Completed {
		return 100
	}
	return 0
}

// ParsedStartDate returns the parsed StartDate timestamp.
func (p ProgressRecord) ParsedStartDate() time.Time {
	return parseTime(p.StartDate)
}

// ParsedCompletionDate returns the parsed CompletionDate timestamp.
func (p ProgressRecord) ParsedCompletionDate() time.Time {
	return parseTime(p.CompletionDate)
}

// Achievement is a badge unlocked by points.
type Achievement struct {
	ID             int64  `json:"achievement_id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	Icon           string `json:"icon,omitempty"`
	RequiredPoints int    `json:"required_points"`
}

// Unlocked reports whether points reach the requirement.
func (a Achievement) Unlocked(points int) bool {
	return points >= a.RequiredPoints
}

// Credentials are sent to the login endpoint.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is sent to the sign-up endpoint.
type Registration struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name,omitempty"`
	Role      string `json:"role,omitempty" validate:"omitempty,oneof=student teacher"`
}

// NewModule is posted to create a module in a course.
type NewModule struct {
	Title    string `json:"title"`
	Order    int    `json:"order"`
	Points   int    `json:"points"`
	CourseID int64  `json:"course_id"`
}

// ProfileUpdate carries editable profile fields.
type ProfileUpdate struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Email     string `json:"email,omitempty" validate:"omitempty,email"`
}

// LoginResponse is the normalized login payload. Token is empty when the
// server omitted both access_token and token.
type LoginResponse struct {
	Token   string
	User    UserSummary
	Message string
}

// ProtectedResponse mirrors /api/protected.
type ProtectedResponse struct {
	Message string          `json:"message"`
	Results json.RawMessage `json:"results"`
}

// ProgressUpdate is posted to mark a lesson.
type ProgressUpdate struct {
	LessonID  int64 `json:"lesson_id"`
	Completed bool  `json:"completed"`
}

// Flask serializes datetimes as RFC1123 with a GMT zone.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
