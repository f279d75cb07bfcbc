package state

import "github.com/five82/aula/internal/lms"

// Session holds authentication state. LoggedIn is only set together with a
// non-empty Token.
type Session struct {
	Token       string
	CurrentUser lms.UserSummary
	LoggedIn    bool
}

// Selection remembers the entity the user last drilled into at each level.
// Levels are independent; none clears another.
type Selection struct {
	Course lms.Course
	Module lms.Module
	Lesson lms.Lesson
}

// Alert colors understood by the UI.
const (
	AlertSuccess = "success"
	AlertDanger  = "danger"
	AlertWarning = "warning"
	AlertInfo    = "info"
)

// Alert is a transient user notice.
type Alert struct {
	Text    string
	Color   string
	Display bool
}

// State is the complete client state. Lists are replaced wholesale and never
// mutated in place, so copies of State may share their backing arrays.
type State struct {
	Session   Session
	Selection Selection
	Alert     Alert

	Progress      []lms.ProgressRecord
	Achievements  []lms.Achievement
	Courses       []lms.Course
	PublicCourses []lms.Course
	Modules       []lms.Module
	Lessons       []lms.Lesson
	Resources     []lms.Resource
}

// Initial returns the state every process starts from: signed out, nothing
// selected, every list empty.
func Initial() State {
	return State{
		Progress:      []lms.ProgressRecord{},
		Achievements:  []lms.Achievement{},
		Courses:       []lms.Course{},
		PublicCourses: []lms.Course{},
		Modules:       []lms.Module{},
		Lessons:       []lms.Lesson{},
		Resources:     []lms.Resource{},
	}
}
