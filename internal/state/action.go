package state

import "github.com/five82/aula/internal/lms"

// Kind is the wire name of an action.
type Kind string

// Action kinds. The first nine are the vocabulary the web front end shipped
// with; the set_* catalog kinds cache the drill-down lists.
const (
	KindToken         Kind = "handle_token"
	KindUser          Kind = "handle_user"
	KindLoggedIn      Kind = "handle_isLogged"
	KindAlert         Kind = "handle_alert"
	KindCourseDetails Kind = "course_details"
	KindModuleDetails Kind = "module_details"
	KindLessonDetails Kind = "lesson_details"
	KindProgress      Kind = "set_my_progress"
	KindAchievements  Kind = "set_achievements"
	KindCourses       Kind = "set_courses"
	KindPublicCourses Kind = "set_public_courses"
	KindModules       Kind = "set_modules"
	KindLessons       Kind = "set_lessons"
	KindResources     Kind = "set_resources"
)

// Action is a typed request to transform State. Each kind has its own type.
type Action interface {
	Kind() Kind
}

// SetToken replaces Session.Token.
type SetToken struct{ Token string }

// SetUser replaces Session.CurrentUser.
type SetUser struct{ User lms.UserSummary }

// SetLoggedIn replaces Session.LoggedIn.
type SetLoggedIn struct{ LoggedIn bool }

// SetAlert replaces the alert.
type SetAlert struct{ Alert Alert }

// SelectCourse replaces Selection.Course.
type SelectCourse struct{ Course lms.Course }

// SelectModule replaces Selection.Module.
type SelectModule struct{ Module lms.Module }

// SelectLesson replaces Selection.Lesson.
type SelectLesson struct{ Lesson lms.Lesson }

// SetProgress replaces the progress list.
type SetProgress struct{ Items []lms.ProgressRecord }

// SetAchievements replaces the achievement list.
type SetAchievements struct{ Items []lms.Achievement }

// SetCourses replaces the authenticated course list.
type SetCourses struct{ Items []lms.Course }

// SetPublicCourses replaces the public course list.
type SetPublicCourses struct{ Items []lms.Course }

// SetModules replaces the module list of the selected course.
type SetModules struct{ Items []lms.Module }

// SetLessons replaces the lesson list of the selected module.
type SetLessons struct{ Items []lms.Lesson }

// SetResources replaces the resource list of the selected lesson.
type SetResources struct{ Items []lms.Resource }

func (SetToken) Kind() Kind         { return KindToken }
func (SetUser) Kind() Kind          { return KindUser }
func (SetLoggedIn) Kind() Kind      { return KindLoggedIn }
func (SetAlert) Kind() Kind         { return KindAlert }
func (SelectCourse) Kind() Kind     { return KindCourseDetails }
func (SelectModule) Kind() Kind     { return KindModuleDetails }
func (SelectLesson) Kind() Kind     { return KindLessonDetails }
func (SetProgress) Kind() Kind      { return KindProgress }
func (SetAchievements) Kind() Kind  { return KindAchievements }
func (SetCourses) Kind() Kind       { return KindCourses }
func (SetPublicCourses) Kind() Kind { return KindPublicCourses }
func (SetModules) Kind() Kind       { return KindModules }
func (SetLessons) Kind() Kind       { return KindLessons }
func (SetResources) Kind() Kind     { return KindResources }

// ClearAlert is the empty alert navigations issue to dismiss a notice.
func ClearAlert() SetAlert {
	return SetAlert{}
}

// Notify builds a displayed alert.
func Notify(color, text string) SetAlert {
	return SetAlert{Alert: Alert{Text: text, Color: color, Display: true}}
}
