package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/aula/internal/app"
	"github.com/five82/aula/internal/lms"
	"github.com/five82/aula/internal/remote"
	"github.com/five82/aula/internal/session"
)

func (c *commands) newCoursesCmd() *cobra.Command {
	var public bool

	cmd := &cobra.Command{
		Use:   "courses",
		Short: "List courses (public ones when signed out)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd, !public, func(ctx context.Context, env *app.Env) error {
				loggedIn := env.Session.Current().LoggedIn
				task := env.Remote.Courses()
				if public || !loggedIn {
					task = env.Remote.PublicCourses()
				}
				if err := runTask(ctx, env, task); err != nil {
					return err
				}

				snap := env.Store.Snapshot()
				courses := snap.Courses
				if public || !loggedIn {
					courses = snap.PublicCourses
				}
				rows := make([][]string, 0, len(courses))
				for _, course := range courses {
					active := "yes"
					if !course.IsActive {
						active = "no"
					}
					rows = append(rows, []string{id(course.ID), course.Title, strconv.Itoa(course.Points), active})
				}
				return printTable(cmd, []string{"ID", "TITLE", "POINTS", "ACTIVE"}, rows, "No courses found.")
			})
		},
	}

	cmd.Flags().BoolVar(&public, "public", false, "list the public catalog even when signed in")
	return cmd
}

func (c *commands) newModulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "modules COURSE_ID",
		Short: "List the modules of a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseID, err := parseID("course", args[0])
			if err != nil {
				return err
			}
			return c.withEnv(cmd, false, func(ctx context.Context, env *app.Env) error {
				if err := runTask(ctx, env, env.Remote.Modules(courseID)); err != nil {
					return err
				}
				return printModules(cmd, env)
			})
		},
	}
	cmd.AddCommand(c.newModuleCreateCmd())
	return cmd
}

func (c *commands) newModuleCreateCmd() *cobra.Command {
	var mod lms.NewModule

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a module to a course (teachers and admins)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if mod.CourseID <= 0 || strings.TrimSpace(mod.Title) == "" {
				return errors.New("--course and --title are required")
			}
			return c.withEnv(cmd, true, func(ctx context.Context, env *app.Env) error {
				if err := syncAuthed(ctx, env, env.Remote.CreateModule(mod)); err != nil {
					return alertError(env, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created module %q in course %d\n\n", mod.Title, mod.CourseID)
				return printModules(cmd, env)
			})
		},
	}

	f := cmd.Flags()
	f.Int64Var(&mod.CourseID, "course", 0, "course id")
	f.StringVar(&mod.Title, "title", "", "module title")
	f.IntVar(&mod.Order, "order", 0, "position within the course")
	f.IntVar(&mod.Points, "points", 0, "points awarded for the module")
	return cmd
}

func printModules(cmd *cobra.Command, env *app.Env) error {
	modules := env.Store.Snapshot().Modules
	rows := make([][]string, 0, len(modules))
	for _, m := range modules {
		rows = append(rows, []string{id(m.ID), strconv.Itoa(m.Order), m.Title, strconv.Itoa(m.Points)})
	}
	return printTable(cmd, []string{"ID", "#", "TITLE", "POINTS"}, rows, "No modules found.")
}

func (c *commands) newLessonsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lessons MODULE_ID",
		Short: "List the lessons of a module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			moduleID, err := parseID("module", args[0])
			if err != nil {
				return err
			}
			return c.withEnv(cmd, true, func(ctx context.Context, env *app.Env) error {
				// Progress only colors the status column.
				err := env.Syncer.SyncAll(ctx, env.Remote.Lessons(moduleID), env.Remote.Progress())
				if err != nil && len(env.Store.Snapshot().Lessons) == 0 {
					return err
				}

				snap := env.Store.Snapshot()
				done := map[int64]bool{}
				for _, p := range snap.Progress {
					if p.Completed {
						done[p.LessonID] = true
					}
				}
				rows := make([][]string, 0, len(snap.Lessons))
				for _, l := range snap.Lessons {
					status := ""
					if done[l.ID] {
						status = "completed"
					}
					rows = append(rows, []string{id(l.ID), strconv.Itoa(l.Order), l.Title, status})
				}
				return printTable(cmd, []string{"ID", "#", "TITLE", "STATUS"}, rows, "No lessons found.")
			})
		},
	}
}

func (c *commands) newResourcesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resources LESSON_ID",
		Short: "List the resources of a lesson",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lessonID, err := parseID("lesson", args[0])
			if err != nil {
				return err
			}
			return c.withEnv(cmd, false, func(ctx context.Context, env *app.Env) error {
				if err := runTask(ctx, env, env.Remote.Resources(lessonID)); err != nil {
					return err
				}
				resources := env.Store.Snapshot().Resources
				rows := make([][]string, 0, len(resources))
				for _, r := range resources {
					length := ""
					if d := r.Duration(); d > 0 {
						length = d.String()
					}
					rows = append(rows, []string{id(r.ID), r.Type, r.URL, length})
				}
				return printTable(cmd, []string{"ID", "TYPE", "URL", "LENGTH"}, rows, "No resources found.")
			})
		},
	}
}

func (c *commands) newProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show your lesson progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd, true, func(ctx context.Context, env *app.Env) error {
				if err := syncAuthed(ctx, env, env.Remote.Progress()); err != nil {
					return err
				}
				progress := env.Store.Snapshot().Progress
				rows := make([][]string, 0, len(progress))
				for _, p := range progress {
					where := strings.Join(nonEmpty(p.CourseTitle, p.ModuleTitle, p.LessonTitle), " › ")
					if where == "" {
						where = "lesson " + id(p.LessonID)
					}
					rows = append(rows, []string{where, fmt.Sprintf("%.0f%%", p.Percent())})
				}
				return printTable(cmd, []string{"LESSON", "DONE"}, rows, "No progress yet.")
			})
		},
	}
}

func (c *commands) newAchievementsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "achievements",
		Short: "Show achievements and which are unlocked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd, true, func(ctx context.Context, env *app.Env) error {
				if err := syncAuthed(ctx, env, env.Remote.Achievements()); err != nil {
					return err
				}
				snap := env.Store.Snapshot()
				points := snap.Session.CurrentUser.CurrentPoints
				rows := make([][]string, 0, len(snap.Achievements))
				for _, a := range snap.Achievements {
					status := "locked"
					if a.Unlocked(points) {
						status = "unlocked"
					}
					rows = append(rows, []string{a.Name, strconv.Itoa(a.RequiredPoints), status})
				}
				return printTable(cmd, []string{"NAME", "POINTS", "STATUS"}, rows, "No achievements.")
			})
		},
	}
}

func (c *commands) newCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete LESSON_ID",
		Short: "Mark a lesson completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lessonID, err := parseID("lesson", args[0])
			if err != nil {
				return err
			}
			return c.withEnv(cmd, true, func(ctx context.Context, env *app.Env) error {
				if err := syncAuthed(ctx, env, env.Remote.CompleteLesson(lessonID)); err != nil {
					return alertError(env, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Lesson %d completed\n", lessonID)
				return nil
			})
		},
	}
}

// runTask runs one task and returns its fetch error.
func runTask(ctx context.Context, env *app.Env, task remote.Task) error {
	_, err := env.Syncer.Sync(ctx, task)
	return err
}

// syncAuthed is runTask for tasks that need a session.
func syncAuthed(ctx context.Context, env *app.Env, task remote.Task) error {
	res, err := env.Syncer.Sync(ctx, task)
	if res.Skipped {
		return session.ErrNotLoggedIn
	}
	return err
}

func parseID(kind, raw string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", kind, raw)
	}
	return v, nil
}

func id(v int64) string {
	return strconv.FormatInt(v, 10)
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
