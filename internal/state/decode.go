package state

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/five82/aula/internal/lms"
)

// Decode maps a named action with a JSON payload onto its typed form. List
// kinds never fail on shape: a payload that is not an array, or an object
// wrapping one, becomes an empty list. Scalar and record kinds fail on a
// payload of the wrong type. Unknown kinds fail with ErrUnknownAction.
func Decode(kind string, payload json.RawMessage) (Action, error) {
	switch Kind(kind) {
	case KindToken:
		var token string
		if err := decodeScalar(payload, &token); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return SetToken{Token: token}, nil
	case KindLoggedIn:
		var logged bool
		if err := decodeScalar(payload, &logged); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return SetLoggedIn{LoggedIn: logged}, nil
	case KindUser:
		var user lms.UserSummary
		if err := decodeScalar(payload, &user); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return SetUser{User: user}, nil
	case KindAlert:
		var raw struct {
			Text    string `json:"text"`
			Color   string `json:"color"`
			Display bool   `json:"display"`
		}
		if err := decodeScalar(payload, &raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return SetAlert{Alert: Alert{Text: raw.Text, Color: raw.Color, Display: raw.Display}}, nil
	case KindCourseDetails:
		var course lms.Course
		if err := decodeScalar(payload, &course); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return SelectCourse{Course: course}, nil
	case KindModuleDetails:
		var module lms.Module
		if err := decodeScalar(payload, &module); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return SelectModule{Module: module}, nil
	case KindLessonDetails:
		var lesson lms.Lesson
		if err := decodeScalar(payload, &lesson); err != nil {
			return nil, fmt.Errorf("decode %s: %w", kind, err)
		}
		return SelectLesson{Lesson: lesson}, nil
	case KindProgress:
		return SetProgress{Items: coerceList[lms.ProgressRecord](payload, "progress")}, nil
	case KindAchievements:
		return SetAchievements{Items: coerceList[lms.Achievement](payload, "achievements")}, nil
	case KindCourses:
		return SetCourses{Items: coerceList[lms.Course](payload, "courses")}, nil
	case KindPublicCourses:
		return SetPublicCourses{Items: coerceList[lms.Course](payload, "courses")}, nil
	case KindModules:
		return SetModules{Items: coerceList[lms.Module](payload, "modules")}, nil
	case KindLessons:
		return SetLessons{Items: coerceList[lms.Lesson](payload, "lessons")}, nil
	case KindResources:
		return SetResources{Items: coerceList[lms.Resource](payload, "resources")}, nil
	default:
		return nil, fmt.Errorf("decode %q: %w", kind, ErrUnknownAction)
	}
}

// decodeScalar treats an absent or null payload as the zero value.
func decodeScalar(payload json.RawMessage, dest any) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.Unmarshal(trimmed, dest)
}

// coerceList never fails: malformed or non-list payloads become empty.
func coerceList[T any](payload json.RawMessage, key string) []T {
	items, err := lms.DecodeList[T](payload, key)
	if err != nil {
		return []T{}
	}
	return items
}
