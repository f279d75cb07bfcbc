package session

import (
	"context"
	"fmt"

	"github.com/five82/aula/internal/lms"
	"github.com/five82/aula/internal/state"
)

// Users lists every account. The server decides whether the signed-in user
// may see them; a refusal raises an alert.
func (m *Manager) Users(ctx context.Context) ([]lms.UserSummary, error) {
	sess := m.Current()
	if !sess.LoggedIn {
		return nil, ErrNotLoggedIn
	}
	users, err := m.client.ListUsers(ctx, sess.Token)
	if err != nil {
		return nil, m.fail("list users", err)
	}
	return users, nil
}

// EditUser changes another account's fields. Editing yourself also replaces
// the current user, as UpdateProfile does.
func (m *Manager) EditUser(ctx context.Context, id int64, update lms.ProfileUpdate) (lms.UserSummary, error) {
	sess := m.Current()
	if !sess.LoggedIn {
		return lms.UserSummary{}, ErrNotLoggedIn
	}
	if id == sess.CurrentUser.ID {
		return m.UpdateProfile(ctx, update)
	}
	if err := m.validate.check(update); err != nil {
		m.alert(state.AlertDanger, err.Error())
		return lms.UserSummary{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	user, err := m.client.UpdateUser(ctx, sess.Token, id, update)
	if err != nil {
		return lms.UserSummary{}, m.fail("update user", err)
	}
	if user.ID == 0 {
		user.ID = id
	}
	m.alert(state.AlertSuccess, fmt.Sprintf("User %d updated", id))
	return user, nil
}

// DeleteUser removes an account. Deleting your own account also logs out.
func (m *Manager) DeleteUser(ctx context.Context, id int64) error {
	sess := m.Current()
	if !sess.LoggedIn {
		return ErrNotLoggedIn
	}
	if err := m.client.DeleteUser(ctx, sess.Token, id); err != nil {
		return m.fail("delete user", err)
	}
	m.logger.Info().Int64("user_id", id).Msg("user deleted")
	if id == sess.CurrentUser.ID {
		return m.Logout(ctx)
	}
	m.alert(state.AlertSuccess, fmt.Sprintf("User %d deleted", id))
	return nil
}
