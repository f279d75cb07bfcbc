package state

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/five82/aula/internal/lms"
)

func TestStore_DispatchAndSnapshotClone(t *testing.T) {
	s := NewStore()

	err := s.Dispatch(SetProgress{Items: []lms.ProgressRecord{{ID: 1}, {ID: 2}}})
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}

	snap := s.Snapshot()
	if len(snap.Progress) != 2 || snap.Progress[0].ID != 1 {
		t.Fatalf("snapshot progress = %#v, want 2 items", snap.Progress)
	}

	// Returned snapshot should be independent of the stored one.
	snap.Progress[0].ID = 999
	snap2 := s.Snapshot()
	if snap2.Progress[0].ID != 1 {
		t.Fatalf("Snapshot should clone progress; got id %d want 1", snap2.Progress[0].ID)
	}
}

func TestStore_DispatchedSliceIsOwned(t *testing.T) {
	s := NewStore()
	items := []lms.Achievement{{ID: 1, Name: "First Step"}}
	if err := s.Dispatch(SetAchievements{Items: items}); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	items[0].Name = "mutated"
	if got := s.Snapshot().Achievements[0].Name; got != "First Step" {
		t.Fatalf("store aliased caller slice: name = %q", got)
	}
}

func TestStore_ZeroValueIsUsable(t *testing.T) {
	var s Store
	snap := s.Snapshot()
	if snap.Progress == nil || snap.Achievements == nil {
		t.Fatalf("zero Store snapshot has nil lists: %#v", snap)
	}
	if err := s.Dispatch(SetLoggedIn{LoggedIn: true}); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if !s.Snapshot().Session.LoggedIn {
		t.Fatalf("LoggedIn = false after dispatch")
	}
	if s.Snapshot().Courses == nil {
		t.Fatalf("zero Store lost list initialization after dispatch")
	}
}

func TestStore_BatchIsAtomic(t *testing.T) {
	s := NewStore()
	if err := s.Dispatch(SetToken{Token: "tok"}); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	before := s.Snapshot()

	err := s.Dispatch(SetToken{Token: "other"}, SetLoggedIn{LoggedIn: true}, bogusAction{})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("Dispatch error = %v, want ErrUnknownAction", err)
	}
	after := s.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("failed batch committed changes: before %#v after %#v", before, after)
	}
}

func TestStore_UsableAfterRejectedPointerAction(t *testing.T) {
	s := NewStore()

	err := s.Dispatch(SetLoggedIn{LoggedIn: true}, (*SetToken)(nil))
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("Dispatch error = %v, want ErrUnknownAction", err)
	}

	done := make(chan State, 1)
	go func() {
		if err := s.Dispatch(SetToken{Token: "tok"}); err != nil {
			t.Errorf("Dispatch after rejection: %v", err)
		}
		done <- s.Snapshot()
	}()
	select {
	case snap := <-done:
		if snap.Session.Token != "tok" || snap.Session.LoggedIn {
			t.Fatalf("session = %#v, want only the later token committed", snap.Session)
		}
	case <-time.After(time.Second):
		t.Fatal("store blocked after a rejected dispatch")
	}
}

func TestStore_SubscribersSeeCommittedBatch(t *testing.T) {
	s := NewStore()
	var gotKinds []Kind
	var gotLogged bool
	s.Subscribe(func(st State, actions []Action) {
		gotLogged = st.Session.LoggedIn
		for _, a := range actions {
			gotKinds = append(gotKinds, a.Kind())
		}
	})

	if err := s.Dispatch(SetToken{Token: "t"}, SetLoggedIn{LoggedIn: true}); err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if !gotLogged {
		t.Fatalf("subscriber saw LoggedIn=false")
	}
	if !reflect.DeepEqual(gotKinds, []Kind{KindToken, KindLoggedIn}) {
		t.Fatalf("subscriber kinds = %v", gotKinds)
	}

	// Failed dispatches do not notify.
	gotKinds = nil
	_ = s.Dispatch(bogusAction{})
	if gotKinds != nil {
		t.Fatalf("subscriber notified on failed dispatch: %v", gotKinds)
	}
}

func TestStore_ConcurrentDispatchesSerialize(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Dispatch(SetProgress{Items: []lms.ProgressRecord{{ID: int64(i)}}})
			_ = s.Snapshot()
		}(i)
	}
	wg.Wait()
	if got := len(s.Snapshot().Progress); got != 1 {
		t.Fatalf("progress len = %d, want 1 (wholesale replace)", got)
	}
}

func TestStore_RecordSyncTracksFailures(t *testing.T) {
	var s Store

	h := s.Health()
	if h.ConsecutiveFailures != 0 || h.IsOffline() {
		t.Fatalf("initial health = %#v, want online", h)
	}

	before := time.Now()
	origErr := errors.New("boom")
	s.RecordSync(origErr)
	h = s.Health()
	if h.ConsecutiveFailures != 1 || h.IsOffline() {
		t.Fatalf("after 1 failure health = %#v, want 1 failure online", h)
	}
	if h.LastSynced.Before(before) {
		t.Fatalf("LastSynced = %v, want >= %v", h.LastSynced, before)
	}
	if h.LastError == nil || h.LastError.Error() != "boom" {
		t.Fatalf("LastError = %v, want boom", h.LastError)
	}
	if reflect.ValueOf(h.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Health should clone error instance")
	}

	s.RecordSync(errors.New("fail 2"))
	if !s.Health().IsOffline() {
		t.Fatal("IsOffline() = false, want true with 2 failures")
	}

	s.RecordSync(nil)
	h = s.Health()
	if h.ConsecutiveFailures != 0 || h.LastError != nil || h.IsOffline() {
		t.Fatalf("health after success = %#v, want reset", h)
	}
}
