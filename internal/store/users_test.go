package store

import (
	"errors"
	"strings"
	"testing"
)

func TestCreateUser_Success(t *testing.T) {
	s := newTestStore(t)

	ok, err := s.CreateUser("alice", "alice@example.com", "pw123456")
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	if !ok {
		t.Fatal("CreateUser() returned false, want true")
	}

	if n := countRows(t, s, "users"); n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}
}

func TestCreateUser_DuplicateUsername(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateUser("alice", "alice@example.com", "pw123456"); err != nil {
		t.Fatalf("first CreateUser() failed: %v", err)
	}

	ok, err := s.CreateUser("alice", "other@example.com", "pw123456")
	if err != nil {
		t.Fatalf("second CreateUser() failed: %v", err)
	}
	if ok {
		t.Error("second CreateUser() returned true, want false")
	}

	// First account unaffected
	if n := countRows(t, s, "users"); n != 1 {
		t.Errorf("user count = %d, want 1", n)
	}
	id, err := s.VerifyUser("alice", "pw123456")
	if err != nil {
		t.Fatalf("VerifyUser() failed: %v", err)
	}
	if id == 0 {
		t.Error("first user no longer verifies")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CreateUser("alice", "alice@example.com", "pw123456"); err != nil {
		t.Fatalf("first CreateUser() failed: %v", err)
	}

	ok, err := s.CreateUser("alice2", "alice@example.com", "pw123456")
	if err != nil {
		t.Fatalf("second CreateUser() failed: %v", err)
	}
	if ok {
		t.Error("second CreateUser() returned true, want false")
	}
}

func TestCreateUser_Validation(t *testing.T) {
	s := newTestStore(t)

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"short username", "al", "al@example.com", "pw"},
		{"long username", "a-username-well-over-twenty-chars", "a@example.com", "pw"},
		{"no at sign", "alice", "alice.example.com", "pw"},
		{"two at signs", "alice", "a@b@example.com", "pw"},
		{"dotless domain", "alice", "alice@example", "pw"},
		{"empty local part", "alice", "@example.com", "pw"},
		{"empty password", "alice", "alice@example.com", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateUser(tc.username, tc.email, tc.password)
			if !IsValidation(err) {
				t.Errorf("CreateUser() error = %v, want ValidationError", err)
			}
		})
	}

	// No partial writes from rejected inputs
	if n := countRows(t, s, "users"); n != 0 {
		t.Errorf("user count = %d, want 0", n)
	}
}

func TestCreateUser_UsernameLengthCountsRunes(t *testing.T) {
	s := newTestStore(t)

	// 3 runes but 9 bytes; must still be too short
	_, err := s.CreateUser("日本語", "jp@example.com", "pw")
	if !IsValidation(err) {
		t.Errorf("CreateUser(3-rune username) error = %v, want ValidationError", err)
	}

	// 4 runes, 8 bytes; valid
	ok, err := s.CreateUser("żółć", "pl@example.com", "pw")
	if err != nil {
		t.Fatalf("CreateUser(4-rune username) failed: %v", err)
	}
	if !ok {
		t.Error("CreateUser(4-rune username) returned false, want true")
	}

	// 20 runes, 40 bytes; still within the limit
	long := strings.Repeat("α", 20)
	ok, err = s.CreateUser(long, "gr@example.com", "pw")
	if err != nil {
		t.Fatalf("CreateUser(20-rune username) failed: %v", err)
	}
	if !ok {
		t.Error("CreateUser(20-rune username) returned false, want true")
	}
}

func TestVerifyUser(t *testing.T) {
	s := newTestStore(t)
	id := mustCreateUser(t, s, "alice")

	got, err := s.VerifyUser("alice", "secret-pw")
	if err != nil {
		t.Fatalf("VerifyUser() failed: %v", err)
	}
	if got != id {
		t.Errorf("VerifyUser() = %d, want %d", got, id)
	}

	got, err = s.VerifyUser("alice", "wrong")
	if err != nil {
		t.Fatalf("VerifyUser() with wrong password failed: %v", err)
	}
	if got != 0 {
		t.Errorf("VerifyUser() with wrong password = %d, want 0", got)
	}

	got, err = s.VerifyUser("nobody", "secret-pw")
	if err != nil {
		t.Fatalf("VerifyUser() with unknown user failed: %v", err)
	}
	if got != 0 {
		t.Errorf("VerifyUser() with unknown user = %d, want 0", got)
	}
}

func TestFindUserByEmail(t *testing.T) {
	s := newTestStore(t)
	id := mustCreateUser(t, s, "alice")

	ref, err := s.FindUserByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail() failed: %v", err)
	}
	if ref == nil {
		t.Fatal("FindUserByEmail() = nil, want user")
	}
	if ref.ID != id || ref.Username != "alice" {
		t.Errorf("FindUserByEmail() = %+v, want id=%d username=alice", ref, id)
	}

	ref, err = s.FindUserByEmail("nobody@example.com")
	if err != nil {
		t.Fatalf("FindUserByEmail() for unknown address failed: %v", err)
	}
	if ref != nil {
		t.Errorf("FindUserByEmail() for unknown address = %+v, want nil", ref)
	}
}

func TestUpdateCredentials_Rename(t *testing.T) {
	s := newTestStore(t)
	id := mustCreateUser(t, s, "alice")

	ok, err := s.UpdateCredentials(id, "alice-two", "")
	if err != nil {
		t.Fatalf("UpdateCredentials() failed: %v", err)
	}
	if !ok {
		t.Fatal("UpdateCredentials() returned false")
	}

	// Password unchanged
	got, err := s.VerifyUser("alice-two", "secret-pw")
	if err != nil {
		t.Fatalf("VerifyUser() failed: %v", err)
	}
	if got != id {
		t.Errorf("VerifyUser() after rename = %d, want %d", got, id)
	}
}

func TestUpdateCredentials_NewPassword(t *testing.T) {
	s := newTestStore(t)
	id := mustCreateUser(t, s, "alice")

	ok, err := s.UpdateCredentials(id, "alice", "fresh-pw")
	if err != nil {
		t.Fatalf("UpdateCredentials() failed: %v", err)
	}
	if !ok {
		t.Fatal("UpdateCredentials() returned false")
	}

	if got, _ := s.VerifyUser("alice", "secret-pw"); got != 0 {
		t.Error("old password still verifies")
	}
	if got, _ := s.VerifyUser("alice", "fresh-pw"); got != id {
		t.Error("new password does not verify")
	}
}

func TestUpdateCredentials_Collision(t *testing.T) {
	s := newTestStore(t)
	mustCreateUser(t, s, "alice")
	bob := mustCreateUser(t, s, "bobby")

	ok, err := s.UpdateCredentials(bob, "alice", "")
	if err != nil {
		t.Fatalf("UpdateCredentials() failed: %v", err)
	}
	if ok {
		t.Error("UpdateCredentials() onto taken username returned true, want false")
	}
}

func TestUpdateCredentials_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.UpdateCredentials(999, "ghost", "")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateCredentials() error = %v, want ErrNotFound", err)
	}
}

func TestDeleteUser_CascadesTasksAndTagLinks(t *testing.T) {
	s := newTestStore(t)
	alice := mustCreateUser(t, s, "alice")
	bob := mustCreateUser(t, s, "bobby")

	a := taskFixture("alice task")
	a.Tags = "shared, alice-only"
	mustAddTask(t, s, alice, a)

	b := taskFixture("bob task")
	b.Tags = "shared"
	bobTask := mustAddTask(t, s, bob, b)

	if err := s.DeleteUser(alice); err != nil {
		t.Fatalf("DeleteUser() failed: %v", err)
	}

	if n := countRows(t, s, "tasks"); n != 1 {
		t.Errorf("task count = %d, want 1", n)
	}
	if n := countRows(t, s, "task_tags"); n != 1 {
		t.Errorf("task_tags count = %d, want 1", n)
	}
	// Tags are a global vocabulary: both survive, one of them unreferenced
	if n := countRows(t, s, "tags"); n != 2 {
		t.Errorf("tag count = %d, want 2", n)
	}

	tags, err := s.GetTaskTags(bobTask)
	if err != nil {
		t.Fatalf("GetTaskTags() failed: %v", err)
	}
	if len(tags) != 1 || tags[0] != "shared" {
		t.Errorf("bob's tags = %v, want [shared]", tags)
	}
}

func TestDeleteUser_NotFound(t *testing.T) {
	s := newTestStore(t)

	if err := s.DeleteUser(999); !errors.Is(err, ErrNotFound) {
		t.Errorf("DeleteUser() error = %v, want ErrNotFound", err)
	}
}
