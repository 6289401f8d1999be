package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// UserRef identifies a user without exposing credential material.
type UserRef struct {
	ID       int64
	Username string
}

// validateUsername enforces the 4-20 character account-name rule.
// Characters, not bytes: multibyte names count by rune.
func validateUsername(username string) error {
	if n := utf8.RuneCountInString(username); n < 4 || n > 20 {
		return &ValidationError{Field: "username", Reason: "must be between 4 and 20 characters"}
	}
	return nil
}

// validateEmail checks address shape: one '@', nonempty local part, and a
// domain containing a dot. Deliverability is not the store's problem.
func validateEmail(email string) error {
	at := strings.Index(email, "@")
	if at <= 0 || at != strings.LastIndex(email, "@") {
		return &ValidationError{Field: "email", Reason: "not a valid address"}
	}
	domain := email[at+1:]
	if domain == "" || !strings.Contains(domain, ".") ||
		strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return &ValidationError{Field: "email", Reason: "not a valid address"}
	}
	return nil
}

// CreateUser registers a new account.
//
// Returns (false, nil) when the username or email is already taken; a taken
// name is a routine outcome, not a fault. A ValidationError is returned for
// malformed input before any write happens.
func (s *Store) CreateUser(username, email, password string) (bool, error) {
	return s.CreateUserContext(context.Background(), username, email, password)
}

// CreateUserContext registers a new account with context support.
func (s *Store) CreateUserContext(ctx context.Context, username, email, password string) (bool, error) {
	if err := validateUsername(username); err != nil {
		return false, err
	}
	if err := validateEmail(email); err != nil {
		return false, err
	}
	if password == "" {
		return false, &ValidationError{Field: "password", Reason: "is required"}
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	query := `INSERT INTO users (username, email, password_hash) VALUES (?, ?, ?)`
	if _, err := s.conn.ExecContext(ctx, query, username, email, hash); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create user: %w", err)
	}

	return true, nil
}

// VerifyUser checks a username/password pair against the stored hash.
// Returns the user id on success and 0 when the user is unknown or the
// password does not verify; the two cases are deliberately not
// distinguishable by the caller.
func (s *Store) VerifyUser(username, password string) (int64, error) {
	return s.VerifyUserContext(context.Background(), username, password)
}

// VerifyUserContext checks credentials with context support.
func (s *Store) VerifyUserContext(ctx context.Context, username, password string) (int64, error) {
	var id int64
	var hash string
	query := `SELECT id, password_hash FROM users WHERE username = ?`
	err := s.conn.QueryRowContext(ctx, query, username).Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to look up user: %w", err)
	}

	if !s.hasher.Verify(hash, password) {
		return 0, nil
	}
	return id, nil
}

// FindUserByEmail resolves an email address to a user reference.
// Returns (nil, nil) when no account uses the address. Consumed by the
// password-reset flow, which lives outside the store.
func (s *Store) FindUserByEmail(email string) (*UserRef, error) {
	return s.FindUserByEmailContext(context.Background(), email)
}

// FindUserByEmailContext resolves an email address with context support.
func (s *Store) FindUserByEmailContext(ctx context.Context, email string) (*UserRef, error) {
	var ref UserRef
	query := `SELECT id, username FROM users WHERE email = ?`
	err := s.conn.QueryRowContext(ctx, query, email).Scan(&ref.ID, &ref.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user by email: %w", err)
	}
	return &ref, nil
}

// UpdateCredentials renames an account and, when newPassword is nonempty,
// replaces its password hash.
//
// Returns (false, nil) when the new username collides with another account.
// Returns ErrNotFound when userID does not reference an existing user.
func (s *Store) UpdateCredentials(userID int64, newUsername, newPassword string) (bool, error) {
	return s.UpdateCredentialsContext(context.Background(), userID, newUsername, newPassword)
}

// UpdateCredentialsContext updates account credentials with context support.
func (s *Store) UpdateCredentialsContext(ctx context.Context, userID int64, newUsername, newPassword string) (bool, error) {
	if err := validateUsername(newUsername); err != nil {
		return false, err
	}

	var res sql.Result
	var err error
	if newPassword != "" {
		var hash string
		hash, err = s.hasher.Hash(newPassword)
		if err != nil {
			return false, fmt.Errorf("failed to hash password: %w", err)
		}
		res, err = s.conn.ExecContext(ctx,
			`UPDATE users SET username = ?, password_hash = ? WHERE id = ?`,
			newUsername, hash, userID)
	} else {
		res, err = s.conn.ExecContext(ctx,
			`UPDATE users SET username = ? WHERE id = ?`,
			newUsername, userID)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to update credentials: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return false, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return true, nil
}

// DeleteUser removes an account. Its tasks and their tag associations
// cascade away with it; tag rows themselves survive, tags being a global
// vocabulary.
func (s *Store) DeleteUser(userID int64) error {
	return s.DeleteUserContext(context.Background(), userID)
}

// DeleteUserContext removes an account with context support.
func (s *Store) DeleteUserContext(ctx context.Context, userID int64) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return nil
}
