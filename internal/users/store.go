package users

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var ErrNotFound = errors.New("user not found")

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// rejection. The validation-time email lookup is advisory only; a racing
// duplicate signup lands here.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	const q = `SELECT id, username, email FROM users ORDER BY username ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, id int64) (*User, error) {
	const q = `
		SELECT id, username, email, password, role, activation_token, activated,
		       reset_token, reset_sent_at, created_at, updated_at
		FROM users WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, q, id))
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	const q = `
		SELECT id, username, email, password, role, activation_token, activated,
		       reset_token, reset_sent_at, created_at, updated_at
		FROM users WHERE email = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, q, strings.ToLower(email)))
}

func (s *Store) GetByResetToken(ctx context.Context, token string) (*User, error) {
	const q = `
		SELECT id, username, email, password, role, activation_token, activated,
		       reset_token, reset_sent_at, created_at, updated_at
		FROM users WHERE reset_token = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, q, token))
}

func (s *Store) scanOne(row *sql.Row) (*User, error) {
	u := &User{}
	var activationToken, resetToken sql.NullString
	var resetSentAt sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role,
		&activationToken, &u.Activated, &resetToken, &resetSentAt,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.ActivationToken = activationToken.String
	u.ResetToken = resetToken.String
	if resetSentAt.Valid {
		t := resetSentAt.Time
		u.ResetSentAt = &t
	}
	return u, nil
}

// EmailTaken reports whether another record already holds the email. Update
// flows pass the record under edit as excludeID; create flows pass zero.
func (s *Store) EmailTaken(ctx context.Context, email string, excludeID int64) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	var taken bool
	err := s.db.QueryRowContext(ctx, q, strings.ToLower(email), excludeID).Scan(&taken)
	return taken, err
}

func (s *Store) Create(ctx context.Context, u *User) error {
	now := time.Now().UTC()
	const q = `
		INSERT INTO users (username, email, password, role, activation_token, activated, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now
	return s.db.QueryRowContext(ctx, q,
		u.Username, u.Email, u.PasswordHash, u.Role, u.ActivationToken, u.Activated, now,
	).Scan(&u.ID)
}

// Update writes username and email. The password hash is untouched; callers
// that accept a new password use UpdatePassword.
func (s *Store) Update(ctx context.Context, u *User) error {
	const q = `UPDATE users SET username = $1, email = $2, updated_at = $3 WHERE id = $4`
	res, err := s.db.ExecContext(ctx, q, u.Username, strings.ToLower(u.Email), time.Now().UTC(), u.ID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (s *Store) UpdatePassword(ctx context.Context, id int64, hash string) error {
	const q = `
		UPDATE users SET password = $1, reset_token = NULL, reset_sent_at = NULL, updated_at = $2
		WHERE id = $3
	`
	res, err := s.db.ExecContext(ctx, q, hash, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

// Activate flips the activation flag for the user holding the token.
func (s *Store) Activate(ctx context.Context, token string) error {
	const q = `
		UPDATE users SET activated = TRUE, activation_token = NULL, updated_at = $1
		WHERE activation_token = $2
	`
	res, err := s.db.ExecContext(ctx, q, time.Now().UTC(), token)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (s *Store) SetResetToken(ctx context.Context, id int64, token string, sentAt time.Time) error {
	const q = `UPDATE users SET reset_token = $1, reset_sent_at = $2, updated_at = $2 WHERE id = $3`
	res, err := s.db.ExecContext(ctx, q, token, sentAt, id)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func oneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type seedFile struct {
	Users []struct {
		Username string `yaml:"username"`
		Email    string `yaml:"email"`
		Password string `yaml:"password"`
		Role     Role   `yaml:"role"`
	} `yaml:"users"`
}

// SeedFromFile inserts the users section of the seed file, skipping entries
// whose email already exists. Seeded accounts are created activated.
func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return err
	}
	for _, entry := range sf.Users {
		if entry.Username == "" || entry.Email == "" || entry.Password == "" {
			continue
		}
		taken, err := s.EmailTaken(ctx, entry.Email, 0)
		if err != nil {
			return err
		}
		if taken {
			continue
		}
		hash, err := HashPassword(entry.Password)
		if err != nil {
			return err
		}
		role := entry.Role
		if role == "" {
			role = RoleStandard
		}
		u := &User{
			Username:     entry.Username,
			Email:        entry.Email,
			PasswordHash: hash,
			Role:         role,
			Activated:    true,
		}
		if err := s.Create(ctx, u); err != nil {
			return err
		}
	}
	return nil
}
