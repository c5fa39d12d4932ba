package articles

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

var ErrNotFound = errors.New("article not found")

func (s *Store) ListPublished(ctx context.Context) ([]Article, error) {
	return s.list(ctx, true)
}

// ListDrafts returns unpublished articles; the public list never shows them.
func (s *Store) ListDrafts(ctx context.Context) ([]Article, error) {
	return s.list(ctx, false)
}

func (s *Store) list(ctx context.Context, published bool) ([]Article, error) {
	const q = `
		SELECT id, title, published, created_at FROM articles
		WHERE published = $1 ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, q, published)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Article
	for rows.Next() {
		var a Article
		if err := rows.Scan(&a.ID, &a.Title, &a.Published, &a.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Article, error) {
	const q = `
		SELECT a.id, a.title, a.content, a.published, a.user_id, u.username,
		       a.created_at, a.updated_at
		FROM articles a LEFT JOIN users u ON u.id = a.user_id
		WHERE a.id = $1
	`
	a := &Article{}
	var userID sql.NullInt64
	var ownerName sql.NullString
	err := s.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Title, &a.Content,
		&a.Published, &userID, &ownerName, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if userID.Valid {
		v := userID.Int64
		a.UserID = &v
	}
	a.OwnerName = ownerName.String
	return a, nil
}

func (s *Store) Create(ctx context.Context, a *Article) error {
	now := time.Now().UTC()
	const q = `
		INSERT INTO articles (title, content, published, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		RETURNING id
	`
	a.CreatedAt = now
	a.UpdatedAt = now
	return s.db.QueryRowContext(ctx, q, a.Title, a.Content, a.Published, a.UserID, now).Scan(&a.ID)
}

func (s *Store) Update(ctx context.Context, a *Article) error {
	const q = `UPDATE articles SET title = $1, content = $2, published = $3, updated_at = $4 WHERE id = $5`
	res, err := s.db.ExecContext(ctx, q, a.Title, a.Content, a.Published, time.Now().UTC(), a.ID)
	if err != nil {
		return err
	}
	return oneRow(res)
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
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
	Articles []struct {
		Title     string `yaml:"title"`
		Content   string `yaml:"content"`
		Published bool   `yaml:"published"`
	} `yaml:"articles"`
}

// SeedFromFile inserts the articles section of the seed file. It is a no-op
// once any article exists, so the seed runs once per database.
func (s *Store) SeedFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return err
	}
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, entry := range sf.Articles {
		if entry.Title == "" {
			continue
		}
		a := &Article{Title: entry.Title, Content: entry.Content, Published: entry.Published}
		if err := s.Create(ctx, a); err != nil {
			return err
		}
	}
	return nil
}
