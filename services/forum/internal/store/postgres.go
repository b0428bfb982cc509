package store

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/forum-platform/internal/forumv1"
)

// Postgres persists the forum in Postgres. The schema is in migrations/.
type Postgres struct {
	DB *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{DB: pool}
}

const postColumns = `
p.id, p.thread_id, p.parent_id, p.title, p.content, p.category, p.tag, u.username, p.author_id::text, p.created_at,
(SELECT count(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'like') AS likes_count,
(SELECT count(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'dislike') AS dislikes_count,
CASE WHEN p.parent_id IS NULL
     THEN (SELECT count(*) FROM posts c WHERE c.thread_id = p.id AND c.id <> p.id)
     ELSE 0 END AS comments_count,
p.depth`

func scanPost(row pgx.Row) (forumv1.Post, error) {
	var p forumv1.Post
	err := row.Scan(&p.ID, &p.ThreadID, &p.ParentID, &p.Title, &p.Content, &p.Category, &p.Tag, &p.Author, &p.AuthorID,
		&p.CreatedAt, &p.LikesCount, &p.DislikesCount, &p.CommentsCount, &p.Depth)
	return p, err
}

func (s *Postgres) queryPosts(ctx context.Context, q string, args ...any) ([]forumv1.Post, error) {
	rows, err := s.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []forumv1.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func (s *Postgres) CreateUser(ctx context.Context, username, passwordHash string) (User, error) {
	q := `
INSERT INTO users (id, username, password_hash)
VALUES ($1, $2, $3)
RETURNING id::text, username, role, password_hash, created_at;
`
	var u User
	err := s.DB.QueryRow(ctx, q, uuid.New(), username, passwordHash).
		Scan(&u.ID, &u.Username, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return u, nil
}

func (s *Postgres) UserByUsername(ctx context.Context, username string) (User, error) {
	q := `
SELECT id::text, username, role, password_hash, created_at
FROM users
WHERE lower(username) = lower($1)
LIMIT 1;
`
	var u User
	err := s.DB.QueryRow(ctx, q, strings.TrimSpace(username)).
		Scan(&u.ID, &u.Username, &u.Role, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Postgres) SetRole(ctx context.Context, username, role string) error {
	tag, err := s.DB.Exec(ctx, `UPDATE users SET role = $2 WHERE lower(username) = lower($1);`,
		strings.TrimSpace(username), role)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) CreatePost(ctx context.Context, p NewPost) (forumv1.Post, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return forumv1.Post{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if p.ParentID == nil {
		err = tx.QueryRow(ctx, `
INSERT INTO posts (author_id, title, content, category, tag)
VALUES ($1::uuid, $2, $3, $4, $5)
RETURNING id;`, p.AuthorID, p.Title, p.Content, p.Category, p.Tag).Scan(&id)
		if err == nil {
			_, err = tx.Exec(ctx, `UPDATE posts SET thread_id = id WHERE id = $1;`, id)
		}
	} else {
		var threadID int64
		var depth int
		err = tx.QueryRow(ctx, `SELECT thread_id, depth FROM posts WHERE id = $1 FOR SHARE;`, *p.ParentID).
			Scan(&threadID, &depth)
		if errors.Is(err, pgx.ErrNoRows) {
			return forumv1.Post{}, ErrNotFound
		}
		if err == nil {
			err = tx.QueryRow(ctx, `
INSERT INTO posts (thread_id, parent_id, author_id, content, depth)
VALUES ($1, $2, $3::uuid, $4, $5)
RETURNING id;`, threadID, *p.ParentID, p.AuthorID, p.Content, depth+1).Scan(&id)
		}
	}
	if err != nil {
		if isForeignKeyViolation(err) {
			return forumv1.Post{}, ErrNotFound
		}
		return forumv1.Post{}, err
	}

	post, err := scanPost(tx.QueryRow(ctx, `SELECT`+postColumns+` FROM posts p JOIN users u ON u.id = p.author_id WHERE p.id = $1;`, id))
	if err != nil {
		return forumv1.Post{}, err
	}
	return post, tx.Commit(ctx)
}

func (s *Postgres) Thread(ctx context.Context, id int64) (forumv1.ThreadDetail, error) {
	root, err := scanPost(s.DB.QueryRow(ctx, `SELECT`+postColumns+`
FROM posts p JOIN users u ON u.id = p.author_id
WHERE p.id = $1 AND p.parent_id IS NULL;`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return forumv1.ThreadDetail{}, ErrNotFound
	}
	if err != nil {
		return forumv1.ThreadDetail{}, err
	}
	comments, err := s.queryPosts(ctx, `SELECT`+postColumns+`
FROM posts p JOIN users u ON u.id = p.author_id
WHERE p.thread_id = $1 AND p.id <> $1
ORDER BY p.created_at, p.id;`, id)
	if err != nil {
		return forumv1.ThreadDetail{}, err
	}
	return forumv1.ThreadDetail{Thread: root, Comments: comments}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Postgres) ListThreads(ctx context.Context, q ListQuery) ([]forumv1.Post, error) {
	order := `p.created_at DESC, p.id DESC`
	switch q.Sort {
	case forumv1.SortTop:
		order = `likes_count DESC, ` + order
	case forumv1.SortActive:
		order = `comments_count DESC, ` + order
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	needle := strings.TrimSpace(q.Query)
	if needle != "" {
		needle = "%" + likeEscaper.Replace(needle) + "%"
	}
	return s.queryPosts(ctx, `SELECT`+postColumns+`
FROM posts p JOIN users u ON u.id = p.author_id
WHERE p.parent_id IS NULL
  AND ($1 = '' OR p.title ILIKE $1 OR p.content ILIKE $1)
  AND ($4 = '' OR p.category = $4)
  AND ($5 = '' OR p.tag = $5)
ORDER BY `+order+`
LIMIT $2 OFFSET $3;`, needle, limit, q.Offset, q.Category, q.Tag)
}

func (s *Postgres) DeleteThread(ctx context.Context, id int64, userID string, admin bool) error {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var author string
	err = tx.QueryRow(ctx, `SELECT author_id::text FROM posts WHERE id = $1 AND parent_id IS NULL FOR UPDATE;`, id).Scan(&author)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if author != userID && !admin {
		return ErrForbidden
	}
	if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1;`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Postgres) UpdatePost(ctx context.Context, id int64, userID string, admin bool, patch PostPatch) (forumv1.Post, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return forumv1.Post{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var author string
	var parent *int64
	err = tx.QueryRow(ctx, `SELECT author_id::text, parent_id FROM posts WHERE id = $1 FOR UPDATE;`, id).Scan(&author, &parent)
	if errors.Is(err, pgx.ErrNoRows) {
		return forumv1.Post{}, ErrNotFound
	}
	if err != nil {
		return forumv1.Post{}, err
	}
	if author != userID && !admin {
		return forumv1.Post{}, ErrForbidden
	}
	if parent != nil && patch.threadOnly() {
		return forumv1.Post{}, ErrThreadOnly
	}
	_, err = tx.Exec(ctx, `
UPDATE posts
SET title    = COALESCE($2, title),
    content  = COALESCE($3, content),
    category = COALESCE($4, category),
    tag      = COALESCE($5, tag)
WHERE id = $1;`, id, patch.Title, patch.Content, patch.Category, patch.Tag)
	if err != nil {
		return forumv1.Post{}, err
	}

	post, err := scanPost(tx.QueryRow(ctx, `SELECT`+postColumns+` FROM posts p JOIN users u ON u.id = p.author_id WHERE p.id = $1;`, id))
	if err != nil {
		return forumv1.Post{}, err
	}
	return post, tx.Commit(ctx)
}

func (s *Postgres) CanModify(ctx context.Context, id int64, userID string, admin bool) (bool, error) {
	var author string
	err := s.DB.QueryRow(ctx, `SELECT author_id::text FROM posts WHERE id = $1;`, id).Scan(&author)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}
	return admin || (userID != "" && author == userID), nil
}

func (s *Postgres) Facets(ctx context.Context) (forumv1.Facets, error) {
	out := forumv1.Facets{Categories: []string{}, Tags: []string{}}
	rows, err := s.DB.Query(ctx, `
SELECT 'category', category FROM posts WHERE parent_id IS NULL AND category <> '' GROUP BY category
UNION ALL
SELECT 'tag', tag FROM posts WHERE parent_id IS NULL AND tag <> '' GROUP BY tag
ORDER BY 1, 2;`)
	if err != nil {
		return out, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind, name string
		if err := rows.Scan(&kind, &name); err != nil {
			return out, err
		}
		if kind == "category" {
			out.Categories = append(out.Categories, name)
		} else {
			out.Tags = append(out.Tags, name)
		}
	}
	return out, rows.Err()
}

func (s *Postgres) Interactions(ctx context.Context, userID string, ids []int64) (map[int64]forumv1.Interaction, error) {
	out := make(map[int64]forumv1.Interaction, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.DB.Query(ctx, `
SELECT p.id,
       count(r.kind) FILTER (WHERE r.kind = 'like'),
       count(r.kind) FILTER (WHERE r.kind = 'dislike'),
       coalesce(bool_or(r.kind = 'like' AND r.user_id::text = $2), false),
       coalesce(bool_or(r.kind = 'dislike' AND r.user_id::text = $2), false),
       coalesce(bool_or(r.kind = 'save' AND r.user_id::text = $2), false)
FROM posts p
LEFT JOIN reactions r ON r.post_id = p.id
WHERE p.id = ANY($1)
GROUP BY p.id;`, ids, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		var in forumv1.Interaction
		if err := rows.Scan(&id, &in.LikesCount, &in.DislikesCount, &in.Liked, &in.Disliked, &in.Saved); err != nil {
			return nil, err
		}
		out[id] = in
	}
	return out, rows.Err()
}

func (s *Postgres) SetSignal(ctx context.Context, postID int64, userID, signal string, on bool) error {
	if on {
		_, err := s.DB.Exec(ctx, `
INSERT INTO reactions (post_id, user_id, kind)
VALUES ($1, $2::uuid, $3)
ON CONFLICT DO NOTHING;`, postID, userID, signal)
		if isForeignKeyViolation(err) {
			return ErrNotFound
		}
		return err
	}

	tag, err := s.DB.Exec(ctx, `DELETE FROM reactions WHERE post_id = $1 AND user_id = $2::uuid AND kind = $3;`,
		postID, userID, signal)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	var exists bool
	if err := s.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1);`, postID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

func (s *Postgres) Saved(ctx context.Context, userID string) ([]forumv1.Post, error) {
	return s.queryPosts(ctx, `SELECT`+postColumns+`
FROM reactions sv
JOIN posts p ON p.id = sv.post_id
JOIN users u ON u.id = p.author_id
WHERE sv.user_id = $1::uuid AND sv.kind = 'save'
ORDER BY sv.created_at DESC, p.id DESC;`, userID)
}

func (s *Postgres) Ping(ctx context.Context) error {
	return s.DB.Ping(ctx)
}

var _ Store = (*Postgres)(nil)
