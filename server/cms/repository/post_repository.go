package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cms_server/server/cms/domain"
	"cms_server/server/common/cmserr"
)

// PostRepository serves one post collection (blogs or thanks); the kind
// column keeps them apart in the shared table.
type PostRepository struct {
	pool *pgxpool.Pool
	kind domain.PostKind
}

func NewPostRepository(pool *pgxpool.Pool, kind domain.PostKind) *PostRepository {
	return &PostRepository{pool: pool, kind: kind}
}

func (r *PostRepository) Create(ctx context.Context, post domain.Post) (domain.Post, error) {
	images, err := json.Marshal(post.Images)
	if err != nil {
		return domain.Post{}, err
	}
	post.Kind = r.kind
	err = r.pool.QueryRow(ctx, `
		INSERT INTO posts(kind, title, description, content, images, is_featured)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.kind, post.Title, post.Description, post.Content, images, post.IsFeatured).Scan(&post.ID, &post.CreatedAt)
	return post, err
}

func (r *PostRepository) Get(ctx context.Context, id int64) (domain.Post, error) {
	var post domain.Post
	var images []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, kind, title, description, content, images, is_featured, created_at
		FROM posts
		WHERE id=$1 AND kind=$2
	`, id, r.kind).Scan(&post.ID, &post.Kind, &post.Title, &post.Description, &post.Content, &images,
		&post.IsFeatured, &post.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, cmserr.NotFoundf("%s %d does not exist", r.kind, id)
	}
	if err != nil {
		return domain.Post{}, err
	}
	if err := json.Unmarshal(images, &post.Images); err != nil {
		return domain.Post{}, err
	}
	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id=$1 AND kind=$2`, id, r.kind)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return cmserr.NotFoundf("%s %d does not exist", r.kind, id)
	}
	return nil
}

func (r *PostRepository) List(ctx context.Context, p domain.ListParams) ([]domain.Post, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	where := ` WHERE kind=$1`
	args := []any{r.kind}
	if search := strings.TrimSpace(p.Search); search != "" {
		where += ` AND (title ILIKE $2 OR description ILIKE $2)`
		args = append(args, "%"+escapeLike(search)+"%")
	}

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM posts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, kind, title, description, content, images, is_featured, created_at
		FROM posts` + where + orderClause(p.Sort, "created_at", "id")
	if p.Paginate {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, p.Limit, p.Offset())
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	posts := make([]domain.Post, 0)
	for rows.Next() {
		var post domain.Post
		var images []byte
		if err := rows.Scan(&post.ID, &post.Kind, &post.Title, &post.Description, &post.Content, &images,
			&post.IsFeatured, &post.CreatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(images, &post.Images); err != nil {
			return nil, 0, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}
