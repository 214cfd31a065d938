package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cms_server/server/cms/domain"
)

type MediaRepository struct {
	pool *pgxpool.Pool
}

func NewMediaRepository(pool *pgxpool.Pool) *MediaRepository {
	return &MediaRepository{pool: pool}
}

// InsertBatch writes press images, skipping rows whose title already exists.
// The unique index resolves races between concurrent batches; there is no
// pre-check. Returns the number of rows actually written.
func (r *MediaRepository) InsertBatch(ctx context.Context, items []domain.MediaItem) (int, error) {
	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(`
			INSERT INTO media_items(title, file_id, url, width, height, is_featured)
			VALUES($1, $2, $3, $4, $5, $6)
			ON CONFLICT (title) DO NOTHING
		`, item.Title, item.FileID, item.URL, item.Width, item.Height, item.IsFeatured)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	created := 0
	for range items {
		tag, err := results.Exec()
		if err != nil {
			return created, err
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

func (r *MediaRepository) DeleteByFileIDs(ctx context.Context, fileIDs []string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM media_items WHERE file_id = ANY($1)`, fileIDs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *MediaRepository) List(ctx context.Context, p domain.ListParams) ([]domain.MediaItem, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	where, args := searchClause(p.Search, "title")

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM media_items`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, title, file_id, url, width, height, is_featured, created_at
		FROM media_items` + where + orderClause(p.Sort, "created_at", "id")
	if p.Paginate {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, p.Limit, p.Offset())
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]domain.MediaItem, 0)
	for rows.Next() {
		var item domain.MediaItem
		if err := rows.Scan(&item.ID, &item.Title, &item.FileID, &item.URL, &item.Width, &item.Height,
			&item.IsFeatured, &item.CreatedAt); err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
