package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cms_server/server/cms/domain"
)

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

// InsertBatch adds images to an existing folder in one round trip.
func (r *ImageRepository) InsertBatch(ctx context.Context, folderID int64, refs []domain.ImageRef) (int, error) {
	batch := &pgx.Batch{}
	for _, ref := range refs {
		batch.Queue(`
			INSERT INTO folder_images(folder_id, file_id, url, width, height)
			VALUES($1, $2, $3, $4, $5)
		`, folderID, ref.FileID, ref.URL, ref.Width, ref.Height)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	created := 0
	for range refs {
		tag, err := results.Exec()
		if err != nil {
			return created, err
		}
		created += int(tag.RowsAffected())
	}
	return created, nil
}

func (r *ImageRepository) FileIDsByFolder(ctx context.Context, folderID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT file_id FROM folder_images WHERE folder_id=$1`, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *ImageRepository) DeleteByFolder(ctx context.Context, folderID int64) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM folder_images WHERE folder_id=$1`, folderID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *ImageRepository) DeleteByFileIDs(ctx context.Context, fileIDs []string) (int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM folder_images WHERE file_id = ANY($1)`, fileIDs)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (r *ImageRepository) ListByFolder(ctx context.Context, folderID int64, p domain.ListParams) ([]domain.FolderImage, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM folder_images WHERE folder_id=$1`, folderID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, folder_id, file_id, url, width, height, created_at
		FROM folder_images
		WHERE folder_id=$1
		ORDER BY id ASC`
	args := []any{folderID}
	if p.Paginate {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, p.Limit, p.Offset())
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	images := make([]domain.FolderImage, 0)
	for rows.Next() {
		var img domain.FolderImage
		if err := rows.Scan(&img.ID, &img.FolderID, &img.FileID, &img.URL, &img.Width, &img.Height, &img.CreatedAt); err != nil {
			return nil, 0, err
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return images, total, nil
}
