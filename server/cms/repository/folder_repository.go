package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"cms_server/server/cms/domain"
	"cms_server/server/common/cmserr"
)

type FolderRepository struct {
	pool *pgxpool.Pool
}

func NewFolderRepository(pool *pgxpool.Pool) *FolderRepository {
	return &FolderRepository{pool: pool}
}

// CreateWithThumbnail inserts the folder row and its thumbnail as the first
// folder image inside one transaction. If the image insert fails the folder
// row is rolled back; a folder without any image record must not survive.
func (r *FolderRepository) CreateWithThumbnail(ctx context.Context, folder domain.Folder) (domain.Folder, domain.FolderImage, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Folder{}, domain.FolderImage{}, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO folders(title, caption, event_date, thumb_file_id, thumb_url, thumb_width, thumb_height)
		VALUES($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, folder.Title, folder.Caption, folder.EventDate, folder.Thumbnail.FileID, folder.Thumbnail.URL,
		folder.Thumbnail.Width, folder.Thumbnail.Height).Scan(&folder.ID, &folder.CreatedAt)
	if err != nil {
		return domain.Folder{}, domain.FolderImage{}, err
	}

	image := domain.FolderImage{
		FolderID: folder.ID,
		FileID:   folder.Thumbnail.FileID,
		URL:      folder.Thumbnail.URL,
		Width:    folder.Thumbnail.Width,
		Height:   folder.Thumbnail.Height,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO folder_images(folder_id, file_id, url, width, height)
		VALUES($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, image.FolderID, image.FileID, image.URL, image.Width, image.Height).Scan(&image.ID, &image.CreatedAt)
	if err != nil {
		return domain.Folder{}, domain.FolderImage{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Folder{}, domain.FolderImage{}, err
	}
	folder.ImageCount = 1
	return folder, image, nil
}

func (r *FolderRepository) Get(ctx context.Context, id int64) (domain.Folder, error) {
	var f domain.Folder
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, caption, event_date, thumb_file_id, thumb_url, thumb_width, thumb_height, created_at
		FROM folders
		WHERE id=$1
	`, id).Scan(&f.ID, &f.Title, &f.Caption, &f.EventDate, &f.Thumbnail.FileID, &f.Thumbnail.URL,
		&f.Thumbnail.Width, &f.Thumbnail.Height, &f.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Folder{}, cmserr.NotFoundf("folder %d does not exist", id)
	}
	return f, err
}

func (r *FolderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM folders WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return cmserr.NotFoundf("folder %d does not exist", id)
	}
	return nil
}

// List returns one page of folders with the filtered total and the per-folder
// image counts. Count and page run in the same read transaction so a single
// response never mixes two views of the collection; the image counts come
// from one grouped query over the page's folder ids.
func (r *FolderRepository) List(ctx context.Context, p domain.ListParams) ([]domain.Folder, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback(ctx)

	where, args := searchClause(p.Search, "title", "caption")

	var total int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM folders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, title, caption, event_date, thumb_file_id, thumb_url, thumb_width, thumb_height, created_at
		FROM folders` + where + orderClause(p.Sort, "event_date", "id")
	if p.Paginate {
		query += fmt.Sprintf(` LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
		args = append(args, p.Limit, p.Offset())
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	folders := make([]domain.Folder, 0)
	ids := make([]int64, 0)
	for rows.Next() {
		var f domain.Folder
		if err := rows.Scan(&f.ID, &f.Title, &f.Caption, &f.EventDate, &f.Thumbnail.FileID, &f.Thumbnail.URL,
			&f.Thumbnail.Width, &f.Thumbnail.Height, &f.CreatedAt); err != nil {
			return nil, 0, err
		}
		folders = append(folders, f)
		ids = append(ids, f.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(ids) > 0 {
		counts, err := imageCounts(ctx, tx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range folders {
			folders[i].ImageCount = counts[folders[i].ID]
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, err
	}
	return folders, total, nil
}

func imageCounts(ctx context.Context, tx pgx.Tx, folderIDs []int64) (map[int64]int, error) {
	rows, err := tx.Query(ctx, `
		SELECT folder_id, COUNT(*)
		FROM folder_images
		WHERE folder_id = ANY($1)
		GROUP BY folder_id
	`, folderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int, len(folderIDs))
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
