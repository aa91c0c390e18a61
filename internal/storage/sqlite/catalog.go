package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"form-bronze-bot/internal/domain"
)

const collectionColumns = `id, title, short_desc, cover_photo_file_id, is_active, sort_order, created_at, updated_at`

const sculptureColumns = `id, collection_id, title, artist, year, material, dimensions,
	description_short, description_full, status, is_featured, published_at, created_at, updated_at`

func scanCollection(row rowScanner) (*domain.Collection, error) {
	var (
		c                    domain.Collection
		desc, cover          sql.NullString
		active               int
		createdAt, updatedAt sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Title, &desc, &cover, &active, &c.SortOrder, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	c.ShortDesc = desc.String
	c.CoverFileID = cover.String
	c.IsActive = active == 1
	c.CreatedAt = parseTimeValue(createdAt)
	c.UpdatedAt = parseTimeValue(updatedAt)
	return &c, nil
}

func scanSculpture(row rowScanner) (*domain.Sculpture, error) {
	var (
		s                                  domain.Sculpture
		artist, year, material, dimensions sql.NullString
		short, full, publishedAt           sql.NullString
		status                             string
		featured                           int
		createdAt, updatedAt               sql.NullString
	)
	err := row.Scan(&s.ID, &s.CollectionID, &s.Title, &artist, &year, &material, &dimensions,
		&short, &full, &status, &featured, &publishedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	s.Artist = artist.String
	s.Year = year.String
	s.Material = material.String
	s.Dimensions = dimensions.String
	s.DescriptionShort = short.String
	s.DescriptionFull = full.String
	s.Status = domain.SculptureStatus(status)
	s.IsFeatured = featured == 1
	s.PublishedAt = parseTime(publishedAt)
	s.CreatedAt = parseTimeValue(createdAt)
	s.UpdatedAt = parseTimeValue(updatedAt)
	return &s, nil
}

// AddCollection создает активную коллекцию и возвращает её id.
func (r *Repository) AddCollection(ctx context.Context, c domain.Collection) (int64, error) {
	now := r.stamp()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO collections(title, short_desc, cover_photo_file_id, is_active, sort_order, created_at, updated_at)
		VALUES(?, ?, ?, 1, ?, ?, ?)`,
		c.Title, nullString(c.ShortDesc), nullString(c.CoverFileID), c.SortOrder, now, now)
	if err != nil {
		return 0, fmt.Errorf("add collection: %w", err)
	}
	return res.LastInsertId()
}

// ListCollections возвращает страницу коллекций (sort_order DESC, id DESC) и их общее число.
func (r *Repository) ListCollections(ctx context.Context, activeOnly bool, limit, offset int) ([]domain.Collection, int, error) {
	where := ""
	if activeOnly {
		where = " WHERE is_active=1"
	}

	total, err := r.count(ctx, "SELECT COUNT(*) FROM collections"+where)
	if err != nil {
		return nil, 0, fmt.Errorf("count collections: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+collectionColumns+" FROM collections"+where+" ORDER BY sort_order DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var out []domain.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan collection: %w", err)
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

// GetCollection возвращает коллекцию или ErrNotFound.
func (r *Repository) GetCollection(ctx context.Context, id int64) (*domain.Collection, error) {
	c, err := scanCollection(r.db.QueryRowContext(ctx, "SELECT "+collectionColumns+" FROM collections WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get collection %d: %w", id, err)
	}
	return c, nil
}

// AddSculpture создает работу вместе с фотографиями в одной транзакции.
func (r *Repository) AddSculpture(ctx context.Context, s domain.Sculpture, photoFileIDs ...string) (int64, error) {
	if s.Status == "" {
		s.Status = domain.StatusInExpo
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin add sculpture: %w", err)
	}
	defer tx.Rollback()

	now := r.stamp()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO sculptures(
			collection_id, title, artist, year, material, dimensions,
			description_short, description_full, status, is_featured,
			published_at, created_at, updated_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.CollectionID, s.Title, nullString(s.Artist), nullString(s.Year), nullString(s.Material),
		nullString(s.Dimensions), nullString(s.DescriptionShort), nullString(s.DescriptionFull),
		string(s.Status), boolInt(s.IsFeatured), nullTime(s.PublishedAt), now, now)
	if err != nil {
		return 0, fmt.Errorf("add sculpture: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("add sculpture id: %w", err)
	}

	for i, fileID := range photoFileIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sculpture_photos(sculpture_id, file_id, sort_order) VALUES(?, ?, ?)",
			id, fileID, i); err != nil {
			return 0, fmt.Errorf("add sculpture photo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add sculpture: %w", err)
	}
	return id, nil
}

// AddSculpturePhoto добавляет фотографию к работе.
func (r *Repository) AddSculpturePhoto(ctx context.Context, sculptureID int64, fileID string, sortOrder int) error {
	if _, err := r.db.ExecContext(ctx,
		"INSERT INTO sculpture_photos(sculpture_id, file_id, sort_order) VALUES(?, ?, ?)",
		sculptureID, fileID, sortOrder); err != nil {
		return fmt.Errorf("add photo to sculpture %d: %w", sculptureID, err)
	}
	return nil
}

// GetSculpture возвращает работу или ErrNotFound.
func (r *Repository) GetSculpture(ctx context.Context, id int64) (*domain.Sculpture, error) {
	s, err := scanSculpture(r.db.QueryRowContext(ctx, "SELECT "+sculptureColumns+" FROM sculptures WHERE id=?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sculpture %d: %w", id, err)
	}
	return s, nil
}

// ListSculpturePhotos возвращает фотографии работы по порядку.
func (r *Repository) ListSculpturePhotos(ctx context.Context, sculptureID int64) ([]domain.Photo, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, sculpture_id, file_id, sort_order FROM sculpture_photos WHERE sculpture_id=? ORDER BY sort_order ASC, id ASC",
		sculptureID)
	if err != nil {
		return nil, fmt.Errorf("list photos %d: %w", sculptureID, err)
	}
	defer rows.Close()

	var out []domain.Photo
	for rows.Next() {
		var p domain.Photo
		if err := rows.Scan(&p.ID, &p.SculptureID, &p.FileID, &p.SortOrder); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListSculpturesByCollection возвращает страницу работ коллекции, новые первыми.
func (r *Repository) ListSculpturesByCollection(ctx context.Context, collectionID int64, limit, offset int) ([]domain.Sculpture, int, error) {
	return r.listSculptures(ctx, "WHERE collection_id=?", "id DESC", limit, offset, collectionID)
}

// ListNewSculptures возвращает опубликованные работы, последние публикации первыми.
func (r *Repository) ListNewSculptures(ctx context.Context, limit, offset int) ([]domain.Sculpture, int, error) {
	return r.listSculptures(ctx, "WHERE published_at IS NOT NULL", "published_at DESC, id DESC", limit, offset)
}

// ListFeaturedSculptures возвращает избранные работы.
func (r *Repository) ListFeaturedSculptures(ctx context.Context, limit, offset int) ([]domain.Sculpture, int, error) {
	return r.listSculptures(ctx, "WHERE is_featured=1", "id DESC", limit, offset)
}

func (r *Repository) listSculptures(ctx context.Context, where, order string, limit, offset int, args ...any) ([]domain.Sculpture, int, error) {
	total, err := r.count(ctx, "SELECT COUNT(*) FROM sculptures "+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("count sculptures: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+sculptureColumns+" FROM sculptures "+where+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sculptures: %w", err)
	}
	defer rows.Close()

	var out []domain.Sculpture
	for rows.Next() {
		s, err := scanSculpture(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan sculpture: %w", err)
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}
