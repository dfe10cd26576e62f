package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.TagRepository = (*DB)(nil)

// CreateTag inserts a tag and sets its ID. Name, color and slug are each
// unique; the violated one is reported as the conflicting field.
func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO tags (name, color, slug) VALUES (?, ?, ?)`,
		tag.Name, tag.Color, tag.Slug,
	)
	if err != nil {
		if kind, msg := constraintViolation(err); kind == uniqueViolation {
			field := "name"
			switch {
			case strings.Contains(msg, "tags.color"):
				field = "color"
			case strings.Contains(msg, "tags.slug"):
				field = "slug"
			}
			return apperror.Duplicate(field, fmt.Sprintf("a tag with this %s already exists", field))
		}
		return fmt.Errorf("sqlite: inserting tag %q: %w", tag.Name, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading tag id: %w", err)
	}
	tag.ID = model.TagID(id)
	return nil
}

func (db *DB) GetTagByID(ctx context.Context, id model.TagID) (*model.Tag, error) {
	var t model.Tag
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, color, slug FROM tags WHERE id = ?`, int64(id),
	).Scan(&t.ID, &t.Name, &t.Color, &t.Slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("tag", strconv.FormatInt(int64(id), 10))
		}
		return nil, fmt.Errorf("sqlite: getting tag %d: %w", id, err)
	}
	return &t, nil
}

func (db *DB) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id, name, color, slug FROM tags ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags: %w", err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.Slug); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}
	return tags, nil
}

func (db *DB) MissingTags(ctx context.Context, ids []model.TagID) ([]model.TagID, error) {
	found, err := existingIDs(ctx, db.conn, "tags", idArgs(ids))
	if err != nil {
		return nil, fmt.Errorf("sqlite: checking tags: %w", err)
	}
	var missing []model.TagID
	for _, id := range ids {
		if !found[int64(id)] {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// existingIDs returns which of the given ids have a row in table.
// table is always a constant supplied by this package.
func existingIDs(ctx context.Context, q querier, table string, ids []any) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE id IN (%s)`, table, placeholders(len(ids))),
		ids...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		found[id] = true
	}
	return found, rows.Err()
}
