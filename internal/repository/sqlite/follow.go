package sqlite

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sakif/foodgram/internal/apperror"
	"github.com/sakif/foodgram/internal/model"
	"github.com/sakif/foodgram/internal/repository"
)

var _ repository.FollowRepository = (*DB)(nil)

// Follow records that userID subscribes to authorID. Both rules are the
// schema's: CHECK (user_id <> author_id) rejects self-follows and
// UNIQUE (user_id, author_id) rejects repeats.
func (db *DB) Follow(ctx context.Context, userID, authorID model.UserID) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO follows (user_id, author_id) VALUES (?, ?)`,
		int64(userID), int64(authorID),
	)
	if err != nil {
		switch kind, _ := constraintViolation(err); kind {
		case checkViolation:
			return apperror.ValidationFailed("author", "you cannot subscribe to yourself")
		case uniqueViolation:
			return apperror.Duplicate("author", "you are already subscribed to this author")
		case foreignKeyViolation:
			if gone := accountGone(ctx, db.conn, userID); gone != nil {
				return gone
			}
			return apperror.NotFound("user", strconv.FormatInt(int64(authorID), 10))
		}
		return fmt.Errorf("sqlite: following user %d by %d: %w", authorID, userID, err)
	}
	return nil
}

func (db *DB) Unfollow(ctx context.Context, userID, authorID model.UserID) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM follows WHERE user_id = ? AND author_id = ?`,
		int64(userID), int64(authorID),
	)
	if err != nil {
		return fmt.Errorf("sqlite: unfollowing user %d by %d: %w", authorID, userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return &apperror.AppError{
			Err:     apperror.ErrNotFound,
			Message: fmt.Sprintf("you are not subscribed to user %d", authorID),
		}
	}
	return nil
}

func (db *DB) Following(ctx context.Context, userID model.UserID) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.email, u.username, u.first_name, u.last_name, u.password_hash, u.is_admin, u.created_at
		 FROM follows f JOIN users u ON u.id = f.author_id
		 WHERE f.user_id = ?
		 ORDER BY f.id`,
		int64(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing follows of user %d: %w", userID, err)
	}
	defer rows.Close()

	authors := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning followed user: %w", err)
		}
		authors = append(authors, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating follows: %w", err)
	}
	return authors, nil
}

func (db *DB) FollowedAmong(ctx context.Context, userID model.UserID, authorIDs []model.UserID) (map[model.UserID]bool, error) {
	followed := make(map[model.UserID]bool)
	if userID == 0 || len(authorIDs) == 0 {
		return followed, nil
	}

	args := append([]any{int64(userID)}, idArgs(authorIDs)...)
	rows, err := db.conn.QueryContext(ctx,
		fmt.Sprintf(`SELECT author_id FROM follows WHERE user_id = ? AND author_id IN (%s)`,
			placeholders(len(authorIDs))),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: reading follows of user %d: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id model.UserID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite: scanning follow row: %w", err)
		}
		followed[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating follows: %w", err)
	}
	return followed, nil
}
