package storage

import (
	"context"
	"database/sql"

	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/validate"
)

// PostRepo provides operations for community posts.
type PostRepo struct {
	db *DB
}

// NewPostRepo creates a new community post repository.
func NewPostRepo(db *DB) *PostRepo {
	return &PostRepo{db: db}
}

// Create publishes a post locally with zero reactions.
func (r *PostRepo) Create(ctx context.Context, in model.PostInput) (int64, error) {
	in.Author = validate.SanitizeName(in.Author)
	if in.Author == "" {
		in.Author = model.DefaultAuthor
	}
	in.Body = validate.SanitizeNote(in.Body)
	if err := validate.Post(in); err != nil {
		return 0, err
	}

	var id int64
	err := r.db.write(ctx, "post.create", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO community_posts (author, body, created_at, reactions, synced) VALUES (?, ?, ?, 0, 0)`,
			in.Author, in.Body, formatTime(r.db.Now()))
		if err != nil {
			return storageErr("post.create", "failed to insert post", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return storageErr("post.create", "failed to read id", err)
		}

		_, err = r.db.appendOutbox(ctx, tx, model.EntityPosts, nil, model.OpInsert, in)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// List returns every post, newest first.
func (r *PostRepo) List(ctx context.Context) ([]model.CommunityPost, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, author, body, created_at, reactions, synced FROM community_posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, storageErr("post.list", "failed to list posts", err)
	}
	defer rows.Close()

	var posts []model.CommunityPost
	for rows.Next() {
		var (
			p         model.CommunityPost
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Author, &p.Body, &createdAt, &p.Reactions, &p.Synced); err != nil {
			return nil, storageErr("post.list", "failed to scan post", err)
		}
		p.CreatedAt = parseTime(createdAt)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("post.list", "row iteration failed", err)
	}
	return posts, nil
}
