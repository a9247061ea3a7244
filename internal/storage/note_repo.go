package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/manav03panchal/driverhelper/internal/errors"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/validate"
)

// NoteRepo provides operations for Note entities.
type NoteRepo struct {
	db *DB
}

// NewNoteRepo creates a new note repository.
func NewNoteRepo(db *DB) *NoteRepo {
	return &NoteRepo{db: db}
}

// Create adds a note and returns its id. The queued payload carries the id
// so the remote side can address later edits.
func (r *NoteRepo) Create(ctx context.Context, in model.NoteInput) (int64, error) {
	in.Content = validate.SanitizeNote(in.Content)
	in.Title = validate.SanitizeName(in.Title)
	in.Tags = validate.SanitizeTags(in.Tags)
	if err := validate.NoteInput(in); err != nil {
		return 0, err
	}

	var id int64
	err := r.db.write(ctx, "note.create", func(tx *sql.Tx) error {
		now := formatTime(r.db.Now())
		res, err := tx.ExecContext(ctx,
			`INSERT INTO notes (title, content, tags, created_at, updated_at, synced) VALUES (?, ?, ?, ?, ?, 0)`,
			nullString(in.Title), in.Content, nullString(in.Tags), now, now)
		if err != nil {
			return storageErr("note.create", "failed to insert note", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return storageErr("note.create", "failed to read id", err)
		}

		payload := struct {
			ID int64 `json:"id"`
			model.NoteInput
		}{id, in}
		_, err = r.db.appendOutbox(ctx, tx, model.EntityNotes, &id, model.OpInsert, payload)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Update changes only the fields set in patch and bumps updated_at.
// An empty patch writes nothing.
func (r *NoteRepo) Update(ctx context.Context, id int64, patch model.NotePatch) error {
	if patch.IsEmpty() {
		return nil
	}
	if patch.Content != nil {
		c := validate.SanitizeNote(*patch.Content)
		patch.Content = &c
	}
	if patch.Title != nil {
		t := validate.SanitizeName(*patch.Title)
		patch.Title = &t
	}
	if patch.Tags != nil {
		t := validate.SanitizeTags(*patch.Tags)
		patch.Tags = &t
	}
	if err := validate.NotePatch(patch); err != nil {
		return err
	}

	changes := patch.Changes()

	// Fixed column order keeps the statement deterministic.
	var (
		sets []string
		args []any
	)
	for _, col := range []string{"title", "content", "tags"} {
		v, ok := changes[col]
		if !ok {
			continue
		}
		sets = append(sets, col+" = ?")
		if col == "content" {
			args = append(args, v)
		} else {
			args = append(args, nullString(v.(string)))
		}
	}
	sets = append(sets, "updated_at = ?", "synced = 0")
	args = append(args, formatTime(r.db.Now()), id)

	return r.db.write(ctx, "note.update", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE notes SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
		if err != nil {
			return storageErr("note.update", "failed to update note", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NewNotFound(errors.ErrNoteNotFound, id)
		}

		payload := map[string]any{"id": id}
		for k, v := range changes {
			payload[k] = v
		}
		_, err = r.db.appendOutbox(ctx, tx, model.EntityNotes, &id, model.OpUpdate, payload)
		return err
	})
}

// Delete removes a note. An unknown id is a validation error.
func (r *NoteRepo) Delete(ctx context.Context, id int64) error {
	return r.db.write(ctx, "note.delete", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
		if err != nil {
			return storageErr("note.delete", "failed to delete note", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return errors.NewNotFound(errors.ErrNoteNotFound, id)
		}

		payload := struct {
			ID int64 `json:"id"`
		}{id}
		_, err = r.db.appendOutbox(ctx, tx, model.EntityNotes, &id, model.OpDelete, payload)
		return err
	})
}

// Get retrieves a note by id.
func (r *NoteRepo) Get(ctx context.Context, id int64) (*model.Note, error) {
	notes, err := r.query(ctx, `WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	if len(notes) == 0 {
		return nil, errors.NewNotFound(errors.ErrNoteNotFound, id)
	}
	return &notes[0], nil
}

// List returns every note, most recently edited first.
func (r *NoteRepo) List(ctx context.Context) ([]model.Note, error) {
	return r.query(ctx, `ORDER BY updated_at DESC, id DESC`)
}

func (r *NoteRepo) query(ctx context.Context, clause string, args ...any) ([]model.Note, error) {
	rows, err := r.db.conn.QueryContext(ctx,
		`SELECT id, title, content, tags, created_at, updated_at, synced FROM notes `+clause, args...)
	if err != nil {
		return nil, storageErr("note.list", "failed to list notes", err)
	}
	defer rows.Close()

	var notes []model.Note
	for rows.Next() {
		var (
			n                    model.Note
			title, tags          sql.NullString
			createdAt, updatedAt string
		)
		if err := rows.Scan(&n.ID, &title, &n.Content, &tags, &createdAt, &updatedAt, &n.Synced); err != nil {
			return nil, storageErr("note.list", "failed to scan note", err)
		}
		n.Title = title.String
		n.Tags = tags.String
		n.CreatedAt = parseTime(createdAt)
		n.UpdatedAt = parseTime(updatedAt)
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("note.list", "row iteration failed", err)
	}
	return notes, nil
}
