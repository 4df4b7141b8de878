package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pet-adoption-marketplace/internal/domain/threads"
)

var threadsTable = table[threads.Thread]{
	name: threads.Collection,
	columns: `id, pet_id, pet_name, adopter_id, adopter_name, shelter_id, shelter_name,
		last_message, last_message_at, last_sender_id,
		adoption_closed, adoption_closed_at, adoption_reopened_at, created_at, updated_at`,
	fields: map[string]string{
		threads.FieldAdopterID:     "adopter_id",
		threads.FieldShelterID:     "shelter_id",
		threads.FieldLastMessageAt: "last_message_at",
	},
	scan: scanThread,
}

type ThreadsRepo struct {
	db  *sql.DB
	now func() time.Time
	liveSource[threads.Thread]
}

func NewThreadsRepo(db *sql.DB, listener *Listener) *ThreadsRepo {
	return &ThreadsRepo{
		db:         db,
		now:        time.Now,
		liveSource: liveSource[threads.Thread]{db: db, tbl: threadsTable, listener: listener},
	}
}

// Merge aplica el patch dentro de una transacción con el thread bloqueado.
// Si dos requests crean el mismo thread a la vez, el segundo reintenta como
// update sobre la fila ya insertada.
func (r *ThreadsRepo) Merge(ctx context.Context, p threads.Patch) (threads.Thread, error) {
	id := threads.IDFor(p.Key)
	if id == "" {
		return threads.Thread{}, errors.New("thread key incomplete")
	}

	var out threads.Thread
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := lockThread(ctx, tx, id)
		switch {
		case errors.Is(err, ErrNotFound):
			out = threads.Apply(threads.Thread{}, false, p, r.now())
			inserted, err := insertThread(ctx, tx, out)
			if err != nil {
				return err
			}
			if inserted {
				return nil
			}
			if cur, err = lockThread(ctx, tx, id); err != nil {
				return err
			}
		case err != nil:
			return err
		}

		out = threads.Apply(cur, true, p, r.now())
		return updateThread(ctx, tx, out)
	})
	return out, err
}

func (r *ThreadsRepo) GetByID(ctx context.Context, id string) (threads.Thread, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return threads.Thread{}, ErrNotFound
	}
	return threadsTable.get(ctx, r.db, id)
}

func (r *ThreadsRepo) AppendMessage(ctx context.Context, m threads.Message) (threads.Thread, error) {
	var out threads.Thread
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		cur, err := lockThread(ctx, tx, m.ThreadID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO thread_messages (id, thread_id, sender_id, text, created_at)
			VALUES ($1,$2,$3,$4,$5)
		`, m.ID, m.ThreadID, m.SenderID, m.Text, m.CreatedAt); err != nil {
			return err
		}
		out = threads.WithMessage(cur, m)
		return updateThread(ctx, tx, out)
	})
	return out, err
}

func (r *ThreadsRepo) ListMessages(ctx context.Context, threadID string) ([]threads.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, thread_id, sender_id, text, created_at
		FROM thread_messages
		WHERE thread_id = $1
		ORDER BY created_at ASC, id
	`, strings.TrimSpace(threadID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]threads.Message, 0)
	for rows.Next() {
		var m threads.Message
		if err := rows.Scan(&m.ID, &m.ThreadID, &m.SenderID, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *ThreadsRepo) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func lockThread(ctx context.Context, tx *sql.Tx, id string) (threads.Thread, error) {
	t, err := scanThread(tx.QueryRowContext(ctx,
		"SELECT "+threadsTable.columns+" FROM threads WHERE id = $1 FOR UPDATE", id))
	if errors.Is(err, sql.ErrNoRows) {
		return threads.Thread{}, ErrNotFound
	}
	return t, err
}

func insertThread(ctx context.Context, tx *sql.Tx, t threads.Thread) (bool, error) {
	res, err := tx.ExecContext(ctx, `
		INSERT INTO threads (
			id, pet_id, pet_name, adopter_id, adopter_name, shelter_id, shelter_name,
			last_message, last_message_at, last_sender_id,
			adoption_closed, adoption_closed_at, adoption_reopened_at, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (id) DO NOTHING
	`,
		t.ID, t.PetID, t.PetName, t.AdopterID, t.AdopterName, t.ShelterID, t.ShelterName,
		t.LastMessage, t.LastMessageAt, t.LastSenderID,
		t.AdoptionClosed, t.AdoptionClosedAt, t.AdoptionReopenedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}

func updateThread(ctx context.Context, tx *sql.Tx, t threads.Thread) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE threads
		SET
			pet_name = $2, adopter_name = $3, shelter_name = $4,
			last_message = $5, last_message_at = $6, last_sender_id = $7,
			adoption_closed = $8, adoption_closed_at = $9, adoption_reopened_at = $10,
			updated_at = $11
		WHERE id = $1
	`,
		t.ID, t.PetName, t.AdopterName, t.ShelterName,
		t.LastMessage, t.LastMessageAt, t.LastSenderID,
		t.AdoptionClosed, t.AdoptionClosedAt, t.AdoptionReopenedAt,
		t.UpdatedAt,
	)
	return err
}

func scanThread(s scanner) (threads.Thread, error) {
	var t threads.Thread
	var closedAt, reopenedAt sql.NullTime
	if err := s.Scan(
		&t.ID, &t.PetID, &t.PetName, &t.AdopterID, &t.AdopterName, &t.ShelterID, &t.ShelterName,
		&t.LastMessage, &t.LastMessageAt, &t.LastSenderID,
		&t.AdoptionClosed, &closedAt, &reopenedAt, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return threads.Thread{}, err
	}
	if closedAt.Valid {
		v := closedAt.Time
		t.AdoptionClosedAt = &v
	}
	if reopenedAt.Valid {
		v := reopenedAt.Time
		t.AdoptionReopenedAt = &v
	}
	return t, nil
}
