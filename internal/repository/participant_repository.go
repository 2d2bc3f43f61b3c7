package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/google/uuid"

    "github.com/gatherly/gatherly-backend/internal/model"
)

// ParticipantRepo provides data access to the room_participants table.
// The join path runs inside a caller-owned transaction so the capacity
// check and the membership insert commit atomically; the Tx-suffixed
// methods exist for that purpose.
type ParticipantRepo struct{ DB *sql.DB }

// NewParticipantRepo returns a new ParticipantRepo bound to the given database.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{DB: db} }

const participantColumns = `id, room_id, user_id, is_admin, status, joined_at, last_active_at, updated_at`

func scanParticipant(row interface{ Scan(...any) error }) (model.RoomParticipant, error) {
    var p model.RoomParticipant
    err := row.Scan(&p.ID, &p.RoomID, &p.UserID, &p.IsAdmin, &p.Status,
        &p.JoinedAt, &p.LastActiveAt, &p.UpdatedAt)
    return p, err
}

// Get fetches the membership row for (room, user).  Returns ErrNotFound
// when the user has no record in the room.
func (r *ParticipantRepo) Get(ctx context.Context, roomID string, userID uint64) (model.RoomParticipant, error) {
    p, err := scanParticipant(r.DB.QueryRowContext(ctx,
        `SELECT `+participantColumns+` FROM room_participants
         WHERE room_id = ? AND user_id = ? LIMIT 1`, roomID, userID))
    if err == sql.ErrNoRows {
        return model.RoomParticipant{}, ErrNotFound
    }
    return p, err
}

// GetTx is Get inside an existing transaction.
func (r *ParticipantRepo) GetTx(ctx context.Context, tx *sql.Tx, roomID string, userID uint64) (model.RoomParticipant, error) {
    p, err := scanParticipant(tx.QueryRowContext(ctx,
        `SELECT `+participantColumns+` FROM room_participants
         WHERE room_id = ? AND user_id = ? LIMIT 1`, roomID, userID))
    if err == sql.ErrNoRows {
        return model.RoomParticipant{}, ErrNotFound
    }
    return p, err
}

// CountApprovedTx counts approved members of a room inside an existing
// transaction, for the capacity check on the join path.
func (r *ParticipantRepo) CountApprovedTx(ctx context.Context, tx *sql.Tx, roomID string) (int, error) {
    var n int
    err := tx.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM room_participants WHERE room_id = ? AND status = ?`,
        roomID, model.ParticipantApproved).Scan(&n)
    return n, err
}

// CreateTx inserts a membership row inside an existing transaction and
// returns the generated id.
func (r *ParticipantRepo) CreateTx(ctx context.Context, tx *sql.Tx, roomID string, userID uint64, status model.ParticipantStatus, isAdmin bool) (string, error) {
    id := uuid.NewString()
    _, err := tx.ExecContext(ctx,
        `INSERT INTO room_participants (id, room_id, user_id, is_admin, status)
         VALUES (?, ?, ?, ?, ?)`, id, roomID, userID, isAdmin, status)
    return id, err
}

// Create inserts a membership row outside any transaction (used by the
// invite path, which tolerates partial progress across invitees).
func (r *ParticipantRepo) Create(ctx context.Context, roomID string, userID uint64, status model.ParticipantStatus, isAdmin bool) (string, error) {
    id := uuid.NewString()
    _, err := r.DB.ExecContext(ctx,
        `INSERT INTO room_participants (id, room_id, user_id, is_admin, status)
         VALUES (?, ?, ?, ?, ?)`, id, roomID, userID, isAdmin, status)
    return id, err
}

// SetStatus moves one member to the given admission state.  Returns
// ErrNotFound when the user has no record in the room.
func (r *ParticipantRepo) SetStatus(ctx context.Context, roomID string, userID uint64, status model.ParticipantStatus) error {
    res, err := r.DB.ExecContext(ctx,
        `UPDATE room_participants SET status = ?, updated_at = UTC_TIMESTAMP()
         WHERE room_id = ? AND user_id = ?`, status, roomID, userID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}

// SetStatusIfPending moves the member to the given state only while the
// current state is pending.  Returns ErrConflict when the record exists
// but has already left the pending state, ErrNotFound when no record
// exists at all.
func (r *ParticipantRepo) SetStatusIfPending(ctx context.Context, roomID string, userID uint64, status model.ParticipantStatus) error {
    res, err := r.DB.ExecContext(ctx,
        `UPDATE room_participants SET status = ?, updated_at = UTC_TIMESTAMP()
         WHERE room_id = ? AND user_id = ? AND status = ?`,
        status, roomID, userID, model.ParticipantPending)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 1 {
        return nil
    }
    _, err = r.Get(ctx, roomID, userID)
    if err != nil {
        return err
    }
    return ErrConflict
}

// BulkSetStatus moves every listed member to the given state in one
// set-based UPDATE and returns how many rows changed.  Users without a
// membership row are skipped silently.
func (r *ParticipantRepo) BulkSetStatus(ctx context.Context, roomID string, userIDs []uint64, status model.ParticipantStatus) (int64, error) {
    if len(userIDs) == 0 {
        return 0, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
    args := []any{status, roomID}
    for _, id := range userIDs {
        args = append(args, id)
    }
    res, err := r.DB.ExecContext(ctx,
        `UPDATE room_participants SET status = ?, updated_at = UTC_TIMESTAMP()
         WHERE room_id = ? AND user_id IN (`+placeholders+`)`, args...)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

// ListByRoom returns every membership row of a room, newest first.
func (r *ParticipantRepo) ListByRoom(ctx context.Context, roomID string) ([]model.RoomParticipant, error) {
    rows, err := r.DB.QueryContext(ctx,
        `SELECT `+participantColumns+` FROM room_participants
         WHERE room_id = ? ORDER BY joined_at DESC`, roomID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.RoomParticipant
    for rows.Next() {
        p, err := scanParticipant(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    return out, rows.Err()
}

// TouchLastActive bumps the member's last_active_at.
func (r *ParticipantRepo) TouchLastActive(ctx context.Context, roomID string, userID uint64) error {
    _, err := r.DB.ExecContext(ctx,
        `UPDATE room_participants SET last_active_at = UTC_TIMESTAMP()
         WHERE room_id = ? AND user_id = ?`, roomID, userID)
    return err
}
