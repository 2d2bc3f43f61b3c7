package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strings"
    "time"

    "github.com/google/uuid"

    "github.com/gatherly/gatherly-backend/internal/model"
)

// RoomRepo provides data access to the rooms table and owns the
// transactional creation path.  A room and its owner's admin
// participant row are one logical unit: they are inserted inside a
// single transaction so a failed participant insert can never leave a
// half-committed room behind.  All timestamps are stored in UTC.
type RoomRepo struct{ DB *sql.DB }

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{DB: db} }

const roomColumns = `id, owner_id, celebrant_id, room_name, description, room_type,
    privacy_type, status, is_archived, activation_time, expiration_time,
    max_participants, auto_approve, celebrant_birthday, metadata, last_activity,
    created_at, updated_at`

const mysqlTime = "2006-01-02 15:04:05"

func scanRoom(row interface{ Scan(...any) error }) (model.Room, error) {
    var (
        r         model.Room
        celebrant sql.NullInt64
        maxPart   sql.NullInt64
        birthday  sql.NullTime
        metadata  sql.NullString
    )
    err := row.Scan(&r.ID, &r.OwnerID, &celebrant, &r.Name, &r.Description, &r.Type,
        &r.Privacy, &r.Status, &r.IsArchived, &r.ActivationTime, &r.ExpirationTime,
        &maxPart, &r.AutoApprove, &birthday, &metadata, &r.LastActivity,
        &r.CreatedAt, &r.UpdatedAt)
    if err != nil {
        return model.Room{}, err
    }
    if celebrant.Valid {
        v := uint64(celebrant.Int64)
        r.CelebrantID = &v
    }
    if maxPart.Valid {
        v := int(maxPart.Int64)
        r.MaxParticipants = &v
    }
    if birthday.Valid {
        v := birthday.Time
        r.CelebrantBirthday = &v
    }
    if metadata.Valid && metadata.String != "" {
        // Metadata is stored as a JSON object; a row written before the
        // column existed scans as NULL and stays nil.
        _ = json.Unmarshal([]byte(metadata.String), &r.Metadata)
    }
    return r, nil
}

// GetByID fetches a room by id.  Returns ErrNotFound when no row exists.
func (r *RoomRepo) GetByID(ctx context.Context, id string) (model.Room, error) {
    rm, err := scanRoom(r.DB.QueryRowContext(ctx,
        `SELECT `+roomColumns+` FROM rooms WHERE id = ? LIMIT 1`, id))
    if err == sql.ErrNoRows {
        return model.Room{}, ErrNotFound
    }
    return rm, err
}

// HasOverlapping reports whether the owner already holds a non-expired,
// non-archived room for the same celebrant whose time range intersects
// [activation, expiration].  The intersection test is inclusive on both
// ends: existing.activation <= new.expiration AND existing.expiration
// >= new.activation.
func (r *RoomRepo) HasOverlapping(ctx context.Context, ownerID uint64, celebrantID *uint64, activation, expiration time.Time) (bool, error) {
    q := `SELECT 1 FROM rooms
          WHERE owner_id = ?
            AND is_archived = FALSE
            AND expiration_time > UTC_TIMESTAMP()
            AND activation_time <= ?
            AND expiration_time >= ?`
    args := []any{ownerID, expiration.UTC().Format(mysqlTime), activation.UTC().Format(mysqlTime)}
    if celebrantID != nil {
        q += ` AND celebrant_id = ?`
        args = append(args, *celebrantID)
    } else {
        q += ` AND celebrant_id IS NULL`
    }
    q += ` LIMIT 1`
    var one int
    err := r.DB.QueryRowContext(ctx, q, args...).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// HasSelfCelebrantRoom reports whether the owner already has a
// non-archived room celebrating themselves.  At most one such room may
// exist per owner.
func (r *RoomRepo) HasSelfCelebrantRoom(ctx context.Context, ownerID uint64) (bool, error) {
    var one int
    err := r.DB.QueryRowContext(ctx,
        `SELECT 1 FROM rooms WHERE owner_id = ? AND celebrant_id = ? AND is_archived = FALSE LIMIT 1`,
        ownerID, ownerID).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// Create inserts a room in PENDING status together with the owner's
// approved admin participant row, in one transaction.  The generated
// room and participant IDs are populated on rm.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) error {
    rm.ID = uuid.NewString()
    rm.Status = model.RoomStatusPending

    var metadata any
    if len(rm.Metadata) > 0 {
        b, err := json.Marshal(rm.Metadata)
        if err != nil {
            return err
        }
        metadata = string(b)
    }
    var celebrant any
    if rm.CelebrantID != nil {
        celebrant = *rm.CelebrantID
    }
    var maxPart any
    if rm.MaxParticipants != nil {
        maxPart = *rm.MaxParticipants
    }
    var birthday any
    if rm.CelebrantBirthday != nil {
        birthday = rm.CelebrantBirthday.UTC().Format("2006-01-02")
    }

    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    _, err = tx.ExecContext(ctx,
        `INSERT INTO rooms (id, owner_id, celebrant_id, room_name, description, room_type,
             privacy_type, status, is_archived, activation_time, expiration_time,
             max_participants, auto_approve, celebrant_birthday, metadata, last_activity)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?, ?, ?, ?, ?, UTC_TIMESTAMP())`,
        rm.ID, rm.OwnerID, celebrant, rm.Name, rm.Description, rm.Type,
        rm.Privacy, rm.Status, rm.ActivationTime.UTC().Format(mysqlTime),
        rm.ExpirationTime.UTC().Format(mysqlTime), maxPart, rm.AutoApprove,
        birthday, metadata)
    if err != nil {
        return err
    }

    _, err = tx.ExecContext(ctx,
        `INSERT INTO room_participants (id, room_id, user_id, is_admin, status)
         VALUES (?, ?, ?, TRUE, ?)`,
        uuid.NewString(), rm.ID, rm.OwnerID, model.ParticipantApproved)
    if err != nil {
        return err
    }

    return tx.Commit()
}

// SetStatus transitions a room's stored status.
func (r *RoomRepo) SetStatus(ctx context.Context, id string, status model.RoomStatus) error {
    _, err := r.DB.ExecContext(ctx,
        `UPDATE rooms SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, status, id)
    return err
}

// SetArchived flips the archive flag.  Archiving is a soft, reversible
// overlay; the room's status and participants are untouched.
func (r *RoomRepo) SetArchived(ctx context.Context, id string, archived bool) error {
    _, err := r.DB.ExecContext(ctx,
        `UPDATE rooms SET is_archived = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, archived, id)
    return err
}

// Delete removes a room and its participants in one transaction (a
// hard cascade, unlike archiving).
func (r *RoomRepo) Delete(ctx context.Context, id string) error {
    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()
    if _, err := tx.ExecContext(ctx, `DELETE FROM room_participants WHERE room_id = ?`, id); err != nil {
        return err
    }
    if _, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id); err != nil {
        return err
    }
    return tx.Commit()
}

// TouchActivityTx bumps the room's last_activity inside an existing
// transaction (used by the join path).
func (r *RoomRepo) TouchActivityTx(ctx context.Context, tx *sql.Tx, id string) error {
    _, err := tx.ExecContext(ctx,
        `UPDATE rooms SET last_activity = UTC_TIMESTAMP() WHERE id = ?`, id)
    return err
}

// RoomSettingsUpdate carries the owner-editable room fields.  Nil
// fields are left untouched.
type RoomSettingsUpdate struct {
    Name            *string
    Description     *string
    Privacy         *model.RoomPrivacy
    MaxParticipants *int
    AutoApprove     *bool
}

// UpdateSettings applies the non-nil fields of upd and returns the
// refreshed room.
func (r *RoomRepo) UpdateSettings(ctx context.Context, id string, upd RoomSettingsUpdate) (model.Room, error) {
    set := []string{}
    args := []any{}
    if upd.Name != nil {
        set = append(set, "room_name = ?")
        args = append(args, *upd.Name)
    }
    if upd.Description != nil {
        set = append(set, "description = ?")
        args = append(args, *upd.Description)
    }
    if upd.Privacy != nil {
        set = append(set, "privacy_type = ?")
        args = append(args, *upd.Privacy)
    }
    if upd.MaxParticipants != nil {
        set = append(set, "max_participants = ?")
        args = append(args, *upd.MaxParticipants)
    }
    if upd.AutoApprove != nil {
        set = append(set, "auto_approve = ?")
        args = append(args, *upd.AutoApprove)
    }
    if len(set) == 0 {
        return r.GetByID(ctx, id)
    }
    set = append(set, "updated_at = UTC_TIMESTAMP()")
    q := `UPDATE rooms SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
    args = append(args, id)
    if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
        return model.Room{}, err
    }
    return r.GetByID(ctx, id)
}

// RoomStats summarizes a room's participant population by admission
// state.
type RoomStats struct {
    RoomID       string `json:"room_id"`
    Total        int    `json:"total"`
    Approved     int    `json:"approved"`
    Pending      int    `json:"pending"`
    Rejected     int    `json:"rejected"`
    Banned       int    `json:"banned"`
    AdminCount   int    `json:"admins"`
}

// Stats computes participant counts for a room in one aggregate query.
func (r *RoomRepo) Stats(ctx context.Context, roomID string) (RoomStats, error) {
    st := RoomStats{RoomID: roomID}
    err := r.DB.QueryRowContext(ctx,
        `SELECT COUNT(*),
                COALESCE(SUM(status = 'approved'), 0),
                COALESCE(SUM(status = 'pending'), 0),
                COALESCE(SUM(status = 'rejected'), 0),
                COALESCE(SUM(status = 'banned'), 0),
                COALESCE(SUM(is_admin), 0)
         FROM room_participants WHERE room_id = ?`, roomID).
        Scan(&st.Total, &st.Approved, &st.Pending, &st.Rejected, &st.Banned, &st.AdminCount)
    return st, err
}
