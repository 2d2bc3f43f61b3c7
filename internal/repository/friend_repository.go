package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/google/uuid"

    "github.com/gatherly/gatherly-backend/internal/model"
)

// FriendRepo provides data access to friend_requests and blocked_users.
// A friendship is an accepted request; the two roles (requester and
// receiver) are interchangeable once accepted, so every symmetric query
// unions both directions.
type FriendRepo struct{ DB *sql.DB }

// NewFriendRepo returns a new FriendRepo bound to the given database.
func NewFriendRepo(db *sql.DB) *FriendRepo { return &FriendRepo{DB: db} }

const friendRequestColumns = `id, requester_id, receiver_id, status, created_at, updated_at`

func scanFriendRequest(row interface{ Scan(...any) error }) (model.FriendRequest, error) {
    var fr model.FriendRequest
    err := row.Scan(&fr.ID, &fr.RequesterID, &fr.ReceiverID, &fr.Status,
        &fr.CreatedAt, &fr.UpdatedAt)
    return fr, err
}

// Create inserts a new pending friend request and returns it.
func (r *FriendRepo) Create(ctx context.Context, requesterID, receiverID uint64) (model.FriendRequest, error) {
    id := uuid.NewString()
    _, err := r.DB.ExecContext(ctx,
        `INSERT INTO friend_requests (id, requester_id, receiver_id, status)
         VALUES (?, ?, ?, ?)`, id, requesterID, receiverID, model.FriendRequestPending)
    if err != nil {
        return model.FriendRequest{}, err
    }
    return r.GetByID(ctx, id)
}

// GetByID fetches a friend request by id.  Returns ErrNotFound when no
// row exists.
func (r *FriendRepo) GetByID(ctx context.Context, id string) (model.FriendRequest, error) {
    fr, err := scanFriendRequest(r.DB.QueryRowContext(ctx,
        `SELECT `+friendRequestColumns+` FROM friend_requests WHERE id = ? LIMIT 1`, id))
    if err == sql.ErrNoRows {
        return model.FriendRequest{}, ErrNotFound
    }
    return fr, err
}

// HasPendingBetween reports whether a pending request already exists in
// either direction between the two users.
func (r *FriendRepo) HasPendingBetween(ctx context.Context, a, b uint64) (bool, error) {
    var one int
    err := r.DB.QueryRowContext(ctx,
        `SELECT 1 FROM friend_requests
         WHERE status = ?
           AND ((requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?))
         LIMIT 1`, model.FriendRequestPending, a, b, b, a).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// AreFriends reports whether an accepted request exists between the two
// users in either direction.
func (r *FriendRepo) AreFriends(ctx context.Context, a, b uint64) (bool, error) {
    var one int
    err := r.DB.QueryRowContext(ctx,
        `SELECT 1 FROM friend_requests
         WHERE status = ?
           AND ((requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?))
         LIMIT 1`, model.FriendRequestAccepted, a, b, b, a).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// SetStatus updates a request's status.
func (r *FriendRepo) SetStatus(ctx context.Context, id string, status model.FriendRequestStatus) error {
    _, err := r.DB.ExecContext(ctx,
        `UPDATE friend_requests SET status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`, status, id)
    return err
}

// ListIncoming returns pending requests addressed to the user, newest
// first.
func (r *FriendRepo) ListIncoming(ctx context.Context, userID uint64) ([]model.FriendRequest, error) {
    return r.listPending(ctx, `receiver_id`, userID)
}

// ListOutgoing returns pending requests sent by the user, newest first.
func (r *FriendRepo) ListOutgoing(ctx context.Context, userID uint64) ([]model.FriendRequest, error) {
    return r.listPending(ctx, `requester_id`, userID)
}

func (r *FriendRepo) listPending(ctx context.Context, col string, userID uint64) ([]model.FriendRequest, error) {
    rows, err := r.DB.QueryContext(ctx,
        `SELECT `+friendRequestColumns+` FROM friend_requests
         WHERE `+col+` = ? AND status = ?
         ORDER BY created_at DESC`, userID, model.FriendRequestPending)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.FriendRequest
    for rows.Next() {
        fr, err := scanFriendRequest(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, fr)
    }
    return out, rows.Err()
}

// FriendIDs returns the ids of every accepted friend of the user, in
// ascending id order so pagination over the list is stable.
func (r *FriendRepo) FriendIDs(ctx context.Context, userID uint64) ([]uint64, error) {
    rows, err := r.DB.QueryContext(ctx,
        `SELECT friend_id FROM (
            SELECT receiver_id AS friend_id FROM friend_requests WHERE requester_id = ? AND status = ?
            UNION
            SELECT requester_id AS friend_id FROM friend_requests WHERE receiver_id = ? AND status = ?
         ) f ORDER BY friend_id`,
        userID, model.FriendRequestAccepted, userID, model.FriendRequestAccepted)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        out = append(out, id)
    }
    return out, rows.Err()
}

// EndFriendship cancels the accepted request linking the two users.
// Returns ErrNotFound when they were not friends.
func (r *FriendRepo) EndFriendship(ctx context.Context, a, b uint64) error {
    res, err := r.DB.ExecContext(ctx,
        `UPDATE friend_requests SET status = ?, updated_at = UTC_TIMESTAMP()
         WHERE status = ?
           AND ((requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?))`,
        model.FriendRequestCanceled, model.FriendRequestAccepted, a, b, b, a)
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

// DeclinePendingBetween declines any pending request in either
// direction between the two users.  Blocking calls this so a block
// also kills outstanding requests.
func (r *FriendRepo) DeclinePendingBetween(ctx context.Context, a, b uint64) error {
    _, err := r.DB.ExecContext(ctx,
        `UPDATE friend_requests SET status = ?, updated_at = UTC_TIMESTAMP()
         WHERE status = ?
           AND ((requester_id = ? AND receiver_id = ?) OR (requester_id = ? AND receiver_id = ?))`,
        model.FriendRequestDeclined, model.FriendRequestPending, a, b, b, a)
    return err
}

// IsBlocked reports whether either user has blocked the other.
func (r *FriendRepo) IsBlocked(ctx context.Context, a, b uint64) (bool, error) {
    var one int
    err := r.DB.QueryRowContext(ctx,
        `SELECT 1 FROM blocked_users
         WHERE (blocker_id = ? AND blocked_id = ?) OR (blocker_id = ? AND blocked_id = ?)
         LIMIT 1`, a, b, b, a).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// Block records that blocker has blocked blocked.  Re-blocking an
// already blocked user is a no-op.
func (r *FriendRepo) Block(ctx context.Context, blockerID, blockedID uint64) error {
    _, err := r.DB.ExecContext(ctx,
        `INSERT IGNORE INTO blocked_users (id, blocker_id, blocked_id)
         VALUES (?, ?, ?)`, uuid.NewString(), blockerID, blockedID)
    return err
}

// Unblock removes a block.  Returns ErrNotFound when no block existed.
func (r *FriendRepo) Unblock(ctx context.Context, blockerID, blockedID uint64) error {
    res, err := r.DB.ExecContext(ctx,
        `DELETE FROM blocked_users WHERE blocker_id = ? AND blocked_id = ?`,
        blockerID, blockedID)
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

// DefaultRoomIDs resolves, for each listed user, the id of their
// self-celebrant, public, non-archived room if one exists.  The friend
// listing annotates each friend with this room so a client can jump
// straight into it.
func (r *FriendRepo) DefaultRoomIDs(ctx context.Context, userIDs []uint64) (map[uint64]string, error) {
    out := make(map[uint64]string, len(userIDs))
    if len(userIDs) == 0 {
        return out, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(userIDs)), ",")
    args := make([]any, len(userIDs))
    for i, id := range userIDs {
        args[i] = id
    }
    rows, err := r.DB.QueryContext(ctx,
        `SELECT owner_id, id FROM rooms
         WHERE owner_id IN (`+placeholders+`)
           AND celebrant_id = owner_id
           AND privacy_type = 'public'
           AND is_archived = FALSE`, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var ownerID uint64
        var roomID string
        if err := rows.Scan(&ownerID, &roomID); err != nil {
            return nil, err
        }
        out[ownerID] = roomID
    }
    return out, rows.Err()
}
