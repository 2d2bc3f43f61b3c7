package repository

import (
    "context"
    "strings"
    "time"

    "github.com/gatherly/gatherly-backend/internal/model"
)

// RoomSearchQuery carries the browse filters.  Zero values mean "no
// filter" except Archived, which defaults to hiding archived rooms.
// Page is 1-indexed.
type RoomSearchQuery struct {
    CallerID uint64

    Archived     bool
    Types        []model.RoomType
    Statuses     []model.RoomStatus
    ActiveFrom   *time.Time
    ActiveTo     *time.Time
    BirthdayFrom *time.Time
    BirthdayTo   *time.Time
    Search       string
    OwnerID      *uint64
    MyRooms      bool
    FriendsOnly  bool

    Page     int
    PageSize int
}

// buildRoomFilter composes the WHERE clause for a room search as a
// list of AND-ed fragments with matching args.  Kept free of *sql.DB
// so the composition rules can be tested directly.
func buildRoomFilter(q RoomSearchQuery) (string, []any) {
    conds := []string{"r.is_archived = ?"}
    args := []any{q.Archived}

    if len(q.Types) > 0 {
        ph := strings.TrimSuffix(strings.Repeat("?,", len(q.Types)), ",")
        conds = append(conds, "r.room_type IN ("+ph+")")
        for _, t := range q.Types {
            args = append(args, t)
        }
    }
    if len(q.Statuses) > 0 {
        ph := strings.TrimSuffix(strings.Repeat("?,", len(q.Statuses)), ",")
        conds = append(conds, "r.status IN ("+ph+")")
        for _, s := range q.Statuses {
            args = append(args, s)
        }
    }
    // Date-range filters match rooms whose active window intersects
    // the requested window, not rooms fully contained by it.
    if q.ActiveFrom != nil {
        conds = append(conds, "r.expiration_time >= ?")
        args = append(args, q.ActiveFrom.UTC().Format(mysqlTime))
    }
    if q.ActiveTo != nil {
        conds = append(conds, "r.activation_time <= ?")
        args = append(args, q.ActiveTo.UTC().Format(mysqlTime))
    }
    if q.BirthdayFrom != nil {
        conds = append(conds, "r.celebrant_birthday >= ?")
        args = append(args, q.BirthdayFrom.UTC().Format("2006-01-02"))
    }
    if q.BirthdayTo != nil {
        conds = append(conds, "r.celebrant_birthday <= ?")
        args = append(args, q.BirthdayTo.UTC().Format("2006-01-02"))
    }
    if s := strings.TrimSpace(q.Search); s != "" {
        like := "%" + s + "%"
        conds = append(conds, "(LOWER(r.room_name) LIKE LOWER(?) OR LOWER(r.description) LIKE LOWER(?))")
        args = append(args, like, like)
    }
    if q.OwnerID != nil {
        conds = append(conds, "r.owner_id = ?")
        args = append(args, *q.OwnerID)
    }
    if q.MyRooms {
        conds = append(conds,
            `(r.owner_id = ? OR EXISTS (
                SELECT 1 FROM room_participants p
                WHERE p.room_id = r.id AND p.user_id = ? AND p.status IN ('approved', 'pending')))`)
        args = append(args, q.CallerID, q.CallerID)
    }
    if q.FriendsOnly {
        // Accepted friendships are symmetric, so the owner may sit on
        // either side of the request row.  The caller's own rooms
        // always qualify, which also covers callers with no friends.
        conds = append(conds,
            `(r.owner_id = ? OR r.owner_id IN (
                SELECT receiver_id FROM friend_requests WHERE requester_id = ? AND status = 'accepted'
                UNION
                SELECT requester_id FROM friend_requests WHERE receiver_id = ? AND status = 'accepted'))`)
        args = append(args, q.CallerID, q.CallerID, q.CallerID)
    }
    return strings.Join(conds, " AND "), args
}

// Search runs a filtered, paginated room browse.  Returns the page of
// rooms plus the pre-pagination total, newest rooms first.
func (r *RoomRepo) Search(ctx context.Context, q RoomSearchQuery) ([]model.Room, int, error) {
    if q.Page < 1 {
        q.Page = 1
    }
    if q.PageSize < 1 || q.PageSize > 100 {
        q.PageSize = 20
    }
    where, args := buildRoomFilter(q)

    var total int
    err := r.DB.QueryRowContext(ctx,
        `SELECT COUNT(*) FROM rooms r WHERE `+where, args...).Scan(&total)
    if err != nil {
        return nil, 0, err
    }

    offset := (q.Page - 1) * q.PageSize
    rows, err := r.DB.QueryContext(ctx,
        `SELECT `+roomColumnsAliased+` FROM rooms r WHERE `+where+
            ` ORDER BY r.created_at DESC LIMIT ? OFFSET ?`,
        append(args, q.PageSize, offset)...)
    if err != nil {
        return nil, 0, err
    }
    defer rows.Close()
    var out []model.Room
    for rows.Next() {
        rm, err := scanRoom(rows)
        if err != nil {
            return nil, 0, err
        }
        out = append(out, rm)
    }
    return out, total, rows.Err()
}

const roomColumnsAliased = `r.id, r.owner_id, r.celebrant_id, r.room_name, r.description, r.room_type,
    r.privacy_type, r.status, r.is_archived, r.activation_time, r.expiration_time,
    r.max_participants, r.auto_approve, r.celebrant_birthday, r.metadata, r.last_activity,
    r.created_at, r.updated_at`
