package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/google/uuid"

    "github.com/gatherly/gatherly-backend/internal/model"
)

// ContactRepo provides data access to the contact_registry table.  The
// sync path upserts contacts in bounded chunks, each chunk committing
// in its own transaction, so a failure part way through a large address
// book keeps the chunks already written.
type ContactRepo struct{ DB *sql.DB }

// NewContactRepo returns a new ContactRepo bound to the given database.
func NewContactRepo(db *sql.DB) *ContactRepo { return &ContactRepo{DB: db} }

// ContactUpsert is one address-book entry to persist for an owner.
type ContactUpsert struct {
    PhoneNumber      string
    ContactName      string
    RegisteredUserID *uint64
}

// UpsertChunk writes one chunk of an owner's address book inside a
// single transaction.  Existing (owner, phone) rows are updated in
// place; the rest are inserted with one bulk statement.
func (r *ContactRepo) UpsertChunk(ctx context.Context, ownerID uint64, entries []ContactUpsert) error {
    if len(entries) == 0 {
        return nil
    }

    phones := make([]string, len(entries))
    for i, e := range entries {
        phones[i] = e.PhoneNumber
    }
    existing, err := r.phonesOwned(ctx, ownerID, phones)
    if err != nil {
        return err
    }

    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    var inserts []ContactUpsert
    for _, e := range entries {
        if _, ok := existing[e.PhoneNumber]; !ok {
            inserts = append(inserts, e)
            continue
        }
        var matched any
        if e.RegisteredUserID != nil {
            matched = *e.RegisteredUserID
        }
        _, err = tx.ExecContext(ctx,
            `UPDATE contact_registry
             SET contact_name = ?, registered_user_id = ?, updated_at = UTC_TIMESTAMP()
             WHERE owner_id = ? AND phone_number = ?`,
            e.ContactName, matched, ownerID, e.PhoneNumber)
        if err != nil {
            return err
        }
    }

    if len(inserts) > 0 {
        var sb strings.Builder
        sb.WriteString(`INSERT INTO contact_registry (id, owner_id, phone_number, contact_name, registered_user_id) VALUES `)
        args := make([]any, 0, len(inserts)*5)
        for i, e := range inserts {
            if i > 0 {
                sb.WriteString(", ")
            }
            sb.WriteString("(?, ?, ?, ?, ?)")
            var matched any
            if e.RegisteredUserID != nil {
                matched = *e.RegisteredUserID
            }
            args = append(args, uuid.NewString(), ownerID, e.PhoneNumber, e.ContactName, matched)
        }
        if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
            return err
        }
    }

    return tx.Commit()
}

// phonesOwned returns the set of raw phone strings the owner already
// has rows for, out of the given candidates.
func (r *ContactRepo) phonesOwned(ctx context.Context, ownerID uint64, phones []string) (map[string]struct{}, error) {
    out := make(map[string]struct{}, len(phones))
    if len(phones) == 0 {
        return out, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(phones)), ",")
    args := make([]any, 0, len(phones)+1)
    args = append(args, ownerID)
    for _, p := range phones {
        args = append(args, p)
    }
    rows, err := r.DB.QueryContext(ctx,
        `SELECT phone_number FROM contact_registry
         WHERE owner_id = ? AND phone_number IN (`+placeholders+`)`, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        var p string
        if err := rows.Scan(&p); err != nil {
            return nil, err
        }
        out[p] = struct{}{}
    }
    return out, rows.Err()
}

// ResolvedByOwners returns every contact row with a resolved registered
// user for any of the listed owners.  Mutual-friend counting intersects
// these sets across owners.
func (r *ContactRepo) ResolvedByOwners(ctx context.Context, ownerIDs []uint64) ([]model.ContactRegistry, error) {
    if len(ownerIDs) == 0 {
        return nil, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ownerIDs)), ",")
    args := make([]any, len(ownerIDs))
    for i, id := range ownerIDs {
        args[i] = id
    }
    rows, err := r.DB.QueryContext(ctx,
        `SELECT id, owner_id, phone_number, contact_name, registered_user_id, created_at, updated_at
         FROM contact_registry
         WHERE registered_user_id IS NOT NULL AND owner_id IN (`+placeholders+`)`, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.ContactRegistry
    for rows.Next() {
        var (
            c       model.ContactRegistry
            matched sql.NullInt64
        )
        err := rows.Scan(&c.ID, &c.OwnerID, &c.PhoneNumber, &c.ContactName,
            &matched, &c.CreatedAt, &c.UpdatedAt)
        if err != nil {
            return nil, err
        }
        if matched.Valid {
            v := uint64(matched.Int64)
            c.RegisteredUserID = &v
        }
        out = append(out, c)
    }
    return out, rows.Err()
}
