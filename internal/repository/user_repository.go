package repository

import (
    "context"
    "database/sql"
    "strings"
    "time"

    "github.com/gatherly/gatherly-backend/internal/model"
)

// UserRepo provides data access to the users table.  Identities are
// phone-first: GetOrCreateByPhone backs the OTP verification flow and
// is the only way new rows appear.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, phone, email, first_name, last_name, profile_picture_url,
    date_of_birth, email_verified, phone_verified, account_status, password_hash,
    is_active, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
    var (
        u       model.User
        email   sql.NullString
        picture sql.NullString
        dob     sql.NullTime
        pwd     sql.NullString
    )
    err := row.Scan(&u.ID, &u.Phone, &email, &u.FirstName, &u.LastName, &picture,
        &dob, &u.EmailVerified, &u.PhoneVerified, &u.AccountStatus, &pwd,
        &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    if err != nil {
        return model.User{}, err
    }
    if email.Valid {
        v := email.String
        u.Email = &v
    }
    if picture.Valid {
        v := picture.String
        u.ProfilePictureURL = &v
    }
    if dob.Valid {
        v := dob.Time
        u.DateOfBirth = &v
    }
    if pwd.Valid {
        v := pwd.String
        u.PasswordHash = &v
    }
    return u, nil
}

// GetByID fetches a user by id.  Returns ErrNotFound when no row exists.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    u, err := scanUser(r.DB.QueryRowContext(ctx,
        `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id))
    if err == sql.ErrNoRows {
        return model.User{}, ErrNotFound
    }
    return u, err
}

// GetByPhone fetches a user by their exact stored phone string.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (model.User, error) {
    u, err := scanUser(r.DB.QueryRowContext(ctx,
        `SELECT `+userColumns+` FROM users WHERE phone = ? LIMIT 1`, strings.TrimSpace(phone)))
    if err == sql.ErrNoRows {
        return model.User{}, ErrNotFound
    }
    return u, err
}

// GetByEmail fetches a user by their normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
    u, err := scanUser(r.DB.QueryRowContext(ctx,
        `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`,
        strings.ToLower(strings.TrimSpace(email))))
    if err == sql.ErrNoRows {
        return model.User{}, ErrNotFound
    }
    return u, err
}

// GetOrCreateByPhone returns the user owning the phone, creating the
// row on first successful OTP verification.  Whether created or found,
// the row leaves this call with phone_verified = 'verified' and
// account_status = 'registered'.
func (r *UserRepo) GetOrCreateByPhone(ctx context.Context, phone string) (model.User, error) {
    phone = strings.TrimSpace(phone)
    u, err := r.GetByPhone(ctx, phone)
    switch err {
    case nil:
        if u.PhoneVerified != model.VerificationVerified || u.AccountStatus != model.AccountRegistered {
            _, err = r.DB.ExecContext(ctx,
                `UPDATE users SET phone_verified = ?, account_status = ?, updated_at = UTC_TIMESTAMP() WHERE id = ?`,
                model.VerificationVerified, model.AccountRegistered, u.ID)
            if err != nil {
                return model.User{}, err
            }
            u.PhoneVerified = model.VerificationVerified
            u.AccountStatus = model.AccountRegistered
        }
        return u, nil
    case ErrNotFound:
        res, err := r.DB.ExecContext(ctx,
            `INSERT INTO users (phone, email_verified, phone_verified, account_status, is_active)
             VALUES (?, ?, ?, ?, TRUE)`,
            phone, model.VerificationUnverified, model.VerificationVerified, model.AccountRegistered)
        if err != nil {
            return model.User{}, err
        }
        id, err := res.LastInsertId()
        if err != nil {
            return model.User{}, err
        }
        return r.GetByID(ctx, uint64(id))
    default:
        return model.User{}, err
    }
}

// UserProfileUpdate carries the optional fields of a profile update.
// Nil fields are left untouched.
type UserProfileUpdate struct {
    FirstName         *string
    LastName          *string
    Email             *string
    ProfilePictureURL *string
    DateOfBirth       *time.Time
}

// UpdateProfile applies the non-nil fields of upd to the user row and
// returns the refreshed record.  Setting a new email resets the email
// verification state.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, upd UserProfileUpdate) (model.User, error) {
    set := []string{}
    args := []any{}
    if upd.FirstName != nil {
        set = append(set, "first_name = ?")
        args = append(args, *upd.FirstName)
    }
    if upd.LastName != nil {
        set = append(set, "last_name = ?")
        args = append(args, *upd.LastName)
    }
    if upd.Email != nil {
        set = append(set, "email = ?", "email_verified = ?")
        args = append(args, strings.ToLower(strings.TrimSpace(*upd.Email)), model.VerificationUnverified)
    }
    if upd.ProfilePictureURL != nil {
        set = append(set, "profile_picture_url = ?")
        args = append(args, *upd.ProfilePictureURL)
    }
    if upd.DateOfBirth != nil {
        set = append(set, "date_of_birth = ?")
        args = append(args, upd.DateOfBirth.UTC().Format("2006-01-02"))
    }
    if len(set) == 0 {
        return r.GetByID(ctx, id)
    }
    set = append(set, "updated_at = UTC_TIMESTAMP()")
    q := `UPDATE users SET ` + strings.Join(set, ", ") + ` WHERE id = ?`
    args = append(args, id)
    if _, err := r.DB.ExecContext(ctx, q, args...); err != nil {
        return model.User{}, err
    }
    return r.GetByID(ctx, id)
}

// Exists reports whether a user row with the given id exists.
func (r *UserRepo) Exists(ctx context.Context, id uint64) (bool, error) {
    var one int
    err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id = ? LIMIT 1`, id).Scan(&one)
    if err == sql.ErrNoRows {
        return false, nil
    }
    if err != nil {
        return false, err
    }
    return true, nil
}

// ListWithPhone pages through users that have a phone number, for
// building the contact-matching index.  Rows are keyed by id so the
// caller can iterate in bounded batches: pass the last seen id (0 to
// start) and a batch size.
func (r *UserRepo) ListWithPhone(ctx context.Context, afterID uint64, limit int) ([]model.User, error) {
    rows, err := r.DB.QueryContext(ctx,
        `SELECT `+userColumns+` FROM users
         WHERE phone IS NOT NULL AND phone <> '' AND id > ?
         ORDER BY id ASC
         LIMIT ?`, afterID, limit)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    var out []model.User
    for rows.Next() {
        u, err := scanUser(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, u)
    }
    return out, rows.Err()
}

// GetByIDs fetches the named users in one query.  Missing ids are
// silently absent from the result map.
func (r *UserRepo) GetByIDs(ctx context.Context, ids []uint64) (map[uint64]model.User, error) {
    out := make(map[uint64]model.User, len(ids))
    if len(ids) == 0 {
        return out, nil
    }
    placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
    args := make([]any, len(ids))
    for i, id := range ids {
        args[i] = id
    }
    rows, err := r.DB.QueryContext(ctx,
        `SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders+`)`, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    for rows.Next() {
        u, err := scanUser(rows)
        if err != nil {
            return nil, err
        }
        out[u.ID] = u
    }
    return out, rows.Err()
}
