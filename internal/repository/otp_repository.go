package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/google/uuid"

    "github.com/gatherly/gatherly-backend/internal/model"
)

// OTPRepo provides data access to the otps table.  Expiry is enforced
// lazily: nothing sweeps old rows, verification simply rejects codes
// whose expiration_time has passed.
type OTPRepo struct{ DB *sql.DB }

// NewOTPRepo returns a new OTPRepo bound to the given database.
func NewOTPRepo(db *sql.DB) *OTPRepo { return &OTPRepo{DB: db} }

const otpColumns = `id, phone_number, hashed_otp, reference_id, expiration_time,
    attempt_count, is_verified, created_at, updated_at`

func scanOTP(row interface{ Scan(...any) error }) (model.OTP, error) {
    var o model.OTP
    err := row.Scan(&o.ID, &o.PhoneNumber, &o.HashedOTP, &o.ReferenceID,
        &o.ExpirationTime, &o.AttemptCount, &o.IsVerified, &o.CreatedAt, &o.UpdatedAt)
    return o, err
}

// Create inserts a new OTP row and returns it.
func (r *OTPRepo) Create(ctx context.Context, phone, hashedOTP, referenceID string, expiresAt time.Time) (model.OTP, error) {
    id := uuid.NewString()
    _, err := r.DB.ExecContext(ctx,
        `INSERT INTO otps (id, phone_number, hashed_otp, reference_id, expiration_time, attempt_count, is_verified)
         VALUES (?, ?, ?, ?, ?, 0, FALSE)`,
        id, phone, hashedOTP, referenceID, expiresAt.UTC().Format("2006-01-02 15:04:05"))
    if err != nil {
        return model.OTP{}, err
    }
    return r.getByID(ctx, id)
}

func (r *OTPRepo) getByID(ctx context.Context, id string) (model.OTP, error) {
    o, err := scanOTP(r.DB.QueryRowContext(ctx,
        `SELECT `+otpColumns+` FROM otps WHERE id = ? LIMIT 1`, id))
    if err == sql.ErrNoRows {
        return model.OTP{}, ErrNotFound
    }
    return o, err
}

// GetByReference fetches an OTP by its opaque reference token.
func (r *OTPRepo) GetByReference(ctx context.Context, referenceID string) (model.OTP, error) {
    o, err := scanOTP(r.DB.QueryRowContext(ctx,
        `SELECT `+otpColumns+` FROM otps WHERE reference_id = ? LIMIT 1`, referenceID))
    if err == sql.ErrNoRows {
        return model.OTP{}, ErrNotFound
    }
    return o, err
}

// GetActiveByPhone returns the unexpired, unverified OTP for a phone,
// if one exists.  Generation refuses to issue a second code while one
// is outstanding.
func (r *OTPRepo) GetActiveByPhone(ctx context.Context, phone string) (model.OTP, error) {
    o, err := scanOTP(r.DB.QueryRowContext(ctx,
        `SELECT `+otpColumns+` FROM otps
         WHERE phone_number = ? AND is_verified = FALSE AND expiration_time > UTC_TIMESTAMP()
         ORDER BY created_at DESC LIMIT 1`, phone))
    if err == sql.ErrNoRows {
        return model.OTP{}, ErrNotFound
    }
    return o, err
}

// IncrementAttempts consumes one verification attempt.
func (r *OTPRepo) IncrementAttempts(ctx context.Context, id string) error {
    _, err := r.DB.ExecContext(ctx,
        `UPDATE otps SET attempt_count = attempt_count + 1, updated_at = UTC_TIMESTAMP() WHERE id = ?`, id)
    return err
}

// MarkVerified flags the OTP as consumed so it can never validate again.
func (r *OTPRepo) MarkVerified(ctx context.Context, id string) error {
    _, err := r.DB.ExecContext(ctx,
        `UPDATE otps SET is_verified = TRUE, updated_at = UTC_TIMESTAMP() WHERE id = ?`, id)
    return err
}
