package model

import "time"

// VerificationState tracks whether a contact channel (email or phone)
// has been confirmed by its owner.
type VerificationState string

const (
    VerificationUnverified VerificationState = "unverified"
    VerificationVerified   VerificationState = "verified"
)

// AccountStatus distinguishes accounts that were only observed (for
// example through a contact sync) from accounts whose owner completed
// phone verification.
type AccountStatus string

const (
    AccountUnregistered AccountStatus = "unregistered"
    AccountRegistered   AccountStatus = "registered"
)

// User represents an application user record as stored in the `users`
// table.  Identity is phone-first: a row is created on the first
// successful OTP verification for a phone number.  Email, password and
// profile fields are optional and filled in later via profile updates.
//
// Fields:
//  ID                – primary key identifier of the user.
//  Phone             – phone number the account was verified with.
//  Email             – optional email address (nullable).
//  FirstName         – given name.
//  LastName          – family name.
//  ProfilePictureURL – optional avatar URL.
//  DateOfBirth       – optional birth date; inherited by rooms that
//                      celebrate this user.
//  EmailVerified     – verification state of the email channel.
//  PhoneVerified     – verification state of the phone channel.
//  AccountStatus     – unregistered until the owner verifies the phone.
//  PasswordHash      – bcrypt hashed password (nullable).
//  IsActive          – whether the account is active.
//  CreatedAt         – timestamp of creation.
//  UpdatedAt         – timestamp of last update.
type User struct {
    ID                uint64            // users.id
    Phone             string            // users.phone
    Email             *string           // users.email (nullable)
    FirstName         string            // users.first_name
    LastName          string            // users.last_name
    ProfilePictureURL *string           // users.profile_picture_url (nullable)
    DateOfBirth       *time.Time        // users.date_of_birth (nullable)
    EmailVerified     VerificationState // users.email_verified
    PhoneVerified     VerificationState // users.phone_verified
    AccountStatus     AccountStatus     // users.account_status
    PasswordHash      *string           // users.password_hash (nullable)
    IsActive          bool              // users.is_active
    CreatedAt         time.Time         // users.created_at
    UpdatedAt         time.Time         // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64     // refresh_tokens.id
    UserID    uint64     // refresh_tokens.user_id
    TokenHash string     // refresh_tokens.token_hash
    ExpiresAt time.Time  // refresh_tokens.expires_at
    RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
    CreatedAt time.Time  // refresh_tokens.created_at
}
