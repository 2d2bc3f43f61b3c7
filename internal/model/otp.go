package model

import "time"

// OTP is a short-lived verification code issued for a phone number.
// The plain code is never stored; only its bcrypt hash.  A row is
// single-use: once IsVerified is set it can never validate again, and
// expiry is checked lazily at verify time rather than swept by a
// background job.
//
// Fields:
//  ID             – uuid primary key.
//  PhoneNumber    – phone the code was sent to.
//  HashedOTP      – bcrypt digest of the code.
//  ReferenceID    – opaque correlation token returned to the caller.
//  ExpirationTime – when the code stops being accepted.
//  AttemptCount   – verification attempts consumed so far.
//  IsVerified     – set on successful verification; blocks reuse.
type OTP struct {
    ID             string    // otps.id (uuid)
    PhoneNumber    string    // otps.phone_number
    HashedOTP      string    // otps.hashed_otp
    ReferenceID    string    // otps.reference_id (unique)
    ExpirationTime time.Time // otps.expiration_time
    AttemptCount   int       // otps.attempt_count
    IsVerified     bool      // otps.is_verified
    CreatedAt      time.Time // otps.created_at
    UpdatedAt      time.Time // otps.updated_at
}
