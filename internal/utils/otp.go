package utils

import (
    "crypto/rand"
    "fmt"
    "math/big"
    "time"

    "github.com/google/uuid"
)

// GenerateOTP returns a random numeric code of the given length.  The
// digits come from crypto/rand; leading zeros are allowed.
func GenerateOTP(length int) (string, error) {
    if length <= 0 {
        return "", fmt.Errorf("invalid otp length %d", length)
    }
    code := make([]byte, length)
    for i := range code {
        n, err := rand.Int(rand.Reader, big.NewInt(10))
        if err != nil {
            return "", err
        }
        code[i] = byte('0' + n.Int64())
    }
    return string(code), nil
}

// NewReferenceID returns an opaque correlation token for an OTP
// generation request.  Clients echo it back on verification.
func NewReferenceID() string {
    return uuid.NewString()
}

// OTPExpiration computes the expiry instant for a code generated now.
func OTPExpiration(minutes int) time.Time {
    return time.Now().UTC().Add(time.Duration(minutes) * time.Minute)
}

// FormatOTPMessage builds the SMS body for a verification code.
func FormatOTPMessage(code string, expiryMinutes int) string {
    return fmt.Sprintf("Your verification code is: %s. Valid for %d minutes.", code, expiryMinutes)
}
