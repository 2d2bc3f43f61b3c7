package utils

import "testing"

func TestGenerateOTP(t *testing.T) {
    for _, length := range []int{4, 6} {
        code, err := GenerateOTP(length)
        if err != nil {
            t.Fatalf("GenerateOTP(%d): %v", length, err)
        }
        if len(code) != length {
            t.Errorf("GenerateOTP(%d) length = %d", length, len(code))
        }
        for _, ch := range code {
            if ch < '0' || ch > '9' {
                t.Errorf("GenerateOTP(%d) produced non-digit %q in %q", length, ch, code)
            }
        }
    }
    if _, err := GenerateOTP(0); err == nil {
        t.Error("GenerateOTP(0) should fail")
    }
}

func TestFormatOTPMessage(t *testing.T) {
    got := FormatOTPMessage("1234", 5)
    want := "Your verification code is: 1234. Valid for 5 minutes."
    if got != want {
        t.Errorf("FormatOTPMessage = %q, want %q", got, want)
    }
}

func TestSecretRoundTrip(t *testing.T) {
    hash, err := HashSecret("4821", 4) // min cost keeps the test fast
    if err != nil {
        t.Fatalf("HashSecret: %v", err)
    }
    if !VerifySecret(hash, "4821") {
        t.Error("VerifySecret rejected the original secret")
    }
    if VerifySecret(hash, "4822") {
        t.Error("VerifySecret accepted a wrong secret")
    }
}
