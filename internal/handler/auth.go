package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/gatherly/gatherly-backend/internal/config"
    "github.com/gatherly/gatherly-backend/internal/middleware"
    "github.com/gatherly/gatherly-backend/internal/model"
    "github.com/gatherly/gatherly-backend/internal/repository"
    "github.com/gatherly/gatherly-backend/internal/sms"
    "github.com/gatherly/gatherly-backend/internal/utils"
)

// AuthHandler bundles dependencies for the phone OTP login endpoints.
type AuthHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
    OTPs   *repository.OTPRepo
    SMS    sms.Sender
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo, o *repository.OTPRepo, s sms.Sender) *AuthHandler {
    return &AuthHandler{Cfg: cfg, Users: u, Tokens: t, OTPs: o, SMS: s}
}

// ----- DTOs -----

type generateOTPReq struct {
    PhoneNumber string `json:"phone_number"`
}
type generateOTPResp struct {
    ReferenceID string    `json:"reference_id"`
    ExpiresAt   time.Time `json:"expires_at"`
}
type verifyOTPReq struct {
    PhoneNumber string `json:"phone_number"`
    ReferenceID string `json:"reference_id"`
    OTP         string `json:"otp"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}
type logoutReq struct {
    RefreshToken string `json:"refresh_token"`
    Everywhere   bool   `json:"everywhere"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type userPart struct {
    ID                uint64     `json:"id"`
    Phone             string     `json:"phone"`
    Email             *string    `json:"email"`
    FirstName         string     `json:"first_name"`
    LastName          string     `json:"last_name"`
    ProfilePictureURL *string    `json:"profile_picture_url"`
    DateOfBirth       *time.Time `json:"date_of_birth"`
    PhoneVerified     string     `json:"phone_verified"`
    EmailVerified     string     `json:"email_verified"`
    AccountStatus     string     `json:"account_status"`
}
type authResp struct {
    User    userPart  `json:"user"`
    Access  tokenPart `json:"access"`
    Refresh tokenPart `json:"refresh"`
}

func toUserPart(u model.User) userPart {
    return userPart{
        ID:                u.ID,
        Phone:             u.Phone,
        Email:             u.Email,
        FirstName:         u.FirstName,
        LastName:          u.LastName,
        ProfilePictureURL: u.ProfilePictureURL,
        DateOfBirth:       u.DateOfBirth,
        PhoneVerified:     string(u.PhoneVerified),
        EmailVerified:     string(u.EmailVerified),
        AccountStatus:     string(u.AccountStatus),
    }
}

// GenerateOTP: issue a one-time code and deliver it over SMS.  Only the
// opaque reference id and expiry go back to the client; a second code
// is refused while one is still outstanding for the phone.
func (h *AuthHandler) GenerateOTP(c echo.Context) error {
    var req generateOTPReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    phone := strings.TrimSpace(req.PhoneNumber)
    if phone == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone_number required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    if _, err := h.OTPs.GetActiveByPhone(ctx, phone); err == nil {
        return c.JSON(http.StatusConflict, echo.Map{"error": "an active code already exists for this phone"})
    } else if err != repository.ErrNotFound {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "otp lookup failed"})
    }

    code, err := utils.GenerateOTP(h.Cfg.OTP.Length)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate code failed"})
    }
    hashed, err := utils.HashSecret(code, h.Cfg.BcryptCost)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash code failed"})
    }

    otp, err := h.OTPs.Create(ctx, phone, hashed, utils.NewReferenceID(), utils.OTPExpiration(h.Cfg.OTP.ExpiryMinutes))
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save code failed"})
    }

    // Delivery failure is terminal for this request.  The stored row
    // stays active, so retries are governed by the active-OTP rule
    // until the code expires.
    if _, err := h.SMS.Send(ctx, phone, utils.FormatOTPMessage(code, h.Cfg.OTP.ExpiryMinutes)); err != nil {
        c.Logger().Errorf("otp sms delivery failed for ref=%s: %v", otp.ReferenceID, err)
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "sms delivery failed"})
    }

    return c.JSON(http.StatusOK, generateOTPResp{
        ReferenceID: otp.ReferenceID,
        ExpiresAt:   otp.ExpirationTime,
    })
}

// VerifyOTP: check a submitted code against its reference.  On success
// the phone's user row is created if needed and a token pair is issued.
// Checks run in a fixed order: reference exists, phone matches, not
// already consumed, not expired, attempts remain, code matches.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
    var req verifyOTPReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    phone := strings.TrimSpace(req.PhoneNumber)
    if phone == "" || req.ReferenceID == "" || req.OTP == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone_number, reference_id and otp required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    otp, err := h.OTPs.GetByReference(ctx, req.ReferenceID)
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "unknown reference"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "otp lookup failed"})
    }
    if otp.PhoneNumber != phone {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone does not match reference"})
    }
    if otp.IsVerified {
        return c.JSON(http.StatusConflict, echo.Map{"error": "code already used"})
    }
    if time.Now().UTC().After(otp.ExpirationTime) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "code expired"})
    }
    if otp.AttemptCount >= h.Cfg.OTP.MaxAttempts {
        return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many attempts"})
    }

    // The attempt is consumed before comparing so a crash between the
    // two steps can never grant a free retry.
    if err := h.OTPs.IncrementAttempts(ctx, otp.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record attempt failed"})
    }
    if !utils.VerifySecret(otp.HashedOTP, req.OTP) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid code"})
    }
    if err := h.OTPs.MarkVerified(ctx, otp.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "consume code failed"})
    }

    u, err := h.Users.GetOrCreateByPhone(ctx, phone)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }

    return h.issueTokens(c, ctx, u, http.StatusOK)
}

// Refresh: exchange a valid refresh token for a new pair.  The old
// token is revoked, so each refresh token is single-use.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    hash := utils.HashRefreshRaw(req.RefreshToken)
    uid, err := h.Tokens.ValidateRefresh(ctx, hash)
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "validate refresh failed"})
    }
    if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rotate refresh failed"})
    }

    u, err := h.Users.GetByID(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return h.issueTokens(c, ctx, u, http.StatusOK)
}

// Logout: revoke the presented refresh token, or every session of the
// authenticated user when everywhere=true.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req logoutReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if req.Everywhere {
        uid, ok := middleware.UserID(c)
        if !ok {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
        }
        if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
        }
        return c.NoContent(http.StatusNoContent)
    }

    if req.RefreshToken == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(req.RefreshToken)); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) issueTokens(c echo.Context, ctx context.Context, u model.User, status int) error {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue refresh failed"})
    }
    if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save refresh failed"})
    }

    return c.JSON(status, authResp{
        User:    toUserPart(u),
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
    })
}
