package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/gatherly/gatherly-backend/internal/middleware"
    "github.com/gatherly/gatherly-backend/internal/repository"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
    Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler {
    return &UserHandler{Users: u}
}

type updateProfileReq struct {
    FirstName         *string `json:"first_name"`
    LastName          *string `json:"last_name"`
    Email             *string `json:"email"`
    ProfilePictureURL *string `json:"profile_picture_url"`
    DateOfBirth       *string `json:"date_of_birth"` // YYYY-MM-DD
}

// Me returns the caller's profile.
func (h *UserHandler) Me(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Users.GetByID(ctx, uid)
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}

// UpdateMe applies a partial profile update.  Changing the email drops
// its verified state until re-verified.
func (h *UserHandler) UpdateMe(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req updateProfileReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    upd := repository.UserProfileUpdate{
        FirstName:         req.FirstName,
        LastName:          req.LastName,
        ProfilePictureURL: req.ProfilePictureURL,
    }
    if req.Email != nil {
        email := strings.TrimSpace(*req.Email)
        if email == "" || !strings.Contains(email, "@") {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid email"})
        }
        upd.Email = &email
    }
    if req.DateOfBirth != nil {
        dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "date_of_birth must be YYYY-MM-DD"})
        }
        upd.DateOfBirth = &dob
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if upd.Email != nil {
        owner, err := h.Users.GetByEmail(ctx, *upd.Email)
        if err == nil && owner.ID != uid {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already in use"})
        }
        if err != nil && err != repository.ErrNotFound {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "email lookup failed"})
        }
    }

    u, err := h.Users.UpdateProfile(ctx, uid, upd)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update profile failed"})
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}
