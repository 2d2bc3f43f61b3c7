package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/gatherly/gatherly-backend/internal/middleware"
    "github.com/gatherly/gatherly-backend/internal/model"
    "github.com/gatherly/gatherly-backend/internal/queue"
    "github.com/gatherly/gatherly-backend/internal/repository"
    "github.com/gatherly/gatherly-backend/internal/service/queue_publisher"
)

// RoomHandler bundles dependencies for room lifecycle endpoints.
type RoomHandler struct {
    Rooms        *repository.RoomRepo
    Participants *repository.ParticipantRepo
    Users        *repository.UserRepo
}

func NewRoomHandler(r *repository.RoomRepo, p *repository.ParticipantRepo, u *repository.UserRepo) *RoomHandler {
    return &RoomHandler{Rooms: r, Participants: p, Users: u}
}

// ----- DTOs -----

type createRoomReq struct {
    Name              string            `json:"name"`
    Description       string            `json:"description"`
    RoomType          string            `json:"room_type"`
    Privacy           string            `json:"privacy_type"`
    CelebrantID       *uint64           `json:"celebrant_id"`
    ActivationTime    time.Time         `json:"activation_time"`
    ExpirationTime    time.Time         `json:"expiration_time"`
    MaxParticipants   *int              `json:"max_participants"`
    AutoApprove       bool              `json:"auto_approve"`
    CelebrantBirthday *string           `json:"celebrant_birthday"` // YYYY-MM-DD
    Metadata          map[string]string `json:"metadata"`
}

type updateRoomReq struct {
    Name            *string `json:"name"`
    Description     *string `json:"description"`
    Privacy         *string `json:"privacy_type"`
    MaxParticipants *int    `json:"max_participants"`
    AutoApprove     *bool   `json:"auto_approve"`
}

type archiveRoomReq struct {
    Archived *bool `json:"archived"`
}

type roomPart struct {
    ID                string            `json:"id"`
    OwnerID           uint64            `json:"owner_id"`
    CelebrantID       *uint64           `json:"celebrant_id"`
    Name              string            `json:"name"`
    Description       string            `json:"description"`
    RoomType          string            `json:"room_type"`
    Privacy           string            `json:"privacy_type"`
    Status            string            `json:"status"`
    IsArchived        bool              `json:"is_archived"`
    ActivationTime    time.Time         `json:"activation_time"`
    ExpirationTime    time.Time         `json:"expiration_time"`
    MaxParticipants   *int              `json:"max_participants"`
    AutoApprove       bool              `json:"auto_approve"`
    CelebrantBirthday *time.Time        `json:"celebrant_birthday"`
    Metadata          map[string]string `json:"metadata,omitempty"`
    LastActivity      time.Time         `json:"last_activity"`
    CreatedAt         time.Time         `json:"created_at"`
}

func toRoomPart(r model.Room, now time.Time) roomPart {
    return roomPart{
        ID:                r.ID,
        OwnerID:           r.OwnerID,
        CelebrantID:       r.CelebrantID,
        Name:              r.Name,
        Description:       r.Description,
        RoomType:          string(r.Type),
        Privacy:           string(r.Privacy),
        Status:            string(r.EffectiveStatus(now)),
        IsArchived:        r.IsArchived,
        ActivationTime:    r.ActivationTime,
        ExpirationTime:    r.ExpirationTime,
        MaxParticipants:   r.MaxParticipants,
        AutoApprove:       r.AutoApprove,
        CelebrantBirthday: r.CelebrantBirthday,
        Metadata:          r.Metadata,
        LastActivity:      r.LastActivity,
        CreatedAt:         r.CreatedAt,
    }
}

// Create: validate and persist a new room in PENDING status.  The
// owner becomes an approved admin participant in the same transaction.
// A self-celebrant room is forced public and unique per owner; any room
// is refused when the owner already has one for the same celebrant with
// an overlapping time window.
func (h *RoomHandler) Create(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req createRoomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
    }
    roomType := model.RoomType(strings.ToLower(req.RoomType))
    if !roomType.Valid() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_type"})
    }
    privacy := model.RoomPrivacy(strings.ToLower(req.Privacy))
    if req.Privacy == "" {
        privacy = model.RoomPrivacyPublic
    }
    if !privacy.Valid() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid privacy_type"})
    }
    now := time.Now().UTC()
    // Omitted times default to a window opening now and closing in 180
    // days.
    if req.ActivationTime.IsZero() {
        req.ActivationTime = now
    }
    if req.ExpirationTime.IsZero() {
        req.ExpirationTime = req.ActivationTime.Add(180 * 24 * time.Hour)
    }
    if !req.ExpirationTime.After(req.ActivationTime) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "expiration_time must be after activation_time"})
    }
    if !req.ExpirationTime.After(now) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "expiration_time must be in the future"})
    }
    if req.MaxParticipants != nil && *req.MaxParticipants < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_participants must be positive"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    var birthday *time.Time
    selfCelebrant := req.CelebrantID != nil && *req.CelebrantID == uid
    if req.CelebrantID != nil {
        celebrant, err := h.Users.GetByID(ctx, *req.CelebrantID)
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "celebrant not found"})
        }
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load celebrant failed"})
        }
        // The celebrant's stored birth date fills in when the request
        // doesn't carry one.
        birthday = celebrant.DateOfBirth
    }
    if req.CelebrantBirthday != nil {
        d, err := time.Parse("2006-01-02", *req.CelebrantBirthday)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "celebrant_birthday must be YYYY-MM-DD"})
        }
        birthday = &d
    }

    if selfCelebrant {
        privacy = model.RoomPrivacyPublic
        exists, err := h.Rooms.HasSelfCelebrantRoom(ctx, uid)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "room lookup failed"})
        }
        if exists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "you already have a room celebrating yourself"})
        }
    }

    overlap, err := h.Rooms.HasOverlapping(ctx, uid, req.CelebrantID, req.ActivationTime, req.ExpirationTime)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "overlap check failed"})
    }
    if overlap {
        return c.JSON(http.StatusConflict, echo.Map{"error": "an overlapping room already exists for this celebrant"})
    }

    rm := model.Room{
        OwnerID:           uid,
        CelebrantID:       req.CelebrantID,
        Name:              req.Name,
        Description:       strings.TrimSpace(req.Description),
        Type:              roomType,
        Privacy:           privacy,
        ActivationTime:    req.ActivationTime.UTC(),
        ExpirationTime:    req.ExpirationTime.UTC(),
        MaxParticipants:   req.MaxParticipants,
        AutoApprove:       req.AutoApprove,
        CelebrantBirthday: birthday,
        Metadata:          req.Metadata,
    }
    if err := h.Rooms.Create(ctx, &rm); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
    }

    created, err := h.Rooms.GetByID(ctx, rm.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    return c.JSON(http.StatusCreated, toRoomPart(created, now))
}

// Get: fetch one room.  Private rooms are visible only to their
// members and owner.
func (h *RoomHandler) Get(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rm, err := h.Rooms.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }

    _, err = h.Participants.Get(ctx, rm.ID, uid)
    switch {
    case err == nil:
        // A member viewing the room counts as presence.
        _ = h.Participants.TouchLastActive(ctx, rm.ID, uid)
    case err != repository.ErrNotFound:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership lookup failed"})
    case rm.Privacy == model.RoomPrivacyPrivate && rm.OwnerID != uid:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "room is private"})
    }
    return c.JSON(http.StatusOK, toRoomPart(rm, time.Now().UTC()))
}

// Update: apply owner-editable settings.
func (h *RoomHandler) Update(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req updateRoomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rm, err := h.Rooms.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    if rm.OwnerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the owner may update the room"})
    }

    upd := repository.RoomSettingsUpdate{
        Name:            req.Name,
        Description:     req.Description,
        MaxParticipants: req.MaxParticipants,
        AutoApprove:     req.AutoApprove,
    }
    if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name cannot be empty"})
    }
    if req.MaxParticipants != nil && *req.MaxParticipants < 1 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_participants must be positive"})
    }
    if req.Privacy != nil {
        privacy := model.RoomPrivacy(strings.ToLower(*req.Privacy))
        if !privacy.Valid() {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid privacy_type"})
        }
        // A self-celebrant room must stay public.
        if rm.CelebrantID != nil && *rm.CelebrantID == rm.OwnerID && privacy != model.RoomPrivacyPublic {
            return c.JSON(http.StatusConflict, echo.Map{"error": "a room celebrating its owner must stay public"})
        }
        upd.Privacy = &privacy
    }

    updated, err := h.Rooms.UpdateSettings(ctx, rm.ID, upd)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
    }
    return c.JSON(http.StatusOK, toRoomPart(updated, time.Now().UTC()))
}

// activateConflict returns a conflict message when the room cannot be
// activated.  An expired window does not block activation; IsActive
// still gates actual use of the room by current time.
func activateConflict(rm model.Room) string {
    if rm.IsArchived {
        return "room is archived"
    }
    return ""
}

// Activate: owner-only transition from PENDING to ACTIVE.  Activating
// an already active room succeeds without change; an archived room
// cannot be activated.  The activation and expiration timestamps are
// not consulted here.
func (h *RoomHandler) Activate(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rm, err := h.Rooms.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    if rm.OwnerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the owner may activate the room"})
    }
    now := time.Now().UTC()
    if msg := activateConflict(rm); msg != "" {
        return c.JSON(http.StatusConflict, echo.Map{"error": msg})
    }
    if rm.Status == model.RoomStatusActive {
        return c.JSON(http.StatusOK, toRoomPart(rm, now)) // idempotent
    }

    if err := h.Rooms.SetStatus(ctx, rm.ID, model.RoomStatusActive); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "activate room failed"})
    }
    rm.Status = model.RoomStatusActive

    // Fire-and-forget; a broker outage must not fail the activation.
    go func(ev queue.RoomActivityEvent) {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        _ = queue_publisher.PublishRoomActivity(ctx, ev)
    }(queue.RoomActivityEvent{
        RoomID:     rm.ID,
        RoomName:   rm.Name,
        OwnerID:    rm.OwnerID,
        ActorID:    uid,
        Action:     queue.ActionRoomActivated,
        OccurredAt: now.Format(time.RFC3339),
    })

    return c.JSON(http.StatusOK, toRoomPart(rm, now))
}

// Archive: owner-only soft archive (or unarchive with archived=false).
func (h *RoomHandler) Archive(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req archiveRoomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    archived := true
    if req.Archived != nil {
        archived = *req.Archived
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rm, err := h.Rooms.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    if rm.OwnerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the owner may archive the room"})
    }

    if rm.IsArchived != archived {
        if err := h.Rooms.SetArchived(ctx, rm.ID, archived); err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "archive room failed"})
        }
        rm.IsArchived = archived
    }
    return c.JSON(http.StatusOK, toRoomPart(rm, time.Now().UTC()))
}

// Delete: owner-only hard delete, cascading to participants.
func (h *RoomHandler) Delete(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rm, err := h.Rooms.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    if rm.OwnerID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the owner may delete the room"})
    }

    if err := h.Rooms.Delete(ctx, rm.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Stats: participant counts, visible to the owner and room admins.
func (h *RoomHandler) Stats(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rm, err := h.Rooms.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    if rm.OwnerID != uid {
        p, err := h.Participants.Get(ctx, rm.ID, uid)
        if err == repository.ErrNotFound || (err == nil && !p.IsAdmin) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
        }
        if err != nil && err != repository.ErrNotFound {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership lookup failed"})
        }
    }

    st, err := h.Rooms.Stats(ctx, rm.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load stats failed"})
    }
    return c.JSON(http.StatusOK, st)
}
