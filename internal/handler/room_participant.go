package handler

import (
    "context"
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/gatherly/gatherly-backend/internal/middleware"
    "github.com/gatherly/gatherly-backend/internal/model"
    "github.com/gatherly/gatherly-backend/internal/queue"
    "github.com/gatherly/gatherly-backend/internal/repository"
    "github.com/gatherly/gatherly-backend/internal/service/queue_publisher"
)

// ParticipantHandler bundles dependencies for room membership endpoints.
type ParticipantHandler struct {
    Rooms        *repository.RoomRepo
    Participants *repository.ParticipantRepo
    Users        *repository.UserRepo
}

func NewParticipantHandler(r *repository.RoomRepo, p *repository.ParticipantRepo, u *repository.UserRepo) *ParticipantHandler {
    return &ParticipantHandler{Rooms: r, Participants: p, Users: u}
}

// ----- DTOs -----

type setStatusReq struct {
    Status string `json:"status"`
}
type bulkStatusReq struct {
    UserIDs []uint64 `json:"user_ids"`
    Status  string   `json:"status"`
}
type inviteReq struct {
    UserIDs []uint64 `json:"user_ids"`
}
type respondReq struct {
    Accept bool `json:"accept"`
}

type participantPart struct {
    UserID       uint64    `json:"user_id"`
    IsAdmin      bool      `json:"is_admin"`
    Status       string    `json:"status"`
    JoinedAt     time.Time `json:"joined_at"`
    LastActiveAt time.Time `json:"last_active_at"`
}

func toParticipantPart(p model.RoomParticipant) participantPart {
    return participantPart{
        UserID:       p.UserID,
        IsAdmin:      p.IsAdmin,
        Status:       string(p.Status),
        JoinedAt:     p.JoinedAt,
        LastActiveAt: p.LastActiveAt,
    }
}

// joinStatus is the admission state a self-service join receives.
// Only a public auto-approve room admits immediately; private rooms
// always queue the caller as pending for an admin to review.
func joinStatus(rm model.Room) model.ParticipantStatus {
    if rm.Privacy == model.RoomPrivacyPublic && rm.AutoApprove {
        return model.ParticipantApproved
    }
    return model.ParticipantPending
}

// membershipGate returns a conflict message when the room cannot take
// new membership right now.  Shared by Join and Invite.
func membershipGate(rm model.Room, now time.Time) string {
    if rm.IsArchived {
        return "room is archived"
    }
    if !rm.IsActive(now) {
        return "room is not active"
    }
    return ""
}

// Join: request membership in a room.  Preconditions run in a fixed
// order: the room must exist, not be archived, be active right now;
// if a cap is set the approved count must be under it; the caller must
// not already hold a membership row.  The capacity check and the
// insert share one transaction so two concurrent joins cannot both
// take the last open slot.
func (h *ParticipantHandler) Join(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    rm, err := h.Rooms.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }

    now := time.Now().UTC()
    if msg := membershipGate(rm, now); msg != "" {
        return c.JSON(http.StatusConflict, echo.Map{"error": msg})
    }
    status := joinStatus(rm)

    tx, err := h.Rooms.DB.BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "join failed"})
    }
    defer func() { _ = tx.Rollback() }()

    if rm.MaxParticipants != nil {
        n, err := h.Participants.CountApprovedTx(ctx, tx, rm.ID)
        if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "capacity check failed"})
        }
        if n >= *rm.MaxParticipants {
            return c.JSON(http.StatusConflict, echo.Map{"error": "room is full"})
        }
    }

    switch existing, err := h.Participants.GetTx(ctx, tx, rm.ID, uid); {
    case err == nil:
        switch existing.Status {
        case model.ParticipantBanned:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "you are banned from this room"})
        case model.ParticipantRejected:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "your request was rejected"})
        case model.ParticipantPending:
            return c.JSON(http.StatusConflict, echo.Map{"error": "join request already pending"})
        default:
            return c.JSON(http.StatusConflict, echo.Map{"error": "already a member"})
        }
    case err != repository.ErrNotFound:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership lookup failed"})
    }

    if _, err := h.Participants.CreateTx(ctx, tx, rm.ID, uid, status, false); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "join failed"})
    }
    if err := h.Rooms.TouchActivityTx(ctx, tx, rm.ID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "join failed"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "join failed"})
    }

    if status == model.ParticipantApproved {
        go func(ev queue.RoomActivityEvent) {
            ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
            defer cancel()
            _ = queue_publisher.PublishRoomActivity(ctx, ev)
        }(queue.RoomActivityEvent{
            RoomID:     rm.ID,
            RoomName:   rm.Name,
            OwnerID:    rm.OwnerID,
            ActorID:    uid,
            Action:     queue.ActionMemberJoined,
            OccurredAt: now.Format(time.RFC3339),
        })
    }

    return c.JSON(http.StatusCreated, echo.Map{"status": string(status)})
}

// List: the membership roster, visible to members and the owner.
func (h *ParticipantHandler) List(c echo.Context) error {
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
        if _, err := h.Participants.Get(ctx, rm.ID, uid); err == repository.ErrNotFound {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "members only"})
        } else if err != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership lookup failed"})
        }
        _ = h.Participants.TouchLastActive(ctx, rm.ID, uid)
    }

    members, err := h.Participants.ListByRoom(ctx, rm.ID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load members failed"})
    }
    out := make([]participantPart, 0, len(members))
    for _, m := range members {
        out = append(out, toParticipantPart(m))
    }
    return c.JSON(http.StatusOK, echo.Map{"participants": out, "total": len(out)})
}

// SetStatus: an admin moves one member to a new admission state.  The
// owner's row is immutable through this endpoint.
func (h *ParticipantHandler) SetStatus(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req setStatusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := model.ParticipantStatus(req.Status)
    if !status.Valid() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }
    targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
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
    if err := h.requireAdmin(ctx, rm, uid); err != nil {
        return respondAdminErr(c, err)
    }
    if targetID == rm.OwnerID {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "the owner's membership cannot be changed"})
    }

    if err := h.Participants.SetStatus(ctx, rm.ID, targetID, status); err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "participant not found"})
    } else if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update participant failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"user_id": targetID, "status": string(status)})
}

// BulkSetStatus: an admin moves many members in one statement.  Users
// without a membership row, and the owner, are skipped silently.
func (h *ParticipantHandler) BulkSetStatus(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req bulkStatusReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := model.ParticipantStatus(req.Status)
    if !status.Valid() {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
    }
    if len(req.UserIDs) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_ids required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    rm, err := h.Rooms.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    if err := h.requireAdmin(ctx, rm, uid); err != nil {
        return respondAdminErr(c, err)
    }

    targets := make([]uint64, 0, len(req.UserIDs))
    for _, id := range req.UserIDs {
        if id != rm.OwnerID {
            targets = append(targets, id)
        }
    }
    n, err := h.Participants.BulkSetStatus(ctx, rm.ID, targets, status)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "bulk update failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"updated": n, "status": string(status)})
}

// inviteOutcome classifies what an invite does to one target user.
type inviteOutcome int

const (
    inviteCreate inviteOutcome = iota
    inviteReinstate
    inviteSkip
)

// inviteDecision: targets without a membership row get a fresh pending
// row, previously rejected targets are flipped back to pending, and
// approved, pending or banned targets are left alone.
func inviteDecision(status model.ParticipantStatus, hasRow bool) inviteOutcome {
    if !hasRow {
        return inviteCreate
    }
    if status == model.ParticipantRejected {
        return inviteReinstate
    }
    return inviteSkip
}

// Invite: an admin creates pending memberships for a list of users in
// an active room.  Unknown users and already approved, pending or
// banned targets are skipped silently so one bad id cannot sink a
// batch; rejected targets become pending again.
func (h *ParticipantHandler) Invite(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req inviteReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if len(req.UserIDs) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_ids required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
    defer cancel()

    rm, err := h.Rooms.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    now := time.Now().UTC()
    if msg := membershipGate(rm, now); msg != "" {
        return c.JSON(http.StatusConflict, echo.Map{"error": msg})
    }
    if err := h.requireAdmin(ctx, rm, uid); err != nil {
        return respondAdminErr(c, err)
    }

    known, err := h.Users.GetByIDs(ctx, req.UserIDs)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load users failed"})
    }

    invited := 0
    skipped := 0
    for _, id := range req.UserIDs {
        if _, ok := known[id]; !ok {
            skipped++
            continue
        }
        existing, err := h.Participants.Get(ctx, rm.ID, id)
        if err != nil && err != repository.ErrNotFound {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership lookup failed"})
        }
        switch inviteDecision(existing.Status, err == nil) {
        case inviteCreate:
            if _, err := h.Participants.Create(ctx, rm.ID, id, model.ParticipantPending, false); err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invite failed"})
            }
            invited++
        case inviteReinstate:
            if err := h.Participants.SetStatus(ctx, rm.ID, id, model.ParticipantPending); err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "invite failed"})
            }
            invited++
        default:
            skipped++
        }
    }

    if invited > 0 {
        go func(ev queue.RoomActivityEvent) {
            ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
            defer cancel()
            _ = queue_publisher.PublishRoomActivity(ctx, ev)
        }(queue.RoomActivityEvent{
            RoomID:     rm.ID,
            RoomName:   rm.Name,
            OwnerID:    rm.OwnerID,
            ActorID:    uid,
            Action:     queue.ActionInvitesSent,
            Detail:     fmt.Sprintf("%d invited", invited),
            OccurredAt: now.Format(time.RFC3339),
        })
    }

    return c.JSON(http.StatusOK, echo.Map{"invited": invited, "skipped": skipped})
}

// Respond: an invitee accepts or declines their own pending invite.
func (h *ParticipantHandler) Respond(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req respondReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    status := model.ParticipantRejected
    if req.Accept {
        status = model.ParticipantApproved
    }

    err := h.Participants.SetStatusIfPending(ctx, c.Param("id"), uid, status)
    switch err {
    case nil:
        return c.JSON(http.StatusOK, echo.Map{"status": string(status)})
    case repository.ErrNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no invite for this room"})
    case repository.ErrConflict:
        return c.JSON(http.StatusConflict, echo.Map{"error": "invite is no longer pending"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "respond failed"})
    }
}

// requireAdmin checks that the user is the owner or an approved admin
// of the room.
func (h *ParticipantHandler) requireAdmin(ctx context.Context, rm model.Room, uid uint64) error {
    if rm.OwnerID == uid {
        return nil
    }
    p, err := h.Participants.Get(ctx, rm.ID, uid)
    if err == repository.ErrNotFound {
        return repository.ErrForbidden
    }
    if err != nil {
        return err
    }
    if !p.IsAdmin || p.Status != model.ParticipantApproved {
        return repository.ErrForbidden
    }
    return nil
}

func respondAdminErr(c echo.Context, err error) error {
    if err == repository.ErrForbidden {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "admin access required"})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "membership lookup failed"})
}
