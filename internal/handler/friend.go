package handler

import (
    "context"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/gatherly/gatherly-backend/internal/middleware"
    "github.com/gatherly/gatherly-backend/internal/model"
    "github.com/gatherly/gatherly-backend/internal/repository"
)

// FriendHandler bundles dependencies for the relationship endpoints.
type FriendHandler struct {
    Friends *repository.FriendRepo
    Users   *repository.UserRepo
}

func NewFriendHandler(f *repository.FriendRepo, u *repository.UserRepo) *FriendHandler {
    return &FriendHandler{Friends: f, Users: u}
}

// ----- DTOs -----

type sendRequestReq struct {
    ReceiverID uint64 `json:"receiver_id"`
}
type respondRequestReq struct {
    Accept bool `json:"accept"`
}
type blockReq struct {
    UserID uint64 `json:"user_id"`
}

type friendRequestPart struct {
    ID          string    `json:"id"`
    RequesterID uint64    `json:"requester_id"`
    ReceiverID  uint64    `json:"receiver_id"`
    Status      string    `json:"status"`
    CreatedAt   time.Time `json:"created_at"`
}

func toFriendRequestPart(fr model.FriendRequest) friendRequestPart {
    return friendRequestPart{
        ID:          fr.ID,
        RequesterID: fr.RequesterID,
        ReceiverID:  fr.ReceiverID,
        Status:      string(fr.Status),
        CreatedAt:   fr.CreatedAt,
    }
}

type friendPart struct {
    UserID            uint64  `json:"user_id"`
    FirstName         string  `json:"first_name"`
    LastName          string  `json:"last_name"`
    ProfilePictureURL *string `json:"profile_picture_url"`
    DefaultRoomID     *string `json:"default_room_id"`
}

// SendRequest: open a pending friend request toward another user.
// Refused when either side has blocked the other, when the pair is
// already linked, or when a pending request already exists in either
// direction.
func (h *FriendHandler) SendRequest(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req sendRequestReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.ReceiverID == 0 || req.ReceiverID == uid {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid receiver_id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    exists, err := h.Users.Exists(ctx, req.ReceiverID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user lookup failed"})
    }
    if !exists {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
    }

    blocked, err := h.Friends.IsBlocked(ctx, uid, req.ReceiverID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block lookup failed"})
    }
    if blocked {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot send a request to this user"})
    }

    friends, err := h.Friends.AreFriends(ctx, uid, req.ReceiverID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "friendship lookup failed"})
    }
    if friends {
        return c.JSON(http.StatusConflict, echo.Map{"error": "already friends"})
    }

    pending, err := h.Friends.HasPendingBetween(ctx, uid, req.ReceiverID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "request lookup failed"})
    }
    if pending {
        return c.JSON(http.StatusConflict, echo.Map{"error": "a request is already pending"})
    }

    fr, err := h.Friends.Create(ctx, uid, req.ReceiverID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create request failed"})
    }
    return c.JSON(http.StatusCreated, toFriendRequestPart(fr))
}

// ListIncoming: pending requests addressed to the caller.
func (h *FriendHandler) ListIncoming(c echo.Context) error {
    return h.listRequests(c, h.Friends.ListIncoming)
}

// ListOutgoing: pending requests sent by the caller.
func (h *FriendHandler) ListOutgoing(c echo.Context) error {
    return h.listRequests(c, h.Friends.ListOutgoing)
}

func (h *FriendHandler) listRequests(c echo.Context, fetch func(context.Context, uint64) ([]model.FriendRequest, error)) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    reqs, err := fetch(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load requests failed"})
    }
    out := make([]friendRequestPart, 0, len(reqs))
    for _, fr := range reqs {
        out = append(out, toFriendRequestPart(fr))
    }
    return c.JSON(http.StatusOK, echo.Map{"requests": out, "total": len(out)})
}

// Respond: the receiver accepts or declines a pending request.
func (h *FriendHandler) Respond(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req respondRequestReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    fr, err := h.Friends.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load request failed"})
    }
    if fr.ReceiverID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the receiver may respond"})
    }
    if fr.Status != model.FriendRequestPending {
        return c.JSON(http.StatusConflict, echo.Map{"error": "request is no longer pending"})
    }

    status := model.FriendRequestDeclined
    if req.Accept {
        status = model.FriendRequestAccepted
    }
    if err := h.Friends.SetStatus(ctx, fr.ID, status); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update request failed"})
    }
    fr.Status = status
    return c.JSON(http.StatusOK, toFriendRequestPart(fr))
}

// Cancel: the requester withdraws their own pending request.
func (h *FriendHandler) Cancel(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    fr, err := h.Friends.GetByID(ctx, c.Param("id"))
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load request failed"})
    }
    if fr.RequesterID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only the requester may cancel"})
    }
    if fr.Status != model.FriendRequestPending {
        return c.JSON(http.StatusConflict, echo.Map{"error": "request is no longer pending"})
    }

    if err := h.Friends.SetStatus(ctx, fr.ID, model.FriendRequestCanceled); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel request failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// List: the caller's friends, each annotated with their default room
// (the friend's own public self-celebrant room) when one exists.
// Paginated with 1-indexed page/page_size query params.
func (h *FriendHandler) List(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    page, _ := strconv.Atoi(c.QueryParam("page"))
    if page < 1 {
        page = 1
    }
    pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
    if pageSize < 1 || pageSize > 100 {
        pageSize = 50
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    ids, err := h.Friends.FriendIDs(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load friends failed"})
    }
    total := len(ids)
    lo := (page - 1) * pageSize
    if lo > total {
        lo = total
    }
    hi := lo + pageSize
    if hi > total {
        hi = total
    }
    ids = ids[lo:hi]
    users, err := h.Users.GetByIDs(ctx, ids)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load users failed"})
    }
    roomByOwner, err := h.Friends.DefaultRoomIDs(ctx, ids)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load rooms failed"})
    }

    out := make([]friendPart, 0, len(ids))
    for _, id := range ids {
        u, ok := users[id]
        if !ok {
            continue
        }
        fp := friendPart{
            UserID:            u.ID,
            FirstName:         u.FirstName,
            LastName:          u.LastName,
            ProfilePictureURL: u.ProfilePictureURL,
        }
        if roomID, ok := roomByOwner[id]; ok {
            fp.DefaultRoomID = &roomID
        }
        out = append(out, fp)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "friends":   out,
        "total":     total,
        "page":      page,
        "page_size": pageSize,
    })
}

// Unfriend: dissolve an accepted friendship.
func (h *FriendHandler) Unfriend(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    err = h.Friends.EndFriendship(ctx, uid, otherID)
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "not friends"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unfriend failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Block: stop all contact with another user.  Any pending requests
// between the pair are declined as part of the block.
func (h *FriendHandler) Block(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req blockReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.UserID == 0 || req.UserID == uid {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    exists, err := h.Users.Exists(ctx, req.UserID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "user lookup failed"})
    }
    if !exists {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
    }

    if err := h.Friends.Block(ctx, uid, req.UserID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block failed"})
    }
    if err := h.Friends.DeclinePendingBetween(ctx, uid, req.UserID); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "block failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Unblock: lift a block the caller placed earlier.
func (h *FriendHandler) Unblock(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user_id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    err = h.Friends.Unblock(ctx, uid, otherID)
    if err == repository.ErrNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "no block to lift"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unblock failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
