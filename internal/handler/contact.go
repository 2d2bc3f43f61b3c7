package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/gatherly/gatherly-backend/internal/middleware"
    "github.com/gatherly/gatherly-backend/internal/repository"
    "github.com/gatherly/gatherly-backend/internal/service/contact_matcher"
)

// Contact sync works in bounded batches: the registered-user index is
// built by paging the users table, and registry writes land in chunks
// that each commit their own transaction.
const (
    contactChunkSize = 100
    userBatchSize    = 500
)

// ContactHandler bundles dependencies for address-book sync.
type ContactHandler struct {
    Contacts *repository.ContactRepo
    Users    *repository.UserRepo
}

func NewContactHandler(cr *repository.ContactRepo, u *repository.UserRepo) *ContactHandler {
    return &ContactHandler{Contacts: cr, Users: u}
}

// ----- DTOs -----

type contactEntry struct {
    PhoneNumber string `json:"phone_number"`
    Name        string `json:"name"`
}
type syncReq struct {
    Contacts []contactEntry `json:"contacts"`
}

type userMatchInfo struct {
    ContactName       string  `json:"contact_name"`
    UserID            uint64  `json:"user_id"`
    FirstName         string  `json:"first_name"`
    ProfilePictureURL *string `json:"profile_picture"`
    MutualFriends     int     `json:"mutual_friends"`
    MatchedPhone      string  `json:"matched_phone"`
    InputPhone        string  `json:"input_phone"`
}
type syncResp struct {
    Synced  int             `json:"synced"`
    Matches []userMatchInfo `json:"matches"`
}

// Sync: upload the caller's address book, match entries against
// registered users and persist the result.  Matching happens in memory
// against a freshly built phone index; each chunk of registry rows
// commits separately so a mid-sync failure keeps earlier chunks.
func (h *ContactHandler) Sync(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }
    var req syncReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if len(req.Contacts) == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "contacts required"})
    }

    // A large address book takes a while; give the whole sync a
    // generous deadline rather than one per chunk.
    ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
    defer cancel()

    index, err := h.buildIndex(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "build index failed"})
    }

    // Dedupe by raw phone, last entry wins, preserving first-seen order.
    order := make([]string, 0, len(req.Contacts))
    byPhone := make(map[string]contactEntry, len(req.Contacts))
    for _, entry := range req.Contacts {
        phone := strings.TrimSpace(entry.PhoneNumber)
        if phone == "" {
            continue
        }
        if _, seen := byPhone[phone]; !seen {
            order = append(order, phone)
        }
        entry.PhoneNumber = phone
        byPhone[phone] = entry
    }

    var (
        chunk   []repository.ContactUpsert
        matches []userMatchInfo
        synced  int
    )
    flush := func() error {
        if len(chunk) == 0 {
            return nil
        }
        if err := h.Contacts.UpsertChunk(ctx, uid, chunk); err != nil {
            return err
        }
        synced += len(chunk)
        chunk = chunk[:0]
        return nil
    }

    for _, phone := range order {
        entry := byPhone[phone]
        up := repository.ContactUpsert{
            PhoneNumber: entry.PhoneNumber,
            ContactName: strings.TrimSpace(entry.Name),
        }
        if u, ok := index.Match(entry.PhoneNumber); ok && u.ID != uid {
            id := u.ID
            up.RegisteredUserID = &id
            matches = append(matches, userMatchInfo{
                ContactName:       up.ContactName,
                UserID:            u.ID,
                FirstName:         u.FirstName,
                ProfilePictureURL: u.ProfilePictureURL,
                MatchedPhone:      u.Phone,
                InputPhone:        entry.PhoneNumber,
            })
        }
        chunk = append(chunk, up)
        if len(chunk) >= contactChunkSize {
            if err := flush(); err != nil {
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save contacts failed"})
            }
        }
    }
    if err := flush(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save contacts failed"})
    }

    if err := h.fillMutualCounts(ctx, uid, matches); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mutual counts failed"})
    }

    return c.JSON(http.StatusOK, syncResp{Synced: synced, Matches: matches})
}

// buildIndex pages through every registered user with a phone and
// indexes them by normalized phone variants.
func (h *ContactHandler) buildIndex(ctx context.Context) (contact_matcher.Index, error) {
    index := contact_matcher.NewIndex()
    var afterID uint64
    for {
        users, err := h.Users.ListWithPhone(ctx, afterID, userBatchSize)
        if err != nil {
            return nil, err
        }
        for _, u := range users {
            index.Add(u)
        }
        if len(users) < userBatchSize {
            return index, nil
        }
        afterID = users[len(users)-1].ID
    }
}

// fillMutualCounts computes, for each match, how many registered users
// both address books resolve to.  The caller's set reflects the rows
// just written.
func (h *ContactHandler) fillMutualCounts(ctx context.Context, uid uint64, matches []userMatchInfo) error {
    if len(matches) == 0 {
        return nil
    }
    owners := make([]uint64, 0, len(matches)+1)
    owners = append(owners, uid)
    for _, m := range matches {
        owners = append(owners, m.UserID)
    }
    rows, err := h.Contacts.ResolvedByOwners(ctx, owners)
    if err != nil {
        return err
    }
    sets := contact_matcher.GroupResolved(rows)
    mine := sets[uid]
    for i := range matches {
        matches[i].MutualFriends = contact_matcher.MutualCount(mine, sets[matches[i].UserID])
    }
    return nil
}
