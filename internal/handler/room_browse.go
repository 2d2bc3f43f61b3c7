package handler

import (
    "context"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/gatherly/gatherly-backend/internal/middleware"
    "github.com/gatherly/gatherly-backend/internal/model"
    "github.com/gatherly/gatherly-backend/internal/repository"
)

// BrowseHandler serves the filtered room listing.
type BrowseHandler struct {
    Rooms *repository.RoomRepo
}

func NewBrowseHandler(r *repository.RoomRepo) *BrowseHandler {
    return &BrowseHandler{Rooms: r}
}

type roomListResp struct {
    Rooms    []roomPart `json:"rooms"`
    Total    int        `json:"total"`
    Page     int        `json:"page"`
    PageSize int        `json:"page_size"`
    Pages    int        `json:"pages"`
}

// List: browse rooms with optional filters.  Archived rooms are hidden
// unless archived=true; status and room_type accept comma-separated
// sets; date filters match rooms whose window intersects the range.
func (h *BrowseHandler) List(c echo.Context) error {
    uid, ok := middleware.UserID(c)
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
    }

    q := repository.RoomSearchQuery{CallerID: uid}

    q.Archived = c.QueryParam("archived") == "true"
    q.MyRooms = c.QueryParam("my_rooms") == "true"
    q.FriendsOnly = c.QueryParam("friends_only") == "true"
    q.Search = c.QueryParam("q")

    for _, raw := range splitCSV(c.QueryParam("room_type")) {
        t := model.RoomType(strings.ToLower(raw))
        if !t.Valid() {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room_type " + raw})
        }
        q.Types = append(q.Types, t)
    }
    for _, raw := range splitCSV(c.QueryParam("status")) {
        s := model.RoomStatus(strings.ToLower(raw))
        if !s.Valid() {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status " + raw})
        }
        q.Statuses = append(q.Statuses, s)
    }

    var err error
    if q.ActiveFrom, err = parseTimeParam(c.QueryParam("active_from")); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid active_from"})
    }
    if q.ActiveTo, err = parseTimeParam(c.QueryParam("active_to")); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid active_to"})
    }
    if q.BirthdayFrom, err = parseDateParam(c.QueryParam("birthday_from")); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid birthday_from"})
    }
    if q.BirthdayTo, err = parseDateParam(c.QueryParam("birthday_to")); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid birthday_to"})
    }

    if raw := c.QueryParam("owner_id"); raw != "" {
        id, err := strconv.ParseUint(raw, 10, 64)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid owner_id"})
        }
        q.OwnerID = &id
    }
    q.Page, _ = strconv.Atoi(c.QueryParam("page"))
    q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    rooms, total, err := h.Rooms.Search(ctx, q)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
    }

    if q.Page < 1 {
        q.Page = 1
    }
    if q.PageSize < 1 || q.PageSize > 100 {
        q.PageSize = 20
    }
    now := time.Now().UTC()
    out := make([]roomPart, 0, len(rooms))
    for _, rm := range rooms {
        out = append(out, toRoomPart(rm, now))
    }
    return c.JSON(http.StatusOK, roomListResp{
        Rooms:    out,
        Total:    total,
        Page:     q.Page,
        PageSize: q.PageSize,
        Pages:    int(math.Ceil(float64(total) / float64(q.PageSize))),
    })
}

func splitCSV(s string) []string {
    if strings.TrimSpace(s) == "" {
        return nil
    }
    var out []string
    for _, p := range strings.Split(s, ",") {
        if p = strings.TrimSpace(p); p != "" {
            out = append(out, p)
        }
    }
    return out
}

func parseTimeParam(s string) (*time.Time, error) {
    if s == "" {
        return nil, nil
    }
    t, err := time.Parse(time.RFC3339, s)
    if err != nil {
        return nil, err
    }
    return &t, nil
}

func parseDateParam(s string) (*time.Time, error) {
    if s == "" {
        return nil, nil
    }
    t, err := time.Parse("2006-01-02", s)
    if err != nil {
        return nil, err
    }
    return &t, nil
}
