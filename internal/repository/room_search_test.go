package repository

import (
    "strings"
    "testing"
    "time"

    "github.com/gatherly/gatherly-backend/internal/model"
)

func TestBuildRoomFilterDefaults(t *testing.T) {
    where, args := buildRoomFilter(RoomSearchQuery{CallerID: 7})
    if where != "r.is_archived = ?" {
        t.Fatalf("unexpected where: %q", where)
    }
    if len(args) != 1 || args[0] != false {
        t.Fatalf("unexpected args: %v", args)
    }
}

func TestBuildRoomFilterArchived(t *testing.T) {
    _, args := buildRoomFilter(RoomSearchQuery{Archived: true})
    if args[0] != true {
        t.Fatalf("archived flag not forwarded: %v", args)
    }
}

func TestBuildRoomFilterSets(t *testing.T) {
    where, args := buildRoomFilter(RoomSearchQuery{
        Types:    []model.RoomType{model.RoomTypeEvent, model.RoomTypeGroup},
        Statuses: []model.RoomStatus{model.RoomStatusActive},
    })
    if !strings.Contains(where, "r.room_type IN (?,?)") {
        t.Errorf("type set missing: %q", where)
    }
    if !strings.Contains(where, "r.status IN (?)") {
        t.Errorf("status set missing: %q", where)
    }
    if len(args) != 4 {
        t.Fatalf("want 4 args, got %d: %v", len(args), args)
    }
}

func TestBuildRoomFilterDateOverlap(t *testing.T) {
    from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
    to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)
    where, args := buildRoomFilter(RoomSearchQuery{ActiveFrom: &from, ActiveTo: &to})
    if !strings.Contains(where, "r.expiration_time >= ?") || !strings.Contains(where, "r.activation_time <= ?") {
        t.Fatalf("overlap fragments missing: %q", where)
    }
    if args[1] != "2026-03-01 00:00:00" || args[2] != "2026-03-31 00:00:00" {
        t.Fatalf("unexpected date args: %v", args)
    }
}

func TestBuildRoomFilterSearchCaseInsensitive(t *testing.T) {
    where, args := buildRoomFilter(RoomSearchQuery{Search: "  Party  "})
    if !strings.Contains(where, "LOWER(r.room_name) LIKE LOWER(?)") {
        t.Fatalf("search fragment missing: %q", where)
    }
    if args[1] != "%Party%" || args[2] != "%Party%" {
        t.Fatalf("search term not trimmed and wrapped: %v", args)
    }
}

func TestBuildRoomFilterMyRooms(t *testing.T) {
    where, args := buildRoomFilter(RoomSearchQuery{CallerID: 42, MyRooms: true})
    if !strings.Contains(where, "p.status IN ('approved', 'pending')") {
        t.Fatalf("membership fragment missing: %q", where)
    }
    if args[1] != uint64(42) || args[2] != uint64(42) {
        t.Fatalf("caller id not bound twice: %v", args)
    }
}

func TestBuildRoomFilterFriendsOnly(t *testing.T) {
    where, args := buildRoomFilter(RoomSearchQuery{CallerID: 9, FriendsOnly: true})
    if !strings.Contains(where, "r.owner_id = ?") {
        t.Errorf("own-rooms fallback missing: %q", where)
    }
    if !strings.Contains(where, "status = 'accepted'") {
        t.Errorf("accepted-friend subquery missing: %q", where)
    }
    if len(args) != 4 {
        t.Fatalf("want 4 args, got %d: %v", len(args), args)
    }
}

func TestBuildRoomFilterCombined(t *testing.T) {
    owner := uint64(3)
    where, _ := buildRoomFilter(RoomSearchQuery{
        OwnerID: &owner,
        Types:   []model.RoomType{model.RoomTypeEvent},
        Search:  "cake",
    })
    for _, frag := range []string{"r.is_archived = ?", "r.room_type IN (?)", "LIKE LOWER(?)", "r.owner_id = ?"} {
        if !strings.Contains(where, frag) {
            t.Errorf("missing fragment %q in %q", frag, where)
        }
    }
    if !strings.Contains(where, " AND ") {
        t.Errorf("fragments not AND-joined: %q", where)
    }
}
