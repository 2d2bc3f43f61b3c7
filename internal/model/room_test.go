package model

import (
    "testing"
    "time"
)

func TestRoomIsActive(t *testing.T) {
    base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    room := func(status RoomStatus, archived bool) *Room {
        return &Room{
            Status:         status,
            IsArchived:     archived,
            ActivationTime: base,
            ExpirationTime: base.Add(time.Hour),
        }
    }

    cases := []struct {
        name string
        room *Room
        now  time.Time
        want bool
    }{
        {"active inside window", room(RoomStatusActive, false), base.Add(30 * time.Minute), true},
        {"active at activation instant", room(RoomStatusActive, false), base, true},
        {"active before window", room(RoomStatusActive, false), base.Add(-time.Minute), false},
        {"active at expiration instant", room(RoomStatusActive, false), base.Add(time.Hour), false},
        {"pending inside window", room(RoomStatusPending, false), base.Add(30 * time.Minute), false},
        {"archived inside window", room(RoomStatusActive, true), base.Add(30 * time.Minute), false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := tc.room.IsActive(tc.now); got != tc.want {
                t.Errorf("IsActive(%v) = %v, want %v", tc.now, got, tc.want)
            }
        })
    }
}

func TestRoomOverlaps(t *testing.T) {
    base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
    existing := &Room{
        ActivationTime: base,
        ExpirationTime: base.Add(24 * time.Hour),
    }

    cases := []struct {
        name       string
        activation time.Time
        expiration time.Time
        want       bool
    }{
        {"identical range", base, base.Add(24 * time.Hour), true},
        {"contained range", base.Add(time.Hour), base.Add(2 * time.Hour), true},
        {"overlap at start", base.Add(-time.Hour), base.Add(time.Hour), true},
        {"overlap at end", base.Add(23 * time.Hour), base.Add(48 * time.Hour), true},
        {"touching at boundary", base.Add(24 * time.Hour), base.Add(48 * time.Hour), true},
        {"strictly after", base.Add(25 * time.Hour), base.Add(48 * time.Hour), false},
        {"strictly before", base.Add(-48 * time.Hour), base.Add(-time.Hour), false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := existing.Overlaps(tc.activation, tc.expiration); got != tc.want {
                t.Errorf("Overlaps(%v, %v) = %v, want %v", tc.activation, tc.expiration, got, tc.want)
            }
        })
    }
}

func TestRoomEffectiveStatus(t *testing.T) {
    base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
    r := &Room{
        Status:         RoomStatusActive,
        ActivationTime: base,
        ExpirationTime: base.Add(time.Hour),
    }
    if got := r.EffectiveStatus(base.Add(30 * time.Minute)); got != RoomStatusActive {
        t.Errorf("inside window: got %s, want %s", got, RoomStatusActive)
    }
    if got := r.EffectiveStatus(base.Add(time.Hour)); got != RoomStatusExpired {
        t.Errorf("at expiration: got %s, want %s", got, RoomStatusExpired)
    }
    r.Status = RoomStatusPending
    if got := r.EffectiveStatus(base.Add(2 * time.Hour)); got != RoomStatusExpired {
        t.Errorf("pending past window: got %s, want %s", got, RoomStatusExpired)
    }
}

func TestStatusValidity(t *testing.T) {
    if !ParticipantBanned.Valid() || ParticipantStatus("kicked").Valid() {
        t.Error("participant status validity mismatch")
    }
    if !RoomStatusPending.Valid() || RoomStatus("draft").Valid() {
        t.Error("room status validity mismatch")
    }
    if !RoomTypeMeeting.Valid() || RoomType("party").Valid() {
        t.Error("room type validity mismatch")
    }
    if !FriendRequestCanceled.Valid() || FriendRequestStatus("ignored").Valid() {
        t.Error("friend request status validity mismatch")
    }
}
