package handler

import (
    "testing"
    "time"

    "github.com/gatherly/gatherly-backend/internal/model"
)

func activeRoom(privacy model.RoomPrivacy, autoApprove bool, now time.Time) model.Room {
    return model.Room{
        Status:         model.RoomStatusActive,
        Privacy:        privacy,
        AutoApprove:    autoApprove,
        ActivationTime: now.Add(-time.Hour),
        ExpirationTime: now.Add(time.Hour),
    }
}

func TestJoinStatus(t *testing.T) {
    now := time.Now().UTC()
    cases := []struct {
        name string
        room model.Room
        want model.ParticipantStatus
    }{
        {"public auto-approve", activeRoom(model.RoomPrivacyPublic, true, now), model.ParticipantApproved},
        {"public manual", activeRoom(model.RoomPrivacyPublic, false, now), model.ParticipantPending},
        {"private manual", activeRoom(model.RoomPrivacyPrivate, false, now), model.ParticipantPending},
        {"private auto-approve still queues", activeRoom(model.RoomPrivacyPrivate, true, now), model.ParticipantPending},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := joinStatus(tc.room); got != tc.want {
                t.Errorf("joinStatus = %q, want %q", got, tc.want)
            }
        })
    }
}

// A private active room must admit a joiner as pending rather than
// turn them away.
func TestJoinAdmitsPrivateRoomAsPending(t *testing.T) {
    now := time.Now().UTC()
    rm := activeRoom(model.RoomPrivacyPrivate, false, now)
    if msg := membershipGate(rm, now); msg != "" {
        t.Fatalf("gate rejected a private active room: %q", msg)
    }
    if got := joinStatus(rm); got != model.ParticipantPending {
        t.Errorf("joinStatus = %q, want %q", got, model.ParticipantPending)
    }
}

func TestMembershipGate(t *testing.T) {
    now := time.Now().UTC()
    pending := activeRoom(model.RoomPrivacyPublic, true, now)
    pending.Status = model.RoomStatusPending

    early := activeRoom(model.RoomPrivacyPublic, true, now)
    early.ActivationTime = now.Add(time.Hour)
    early.ExpirationTime = now.Add(2 * time.Hour)

    archived := activeRoom(model.RoomPrivacyPublic, true, now)
    archived.IsArchived = true

    cases := []struct {
        name string
        room model.Room
        want string
    }{
        {"active room passes", activeRoom(model.RoomPrivacyPublic, true, now), ""},
        {"never activated", pending, "room is not active"},
        {"before activation time", early, "room is not active"},
        {"archived", archived, "room is archived"},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := membershipGate(tc.room, now); got != tc.want {
                t.Errorf("membershipGate = %q, want %q", got, tc.want)
            }
        })
    }
}

func TestInviteDecision(t *testing.T) {
    cases := []struct {
        name   string
        status model.ParticipantStatus
        hasRow bool
        want   inviteOutcome
    }{
        {"absent gets a fresh row", "", false, inviteCreate},
        {"rejected becomes pending again", model.ParticipantRejected, true, inviteReinstate},
        {"approved is left alone", model.ParticipantApproved, true, inviteSkip},
        {"pending is left alone", model.ParticipantPending, true, inviteSkip},
        {"banned is left alone", model.ParticipantBanned, true, inviteSkip},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            if got := inviteDecision(tc.status, tc.hasRow); got != tc.want {
                t.Errorf("inviteDecision(%q, %v) = %d, want %d", tc.status, tc.hasRow, got, tc.want)
            }
        })
    }
}

// Activation ignores the time window; only archival blocks it.
func TestActivateConflict(t *testing.T) {
    now := time.Now().UTC()

    expired := model.Room{
        Status:         model.RoomStatusPending,
        ActivationTime: now.Add(-2 * time.Hour),
        ExpirationTime: now.Add(-time.Hour),
    }
    if msg := activateConflict(expired); msg != "" {
        t.Errorf("expired window should not block activation, got %q", msg)
    }

    archived := model.Room{Status: model.RoomStatusPending, IsArchived: true}
    if msg := activateConflict(archived); msg == "" {
        t.Error("archived room should block activation")
    }
}
