// Package queue defines message payloads exchanged over the message broker.
package queue

// RoomActivityEvent is published when something notable happens inside a
// room: activation, a join, an invitation batch. It carries enough
// information for downstream consumers to log or notify without querying
// the primary database.
type RoomActivityEvent struct {
    RoomID     string `json:"room_id"`
    RoomName   string `json:"room_name"`
    OwnerID    uint64 `json:"owner_id"`
    ActorID    uint64 `json:"actor_id"`
    Action     string `json:"action"`
    Detail     string `json:"detail,omitempty"`
    OccurredAt string `json:"occurred_at"`
}

// Actions carried by RoomActivityEvent.
const (
    ActionRoomActivated = "room.activated"
    ActionMemberJoined  = "member.joined"
    ActionInvitesSent   = "invites.sent"
)
