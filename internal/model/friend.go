package model

import "time"

// FriendRequestStatus is the lifecycle state of a friend request.
// Once resolved (accepted, declined or canceled) a request never
// returns to pending; a new request must be created instead.
type FriendRequestStatus string

const (
    FriendRequestPending  FriendRequestStatus = "pending"
    FriendRequestAccepted FriendRequestStatus = "accepted"
    FriendRequestDeclined FriendRequestStatus = "declined"
    FriendRequestCanceled FriendRequestStatus = "canceled"
)

// Valid reports whether s is one of the known request states.
func (s FriendRequestStatus) Valid() bool {
    switch s {
    case FriendRequestPending, FriendRequestAccepted, FriendRequestDeclined, FriendRequestCanceled:
        return true
    }
    return false
}

// FriendRequest mirrors the `friend_requests` table.  At most one
// PENDING request may exist per ordered (requester, receiver) pair.
// Two users are friends when an ACCEPTED request exists between them
// in either direction.
type FriendRequest struct {
    ID          string              // friend_requests.id (uuid)
    RequesterID uint64              // friend_requests.requester_id
    ReceiverID  uint64              // friend_requests.receiver_id
    Status      FriendRequestStatus // friend_requests.status
    CreatedAt   time.Time           // friend_requests.created_at
    UpdatedAt   time.Time           // friend_requests.updated_at
}

// BlockedUser mirrors the `blocked_users` table.  Rows are stored
// directionally (blocker -> blocked) with a unique pair constraint;
// block checks query both directions so a block suppresses friend
// requests either way.
type BlockedUser struct {
    ID        string    // blocked_users.id (uuid)
    BlockerID uint64    // blocked_users.blocker_id
    BlockedID uint64    // blocked_users.blocked_id
    Reason    *string   // blocked_users.reason (nullable)
    CreatedAt time.Time // blocked_users.created_at
}
