package model

import "time"

// RoomPrivacy controls who may discover and join a room.
type RoomPrivacy string

const (
    RoomPrivacyPublic  RoomPrivacy = "public"
    RoomPrivacyPrivate RoomPrivacy = "private"
)

// Valid reports whether p is one of the known privacy values.
func (p RoomPrivacy) Valid() bool {
    switch p {
    case RoomPrivacyPublic, RoomPrivacyPrivate:
        return true
    }
    return false
}

// RoomStatus is the stored lifecycle state of a room.  EXPIRED is never
// written to the database; it is derived at read time from the
// expiration timestamp (see IsActive).
type RoomStatus string

const (
    RoomStatusPending RoomStatus = "pending"
    RoomStatusActive  RoomStatus = "active"
    RoomStatusExpired RoomStatus = "expired"
)

// Valid reports whether s is one of the known status values.
func (s RoomStatus) Valid() bool {
    switch s {
    case RoomStatusPending, RoomStatusActive, RoomStatusExpired:
        return true
    }
    return false
}

// RoomType classifies what kind of gathering a room represents.
type RoomType string

const (
    RoomTypeEvent   RoomType = "event"
    RoomTypeGroup   RoomType = "group"
    RoomTypeMeeting RoomType = "meeting"
)

// Valid reports whether t is one of the known room types.
func (t RoomType) Valid() bool {
    switch t {
    case RoomTypeEvent, RoomTypeGroup, RoomTypeMeeting:
        return true
    }
    return false
}

// ParticipantStatus is the admission state of a room participant.
type ParticipantStatus string

const (
    ParticipantPending  ParticipantStatus = "pending"
    ParticipantApproved ParticipantStatus = "approved"
    ParticipantRejected ParticipantStatus = "rejected"
    ParticipantBanned   ParticipantStatus = "banned"
)

// Valid reports whether s is one of the known participant states.
func (s ParticipantStatus) Valid() bool {
    switch s {
    case ParticipantPending, ParticipantApproved, ParticipantRejected, ParticipantBanned:
        return true
    }
    return false
}

// Room represents a time-bounded event as stored in the `rooms` table.
// A room is owned by exactly one user and owns its participant rows
// (deleting the room cascades to participants).  The celebrant is the
// user the room is about; it may equal the owner, in which case the
// room must be public and unique per owner.
//
// Fields:
//  ID                – uuid primary key.
//  OwnerID           – user who created and controls the room.
//  CelebrantID       – optional user the room celebrates.
//  Name              – display name.
//  Description       – free-form description.
//  Type              – event, group or meeting.
//  Privacy           – public or private.
//  Status            – pending or active (expired is derived).
//  IsArchived        – soft-delete overlay, orthogonal to Status.
//  ActivationTime    – start of the usable window.
//  ExpirationTime    – end of the usable window; strictly after
//                      ActivationTime.
//  MaxParticipants   – optional cap on approved participants.
//  AutoApprove       – join requests on public rooms are approved
//                      immediately when set.
//  CelebrantBirthday – optional; inherited from the celebrant's stored
//                      birth date when not supplied at creation.
//  Metadata          – free-form key/value map, stored as JSON.
//  LastActivity      – bumped on joins and lookups.
type Room struct {
    ID                string            // rooms.id (uuid)
    OwnerID           uint64            // rooms.owner_id
    CelebrantID       *uint64           // rooms.celebrant_id (nullable)
    Name              string            // rooms.room_name
    Description       string            // rooms.description
    Type              RoomType          // rooms.room_type
    Privacy           RoomPrivacy       // rooms.privacy_type
    Status            RoomStatus        // rooms.status
    IsArchived        bool              // rooms.is_archived
    ActivationTime    time.Time         // rooms.activation_time
    ExpirationTime    time.Time         // rooms.expiration_time
    MaxParticipants   *int              // rooms.max_participants (nullable)
    AutoApprove       bool              // rooms.auto_approve
    CelebrantBirthday *time.Time        // rooms.celebrant_birthday (nullable)
    Metadata          map[string]string // rooms.metadata (JSON)
    LastActivity      time.Time         // rooms.last_activity
    CreatedAt         time.Time         // rooms.created_at
    UpdatedAt         time.Time         // rooms.updated_at
}

// IsActive reports whether the room is usable at the given instant.
// A room is active iff it has been explicitly activated, the instant
// falls inside [ActivationTime, ExpirationTime), and it is not
// archived.  Expiry is derived here rather than stored; no background
// job rewrites Status.
func (r *Room) IsActive(now time.Time) bool {
    if r.IsArchived || r.Status != RoomStatusActive {
        return false
    }
    return !now.Before(r.ActivationTime) && now.Before(r.ExpirationTime)
}

// IsExpired reports whether the room's usable window has passed.
func (r *Room) IsExpired(now time.Time) bool {
    return !now.Before(r.ExpirationTime)
}

// EffectiveStatus is the status a reader should see at the given
// instant: the stored status until the window passes, EXPIRED after.
func (r *Room) EffectiveStatus(now time.Time) RoomStatus {
    if r.IsExpired(now) {
        return RoomStatusExpired
    }
    return r.Status
}

// Overlaps reports whether the room's [activation, expiration] range
// intersects the given range.  The test is inclusive on both ends:
// existing.activation <= new.expiration AND existing.expiration >=
// new.activation.
func (r *Room) Overlaps(activation, expiration time.Time) bool {
    return !r.ActivationTime.After(expiration) && !r.ExpirationTime.Before(activation)
}

// RoomParticipant is a membership record in the `room_participants`
// table.  The (room, user) pair is unique.  The owner is inserted as
// an approved admin in the same transaction that creates the room.
//
// Fields:
//  ID           – uuid primary key.
//  RoomID       – room this membership belongs to.
//  UserID       – member user.
//  IsAdmin      – admins may update other participants and invite.
//  Status       – pending, approved, rejected or banned.
//  JoinedAt     – when the row was created.
//  LastActiveAt – bumped when the member views the room.
type RoomParticipant struct {
    ID           string            // room_participants.id (uuid)
    RoomID       string            // room_participants.room_id
    UserID       uint64            // room_participants.user_id
    IsAdmin      bool              // room_participants.is_admin
    Status       ParticipantStatus // room_participants.status
    JoinedAt     time.Time         // room_participants.joined_at
    LastActiveAt time.Time         // room_participants.last_active_at
    UpdatedAt    time.Time         // room_participants.updated_at
}
