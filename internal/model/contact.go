package model

import "time"

// ContactRegistry records one address-book entry observed during a
// contact sync: the raw phone string as the owner's device reported
// it, the display name, and the registered user the number resolved
// to, if any.  One row exists per (owner, phone_number) pair and is
// refreshed on every sync.  Resolved rows feed the mutual-friend
// computation: two users' mutual count is the intersection of their
// resolved contact sets.
type ContactRegistry struct {
    ID               string    // contact_registry.id (uuid)
    OwnerID          uint64    // contact_registry.owner_id
    PhoneNumber      string    // contact_registry.phone_number (raw, as synced)
    ContactName      string    // contact_registry.contact_name
    RegisteredUserID *uint64   // contact_registry.registered_user_id (nullable)
    CreatedAt        time.Time // contact_registry.created_at
    UpdatedAt        time.Time // contact_registry.updated_at
}
