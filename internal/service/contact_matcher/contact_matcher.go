// Package contact_matcher implements the phone-matching core of contact
// sync: normalizing raw address-book numbers, expanding them into
// country-code variants, indexing registered users by those variants and
// computing mutual-friend counts from resolved contact sets.  Everything
// here is pure; loading users and persisting registry rows belongs to
// the repository layer.
package contact_matcher

import (
    "strings"

    "github.com/gatherly/gatherly-backend/internal/model"
)

// minIndexDigits is the shortest phone considered reliable enough to
// index.  Shorter strings are usually extension fragments or junk.
const minIndexDigits = 8

// NormalizePhone strips every non-digit character from a raw phone
// string.  "+1 (123) 456-7890" becomes "11234567890".
func NormalizePhone(raw string) string {
    var b strings.Builder
    b.Grow(len(raw))
    for _, r := range raw {
        if r >= '0' && r <= '9' {
            b.WriteRune(r)
        }
    }
    return b.String()
}

// PhoneVariants expands a raw phone into the normalized candidates used
// for matching, most specific first.  Address-book numbers arrive in
// inconsistent formats (with or without a country code, punctuation),
// so a number must match stored numbers through its suffixes as well:
//
//   - the normalized digit string itself
//   - for numbers longer than 10 digits: the last-10 and last-9 suffixes
//   - for exactly 10 digits: the same string prefixed with "1" and "91"
//
// The result is de-duplicated and preserves lookup order.
func PhoneVariants(raw string) []string {
    p := NormalizePhone(raw)
    if p == "" {
        return nil
    }
    variants := []string{p}
    seen := map[string]bool{p: true}
    add := func(v string) {
        if !seen[v] {
            seen[v] = true
            variants = append(variants, v)
        }
    }
    switch {
    case len(p) > 10:
        add(p[len(p)-10:])
        add(p[len(p)-9:])
    case len(p) == 10:
        add("1" + p)
        add("91" + p)
    }
    return variants
}

// Index maps normalized phone variants to the registered user owning
// the number.  It is built once per sync call and discarded afterwards,
// trading recomputation for freshness.
type Index map[string]model.User

// NewIndex allocates an empty index.
func NewIndex() Index { return make(Index) }

// Add indexes one registered user under the normalized form of their
// stored phone plus its 10- and 9-digit suffixes.  Phones with fewer
// than 8 digits are skipped as unreliable.  On collision the last
// writer wins.
func (ix Index) Add(u model.User) {
    p := NormalizePhone(u.Phone)
    if len(p) < minIndexDigits {
        return
    }
    ix[p] = u
    if len(p) > 10 {
        ix[p[len(p)-10:]] = u
    }
    if len(p) > 9 {
        ix[p[len(p)-9:]] = u
    }
}

// Match resolves a raw contact phone against the index, trying each
// variant in order and stopping at the first hit.
func (ix Index) Match(raw string) (model.User, bool) {
    for _, v := range PhoneVariants(raw) {
        if u, ok := ix[v]; ok {
            return u, true
        }
    }
    return model.User{}, false
}

// GroupResolved buckets resolved contact-registry rows by owner,
// producing each owner's set of resolved user IDs.  Rows without a
// resolved user are ignored.
func GroupResolved(rows []model.ContactRegistry) map[uint64]map[uint64]struct{} {
    sets := make(map[uint64]map[uint64]struct{})
    for _, row := range rows {
        if row.RegisteredUserID == nil {
            continue
        }
        set, ok := sets[row.OwnerID]
        if !ok {
            set = make(map[uint64]struct{})
            sets[row.OwnerID] = set
        }
        set[*row.RegisteredUserID] = struct{}{}
    }
    return sets
}

// MutualCount returns the size of the intersection of two resolved
// contact sets: how many registered users both parties have in their
// address books.
func MutualCount(a, b map[uint64]struct{}) int {
    if len(b) < len(a) {
        a, b = b, a
    }
    n := 0
    for id := range a {
        if _, ok := b[id]; ok {
            n++
        }
    }
    return n
}
