package contact_matcher

import (
    "testing"

    "github.com/gatherly/gatherly-backend/internal/model"
)

func TestNormalizePhone(t *testing.T) {
    cases := []struct {
        in   string
        want string
    }{
        {"+1 (123) 456-7890", "11234567890"},
        {"123-456-7890", "1234567890"},
        {"+91 98765 43210", "919876543210"},
        {"no digits", ""},
        {"", ""},
    }
    for _, tc := range cases {
        if got := NormalizePhone(tc.in); got != tc.want {
            t.Errorf("NormalizePhone(%q) = %q, want %q", tc.in, got, tc.want)
        }
    }
}

func TestPhoneVariants(t *testing.T) {
    contains := func(vs []string, want string) bool {
        for _, v := range vs {
            if v == want {
                return true
            }
        }
        return false
    }

    t.Run("normalized form always first", func(t *testing.T) {
        vs := PhoneVariants("+1 (123) 456-7890")
        if len(vs) == 0 || vs[0] != "11234567890" {
            t.Fatalf("variants = %v, want normalized form first", vs)
        }
    })

    t.Run("long number gets suffixes", func(t *testing.T) {
        vs := PhoneVariants("+11234567890") // 11 digits
        if !contains(vs, "1234567890") {
            t.Errorf("variants %v missing 10-digit suffix", vs)
        }
        if !contains(vs, "234567890") {
            t.Errorf("variants %v missing 9-digit suffix", vs)
        }
    })

    t.Run("ten digit number gets country prefixes", func(t *testing.T) {
        vs := PhoneVariants("1234567890")
        if !contains(vs, "11234567890") || !contains(vs, "911234567890") {
            t.Errorf("variants %v missing country-code candidates", vs)
        }
    })

    t.Run("empty input", func(t *testing.T) {
        if vs := PhoneVariants("---"); vs != nil {
            t.Errorf("variants for digitless input = %v, want nil", vs)
        }
    })
}

func TestIndexMatch(t *testing.T) {
    ix := NewIndex()
    ix.Add(model.User{ID: 9, Phone: "1234567890", FirstName: "Bob"})
    ix.Add(model.User{ID: 12, Phone: "+91 98765 43210"})
    ix.Add(model.User{ID: 30, Phone: "1234"}) // too short, skipped

    t.Run("country code input resolves via suffix", func(t *testing.T) {
        u, ok := ix.Match("+11234567890")
        if !ok || u.ID != 9 {
            t.Fatalf("Match(+11234567890) = (%v, %v), want user 9", u.ID, ok)
        }
    })

    t.Run("exact normalized match wins", func(t *testing.T) {
        u, ok := ix.Match("123-456-7890")
        if !ok || u.ID != 9 {
            t.Fatalf("Match(123-456-7890) = (%v, %v), want user 9", u.ID, ok)
        }
    })

    t.Run("national format finds country coded number", func(t *testing.T) {
        u, ok := ix.Match("98765 43210") // 10 digits, "91" prefix candidate
        if !ok || u.ID != 12 {
            t.Fatalf("Match(98765 43210) = (%v, %v), want user 12", u.ID, ok)
        }
    })

    t.Run("short phones are not indexed", func(t *testing.T) {
        if _, ok := ix.Match("1234"); ok {
            t.Error("short phone unexpectedly matched")
        }
    })

    t.Run("unknown number misses", func(t *testing.T) {
        if _, ok := ix.Match("+49 171 1111111"); ok {
            t.Error("unknown number unexpectedly matched")
        }
    })

    t.Run("last writer wins on collision", func(t *testing.T) {
        dup := NewIndex()
        dup.Add(model.User{ID: 1, Phone: "5551234567"})
        dup.Add(model.User{ID: 2, Phone: "5551234567"})
        u, ok := dup.Match("5551234567")
        if !ok || u.ID != 2 {
            t.Fatalf("collision Match = (%v, %v), want user 2", u.ID, ok)
        }
    })
}

func TestMutualCount(t *testing.T) {
    uid := func(id uint64) *uint64 { return &id }
    rows := []model.ContactRegistry{
        {OwnerID: 5, RegisteredUserID: uid(1)},
        {OwnerID: 5, RegisteredUserID: uid(2)},
        {OwnerID: 5, RegisteredUserID: uid(3)},
        {OwnerID: 5, RegisteredUserID: nil}, // unresolved, ignored
        {OwnerID: 9, RegisteredUserID: uid(2)},
        {OwnerID: 9, RegisteredUserID: uid(3)},
        {OwnerID: 9, RegisteredUserID: uid(4)},
    }
    sets := GroupResolved(rows)
    if len(sets[5]) != 3 || len(sets[9]) != 3 {
        t.Fatalf("GroupResolved sizes = %d/%d, want 3/3", len(sets[5]), len(sets[9]))
    }
    if got := MutualCount(sets[5], sets[9]); got != 2 {
        t.Errorf("MutualCount = %d, want 2", got)
    }
    if got := MutualCount(sets[5], nil); got != 0 {
        t.Errorf("MutualCount with empty set = %d, want 0", got)
    }
}
