package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RoleID identifies a role inside a game. Older documents stored numeric
// ids, so decoding accepts both forms and keeps integral numbers as their
// decimal string: 2, 2.0 and 2e0 all decode to "2".
type RoleID string

func (id *RoleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = RoleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("role id: %w", err)
	}
	*id = numericRoleID(n)
	return nil
}

func numericRoleID(n json.Number) RoleID {
	if i, err := n.Int64(); err == nil {
		return RoleID(strconv.FormatInt(i, 10))
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return RoleID(strconv.FormatInt(int64(f), 10))
	}
	return RoleID(n.String())
}

// Equal compares role ids ignoring surrounding blanks. Lookups must use it
// instead of ==.
func (id RoleID) Equal(other RoleID) bool {
	return strings.TrimSpace(string(id)) == strings.TrimSpace(string(other))
}

func (id RoleID) String() string {
	return string(id)
}

// Capacity is the number of volunteers a role needs. Zero means unlimited.
type Capacity int

const Unlimited Capacity = 0

func (c *Capacity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = Unlimited
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "", "infinity", "infinite", "unlimited":
			*c = Unlimited
			return nil
		}
		return fmt.Errorf("capacity: unknown marker %q", s)
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("capacity: %w", err)
	}
	if f < 0 {
		return fmt.Errorf("capacity: negative value %v", f)
	}
	*c = Capacity(int(f))
	return nil
}

func (c Capacity) IsUnlimited() bool {
	return c <= 0
}

type Role struct {
	ID         RoleID            `json:"id"`
	Name       string            `json:"name"`
	Capacity   Capacity          `json:"capacity"`
	Volunteers []string          `json:"volunteers"`
	Avatars    map[string]string `json:"avatars,omitempty"`
}

func (r *Role) IsFull() bool {
	return !r.Capacity.IsUnlimited() && len(r.Volunteers) >= int(r.Capacity)
}

// Remaining returns the free places of the role, or -1 when unlimited.
func (r *Role) Remaining() int {
	if r.Capacity.IsUnlimited() {
		return -1
	}
	return max(int(r.Capacity)-len(r.Volunteers), 0)
}

type Game struct {
	ID       string         `json:"id"`
	Team     string         `json:"team"`
	Opponent string         `json:"opponent"`
	Date     string         `json:"date"`
	DateISO  string         `json:"dateISO"`
	Time     string         `json:"time"`
	Location string         `json:"location"`
	IsHome   bool           `json:"isHome"`
	Roles    []Role         `json:"roles"`
	Carpool  []CarpoolEntry `json:"carpool,omitempty"`
	Version  int64          `json:"-"`
}

// Role returns a pointer into g.Roles so callers can mutate it in place.
func (g *Game) Role(id RoleID) *Role {
	for i := range g.Roles {
		if g.Roles[i].ID.Equal(id) {
			return &g.Roles[i]
		}
	}
	return nil
}

// Entry returns a pointer into g.Carpool for the given entry id.
func (g *Game) Entry(id string) *CarpoolEntry {
	for i := range g.Carpool {
		if g.Carpool[i].ID == id {
			return &g.Carpool[i]
		}
	}
	return nil
}

// Clone returns a deep copy that shares no slices or maps with g.
func (g Game) Clone() Game {
	out := g
	if g.Roles != nil {
		out.Roles = make([]Role, len(g.Roles))
		for i, r := range g.Roles {
			out.Roles[i] = r
			out.Roles[i].Volunteers = append([]string(nil), r.Volunteers...)
			if r.Volunteers != nil && out.Roles[i].Volunteers == nil {
				out.Roles[i].Volunteers = []string{}
			}
			if r.Avatars != nil {
				out.Roles[i].Avatars = make(map[string]string, len(r.Avatars))
				for k, v := range r.Avatars {
					out.Roles[i].Avatars[k] = v
				}
			}
		}
	}
	if g.Carpool != nil {
		out.Carpool = make([]CarpoolEntry, len(g.Carpool))
		for i, e := range g.Carpool {
			out.Carpool[i] = e.Clone()
		}
	}
	return out
}
