package reconcile

import (
	"slices"

	"github.com/nickdesi/scba-benevolat/internal/models"
)

// Mutation is a local preview of an engine operation on one game.
type Mutation interface {
	GameID() string
	apply(g *models.Game)
}

type AddVolunteers struct {
	Game      string
	Role      models.RoleID
	Names     []string
	AvatarURL string
}

func (m AddVolunteers) GameID() string { return m.Game }

func (m AddVolunteers) apply(g *models.Game) {
	r := g.Role(m.Role)
	if r == nil {
		return
	}
	r.Volunteers = append(r.Volunteers, m.Names...)
	if m.AvatarURL == "" {
		return
	}
	if r.Avatars == nil {
		r.Avatars = map[string]string{}
	}
	for _, n := range m.Names {
		r.Avatars[n] = m.AvatarURL
	}
}

type RemoveVolunteer struct {
	Game string
	Role models.RoleID
	Name string
}

func (m RemoveVolunteer) GameID() string { return m.Game }

func (m RemoveVolunteer) apply(g *models.Game) {
	r := g.Role(m.Role)
	if r == nil {
		return
	}
	r.Volunteers = slices.DeleteFunc(r.Volunteers, func(v string) bool { return v == m.Name })
	delete(r.Avatars, m.Name)
}

type RenameVolunteer struct {
	Game    string
	Role    models.RoleID
	OldName string
	NewName string
}

func (m RenameVolunteer) GameID() string { return m.Game }

func (m RenameVolunteer) apply(g *models.Game) {
	r := g.Role(m.Role)
	if r == nil {
		return
	}
	for i, v := range r.Volunteers {
		if v == m.OldName {
			r.Volunteers[i] = m.NewName
		}
	}
	if url, ok := r.Avatars[m.OldName]; ok {
		delete(r.Avatars, m.OldName)
		r.Avatars[m.NewName] = url
	}
}

type AddCarpoolEntry struct {
	Game  string
	Entry models.CarpoolEntry
}

func (m AddCarpoolEntry) GameID() string { return m.Game }

func (m AddCarpoolEntry) apply(g *models.Game) {
	g.Carpool = append(g.Carpool, m.Entry.Clone())
}

type RemoveCarpoolEntry struct {
	Game    string
	EntryID string
}

func (m RemoveCarpoolEntry) GameID() string { return m.Game }

func (m RemoveCarpoolEntry) apply(g *models.Game) {
	g.Carpool = slices.DeleteFunc(g.Carpool, func(e models.CarpoolEntry) bool { return e.ID == m.EntryID })
	for i := range g.Carpool {
		e := &g.Carpool[i]
		e.MatchedWith = slices.DeleteFunc(e.MatchedWith, func(id string) bool { return id == m.EntryID })
		if e.Type == models.Passenger && e.RequestedDriverID == m.EntryID {
			e.Reset()
		}
		if e.Type == models.Passenger && e.Status == models.StatusMatched && len(e.MatchedWith) == 0 {
			e.Reset()
		}
	}
}

// SetPassengerStatus previews a request, cancel, reject or accept.
type SetPassengerStatus struct {
	Game        string
	PassengerID string
	DriverID    string
	Status      models.CarpoolStatus
}

func (m SetPassengerStatus) GameID() string { return m.Game }

func (m SetPassengerStatus) apply(g *models.Game) {
	p := g.Entry(m.PassengerID)
	if p == nil {
		return
	}
	switch m.Status {
	case models.StatusPending:
		p.Status = models.StatusPending
		p.RequestedDriverID = m.DriverID
	case models.StatusMatched:
		p.Status = models.StatusMatched
		p.MatchedWith = []string{m.DriverID}
		p.RequestedDriverID = ""
		if d := g.Entry(m.DriverID); d != nil {
			d.MatchedWith = append(d.MatchedWith, m.PassengerID)
		}
	default:
		p.Reset()
	}
}
