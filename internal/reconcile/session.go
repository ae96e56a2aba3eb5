package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/nickdesi/scba-benevolat/internal/auth"
	"github.com/nickdesi/scba-benevolat/internal/carpool"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"github.com/nickdesi/scba-benevolat/internal/volunteer"
)

type Source interface {
	Subscribe(ctx context.Context) (<-chan []models.Game, error)
}

// Session is one client's view of the upcoming games. Each operation
// previews its effect in the View, then runs the engine and returns its
// error as is; the next snapshot from the source replaces the preview
// whether the operation committed or not.
type Session struct {
	view       *View
	source     Source
	volunteers *volunteer.Engine
	carpools   *carpool.Engine
	who        auth.Identity
	seq        atomic.Int64
}

func NewSession(source Source, volunteers *volunteer.Engine, carpools *carpool.Engine, who auth.Identity) *Session {
	return &Session{
		view:       NewView(),
		source:     source,
		volunteers: volunteers,
		carpools:   carpools,
		who:        who,
	}
}

func (s *Session) View() *View {
	return s.view
}

// Run feeds snapshots from the source into the view until ctx ends.
func (s *Session) Run(ctx context.Context) error {
	ch, err := s.source.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	for games := range ch {
		s.view.Replace(games)
	}
	return ctx.Err()
}

// SignUp previews the names the engine will actually store. Nothing is
// previewed when every name is blank.
func (s *Session) SignUp(ctx context.Context, gameID string, roleID models.RoleID, names []string) error {
	if cleaned := volunteer.CleanNames(names); len(cleaned) > 0 {
		s.view.Apply(AddVolunteers{Game: gameID, Role: roleID, Names: cleaned, AvatarURL: s.who.AvatarURL})
	}
	_, err := s.volunteers.SignUp(ctx, s.who, gameID, roleID, names)
	return err
}

func (s *Session) RemoveVolunteer(ctx context.Context, gameID string, roleID models.RoleID, name string) error {
	s.view.Apply(RemoveVolunteer{Game: gameID, Role: roleID, Name: name})
	_, err := s.volunteers.Remove(ctx, s.who, gameID, roleID, name)
	return err
}

// RenameVolunteer previews nothing for a rename the engine rejects or
// ignores.
func (s *Session) RenameVolunteer(ctx context.Context, gameID string, roleID models.RoleID, oldName, newName string) error {
	if trimmed := strings.TrimSpace(newName); trimmed != "" && trimmed != oldName {
		s.view.Apply(RenameVolunteer{Game: gameID, Role: roleID, OldName: oldName, NewName: trimmed})
	}
	_, err := s.volunteers.Rename(ctx, s.who, gameID, roleID, oldName, newName)
	return err
}

func (s *Session) SubmitCarpool(ctx context.Context, gameID string, in carpool.Entry) (*models.CarpoolEntry, error) {
	s.view.Apply(AddCarpoolEntry{Game: gameID, Entry: models.CarpoolEntry{
		ID:                fmt.Sprintf("local-%d", s.seq.Add(1)),
		Name:              in.Name,
		Type:              in.Type,
		Phone:             in.Phone,
		Seats:             in.Seats,
		DepartureLocation: in.DepartureLocation,
		Status:            models.StatusAvailable,
	}})
	return s.carpools.Submit(ctx, gameID, in)
}

func (s *Session) RequestSeat(ctx context.Context, gameID, passengerID, driverID string) error {
	s.view.Apply(SetPassengerStatus{Game: gameID, PassengerID: passengerID, DriverID: driverID, Status: models.StatusPending})
	_, err := s.carpools.RequestSeat(ctx, gameID, passengerID, driverID)
	return err
}

func (s *Session) Accept(ctx context.Context, gameID, driverID, passengerID string) error {
	s.view.Apply(SetPassengerStatus{Game: gameID, PassengerID: passengerID, DriverID: driverID, Status: models.StatusMatched})
	_, err := s.carpools.Accept(ctx, gameID, driverID, passengerID)
	return err
}

func (s *Session) Reject(ctx context.Context, gameID, driverID, passengerID string) error {
	s.view.Apply(SetPassengerStatus{Game: gameID, PassengerID: passengerID, DriverID: driverID, Status: models.StatusAvailable})
	_, err := s.carpools.Reject(ctx, gameID, driverID, passengerID)
	return err
}

func (s *Session) Cancel(ctx context.Context, gameID, passengerID string) error {
	s.view.Apply(SetPassengerStatus{Game: gameID, PassengerID: passengerID, Status: models.StatusAvailable})
	_, err := s.carpools.Cancel(ctx, gameID, passengerID)
	return err
}

func (s *Session) RemoveCarpool(ctx context.Context, gameID, entryID string) error {
	s.view.Apply(RemoveCarpoolEntry{Game: gameID, EntryID: entryID})
	_, err := s.carpools.Remove(ctx, gameID, entryID)
	return err
}
