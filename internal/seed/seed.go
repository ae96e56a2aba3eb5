// Package seed loads game fixtures from YAML and gives new games the
// club's default roles.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nickdesi/scba-benevolat/internal/apperror"
	"github.com/nickdesi/scba-benevolat/internal/models"
	"gopkg.in/yaml.v3"
)

type RoleTemplate struct {
	Name     string
	Capacity models.Capacity
}

var DefaultRoles = []RoleTemplate{
	{Name: "Buvette", Capacity: 2},
	{Name: "Chrono", Capacity: 1},
	{Name: "Table de marque", Capacity: 1},
	{Name: "Goûter", Capacity: models.Unlimited},
}

const snackRole = "Goûter"

var seniorTeams = []string{"SENIOR M1", "SENIOR M2", "SENIORS M1", "SENIORS M2"}

// IsSeniorTeam reports whether team plays without a snack stand.
func IsSeniorTeam(team string) bool {
	upper := strings.ToUpper(team)
	for _, t := range seniorTeams {
		if strings.Contains(upper, t) {
			return true
		}
	}
	return false
}

// Roles returns fresh default roles for a game of team, numbered from "1".
func Roles(team string) []models.Role {
	senior := IsSeniorTeam(team)
	var roles []models.Role
	for _, tpl := range DefaultRoles {
		if senior && tpl.Name == snackRole {
			continue
		}
		roles = append(roles, models.Role{
			ID:         models.RoleID(strconv.Itoa(len(roles) + 1)),
			Name:       tpl.Name,
			Capacity:   tpl.Capacity,
			Volunteers: []string{},
		})
	}
	return roles
}

type fixture struct {
	Games []gameFixture `yaml:"games"`
}

type gameFixture struct {
	ID       string `yaml:"id"`
	Team     string `yaml:"team"`
	Opponent string `yaml:"opponent"`
	Date     string `yaml:"date"`
	DateISO  string `yaml:"dateISO"`
	Time     string `yaml:"time"`
	Location string `yaml:"location"`
	IsHome   bool   `yaml:"isHome"`
}

// Parse reads a fixture file and returns games with default roles.
func Parse(r io.Reader) ([]models.Game, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f fixture
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}

	games := make([]models.Game, 0, len(f.Games))
	for i, gf := range f.Games {
		if gf.Team == "" || gf.DateISO == "" {
			return nil, fmt.Errorf("game %d: team and dateISO are required", i+1)
		}
		games = append(games, models.Game{
			ID:       gf.ID,
			Team:     gf.Team,
			Opponent: gf.Opponent,
			Date:     gf.Date,
			DateISO:  gf.DateISO,
			Time:     gf.Time,
			Location: gf.Location,
			IsHome:   gf.IsHome,
			Roles:    Roles(gf.Team),
		})
	}
	return games, nil
}

type Store interface {
	Get(ctx context.Context, id string) (*models.Game, error)
	Create(ctx context.Context, g *models.Game) error
}

// Load creates the games that do not exist yet and returns how many it created.
func Load(ctx context.Context, s Store, games []models.Game) (int, error) {
	created := 0
	for i := range games {
		g := &games[i]
		if g.ID != "" {
			_, err := s.Get(ctx, g.ID)
			if err == nil {
				continue
			}
			if !errors.Is(err, apperror.ErrNotFound) {
				return created, err
			}
		}
		if err := s.Create(ctx, g); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
