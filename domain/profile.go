// Package domain contains core concepts of the matchmaking system.
// This file defines actor profiles and their kind-specific details.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"fmt"
	"strings"
	"time"

	"outmentor/errors"

	"github.com/samber/lo"
)

type Kind string

const (
	KindMentor Kind = "mentor"
	KindTeam   Kind = "team"
)

func (k Kind) Valid() bool {
	return k == KindMentor || k == KindTeam
}

// Opposite returns the kind an actor of kind k is allowed to discover and connect with.
func (k Kind) Opposite() Kind {
	if k == KindMentor {
		return KindTeam
	}
	return KindMentor
}

type ProgramType string

const (
	ProgramFTC ProgramType = "FTC"
	ProgramFLL ProgramType = "FLL"
)

// Details is the kind-specific part of a Profile.
// Only MentorDetails and TeamDetails implement it.
type Details interface {
	Kind() Kind
	details()
}

type MentorDetails struct {
	FTC            bool
	FLL            bool
	KnowledgeAreas []string
}

func (MentorDetails) Kind() Kind { return KindMentor }
func (MentorDetails) details()   {}

type TeamDetails struct {
	Program       ProgramType `validate:"oneof=FTC FLL"`
	Number        string      `validate:"required,max=16"`
	InterestAreas []string
}

func (TeamDetails) Kind() Kind { return KindTeam }
func (TeamDetails) details()   {}

// Profile is an identity-bearing actor record.
// ID is the subject issued by the identity provider.
type Profile struct {
	ID        string `validate:"required,max=128"`
	Kind      Kind   `validate:"oneof=mentor team"`
	Name      string `validate:"required,max=120"`
	State     string `validate:"required,max=64"`
	City      string `validate:"required,max=64"`
	Bio       string `validate:"max=2000"`
	Details   Details
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Mentor returns the mentor details when the profile is a mentor.
func (p Profile) Mentor() (MentorDetails, bool) {
	d, ok := p.Details.(MentorDetails)
	return d, ok
}

// Team returns the team details when the profile is a team.
func (p Profile) Team() (TeamDetails, bool) {
	d, ok := p.Details.(TeamDetails)
	return d, ok
}

// Summary is the counterpart view joined to connections.
func (p Profile) Summary() ProfileSummary {
	return ProfileSummary{ID: p.ID, Kind: p.Kind, Name: p.Name, State: p.State, City: p.City}
}

// Normalize trims free text and de-duplicates tag sets.
func (p Profile) Normalize() Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.State = strings.TrimSpace(p.State)
	p.City = strings.TrimSpace(p.City)
	p.Bio = strings.TrimSpace(p.Bio)
	switch d := p.Details.(type) {
	case MentorDetails:
		d.KnowledgeAreas = normalizeTags(d.KnowledgeAreas)
		p.Details = d
	case TeamDetails:
		d.Number = strings.TrimSpace(d.Number)
		d.InterestAreas = normalizeTags(d.InterestAreas)
		p.Details = d
	}
	return p
}

// CheckVariant enforces that exactly one detail record matching the kind is present.
func (p Profile) CheckVariant() error {
	if p.Details == nil {
		return fmt.Errorf("%w: %s profile has no details", errors.ErrInvalidArgument, p.Kind)
	}
	if p.Details.Kind() != p.Kind {
		return fmt.Errorf("%w: %s details on a %s profile", errors.ErrInvalidArgument, p.Details.Kind(), p.Kind)
	}
	if m, ok := p.Mentor(); ok && !m.FTC && !m.FLL {
		return fmt.Errorf("%w: a mentor must mentor at least one program", errors.ErrInvalidArgument)
	}
	return nil
}

type ProfileSummary struct {
	ID    string
	Kind  Kind
	Name  string
	State string
	City  string
}

func normalizeTags(tags []string) []string {
	trimmed := lo.FilterMap(tags, func(tag string, _ int) (string, bool) {
		tag = strings.TrimSpace(tag)
		return tag, tag != ""
	})
	return lo.Uniq(trimmed)
}
