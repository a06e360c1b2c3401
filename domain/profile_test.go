package domain

import (
	"strings"
	"testing"

	"outmentor/errors"

	"github.com/stretchr/testify/require"
)

func TestProfile_CheckVariant(t *testing.T) {
	req := require.New(t)

	req.NoError(mentor("m1").CheckVariant())
	req.NoError(team("t1").CheckVariant())

	// Given details that don't match the kind
	p := mentor("m1")
	p.Details = TeamDetails{Program: ProgramFTC, Number: "1"}
	req.ErrorIs(p.CheckVariant(), errors.ErrInvalidArgument)

	// Given no details at all
	p.Details = nil
	req.ErrorIs(p.CheckVariant(), errors.ErrInvalidArgument)

	// Given a mentor without any program
	p = mentor("m1")
	p.Details = MentorDetails{}
	req.ErrorIs(p.CheckVariant(), errors.ErrInvalidArgument)
}

func TestProfile_Normalize(t *testing.T) {
	req := require.New(t)
	p := mentor("m1")
	p.Name = "  Ana Souza "
	p.Details = MentorDetails{FLL: true, KnowledgeAreas: []string{" Robô", "Robô", "", "Outreach "}}

	n := p.Normalize()

	req.Equal("Ana Souza", n.Name)
	m, ok := n.Mentor()
	req.True(ok)
	req.Equal([]string{"Robô", "Outreach"}, m.KnowledgeAreas)
	_, ok = n.Team()
	req.False(ok)
}

func TestKind_Opposite(t *testing.T) {
	req := require.New(t)
	req.Equal(KindTeam, KindMentor.Opposite())
	req.Equal(KindMentor, KindTeam.Opposite())
	req.False(Kind("admin").Valid())
}

func TestNormalizeContent(t *testing.T) {
	req := require.New(t)

	text, err := NormalizeContent("  Olá  ", 10)
	req.NoError(err)
	req.Equal("Olá", text)

	_, err = NormalizeContent(" \n\t ", 10)
	req.ErrorIs(err, errors.ErrInvalidArgument)

	_, err = NormalizeContent(strings.Repeat("é", 11), 10)
	req.ErrorIs(err, errors.ErrInvalidArgument)

	// Length is counted in characters, not bytes
	_, err = NormalizeContent(strings.Repeat("é", 10), 10)
	req.NoError(err)
}
