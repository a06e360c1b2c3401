//go:generate go run go.uber.org/mock/mockgen -source=profile_index.go -destination=../mocks/mock_profile_index.go -package=mocks
// Package search maintains the Bluge index behind the profile directory.
// The index is a derived view: it is rebuilt from the profile store on start-up.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"outmentor/domain"

	"github.com/blugelabs/bluge"
)

const (
	fieldID    = "_id"
	fieldKind  = "kind"
	fieldState = "state"
	fieldName  = "name"
)

// Hit is the stored part of an indexed profile.
type Hit struct {
	ID   string
	Name string
}

type IProfileIndex interface {
	Index(profile domain.Profile) error
	// Candidates returns every profile of kind, in state when not empty, except excludeID.
	// Hits are ordered by lower-cased name, then id.
	Candidates(ctx context.Context, kind domain.Kind, state, excludeID string) ([]Hit, error)
}

type ProfileIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

func NewProfileIndex(writer *bluge.Writer, log *slog.Logger) *ProfileIndex {
	return &ProfileIndex{writer: writer, log: log}
}

// Index inserts or replaces the document of a profile.
func (i *ProfileIndex) Index(profile domain.Profile) error {
	doc := toDocument(profile)
	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index profile %s: %w", profile.ID, err)
	}
	return nil
}

// Rebuild indexes every profile in a single batch.
func (i *ProfileIndex) Rebuild(profiles []domain.Profile) error {
	batch := bluge.NewBatch()
	for _, profile := range profiles {
		doc := toDocument(profile)
		batch.Update(doc.ID(), doc)
	}
	if err := i.writer.Batch(batch); err != nil {
		return fmt.Errorf("rebuild profile index: %w", err)
	}
	i.log.Info(fmt.Sprintf("%d profiles indexed", len(profiles)))
	return nil
}

func (i *ProfileIndex) Candidates(ctx context.Context, kind domain.Kind, state, excludeID string) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewTermQuery(string(kind)).SetField(fieldKind))
	if state != "" {
		query.AddMust(bluge.NewTermQuery(state).SetField(fieldState))
	}
	if excludeID != "" {
		query.AddMustNot(bluge.NewTermQuery(excludeID).SetField(fieldID))
	}

	dmi, err := reader.Search(ctx, bluge.NewAllMatches(query))
	if err != nil {
		return nil, fmt.Errorf("search profiles: %w", err)
	}

	var hits []Hit
	match, err := dmi.Next()
	for err == nil && match != nil {
		var hit Hit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case fieldID:
				hit.ID = string(value)
			case fieldName:
				hit.Name = string(value)
			}
			return true
		})
		if err != nil {
			break
		}
		hits = append(hits, hit)
		match, err = dmi.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("iterate profile matches: %w", err)
	}

	sort.Slice(hits, func(a, b int) bool {
		na, nb := strings.ToLower(hits[a].Name), strings.ToLower(hits[b].Name)
		if na != nb {
			return na < nb
		}
		return hits[a].ID < hits[b].ID
	})
	return hits, nil
}

// toDocument indexes kind and state as exact keywords and stores the display name for ordering.
func toDocument(profile domain.Profile) *bluge.Document {
	return bluge.NewDocument(profile.ID).
		AddField(bluge.NewKeywordField(fieldKind, string(profile.Kind))).
		AddField(bluge.NewKeywordField(fieldState, profile.State)).
		AddField(bluge.NewKeywordField(fieldName, profile.Name).StoreValue())
}

func (i *ProfileIndex) Close() error {
	return i.writer.Close()
}
