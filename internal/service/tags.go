package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MaWoo96/ledgerview/internal/ledger"
	"github.com/MaWoo96/ledgerview/internal/store"
)

// TagService toggles a tag on a single row. Tag names are matched
// case-insensitively against the known vocabulary; an unknown name mints
// a new tag.
type TagService struct {
	Store store.TagStore
}

// Toggle adds the named tag to t, or removes it when t already carries
// it, and returns the updated row for the by-id merge. known is the tag
// vocabulary visible to the caller (the tags on the loaded rows).
func (s *TagService) Toggle(ctx context.Context, t ledger.Transaction, name string, known []ledger.Tag) (ledger.Transaction, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ledger.Transaction{}, fmt.Errorf("tag name required")
	}

	out := t
	out.Tags = append([]ledger.Tag(nil), t.Tags...)

	for i, tg := range out.Tags {
		if strings.EqualFold(tg.Name, name) {
			if err := s.Store.RemoveTag(ctx, t.ID, tg.ID); err != nil {
				return ledger.Transaction{}, fmt.Errorf("remove tag %s: %w", tg.Name, err)
			}
			out.Tags = append(out.Tags[:i], out.Tags[i+1:]...)
			return out, nil
		}
	}

	tag, minted := findTag(known, name)
	if minted {
		if err := s.Store.UpsertTag(ctx, tag); err != nil {
			return ledger.Transaction{}, fmt.Errorf("create tag %s: %w", name, err)
		}
	}
	if err := s.Store.AttachTag(ctx, t.ID, tag.ID); err != nil {
		return ledger.Transaction{}, fmt.Errorf("attach tag %s: %w", name, err)
	}
	out.Tags = append(out.Tags, tag)
	return out, nil
}

// findTag resolves name against the vocabulary, minting a new tag when
// absent. minted reports whether the tag is new.
func findTag(known []ledger.Tag, name string) (tag ledger.Tag, minted bool) {
	for _, tg := range known {
		if strings.EqualFold(tg.Name, name) {
			return tg, false
		}
	}
	return ledger.Tag{ID: uuid.NewString(), Name: name}, true
}
