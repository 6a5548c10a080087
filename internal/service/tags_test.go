package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MaWoo96/ledgerview/internal/ledger"
)

type fakeTagStore struct {
	upserted []ledger.Tag
	attached [][2]string
	removed  [][2]string
}

func (f *fakeTagStore) UpsertTag(_ context.Context, t ledger.Tag) error {
	f.upserted = append(f.upserted, t)
	return nil
}

func (f *fakeTagStore) AttachTag(_ context.Context, txID, tagID string) error {
	f.attached = append(f.attached, [2]string{txID, tagID})
	return nil
}

func (f *fakeTagStore) RemoveTag(_ context.Context, txID, tagID string) error {
	f.removed = append(f.removed, [2]string{txID, tagID})
	return nil
}

func TestToggleAttachesKnownTag(t *testing.T) {
	t.Parallel()

	fs := &fakeTagStore{}
	svc := &TagService{Store: fs}
	known := []ledger.Tag{{ID: "tag-1", Name: "deductible"}}
	row := ledger.Transaction{ID: "t1", Date: "2024-11-01"}

	out, err := svc.Toggle(context.Background(), row, "Deductible", known)
	require.NoError(t, err)
	require.Empty(t, fs.upserted, "known tags are never re-minted")
	require.Equal(t, [][2]string{{"t1", "tag-1"}}, fs.attached)
	require.True(t, out.HasTag("tag-1"))
	require.Empty(t, row.Tags, "input row is not mutated")
}

func TestToggleMintsUnknownTag(t *testing.T) {
	t.Parallel()

	fs := &fakeTagStore{}
	svc := &TagService{Store: fs}
	row := ledger.Transaction{ID: "t1", Date: "2024-11-01"}

	out, err := svc.Toggle(context.Background(), row, "travel", nil)
	require.NoError(t, err)
	require.Len(t, fs.upserted, 1)
	require.Equal(t, "travel", fs.upserted[0].Name)
	require.Len(t, out.Tags, 1)
	require.Equal(t, fs.upserted[0].ID, out.Tags[0].ID)
}

func TestToggleRemovesCarriedTag(t *testing.T) {
	t.Parallel()

	fs := &fakeTagStore{}
	svc := &TagService{Store: fs}
	row := ledger.Transaction{
		ID: "t1", Date: "2024-11-01",
		Tags: []ledger.Tag{{ID: "tag-1", Name: "deductible"}, {ID: "tag-2", Name: "recurring"}},
	}

	out, err := svc.Toggle(context.Background(), row, "DEDUCTIBLE", nil)
	require.NoError(t, err)
	require.Equal(t, [][2]string{{"t1", "tag-1"}}, fs.removed)
	require.Empty(t, fs.attached)
	require.False(t, out.HasTag("tag-1"))
	require.True(t, out.HasTag("tag-2"))
}

func TestToggleEmptyName(t *testing.T) {
	t.Parallel()

	svc := &TagService{Store: &fakeTagStore{}}
	_, err := svc.Toggle(context.Background(), ledger.Transaction{ID: "t1"}, "  ", nil)
	require.Error(t, err)
}
