package mirror

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ab7289/dining-concierge/internal/model"
	"github.com/ab7289/dining-concierge/internal/store"
)

type fakeEvents struct {
	pending []*store.StoredEvent
	done    []int64
}

func (f *fakeEvents) Lease(_ context.Context, limit int) ([]*store.StoredEvent, error) {
	if limit > len(f.pending) {
		limit = len(f.pending)
	}
	out := f.pending[:limit]
	f.pending = f.pending[limit:]
	return out, nil
}

func (f *fakeEvents) MarkDone(_ context.Context, seqID int64) error {
	f.done = append(f.done, seqID)
	return nil
}

type fakeIndex struct {
	upserts map[string]string
	deletes []string
	failID  string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{upserts: make(map[string]string)}
}

func (f *fakeIndex) SearchByCuisine(context.Context, string) ([]string, int, error) {
	return nil, 0, nil
}

func (f *fakeIndex) UpsertRestaurant(_ context.Context, id, cuisine string) error {
	if id == f.failID {
		return errors.New("index unavailable")
	}
	f.upserts[id] = cuisine
	return nil
}

func (f *fakeIndex) DeleteRestaurant(_ context.Context, id string) error {
	if id == f.failID {
		return errors.New("index unavailable")
	}
	f.deletes = append(f.deletes, id)
	return nil
}

func ev(seq int64, kind, id, cuisine string) *store.StoredEvent {
	return &store.StoredEvent{
		SeqID: seq,
		RestaurantEvent: model.RestaurantEvent{
			Kind:    kind,
			ID:      id,
			Cuisine: cuisine,
		},
	}
}

func TestMirrorAppliesInsertsAndRemoves(t *testing.T) {
	events := &fakeEvents{pending: []*store.StoredEvent{
		ev(1, model.EventInsert, "r-1", "indian"),
		ev(2, model.EventInsert, "r-2", "thai"),
		ev(3, model.EventRemove, "r-1", "indian"),
	}}
	idx := newFakeIndex()
	m := New(events, idx, Config{BatchSize: 10}, zerolog.Nop())

	require.NoError(t, m.processOnce(context.Background()))

	assert.Equal(t, map[string]string{"r-1": "indian", "r-2": "thai"}, idx.upserts)
	assert.Equal(t, []string{"r-1"}, idx.deletes)
	assert.Equal(t, []int64{1, 2, 3}, events.done)
}

func TestMirrorDropsEventWithoutID(t *testing.T) {
	events := &fakeEvents{pending: []*store.StoredEvent{
		ev(7, model.EventInsert, "", "italian"),
		ev(8, model.EventInsert, "r-9", "italian"),
	}}
	idx := newFakeIndex()
	m := New(events, idx, Config{BatchSize: 10}, zerolog.Nop())

	require.NoError(t, m.processOnce(context.Background()))

	// The malformed event is acknowledged without an index write.
	assert.Empty(t, idx.upserts[""])
	assert.Equal(t, "italian", idx.upserts["r-9"])
	assert.Equal(t, []int64{7, 8}, events.done)
}

func TestMirrorDropsUnknownKind(t *testing.T) {
	events := &fakeEvents{pending: []*store.StoredEvent{
		ev(4, "modify", "r-3", "chinese"),
	}}
	idx := newFakeIndex()
	m := New(events, idx, Config{BatchSize: 10}, zerolog.Nop())

	require.NoError(t, m.processOnce(context.Background()))

	assert.Empty(t, idx.upserts)
	assert.Empty(t, idx.deletes)
	assert.Equal(t, []int64{4}, events.done)
}

func TestMirrorLeavesFailedApplyLeased(t *testing.T) {
	events := &fakeEvents{pending: []*store.StoredEvent{
		ev(1, model.EventInsert, "r-bad", "korean"),
		ev(2, model.EventInsert, "r-ok", "korean"),
	}}
	idx := newFakeIndex()
	idx.failID = "r-bad"
	m := New(events, idx, Config{BatchSize: 10}, zerolog.Nop())

	require.NoError(t, m.processOnce(context.Background()))

	// Only the successful apply is acknowledged; the failure stays leased
	// for redelivery.
	assert.Equal(t, []int64{2}, events.done)
	assert.Equal(t, "korean", idx.upserts["r-ok"])
}
