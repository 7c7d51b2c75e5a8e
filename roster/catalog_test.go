package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/shiftboard/client"
)

type fakeDirectory struct {
	members []client.Member
	shifts  []client.ShiftTemplate
	err     error
	calls   int
}

func (f *fakeDirectory) ListMembers(context.Context) ([]client.Member, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.members, nil
}

func (f *fakeDirectory) ListShifts(context.Context) ([]client.ShiftTemplate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.shifts, nil
}

type fakeStore struct {
	members   []client.Member
	shifts    []client.ShiftTemplate
	fetchedAt time.Time
	saves     int
}

func (f *fakeStore) LoadCatalog() ([]client.Member, []client.ShiftTemplate, time.Time, error) {
	return f.members, f.shifts, f.fetchedAt, nil
}

func (f *fakeStore) SaveCatalog(members []client.Member, shifts []client.ShiftTemplate, fetchedAt time.Time) error {
	f.members, f.shifts, f.fetchedAt = members, shifts, fetchedAt
	f.saves++
	return nil
}

func TestCatalogFetchesOnceWithinTTL(t *testing.T) {
	dir := &fakeDirectory{members: []client.Member{{ID: "u-1", Name: "Alice"}}}
	cat := NewCatalog(dir)

	for i := 0; i < 3; i++ {
		members, err := cat.Members(context.Background())
		require.NoError(t, err)
		require.Len(t, members, 1)
	}
	assert.Equal(t, 1, dir.calls)
}

func TestCatalogRefetchesAfterTTL(t *testing.T) {
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{members: []client.Member{{ID: "u-1"}}}
	cat := NewCatalog(dir, WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	_, err := cat.Members(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = cat.Members(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dir.calls)
}

func TestCatalogServesStaleOnFetchFailure(t *testing.T) {
	// GIVEN a primed catalog whose directory then goes down
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	dir := &fakeDirectory{members: []client.Member{{ID: "u-1", Name: "Alice"}}}
	cat := NewCatalog(dir, WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	_, err := cat.Members(context.Background())
	require.NoError(t, err)

	dir.err = errors.New("backend down")
	now = now.Add(time.Hour)

	// THEN the stale copy is served without error
	members, err := cat.Members(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Alice", members[0].Name)
}

func TestCatalogUnprimedFailurePropagates(t *testing.T) {
	dir := &fakeDirectory{err: errors.New("backend down")}
	cat := NewCatalog(dir)

	_, err := cat.Members(context.Background())
	require.Error(t, err)
}

func TestCatalogSeedsFromStore(t *testing.T) {
	store := &fakeStore{
		members:   []client.Member{{ID: "u-9", Name: "Bea"}},
		fetchedAt: time.Now(),
	}
	dir := &fakeDirectory{}
	cat := NewCatalog(dir, WithStore(store))

	members, err := cat.Members(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Bea", members[0].Name)
	assert.Equal(t, 0, dir.calls)
}

func TestCatalogPersistsThroughStore(t *testing.T) {
	store := &fakeStore{}
	dir := &fakeDirectory{members: []client.Member{{ID: "u-1"}}, shifts: []client.ShiftTemplate{{ID: "s-1"}}}
	cat := NewCatalog(dir, WithStore(store))

	_, err := cat.Members(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, store.saves)
	require.Len(t, store.members, 1)
}

func TestCatalogInvalidateForcesRefetch(t *testing.T) {
	dir := &fakeDirectory{members: []client.Member{{ID: "u-1"}}}
	cat := NewCatalog(dir)

	_, err := cat.Members(context.Background())
	require.NoError(t, err)
	cat.Invalidate()
	_, err = cat.Members(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dir.calls)
}

func TestMemberByID(t *testing.T) {
	dir := &fakeDirectory{members: []client.Member{{ID: "u-1", Name: "Alice"}, {ID: "u-2", Name: "Bo"}}}
	cat := NewCatalog(dir)

	m, ok, err := cat.MemberByID(context.Background(), "u-2")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Bo", m.Name)

	_, ok, err = cat.MemberByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}
