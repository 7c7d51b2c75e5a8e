package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian/shiftboard/client"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCatalogRoundTrip(t *testing.T) {
	store := newTestStore(t)

	members := []client.Member{
		{ID: "u-1", Name: "Alice", LoginID: "alice", Role: "admin", Active: true},
		{ID: "u-2", Name: "Bo", Role: "member", Active: false},
	}
	shifts := []client.ShiftTemplate{
		{ID: "s-1", Name: "Mon 09-12", Weekday: 0, StartTime: "09:00:00", EndTime: "12:00:00"},
	}
	fetchedAt := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

	require.NoError(t, store.SaveCatalog(members, shifts, fetchedAt))

	gotMembers, gotShifts, gotFetched, err := store.LoadCatalog()
	require.NoError(t, err)
	assert.Equal(t, members, gotMembers)
	assert.Equal(t, shifts, gotShifts)
	assert.True(t, fetchedAt.Equal(gotFetched))
}

func TestCatalogSaveReplacesWholesale(t *testing.T) {
	store := newTestStore(t)
	fetchedAt := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, store.SaveCatalog(
		[]client.Member{{ID: "u-1", Name: "Alice", Role: "member", Active: true}},
		nil, fetchedAt))
	require.NoError(t, store.SaveCatalog(
		[]client.Member{{ID: "u-2", Name: "Bo", Role: "member", Active: true}},
		nil, fetchedAt))

	members, _, _, err := store.LoadCatalog()
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "u-2", members[0].ID)
}

func TestCatalogEmptyDatabase(t *testing.T) {
	store := newTestStore(t)

	members, shifts, fetchedAt, err := store.LoadCatalog()
	require.NoError(t, err)
	assert.Nil(t, members)
	assert.Nil(t, shifts)
	assert.True(t, fetchedAt.IsZero())
}

func TestSessionRoundTrip(t *testing.T) {
	store := newTestStore(t)

	expiry := time.Date(2026, time.March, 2, 18, 0, 0, 0, time.UTC)
	require.NoError(t, store.Save(client.Session{Token: "tok-1", Expiry: expiry}))

	session, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", session.Token)
	assert.True(t, expiry.Equal(session.Expiry))
}

func TestSessionSaveOverwrites(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(client.Session{Token: "old"}))
	require.NoError(t, store.Save(client.Session{Token: "new"}))

	session, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "new", session.Token)
}

func TestSessionClear(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Save(client.Session{Token: "tok-1"}))
	require.NoError(t, store.Clear())

	session, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, session.Token)
}

func TestSessionEmptyDatabase(t *testing.T) {
	store := newTestStore(t)

	session, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, session.Token)
	assert.True(t, session.Expiry.IsZero())
}
