package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/eternalvault/internal/common"
	"github.com/dmitrijs2005/eternalvault/internal/logging"
	"github.com/dmitrijs2005/eternalvault/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var dashNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type fakeURLs struct{ err error }

func (f fakeURLs) Put(context.Context, string, string, []byte) (string, error) { return "", nil }
func (f fakeURLs) Delete(context.Context, string) error                          { return nil }
func (f fakeURLs) URL(_ context.Context, ref string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://signed/" + ref, nil
}

func day(offset int) time.Time {
	return time.Date(2026, 10, 14+offset, 0, 0, 0, 0, time.UTC)
}

func newDashboard(rm *fakeRepoManager, blobs fakeURLs) *DashboardService {
	s := NewDashboardService(nil, rm, blobs, logging.Nop())
	s.now = func() time.Time { return dashNow }
	return s
}

func TestDaysUntilAndLabel(t *testing.T) {
	cases := []struct {
		unlock time.Time
		days   int
		label  string
	}{
		{day(-1), -1, ReadyLabel},
		{day(0), 0, ReadyLabel},
		{day(1), 1, "1 day"},
		{day(10), 10, "10 days"},
		{dashNow.Add(90 * time.Minute), 1, "1 day"},
	}
	for _, c := range cases {
		d := DaysUntil(c.unlock, dashNow)
		assert.Equal(t, c.days, d, c.unlock)
		assert.Equal(t, c.label, UnlockLabel(d))
	}
}

func TestDashboard_Get(t *testing.T) {
	rm := newFakeRepoManager()
	rm.profiles.byID = map[string]*models.Profile{"u1": {ID: "u1", Email: "a@x.com", FullName: "Ann"}}
	rm.vaults.list = []*models.Vault{
		{ID: "v2", UserID: "u1", Title: "Later", UnlockDate: day(10), Guardians: []string{"g@x.com", "h@x.com"},
			Message: "secret", Files: []string{"users/u1/k/a.jpg"}, Status: common.VaultStatusActive},
		{ID: "v1", UserID: "u1", Title: "Past", UnlockDate: day(-1), Guardians: []string{"g@x.com"},
			Message: "hello", Files: []string{}, Status: common.VaultStatusActive},
	}

	d, err := newDashboard(rm, fakeURLs{}).Get(context.Background(), "u1")
	require.NoError(t, err)

	assert.Equal(t, "Ann", d.WelcomeName)
	assert.Equal(t, Stats{ActiveVaults: 2, Guardians: 2, MemoriesSaved: 1}, d.Stats)
	require.Len(t, d.Vaults, 2)

	later := d.Vaults[0]
	assert.Equal(t, "v2", later.ID)
	assert.Equal(t, "10 days", later.UnlockLabel)
	assert.False(t, later.ReadyToOpen)
	assert.Empty(t, later.Message)
	assert.Equal(t, "2026-10-24", later.UnlockDate)
	if diff := cmp.Diff([]FileLink{{Name: "a.jpg", URL: "https://signed/users/u1/k/a.jpg"}}, later.Files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}

	past := d.Vaults[1]
	assert.True(t, past.ReadyToOpen)
	assert.Equal(t, ReadyLabel, past.UnlockLabel)
	assert.Equal(t, "hello", past.Message)

	assert.Equal(t, "/create-vault", d.QuickActions[0].Href)
}

func TestDashboard_EmptyAndEmailFallback(t *testing.T) {
	rm := newFakeRepoManager()
	rm.accounts.byEmail["b@x.com"] = &models.Account{ID: "u2", Email: "b@x.com"}

	d, err := newDashboard(rm, fakeURLs{}).Get(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, "b@x.com", d.WelcomeName)
	assert.NotNil(t, d.Vaults)
	assert.Empty(t, d.Vaults)
	assert.Equal(t, Stats{}, d.Stats)
}

func TestDashboard_Errors(t *testing.T) {
	rm := newFakeRepoManager()
	_, err := newDashboard(rm, fakeURLs{}).Get(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrorUnauthorized)

	rm.profiles.getErr = errors.New("db error: down")
	_, err = newDashboard(rm, fakeURLs{}).Get(context.Background(), "u1")
	require.ErrorIs(t, err, common.ErrorInternal)

	rm.profiles.getErr = nil
	rm.profiles.byID = map[string]*models.Profile{"u1": {ID: "u1", Email: "a@x.com"}}
	rm.vaults.err = errors.New("db error: down")
	_, err = newDashboard(rm, fakeURLs{}).Get(context.Background(), "u1")
	require.ErrorIs(t, err, common.ErrorInternal)
}

func TestDashboard_UnresolvedURLKeepsRef(t *testing.T) {
	rm := newFakeRepoManager()
	rm.vaults.list = []*models.Vault{{ID: "v1", UserID: "u1", UnlockDate: day(3), Files: []string{"k/a.jpg"}}}

	v, err := newDashboard(rm, fakeURLs{err: errors.New("presign")}).Vault(context.Background(), "u1", "v1")
	require.NoError(t, err)
	assert.Equal(t, "k/a.jpg", v.Files[0].URL)
	assert.Equal(t, "3 days", v.UnlockLabel)

	_, err = newDashboard(rm, fakeURLs{}).Vault(context.Background(), "u1", "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}
