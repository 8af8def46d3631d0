package closures

import (
	"errors"
	"testing"
	"time"

	testingpkg "github.com/aristath/tradingcal/internal/testing"
	"github.com/golang-sql/civil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db := testingpkg.NewTestDB(t, "tradingcal")
	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestRepository_CreateAndGet(t *testing.T) {
	repo := newTestRepository(t)

	c := &Closure{
		Exchange: "XSTO",
		Date:     civil.Date{Year: 2024, Month: time.April, Day: 24},
		Kind:     KindEarlyClose,
		Time:     "13:00",
		Reason:   "System upgrade",
	}
	require.NoError(t, repo.Create(c))
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())

	got, err := repo.Get(c.ID)
	require.NoError(t, err)
	assert.Equal(t, *c, *got)

	_, err = repo.Get("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRepository_Duplicate(t *testing.T) {
	repo := newTestRepository(t)
	d := civil.Date{Year: 2024, Month: time.April, Day: 24}

	require.NoError(t, repo.Create(&Closure{Exchange: "XSTO", Date: d, Kind: KindClosed}))
	err := repo.Create(&Closure{Exchange: "XSTO", Date: d, Kind: KindClosed})
	assert.True(t, errors.Is(err, ErrDuplicate))

	// Other kinds and exchanges on the same date are fine
	require.NoError(t, repo.Create(&Closure{Exchange: "XSTO", Date: d, Kind: KindLateOpen, Time: "10:00"}))
	require.NoError(t, repo.Create(&Closure{Exchange: "XCSE", Date: d, Kind: KindClosed}))
}

func TestRepository_ListAndDelete(t *testing.T) {
	repo := newTestRepository(t)

	rows := []*Closure{
		{Exchange: "XSTO", Date: civil.Date{Year: 2024, Month: time.May, Day: 2}, Kind: KindClosed},
		{Exchange: "XCSE", Date: civil.Date{Year: 2024, Month: time.April, Day: 24}, Kind: KindClosed},
		{Exchange: "XSTO", Date: civil.Date{Year: 2024, Month: time.April, Day: 24}, Kind: KindClosed},
	}
	for _, c := range rows {
		require.NoError(t, repo.Create(c))
	}

	all, err := repo.List("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "XCSE", all[0].Exchange)
	assert.Equal(t, civil.Date{Year: 2024, Month: time.April, Day: 24}, all[1].Date)

	sto, err := repo.List("XSTO")
	require.NoError(t, err)
	assert.Len(t, sto, 2)

	require.NoError(t, repo.Delete(rows[0].ID))
	assert.True(t, errors.Is(repo.Delete(rows[0].ID), ErrNotFound))

	sto, err = repo.List("XSTO")
	require.NoError(t, err)
	assert.Len(t, sto, 1)
}
