package models_test

import (
	"context"
	"errors"
	"testing"

	"galpones/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBarnDraftValidate(t *testing.T) {
	tests := []struct {
		name    string
		draft   models.BarnDraft
		wantErr bool
	}{
		{"full barn", models.BarnDraft{BarnNumber: 1, ChickensInIt: 10, MaxCapacity: 10}, false},
		{"empty barn", models.BarnDraft{BarnNumber: 4, ChickensInIt: 0, MaxCapacity: 1}, false},
		{"zero barn number", models.BarnDraft{BarnNumber: 0, ChickensInIt: 0, MaxCapacity: 5}, true},
		{"zero capacity", models.BarnDraft{BarnNumber: 2, ChickensInIt: 0, MaxCapacity: 0}, true},
		{"negative chickens", models.BarnDraft{BarnNumber: 2, ChickensInIt: -1, MaxCapacity: 5}, true},
		{"over capacity", models.BarnDraft{BarnNumber: 2, ChickensInIt: 11, MaxCapacity: 10}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBarnDraftAndOccupancy(t *testing.T) {
	b := models.Barn{ID: 3, BarnNumber: 2, ChickensInIt: 4, MaxCapacity: 10}

	assert.Equal(t, models.BarnDraft{BarnNumber: 2, ChickensInIt: 4, MaxCapacity: 10}, b.Draft())
	assert.InDelta(t, 0.4, b.Occupancy(), 1e-9)
	assert.Equal(t, 0.0, models.Barn{}.Occupancy())
}

type stubLister struct {
	barns []models.Barn
	err   error
	calls int
}

func (s *stubLister) List(ctx context.Context) ([]models.Barn, error) {
	s.calls++
	return s.barns, s.err
}

func TestDirectoryRefreshSortsSnapshot(t *testing.T) {
	src := &stubLister{barns: []models.Barn{
		{ID: 10, BarnNumber: 5, MaxCapacity: 100},
		{ID: 11, BarnNumber: 1, MaxCapacity: 100},
		{ID: 12, BarnNumber: 3, MaxCapacity: 100},
	}}
	dir := models.NewDirectory(src)
	assert.True(t, dir.RefreshedAt().IsZero())

	require.NoError(t, dir.Refresh(context.Background()))

	barns := dir.Barns()
	require.Len(t, barns, 3)
	assert.Equal(t, []int{1, 3, 5}, []int{barns[0].BarnNumber, barns[1].BarnNumber, barns[2].BarnNumber})
	assert.False(t, dir.RefreshedAt().IsZero())

	found, ok := dir.Find(12)
	assert.True(t, ok)
	assert.Equal(t, 3, found.BarnNumber)

	_, ok = dir.Find(99)
	assert.False(t, ok)
}

func TestDirectoryRefreshFailureKeepsSnapshot(t *testing.T) {
	src := &stubLister{barns: []models.Barn{{ID: 1, BarnNumber: 1, MaxCapacity: 5}}}
	dir := models.NewDirectory(src)
	require.NoError(t, dir.Refresh(context.Background()))

	src.err = errors.New("connection refused")
	assert.Error(t, dir.Refresh(context.Background()))
	assert.Len(t, dir.Barns(), 1)
	assert.Equal(t, 2, src.calls)
}

func TestDirectoryNumbering(t *testing.T) {
	t.Run("empty directory starts at one", func(t *testing.T) {
		dir := models.NewDirectory(&stubLister{})
		require.NoError(t, dir.Refresh(context.Background()))

		assert.Equal(t, 1, dir.NextAvailableBarnNumber())
		assert.True(t, dir.IsBarnNumberUnique(1))
	})

	t.Run("contiguous numbers", func(t *testing.T) {
		src := &stubLister{}
		for i := 1; i <= 6; i++ {
			src.barns = append(src.barns, models.Barn{ID: int64(i), BarnNumber: i, MaxCapacity: 10})
		}
		dir := models.NewDirectory(src)
		require.NoError(t, dir.Refresh(context.Background()))

		assert.Equal(t, 7, dir.NextAvailableBarnNumber())
		assert.False(t, dir.IsBarnNumberUnique(6))
		assert.True(t, dir.IsBarnNumberUnique(7))
	})

	t.Run("gap is reused", func(t *testing.T) {
		src := &stubLister{barns: []models.Barn{
			{ID: 1, BarnNumber: 1}, {ID: 2, BarnNumber: 2}, {ID: 4, BarnNumber: 4},
		}}
		dir := models.NewDirectory(src)
		require.NoError(t, dir.Refresh(context.Background()))

		assert.Equal(t, 3, dir.NextAvailableBarnNumber())
		assert.True(t, dir.IsBarnNumberUnique(3))
		assert.False(t, dir.IsBarnNumberUnique(4))
	})
}
