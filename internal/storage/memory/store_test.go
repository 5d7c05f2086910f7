package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_sync/internal/domain"
	"hotel_sync/internal/storage/memory"
)

func TestLedgerLifecycle(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	run, err := s.CreateRun(ctx, domain.SyncRun{Token: "tok", TenantID: 1, Total: 2}, []domain.SyncItem{
		{SourceID: 10, Type: domain.ItemReservation},
		{SourceID: 11, Type: domain.ItemStopSale},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RunPending, run.Status)

	_, err = s.CreateRun(ctx, domain.SyncRun{Token: "tok", TenantID: 1}, nil)
	assert.Error(t, err, "duplicate token")

	require.NoError(t, s.MarkRunning(ctx, run.ID))
	pid := int64(99)
	require.NoError(t, s.UpdateItem(ctx, run.ID, domain.ItemResult{SourceID: 10, Type: domain.ItemReservation, PartnerID: &pid}, time.Now()))
	require.NoError(t, s.UpdateItem(ctx, run.ID, domain.ItemResult{SourceID: 11, Type: domain.ItemStopSale, Err: domain.Transportf("down")}, time.Now()))
	assert.ErrorIs(t, s.UpdateItem(ctx, run.ID, domain.ItemResult{SourceID: 12}, time.Now()), domain.ErrNotFound)
	// processed items are not rewritten
	assert.ErrorIs(t, s.UpdateItem(ctx, run.ID, domain.ItemResult{SourceID: 10, Err: domain.Transportf("late")}, time.Now()), domain.ErrNotFound)
	require.NoError(t, s.CompleteRun(ctx, run.ID, 1, 1, time.Now()))

	got, err := s.RunByToken(ctx, 1, "tok")
	require.NoError(t, err)
	assert.Equal(t, domain.RunCompleted, got.Status)
	assert.Equal(t, got.Total, got.Successful+got.Failed)

	_, err = s.RunByToken(ctx, 2, "tok")
	assert.ErrorIs(t, err, domain.ErrNotFound, "runs are tenant scoped")

	items, err := s.Items(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, domain.ItemSuccess, items[0].Status)
	assert.Equal(t, domain.ItemFailed, items[1].Status)
	require.NotNil(t, items[1].Error)
}

func TestParseMarksSource(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	s.PutSource(1, domain.SourceInfo{SourceID: 5, Kind: domain.ItemUnknown})
	s.PutStopSale(domain.StopSale{ID: 50, TenantID: 1, SourceID: 5})

	require.NoError(t, s.Parse(ctx, 1, 5))
	info, err := s.SourceInfo(ctx, 1, 5)
	require.NoError(t, err)
	assert.True(t, info.Parsed)
	assert.Equal(t, domain.ItemStopSale, info.Kind)

	s.PutSource(1, domain.SourceInfo{SourceID: 6})
	assert.Error(t, s.Parse(ctx, 1, 6))
}

func TestMappingsUpsertLastWriteWins(t *testing.T) {
	s := memory.New()
	ctx := context.Background()
	require.NoError(t, s.UpsertMapping(ctx, domain.HotelMapping{TenantID: 1, NormalizedName: "mandarin", PartnerHotelID: 42}))
	require.NoError(t, s.UpsertMapping(ctx, domain.HotelMapping{TenantID: 1, NormalizedName: "mandarin", PartnerHotelID: 56}))

	m, ok, err := s.GetMapping(ctx, 1, "mandarin")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(56), m.PartnerHotelID)

	list, _ := s.ListMappings(ctx, 1, 10)
	assert.Len(t, list, 1)

	ok, _ = s.DeleteMapping(ctx, 1, "mandarin")
	assert.True(t, ok)
	ok, _ = s.DeleteMapping(ctx, 1, "mandarin")
	assert.False(t, ok)
}
