package app_test

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_sync/internal/app"
	"hotel_sync/internal/domain"
	"hotel_sync/internal/storage/memory"
)

func newWriter(st *memory.Store, p *fakePartner, h *fakeHotels) *app.PartnerWriter {
	return app.NewPartnerWriter(st, p, h, newRefs(), zerolog.Nop())
}

func TestSyncStopSale_TwoPhaseCarriesParentID(t *testing.T) {
	st := memory.New()
	seedStopSale(st, 5)
	p := &fakePartner{}
	w := newWriter(st, p, &fakeHotels{id: 56})

	id, err := w.SyncStopSale(context.Background(), tenant, testCfg, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(777), id)

	require.Len(t, p.stopSales, 2)
	phase1, phase2 := p.stopSales[0], p.stopSales[1]

	assert.Zero(t, phase1.RecID)
	assert.Empty(t, phase1.StopSaleRooms)
	assert.Empty(t, phase1.StopSaleBoards)
	assert.Equal(t, int64(56), phase1.HotelID)
	assert.Equal(t, "2025-08-01", phase1.BeginDate)
	assert.True(t, phase1.IsClose)

	assert.Equal(t, int64(777), phase2.RecID)
	require.Len(t, phase2.StopSaleRooms, 2, "unknown room codes are dropped")
	require.Len(t, phase2.StopSaleBoards, 1)
	for _, r := range phase2.StopSaleRooms {
		assert.Equal(t, int64(777), r.StopSaleID)
	}
	for _, b := range phase2.StopSaleBoards {
		assert.Equal(t, int64(777), b.StopSaleID)
	}

	for _, ss := range p.stopSales {
		assert.True(t, strings.HasSuffix(ss.OperatorRemark, ";"), "operator remark %q", ss.OperatorRemark)
	}

	rec, _ := st.StopSaleBySource(context.Background(), tenant, 5)
	assert.True(t, rec.Synced)
	require.NotNil(t, rec.PartnerID)
	assert.Equal(t, int64(777), *rec.PartnerID)
}

func TestSyncStopSale_Phase2FailureLeavesOrphan(t *testing.T) {
	st := memory.New()
	seedStopSale(st, 5)
	p := &fakePartner{stopSaleErrs: []error{nil, domain.Transportf("SaveStopSale: timeout")}}
	w := newWriter(st, p, &fakeHotels{id: 56})

	_, err := w.SyncStopSale(context.Background(), tenant, testCfg, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Contains(t, err.Error(), "777")

	rec, _ := st.StopSaleBySource(context.Background(), tenant, 5)
	assert.False(t, rec.Synced)

	// a retry starts over with a fresh parent
	p.stopSaleErrs = nil
	_, err = w.SyncStopSale(context.Background(), tenant, testCfg, 5)
	require.NoError(t, err)
	require.Len(t, p.stopSales, 4)
	assert.Zero(t, p.stopSales[2].RecID)
}

func TestSyncStopSale_Phase1Failure(t *testing.T) {
	st := memory.New()
	seedStopSale(st, 5)
	p := &fakePartner{stopSaleErrs: []error{&domain.PartnerRejectedError{Code: 4, Message: "Hotel closed"}}}
	w := newWriter(st, p, &fakeHotels{id: 56})

	_, err := w.SyncStopSale(context.Background(), tenant, testCfg, 5)
	assert.ErrorIs(t, err, domain.ErrPartnerRejected)
	_, stops := p.calls()
	assert.Equal(t, 1, stops, "phase 2 must not run")
}

func TestSync_AlreadySyncedShortCircuits(t *testing.T) {
	st := memory.New()
	seedReservation(st, 1)
	seedStopSale(st, 2)
	ctx := context.Background()
	require.NoError(t, st.MarkReservationSynced(ctx, tenant, 10, 5001))
	require.NoError(t, st.MarkStopSaleSynced(ctx, tenant, 20, 6001))

	p := &fakePartner{}
	h := &fakeHotels{id: 56}
	w := newWriter(st, p, h)

	id, err := w.SyncReservation(ctx, tenant, testCfg, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5001), id)
	id, err = w.SyncStopSale(ctx, tenant, testCfg, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(6001), id)

	res, stops := p.calls()
	assert.Zero(t, res)
	assert.Zero(t, stops)
	assert.Zero(t, h.calls)
}

func TestSyncReservation_Payload(t *testing.T) {
	st := memory.New()
	seedReservation(st, 1)
	p := &fakePartner{}
	w := newWriter(st, p, &fakeHotels{id: 56})

	id, err := w.SyncReservation(context.Background(), tenant, testCfg, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1001), id)

	require.Len(t, p.reservations, 1)
	got := p.reservations[0]
	assert.Equal(t, int64(56), got.HotelID)
	assert.Equal(t, int64(571), got.OperatorID)
	assert.Equal(t, int64(12), got.RoomTypeID)
	assert.Equal(t, int64(3), got.BoardID)
	assert.Equal(t, "2025-07-01", got.CheckinDate)
	assert.Equal(t, "2025-07-08", got.CheckOutDate)
	assert.Equal(t, "V-1", got.Voucher)
	assert.Equal(t, "7STAR;", got.OperatorRemark)
	require.Len(t, got.Customers, 1)
	assert.Equal(t, "Mrs", got.Customers[0].Title)
	assert.Equal(t, "AYSE", got.Customers[0].FirstName)

	rec, _ := st.ReservationBySource(context.Background(), tenant, 1)
	assert.True(t, rec.Synced)
}

func TestSyncReservation_AssignedHotelBypassesLookup(t *testing.T) {
	st := memory.New()
	seedReservation(st, 1)
	rec, _ := st.ReservationBySource(context.Background(), tenant, 1)
	assigned := int64(99)
	rec.PartnerHotelID = &assigned
	st.PutReservation(rec)

	p := &fakePartner{}
	h := &fakeHotels{err: domain.Resolutionf("should not be asked")}
	w := newWriter(st, p, h)

	_, err := w.SyncReservation(context.Background(), tenant, testCfg, 1)
	require.NoError(t, err)
	assert.Zero(t, h.calls)
	assert.Equal(t, int64(99), p.reservations[0].HotelID)
}

func TestSyncReservation_ResolutionFailures(t *testing.T) {
	ctx := context.Background()

	cases := map[string]func(r *domain.Reservation){
		"missing room":  func(r *domain.Reservation) { r.RoomCode = " " },
		"unknown room":  func(r *domain.Reservation) { r.RoomCode = "VILLA" },
		"missing board": func(r *domain.Reservation) { r.BoardCode = "" },
		"unknown board": func(r *domain.Reservation) { r.BoardCode = "UAI" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			st := memory.New()
			seedReservation(st, 1)
			rec, _ := st.ReservationBySource(ctx, tenant, 1)
			mutate(&rec)
			st.PutReservation(rec)
			p := &fakePartner{}

			_, err := newWriter(st, p, &fakeHotels{id: 56}).SyncReservation(ctx, tenant, testCfg, 1)
			assert.ErrorIs(t, err, domain.ErrResolution)
			n, _ := p.calls()
			assert.Zero(t, n)
		})
	}

	t.Run("unknown hotel", func(t *testing.T) {
		st := memory.New()
		seedReservation(st, 1)
		_, err := newWriter(st, &fakePartner{}, &fakeHotels{err: domain.Resolutionf("hotel not found")}).
			SyncReservation(ctx, tenant, testCfg, 1)
		assert.ErrorIs(t, err, domain.ErrResolution)
	})
}

func TestSyncReservation_Rejected(t *testing.T) {
	st := memory.New()
	seedReservation(st, 1)
	p := &fakePartner{failVoucher: map[string]error{"V-1": &domain.PartnerRejectedError{Code: 2, Message: "Contract not found"}}}

	_, err := newWriter(st, p, &fakeHotels{id: 56}).SyncReservation(context.Background(), tenant, testCfg, 1)
	assert.ErrorIs(t, err, domain.ErrPartnerRejected)
	assert.Contains(t, err.Error(), "Contract not found")

	rec, _ := st.ReservationBySource(context.Background(), tenant, 1)
	assert.False(t, rec.Synced)
}
