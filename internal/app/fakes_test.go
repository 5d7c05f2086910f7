package app_test

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"hotel_sync/internal/domain"
	"hotel_sync/internal/storage/memory"
)

// ---- fakes ----

type fakePartner struct {
	mu           sync.Mutex
	nextID       int64
	reservations []domain.PartnerReservation
	stopSales    []domain.PartnerStopSale
	failVoucher  map[string]error // InsertReservation errors by voucher
	stopSaleErrs []error          // SaveStopSale errors by call index
}

func (f *fakePartner) RoomTypes(ctx context.Context, cfg domain.PartnerConfig) ([]domain.RefCode, error) {
	return nil, nil
}
func (f *fakePartner) Boards(ctx context.Context, cfg domain.PartnerConfig) ([]domain.RefCode, error) {
	return nil, nil
}
func (f *fakePartner) Hotels(ctx context.Context, cfg domain.PartnerConfig) ([]domain.PartnerHotel, error) {
	return nil, nil
}

func (f *fakePartner) InsertReservation(ctx context.Context, cfg domain.PartnerConfig, r domain.PartnerReservation) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reservations = append(f.reservations, r)
	if err := f.failVoucher[r.Voucher]; err != nil {
		return 0, err
	}
	f.nextID++
	return 1000 + f.nextID, nil
}

func (f *fakePartner) SaveStopSale(ctx context.Context, cfg domain.PartnerConfig, s domain.PartnerStopSale) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := len(f.stopSales)
	f.stopSales = append(f.stopSales, s)
	if i < len(f.stopSaleErrs) && f.stopSaleErrs[i] != nil {
		return 0, f.stopSaleErrs[i]
	}
	if s.RecID != 0 {
		return s.RecID, nil
	}
	return 777, nil
}

func (f *fakePartner) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reservations), len(f.stopSales)
}

type fakeHotels struct {
	id    int64
	err   error
	panic bool
	calls int
}

func (f *fakeHotels) HotelID(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, name string) (int64, error) {
	f.calls++
	if f.panic {
		panic("hotel index corrupted")
	}
	return f.id, f.err
}

type fakeRefs struct {
	rooms  map[string]int64
	boards map[string]int64
}

func newRefs() *fakeRefs {
	return &fakeRefs{
		rooms:  map[string]int64{"DBL": 12, "STDSV": 11},
		boards: map[string]int64{"AI": 3, "HB": 4},
	}
}

func (f *fakeRefs) RoomTypeID(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, code string) (int64, bool) {
	id, ok := f.rooms[strings.ToUpper(code)]
	return id, ok
}
func (f *fakeRefs) RoomTypeIDs(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, codes []string) []int64 {
	var out []int64
	for _, c := range codes {
		if id, ok := f.rooms[strings.ToUpper(c)]; ok {
			out = append(out, id)
		}
	}
	return out
}
func (f *fakeRefs) BoardID(ctx context.Context, cfg domain.PartnerConfig, code string) (int64, bool) {
	id, ok := f.boards[strings.ToUpper(code)]
	return id, ok
}
func (f *fakeRefs) BoardIDs(ctx context.Context, cfg domain.PartnerConfig, codes []string) []int64 {
	var out []int64
	for _, c := range codes {
		if id, ok := f.boards[strings.ToUpper(c)]; ok {
			out = append(out, id)
		}
	}
	return out
}

type staticCreds struct {
	cfg domain.PartnerConfig
	err error
}

func (s staticCreds) PartnerConfig(ctx context.Context, tenantID int64) (domain.PartnerConfig, error) {
	return s.cfg, s.err
}

var testCfg = domain.PartnerConfig{BaseURL: "http://partner", Username: "agency", Password: "secret", OperatorID: 571, OperatorCode: "7STAR"}

const tenant = int64(1)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func seedReservation(st *memory.Store, sourceID int64) {
	st.PutSource(tenant, domain.SourceInfo{SourceID: sourceID, Kind: domain.ItemReservation, Parsed: true})
	st.PutReservation(domain.Reservation{
		ID:        sourceID * 10,
		TenantID:  tenant,
		SourceID:  sourceID,
		HotelName: "Grand Mandarin Resort",
		CheckIn:   day("2025-07-01"),
		CheckOut:  day("2025-07-08"),
		Adults:    2,
		RoomCode:  "dbl",
		BoardCode: "AI",
		VoucherNo: voucher(sourceID),
		Guests:    []domain.Guest{{Title: "Mrs.", FirstName: "Ayse", LastName: "Yilmaz"}},
	})
}

func seedStopSale(st *memory.Store, sourceID int64) {
	st.PutSource(tenant, domain.SourceInfo{SourceID: sourceID, Kind: domain.ItemStopSale, Parsed: true})
	st.PutStopSale(domain.StopSale{
		ID:         sourceID * 10,
		TenantID:   tenant,
		SourceID:   sourceID,
		HotelName:  "Grand Mandarin Resort",
		DateFrom:   day("2025-08-01"),
		DateTo:     day("2025-08-10"),
		RoomCodes:  []string{"DBL", "STDSV", "SUITE"},
		BoardCodes: []string{"AI"},
		IsClose:    true,
	})
}

func voucher(sourceID int64) string {
	return "V-" + strconv.FormatInt(sourceID, 10)
}
