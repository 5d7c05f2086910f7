// Package refdata resolves partner room-type and board codes to partner ids.
package refdata

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"hotel_sync/internal/domain"
)

const boardsKey = "global"

// Codes maps an upper-cased, trimmed code to its partner id.
type Codes map[string]int64

// Cache holds room types per tenant and boards globally.
type Cache struct {
	partner domain.PartnerClient
	rooms   *Snapshots[Codes]
	boards  *Snapshots[Codes]
	log     zerolog.Logger
}

type Option func(*options)

type options struct {
	shared domain.Cache
	now    func() time.Time
}

// WithShared enables a snapshot store shared between processes.
func WithShared(c domain.Cache) Option { return func(o *options) { o.shared = c } }

func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

func New(p domain.PartnerClient, ttl time.Duration, log zerolog.Logger, opts ...Option) *Cache {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Cache{
		partner: p,
		rooms:   NewSnapshots[Codes]("refdata:rooms", o.shared, ttl, o.now),
		boards:  NewSnapshots[Codes]("refdata:boards", o.shared, ttl, o.now),
		log:     log.With().Str("component", "refdata").Logger(),
	}
}

func normCode(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }

func toCodes(rs []domain.RefCode) Codes {
	out := make(Codes, len(rs))
	for _, r := range rs {
		out[normCode(r.Code)] = r.ID
	}
	return out
}

func tenantKey(tenantID int64) string { return strconv.FormatInt(tenantID, 10) }

func (c *Cache) roomCodes(ctx context.Context, tenantID int64, cfg domain.PartnerConfig) Codes {
	l := c.rooms.Get(ctx, tenantKey(tenantID), func(ctx context.Context) (Codes, error) {
		rs, err := c.partner.RoomTypes(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return toCodes(rs), nil
	})
	if l.Err != nil {
		c.log.Warn().Err(l.Err).Int64("tenant", tenantID).Bool("stale", l.Found).Msg("room type refresh failed")
	}
	return l.Data
}

func (c *Cache) boardCodes(ctx context.Context, cfg domain.PartnerConfig) Codes {
	l := c.boards.Get(ctx, boardsKey, func(ctx context.Context) (Codes, error) {
		rs, err := c.partner.Boards(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return toCodes(rs), nil
	})
	if l.Err != nil {
		c.log.Warn().Err(l.Err).Bool("stale", l.Found).Msg("board refresh failed")
	}
	return l.Data
}

// RoomTypeID resolves a room code for the tenant, refreshing the tenant's
// snapshot first when it is absent or stale.
func (c *Cache) RoomTypeID(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, code string) (int64, bool) {
	id, ok := c.roomCodes(ctx, tenantID, cfg)[normCode(code)]
	return id, ok
}

// RoomTypeIDs drops unknown codes; an empty result means "all rooms".
func (c *Cache) RoomTypeIDs(ctx context.Context, tenantID int64, cfg domain.PartnerConfig, codes []string) []int64 {
	if len(codes) == 0 {
		return nil
	}
	return pick(c.roomCodes(ctx, tenantID, cfg), codes)
}

func (c *Cache) BoardID(ctx context.Context, cfg domain.PartnerConfig, code string) (int64, bool) {
	id, ok := c.boardCodes(ctx, cfg)[normCode(code)]
	return id, ok
}

// BoardIDs drops unknown codes; an empty result means "all boards".
func (c *Cache) BoardIDs(ctx context.Context, cfg domain.PartnerConfig, codes []string) []int64 {
	if len(codes) == 0 {
		return nil
	}
	return pick(c.boardCodes(ctx, cfg), codes)
}

func pick(m Codes, codes []string) []int64 {
	var out []int64
	seen := map[int64]bool{}
	for _, code := range codes {
		if id, ok := m[normCode(code)]; ok && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Refresh force-fetches the tenant's room types and the global boards.
func (c *Cache) Refresh(ctx context.Context, tenantID int64, cfg domain.PartnerConfig) error {
	if _, err := c.rooms.Refresh(ctx, tenantKey(tenantID), func(ctx context.Context) (Codes, error) {
		rs, err := c.partner.RoomTypes(ctx, cfg)
		return toCodes(rs), err
	}); err != nil {
		return err
	}
	_, err := c.boards.Refresh(ctx, boardsKey, func(ctx context.Context) (Codes, error) {
		rs, err := c.partner.Boards(ctx, cfg)
		return toCodes(rs), err
	})
	return err
}

type Stats struct {
	RoomTypes          int        `json:"room_types_cached"`
	RoomTypesRefreshed *time.Time `json:"room_types_last_refresh"`
	Boards             int        `json:"board_types_cached"`
	BoardsRefreshed    *time.Time `json:"board_types_last_refresh"`
	TTLHours           float64    `json:"cache_ttl_hours"`
}

func (c *Cache) Stats(tenantID int64) Stats {
	st := Stats{TTLHours: c.rooms.TTL().Hours()}
	if snap, ok := c.rooms.Peek(tenantKey(tenantID)); ok {
		st.RoomTypes = len(snap.Data)
		at := snap.FetchedAt
		st.RoomTypesRefreshed = &at
	}
	if snap, ok := c.boards.Peek(boardsKey); ok {
		st.Boards = len(snap.Data)
		at := snap.FetchedAt
		st.BoardsRefreshed = &at
	}
	return st
}

// Clear drops the tenant's room types. A zero tenant clears everything.
func (c *Cache) Clear(ctx context.Context, tenantID int64) {
	if tenantID != 0 {
		c.rooms.Delete(ctx, tenantKey(tenantID))
		return
	}
	for _, k := range c.rooms.Keys() {
		c.rooms.Delete(ctx, k)
	}
	c.boards.Delete(ctx, boardsKey)
}
