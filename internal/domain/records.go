package domain

import "time"

// SourceInfo is what the parsing collaborator knows about a source item.
type SourceInfo struct {
	SourceID int64
	Kind     ItemType
	Parsed   bool
}

type Guest struct {
	Title       string
	FirstName   string
	LastName    string
	BirthDate   *time.Time
	Age         *int
	Nationality string
}

// Reservation is a parsed booking committed by the parsing collaborator.
type Reservation struct {
	ID             int64
	TenantID       int64
	SourceID       int64
	HotelName      string
	PartnerHotelID *int64
	CheckIn        time.Time
	CheckOut       time.Time
	Adults         int
	Children       int
	RoomCode       string
	BoardCode      string
	TotalPrice     *float64
	Currency       string
	VoucherNo      string
	Guests         []Guest
	Synced         bool
	PartnerID      *int64
}

// StopSale declares a hotel/room/board/date range closed (or reopened).
// Empty RoomCodes/BoardCodes mean "all rooms"/"all boards".
type StopSale struct {
	ID             int64
	TenantID       int64
	SourceID       int64
	HotelName      string
	PartnerHotelID *int64
	DateFrom       time.Time
	DateTo         time.Time
	RoomCodes      []string
	BoardCodes     []string
	IsClose        bool
	Reason         string
	Synced         bool
	PartnerID      *int64
}

// PartnerConfig holds decrypted per-tenant partner credentials.
type PartnerConfig struct {
	BaseURL      string `yaml:"base_url"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	OperatorID   int64  `yaml:"operator_id"`
	OperatorCode string `yaml:"operator_code"`
}

func (c PartnerConfig) Configured() bool {
	return c.BaseURL != "" && c.Username != ""
}
