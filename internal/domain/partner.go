package domain

// Partner wire payloads. Field names follow the partner API's JSON.

type PartnerCustomer struct {
	Title       string `json:"Title"`
	FirstName   string `json:"FirstName"`
	LastName    string `json:"LastName"`
	BirthDate   string `json:"BirthDate,omitempty"`
	Age         *int   `json:"Age,omitempty"`
	Nationality string `json:"Nationality,omitempty"`
}

type PartnerReservation struct {
	HotelID           int64             `json:"HotelId"`
	OperatorID        int64             `json:"OperatorId"`
	CheckinDate       string            `json:"CheckinDate"`
	CheckOutDate      string            `json:"CheckOutDate"`
	Adult             int               `json:"Adult"`
	Child             int               `json:"Child"`
	BoardID           int64             `json:"BoardId"`
	RoomTypeID        int64             `json:"RoomTypeId"`
	Customers         []PartnerCustomer `json:"Customers"`
	Voucher           string            `json:"Voucher,omitempty"`
	SourceID          string            `json:"SourceId,omitempty"`
	Amount            *float64          `json:"Amount,omitempty"`
	Currency          string            `json:"Currency,omitempty"`
	OperatorRemark    string            `json:"OperatorRemark"`
	ReservationRemark string            `json:"ReservationRemark,omitempty"`
}

type PartnerStopSaleRoom struct {
	StopSaleID int64 `json:"StopSaleId"`
	RoomTypeID int64 `json:"RoomTypeId"`
}

type PartnerStopSaleBoard struct {
	StopSaleID int64 `json:"StopSaleId"`
	BoardID    int64 `json:"BoardId"`
}

// PartnerStopSale is created with RecID 0 and updated with the assigned id.
type PartnerStopSale struct {
	RecID          int64                  `json:"RecId"`
	HotelID        int64                  `json:"HotelId"`
	OperatorID     int64                  `json:"OperatorId"`
	BeginDate      string                 `json:"BeginDate"`
	EndDate        string                 `json:"EndDate"`
	IsClose        bool                   `json:"IsClose"`
	OperatorRemark string                 `json:"OperatorRemark"`
	Remark         string                 `json:"Remark,omitempty"`
	StopSaleRooms  []PartnerStopSaleRoom  `json:"StopSaleRooms"`
	StopSaleBoards []PartnerStopSaleBoard `json:"StopSaleBoards"`
}
