package app

import (
	"fmt"
	"strings"

	"hotel_sync/internal/domain"
)

// DefaultOperatorCode is written when the tenant has no operator code.
const DefaultOperatorCode = "MINDOPS"

const partnerDate = "2006-01-02"

// operatorRemark is the annotation the partner UI needs to render the
// record. It must end with exactly one ";".
func operatorRemark(cfg domain.PartnerConfig) string {
	code := strings.TrimSpace(cfg.OperatorCode)
	if code == "" {
		code = DefaultOperatorCode
	}
	return strings.TrimRight(code, "; ") + ";"
}

func reservationPayload(r domain.Reservation, cfg domain.PartnerConfig, hotelID, roomID, boardID int64) domain.PartnerReservation {
	p := domain.PartnerReservation{
		HotelID:        hotelID,
		OperatorID:     cfg.OperatorID,
		CheckinDate:    r.CheckIn.Format(partnerDate),
		CheckOutDate:   r.CheckOut.Format(partnerDate),
		Adult:          r.Adults,
		Child:          r.Children,
		BoardID:        boardID,
		RoomTypeID:     roomID,
		Customers:      make([]domain.PartnerCustomer, 0, len(r.Guests)),
		Voucher:        r.VoucherNo,
		SourceID:       fmt.Sprintf("MO-%d", r.ID),
		Amount:         r.TotalPrice,
		Currency:       r.Currency,
		OperatorRemark: operatorRemark(cfg),
	}
	for _, g := range r.Guests {
		c := domain.PartnerCustomer{
			Title:       guestTitle(g.Title),
			FirstName:   strings.ToUpper(strings.TrimSpace(g.FirstName)),
			LastName:    strings.ToUpper(strings.TrimSpace(g.LastName)),
			Age:         g.Age,
			Nationality: g.Nationality,
		}
		if g.BirthDate != nil {
			c.BirthDate = g.BirthDate.Format(partnerDate)
		}
		p.Customers = append(p.Customers, c)
	}
	return p
}

// guestTitle maps free-text titles onto the partner's fixed set.
func guestTitle(t string) string {
	switch strings.ToLower(strings.Trim(strings.TrimSpace(t), ".")) {
	case "mrs", "ms", "miss", "bayan":
		return "Mrs"
	case "chd", "child", "cocuk":
		return "Chd"
	case "inf", "infant", "bebek":
		return "Inf"
	default:
		return "Mr"
	}
}

// stopSaleParent is the phase-1 payload: no id, no children.
func stopSaleParent(s domain.StopSale, cfg domain.PartnerConfig, hotelID int64) domain.PartnerStopSale {
	return domain.PartnerStopSale{
		RecID:          0,
		HotelID:        hotelID,
		OperatorID:     cfg.OperatorID,
		BeginDate:      s.DateFrom.Format(partnerDate),
		EndDate:        s.DateTo.Format(partnerDate),
		IsClose:        s.IsClose,
		OperatorRemark: operatorRemark(cfg),
		Remark:         s.Reason,
		StopSaleRooms:  []domain.PartnerStopSaleRoom{},
		StopSaleBoards: []domain.PartnerStopSaleBoard{},
	}
}

// stopSaleUpdate is the phase-2 payload: the parent with its id and every
// child tagged with that id.
func stopSaleUpdate(parent domain.PartnerStopSale, id int64, roomIDs, boardIDs []int64) domain.PartnerStopSale {
	p := parent
	p.RecID = id
	p.StopSaleRooms = make([]domain.PartnerStopSaleRoom, 0, len(roomIDs))
	for _, rid := range roomIDs {
		p.StopSaleRooms = append(p.StopSaleRooms, domain.PartnerStopSaleRoom{StopSaleID: id, RoomTypeID: rid})
	}
	p.StopSaleBoards = make([]domain.PartnerStopSaleBoard, 0, len(boardIDs))
	for _, bid := range boardIDs {
		p.StopSaleBoards = append(p.StopSaleBoards, domain.PartnerStopSaleBoard{StopSaleID: id, BoardID: bid})
	}
	return p
}
