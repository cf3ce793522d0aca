package service

import (
	"context"
	"log"
	"time"

	"tableserve/internal/billing"
	"tableserve/internal/domain"
)

// billTransitions is the single place the paid/payLater taxonomy lives.
// teardown marks the transitions that end the table visit: orders and the
// customer are purged and the table freed in the same transaction.
var billTransitions = map[domain.BillStatus]map[domain.BillStatus]bool{
	domain.BillUnpaid:   {domain.BillPaid: true, domain.BillPayLater: true},
	domain.BillPayLater: {domain.BillPaid: true},
}

type BillService struct {
	repo     BillRepository
	offers   OfferRepository
	notifier Notifier
	now      func() time.Time
}

func NewBillService(repo BillRepository, offers OfferRepository, notifier Notifier) *BillService {
	return &BillService{repo: repo, offers: offers, notifier: notifier, now: time.Now}
}

// Generate re-aggregates every non-draft order for the table into the bill,
// applying each dish's own offer per line. Any previously applied global
// offer is discarded; staff reapply it against the fresh totals.
func (s *BillService) Generate(ctx context.Context, tableID int) (*domain.Bill, error) {
	if tableID <= 0 {
		return nil, domain.NewClientError("please provide table id to generate bill")
	}
	return s.repo.GenerateBill(ctx, tableID)
}

func (s *BillService) Get(ctx context.Context, id int) (*domain.Bill, error) {
	return s.repo.GetBill(ctx, id)
}

func (s *BillService) List(ctx context.Context, hotelID int) ([]domain.Bill, error) {
	return s.repo.ListBills(ctx, hotelID)
}

// Update changes the staff-editable bill fields. A repeated custom discount
// replaces the previous one; it only ever enters the final amount, never
// the offer-discount total. The mutation runs against the bill as read
// under the table lock, so a concurrent draft-order edit cannot be
// overwritten by stale totals.
func (s *BillService) Update(ctx context.Context, billID int, customerName *string, customDiscount *float64) (*domain.Bill, error) {
	if customerName == nil && customDiscount == nil {
		return nil, domain.NewClientError("please provide sufficient data to update bill")
	}
	if customDiscount != nil && *customDiscount < 0 {
		return nil, domain.NewClientError("custom discount must not be negative")
	}

	bill, _, err := s.repo.MutateBill(ctx, billID, func(bill *domain.Bill) (bool, error) {
		if bill.Status == domain.BillPaid {
			return false, domain.NewClientError("bill is already paid")
		}
		if customerName != nil {
			bill.CustomerName = *customerName
		}
		if customDiscount != nil {
			bill.CustomDiscount = *customDiscount
		}
		bill.FinalAmount = billing.FinalAmount(bill.TotalAmount, bill.TotalDiscount, bill.CustomDiscount)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// ApplyGlobalOffer validates and applies a bill-level offer. Replacing a
// previously applied offer subtracts exactly the contribution it added, so
// repeated swaps cannot drift the totals. The threshold and the discount
// are evaluated against the locked totals, not a stale read.
func (s *BillService) ApplyGlobalOffer(ctx context.Context, billID, offerID int) (*domain.Bill, error) {
	offer, err := s.offers.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if offer.Type != domain.OfferGlobal {
		return nil, domain.NewClientError("only global offers can be applied to a bill")
	}
	if !billing.OfferActive(offer, now) {
		return nil, domain.NewClientError("offer is disabled or outside its validity window")
	}

	bill, _, err := s.repo.MutateBill(ctx, billID, func(bill *domain.Bill) (bool, error) {
		if bill.Status == domain.BillPaid {
			return false, domain.NewClientError("bill is already paid")
		}
		if bill.TotalAmount < offer.AppliedAbove {
			return false, domain.NewClientError("bill amount does not reach the offer minimum")
		}

		contribution := billing.GlobalDiscount(bill.TotalAmount, offer, now)
		bill.TotalDiscount += contribution - bill.GlobalOfferDiscount
		bill.GlobalOfferDiscount = contribution
		bill.GlobalOfferID = &offer.ID
		bill.FinalAmount = billing.FinalAmount(bill.TotalAmount, bill.TotalDiscount, bill.CustomDiscount)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return bill, nil
}

// Settle moves the bill to paid or payLater. Leaving unpaid tears the visit
// down: all orders and the customer for the table are removed and the table
// freed, all-or-nothing. payLater -> paid is a plain status flip on an
// already torn-down bill. The transition check runs on the bill as read
// under the table lock, so two racing settlements cannot both pass it.
// Removed orders are announced to the staff display so settled tables drop
// off the live board.
func (s *BillService) Settle(ctx context.Context, billID int, status domain.BillStatus) (*domain.Bill, error) {
	if status != domain.BillPaid && status != domain.BillPayLater {
		return nil, domain.NewClientError("bill can only be settled as paid or payLater")
	}

	bill, removed, err := s.repo.MutateBill(ctx, billID, func(bill *domain.Bill) (bool, error) {
		if !billTransitions[bill.Status][status] {
			return false, domain.NewClientError("cannot move bill from %s to %s", bill.Status, status)
		}
		teardown := bill.Status == domain.BillUnpaid
		bill.Status = status
		if teardown {
			bill.CustomerID = nil
			bill.GlobalOfferID = nil
		}
		return teardown, nil
	})
	if err != nil {
		return nil, err
	}

	for _, orderID := range removed {
		if err := s.notifier.PublishOrderDeleted(ctx, bill.HotelID, orderID); err != nil {
			log.Printf("[bills] warning: failed to publish order %d deletion: %v", orderID, err)
		}
	}
	return bill, nil
}

func (s *BillService) Export(ctx context.Context, billID int) (*domain.BillExport, error) {
	return s.repo.ExportBill(ctx, billID)
}

var _ BillServiceInterface = (*BillService)(nil)
