package service

import (
	"context"
	"log"

	"tableserve/internal/domain"
)

type OfferService struct {
	repo    OfferRepository
	catalog CatalogRepository
	cache   BootstrapCache
}

func NewOfferService(repo OfferRepository, catalog CatalogRepository, cache BootstrapCache) *OfferService {
	return &OfferService{repo: repo, catalog: catalog, cache: cache}
}

func (s *OfferService) Create(ctx context.Context, offer *domain.Offer) error {
	if err := s.validate(ctx, offer, nil); err != nil {
		return err
	}
	if err := s.repo.CreateOffer(ctx, offer); err != nil {
		return err
	}
	s.invalidate(ctx, offer.HotelID)
	return nil
}

func (s *OfferService) Get(ctx context.Context, id int) (*domain.Offer, error) {
	return s.repo.GetOffer(ctx, id)
}

func (s *OfferService) List(ctx context.Context, hotelID int) ([]domain.Offer, error) {
	return s.repo.ListOffers(ctx, hotelID)
}

func (s *OfferService) Update(ctx context.Context, offer *domain.Offer) error {
	existing, err := s.repo.GetOffer(ctx, offer.ID)
	if err != nil {
		return err
	}
	offer.HotelID = existing.HotelID
	if err := s.validate(ctx, offer, existing); err != nil {
		return err
	}
	if err := s.repo.UpdateOffer(ctx, offer); err != nil {
		return err
	}
	s.invalidate(ctx, offer.HotelID)
	return nil
}

func (s *OfferService) Delete(ctx context.Context, id int) (*domain.Offer, error) {
	offer, err := s.repo.DeleteOffer(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, offer.HotelID)
	return offer, nil
}

// validate enforces the offer invariants: non-negative value, percent capped
// at 100, appliedAbove only on global offers, and a 1:1 applied-offer
// relationship for the dishes of a specific offer. existing is non-nil on
// update so a dish already pointing at this offer is not a conflict.
func (s *OfferService) validate(ctx context.Context, offer *domain.Offer, existing *domain.Offer) error {
	if offer.Value < 0 {
		return domain.NewClientError("value must not be less than 0")
	}
	if offer.DiscountType == domain.DiscountPercent && offer.Value > 100 {
		return domain.NewClientError("value must be between 0 and 100 for discount type percent")
	}

	switch offer.Type {
	case domain.OfferSpecific:
		if offer.AppliedAbove != 0 {
			return domain.NewClientError("applied above condition will not work for specific type of offer")
		}
		if len(offer.AppliedOn) == 0 {
			return domain.NewClientError("please provide dishes to apply the offer on")
		}
		dishes, err := s.catalog.DishesByIDs(ctx, offer.AppliedOn)
		if err != nil {
			return err
		}
		for _, dishID := range offer.AppliedOn {
			dish, ok := dishes[dishID]
			if !ok || dish.HotelID != offer.HotelID {
				return domain.NewClientError("no valid dishes found for the provided IDs to apply offer")
			}
			if dish.AppliedOfferID != nil && (existing == nil || *dish.AppliedOfferID != existing.ID) {
				return domain.NewClientError("some provided dishes are already associated with other offers")
			}
		}
	case domain.OfferGlobal:
		offer.AppliedOn = nil
	default:
		return domain.NewClientError("offer type must be specific or global")
	}

	return nil
}

func (s *OfferService) invalidate(ctx context.Context, hotelID int) {
	if err := s.cache.InvalidateMenu(ctx, hotelID); err != nil {
		log.Printf("[offers] warning: failed to invalidate menu cache for hotel %d: %v", hotelID, err)
	}
}

var _ OfferServiceInterface = (*OfferService)(nil)
