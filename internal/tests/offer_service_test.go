package tests

import (
	"context"
	"testing"
	"time"

	"tableserve/internal/domain"
	"tableserve/internal/mocks"
	"tableserve/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newOfferService() (*service.OfferService, *mocks.OfferRepository, *mocks.CatalogRepository, *mocks.BootstrapCache) {
	repo := new(mocks.OfferRepository)
	catalog := new(mocks.CatalogRepository)
	cache := new(mocks.BootstrapCache)
	return service.NewOfferService(repo, catalog, cache), repo, catalog, cache
}

func specificOffer() *domain.Offer {
	return &domain.Offer{
		HotelID:      1,
		Name:         "Weekday Lunch",
		Type:         domain.OfferSpecific,
		DiscountType: domain.DiscountPercent,
		Value:        15,
		AppliedOn:    []int{1, 2},
		StartDate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestOfferService_Create(t *testing.T) {
	freeDishes := map[int]domain.Dish{
		1: {ID: 1, HotelID: 1},
		2: {ID: 2, HotelID: 1},
	}

	tests := []struct {
		name      string
		offer     *domain.Offer
		setupMock func(repo *mocks.OfferRepository, catalog *mocks.CatalogRepository, cache *mocks.BootstrapCache)
		wantErr   string
	}{
		{
			name:  "valid specific offer",
			offer: specificOffer(),
			setupMock: func(repo *mocks.OfferRepository, catalog *mocks.CatalogRepository, cache *mocks.BootstrapCache) {
				catalog.On("DishesByIDs", mock.Anything, []int{1, 2}).Return(freeDishes, nil).Once()
				repo.On("CreateOffer", mock.Anything, mock.AnythingOfType("*domain.Offer")).Return(nil).Once()
				cache.On("InvalidateMenu", mock.Anything, 1).Return(nil).Once()
			},
		},
		{
			name: "valid global offer",
			offer: &domain.Offer{
				HotelID:      1,
				Name:         "Festive",
				Type:         domain.OfferGlobal,
				DiscountType: domain.DiscountAmount,
				Value:        100,
				AppliedAbove: 500,
			},
			setupMock: func(repo *mocks.OfferRepository, catalog *mocks.CatalogRepository, cache *mocks.BootstrapCache) {
				repo.On("CreateOffer", mock.Anything, mock.AnythingOfType("*domain.Offer")).Return(nil).Once()
				cache.On("InvalidateMenu", mock.Anything, 1).Return(nil).Once()
			},
		},
		{
			name: "negative value",
			offer: func() *domain.Offer {
				o := specificOffer()
				o.Value = -1
				return o
			}(),
			wantErr: "value must not be less than 0",
		},
		{
			name: "percent above 100",
			offer: func() *domain.Offer {
				o := specificOffer()
				o.Value = 120
				return o
			}(),
			wantErr: "value must be between 0 and 100 for discount type percent",
		},
		{
			name: "applied above on a specific offer",
			offer: func() *domain.Offer {
				o := specificOffer()
				o.AppliedAbove = 500
				return o
			}(),
			wantErr: "applied above condition will not work for specific type of offer",
		},
		{
			name: "specific offer without dishes",
			offer: func() *domain.Offer {
				o := specificOffer()
				o.AppliedOn = nil
				return o
			}(),
			wantErr: "please provide dishes to apply the offer on",
		},
		{
			name:  "dish from another hotel",
			offer: specificOffer(),
			setupMock: func(repo *mocks.OfferRepository, catalog *mocks.CatalogRepository, cache *mocks.BootstrapCache) {
				catalog.On("DishesByIDs", mock.Anything, []int{1, 2}).Return(map[int]domain.Dish{
					1: {ID: 1, HotelID: 1},
					2: {ID: 2, HotelID: 7},
				}, nil).Once()
			},
			wantErr: "no valid dishes found for the provided IDs to apply offer",
		},
		{
			name:  "dish already under another offer",
			offer: specificOffer(),
			setupMock: func(repo *mocks.OfferRepository, catalog *mocks.CatalogRepository, cache *mocks.BootstrapCache) {
				otherOffer := 9
				catalog.On("DishesByIDs", mock.Anything, []int{1, 2}).Return(map[int]domain.Dish{
					1: {ID: 1, HotelID: 1},
					2: {ID: 2, HotelID: 1, AppliedOfferID: &otherOffer},
				}, nil).Once()
			},
			wantErr: "some provided dishes are already associated with other offers",
		},
		{
			name: "unknown offer type",
			offer: func() *domain.Offer {
				o := specificOffer()
				o.Type = "seasonal"
				return o
			}(),
			wantErr: "offer type must be specific or global",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			svc, repo, catalog, cache := newOfferService()
			if testCase.setupMock != nil {
				testCase.setupMock(repo, catalog, cache)
			}

			err := svc.Create(context.Background(), testCase.offer)

			if testCase.wantErr != "" {
				var clientErr *domain.ClientError
				require.ErrorAs(t, err, &clientErr)
				assert.Equal(t, testCase.wantErr, clientErr.Message)
			} else {
				require.NoError(t, err)
			}
			repo.AssertExpectations(t)
			catalog.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestOfferService_CreateGlobalDropsAppliedOn(t *testing.T) {
	svc, repo, _, cache := newOfferService()
	offer := &domain.Offer{
		HotelID:      1,
		Type:         domain.OfferGlobal,
		DiscountType: domain.DiscountPercent,
		Value:        10,
		AppliedOn:    []int{1, 2, 3},
	}

	repo.On("CreateOffer", mock.Anything, offer).Return(nil).Once()
	cache.On("InvalidateMenu", mock.Anything, 1).Return(nil).Once()

	require.NoError(t, svc.Create(context.Background(), offer))
	assert.Nil(t, offer.AppliedOn)
}

// On update, a dish already pointing at this same offer is not a conflict.
func TestOfferService_UpdateKeepsOwnDishes(t *testing.T) {
	svc, repo, catalog, cache := newOfferService()
	offer := specificOffer()
	offer.ID = 9
	ownID := 9

	repo.On("GetOffer", mock.Anything, 9).Return(offer, nil).Once()
	catalog.On("DishesByIDs", mock.Anything, []int{1, 2}).Return(map[int]domain.Dish{
		1: {ID: 1, HotelID: 1, AppliedOfferID: &ownID},
		2: {ID: 2, HotelID: 1},
	}, nil).Once()
	repo.On("UpdateOffer", mock.Anything, offer).Return(nil).Once()
	cache.On("InvalidateMenu", mock.Anything, 1).Return(nil).Once()

	require.NoError(t, svc.Update(context.Background(), offer))
	repo.AssertExpectations(t)
}

func TestOfferService_DeleteInvalidatesCache(t *testing.T) {
	svc, repo, _, cache := newOfferService()
	offer := specificOffer()
	offer.ID = 9

	repo.On("DeleteOffer", mock.Anything, 9).Return(offer, nil).Once()
	cache.On("InvalidateMenu", mock.Anything, 1).Return(nil).Once()

	got, err := svc.Delete(context.Background(), 9)

	require.NoError(t, err)
	assert.Equal(t, 9, got.ID)
	cache.AssertExpectations(t)
}

func TestOfferService_CacheFailureDoesNotFailCreate(t *testing.T) {
	svc, repo, _, cache := newOfferService()
	offer := &domain.Offer{
		HotelID:      1,
		Type:         domain.OfferGlobal,
		DiscountType: domain.DiscountAmount,
		Value:        50,
	}

	repo.On("CreateOffer", mock.Anything, offer).Return(nil).Once()
	cache.On("InvalidateMenu", mock.Anything, 1).Return(assert.AnError).Once()

	require.NoError(t, svc.Create(context.Background(), offer))
}
