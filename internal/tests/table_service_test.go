package tests

import (
	"context"
	"testing"

	"tableserve/internal/domain"
	"tableserve/internal/mocks"
	"tableserve/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestTableService_Create(t *testing.T) {
	tests := []struct {
		name    string
		table   *domain.Table
		wantErr bool
	}{
		{
			name:  "valid table",
			table: &domain.Table{HotelID: 1, Sequence: 4, Capacity: 6},
		},
		{
			name:    "missing hotel",
			table:   &domain.Table{Sequence: 4, Capacity: 6},
			wantErr: true,
		},
		{
			name:    "missing sequence",
			table:   &domain.Table{HotelID: 1, Capacity: 6},
			wantErr: true,
		},
		{
			name:    "zero capacity",
			table:   &domain.Table{HotelID: 1, Sequence: 4},
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			repo := new(mocks.TableRepository)
			svc := service.NewTableService(repo, new(mocks.QRGenerator))
			if !testCase.wantErr {
				repo.On("CreateTable", mock.Anything, testCase.table).Return(nil).Once()
			}

			err := svc.Create(context.Background(), testCase.table)

			if testCase.wantErr {
				var clientErr *domain.ClientError
				require.ErrorAs(t, err, &clientErr)
			} else {
				require.NoError(t, err)
				// New tables are always created free regardless of input.
				assert.Equal(t, domain.TableFree, testCase.table.Status)
				assert.Nil(t, testCase.table.CustomerID)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestTableService_UpdateRejectsOccupied(t *testing.T) {
	repo := new(mocks.TableRepository)
	svc := service.NewTableService(repo, new(mocks.QRGenerator))
	customerID := 3

	repo.On("GetTable", mock.Anything, 5).Return(&domain.Table{
		ID: 5, HotelID: 1, Status: domain.TableOccupied, CustomerID: &customerID,
	}, nil).Once()

	err := svc.Update(context.Background(), &domain.Table{ID: 5, Sequence: 9, Capacity: 2})

	var clientErr *domain.ClientError
	require.ErrorAs(t, err, &clientErr)
	assert.Equal(t, "table is occupied", clientErr.Message)
	repo.AssertNotCalled(t, "UpdateTable", mock.Anything, mock.Anything)
}

func TestTableService_DeleteRejectsOccupied(t *testing.T) {
	repo := new(mocks.TableRepository)
	svc := service.NewTableService(repo, new(mocks.QRGenerator))

	repo.On("GetTable", mock.Anything, 5).Return(&domain.Table{ID: 5, Status: domain.TableOccupied}, nil).Once()

	err := svc.Delete(context.Background(), 5)

	var clientErr *domain.ClientError
	require.ErrorAs(t, err, &clientErr)
	repo.AssertNotCalled(t, "DeleteTable", mock.Anything, mock.Anything)
}

func TestTableService_DeleteFreeTable(t *testing.T) {
	repo := new(mocks.TableRepository)
	svc := service.NewTableService(repo, new(mocks.QRGenerator))

	repo.On("GetTable", mock.Anything, 5).Return(&domain.Table{ID: 5, Status: domain.TableFree}, nil).Once()
	repo.On("DeleteTable", mock.Anything, 5).Return(nil).Once()

	require.NoError(t, svc.Delete(context.Background(), 5))
	repo.AssertExpectations(t)
}

func TestTableService_QRCode(t *testing.T) {
	repo := new(mocks.TableRepository)
	qr := new(mocks.QRGenerator)
	svc := service.NewTableService(repo, qr)

	repo.On("GetTable", mock.Anything, 5).Return(&domain.Table{ID: 5, HotelID: 1}, nil).Once()
	qr.On("Generate", "/api/scan/5").Return([]byte{0x89, 'P', 'N', 'G'}, nil).Once()

	png, err := svc.QRCode(context.Background(), 5)

	require.NoError(t, err)
	assert.NotEmpty(t, png)
	qr.AssertExpectations(t)
}

func TestDefaultQRGeneratorProducesPNG(t *testing.T) {
	g := &service.DefaultQRGenerator{BaseURL: "http://menu.example.com"}

	png, err := g.Generate("/api/scan/5")

	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
