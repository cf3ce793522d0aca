package service

import (
	"context"
	"fmt"

	"tableserve/internal/domain"

	"github.com/skip2/go-qrcode"
)

type TableService struct {
	repo TableRepository
	qr   QRGenerator
}

func NewTableService(repo TableRepository, qr QRGenerator) *TableService {
	return &TableService{repo: repo, qr: qr}
}

func (s *TableService) Create(ctx context.Context, table *domain.Table) error {
	if table.HotelID <= 0 || table.Sequence <= 0 || table.Capacity <= 0 {
		return domain.NewClientError("please provide hotel, sequence and capacity for the table")
	}
	table.Status = domain.TableFree
	table.CustomerID = nil
	return s.repo.CreateTable(ctx, table)
}

func (s *TableService) List(ctx context.Context, hotelID int) ([]domain.Table, error) {
	return s.repo.ListTables(ctx, hotelID)
}

func (s *TableService) Get(ctx context.Context, id int) (*domain.Table, error) {
	return s.repo.GetTable(ctx, id)
}

// Update changes sequence/capacity of a free table. Status and customer are
// owned by the occupancy derivation inside the order and bill repositories
// and are never written here.
func (s *TableService) Update(ctx context.Context, table *domain.Table) error {
	current, err := s.repo.GetTable(ctx, table.ID)
	if err != nil {
		return err
	}
	if current.Status != domain.TableFree {
		return domain.NewClientError("table is occupied")
	}
	table.HotelID = current.HotelID
	table.Status = current.Status
	table.CustomerID = current.CustomerID
	return s.repo.UpdateTable(ctx, table)
}

func (s *TableService) Delete(ctx context.Context, id int) error {
	table, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return err
	}
	if table.Status != domain.TableFree {
		return domain.NewClientError("table is occupied")
	}
	return s.repo.DeleteTable(ctx, id)
}

// QRCode renders the PNG a guest scans to open the table session.
func (s *TableService) QRCode(ctx context.Context, id int) ([]byte, error) {
	table, err := s.repo.GetTable(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.qr.Generate(fmt.Sprintf("/api/scan/%d", table.ID))
}

var _ TableServiceInterface = (*TableService)(nil)

// DefaultQRGenerator encodes scan links as 256px PNGs.
type DefaultQRGenerator struct {
	BaseURL string
}

func (g *DefaultQRGenerator) Generate(content string) ([]byte, error) {
	return qrcode.Encode(g.BaseURL+content, qrcode.Medium, 256)
}
