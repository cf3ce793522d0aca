package main

import (
	"context"
	"log"

	"tableserve/config"
	httpapi "tableserve/internal/api/http"
	"tableserve/internal/service"
	"tableserve/internal/storage"
)

func main() {
	db := config.MustInitPostgres()
	defer db.Close()

	if err := storage.EnsureSchema(context.Background(), db); err != nil {
		log.Fatal("Failed to ensure schema:", err)
	}

	rdb := config.MustInitRedis()
	defer rdb.Close()

	writer := config.NewKafkaWriter(config.OrdersTopic)
	defer writer.Close()

	repo := storage.NewPostgresRepository(db)
	cache := storage.NewRedisMenuCache(rdb)
	notifier := storage.NewKafkaNotifier(writer)
	qr := &service.DefaultQRGenerator{BaseURL: config.QRBaseURL()}

	menuSvc := service.NewMenuService(repo, repo, repo, repo, cache)
	tableSvc := service.NewTableService(repo, qr)
	orderSvc := service.NewOrderService(repo, repo, repo, notifier)
	billSvc := service.NewBillService(repo, repo, notifier)
	offerSvc := service.NewOfferService(repo, repo, cache)

	handler := httpapi.NewHandler(menuSvc, tableSvc, orderSvc, billSvc, offerSvc)
	httpapi.StartServer(config.HTTPAddr(), httpapi.NewRouter(handler))
}
