package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"tableserve/config"
	"tableserve/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// kitchen-display consumes confirmed-order events and serves a live board of
// orders awaiting preparation, one board per hotel. State is in memory only:
// the board rebuilds itself from the stream after a restart.

type kafkaEvent struct {
	Name string          `json:"name"`
	Data json.RawMessage `json:"data"`
}

type boardEntry struct {
	Order      domain.OrderEvent `json:"order"`
	ReceivedAt time.Time         `json:"received_at"`
}

var (
	mu     sync.RWMutex
	boards = map[int][]boardEntry{}
)

func addOrder(event domain.OrderEvent) {
	mu.Lock()
	defer mu.Unlock()
	boards[event.HotelID] = append(boards[event.HotelID], boardEntry{
		Order:      event,
		ReceivedAt: time.Now(),
	})
}

func removeOrder(hotelID, orderID int) {
	mu.Lock()
	defer mu.Unlock()
	entries := boards[hotelID]
	for i, entry := range entries {
		if entry.Order.OrderID == orderID {
			boards[hotelID] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

func consume(ctx context.Context) {
	reader := config.NewKafkaReader(config.OrdersTopic, "kitchen-display")
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			log.Printf("Error reading message: %v", err)
			return
		}

		var event kafkaEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Printf("Error decoding event: %v", err)
			continue
		}

		switch event.Name {
		case "new-order":
			var order domain.OrderEvent
			if err := json.Unmarshal(event.Data, &order); err != nil {
				log.Printf("Error decoding order event: %v", err)
				continue
			}
			addOrder(order)
			log.Printf("Order %d queued for hotel %d", order.OrderID, order.HotelID)

		case "delete-order":
			var payload struct {
				OrderID int `json:"orderId"`
			}
			if err := json.Unmarshal(event.Data, &payload); err != nil {
				continue
			}
			hotelID, _ := strconv.Atoi(string(msg.Key))
			removeOrder(hotelID, payload.OrderID)
			log.Printf("Order %d removed from hotel %d board", payload.OrderID, hotelID)
		}
	}
}

func getBoard(w http.ResponseWriter, r *http.Request) {
	hotelID, _ := strconv.Atoi(mux.Vars(r)["hotelId"])

	mu.RLock()
	entries := boards[hotelID]
	out := make([]boardEntry, len(entries))
	copy(out, entries)
	mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func main() {
	go consume(context.Background())

	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}).Methods("GET")
	r.HandleFunc("/api/hotels/{hotelId}/live-orders", getBoard).Methods("GET")
	handler := cors.Default().Handler(r)

	addr := os.Getenv("DISPLAY_ADDR")
	if addr == "" {
		addr = ":8081"
	}

	log.Println("Kitchen Display starting on", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
