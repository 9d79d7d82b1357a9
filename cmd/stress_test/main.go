package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/rl1809/petstore-orders/internal/adapter/storage"
	"github.com/rl1809/petstore-orders/internal/core/domain"
	"github.com/rl1809/petstore-orders/internal/core/service"
	"github.com/rl1809/petstore-orders/internal/port"
)

const (
	redisAddr     = "localhost:6379"
	initialStock  = 20
	totalBuyers   = 50
	firstMemberID = 900000
	queueSize     = 100
)

func main() {
	ctx := context.Background()

	// Initialize Redis
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer rdb.Close()

	// Initialize store and seed the contested product
	db, productID, stockOf := openStore(ctx)

	guard := service.NewIdempotencyGuard(storage.NewRedisAdapter(rdb), time.Hour)
	orderService := service.NewOrderService(db, guard, queueSize)
	defer orderService.Close()
	cartService := service.NewCartService(db, nil)

	// Drain the event queue in background
	go func() {
		for range orderService.Events() {
		}
	}()

	// Every buyer puts the last units in their cart before anyone checks out
	for i := 0; i < totalBuyers; i++ {
		memberID := int64(firstMemberID + i)
		if err := cartService.ClearCart(ctx, memberID); err != nil {
			log.Fatalf("failed to clear cart: %v", err)
		}
		if _, err := cartService.AddItem(ctx, memberID, productID, 1); err != nil {
			log.Fatalf("failed to fill cart: %v", err)
		}
	}

	// Counters
	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var otherCount atomic.Int32
	var replayMismatch atomic.Int32

	// Spawn concurrent checkouts, each retried once with the same key
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalBuyers; i++ {
		wg.Add(1)
		go func(memberID int64) {
			defer wg.Done()

			req := service.CheckoutRequest{
				MemberID:         memberID,
				ShippingAddress:  "1 Stress Lane",
				IdempotencyToken: uuid.NewString(),
			}
			order, err := orderService.CreateOrderFromCart(ctx, req)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrInsufficientStock):
				soldOutCount.Add(1)
				return
			default:
				otherCount.Add(1)
				log.Printf("member %d: %v", memberID, err)
				return
			}

			retry, err := orderService.CreateOrderFromCart(ctx, req)
			if err != nil || retry.ID != order.ID {
				replayMismatch.Add(1)
			}
		}(int64(firstMemberID + i))
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	soldOut := soldOutCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Buyers:     %d\n", totalBuyers)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Sold Out:         %d\n", soldOut)
	fmt.Printf("Other Errors:     %d\n", otherCount.Load())
	fmt.Printf("Bad Replays:      %d\n", replayMismatch.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if success == initialStock && soldOut == totalBuyers-initialStock {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d sold out\n", initialStock, totalBuyers-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d sold out, got %d/%d\n",
			initialStock, totalBuyers-initialStock, success, soldOut)
	}

	if replayMismatch.Load() == 0 {
		fmt.Println("PASS: Every retry replayed its first order")
	} else {
		fmt.Printf("FAIL: %d retries did not replay their first order\n", replayMismatch.Load())
	}

	finalStock, err := stockOf(ctx)
	if err != nil {
		log.Fatalf("failed to read final stock: %v", err)
	}
	fmt.Printf("Final Stock:      %d\n", finalStock)

	if finalStock == 0 {
		fmt.Println("PASS: Stock depleted to 0")
	} else {
		fmt.Printf("FAIL: Expected stock 0, got %d\n", finalStock)
	}
}

// openStore uses MySQL when STRESS_MYSQL_DSN is set, the in-memory store otherwise.
func openStore(ctx context.Context) (port.DatabaseRepository, int64, func(context.Context) (int, error)) {
	product := domain.Product{
		Name:          "Last Bag of Kibble",
		Price:         decimal.RequireFromString("19.99"),
		StockQuantity: initialStock,
	}

	var db port.DatabaseRepository
	if dsn := os.Getenv("STRESS_MYSQL_DSN"); dsn != "" {
		sqlDB, err := sql.Open("mysql", dsn)
		if err != nil {
			log.Fatalf("failed to open mysql: %v", err)
		}
		if err := storage.RunMigrations(sqlDB); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		adapter := storage.NewMySQLAdapter(sqlDB)
		if err := adapter.SaveProduct(ctx, &product); err != nil {
			log.Fatalf("failed to seed product: %v", err)
		}
		db = adapter
	} else {
		adapter := storage.NewMemoryAdapter()
		product.ID = 1
		adapter.SaveProduct(product)
		db = adapter
	}

	stockOf := func(ctx context.Context) (int, error) {
		p, err := db.Products().FindByID(ctx, product.ID)
		if err != nil {
			return 0, err
		}
		return p.StockQuantity, nil
	}
	return db, product.ID, stockOf
}
