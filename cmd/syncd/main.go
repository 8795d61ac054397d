package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/suyeshs/hands-free-sub005/internal/config"
	"github.com/suyeshs/hands-free-sub005/internal/handlers"
	"github.com/suyeshs/hands-free-sub005/internal/lan"
	"github.com/suyeshs/hands-free-sub005/internal/models"
	"github.com/suyeshs/hands-free-sub005/internal/store"
	"github.com/suyeshs/hands-free-sub005/internal/store/sqlite"
	syncsvc "github.com/suyeshs/hands-free-sub005/internal/sync"
	"github.com/suyeshs/hands-free-sub005/internal/utils"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Open the local order journal
	journal, err := sqlite.Open(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open order journal: %v", err)
	}

	// 3. Rebuild the in-memory view from the journal; a sync_state
	// snapshot will replace it once a transport connects
	orders := store.NewActiveOrders()
	if persisted, err := journal.ActiveOrders(); err != nil {
		log.Printf("⚠️ Journal load warning: %v", err)
	} else if len(persisted) > 0 {
		orders.Replace(persisted)
		log.Printf("📥 Restored %d active orders from journal", len(persisted))
	}

	// 4. Mint the device transport token
	deviceID := os.Getenv("DEVICE_ID")
	if deviceID == "" {
		deviceID = uuid.New().String()
	}
	token, err := utils.GenerateDeviceToken(deviceID, string(cfg.DeviceType), cfg.TenantID, cfg.JWTSecret)
	if err != nil {
		log.Fatalf("Failed to generate device token: %v", err)
	}

	// 5. Wire up the LAN collaborator
	var lanNet *lan.Network
	var collaborator syncsvc.LanCollaborator
	if cfg.LanEnabled {
		lanNet = lan.New(cfg.LanPort, cfg.LanServerAddr, token, cfg.JWTSecret)
		lanNet.SetSnapshotProvider(orders.Snapshot)
		collaborator = lanNet
	}

	// 6. Construct and initialize the sync service
	service := syncsvc.NewService(syncsvc.Options{
		CloudBaseURL: cfg.CloudWSBase,
		CloudToken:   token,
		DeviceType:   string(cfg.DeviceType),
		IsLanHost:    cfg.DeviceType.IsLanHost(),
		Lan:          collaborator,
		Store:        orders,
		Persist:      journal,
	})

	callbacks := syncsvc.Callbacks{
		OnStatusChange: func(status syncsvc.ConnectionState, path syncsvc.SyncPath) {
			log.Printf("🔌 Connection: %s (path: %s)", status, path)
		},
		OnError: func(source string, err error) {
			log.Printf("⚠️ [%s] %v", source, err)
		},
		OnSyncRequested: func() {
			// A peer just connected and wants the current state
			service.BroadcastSyncState()
		},
		OnOrderCreated: func(order models.Order, kitchenOrder models.KitchenOrder) {
			log.Printf("🧾 Order %s created (table %d, %d items)", order.OrderNumber, order.TableNumber, len(order.Items))
		},
		OnQROrderCreated: func(order models.Order, kitchenOrder models.KitchenOrder) {
			log.Printf("📱 QR order %s created (table %d)", order.OrderNumber, order.TableNumber)
		},
		OnOrderStatusUpdate: func(orderID string, status models.OrderStatus, orderNumber string, tableNumber int) {
			log.Printf("🧾 Order %s → %s", orderID, status)
		},
		OnServiceRequest: func(request models.ServiceRequest) {
			log.Printf("🔔 Table %d requests %s", request.TableNumber, request.Kind)
		},
	}

	if err := service.Initialize(cfg.TenantID, callbacks); err != nil {
		log.Fatalf("Failed to initialize sync service: %v", err)
	}

	// 7. Start the local HTTP surface
	router := handlers.NewRouter(service, cfg.TenantID)
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Sync daemon (%s) listening on port %s", cfg.DeviceType, cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("⚠️ Received signal: %v. Shutting down gracefully...", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	service.Shutdown()

	if err := journal.Close(); err != nil {
		log.Printf("Journal close error: %v", err)
	}

	log.Println("✅ Shutdown complete")
}
