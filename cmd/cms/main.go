package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	cmsapp "cms_server/server/cms/app"
	cmnenv "cms_server/server/common/env"
	commonlog "cms_server/server/common/log"
)

func main() {
	dsn, err := cmnenv.Require("POSTGRES_DSN")
	if err != nil {
		log.Fatalf("initialize cms server: %v", err)
	}
	adminHash, err := cmnenv.Require("ADMIN_PASSWORD_HASH")
	if err != nil {
		log.Fatalf("initialize cms server: %v", err)
	}

	server, err := cmsapp.NewServer(cmsapp.Config{
		Port:              cmnenv.String("CMS_PORT", "8080"),
		PostgresDSN:       dsn,
		JWTSecret:         cmnenv.String("JWT_SECRET", "change-me-in-production"),
		JWTTTLMinutes:     cmnenv.Int("JWT_TTL_MINUTES", 1440),
		AdminUsername:     cmnenv.String("ADMIN_USERNAME", "admin"),
		AdminPasswordHash: adminHash,
		StoragePublicKey:  cmnenv.String("STORAGE_PUBLIC_KEY", ""),
		StoragePrivateKey: cmnenv.String("STORAGE_PRIVATE_KEY", ""),
		DeliveryBaseURL:   cmnenv.String("DELIVERY_BASE_URL", "http://localhost:8081"),
		UploadTTLMinutes:  cmnenv.Int("UPLOAD_TTL_MINUTES", 10),
		GatewayEndpoints:  strings.Split(cmnenv.String("MEDIAGW_ENDPOINTS", "http://localhost:8081"), ","),
		CleanupAMQPURL:    cmnenv.String("CLEANUP_AMQP_URL", ""),
	})
	if err != nil {
		log.Fatalf("initialize cms server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		commonlog.Infof("start cms http server on %s", server.HTTPServer.Addr)
		if err := server.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("run cms http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		commonlog.Errorf("shutdown cms server gracefully: %v", err)
	}
}
