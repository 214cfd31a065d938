package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"

	cmnenv "cms_server/server/common/env"
	commonlog "cms_server/server/common/log"
	mediagwapp "cms_server/server/mediagw/app"
)

func main() {
	privateKey, err := cmnenv.Require("STORAGE_PRIVATE_KEY")
	if err != nil {
		log.Fatalf("initialize media gateway: %v", err)
	}
	publicKey, err := cmnenv.Require("STORAGE_PUBLIC_KEY")
	if err != nil {
		log.Fatalf("initialize media gateway: %v", err)
	}

	port := cmnenv.String("MEDIAGW_PORT", "8081")
	server, err := mediagwapp.NewServer(mediagwapp.Config{
		Port:              port,
		StoragePublicKey:  publicKey,
		StoragePrivateKey: privateKey,
		DeliveryBaseURL:   cmnenv.String("DELIVERY_BASE_URL", "http://localhost:"+port),
		UploadTTLMinutes:  cmnenv.Int("UPLOAD_TTL_MINUTES", 10),
		MaxUploadBytes:    int64(cmnenv.Int("MAX_UPLOAD_MB", 25)) << 20,
		MinioEndpoint:     cmnenv.String("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey:    cmnenv.String("MINIO_ACCESS_KEY", "minio"),
		MinioSecretKey:    cmnenv.String("MINIO_SECRET_KEY", "minio123"),
		MinioBucket:       cmnenv.String("MINIO_BUCKET", "cms-media"),
		MinioUseSSL:       cmnenv.Bool("MINIO_USE_SSL", false),
		RedisAddr:         cmnenv.String("REDIS_ADDR", ""),
	})
	if err != nil {
		log.Fatalf("initialize media gateway: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		commonlog.Infof("start media gateway on :%s", port)
		if err := server.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("run media gateway: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		commonlog.Errorf("shutdown media gateway gracefully: %v", err)
	}
}
