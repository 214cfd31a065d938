package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"cms_server/server/common/infra/cache"
	"cms_server/server/common/infra/object"
	"cms_server/server/common/log"
	"cms_server/server/common/uploadsig"
	mediaapi "cms_server/server/mediagw/api"
	"cms_server/server/mediagw/service"
)

type Config struct {
	Port string

	StoragePublicKey  string
	StoragePrivateKey string
	DeliveryBaseURL   string
	UploadTTLMinutes  int
	MaxUploadBytes    int64

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	RedisAddr string
}

type Server struct {
	HTTPServer *http.Server
}

func NewServer(cfg Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	minioClient, err := object.Connect(ctx, object.Config{
		Endpoint:  cfg.MinioEndpoint,
		AccessKey: cfg.MinioAccessKey,
		SecretKey: cfg.MinioSecretKey,
		Bucket:    cfg.MinioBucket,
		UseSSL:    cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("initialize minio: %w", err)
	}

	var tokens service.TokenClaimer
	if cfg.RedisAddr != "" {
		redisClient, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, fmt.Errorf("initialize redis: %w", err)
		}
		tokens = service.NewRedisClaimer(redisClient)
	} else {
		log.Warnf("REDIS_ADDR not set, upload token replay protection is process-local")
		tokens = service.NewMemoryClaimer()
	}

	signer := uploadsig.NewSigner(cfg.StoragePublicKey, cfg.StoragePrivateKey, cfg.DeliveryBaseURL,
		time.Duration(cfg.UploadTTLMinutes)*time.Minute)
	store := service.NewMinIOStore(minioClient, cfg.MinioBucket)
	mediaSvc := service.NewMediaService(signer, tokens, store, cfg.DeliveryBaseURL, cfg.MaxUploadBytes)

	h := mediaapi.NewHandler(mediaSvc)
	r := gin.Default()
	h.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{HTTPServer: httpServer}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTPServer.Shutdown(ctx)
}
