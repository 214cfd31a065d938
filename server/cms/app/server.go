package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"cms_server/server/cms/api"
	"cms_server/server/cms/domain"
	"cms_server/server/cms/migrations"
	"cms_server/server/cms/repository"
	"cms_server/server/cms/service"
	commonauth "cms_server/server/common/auth"
	"cms_server/server/common/infra/db"
	"cms_server/server/common/infra/mq"
	"cms_server/server/common/log"
	"cms_server/server/common/uploadsig"
)

type Config struct {
	Port          string
	PostgresDSN   string
	JWTSecret     string
	JWTTTLMinutes int

	AdminUsername     string
	AdminPasswordHash string

	StoragePublicKey  string
	StoragePrivateKey string
	DeliveryBaseURL   string
	UploadTTLMinutes  int
	GatewayEndpoints  []string
	CleanupAMQPURL    string
}

type Server struct {
	HTTPServer *http.Server
	DB         *pgxpool.Pool

	cleanup *mq.CleanupPublisher
}

func NewServer(cfg Config) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.RunMigrations(ctx, cfg.PostgresDSN, migrations.Files); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	dbPool, err := db.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres: %w", err)
	}

	var cleanupPublisher *mq.CleanupPublisher
	var cleanup service.CleanupNotifier
	if cfg.CleanupAMQPURL != "" {
		conn, err := mq.NewConnection(cfg.CleanupAMQPURL)
		if err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("initialize amqp: %w", err)
		}
		cleanupPublisher, err = mq.NewCleanupPublisher(conn)
		if err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("initialize cleanup publisher: %w", err)
		}
		cleanup = cleanupPublisher
	} else {
		log.Warnf("CLEANUP_AMQP_URL not set, failed remote deletes are log-only")
	}

	storeClient := service.NewMediaStoreClient(cfg.GatewayEndpoints...)
	folderRepo := repository.NewFolderRepository(dbPool)
	imageRepo := repository.NewImageRepository(dbPool)
	mediaRepo := repository.NewMediaRepository(dbPool)
	blogRepo := repository.NewPostRepository(dbPool, domain.PostKindBlog)
	thanksRepo := repository.NewPostRepository(dbPool, domain.PostKindThanks)

	gallerySvc := service.NewGalleryService(folderRepo, imageRepo, storeClient, cleanup)
	mediaSvc := service.NewMediaService(mediaRepo, storeClient, cleanup)
	blogSvc := service.NewPostService(blogRepo, storeClient, cleanup)
	thanksSvc := service.NewPostService(thanksRepo, storeClient, cleanup)

	signer := uploadsig.NewSigner(cfg.StoragePublicKey, cfg.StoragePrivateKey, cfg.DeliveryBaseURL,
		time.Duration(cfg.UploadTTLMinutes)*time.Minute)
	authSvc := commonauth.NewService(cfg.JWTSecret, cfg.JWTTTLMinutes)

	h := api.NewHandler(gallerySvc, mediaSvc, blogSvc, thanksSvc, signer, authSvc, api.AdminCredentials{
		Username:     cfg.AdminUsername,
		PasswordHash: cfg.AdminPasswordHash,
	})
	r := gin.Default()
	h.RegisterRoutes(r)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{HTTPServer: httpServer, DB: dbPool, cleanup: cleanupPublisher}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.cleanup != nil {
		s.cleanup.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	return s.HTTPServer.Shutdown(ctx)
}
