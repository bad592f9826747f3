package main

import (
	"io"
	"log"
	"os"

	"github.com/tripfolio/api/internal/config"
	"github.com/tripfolio/api/internal/extract"
	"github.com/tripfolio/api/internal/logging"
	"github.com/tripfolio/api/internal/media"
	miniorepo "github.com/tripfolio/api/internal/repository/minio"
	"github.com/tripfolio/api/internal/repository/postgres"
	"github.com/tripfolio/api/internal/service"
	transport "github.com/tripfolio/api/internal/transport/http"
	"github.com/tripfolio/api/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		writer, err := logging.NewLogstashWriter(cfg.LogstashTCPAddr)
		if err != nil {
			log.Printf("logstash disabled: %v", err)
		} else {
			defer writer.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, writer))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	minioClient, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
	if err != nil {
		log.Fatalf("connect minio: %v", err)
	}
	storage := miniorepo.NewStorage(minioClient)

	extractor, err := extract.NewOpenAIExtractor(extract.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.OpenAIModel,
	})
	if err != nil {
		log.Fatalf("configure extractor: %v", err)
	}

	tripRepo := postgres.NewTripRepo(db)

	tripSvc := service.NewTripService(tripRepo, storage, extractor, service.TripServiceConfig{
		Bucket: cfg.MinIOBucketTrips,
	})
	activitySvc := service.NewActivityService(tripRepo, storage, service.ActivityServiceConfig{
		Bucket:             cfg.MinIOBucketTrips,
		MaxAttachments:     cfg.AttachmentMaxCount,
		MaxAttachmentBytes: cfg.AttachmentMaxBytes,
		ImageProcessor:     media.NewFFMPEGProcessor(cfg.FFMPEGPath, cfg.ImageMaxDimension),
		ImageMaxDimension:  cfg.ImageMaxDimension,
		SignedURLTTL:       cfg.AttachmentSignedTTL,
	})

	var shareSvc *service.ShareService
	if cfg.EnableTripShareLinks && cfg.ShareTokenSecret != "" {
		tokens := util.NewShareTokenManager(cfg.ShareTokenSecret, cfg.ShareTokenTTL)
		shareSvc = service.NewShareService(tripRepo, tokens)
	}

	e := transport.NewRouter(cfg.AllowOrigins)
	transport.RegisterTrips(e, tripSvc, shareSvc, transport.TripFeatures{
		Delete: cfg.EnableTripDelete,
		Share:  shareSvc != nil,
	})
	transport.RegisterActivities(e, activitySvc)
	transport.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
