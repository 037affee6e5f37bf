package commands

import (
	"fmt"
	"os"

	"github.com/valuora/backend/internal/contracts"
	"github.com/valuora/backend/internal/drivers"
	"github.com/valuora/backend/internal/loader"
	"github.com/valuora/backend/internal/peers"
	"github.com/valuora/backend/internal/sectorconfig"
	"github.com/valuora/backend/internal/valuation"
	"github.com/valuora/backend/pkg/config"
	"github.com/valuora/backend/pkg/database"
	"github.com/valuora/backend/pkg/logger"
	"github.com/valuora/backend/pkg/redis"
)

// env is the shared wiring for commands that run valuations.
type env struct {
	cfg     *config.Config
	sectors *sectorconfig.Config
	log     *logger.Logger
	db      *database.DB
	redis   *redis.Client
	records *loader.Loader
	service *valuation.Service
	results contracts.ResultRepository
}

// setupEnv loads configuration and connects every collaborator the
// valuation pipeline needs.
func setupEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(cfg)

	sectors, err := loadSectorConfig(cfg, log)
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	redisClient, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	records := loader.New(cfg.RecordsDir, log)
	driverRepo := drivers.NewRepository(db.Pool)
	peerRepo := peers.NewCachedRepository(
		peers.NewRepository(db.Pool),
		redis.NewCache(redisClient, "valuora"),
		log,
	)

	return &env{
		cfg:     cfg,
		sectors: sectors,
		log:     log,
		db:      db,
		redis:   redisClient,
		records: records,
		service: valuation.NewService(sectors, records, driverRepo, peerRepo, seed, log),
		results: valuation.NewResultRepository(db.Pool),
	}, nil
}

// close releases the environment's connections.
func (e *env) close() {
	if e.redis != nil {
		e.redis.Close()
	}
	if e.db != nil {
		e.db.Close()
	}
}

// loadSectorConfig reads the sector model configuration, falling back
// to the shipped defaults when no file is present.
func loadSectorConfig(cfg *config.Config, log *logger.Logger) (*sectorconfig.Config, error) {
	if _, err := os.Stat(cfg.SectorConfigPath); os.IsNotExist(err) {
		log.WithField("path", cfg.SectorConfigPath).Warn("Sector config not found, using built-in defaults")
		return sectorconfig.Default(), nil
	}

	sectors, _, err := sectorconfig.Load(cfg.SectorConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load sector config: %w", err)
	}

	hash, err := sectorconfig.Hash(sectors)
	if err == nil {
		log.WithFields(map[string]interface{}{
			"config_id": sectors.Meta.ConfigID,
			"hash":      hash[:12],
		}).Info("Sector config loaded")
	}
	return sectors, nil
}
