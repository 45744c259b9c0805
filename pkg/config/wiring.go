package config

import (
	"context"
	"fmt"

	"github.com/buckyos/ndnd/pkg/metrics"
	"github.com/buckyos/ndnd/pkg/ndn/chunkstore"
	"github.com/buckyos/ndnd/pkg/zone"
)

// BuildChunkStore opens a chunkstore.Store from cfg, wiring in the
// optional S3 remote tier and the process-wide metrics registry when
// enabled.
func BuildChunkStore(ctx context.Context, cfg ChunkStoreConfig, csMetrics *metrics.ChunkStoreMetrics) (*chunkstore.Store, error) {
	storeCfg := chunkstore.Config{
		Root:              cfg.Root,
		Metrics:           csMetrics,
		DiscardIncomplete: cfg.DiscardIncomplete,
	}

	if cfg.Remote.Enabled {
		remote, err := chunkstore.NewS3RemoteTier(ctx, chunkstore.S3RemoteConfig{
			Bucket:          cfg.Remote.Bucket,
			KeyPrefix:       cfg.Remote.KeyPrefix,
			Region:          cfg.Remote.Region,
			Endpoint:        cfg.Remote.Endpoint,
			AccessKeyID:     cfg.Remote.AccessKeyID,
			SecretAccessKey: cfg.Remote.SecretAccessKey,
			UsePathStyle:    cfg.Remote.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("build remote chunk tier: %w", err)
		}
		storeCfg.Remote = remote
		storeCfg.RemoteThreshold = uint64(cfg.Remote.Threshold)
	}

	store, err := chunkstore.Open(storeCfg)
	if err != nil {
		return nil, fmt.Errorf("open chunk store at %s: %w", cfg.Root, err)
	}
	return store, nil
}

// BuildZoneResolver loads a zone.StaticResolver from cfg's static
// file, or returns an empty resolver when none is configured.
func BuildZoneResolver(cfg ZoneConfig) (zone.Resolver, error) {
	if cfg.StaticFile == "" {
		return zone.NewStaticResolver(), nil
	}
	r, err := zone.LoadFile(cfg.StaticFile)
	if err != nil {
		return nil, fmt.Errorf("load zone file %s: %w", cfg.StaticFile, err)
	}
	return r, nil
}
