package cmd

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/adaav/wetmap/cmd/common"
	"github.com/adaav/wetmap/pkg/credman"
	"github.com/adaav/wetmap/pkg/logger"
	"github.com/adaav/wetmap/pkg/wetlib"
)

var cfgFlagValue string

var configFlag = cli.StringFlag{
	Name:        "config, c",
	Usage:       "path to the configuration file",
	Destination: &cfgFlagValue,
}

// appEnv is the wired runtime every command runs against: config, the
// durable kv store and the stateful components built on top of it.
type appEnv struct {
	cfg    *wetlib.Config
	log    logger.Logger
	kv     *wetlib.SQLiteStore
	tokens *credman.TokenStore
	api    *wetlib.Client
	queue  *wetlib.ActionQueue
	cache  *wetlib.LocationCache
	tiles  *wetlib.TileCacheStore
	engine *wetlib.SyncEngine
	mon    *wetlib.Monitor
	probe  wetlib.Probe
}

// newAppEnv loads configuration and opens every store. It is called at
// the top of each command action; failures are already printed.
func newAppEnv(ctx *cli.Context) (*appEnv, error) {
	// Env vars from a local .env complement the config file; a missing
	// file is the normal case.
	_ = godotenv.Load()

	cfg, err := wetlib.LoadConfig(configPath(cfgFlagValue))
	if err != nil {
		common.PrintRuntimeErr(ctx, "setup", "load_config", err)
		return nil, err
	}
	l := logger.NewStandard(log.New(os.Stderr, "wetmap: ", log.LstdFlags), cfg.Verbose)

	if err := os.MkdirAll(cfg.Cache.Dir, 0o755); err != nil {
		common.PrintRuntimeErr(ctx, "setup", "data_dir", err)
		return nil, err
	}
	kv, err := wetlib.OpenSQLiteStore(cfg.Cache.DBPath())
	if err != nil {
		common.PrintRuntimeErr(ctx, "setup", "open_store", err)
		return nil, err
	}

	hc, err := wetlib.NewHTTPClient(cfg.Proxy, cfg.API.Timeout.Std())
	if err != nil {
		kv.Close()
		common.PrintRuntimeErr(ctx, "setup", "http_client", err)
		return nil, err
	}

	tokens := credman.NewTokenStore()
	api := wetlib.NewClient(cfg.API.BaseURL, hc, tokenSource(cfg, tokens))

	queue := wetlib.NewActionQueue(kv, l)
	if err := queue.Load(); err != nil {
		kv.Close()
		common.PrintRuntimeErr(ctx, "setup", "load_queue", err)
		return nil, err
	}
	cache := wetlib.NewLocationCache(kv, l)
	if err := cache.Load(); err != nil {
		kv.Close()
		common.PrintRuntimeErr(ctx, "setup", "load_cache", err)
		return nil, err
	}
	tiles := wetlib.NewTileCacheStore(afero.NewOsFs(), cfg.Cache.Dir, kv, l)
	if err := tiles.Load(); err != nil {
		kv.Close()
		common.PrintRuntimeErr(ctx, "setup", "load_tiles", err)
		return nil, err
	}

	probeURL := cfg.Network.ProbeURL
	if probeURL == "" {
		probeURL = cfg.API.BaseURL
	}
	probe := wetlib.HTTPProbe(hc, probeURL)
	mon := wetlib.NewMonitor(wetlib.MonitorOpts{
		Probe:    probe,
		Interval: cfg.Network.Interval.Std(),
		Debounce: cfg.Network.Debounce.Std(),
		Logger:   l,
	})

	return &appEnv{
		cfg:    cfg,
		log:    l,
		kv:     kv,
		tokens: tokens,
		api:    api,
		queue:  queue,
		cache:  cache,
		tiles:  tiles,
		engine: wetlib.NewSyncEngine(queue, api, cache, kv, l),
		mon:    mon,
		probe:  probe,
	}, nil
}

// Close releases the kv store.
func (a *appEnv) Close() {
	if a.kv != nil {
		a.kv.Close()
	}
}

// tokenSource resolves the bearer token per request: the token file from
// the config wins when set, the OS keyring otherwise.
func tokenSource(cfg *wetlib.Config, tokens *credman.TokenStore) wetlib.TokenSource {
	return func() (string, error) {
		if cfg.API.TokenFile != "" {
			raw, err := os.ReadFile(cfg.API.TokenFile)
			if err != nil {
				return "", err
			}
			return string(trimNewline(raw)), nil
		}
		return tokens.Token()
	}
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
