package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli"

	"github.com/adaav/wetmap/cmd/common"
	"github.com/adaav/wetmap/internal/scheduler"
	"github.com/adaav/wetmap/pkg/wetlib"
)

func watch(ctx *cli.Context) error {
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	cron := env.cfg.Sync.RefreshCron
	if cron != "" && !scheduler.ValidCron(cron) {
		common.PrintRuntimeErr(ctx, "watch", "refresh_cron",
			fmt.Errorf("invalid cron expression %q", cron))
		return nil
	}

	wctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cancelAuto := env.engine.BindAutoSync(wctx, env.mon)
	defer cancelAuto()
	env.mon.Start(wctx)

	hc, err := wetlib.NewHTTPClient(env.cfg.Proxy, env.cfg.Tiles.Timeout.Std())
	if err != nil {
		common.PrintRuntimeErr(ctx, "watch", "http_client", err)
		return nil
	}
	dl := wetlib.NewAreaDownloader(env.tiles, &wetlib.HTTPTileFetcher{
		Client:    hc,
		UserAgent: env.cfg.Tiles.UserAgent,
	}, &wetlib.AreaDownloaderOpts{
		Mirrors:   env.cfg.Tiles.Mirrors,
		BatchSize: env.cfg.Tiles.BatchSize,
		Logger:    env.log,
	})

	sched := scheduler.New(wctx, func(j scheduler.Job) {
		switch j.Kind {
		case scheduler.JobSync:
			if !env.mon.Online() {
				return
			}
			res, err := env.engine.Sync(wctx, env.mon.Online)
			if err != nil && err != wetlib.ErrSyncInProgress {
				env.log.Warning("scheduled sync: %v", err)
				return
			}
			if res.Completed > 0 || res.Dropped > 0 {
				env.log.Info("scheduled sync: %d applied, %d dropped", res.Completed, res.Dropped)
			}
		case scheduler.JobRefreshArea:
			go refreshArea(wctx, env, dl, j.Name)
		}
	})

	if iv := env.cfg.Sync.Interval.Std(); iv > 0 {
		sched.Add(scheduler.Job{
			Name:      "drain",
			Kind:      scheduler.JobSync,
			TriggerAt: time.Now().Add(iv),
			Interval:  iv,
		})
	}
	if cron != "" {
		for _, name := range env.cfg.Sync.RefreshAreas {
			next, ok := scheduler.NextCron(cron, time.Now())
			if !ok {
				continue
			}
			sched.Add(scheduler.Job{
				Name:      name,
				Kind:      scheduler.JobRefreshArea,
				TriggerAt: next,
				CronExpr:  cron,
			})
		}
	}

	fmt.Println(">> Watching: auto-sync on reconnect, Ctrl-C to stop <<")
	<-wctx.Done()
	fmt.Println("watch stopped")
	return nil
}

// refreshArea re-downloads a cached area with its recorded bounds and
// zoom range. Areas never downloaded are skipped.
func refreshArea(ctx context.Context, env *appEnv, dl *wetlib.AreaDownloader, name string) {
	meta, err := env.tiles.Area(name)
	if err != nil {
		env.log.Warning("refresh %q: %v", name, err)
		return
	}
	if !env.mon.Online() {
		env.log.Info("refresh %q skipped: offline", name)
		return
	}
	fresh, err := dl.DownloadArea(ctx, meta.Name, meta.Bounds, meta.MinZoom, meta.MaxZoom)
	if err != nil {
		env.log.Warning("refresh %q: %v", name, err)
		return
	}
	env.log.Info("refresh %q: %d tiles, %d bytes", fresh.Name, fresh.TileCount, fresh.SizeBytes)
}
