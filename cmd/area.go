package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"

	"github.com/adaav/wetmap/cmd/common"
	"github.com/adaav/wetmap/pkg/wetlib"
)

var (
	areaName  string
	areaNorth float64
	areaSouth float64
	areaEast  float64
	areaWest  float64
	areaMinZ  int
	areaMaxZ  int

	areaDlFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "name, n",
			Usage:       "name for the cached area",
			Destination: &areaName,
		},
		cli.Float64Flag{
			Name:        "north",
			Usage:       "north edge latitude",
			Destination: &areaNorth,
		},
		cli.Float64Flag{
			Name:        "south",
			Usage:       "south edge latitude",
			Destination: &areaSouth,
		},
		cli.Float64Flag{
			Name:        "east",
			Usage:       "east edge longitude",
			Destination: &areaEast,
		},
		cli.Float64Flag{
			Name:        "west",
			Usage:       "west edge longitude",
			Destination: &areaWest,
		},
		cli.IntFlag{
			Name:        "min-zoom",
			Usage:       "lowest zoom level to fetch",
			Value:       12,
			Destination: &areaMinZ,
		},
		cli.IntFlag{
			Name:        "max-zoom",
			Usage:       "highest zoom level to fetch",
			Value:       16,
			Destination: &areaMaxZ,
		},
	}
)

func areaDownload(ctx *cli.Context) error {
	if areaName == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no area name provided"),
		)
	}
	bounds := wetlib.Bounds{
		North: areaNorth,
		South: areaSouth,
		East:  areaEast,
		West:  areaWest,
	}
	if err := bounds.Validate(); err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	tiles, err := wetlib.TilesForArea(env.cfg.Tiles.Mirrors, bounds, areaMinZ, areaMaxZ)
	if err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	fmt.Printf(">> Caching area %q: %d tiles, zoom %d-%d <<\n",
		areaName, len(tiles), areaMinZ, areaMaxZ)

	p := mpb.New(mpb.WithWidth(64))
	bar := common.InitTileBar(p, "", int64(len(tiles)))

	handlers := &wetlib.DownloadHandlers{
		TileFetchedHandler: func(_ wetlib.Tile, _ int64, _, _ int) {
			bar.Increment()
		},
		TileFailedHandler: func(_ wetlib.Tile, _ error) {
			// Failed tiles still move the bar so it can complete.
			bar.Increment()
		},
	}
	hc, err := wetlib.NewHTTPClient(env.cfg.Proxy, env.cfg.Tiles.Timeout.Std())
	if err != nil {
		common.PrintRuntimeErr(ctx, "area", "http_client", err)
		return nil
	}
	dl := wetlib.NewAreaDownloader(env.tiles, &wetlib.HTTPTileFetcher{
		Client:    hc,
		UserAgent: env.cfg.Tiles.UserAgent,
	}, &wetlib.AreaDownloaderOpts{
		Mirrors:   env.cfg.Tiles.Mirrors,
		BatchSize: env.cfg.Tiles.BatchSize,
		Handlers:  handlers,
		Logger:    env.log,
	})

	dctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	meta, err := dl.DownloadArea(dctx, areaName, bounds, areaMinZ, areaMaxZ)
	bar.Abort(false)
	p.Wait()
	if err != nil {
		common.PrintRuntimeErr(ctx, "area", "download", err)
		return nil
	}
	fmt.Printf("area %q cached: %d/%d tiles, %s\n",
		meta.Name, meta.TileCount, len(tiles), humanize.Bytes(uint64(meta.SizeBytes)))
	return nil
}

func areaList(ctx *cli.Context) error {
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	areas := env.tiles.Areas()
	if len(areas) == 0 {
		fmt.Println("no cached areas")
		return nil
	}
	for _, a := range areas {
		fmt.Printf("%s\tz%d-%d\t%d tiles\t%s\t%s\n",
			a.Name,
			a.MinZoom, a.MaxZoom,
			a.TileCount,
			humanize.Bytes(uint64(a.SizeBytes)),
			a.DownloadedAt.Format(time.RFC3339),
		)
	}
	return nil
}

func areaDelete(ctx *cli.Context) error {
	name := ctx.Args().First()
	if name == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no area name provided"),
		)
	}
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	if err := env.tiles.DeleteArea(name); err != nil {
		common.PrintRuntimeErr(ctx, "area", "delete", err)
		return nil
	}
	fmt.Printf("area %q deleted\n", name)
	return nil
}

func areaClear(ctx *cli.Context) error {
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	if err := env.tiles.ClearAll(); err != nil {
		common.PrintRuntimeErr(ctx, "area", "clear", err)
		return nil
	}
	fmt.Println("tile cache cleared")
	return nil
}
