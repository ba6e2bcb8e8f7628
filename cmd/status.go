package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli"
)

func status(ctx *cli.Context) error {
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	online := env.probe(pctx)
	cancel()

	state := "offline"
	if online {
		state = "online"
	}
	lastSync := "never"
	if t := env.engine.LastSyncTime(); !t.IsZero() {
		lastSync = t.Format(time.RFC3339)
	}
	failed, _ := env.engine.FailedActions()

	fmt.Printf("connectivity\t: %s\n", state)
	fmt.Printf("pending actions\t: %d\n", env.queue.Len())
	fmt.Printf("failed actions\t: %d\n", len(failed))
	fmt.Printf("last sync\t: %s\n", lastSync)
	fmt.Printf("cached records\t: %d\n", len(env.cache.Current()))
	fmt.Printf("cached areas\t: %d\n", len(env.tiles.Areas()))
	fmt.Printf("tile cache size\t: %s\n", humanize.Bytes(uint64(env.tiles.TotalSizeBytes())))
	return nil
}
