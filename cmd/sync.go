package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/adaav/wetmap/cmd/common"
	"github.com/adaav/wetmap/pkg/wetlib"
)

var (
	showFailed  bool
	clearFailed bool

	syncFlags = []cli.Flag{
		cli.BoolFlag{
			Name:        "failed, f",
			Usage:       "show the failed-action ledger instead of syncing",
			Destination: &showFailed,
		},
		cli.BoolFlag{
			Name:        "clear-failed",
			Usage:       "empty the failed-action ledger",
			Destination: &clearFailed,
		},
	}
)

// drainIfOnline runs one sync pass when the server is reachable. Used by
// record commands so a change made with coverage lands immediately.
func drainIfOnline(env *appEnv) {
	if env.queue.Len() == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	online := env.probe(ctx)
	cancel()
	if !online {
		fmt.Println("offline, changes will sync on the next pass")
		return
	}
	res, err := env.engine.Sync(context.Background(), func() bool { return true })
	if err != nil {
		env.log.Warning("sync: %v", err)
		return
	}
	fmt.Printf("synced: %d applied, %d kept, %d dropped\n", res.Completed, res.Failed, res.Dropped)
}

func sync(ctx *cli.Context) error {
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	if clearFailed {
		if err := env.engine.ClearFailed(); err != nil {
			common.PrintRuntimeErr(ctx, "sync", "clear_failed", err)
			return nil
		}
		fmt.Println("failed-action ledger cleared")
		return nil
	}
	if showFailed {
		return printFailed(ctx, env)
	}

	pctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	online := env.probe(pctx)
	cancel()
	if !online {
		common.PrintRuntimeErr(ctx, "sync", "probe", wetlib.ErrOffline)
		return nil
	}

	res, err := env.engine.Sync(context.Background(), func() bool { return true })
	if err != nil {
		common.PrintRuntimeErr(ctx, "sync", "drain", err)
		return nil
	}
	if res.Completed == 0 && res.Failed == 0 && res.Dropped == 0 {
		fmt.Println("nothing to sync")
		return nil
	}
	fmt.Printf("synced: %d applied, %d kept for retry, %d dropped to ledger\n",
		res.Completed, res.Failed, res.Dropped)
	return nil
}

func printFailed(ctx *cli.Context, env *appEnv) error {
	failed, err := env.engine.FailedActions()
	if err != nil {
		common.PrintRuntimeErr(ctx, "sync", "failed_ledger", err)
		return nil
	}
	if len(failed) == 0 {
		fmt.Println("failed-action ledger is empty")
		return nil
	}
	for _, f := range failed {
		fmt.Printf("%s\t%s %s\t%s\t%s\n",
			f.Action.ID,
			f.Action.Kind,
			f.Action.Endpoint,
			f.FailedAt.Format(time.RFC3339),
			f.Reason,
		)
	}
	return nil
}
