package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/adaav/wetmap/cmd/common"
	"github.com/adaav/wetmap/pkg/wetlib"
)

var (
	recTitle string
	recDesc  string
	recLat   float64
	recLon   float64
	recType  string
	recCity  string

	recFlags = []cli.Flag{
		cli.StringFlag{
			Name:        "title, t",
			Usage:       "record title",
			Destination: &recTitle,
		},
		cli.StringFlag{
			Name:        "description, d",
			Usage:       "free-text description",
			Destination: &recDesc,
		},
		cli.Float64Flag{
			Name:        "lat",
			Usage:       "latitude in decimal degrees",
			Destination: &recLat,
		},
		cli.Float64Flag{
			Name:        "lon",
			Usage:       "longitude in decimal degrees",
			Destination: &recLon,
		},
		cli.StringFlag{
			Name:        "type",
			Usage:       "wetland type, e.g. marsh, pond, salt-lake",
			Destination: &recType,
		},
		cli.StringFlag{
			Name:        "city",
			Usage:       "nearest city or district",
			Destination: &recCity,
		},
	}

	lsRemote  bool
	lsType    string
	lsCity    string
	lsRecFlag = []cli.Flag{
		cli.BoolFlag{
			Name:        "remote, r",
			Usage:       "list from the server instead of the offline snapshot",
			Destination: &lsRemote,
		},
		cli.StringFlag{
			Name:        "type",
			Usage:       "filter by wetland type",
			Destination: &lsType,
		},
		cli.StringFlag{
			Name:        "city",
			Usage:       "filter by city",
			Destination: &lsCity,
		},
	}
)

func recordFromFlags(id string) wetlib.LocationRecord {
	return wetlib.LocationRecord{
		ID:          id,
		Title:       recTitle,
		Description: recDesc,
		Latitude:    recLat,
		Longitude:   recLon,
		Type:        recType,
		City:        recCity,
	}
}

func recordAdd(ctx *cli.Context) error {
	rec := recordFromFlags("")
	if err := rec.Validate(); err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	payload, err := json.Marshal(rec)
	if err != nil {
		common.PrintRuntimeErr(ctx, "record", "encode", err)
		return nil
	}
	action, err := env.queue.Append(wetlib.ActionCreate, wetlib.EndpointLocations, "", payload)
	if err != nil {
		common.PrintRuntimeErr(ctx, "record", "enqueue", err)
		return nil
	}
	fmt.Printf("queued create %s (%d pending)\n", action.ID, env.queue.Len())
	drainIfOnline(env)
	return nil
}

func recordUpdate(ctx *cli.Context) error {
	id := ctx.Args().First()
	if id == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no record id provided"),
		)
	}
	rec := recordFromFlags(id)
	if err := rec.Validate(); err != nil {
		return common.PrintErrWithCmdHelp(ctx, err)
	}
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	payload, err := json.Marshal(rec)
	if err != nil {
		common.PrintRuntimeErr(ctx, "record", "encode", err)
		return nil
	}
	action, err := env.queue.Append(wetlib.ActionUpdate, wetlib.EndpointLocations, id, payload)
	if err != nil {
		common.PrintRuntimeErr(ctx, "record", "enqueue", err)
		return nil
	}
	fmt.Printf("queued update %s (%d pending)\n", action.ID, env.queue.Len())
	drainIfOnline(env)
	return nil
}

func recordDelete(ctx *cli.Context) error {
	id := ctx.Args().First()
	if id == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no record id provided"),
		)
	}
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	action, err := env.queue.Append(wetlib.ActionDelete, wetlib.EndpointLocations, id, nil)
	if err != nil {
		common.PrintRuntimeErr(ctx, "record", "enqueue", err)
		return nil
	}
	fmt.Printf("queued delete %s (%d pending)\n", action.ID, env.queue.Len())
	drainIfOnline(env)
	return nil
}

func recordList(ctx *cli.Context) error {
	env, err := newAppEnv(ctx)
	if err != nil {
		return nil
	}
	defer env.Close()

	var records []wetlib.LocationRecord
	if lsRemote {
		records, err = env.api.ListRecords(context.Background(), wetlib.RecordFilter{
			Type: lsType,
			City: lsCity,
		})
		if err != nil {
			common.PrintRuntimeErr(ctx, "record", "list", err)
			return nil
		}
		// A fresh remote listing doubles as a snapshot refresh.
		if err := env.cache.Replace(records); err != nil {
			env.log.Warning("snapshot refresh: %v", err)
		}
	} else {
		records = env.cache.Current()
		records = filterRecords(records, lsType, lsCity)
	}
	if len(records) == 0 {
		fmt.Println("no records")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s\t%s\t(%.5f, %.5f)\t%s\t%s\n",
			r.ID, r.Title, r.Latitude, r.Longitude, r.Type, r.City)
	}
	if !lsRemote {
		if t := env.engine.LastSyncTime(); !t.IsZero() {
			fmt.Printf("snapshot from last sync at %s\n", t.Format(time.RFC3339))
		}
	}
	return nil
}

func filterRecords(records []wetlib.LocationRecord, typ, city string) []wetlib.LocationRecord {
	if typ == "" && city == "" {
		return records
	}
	out := records[:0:0]
	for _, r := range records {
		if typ != "" && r.Type != typ {
			continue
		}
		if city != "" && r.City != city {
			continue
		}
		out = append(out, r)
	}
	return out
}
