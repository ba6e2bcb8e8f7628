package cmd

import (
	"os"
	"path/filepath"
)

const DESCRIPTION = `
Wetmap is an offline-first companion for wetland field mapping.
It queues record changes while you are in the field without
coverage, pushes them to the server the moment a connection comes
back, and keeps map tiles for your survey areas cached on disk so
the map keeps working offline.
`

const (
	LoginDescription = `The login command stores your API bearer token in the
operating system keyring. Pass the token as an argument or pipe it
on stdin.

Example:
        wetmap login eyJhbGciOi...
        cat token.txt | wetmap login

`
	RecordDescription = `The record command manages wetland location records.
Changes made while offline are queued locally and pushed on the
next sync.

Example:
        wetmap record add --title "North pond" --lat 35.12 --lon 33.41
        wetmap record list

`
	SyncDescription = `The sync command pushes queued record changes to the
server, oldest first. Actions that keep failing are parked in a
failed-action ledger after three attempts; inspect it with
--failed and empty it with --clear-failed.

Example:
        wetmap sync
        wetmap sync --failed

`
	StatusDescription = `The status command shows connectivity, the pending
queue, the failed-action ledger, the last successful sync time and
the tile cache footprint.

Example:
        wetmap status

`
	AreaDescription = `The area command manages cached map areas. Download
fetches every tile covering a bounding box for a zoom range;
re-downloading an existing name replaces it.

Example:
        wetmap area download --name akrotiri \
            --north 34.65 --south 34.55 --west 32.90 --east 33.05 \
            --min-zoom 12 --max-zoom 16
        wetmap area list

`
	WatchDescription = `The watch command runs in the foreground, probing
connectivity and syncing automatically on reconnect. Periodic
drain passes and cron-scheduled area refreshes come from the
configuration file.

Example:
        wetmap watch

`
)

// configPath returns the config file location: the --config flag when
// set, else $WETMAP_CONFIG, else config.yaml in the user config dir.
func configPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("WETMAP_CONFIG"); env != "" {
		return env
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "wetmap", "config.yaml")
}
