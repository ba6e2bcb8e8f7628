package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/adaav/wetmap/cmd/common"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

func Execute(args []string, bArgs BuildArgs) error {
	app := cli.App{
		Name:                  "wetmap",
		HelpName:              "wetmap",
		Usage:                 "An offline-first wetland field mapping client.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "wetmap <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Flags:                 []cli.Flag{configFlag},
		Commands: []cli.Command{
			{
				Name:               "login",
				Usage:              "store the API bearer token",
				Action:             login,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        LoginDescription,
			},
			{
				Name:   "logout",
				Usage:  "remove the stored API token",
				Action: logout,
			},
			{
				Name:               "record",
				Aliases:            []string{"r"},
				Usage:              "manage wetland location records",
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        RecordDescription,
				Subcommands: []cli.Command{
					{
						Name:                   "add",
						Usage:                  "queue a new record",
						Action:                 recordAdd,
						Flags:                  recFlags,
						OnUsageError:           common.UsageErrorCallback,
						CustomHelpTemplate:     CMD_HELP_TEMPL,
						UseShortOptionHandling: true,
					},
					{
						Name:                   "update",
						Usage:                  "queue a change to a record",
						Action:                 recordUpdate,
						Flags:                  recFlags,
						OnUsageError:           common.UsageErrorCallback,
						CustomHelpTemplate:     CMD_HELP_TEMPL,
						UseShortOptionHandling: true,
					},
					{
						Name:         "delete",
						Usage:        "queue a record deletion",
						Action:       recordDelete,
						OnUsageError: common.UsageErrorCallback,
					},
					{
						Name:                   "list",
						Usage:                  "list records from the offline snapshot or the server",
						Action:                 recordList,
						Flags:                  lsRecFlag,
						OnUsageError:           common.UsageErrorCallback,
						CustomHelpTemplate:     CMD_HELP_TEMPL,
						UseShortOptionHandling: true,
					},
				},
			},
			{
				Name:                   "sync",
				Aliases:                []string{"s"},
				Usage:                  "push queued changes to the server",
				Action:                 sync,
				Flags:                  syncFlags,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            SyncDescription,
				UseShortOptionHandling: true,
			},
			{
				Name:               "status",
				Usage:              "show connectivity, queue and cache state",
				Action:             status,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        StatusDescription,
			},
			{
				Name:               "area",
				Aliases:            []string{"a"},
				Usage:              "manage cached map areas",
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        AreaDescription,
				Subcommands: []cli.Command{
					{
						Name:                   "download",
						Usage:                  "cache tiles covering a bounding box",
						Action:                 areaDownload,
						Flags:                  areaDlFlags,
						OnUsageError:           common.UsageErrorCallback,
						CustomHelpTemplate:     CMD_HELP_TEMPL,
						UseShortOptionHandling: true,
					},
					{
						Name:         "list",
						Usage:        "list cached areas",
						Action:       areaList,
						OnUsageError: common.UsageErrorCallback,
					},
					{
						Name:         "delete",
						Usage:        "delete a cached area",
						Action:       areaDelete,
						OnUsageError: common.UsageErrorCallback,
					},
					{
						Name:         "clear",
						Usage:        "delete every cached area",
						Action:       areaClear,
						OnUsageError: common.UsageErrorCallback,
					},
				},
			},
			{
				Name:               "watch",
				Aliases:            []string{"w"},
				Usage:              "run in the foreground and sync automatically",
				Action:             watch,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Description:        WatchDescription,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of wetmap",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      status,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
	)
	return app.Run(args)
}
