package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"

	"github.com/adaav/wetmap/cmd/common"
	"github.com/adaav/wetmap/pkg/credman"
)

func login(ctx *cli.Context) error {
	token := strings.TrimSpace(ctx.Args().First())
	if token == "" {
		// Piped input keeps the token out of shell history.
		stat, err := os.Stdin.Stat()
		if err == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			token = strings.TrimSpace(line)
		}
	}
	if token == "" {
		return common.PrintErrWithCmdHelp(
			ctx,
			errors.New("no token provided"),
		)
	}
	tokens := credman.NewTokenStore()
	if err := tokens.Save(token); err != nil {
		common.PrintRuntimeErr(ctx, "login", "save_token", err)
		return nil
	}
	fmt.Println("token stored")
	return nil
}

func logout(ctx *cli.Context) error {
	tokens := credman.NewTokenStore()
	if err := tokens.Delete(); err != nil {
		common.PrintRuntimeErr(ctx, "logout", "delete_token", err)
		return nil
	}
	fmt.Println("token removed")
	return nil
}
