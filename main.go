package main

import (
	"fmt"
	"os"

	"github.com/adaav/wetmap/cmd"
)

var (
	version   string
	commit    string
	date      string
	buildType string = "unclassified"
)

func main() {
	err := cmd.Execute(os.Args, cmd.BuildArgs{
		Version:   version,
		Commit:    commit,
		Date:      date,
		BuildType: buildType,
	})
	if err != nil {
		fmt.Printf("wetmap: %s\n", err.Error())
		os.Exit(1)
	}
}
