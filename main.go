// renio finds attendees nearby at a conference and keeps score of the time spent with them.
package main

import (
	"fmt"
	"os"

	"github.com/renaissanceio/renio/cmd"
	"github.com/renaissanceio/renio/cmd/mob"
)

var (
	version string
	commit  string
	branch  string
)

func main() {
	cmd.Version = version
	cmd.Commit = commit
	cmd.Branch = branch
	if err := mob.New().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
