package main

import "github.com/thobe/thread-dump-analysis/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
