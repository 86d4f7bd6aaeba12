package main

import (
	"fmt"
	"os"

	"topglobal/statements/cmd/export"
	"topglobal/statements/cmd/importcmd"
	"topglobal/statements/cmd/match"
	"topglobal/statements/cmd/process"
	"topglobal/statements/cmd/root"
)

func init() {
	root.Init()
	match.Init()

	root.Cmd.AddCommand(importcmd.Cmd)
	root.Cmd.AddCommand(match.Cmd)
	root.Cmd.AddCommand(process.Cmd)
	root.Cmd.AddCommand(export.Cmd)
}

func main() {
	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
