package main

import (
	"github.com/turtacn/authsvc/cmd/cli"
)

// main is the entry point for the authsvc-admin command-line tool.
// main 是 authsvc-admin 命令行工具的入口点。
func main() {
	cli.Execute()
}
