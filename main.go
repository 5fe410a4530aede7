package main

import (
	"networkinfo/cmd"

	_ "go.uber.org/automaxprocs"
)

func main() {
	cmd.Execute()
}
