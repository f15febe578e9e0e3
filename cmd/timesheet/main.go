package main

import (
	_ "time/tzdata"

	"timesheet/internal/cli"
)

func main() {
	cli.Execute()
}
