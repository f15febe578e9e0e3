package main

import (
	_ "time/tzdata"

	"timesheet/internal/app/server"
)

func main() {
	server.Run()
}
