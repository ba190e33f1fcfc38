package main

import (
	"os"

	"github.com/PrepDesk/PrepDesk/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
