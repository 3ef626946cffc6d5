package main

import (
	"os"

	"github.com/usershub-go/usershub/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
