package main

import (
	"os"

	"github.com/EnSpec/SpecDAL/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		os.Exit(1)
	}
}
