package main

import (
	"github.com/EnSpec/SpecDAL/pkg/cli"
)

func main() {
	cli.Execute()
}
