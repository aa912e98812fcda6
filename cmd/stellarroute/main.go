package main

import (
	"github.com/stellarroute/stellarroute/internal/cli"
)

func main() {
	cli.Execute()
}
