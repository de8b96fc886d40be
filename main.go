package main

import (
	"github.com/nhatphongdo/stock-agent-sub001/internal/cli"
)

func main() {
	cli.Run()
}
