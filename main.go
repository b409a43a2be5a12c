package main

import (
	"github.com/rskv-p/mqttwarn/cmd"
	_ "github.com/rskv-p/mqttwarn/hooks/sample"
)

func main() {
	cmd.Execute()
}
