package main

import (
	"os"

	"github.com/mdjarv/tio/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
