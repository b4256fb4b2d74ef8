package main

import (
	"os"

	"github.com/soundprediction/aboxlink/cmd/aboxlink"
)

func main() {
	os.Exit(aboxlink.ExitCode(aboxlink.Execute()))
}
