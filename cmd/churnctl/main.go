package main

import (
	"github.com/lujainmohamed8/SpotifyChurnPrediction/pkg/cli"
)

func main() {
	cli.Execute()
}
