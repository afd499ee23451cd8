package main

import "github.com/oshokin/build-tv/cmd/build-tv-daemon/cmd"

func main() {
	cmd.Execute()
}
