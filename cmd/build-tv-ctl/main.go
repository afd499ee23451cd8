package main

import "github.com/oshokin/build-tv/cmd/build-tv-ctl/cmd"

func main() {
	cmd.Execute()
}
