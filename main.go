package main

import "media-processor/cmd"

func main() {
	cmd.Execute()
}
