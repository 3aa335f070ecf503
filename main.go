package main

import "github.com/Unlike-U/420soundclashweb/cmd"

func main() {
	cmd.Execute()
}
