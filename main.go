package main

import "github.com/versio-mono/versio/cmd"

func main() {
	cmd.Execute()
}
