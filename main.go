package main

import "github.com/lsrsim/sospf/cmd"

func main() {
	cmd.Execute()
}
