package main

import "github.com/Tiliavir/tclock/cmd"

func main() {
	cmd.Execute()
}
