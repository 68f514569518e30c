package main

import "github.com/jonandersen/chicoin/cmd"

func main() {
	cmd.Execute()
}
