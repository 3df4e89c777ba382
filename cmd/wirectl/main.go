package main

import "github.com/OpenTraceLab/circuitwire/cmd/wirectl/cmd"

func main() {
	cmd.Execute()
}
