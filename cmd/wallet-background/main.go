package main

import "wallet-background/cmd/wallet-background/cmd"

func main() {
	cmd.Execute()
}
