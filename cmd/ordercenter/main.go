package main

import "github.com/RoyceAzure/lab/ordercenter/cmd/ordercenter/commands"

func main() {
	commands.Execute()
}
