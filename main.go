package main

import "heartrisk/cli"

func main() {
	cli.Execute()
}
