package main

import "boshamlan-scraper/cmd"

func main() {
	cmd.Execute()
}
