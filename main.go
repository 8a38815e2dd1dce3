package main

import (
	"DeckFM/cmd"
)

func main() {
	cmd.Execute()
}
