package main

import (
	"VibeFM/cmd"
)

func main() {
	cmd.Execute()
}
