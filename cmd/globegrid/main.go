package main

import "github.com/MeKo-Tech/globegrid/internal/cmd"

func main() {
	cmd.Execute()
}
