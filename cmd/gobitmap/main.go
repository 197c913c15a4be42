package main

import "github.com/MeKo-Tech/gobitmap/cmd/gobitmap/cmd"

func main() {
	cmd.Execute()
}
