package main

import (
	"github.com/Shaydu/cache-raiders-sub000/internal/cli"
)

func main() {
	cli.Execute()
}
