package main

import (
	"github.com/csmentor/csmentor/cmd/csmentor/cmd"
)

func main() {
	cmd.Execute()
}
