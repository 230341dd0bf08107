package main

import (
	"os"

	"github.com/msi-handson/lambda-role/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
