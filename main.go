package main

import (
	"os"

	"github.com/scan-io-git/identity-leak/cmd"
)

func main() {
	code := cmd.Execute()
	os.Exit(code)
}
