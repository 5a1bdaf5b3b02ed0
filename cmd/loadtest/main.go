package main

import (
	"github.com/aagoksoy/http-load-tester/cmd"
)

func main() {
	cmd.Execute()
}
