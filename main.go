// ./main.go
package main

import (
	"github.com/xkilldash9x/webtester/cmd"
)

// main is the entry point for the webtester CLI.
func main() {
	cmd.Execute()
}
