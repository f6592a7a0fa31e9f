//go:build !ebiten

package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Fprintln(os.Stderr, "worldview needs a desktop build: go build -tags ebiten ./cmd/worldview")
	os.Exit(1)
}
