package main

import (
	"os"

	"github.com/cypher256/java-extension-pack-sub000/cmd"
)

// Version is set during build time via ldflags
var Version = "dev"

func main() {
	if err := cmd.Execute(Version); err != nil {
		os.Exit(1)
	}
}
