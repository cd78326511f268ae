//	@title			ShareThis API
//	@version		1.0
//	@description	Share files through short-lived download links.
//
//	@host		localhost:8080
//	@BasePath	/api

package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "sharethis:", err)
		os.Exit(1)
	}
}
