package main

import (
	"os"

	"github.com/openhealth/openhealth/healthservice"
)

func main() {
	if err := healthservice.Run(); err != nil {
		os.Exit(1)
	}
}
