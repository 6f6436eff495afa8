package main

import (
	"log"

	"github.com/marklet/marklet/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ marklet failed to start: %v", err)
	}
}
