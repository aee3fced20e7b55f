package main

import (
	"log"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatalf("newscollect: %v", err)
	}
}
