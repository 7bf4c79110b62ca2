package main

import (
	"log"

	"enchantment-resolver/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
