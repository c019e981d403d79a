package main

import (
	"fmt"
	"log"

	"github.com/smarttransit/carrier-reservations/internal/utils"
)

func main() {
	fmt.Println("===========================================")
	fmt.Println("JWT Secret Generator for the carrier back office")
	fmt.Println("===========================================")
	fmt.Println()

	secrets, err := utils.GenerateJWTSecrets()
	if err != nil {
		log.Fatalf("Failed to generate secrets: %v", err)
	}

	fmt.Println("Add these to your .env file:")
	fmt.Println()
	fmt.Print(secrets.EnvLines())
	fmt.Println()
	fmt.Println("Keep these secrets out of version control.")
	fmt.Println("===========================================")
}
