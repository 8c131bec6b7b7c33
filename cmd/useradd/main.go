package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/plateful-app/plateful/app/models"
	"github.com/plateful-app/plateful/app/repository"
	"github.com/plateful-app/plateful/internal/pkg/database"
	"github.com/plateful-app/plateful/internal/pkg/env"
)

// Creates a user with a fresh API key and prints the key once. The key is
// stored only as a SHA-256 hash and cannot be recovered later.
func main() {
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "email address")
	password := flag.String("password", "", "login password")
	admin := flag.Bool("admin", false, "grant the admin role")
	flag.Parse()

	if *name == "" || *email == "" || *password == "" {
		flag.Usage()
		os.Exit(1)
	}

	env.SetupEnvFile()
	database.SetupDatabase()
	repository.InitializeFactory(database.GetDB())

	user, err := models.CreateUser(*name, *email, *password)
	if err != nil {
		log.Fatalf("Failed to prepare user: %v", err)
	}
	if *admin {
		user.Role = models.ROLE_ADMIN
	}

	apiKey, err := models.GenerateAPIKey()
	if err != nil {
		log.Fatalf("Failed to generate API key: %v", err)
	}
	user.APIKeyHash = models.HashAPIKey(apiKey)

	if err := user.Validate(); err != nil {
		log.Fatalf("Invalid user: %v", err)
	}
	if err := repository.GetGlobalFactory().GetUserRepository().Create(user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}

	fmt.Printf("Created user %d (%s, role=%s)\n", user.ID, user.Email, user.Role)
	fmt.Printf("API key (shown once): %s\n", apiKey)
}
