// seed inserts a test user into the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/ErlanBelekov/recipe-pantry/internal/domain"
	"github.com/ErlanBelekov/recipe-pantry/internal/infrastructure/postgres"
)

const (
	seedEmail     = "seed@test.local"
	seedFirstName = "Seed"
	seedLastName  = "User"
)

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set, run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		log.Fatalf("migrate: %v", err)
	}

	users := postgres.NewUserRepository(pool)

	created := true
	user, err := users.Create(ctx, seedEmail, seedFirstName, seedLastName)
	if errors.Is(err, domain.ErrUserExists) {
		created = false
		user, err = users.FindByEmail(ctx, seedEmail)
	}
	if err != nil {
		pool.Close()
		log.Fatalf("seed user: %v", err)
	}

	origin := os.Getenv("ORIGIN")
	if origin == "" {
		origin = "http://localhost:8080"
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  User:    %s %s <%s>\n", user.FirstName, user.LastName, user.Email)
	fmt.Printf("  User ID: %s\n", user.ID)
	fmt.Printf("  Created: %v  (false means it already existed)\n", created)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1 - request a magic link (keep the cookie jar, the link only works with it):")
	fmt.Println()
	fmt.Printf("    curl -s -c jar -b jar -X POST %s/login -d 'email=%s'\n", origin, seedEmail)
	fmt.Println()
	fmt.Println("    # ENV=local logs the email body; copy the link from the server log, then:")
	fmt.Println()
	fmt.Println("    curl -s -i -c jar -b jar 'LINK'")
	fmt.Println("    # → 303 See Other, Location: /app")
	fmt.Println()
	fmt.Println("  Step 2 - fetch the logged-in user:")
	fmt.Println()
	fmt.Printf("    curl -s -b jar %s/app\n", origin)
	fmt.Println()
	fmt.Println("  Shortcut outside production:")
	fmt.Println()
	fmt.Printf("    curl -s -i -c jar '%s/__tests/login?email=%s'\n", origin, seedEmail)
}
