package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"comedyuo/showsync/internal/auth"
)

// admintoken mints an HS256 admin bearer token signed with ADMIN_TOKEN_SECRET.
func main() {
	subject := flag.String("sub", "admin", "token subject")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load()

	secret := os.Getenv("ADMIN_TOKEN_SECRET")
	if secret == "" {
		log.Fatal("ADMIN_TOKEN_SECRET is not set")
	}

	token, err := auth.IssueAdminToken([]byte(secret), *subject, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}

	fmt.Println("New admin token:", token)
}
