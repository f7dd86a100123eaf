package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/forgo/rally/internal/config"
	"github.com/forgo/rally/pkg/jwt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	privateKeyPath := flag.String("key", firstNonEmpty(cfg.JWT.PrivateKeyPath, "./keys/private.pem"), "Path to JWT private key")
	publicKeyPath := flag.String("pub", cfg.JWT.PublicKeyPath, "Path to JWT public key (written with -generate)")
	generate := flag.Bool("generate", false, "Generate a new key pair before signing")
	userID := flag.String("user", "user:dev", "User ID (token subject)")
	name := flag.String("name", "Dev User", "Display name claim")
	issuer := flag.String("issuer", cfg.JWT.Issuer, "JWT issuer")
	expMins := flag.Int("exp", 60*24*7, "Token expiration in minutes (default: 7 days)")
	outputJSON := flag.Bool("json", false, "Output as JSON")

	flag.Parse()

	if *generate {
		if err := jwt.GenerateKeyPair(*privateKeyPath, *publicKeyPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating keys: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s and %s\n", *privateKeyPath, *publicKeyPath)
	}

	jwtService, err := jwt.NewService(jwt.Config{
		PrivateKeyPath: *privateKeyPath,
		Issuer:         *issuer,
		ExpirationMins: *expMins,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating JWT service: %v\n", err)
		fmt.Fprintf(os.Stderr, "\nGenerate a key pair first with: devtoken -generate\n")
		os.Exit(1)
	}

	token, err := jwtService.Sign(*userID, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error signing token: %v\n", err)
		os.Exit(1)
	}

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"access_token": token,
			"token_type":   "Bearer",
			"expires_in":   *expMins * 60,
			"user_id":      *userID,
		})
		return
	}

	expTime := time.Now().Add(jwtService.GetExpiration())
	fmt.Println("Development Token")
	fmt.Println("=================")
	fmt.Printf("User ID:  %s\n", *userID)
	fmt.Printf("Issuer:   %s\n", *issuer)
	fmt.Printf("Expires:  %s\n", expTime.Format(time.RFC3339))
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer $TOKEN\" http://localhost:8080/v1/events?scope=upcoming")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
