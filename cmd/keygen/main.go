// Command keygen prints a fresh base64 AES-256 key for TEAMHUB_ENCRYPTION_KEY.
package main

import (
	"fmt"
	"log"

	"teamhub.app/internal/secrets"
)

func main() {
	log.SetFlags(0)
	key, err := secrets.GenerateKey()
	if err != nil {
		log.Fatalf("keygen: %v", err)
	}
	fmt.Println(key)
}
