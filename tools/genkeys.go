package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
)

// Standalone key bootstrap for the run journal: prints a fresh ed25519
// keypair, hex encoded to match the key files the server reads.
func main() {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen error: %v\n", err)
		os.Exit(2)
	}

	fmt.Println("# ======= Ed25519 Keypair (hex) =======")
	fmt.Println()
	fmt.Println("PRIVATE_KEY_HEX:")
	fmt.Println(hex.EncodeToString(priv))
	fmt.Println()
	fmt.Println("PUBLIC_KEY_HEX:")
	fmt.Println(hex.EncodeToString(pub))
	fmt.Println()
	fmt.Println("# =====================================")
}
