// Command hash-generator prints bcrypt hashes for the passwords given as
// arguments. Handy for seeding accounts directly in SQL during development.
package main

import (
	"flag"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost factor")
	flag.Parse()

	passwords := flag.Args()
	if len(passwords) == 0 {
		fmt.Fprintln(os.Stderr, "usage: hash-generator [-cost N] password [password ...]")
		os.Exit(2)
	}

	for _, password := range passwords {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), *cost)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating hash for %s: %v\n", password, err)
			os.Exit(1)
		}
		fmt.Printf("Password: %s\nHash: %s\n\n", password, string(hash))
	}
}
