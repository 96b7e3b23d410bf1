package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"os"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/kitwms/internal/db"
	"github.com/erazemk/kitwms/internal/model"
	"github.com/erazemk/kitwms/internal/store"
)

const generatedPasswordLength = 16

// initDatabase creates a new database file with the schema and an owner
// account. On failure the partial file is removed.
func initDatabase(ctx context.Context, path, ownerName string) (database *sqlx.DB, password string, err error) {
	database, err = db.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer func() {
		if err != nil {
			database.Close()
			os.Remove(path)
		}
	}()

	if err = db.EnsureSchema(database); err != nil {
		return nil, "", err
	}

	password, err = generatePassword(generatedPasswordLength)
	if err != nil {
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	if _, err = store.CreateUser(ctx, database, ownerName, string(hash), model.RoleOwner); err != nil {
		return nil, "", fmt.Errorf("creating owner account: %w", err)
	}
	return database, password, nil
}

func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println()
	fmt.Println("Owner account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijkmnopqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
