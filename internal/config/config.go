package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       int
	ConsoleKey string

	// Bootstrap PostgreSQL profile, consumed once at startup when the
	// connection store is empty. Empty Host means "no bootstrap profile".
	BootstrapPG BootstrapProfile
}

type BootstrapProfile struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
}

func Load() (*Config, error) {
	// Try loading .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	key := os.Getenv("CONSOLE_KEY")
	if len(key) < 32 {
		fmt.Println("CONSOLE_KEY not found or too short. Generating a new secure key...")
		newKey, err := generateRandomKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}

		if err := saveKeyToEnv(newKey); err != nil {
			fmt.Printf("Warning: Failed to save generated key to .env: %v\n", err)
		} else {
			fmt.Println("New CONSOLE_KEY saved to .env file.")
		}
		key = newKey
	}

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	pgPort := 5432
	if s := os.Getenv("PGPORT"); s != "" {
		if p, err := strconv.Atoi(s); err == nil {
			pgPort = p
		}
	}

	return &Config{
		Port:       port,
		ConsoleKey: key,
		BootstrapPG: BootstrapProfile{
			Host:     os.Getenv("PGHOST"),
			Port:     pgPort,
			Database: os.Getenv("PGDATABASE"),
			User:     os.Getenv("PGUSER"),
			Password: os.Getenv("PGPASSWORD"),
		},
	}, nil
}

func generateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	// Base64 keeps the key printable when written to .env
	return base64.StdEncoding.EncodeToString(b), nil
}

func saveKeyToEnv(key string) error {
	filename := ".env"
	content, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return os.WriteFile(filename, []byte(fmt.Sprintf("CONSOLE_KEY=%s\nPORT=8080\n", key)), 0644)
	} else if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	found := false
	newLines := []string{}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "CONSOLE_KEY=") {
			newLines = append(newLines, fmt.Sprintf("CONSOLE_KEY=%s", key))
			found = true
		} else if trimmed != "" {
			newLines = append(newLines, trimmed)
		}
	}

	if !found {
		newLines = append(newLines, fmt.Sprintf("CONSOLE_KEY=%s", key))
	}

	output := strings.Join(newLines, "\n") + "\n"
	return os.WriteFile(filename, []byte(output), 0644)
}
