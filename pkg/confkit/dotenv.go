package confkit

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// LoadDotenvOnce loads a .env file once per process. ENV_FILE names the file
// explicitly; otherwise every .env between this package and the project root
// is read, nearest first. NO_DOTENV=1 disables loading and DOTENV_OVERLOAD=1
// lets the file override variables already set.
func LoadDotenvOnce() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}
	load := godotenv.Load
	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		load = godotenv.Overload
	}

	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = load(envFile)
		return
	}
	walked := walkUp(func(dir string) bool {
		_ = load(filepath.Join(dir, ".env"))
		return false
	})
	if !walked {
		_ = load(".env")
	}
}
