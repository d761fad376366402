package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
)

var dotenvOnce sync.Once

// LoadDotenv loads variables from a .env file once per process.
//
// ENV_FILE selects the file, otherwise .env in the working directory is used.
// Variables already set in the environment win unless DOTENV_OVERLOAD=1.
// NO_DOTENV=1 disables loading.
func LoadDotenv() {
	dotenvOnce.Do(loadDotenv)
}

func loadDotenv() {
	if os.Getenv("NO_DOTENV") == "1" {
		return
	}

	path := ".env"
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		path = envFile
	}

	if os.Getenv("DOTENV_OVERLOAD") == "1" {
		_ = godotenv.Overload(path)

		return
	}

	_ = godotenv.Load(path)
}
