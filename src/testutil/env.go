package testutil

import (
	"os"

	"github.com/ethaccount/recovery/src/utils"
	"github.com/joho/godotenv"
)

// LoadEnv loads the project .env when present. Tests that need a variable
// skip themselves when it is missing.
func LoadEnv() {
	_ = godotenv.Load(utils.ProjectPath(".env"))
}

func GetEnv(key string) string {
	LoadEnv()
	return os.Getenv(key)
}
