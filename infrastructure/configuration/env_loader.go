package configuration

import (
	"errors"
	"io/fs"

	"socialhub/infrastructure/logger"

	"github.com/joho/godotenv"
)

// LoadEnvFromFile loads KEY=VALUE pairs from one or more files (e.g., config.env, .env).
// Existing env vars are not overridden and missing files are skipped.
func LoadEnvFromFile(paths ...string) {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			logger.GetLogger().WithField("error", err).WithField("file", p).Warn("Failed to load env file")
		}
	}
}
