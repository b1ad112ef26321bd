package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/wormgate/wormgate/errors"
)

// sourceEnvFile loads KEY=VALUE pairs from an optional dotenv-style file into
// the process environment. Variables already set in the real environment win;
// a missing file is not an error.
func sourceEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(err, errors.ErrConfiguration,
			fmt.Sprintf("failed to open env file %s", path))
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, found := strings.Cut(line, "=")
		if !found {
			return errors.New(errors.ErrConfiguration,
				fmt.Sprintf("%s:%d: expected KEY=VALUE, got %q", path, lineNo, line))
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)

		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return errors.Wrap(err, errors.ErrConfiguration,
				fmt.Sprintf("failed to set %s from %s", key, path))
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, errors.ErrConfiguration,
			fmt.Sprintf("failed to read env file %s", path))
	}
	return nil
}
