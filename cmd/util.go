package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"

	logging "github.com/ipfs/go-log/v2"
	"github.com/joho/godotenv"

	"github.com/storacha/todos/pkg/build"
)

var log = logging.Logger("cmd")

func PrintHero(publicURL string) {
	fmt.Printf(`
 ████████╗ ██████╗ ██████╗  ██████╗ ███████╗
 ╚══██╔══╝██╔═══██╗██╔══██╗██╔═══██╗██╔════╝
    ██║   ██║   ██║██║  ██║██║   ██║███████╗
    ██║   ██║   ██║██║  ██║██║   ██║╚════██║
    ██║   ╚██████╔╝██████╔╝╚██████╔╝███████║
    ╚═╝    ╚═════╝ ╚═════╝  ╚═════╝ ╚══════╝

🔥 todos %s
🌐 %s
🚀 Ready!
`, build.Version, publicURL)
}

func mkdirp(dirpath ...string) (string, error) {
	dir := path.Join(dirpath...)
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return "", fmt.Errorf("creating directory: %s: %w", dir, err)
	}
	return dir, nil
}

// LoadEnvFile loads environment variables from a .env file. Variables that are
// already set are not overridden and a missing file is not an error.
func LoadEnvFile(filename string) error {
	if filename == "" {
		return nil
	}
	err := godotenv.Load(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", filename, err)
	}
	log.Debugf("loaded environment from %s", filename)
	return nil
}

// randomSecret returns a hex encoded secret for signing when none is
// configured. Anything signed with it stops verifying once the process exits.
func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
