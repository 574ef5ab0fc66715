package cli

import (
	"os"

	"github.com/Atchyuteswar/ZenReader/internal/storage"
)

// openStore builds the library backend the commands share. The local
// library is always opened; when a server is configured, book operations
// are routed through it while annotations stay local.
func openStore(libraryPath, serverURL, token string) (storage.Store, func() error, error) {
	local, err := storage.NewLocal(libraryPath)
	if err != nil {
		return nil, nil, err
	}
	if serverURL == "" {
		return local, local.Close, nil
	}
	dual := storage.NewDual(local, storage.NewRemote(serverURL, token))
	return dual, local.Close, nil
}

func defaultServerURL() string {
	return os.Getenv("BOOK_SERVER_URL")
}

func defaultServerToken() string {
	return os.Getenv("BOOK_SERVER_TOKEN")
}
