package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/virtualzone/chargebot-easee/easee"
	"github.com/virtualzone/chargebot-easee/easee/sqlitestore"
)

type rootOptions struct {
	user     string
	password string
	baseURL  string
	db       string
	cryptKey string
	debug    bool
}

func newRootCmd() *cobra.Command {
	o := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "easeectl",
		Short: "Control Easee chargers from the command line",
		Long: `easeectl talks to the Easee cloud API on behalf of one account.

Environment Variables:
  EASEE_USERNAME   account user name (overridden by --user)
  EASEE_PASSWORD   account password (overridden by --password)
  EASEE_BASE_URL   API base URL (overridden by --base-url)
  EASEE_DB         token cache database (overridden by --db)
  CRYPT_KEY        key to encrypt cached tokens (overridden by --crypt-key)`,
		SilenceUsage: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.user, "user", os.Getenv("EASEE_USERNAME"), "Easee account user name")
	flags.StringVar(&o.password, "password", os.Getenv("EASEE_PASSWORD"), "Easee account password")
	flags.StringVar(&o.baseURL, "base-url", envOrDefault("EASEE_BASE_URL", easee.DefaultBaseURL), "Easee API base URL")
	flags.StringVar(&o.db, "db", envOrDefault("EASEE_DB", defaultDBFile()), "SQLite file the tokens are cached in")
	flags.StringVar(&o.cryptKey, "crypt-key", os.Getenv("CRYPT_KEY"), "16, 24 or 32 byte key to encrypt cached tokens")
	flags.BoolVar(&o.debug, "debug", false, "Log requests and token refreshes to stderr")

	cmd.AddCommand(
		newLoginCmd(o),
		newChargersCmd(o),
		newStateCmd(o),
		newConfigCmd(o),
		newSiteCmd(o),
		newPairCmd(o),
		newUnpairCmd(o),
		newPauseCmd(o),
		newResumeCmd(o),
		newPollEnergyCmd(o),
	)
	return cmd
}

// newClient returns a client whose tokens are cached in the database file.
// The returned func closes the database.
func (o *rootOptions) newClient(cmd *cobra.Command) (*easee.Client, func(), error) {
	if o.user == "" || o.password == "" {
		return nil, nil, errors.New("user name and password are required")
	}
	store, err := sqlitestore.Open(o.db)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open token cache: %w", err)
	}
	var encryptor easee.Encryptor = easee.NullEncryptor{}
	if o.cryptKey != "" {
		aes, err := easee.NewAESEncryptor([]byte(o.cryptKey))
		if err != nil {
			store.Close()
			return nil, nil, err
		}
		encryptor = aes
	}
	logger := log.New(io.Discard, "", 0)
	if o.debug {
		logger = log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	}
	client, err := easee.NewClient(o.user, o.password,
		easee.WithBaseURL(o.baseURL),
		easee.WithTokenStore(store),
		easee.WithEncryptor(encryptor),
		easee.WithLogger(logger),
	)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	if o.debug {
		fmt.Fprintln(cmd.ErrOrStderr(), client)
	}
	return client, func() { store.Close() }, nil
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func defaultDBFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "easeectl.db"
	}
	return dir + string(os.PathSeparator) + "easeectl.db"
}
