package main

import (
	"convo-hub/auth"
	"convo-hub/domain"
	"convo-hub/repositories"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	AuthSecret        string        `env:"AUTH_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
}

// seed stores a few users and prints a session token for each of them, so
// the API can be exercised without an identity provider.
func main() {
	names := flag.String("users", "alice,bob,carol", "Comma separated user names")
	flag.Parse()

	if err := run(strings.Split(*names, ",")); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(names []string) error {
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer db.Close()

	users := repositories.NewUserRepository(db)
	tokens := auth.NewTokenIssuer(config.AuthSecret, config.AuthTokenDuration)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"User ID", "Name", "Token"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		user, err := users.SaveUser(domain.User{
			Name:  name,
			Email: name + "@example.com",
		})
		if err != nil {
			return fmt.Errorf("save user %s: %w", name, err)
		}
		token, err := tokens.GenerateToken(user.ID, user.Name)
		if err != nil {
			return fmt.Errorf("token for %s: %w", name, err)
		}
		table.Append([]string{user.ID, user.Name, token})
	}
	table.Render()
	return nil
}
