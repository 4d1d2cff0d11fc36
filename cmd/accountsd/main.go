package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	accounts "github.com/ppfei03/osem-accounts"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dsn := envOr("ACCOUNTS_DB", "file:accounts.db?cache=shared&_pragma=foreign_keys(1)")
	addr := envOr("ACCOUNTS_ADDR", ":8000")
	signingKey := envOr("ACCOUNTS_SIGNING_KEY", "")
	redisAddr := os.Getenv("ACCOUNTS_REDIS")

	if signingKey == "" {
		return fmt.Errorf("ACCOUNTS_SIGNING_KEY is required")
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())
	defer db.Close()

	ctx := context.Background()
	if err := createSchema(ctx, db); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	repo := accounts.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := accounts.NewTokenServiceFromConfig(config{signingKey: signingKey}, nil)

	var revoker accounts.TokenRevoker
	if redisAddr != "" {
		revoker = accounts.NewRedisRevoker(redis.NewClient(&redis.Options{Addr: redisAddr}))
	} else {
		revoker = accounts.NewMemoryRevoker()
	}

	controller := accounts.NewAccountsController(
		accounts.WithControllerRepo(repo),
		accounts.WithControllerTokens(tokens),
		accounts.WithControllerRevoker(revoker),
		accounts.WithControllerMailer(logMailer{}),
	)

	app := fiber.New()
	controller.RegisterRoutes(app)

	return app.Listen(addr)
}

func createSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*accounts.User)(nil),
		(*accounts.Box)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type config struct {
	signingKey string
}

func (c config) GetSigningKey() string   { return c.signingKey }
func (c config) GetTokenExpiration() int { return 72 }
func (c config) GetIssuer() string       { return "osem-accounts" }
func (c config) GetAudience() []string   { return nil }

// logMailer stands in for a real delivery backend
type logMailer struct{}

func (logMailer) SendPasswordResetLink(email, token string) {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", email)
	fmt.Printf("link: /password-reset?token=%s\n", token)
}

func (logMailer) SendEmailConfirmation(email, token string) {
	fmt.Println("====== SENDING EMAIL NOTIFICATION =======")
	fmt.Printf("to: %s\n", email)
	fmt.Printf("link: /confirm-email?token=%s\n", token)
}
