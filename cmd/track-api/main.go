package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BearBump/FlashLane/config"
	"github.com/BearBump/FlashLane/internal/auth"
	"github.com/BearBump/FlashLane/internal/logger"
	"github.com/BearBump/FlashLane/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "issue-token" {
		if err := issueToken(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		return
	}

	app := mustBootstrapTrackAPI()
	defer logger.Sync()
	defer app.Close()

	if err := app.Run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("track-api stopped", zap.Error(err))
		os.Exit(1)
	}
}

// issueToken печатает операторский JWT, подписанный секретом из конфига.
func issueToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	email := fs.String("email", "", "operator email")
	ttl := fs.Duration("ttl", 12*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("-email is required")
	}

	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}

	v := auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	tok, err := v.Issue(models.Operator{ID: uuid.New(), Email: *email}, *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, tok)
	return err
}
