package main

import (
	"context"
	"errors"
	"os"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"

	"github.com/example/forum-platform/services/web/internal/interaction"
	"github.com/example/forum-platform/services/web/internal/remote"
)

type cli struct {
	server  string
	token   string
	natsURL string
	timeout time.Duration

	client remote.Client
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "forumctl",
		Short:         "Read threads, reply, and react on a forum",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.client = remote.NewHTTPClient(c.server, nil)
		},
	}
	root.PersistentFlags().StringVar(&c.server, "server", envOr("FORUM_HTTP_URL", "http://localhost:8081"), "forum service base URL")
	root.PersistentFlags().StringVar(&c.token, "token", os.Getenv("FORUM_TOKEN"), "access token (see login)")
	root.PersistentFlags().StringVar(&c.natsURL, "nats", os.Getenv("NATS_URL"), "NATS URL for watch")
	root.PersistentFlags().DurationVar(&c.timeout, "timeout", 10*time.Second, "per-command timeout")

	root.AddCommand(
		c.loginCmd(),
		c.threadsCmd(),
		c.showCmd(),
		c.toggleCmd("like", interaction.IntentLike),
		c.toggleCmd("dislike", interaction.IntentDislike),
		c.toggleCmd("save", interaction.IntentSave),
		c.replyCmd(),
		c.editCmd(),
		c.savedCmd(),
		c.watchCmd(),
	)
	return root
}

func (c *cli) ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
	if c.token != "" {
		ctx = remote.WithToken(ctx, c.token)
	}
	return ctx, cancel
}

// actor reads the user id from the token. The forum verifies the signature;
// here it only keys local state.
func (c *cli) actor() (string, error) {
	if c.token == "" {
		return "", nil
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, &claims); err != nil {
		return "", errors.New("malformed token")
	}
	return claims.Subject, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
