package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"git.sr.ht/~jakintosh/taskgate/pkg/client"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var baseURL, username, password, token string
	var timeout time.Duration

	flagSet := pflag.NewFlagSet("taskgate-client", pflag.ContinueOnError)
	flagSet.StringVar(&baseURL, "url", envOr("TASKGATE_URL", "http://localhost:8080"), "taskgate server URL")
	flagSet.StringVarP(&username, "username", "u", "", "account username")
	flagSet.StringVarP(&password, "password", "p", os.Getenv("TASKGATE_PASSWORD"), "account password")
	flagSet.StringVar(&token, "token", os.Getenv("TASKGATE_TOKEN"), "bearer token for protected commands")
	flagSet.DurationVar(&timeout, "timeout", 10*time.Second, "request timeout")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: taskgate-client [flags] register|login|me\n\n")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return errors.New("expected exactly one command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var opts []client.Option
	if token != "" {
		opts = append(opts, client.WithToken(token))
	}
	c := client.New(baseURL, opts...)

	switch cmd := flagSet.Arg(0); cmd {
	case "register":
		if err := c.CreateUser(ctx, username, password); err != nil {
			return err
		}
		fmt.Fprintf(out, "created %s\n", username)
	case "login":
		issued, err := c.Login(ctx, username, password)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, issued.Value)
		fmt.Fprintf(os.Stderr, "expires %s\n", issued.ExpiresAt.Format(time.RFC3339))
	case "me":
		me, err := c.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s (token expires %s)\n", me.Username, me.ExpiresAt.Format(time.RFC3339))
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
