// Package main はirisゲートウェイのコマンドラインクライアント。
//
//	irisctl sub [-url URL] [-agg RECIPE] CHANNELS
//	irisctl pub [-url URL] -chan CHANNEL JSON
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/oyaguma3/iris-gateway/pkg/irisclient"
	"github.com/oyaguma3/iris-gateway/pkg/model"
)

const connectTimeout = 10 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})).With("app", "irisctl"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var err error
	switch os.Args[1] {
	case "sub":
		err = runSub(ctx, os.Args[2:])
	case "pub":
		err = runPub(ctx, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "irisctl:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: irisctl sub [flags] CHANNELS | irisctl pub [flags] -chan CHANNEL JSON")
}

// commonFlags は両サブコマンド共通のフラグ。
type commonFlags struct {
	url    string
	user   string
	token  string
	authTo string
}

func (f *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.url, "url", "ws://127.0.0.1:8080/", "gateway WebSocket URL")
	fs.StringVar(&f.user, "user", "", "user id for global authentication")
	fs.StringVar(&f.token, "token", "", "user token for global authentication")
	fs.StringVar(&f.authTo, "a", "", "channel authorization token")
}

func (f *commonFlags) client(opts ...irisclient.Option) *irisclient.Client {
	if f.authTo != "" {
		token := f.authTo
		opts = append(opts, irisclient.WithTokenFunc(func(string, string) string { return token }))
	}
	c := irisclient.New(f.url, opts...)
	if f.user != "" {
		_ = c.Authenticate(f.user, f.token)
	}
	return c
}

func runSub(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("sub", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	agg := fs.String("agg", "", "aggregation recipe (additive, diff, throttle)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("sub requires a comma separated channel list")
	}
	channels := splitChannels(fs.Arg(0))

	enc := json.NewEncoder(os.Stdout)
	c := common.client()
	if err := c.Subscribe(func(channel string, msg json.RawMessage) {
		_ = enc.Encode(model.DeliveryFrame{Chan: channel, Msg: msg})
	}, *agg, channels...); err != nil {
		return err
	}
	return c.Run(ctx)
}

func runPub(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pub", flag.ContinueOnError)
	var common commonFlags
	common.register(fs)
	channel := fs.String("chan", "", "channel to publish to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *channel == "" || fs.NArg() != 1 {
		return errors.New("pub requires -chan and a JSON payload")
	}
	var payload json.RawMessage
	if err := json.Unmarshal([]byte(fs.Arg(0)), &payload); err != nil {
		return fmt.Errorf("payload is not valid JSON: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	c := common.client()
	go func() { _ = c.Run(ctx) }()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for !c.Connected() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("could not connect to %s", common.url)
		case <-ticker.C:
		}
	}
	return c.Publish(*channel, payload)
}

func splitChannels(s string) []string {
	var out []string
	for _, ch := range strings.Split(s, model.ChannelSeparator) {
		if ch = strings.TrimSpace(ch); ch != "" {
			out = append(out, ch)
		}
	}
	return out
}
