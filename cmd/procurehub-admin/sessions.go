package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"
)

// sessionKeyPrefix matches the prefix the HTTP runtime stores sessions under.
const sessionKeyPrefix = "session:"

type sessionListOptions struct {
	UserID string
	Limit  int
}

type sessionClearOptions struct {
	UserID string
	All    bool
	DryRun bool
	Yes    bool
}

type sessionRow struct {
	Key       string
	UserID    string
	Email     string
	Role      string
	ExpiresAt time.Time
}

func runListSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionListFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	client, err := connectRedisClient(cmdCtx.Logger, &cmdCtx.Config.Redis)
	if err != nil {
		return err
	}
	defer closeRedis(client, cmdCtx.Logger)

	rows, err := fetchSessions(ctx, client, cmdCtx.Logger, opts)
	if err != nil {
		return err
	}

	return renderSessions(os.Stdout, rows)
}

func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseSessionClearFlags(args)
	if err != nil {
		return err
	}
	if !opts.All && opts.UserID == "" {
		return errors.New("pass --user <id> or --all")
	}

	scope := "all sessions"
	if opts.UserID != "" {
		scope = fmt.Sprintf("sessions for user %q", opts.UserID)
	}
	if !opts.DryRun {
		if confirmErr := confirm("This will revoke "+scope+".", opts.Yes); confirmErr != nil {
			return confirmErr
		}
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, 2*time.Minute)
	defer cancel()

	client, err := connectRedisClient(cmdCtx.Logger, &cmdCtx.Config.Redis)
	if err != nil {
		return err
	}
	defer closeRedis(client, cmdCtx.Logger)

	rows, err := fetchSessions(ctx, client, cmdCtx.Logger, sessionListOptions{UserID: opts.UserID})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		cmdCtx.Logger.Info("no matching sessions")
		return nil
	}
	if opts.DryRun {
		cmdCtx.Logger.Info("sessions matched", "count", len(rows), "dry_run", true)
		return renderSessions(os.Stdout, rows)
	}

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.Key)
	}
	for start := 0; start < len(keys); start += 100 {
		end := min(start+100, len(keys))
		if delErr := client.Del(ctx, keys[start:end]...).Err(); delErr != nil {
			return fmt.Errorf("delete session keys: %w", delErr)
		}
	}

	cmdCtx.Logger.Info("sessions revoked", "count", len(keys))
	return nil
}

func fetchSessions(
	ctx context.Context,
	client redis.UniversalClient,
	logger *slog.Logger,
	opts sessionListOptions,
) ([]sessionRow, error) {
	iter := client.Scan(ctx, 0, sessionKeyPrefix+"*", 1000).Iterator()
	rows := make([]sessionRow, 0)
	for iter.Next(ctx) {
		key := iter.Val()
		row, ok, err := loadSessionRow(ctx, client, logger, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if opts.UserID != "" && row.UserID != opts.UserID {
			continue
		}
		rows = append(rows, row)
		if opts.Limit > 0 && len(rows) >= opts.Limit {
			break
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan redis: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].ExpiresAt.Before(rows[j].ExpiresAt) })
	return rows, nil
}

func loadSessionRow(
	ctx context.Context,
	client redis.UniversalClient,
	logger *slog.Logger,
	key string,
) (sessionRow, bool, error) {
	raw, err := client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Expired between SCAN and GET.
			return sessionRow{}, false, nil
		}
		return sessionRow{}, false, fmt.Errorf("get session %s: %w", key, err)
	}

	var sess struct {
		UserID    string    `json:"user_id"`
		Email     string    `json:"email"`
		Role      string    `json:"role"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		logger.Warn("skipping undecodable session", "key", key, "error", err)
		return sessionRow{}, false, nil
	}

	return sessionRow{
		Key:       key,
		UserID:    sess.UserID,
		Email:     sess.Email,
		Role:      sess.Role,
		ExpiresAt: sess.ExpiresAt,
	}, true, nil
}

func renderSessions(w io.Writer, rows []sessionRow) error {
	if len(rows) == 0 {
		return writef(w, "No active sessions.\n")
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writef(tw, "SESSION KEY\tUSER\tEMAIL\tROLE\tEXPIRES\n"); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\n",
			row.Key, row.UserID, row.Email, row.Role, row.ExpiresAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush session table: %w", err)
	}
	return nil
}

func closeRedis(client redis.UniversalClient, logger *slog.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil {
		logger.Warn("redis close failed", "error", err)
	}
}

func parseSessionListFlags(args []string) (sessionListOptions, error) {
	fs := flag.NewFlagSet("list-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sessionListOptions
	fs.StringVar(&opts.UserID, "user", "", "Only show sessions for this user ID")
	fs.IntVar(&opts.Limit, "limit", 100, "Maximum sessions to list (0 for unlimited)")

	if err := fs.Parse(args); err != nil {
		return sessionListOptions{}, err
	}
	if opts.Limit < 0 {
		return sessionListOptions{}, errors.New("--limit must be >= 0")
	}
	return opts, nil
}

func parseSessionClearFlags(args []string) (sessionClearOptions, error) {
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts sessionClearOptions
	fs.StringVar(&opts.UserID, "user", "", "Only revoke sessions for this user ID")
	fs.BoolVar(&opts.All, "all", false, "Revoke every session")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "Show matching sessions without deleting")
	fs.BoolVar(&opts.Yes, "yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return sessionClearOptions{}, err
	}
	return opts, nil
}
