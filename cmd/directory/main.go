package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/cashumints/directory/pkg/fetcher"
	"github.com/cashumints/directory/pkg/mintinfo"
	"github.com/cashumints/directory/pkg/models"
	"github.com/cashumints/directory/pkg/profiles"
	"github.com/cashumints/directory/pkg/reviews"
	"github.com/cashumints/directory/pkg/utils/logger"
	"github.com/cashumints/directory/pkg/utils/redisutils"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	godotenv.Load()
	config, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel, config.Log)

	var rdb *redis.Client
	if config.RedisAddress != "" {
		rdb = redisutils.NewClient(config.RedisAddress)
		defer rdb.Close()
	}

	pool := fetcher.Connect(ctx, config.Log, config.Relays, config.FallbackRelay)
	defer pool.Close()

	profilePool := fetcher.Connect(ctx, config.Log, config.ProfileRelays, "")
	defer profilePool.Close()

	cache := profiles.NewCache(profilePool, rdb, config.Log)
	engine := fetcher.NewEngine(pool, mintinfo.NewClient(), cache, config.Log)
	engine.SetTimeout(config.FetchTimeout)

	if err := run(ctx, engine, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, engine *fetcher.Engine, args []string) error {
	switch args[0] {
	case "reviews":
		if len(args) < 2 {
			return fmt.Errorf("usage: directory reviews <mintURL>")
		}
		return printReviews(ctx, engine, args[1])

	case "popular":
		return printPopular(ctx, engine, argLimit(args, 8))

	case "recent":
		return printRecent(ctx, engine, argLimit(args, 50))

	case "mints":
		return printAllMints(ctx, engine)

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printReviews(ctx context.Context, engine *fetcher.Engine, mintURL string) error {
	feed, err := engine.FetchReviews(ctx, mintURL)
	if err != nil {
		return err
	}

	engine.ResolveAuthors(ctx, feed.Reviews)

	fmt.Printf("%d reviews for %s (more: %t)\n\n", len(feed.Reviews), mintURL, feed.HasMore)
	for _, review := range feed.Reviews {
		printReview(engine, review)
	}
	return nil
}

func printPopular(ctx context.Context, engine *fetcher.Engine, limit int) error {
	mints, err := engine.FetchPopularMints(ctx, limit)
	if err != nil {
		return err
	}

	fmt.Printf("top %d mints by review volume and quality\n\n", len(mints))
	for i, mint := range mints {
		fmt.Printf("%2d. %s (%s)\n    %d reviews, %.2f average\n",
			i+1, mint.MintName, mint.MintURL, mint.ReviewCount, mint.AverageRating)
	}
	return nil
}

func printRecent(ctx context.Context, engine *fetcher.Engine, limit int) error {
	records, err := engine.FetchGlobalReviews(ctx, limit)
	if err != nil {
		return err
	}

	engine.ResolveAuthors(ctx, records)

	fmt.Printf("%d most recent reviews across all mints\n\n", len(records))
	for _, review := range records {
		printReview(engine, review)
	}
	return nil
}

func printAllMints(ctx context.Context, engine *fetcher.Engine) error {
	mints, err := engine.FetchAllMints(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%d known mints\n\n", len(mints))
	for _, mint := range mints {
		fmt.Printf("%-30s %s (%d reviews)\n", mint.MintName, mint.MintURL, mint.ReviewCount)
	}
	return nil
}

func printReview(engine *fetcher.Engine, review *models.ReviewRecord) {
	author := review.Author
	if len(author) > 16 {
		author = author[:16] + "..."
	}
	if profile, ok := engine.ProfileOf(review.Author); ok {
		author = profile.BestName()
	}

	fmt.Printf("[%d/5] %s - %s, %s\n",
		review.Rating, review.Title, author,
		time.Unix(review.CreatedAt, 0).Format("2006-01-02"))

	if content := reviews.CleanContent(review.Content); content != "" && content != review.Title {
		fmt.Printf("      %s\n", content)
	}
}

// argLimit parses the optional numeric argument of popular/recent.
func argLimit(args []string, fallback int) int {
	if len(args) < 2 {
		return fallback
	}

	limit, err := strconv.Atoi(args[1])
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

// handleSignals listens for OS signals and triggers context cancellation.
func handleSignals(cancel context.CancelFunc, l *logger.Aggregate) {
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	<-signalChan
	l.Info("signal received, shutting down...")
	cancel()
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: directory <command>

commands:
  reviews <mintURL>   fetch the review feed of one mint
  popular [n]         top mints ranked by review volume and quality
  recent [n]          most recent reviews across all mints
  mints               list every announced mint`)
}
