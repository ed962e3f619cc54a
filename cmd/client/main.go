package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"movietrack/internal/client"
	"movietrack/internal/logger"
	"movietrack/internal/model"
)

var (
	version   string
	buildDate string
)

type options struct {
	cmd      string
	baseURL  string
	email    string
	username string
	password string
	title    string
	movieID  string
	review   string
	rating   int
}

// main parses flags, restores the stored session and runs one command.
func main() {
	var (
		opts    options
		showVer bool
	)

	flag.StringVar(&opts.cmd, "cmd", "", "command: register | login | logout | me | search | movie | card | watch | unwatch | watching | unwatching | review | like | unlike")
	flag.StringVar(&opts.baseURL, "url", envOr("MOVIETRACK_URL", "http://localhost:5000/api"), "server base URL including the API prefix")
	flag.StringVar(&opts.email, "email", "", "account email")
	flag.StringVar(&opts.username, "username", "", "username for registration")
	flag.StringVar(&opts.password, "password", "", "account password")
	flag.StringVar(&opts.title, "title", "", "title to search for")
	flag.StringVar(&opts.movieID, "id", "", "IMDb id, e.g. tt0111161")
	flag.StringVar(&opts.review, "review", "", "review text")
	flag.IntVar(&opts.rating, "rating", 0, "rating 1-10 (0 leaves it unchanged)")
	flag.BoolVar(&showVer, "version", false, "show build version and date")
	flag.Parse()

	if showVer {
		fmt.Printf("movietrack client\nVersion: %s\nBuild Date: %s\n", version, buildDate)
		return
	}
	if opts.cmd == "" {
		flag.Usage()
		os.Exit(2)
	}

	zl, err := logger.New("warn")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	path, err := client.DefaultTokenPath()
	if err != nil {
		log.Fatalf("token path: %v", err)
	}
	session := client.NewSession(opts.baseURL, client.NewFileTokenStore(path), zl)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := run(ctx, session, opts); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) {
			log.Fatalf("%s (HTTP %d)", apiErr.Message, apiErr.Status)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, s *client.Session, opts options) error {
	switch opts.cmd {
	case "register":
		msg, err := s.Register(ctx, opts.username, opts.email, opts.password)
		if err != nil {
			return err
		}
		fmt.Println(msg)
		return nil
	case "login":
		user, err := s.Login(ctx, opts.email, opts.password)
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", user.Username)
		return nil
	case "logout":
		if err := s.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out")
		return nil
	}

	ok, err := s.Restore(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("not logged in: run -cmd login first")
	}

	switch opts.cmd {
	case "me":
		return printJSON(s.CurrentUser())
	case "search":
		results, err := s.Search(ctx, opts.title)
		if err != nil {
			return err
		}
		for _, m := range results {
			fmt.Printf("%s  %s (%s)\n", m.ImdbID, m.Title, m.Year)
		}
		return nil
	}

	if opts.movieID == "" {
		return fmt.Errorf("-id is required for %s", opts.cmd)
	}

	switch opts.cmd {
	case "movie":
		resp, err := s.Movie(ctx, opts.movieID)
		if err != nil {
			return err
		}
		return printJSON(resp)
	case "card":
		card, err := s.Card(ctx, opts.movieID)
		if err != nil {
			return err
		}
		return printJSON(card)
	case "watch", "unwatch":
		in, err := s.SetWatchlist(ctx, opts.movieID, opts.cmd == "watch")
		if err != nil {
			return err
		}
		fmt.Printf("inWatchlist: %t\n", in)
		return nil
	case "watching", "unwatching":
		watching, err := s.SetCurrentlyWatching(ctx, opts.movieID, opts.cmd == "watching")
		if err != nil {
			return err
		}
		fmt.Printf("isCurrentlyWatching: %t\n", watching)
		return nil
	case "review":
		var in model.ReviewInput
		if opts.review != "" {
			in.Review = &opts.review
		}
		if opts.rating != 0 {
			in.Rating = &opts.rating
		}
		entry, err := s.Review(ctx, opts.movieID, in)
		if err != nil {
			return err
		}
		return printJSON(entry)
	case "like", "unlike":
		liked, err := s.SetLiked(ctx, opts.movieID, opts.cmd == "like")
		if err != nil {
			return err
		}
		fmt.Printf("liked: %t\n", liked)
		return nil
	default:
		return fmt.Errorf("unknown command %q", opts.cmd)
	}
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
