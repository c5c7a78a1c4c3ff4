// Command mybooks lists the reading-log shelves from the terminal. It drives
// the same reducers the screens use and prints the settled state.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"mybooks/internal/app"
	"mybooks/internal/bookdetail"
	"mybooks/internal/booklist"
	"mybooks/internal/config"
	"mybooks/internal/logger"
	"mybooks/internal/models"
	"mybooks/internal/mvi"
	"mybooks/internal/ol"
	"mybooks/internal/usecase"
)

var version = "dev"

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "mybooks",
		Usage:   "Browse the Open Library reading log",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE`",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List one shelf, page by page",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "category",
						Usage: "want-to-read, currently-reading or already-read",
						Value: string(models.WantToRead),
					},
					&cli.IntFlag{
						Name:  "pages",
						Usage: "Maximum number of pages to load",
						Value: 1,
					},
				},
				Action: listAction,
			},
			{
				Name:  "detail",
				Usage: "Resolve one book from the want-to-read shelf",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Book key, e.g. /works/OL45883W",
						Required: true,
					},
				},
				Action: detailAction,
			},
			{
				Name:  "cover",
				Usage: "Print the cover image URL for a cover id",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "id",
						Usage: "Numeric cover id",
					},
					&cli.StringFlag{
						Name:  "size",
						Usage: "L or M",
						Value: string(ol.CoverLarge),
					},
				},
				Action: coverAction,
			},
		},
	}
}

type env struct {
	cfg   *config.Config
	log   zerolog.Logger
	stack *app.Stack
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: logger.ParseFormat(cfg.Logging.Format),
	})
	stack, err := app.Build(cfg, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: log, stack: stack}, nil
}

func listAction(c *cli.Context) error {
	category, err := models.ParseListCategory(c.String("category"))
	if err != nil {
		return err
	}
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.stack.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	state, err := runList(ctx, usecase.NewSet(e.stack.Catalog), category, c.Int("pages"), e.log)
	printBooks(c.App.Writer, state.Books, e.cfg.Catalog.CoverHost)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s: %d of %d (page %d, more: %v)\n",
		category.DisplayName(), len(state.Books), state.TotalCount, state.CurrentPage, state.HasMoreData)
	return nil
}

func detailAction(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.stack.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	book, err := runDetail(ctx, usecase.GetWantToReadBooks(e.stack.Catalog), c.String("id"), e.log)
	if err != nil {
		return err
	}
	printBooks(c.App.Writer, []models.Book{book}, e.cfg.Catalog.CoverHost)
	return nil
}

func coverAction(c *cli.Context) error {
	size, err := ol.ParseCoverSize(c.String("size"))
	if err != nil {
		return err
	}
	var ref *int64
	if c.IsSet("id") {
		id := c.Int64("id")
		ref = &id
	}
	host := ol.DefaultCoverHost
	if cfg, err := config.Load(c.String("config")); err == nil {
		host = cfg.Catalog.CoverHost
	}
	fmt.Fprintln(c.App.Writer, ol.CoverURL(host, ref, size))
	return nil
}

// runList pages through category until pages are loaded or the shelf ends.
func runList(ctx context.Context, set usecase.Set, category models.ListCategory, pages int, log zerolog.Logger) (models.ListState, error) {
	if pages < 1 {
		pages = 1
	}
	loop := mvi.NewLoop(16)
	loopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(loopCtx) }()

	list := booklist.New(set, mvi.Goroutine, loop, booklist.WithLogger(log))
	notes, _ := list.Notifications()
	go logNotifications(log, notes)
	defer func() { _ = loop.Do(context.Background(), list.Close) }()

	var states <-chan models.ListState
	if err := loop.Do(ctx, func() {
		list.Dispatch(booklist.ChangeCategory{Category: category})
		list.Dispatch(booklist.TriggerInitialLoadIfNeeded{})
		states, _ = list.Subscribe()
	}); err != nil {
		return models.ListState{}, err
	}

	for {
		var st models.ListState
		select {
		case <-ctx.Done():
			return list.State(), ctx.Err()
		case st = <-states:
		}
		if st.IsLoading || st.IsLoadingMore {
			continue
		}
		if st.Error != nil {
			return st, errors.New(*st.Error)
		}
		if st.CurrentPage >= pages || !st.HasMoreData {
			return st, nil
		}
		if err := loop.Do(ctx, func() { list.Dispatch(booklist.LoadMoreBooks{}) }); err != nil {
			return st, err
		}
	}
}

// runDetail resolves id the way the detail screen does.
func runDetail(ctx context.Context, wantToRead usecase.Fetcher, id string, log zerolog.Logger) (models.Book, error) {
	loop := mvi.NewLoop(4)
	loopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = loop.Run(loopCtx) }()

	detail := bookdetail.New(id, wantToRead, mvi.Goroutine, loop, bookdetail.WithLogger(log))
	notes, _ := detail.Notifications()
	go logNotifications(log, notes)
	defer func() { _ = loop.Do(context.Background(), detail.Close) }()

	var states <-chan models.DetailState
	if err := loop.Do(ctx, func() {
		detail.Dispatch(bookdetail.LoadBookDetails{})
		states, _ = detail.Subscribe()
	}); err != nil {
		return models.Book{}, err
	}

	for {
		select {
		case <-ctx.Done():
			return models.Book{}, ctx.Err()
		case st := <-states:
			switch {
			case st.IsLoading:
			case st.Book != nil:
				return *st.Book, nil
			case st.Error != nil:
				return models.Book{}, errors.New(*st.Error)
			}
		}
	}
}

func logNotifications(log zerolog.Logger, notes <-chan models.Notification) {
	for n := range notes {
		log.Warn().Str("screen", n.Screen).Str("kind", string(n.Kind)).Msg(n.Message)
	}
}

func printBooks(out io.Writer, books []models.Book, coverHost string) {
	for _, b := range books {
		year := b.FirstPublishedYear
		if year == "" {
			year = "-"
		}
		cover := "-"
		if b.HasCover() {
			cover = ol.CoverURL(coverHost, b.CoverID, ol.CoverMedium)
		}
		fmt.Fprintf(out, "%s\t%s\t%s\t%s\t%s\n", b.ID, b.Title, strings.Join(b.Authors, ", "), year, cover)
	}
}
