package admin

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/photogallery/internal/common"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/server/auth"
	"github.com/dmitrijs2005/photogallery/internal/server/config"
	"github.com/dmitrijs2005/photogallery/internal/server/models"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/photogallery/internal/server/search"
	"github.com/dmitrijs2005/photogallery/internal/server/services"
)

type App struct {
	config   *config.Config
	backend  *repomanager.Lazy
	accounts *services.AccountService
	gallery  *services.GalleryService
	reader   *bufio.Reader
	out      io.Writer
}

func NewApp(c *config.Config, logger logging.Logger) *App {
	backend := repomanager.NewLazy(c.Backend, func(ctx context.Context) (repomanager.RepositoryManager, error) {
		return repomanager.Open(ctx, c)
	}, logger)
	return newApp(c, backend, bufio.NewReader(os.Stdin), os.Stdout, logger)
}

func newApp(c *config.Config, backend *repomanager.Lazy, in *bufio.Reader, out io.Writer, logger logging.Logger) *App {
	accounts := services.NewAccountService(backend.Users(), auth.NewHasher(), c.SecretKey,
		c.SessionValidityDuration, c.RequestTimeout, logger)
	// uploads are not offered here, so no object store is needed
	gallery := services.NewGalleryService(backend.Photos(), nil, c.RequestTimeout, logger)

	return &App{
		config:   c,
		backend:  backend,
		accounts: accounts,
		gallery:  gallery,
		reader:   in,
		out:      out,
	}
}

// Run starts the console on stdin and closes the backend on exit.
func (a *App) Run(ctx context.Context) error {
	fmt.Fprintf(a.out, "photogallery admin, backend %s (type 'help' for commands)\n", a.config.Backend)
	runREPL(ctx, a, "admin", bufio.NewScanner(a.reader))
	return a.backend.Close(ctx)
}

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	pw, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	s, err := a.accounts.Register(ctx, email, string(pw))
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return fmt.Errorf("account already exists")
		}
		return err
	}
	fmt.Fprintf(a.out, "registered %s\n", s.Email)
	return nil
}

func (a *App) Ping(ctx context.Context) error {
	if err := a.backend.Ping(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: ok\n", a.backend.Backend())
	return nil
}

func (a *App) List(ctx context.Context, args []string) error {
	var (
		ps  []*models.Photo
		err error
	)
	if len(args) > 0 {
		ps, err = a.gallery.BrowseMine(ctx, models.NormalizeEmail(args[0]))
	} else {
		ps, err = a.gallery.BrowsePublic(ctx)
	}
	if err != nil {
		return err
	}
	return a.printPhotos(ps)
}

func (a *App) Search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: search <query> [email]")
	}
	scope, owner := search.ScopePublic, ""
	if len(args) > 1 {
		scope, owner = search.ScopeMine, models.NormalizeEmail(args[1])
	}
	ps, err := a.gallery.Search(ctx, owner, args[0], scope)
	if err != nil {
		return err
	}
	return a.printPhotos(ps)
}

func (a *App) View(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: view <photo_id>")
	}
	p, err := a.backend.Photos().GetByID(ctx, args[0])
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("photo %s: %w", args[0], common.ErrNotFound)
	}
	exif, err := models.DecodeExif(p.Exif)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "ID:          %s\n", p.PhotoID)
	fmt.Fprintf(a.out, "Owner:       %s\n", p.OwnerID)
	fmt.Fprintf(a.out, "Created:     %s\n", p.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(a.out, "Title:       %s\n", p.Title)
	fmt.Fprintf(a.out, "Description: %s\n", p.Description)
	fmt.Fprintf(a.out, "Tags:        %s\n", strings.Join(p.TagList(), ", "))
	fmt.Fprintf(a.out, "Visibility:  %s\n", p.Visibility)
	fmt.Fprintf(a.out, "URL:         %s\n", p.URL)

	keys := make([]string, 0, len(exif))
	for k := range exif {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(a.out, "  %s: %s\n", k, exif[k])
	}
	return nil
}

func (a *App) printPhotos(ps []*models.Photo) error {
	if len(ps) == 0 {
		fmt.Fprintln(a.out, "no photos")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tOWNER\tVISIBILITY\tTITLE")
	for _, p := range ps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.PhotoID, p.CreatedAt.Format("2006-01-02 15:04:05"), p.OwnerID, p.Visibility, p.Title)
	}
	return tw.Flush()
}
