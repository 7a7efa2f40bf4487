package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	biscuitDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/domain"
	biscuitService "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/service"
	"github.com/spaceandtimelabs/sxt-go-sdk/internal/persistence"
	queryUsecase "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/usecase"
	resourceDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/resource/domain"
	resourceService "github.com/spaceandtimelabs/sxt-go-sdk/internal/resource/service"
)

// ResourceLoader reads saved resource files. *persistence.Store implements it.
type ResourceLoader interface {
	LoadResource(ctx context.Context, path string) (*resourceService.Resource, error)
}

// ResourceSaver writes resource files. *persistence.Store implements it.
type ResourceSaver interface {
	SaveResource(ctx context.Context, path string, r *resourceService.Resource) (string, error)
}

// ResourceNewOptions describes the resource defined by RunResourceNew.
type ResourceNewOptions struct {
	Type       string
	Name       string
	AccessType string
	// RefreshInterval is in minutes and applies to materialized views; zero keeps the default.
	RefreshInterval int
	DDL             string
	// Biscuits maps biscuit names to the permissions they grant on the resource.
	Biscuits map[string][]string
	// TableBiscuit authorizes a view against the tables it reads.
	TableBiscuit string
	Now          func() time.Time
	SavePath     string
}

// RunResourceNew defines a resource with a fresh keypair, signs its biscuits and saves
// the definition so it can be created later.
func RunResourceNew(ctx context.Context, saver ResourceSaver, logger *slog.Logger, writer io.Writer, opts ResourceNewOptions) error {
	typ, err := resourceDomain.ParseType(opts.Type)
	if err != nil {
		return err
	}
	if err := opts.Validate(); err != nil {
		return err
	}
	r, err := resourceService.New(resourceService.Options{
		Type:       typ,
		Name:       opts.Name,
		AccessType: resourceDomain.AccessType(opts.AccessType),
		NewKeypair: true,
		Now:        opts.Now,
	}, logger)
	if err != nil {
		return err
	}
	if opts.RefreshInterval != 0 {
		if err := r.SetRefreshInterval(opts.RefreshInterval); err != nil {
			return err
		}
	}
	r.SetCreateDDL(opts.DDL)
	if opts.TableBiscuit != "" {
		r.SetTableBiscuit(biscuitService.NewManualBiscuit("table", opts.TableBiscuit, logger))
	}

	names := make([]string, 0, len(opts.Biscuits))
	for name := range opts.Biscuits {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		perms, err := biscuitDomain.ParsePermissions(opts.Biscuits[name]...)
		if err != nil {
			return err
		}
		if _, err := r.AddBiscuit(name, perms...); err != nil {
			return fmt.Errorf("biscuit %s: %w", name, err)
		}
	}

	path, err := saver.SaveResource(ctx, opts.SavePath, r)
	if err != nil {
		return fmt.Errorf("failed to save resource: %w", err)
	}
	logger.Info("resource defined", slog.String("resource", r.Name()), slog.String("path", path))

	_, err = fmt.Fprintf(writer, "defined %s %s\nsaved to %s\n", r.Type(), r.Name(), path)
	return err
}

// ParseBiscuitGrants parses "name=perm,perm" values into a map of biscuit name to
// permission names.
func ParseBiscuitGrants(values []string) (map[string][]string, error) {
	grants := make(map[string][]string, len(values))
	for _, v := range values {
		name, perms, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" || strings.TrimSpace(perms) == "" {
			return nil, fmt.Errorf("%w: biscuit grant %q, expected name=perm[,perm]", ErrInvalidGrant, v)
		}
		for _, p := range strings.Split(perms, ",") {
			grants[name] = append(grants[name], strings.TrimSpace(p))
		}
	}
	return grants, nil
}

// RunResourceCreate loads the newest resource file matching file and creates the
// resource with the biscuits saved alongside it.
func RunResourceCreate(
	ctx context.Context,
	loader ResourceLoader,
	executor queryUsecase.Executor,
	logger *slog.Logger,
	writer io.Writer,
	file string,
) error {
	r, err := loadResource(ctx, loader, executor, logger, file)
	if err != nil {
		return err
	}
	result, err := r.Create(ctx)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(writer, "created %s %s\n-- %s\n", r.Type(), r.Name(), result.SQLText)
	return err
}

// RunResourceDrop loads the newest resource file matching file and drops the resource.
func RunResourceDrop(
	ctx context.Context,
	loader ResourceLoader,
	executor queryUsecase.Executor,
	logger *slog.Logger,
	writer io.Writer,
	file string,
) error {
	r, err := loadResource(ctx, loader, executor, logger, file)
	if err != nil {
		return err
	}
	if _, err := r.Drop(ctx); err != nil {
		return err
	}
	_, err = fmt.Fprintf(writer, "dropped %s %s\n", r.Type(), r.Name())
	return err
}

func loadResource(
	ctx context.Context,
	loader ResourceLoader,
	executor queryUsecase.Executor,
	logger *slog.Logger,
	file string,
) (*resourceService.Resource, error) {
	path, err := persistence.FindLatest(file)
	if err != nil {
		return nil, err
	}
	r, err := loader.LoadResource(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}
	r.SetExecutor(executor)
	logger.Info("resource loaded", slog.String("path", path), slog.String("resource", r.Name()))
	return r, nil
}
