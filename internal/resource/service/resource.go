// Package service binds a resource definition to its key, its biscuits and the query
// executor that creates, reads and changes it on the network.
package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	biscuitDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/domain"
	biscuitService "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/service"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	keysService "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/service"
	queryDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/domain"
	queryUsecase "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/usecase"
	resourceDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/resource/domain"
)

// Options configures a Resource.
type Options struct {
	Type resourceDomain.Type
	// Name is the schema-qualified name, optionally with {date}, {time} or {access_type}
	// placeholders.
	Name string
	// AccessType applies to tables. Empty means permissioned.
	AccessType resourceDomain.AccessType
	// KeyManager is shared with other resources when set; otherwise the resource gets
	// its own, empty unless NewKeypair is set.
	KeyManager *keysService.KeyManager
	NewKeypair bool
	Executor   queryUsecase.Executor
	Now        func() time.Time
}

// Resource is a table, view or materialized view owned by a keypair.
type Resource struct {
	mu              sync.RWMutex
	typ             resourceDomain.Type
	nameTemplate    string
	access          resourceDomain.AccessType
	refreshInterval int
	ddlTemplate     string
	startTime       time.Time
	keys            *keysService.KeyManager
	biscuits        []*biscuitService.Biscuit
	tableBiscuit    *biscuitService.Biscuit
	executor        queryUsecase.Executor
	logger          *slog.Logger
}

// New creates a resource described by opts.
func New(opts Options, logger *slog.Logger) (*Resource, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Type == "" {
		opts.Type = resourceDomain.TypeTable
	}
	if _, err := resourceDomain.ParseType(string(opts.Type)); err != nil {
		return nil, err
	}
	if opts.AccessType == "" {
		opts.AccessType = resourceDomain.AccessPermissioned
	}
	if _, err := resourceDomain.ParseAccessType(string(opts.AccessType)); err != nil {
		return nil, err
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	keys := opts.KeyManager
	if keys == nil {
		keys = keysService.NewKeyManager(logger)
		if opts.NewKeypair {
			keys.GenerateNewKeypair()
		}
	}

	return &Resource{
		typ:             opts.Type,
		nameTemplate:    opts.Name,
		access:          opts.AccessType,
		refreshInterval: resourceDomain.MinRefreshInterval,
		startTime:       opts.Now(),
		keys:            keys,
		executor:        opts.Executor,
		logger:          logger,
	}, nil
}

// Type returns the resource type.
func (r *Resource) Type() resourceDomain.Type {
	return r.typ
}

// KeyManager returns the key manager owning the resource.
func (r *Resource) KeyManager() *keysService.KeyManager {
	return r.keys
}

// NameTemplate returns the name as given, before placeholder replacement.
func (r *Resource) NameTemplate() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nameTemplate
}

// SetName replaces the name template.
func (r *Resource) SetName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nameTemplate = name
}

// Name returns the name with placeholders replaced.
func (r *Resource) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nameLocked()
}

// AccessType returns the table access type.
func (r *Resource) AccessType() resourceDomain.AccessType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.access
}

// SetAccessType changes the table access type.
func (r *Resource) SetAccessType(access resourceDomain.AccessType) error {
	if _, err := resourceDomain.ParseAccessType(string(access)); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.access = access
	return nil
}

// RefreshInterval returns the materialized view refresh interval in minutes.
func (r *Resource) RefreshInterval() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.refreshInterval
}

// SetRefreshInterval changes the materialized view refresh interval.
func (r *Resource) SetRefreshInterval(minutes int) error {
	if minutes < resourceDomain.MinRefreshInterval {
		return fmt.Errorf("%w: got %d", resourceDomain.ErrRefreshInterval, minutes)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshInterval = minutes
	return nil
}

// StartTime is the creation time of the definition, used for {date} and {time}.
func (r *Resource) StartTime() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.startTime
}

// SetStartTime replaces the start time, e.g. when loading a saved definition.
func (r *Resource) SetStartTime(t time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startTime = t
}

// SetExecutor binds the resource to an executor for network operations.
func (r *Resource) SetExecutor(executor queryUsecase.Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executor = executor
}

// CreateDDLTemplate returns the CREATE statement template.
func (r *Resource) CreateDDLTemplate() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ddlTemplate
}

// SetCreateDDL sets the CREATE statement template. It may use {table_name} (or
// {view_name}, {matview_name}), {resource}, {public_key}, {with_statement}, {date} and
// {time}.
func (r *Resource) SetCreateDDL(template string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ddlTemplate = template
}

// WithStatement renders the WITH clause for the current key.
func (r *Resource) WithStatement() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.withLocked()
}

// CreateDDL renders the CREATE statement template. The WITH clause is appended, replacing
// one trailing semicolon, unless the statement already has one.
func (r *Resource) CreateDDL() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ddl := strings.TrimRight(r.replaceLocked(r.ddlTemplate), " \t\r\n")
	if ddl == "" || resourceDomain.HasWithStatement(r.typ, ddl) {
		return ddl
	}
	return strings.TrimSuffix(ddl, ";") + " \n" + r.withLocked()
}

// Columns parses the columns declared by the table's CREATE statement.
func (r *Resource) Columns() ([]resourceDomain.Column, error) {
	if r.typ != resourceDomain.TypeTable {
		return nil, resourceDomain.ErrNotATable
	}
	return resourceDomain.ParseColumns(r.CreateDDL())
}

// RecommendedFilename proposes a versioned file for saving the definition, e.g.
// "./resources/table--SXTDEMO.T--v20260301120000.sql".
func (r *Resource) RecommendedFilename() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return fmt.Sprintf("./resources/%s--%s--v%s.sql", r.typ, r.nameLocked(), r.startTime.Format("20060102150405"))
}

// AddBiscuit creates a biscuit signed with the resource key granting perms on the
// resource, and keeps it with the resource.
func (r *Resource) AddBiscuit(name string, perms ...biscuitDomain.Permission) (*biscuitService.Biscuit, error) {
	if !r.keys.HasPrivateKey() {
		return nil, resourceDomain.ErrNoPrivateKey
	}
	resourceName := r.Name()
	if resourceName == "" {
		return nil, resourceDomain.ErrNoName
	}

	b := biscuitService.NewBiscuit(name, r.keys, r.logger)
	if _, err := b.AddCapability(resourceName, perms...); err != nil {
		return nil, err
	}
	r.AddBiscuitObject(b)
	return b, nil
}

// AddBiscuitObject keeps an existing biscuit with the resource.
func (r *Resource) AddBiscuitObject(b *biscuitService.Biscuit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.biscuits = append(r.biscuits, b)
}

// Biscuit returns the first biscuit named name.
func (r *Resource) Biscuit(name string) (*biscuitService.Biscuit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.biscuits {
		if b.Name() == name {
			return b, true
		}
	}
	return nil, false
}

// Biscuits returns the resource's biscuits in the order they were added.
func (r *Resource) Biscuits() []*biscuitService.Biscuit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*biscuitService.Biscuit, len(r.biscuits))
	copy(out, r.biscuits)
	return out
}

// ClearBiscuits forgets all biscuits, including the table biscuit.
func (r *Resource) ClearBiscuits() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.biscuits = nil
	r.tableBiscuit = nil
}

// SetTableBiscuit sets the biscuit of the table a view reads from. It is sent with every
// request on the view.
func (r *Resource) SetTableBiscuit(b *biscuitService.Biscuit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tableBiscuit = b
}

// TableBiscuit returns the biscuit set by SetTableBiscuit.
func (r *Resource) TableBiscuit() *biscuitService.Biscuit {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tableBiscuit
}

// Create submits the CREATE statement.
func (r *Resource) Create(ctx context.Context, biscuits ...any) (queryUsecase.Result, error) {
	if r.CreateDDLTemplate() == "" {
		return queryUsecase.Result{}, resourceDomain.ErrNoCreateDDL
	}
	if !r.keys.HasPrivateKey() {
		return queryUsecase.Result{}, resourceDomain.ErrNoPrivateKey
	}
	tokens, err := r.tokens(biscuits)
	if err != nil {
		return queryUsecase.Result{}, err
	}
	if len(tokens) == 0 {
		r.logger.Warn("no biscuits found, the create may be rejected", slog.String("resource", r.Name()))
	}

	result, err := r.execute(ctx, "create", queryDomain.Query{
		SQLText:  r.CreateDDL(),
		Type:     queryDomain.SQLTypeDDL,
		Biscuits: tokens,
	})
	if err == nil {
		r.logger.Info("resource created", slog.String("type", string(r.typ)), slog.String("resource", r.Name()))
	}
	return result, err
}

// Drop submits DROP for the resource.
func (r *Resource) Drop(ctx context.Context, biscuits ...any) (queryUsecase.Result, error) {
	tokens, err := r.requiredTokens(biscuits)
	if err != nil {
		return queryUsecase.Result{}, err
	}
	return r.execute(ctx, "drop", queryDomain.Query{
		SQLText:  fmt.Sprintf("DROP %s %s", r.typ.Keyword(), r.Name()),
		Type:     queryDomain.SQLTypeDDL,
		Biscuits: tokens,
	})
}

// Select reads up to limit rows of columns (all when empty).
func (r *Resource) Select(ctx context.Context, columns []string, limit int, biscuits ...any) (queryUsecase.Result, error) {
	tokens, err := r.tokens(biscuits)
	if err != nil {
		return queryUsecase.Result{}, err
	}
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	sqlText := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ","), r.Name())
	if limit > 0 {
		sqlText += " LIMIT " + strconv.Itoa(limit)
	}
	return r.execute(ctx, "select", queryDomain.Query{
		SQLText:   sqlText,
		Type:      queryDomain.SQLTypeDQL,
		Resources: []string{r.Name()},
		Biscuits:  tokens,
	})
}

// Insert writes rows into the table, one request per InsertBatchSize rows. It stops at
// the first failed batch, so earlier batches may already be stored.
func (r *Resource) Insert(ctx context.Context, columns []string, rows [][]any, biscuits ...any) ([]queryUsecase.Result, error) {
	if r.typ != resourceDomain.TypeTable {
		return nil, resourceDomain.ErrNotATable
	}
	tokens, err := r.requiredTokens(biscuits)
	if err != nil {
		return nil, err
	}

	statements := resourceDomain.InsertStatements(r.Name(), columns, rows, resourceDomain.InsertBatchSize)
	results := make([]queryUsecase.Result, 0, len(statements))
	for i, sqlText := range statements {
		result, err := r.execute(ctx, "insert", queryDomain.Query{
			SQLText:   sqlText,
			Type:      queryDomain.SQLTypeDML,
			Resources: []string{r.Name()},
			Biscuits:  tokens,
		})
		if err != nil {
			r.logger.Error("insert stopped, data may be partially inserted",
				slog.String("resource", r.Name()),
				slog.Int("batch", i+1),
				slog.Int("batches", len(statements)),
			)
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// Delete removes the rows matching where. An empty where matches no row.
func (r *Resource) Delete(ctx context.Context, where string, biscuits ...any) (queryUsecase.Result, error) {
	if r.typ != resourceDomain.TypeTable {
		return queryUsecase.Result{}, resourceDomain.ErrNotATable
	}
	tokens, err := r.requiredTokens(biscuits)
	if err != nil {
		return queryUsecase.Result{}, err
	}

	where = strings.TrimSpace(where)
	if where == "" {
		where = "0=1"
	}
	if !strings.HasPrefix(strings.ToLower(where), "where ") {
		where = "WHERE " + where
	}
	return r.execute(ctx, "delete", queryDomain.Query{
		SQLText:   fmt.Sprintf("DELETE FROM %s %s", r.Name(), where),
		Type:      queryDomain.SQLTypeDML,
		Resources: []string{r.Name()},
		Biscuits:  tokens,
	})
}

// String describes the resource with its private key truncated.
func (r *Resource) String() string {
	return fmt.Sprintf("%s %s (%s)", r.typ, r.Name(), r.keys)
}

func (r *Resource) execute(ctx context.Context, op string, q queryDomain.Query) (queryUsecase.Result, error) {
	r.mu.RLock()
	executor := r.executor
	r.mu.RUnlock()
	if executor == nil {
		return queryUsecase.Result{}, resourceDomain.ErrNoExecutor
	}

	result, err := executor.Execute(ctx, q)
	if err != nil {
		return result, fmt.Errorf("%s %s %s: %w", op, r.typ, r.Name(), err)
	}
	return result, nil
}

// tokens flattens explicit biscuits, falling back to the resource's own. The table
// biscuit is always included.
func (r *Resource) tokens(explicit []any) ([]string, error) {
	values := append([]any(nil), explicit...)
	if len(values) == 0 {
		for _, b := range r.Biscuits() {
			values = append(values, b)
		}
	}
	if tb := r.TableBiscuit(); tb != nil {
		values = append(values, tb)
	}
	return queryDomain.FlattenBiscuits(r.logger, values...)
}

func (r *Resource) requiredTokens(explicit []any) ([]string, error) {
	tokens, err := r.tokens(explicit)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, resourceDomain.ErrNoBiscuits
	}
	return tokens, nil
}

func (r *Resource) nameLocked() string {
	return queryDomain.ReplacePlaceholders(r.nameTemplate, map[string]string{
		"access_type": string(r.access),
	}, r.startTime)
}

func (r *Resource) withLocked() string {
	return resourceDomain.WithStatement(r.typ, r.keys.PublicKeyString(keysDomain.EncodingHex), r.access, r.refreshInterval)
}

func (r *Resource) replaceLocked(text string) string {
	name := r.nameLocked()
	with := r.withLocked()
	return queryDomain.ReplacePlaceholders(text, map[string]string{
		r.typ.Placeholder(): name,
		"resource":          name,
		"public_key":        r.keys.PublicKeyString(keysDomain.EncodingHex),
		"with_statement":    with,
		"with":              with,
		"access_type":       string(r.access),
		"refresh_interval":  strconv.Itoa(r.refreshInterval),
	}, r.startTime)
}
