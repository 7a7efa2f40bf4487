package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	biscuitService "github.com/spaceandtimelabs/sxt-go-sdk/internal/biscuit/service"
	keysDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/domain"
	keysService "github.com/spaceandtimelabs/sxt-go-sdk/internal/keys/service"
	queryDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/query/domain"
	resourceDomain "github.com/spaceandtimelabs/sxt-go-sdk/internal/resource/domain"
	resourceService "github.com/spaceandtimelabs/sxt-go-sdk/internal/resource/service"
)

const (
	startTimeLayout     = "2006-01-02 15:04:05"
	biscuitTokenSuffix  = "_BISCUIT_TOKEN"
	tableBiscuitField   = "TABLE_BISCUIT"
	resourcePrivateKey  = "RESOURCE_PRIVATE_KEY"
	resourceCreateDDL   = "CREATE_DDL"
	resourceDDLTemplate = "CREATE_DDL_TEMPLATE"
)

// derivedResourceFields are written for readers of the file and recomputed on load.
var derivedResourceFields = map[string]bool{
	"DATE":                true,
	"TIME":                true,
	"WITH":                true,
	"WITH_STATEMENT":      true,
	"RESOURCE_PUBLIC_KEY": true,
	resourceCreateDDL:     true,
}

// SaveResource writes r to path, or to r.RecommendedFilename() when path is empty, and
// returns the path used. Biscuits are stored as "<NAME>_BISCUIT_TOKEN" fields.
func (s *Store) SaveResource(ctx context.Context, path string, r *resourceService.Resource) (string, error) {
	if path == "" {
		path = r.RecommendedFilename()
	}
	start := r.StartTime()
	path = queryDomain.ReplacePlaceholders(path, map[string]string{"resource": r.Name()}, start)

	doc := &Document{}
	doc.Comment("-- Resource File for " + r.Name())
	doc.Comment("-- this file can be executed as a shell script to set environment variables")
	doc.Set("RESOURCE_TYPE", string(r.Type()))
	doc.Set("RESOURCE_NAME", r.NameTemplate())
	switch r.Type() {
	case resourceDomain.TypeTable:
		doc.Set("ACCESS_TYPE", string(r.AccessType()))
	case resourceDomain.TypeMaterializedView:
		doc.Set("REFRESH_INTERVAL", strconv.Itoa(r.RefreshInterval()))
	}
	doc.Set("START_TIME", start.Format(startTimeLayout))
	doc.Set("DATE", start.Format("20060102"))
	doc.Set("TIME", start.Format("150405"))

	keys := r.KeyManager()
	if err := s.putPrivateKey(ctx, doc, resourcePrivateKey, keys.PrivateKeyString(keysDomain.EncodingBase64)); err != nil {
		return "", err
	}
	doc.Set("RESOURCE_PUBLIC_KEY", keys.PublicKeyString(keysDomain.EncodingBase64))

	biscuits := r.Biscuits()
	if len(biscuits) > 0 {
		doc.Comment("-- BISCUITS:")
	}
	for _, b := range biscuits {
		token, err := b.Token()
		if err != nil {
			return "", fmt.Errorf("biscuit %q: %w", b.Name(), err)
		}
		doc.Set(biscuitField(b.Name()), token)
	}
	if tb := r.TableBiscuit(); tb != nil {
		token, err := tb.Token()
		if err != nil {
			return "", fmt.Errorf("table biscuit: %w", err)
		}
		doc.Set(tableBiscuitField, token)
	}

	if r.CreateDDLTemplate() != "" {
		doc.Comment("-- SQL:")
		doc.Set(resourceDDLTemplate, r.CreateDDLTemplate())
		doc.Set(resourceCreateDDL, r.CreateDDL())
	}

	if err := s.save(path, doc); err != nil {
		return "", err
	}
	return path, nil
}

// LoadResource reads a file written by SaveResource. Saved biscuits come back as manual
// biscuits carrying the saved tokens, named after their field in lower case.
func (s *Store) LoadResource(ctx context.Context, path string) (*resourceService.Resource, error) {
	doc, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := doc.Require("RESOURCE_TYPE", "RESOURCE_NAME"); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	fail := func(err error) (*resourceService.Resource, error) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	typ, err := resourceDomain.ParseType(doc.Value("RESOURCE_TYPE"))
	if err != nil {
		return fail(err)
	}
	privateKey, err := s.privateKey(ctx, doc, resourcePrivateKey)
	if err != nil {
		return fail(err)
	}
	keys := keysService.NewKeyManager(s.logger)
	if privateKey != "" {
		if err := keys.SetPrivateKeyAuto([]byte(privateKey)); err != nil {
			return fail(err)
		}
	}

	opts := resourceService.Options{Type: typ, Name: doc.Value("RESOURCE_NAME"), KeyManager: keys}
	if v, ok := doc.Get("ACCESS_TYPE"); ok {
		opts.AccessType = resourceDomain.AccessType(v)
	}
	if v, ok := doc.Get("START_TIME"); ok {
		start, err := time.ParseInLocation(startTimeLayout, v, time.Local)
		if err != nil {
			return fail(fmt.Errorf("%w: START_TIME %q", ErrMalformedFile, v))
		}
		opts.Now = func() time.Time { return start }
	}

	r, err := resourceService.New(opts, s.logger)
	if err != nil {
		return fail(err)
	}

	for _, e := range doc.Entries() {
		switch {
		case e.Comment || derivedResourceFields[e.Name]:
		case e.Name == "REFRESH_INTERVAL":
			minutes, err := strconv.Atoi(e.Value)
			if err != nil {
				return fail(fmt.Errorf("%w: REFRESH_INTERVAL %q", ErrMalformedFile, e.Value))
			}
			if err := r.SetRefreshInterval(minutes); err != nil {
				return fail(err)
			}
		case e.Name == resourceDDLTemplate:
			r.SetCreateDDL(e.Value)
		case e.Name == tableBiscuitField:
			r.SetTableBiscuit(biscuitService.NewManualBiscuit("table", e.Value, s.logger))
		case strings.HasSuffix(e.Name, biscuitTokenSuffix):
			name := strings.ToLower(strings.TrimSuffix(e.Name, biscuitTokenSuffix))
			r.AddBiscuitObject(biscuitService.NewManualBiscuit(name, e.Value, s.logger))
		}
	}
	return r, nil
}

// biscuitField maps a biscuit name to a shell variable name.
func biscuitField(name string) string {
	mapped := strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, name)
	return mapped + biscuitTokenSuffix
}
