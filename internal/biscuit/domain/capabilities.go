package domain

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTimeWindow is the span of a time check added without an explicit end.
const DefaultTimeWindow = 90 * 24 * time.Hour

// TimeWindow is a [Start, End) validity interval, held at second precision in UTC.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Capabilities accumulates resource grants, identity checks and time checks, and renders
// them to deterministic policy text. Every mutation that changes the rendered text
// increments Version, which token builders use to detect a stale cache.
type Capabilities struct {
	mu              sync.RWMutex
	defaultResource string
	lastResource    string
	resources       []string
	grants          map[string]map[Permission]struct{}
	identities      map[string]struct{}
	windows         []TimeWindow
	version         uint64
	windowSpan      time.Duration
	now             func() time.Time
	logger          *slog.Logger
}

// NewCapabilities creates an empty capability set. A nil logger discards log output.
func NewCapabilities(logger *slog.Logger) *Capabilities {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Capabilities{
		grants:     make(map[string]map[Permission]struct{}),
		identities: make(map[string]struct{}),
		windowSpan: DefaultTimeWindow,
		now:        time.Now,
		logger:     logger,
	}
}

// SetClock replaces the time source used for default time windows.
func (c *Capabilities) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// SetTimeWindowSpan sets the span used when AddTimeCheck is given no end.
func (c *Capabilities) SetTimeWindowSpan(span time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if span > 0 {
		c.windowSpan = span
	}
}

// SetDefaultResource sets the resource used when AddCapability receives an empty one.
func (c *Capabilities) SetDefaultResource(resource string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defaultResource = resource
}

// DefaultResource returns the configured default resource.
func (c *Capabilities) DefaultResource() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultResource
}

// LastResource returns the resource named by the most recent AddCapability call.
func (c *Capabilities) LastResource() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastResource
}

// Version returns a counter that increases whenever the rendered policy could change.
func (c *Capabilities) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// AddCapability grants perms on resource and returns how many permissions were newly
// added. An empty resource falls back to the default resource, then to the last used
// resource. Granting ALL collapses the set to {ALL}; once a resource holds ALL, further
// grants are dropped with a warning and count zero.
func (c *Capabilities) AddCapability(resource string, perms ...Permission) (int, error) {
	for _, p := range perms {
		if !p.Valid() {
			return 0, fmt.Errorf("%w: %d", ErrUnknownPermission, int(p))
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(resource) == "" {
		resource = c.defaultResource
	}
	if strings.TrimSpace(resource) == "" {
		resource = c.lastResource
	}
	if strings.TrimSpace(resource) == "" {
		return 0, ErrNoResource
	}
	c.lastResource = resource

	key := normalizeResource(resource)
	set, ok := c.grants[key]
	if !ok {
		set = make(map[Permission]struct{})
		c.grants[key] = set
		c.resources = append(c.resources, key)
	}

	if _, all := set[PermissionAll]; all {
		if len(perms) > 0 {
			c.logger.Warn("resource already grants ALL permissions, request disregarded",
				slog.String("resource", key),
				slog.Int("submitted", len(perms)),
			)
		}
		return 0, nil
	}

	for _, p := range perms {
		if p == PermissionAll {
			replaced := len(set)
			c.grants[key] = map[Permission]struct{}{PermissionAll: {}}
			c.version++
			c.logger.Info("granted ALL permissions",
				slog.String("resource", key),
				slog.Int("replaced", replaced),
			)
			return 1, nil
		}
	}

	added := 0
	for _, p := range perms {
		if _, exists := set[p]; exists {
			continue
		}
		set[p] = struct{}{}
		added++
	}
	if added > 0 {
		c.version++
	}

	c.logger.Debug("added permissions",
		slog.String("resource", key),
		slog.Int("added", added),
		slog.Int("duplicates", len(perms)-added),
	)
	return added, nil
}

// RemoveCapability revokes perms on resource and returns how many were removed. With no
// perms every grant on the resource is removed.
func (c *Capabilities) RemoveCapability(resource string, perms ...Permission) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := normalizeResource(resource)
	set, ok := c.grants[key]
	if !ok {
		return 0
	}

	removed := 0
	if len(perms) == 0 {
		removed = len(set)
		delete(c.grants, key)
		c.resources = removeString(c.resources, key)
	} else {
		for _, p := range perms {
			if _, exists := set[p]; exists {
				delete(set, p)
				removed++
			}
		}
	}
	if removed > 0 {
		c.version++
	}
	return removed
}

// AddIdentityCheck restricts the token to the given identities and returns how many
// were newly added.
func (c *Capabilities) AddIdentityCheck(identities ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	added := 0
	for _, id := range identities {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, exists := c.identities[id]; exists {
			continue
		}
		c.identities[id] = struct{}{}
		added++
	}
	if added > 0 {
		c.version++
	}
	return added
}

// AddTimeCheck restricts the token to [start, end) and returns 1 when the window is new.
// A zero start means now and a zero end means start plus the configured span. Time
// checks are intersected by verifiers, so a second distinct window is accepted but
// logged as a warning.
func (c *Capabilities) AddTimeCheck(start, end time.Time) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if start.IsZero() {
		start = c.now()
	}
	if end.IsZero() {
		end = start.Add(c.windowSpan)
	}
	window := TimeWindow{
		Start: start.UTC().Truncate(time.Second),
		End:   end.UTC().Truncate(time.Second),
	}
	if !window.End.After(window.Start) {
		return 0, fmt.Errorf("%w: end %s is not after start %s",
			ErrInvalidTimeWindow, window.End.Format(time.RFC3339), window.Start.Format(time.RFC3339))
	}

	for _, w := range c.windows {
		if w.Start.Equal(window.Start) && w.End.Equal(window.End) {
			return 0, nil
		}
	}
	if len(c.windows) > 0 {
		c.logger.Warn("multiple time checks are intersected, token may never be valid",
			slog.Int("windows", len(c.windows)+1),
		)
	}

	c.windows = append(c.windows, window)
	c.version++
	return 1, nil
}

// Clear removes every grant and constraint.
func (c *Capabilities) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.resources = nil
	c.grants = make(map[string]map[Permission]struct{})
	c.identities = make(map[string]struct{})
	c.windows = nil
	c.version++
	c.logger.Debug("cleared all capabilities")
}

// Resources returns the resources holding at least one permission, in insertion order.
func (c *Capabilities) Resources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.resources))
	for _, r := range c.resources {
		if len(c.grants[r]) > 0 {
			out = append(out, r)
		}
	}
	return out
}

// Permissions returns the permissions granted on resource, ordered by tag.
func (c *Capabilities) Permissions(resource string) []Permission {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedPermissions(c.grants[normalizeResource(resource)])
}

// Identities returns the identity constraints in sorted order.
func (c *Capabilities) Identities() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.identities))
	for id := range c.identities {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TimeWindows returns a copy of the time constraints in insertion order.
func (c *Capabilities) TimeWindows() []TimeWindow {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]TimeWindow, len(c.windows))
	copy(out, c.windows)
	return out
}

// Grants returns resource -> permission tags, suitable for JSON output.
func (c *Capabilities) Grants() map[string][]string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string][]string, len(c.grants))
	for r, set := range c.grants {
		if len(set) == 0 {
			continue
		}
		tags := make([]string, 0, len(set))
		for _, p := range sortedPermissions(set) {
			tags = append(tags, p.Tag())
		}
		out[r] = tags
	}
	return out
}

// IsEmpty reports whether rendering would produce no policy lines.
func (c *Capabilities) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.identities) > 0 || len(c.windows) > 0 {
		return false
	}
	for _, set := range c.grants {
		if len(set) > 0 {
			return false
		}
	}
	return true
}

func normalizeResource(resource string) string {
	return strings.ToLower(strings.TrimSpace(resource))
}

func sortedPermissions(set map[Permission]struct{}) []Permission {
	out := make([]Permission, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag() < out[j].Tag() })
	return out
}

func removeString(values []string, target string) []string {
	out := values[:0]
	for _, v := range values {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
