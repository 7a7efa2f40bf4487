package domain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DefaultDomain is the fact namespace used in policy text.
const DefaultDomain = "sxt"

// Render returns the policy text for the current state: identity checks sorted, time
// checks sorted, then one capability line per permission for each resource in insertion
// order with its tags sorted. Rendering never mutates state.
func (c *Capabilities) Render(domain string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var lines []string

	identities := make([]string, 0, len(c.identities))
	for id := range c.identities {
		identities = append(identities, identityLine(domain, id))
	}
	sort.Strings(identities)
	lines = append(lines, identities...)

	windows := make([]string, 0, len(c.windows))
	for _, w := range c.windows {
		windows = append(windows, timeLine(w))
	}
	sort.Strings(windows)
	lines = append(lines, windows...)

	for _, resource := range c.resources {
		for _, p := range sortedPermissions(c.grants[resource]) {
			lines = append(lines, capabilityLine(domain, p, resource))
		}
	}

	return strings.Join(lines, "\n")
}

// ParseText replaces the current grants and constraints with those found in text.
// Capability, identity and time lines are recognised; any other line is ignored. State is
// left untouched when a recognised line is malformed.
func (c *Capabilities) ParseText(domain, text string) error {
	var (
		resources  []string
		grants     = make(map[string]map[Permission]struct{})
		identities = make(map[string]struct{})
		windows    []TimeWindow
	)

	capabilityPrefix := domain + ":capability"
	identityPrefix := "check if " + domain + ":user"
	timePrefix := "check if time("

	for n, raw := range strings.Split(strings.TrimSpace(text), "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case strings.HasPrefix(line, capabilityPrefix):
			parts := strings.Split(line, `"`)
			if len(parts) < 5 {
				return fmt.Errorf("%w: line %d: want %s(\"PERMISSION\", \"RESOURCE\");",
					ErrMalformedCapability, n+1, capabilityPrefix)
			}
			p, err := ParsePermission(parts[1])
			if err != nil {
				return fmt.Errorf("line %d: %w", n+1, err)
			}
			resource := normalizeResource(parts[3])
			set, ok := grants[resource]
			if !ok {
				set = make(map[Permission]struct{})
				grants[resource] = set
				resources = append(resources, resource)
			}
			set[p] = struct{}{}

		case strings.HasPrefix(line, identityPrefix):
			parts := strings.Split(line, `"`)
			if len(parts) < 3 {
				return fmt.Errorf("%w: line %d: want check if %s:user(\"IDENTITY\");",
					ErrMalformedCapability, n+1, domain)
			}
			identities[parts[1]] = struct{}{}

		case strings.HasPrefix(line, timePrefix):
			window, err := parseTimeLine(line)
			if err != nil {
				return fmt.Errorf("line %d: %w", n+1, err)
			}
			windows = appendWindow(windows, window)
		}
	}

	for resource, set := range grants {
		if _, all := set[PermissionAll]; all {
			grants[resource] = map[Permission]struct{}{PermissionAll: {}}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources = resources
	c.grants = grants
	c.identities = identities
	c.windows = windows
	if len(resources) > 0 {
		c.lastResource = resources[len(resources)-1]
	}
	c.version++
	return nil
}

var (
	capabilityPattern = `^%s:capability\("[^"]+", "[^"]+"\);$`
	identityPattern   = `^check if %s:user\("[^"]+"\);$`
	timeLinePattern   = regexp.MustCompile(`^check if time\(\$time\), \$time <= "[^"]+", \$time >= "[^"]+";$`)
)

// ValidatePolicyText checks that every non-blank line is a capability, identity or time
// statement for domain and that the text holds at least one statement.
func ValidatePolicyText(domain, text string) error {
	quoted := regexp.QuoteMeta(domain)
	capabilityRe := regexp.MustCompile(fmt.Sprintf(capabilityPattern, quoted))
	identityRe := regexp.MustCompile(fmt.Sprintf(identityPattern, quoted))

	statements := 0
	for n, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !capabilityRe.MatchString(line) && !identityRe.MatchString(line) && !timeLinePattern.MatchString(line) {
			return fmt.Errorf("%w: line %d: %q", ErrMalformedPolicy, n+1, line)
		}
		statements++
	}
	if statements == 0 {
		return fmt.Errorf("%w: no statements", ErrMalformedPolicy)
	}
	return nil
}

func capabilityLine(domain string, p Permission, resource string) string {
	return fmt.Sprintf(`%s:capability("%s", "%s");`, domain, p.Tag(), strings.ToLower(resource))
}

func identityLine(domain, identity string) string {
	return fmt.Sprintf(`check if %s:user("%s");`, domain, identity)
}

func timeLine(w TimeWindow) string {
	return fmt.Sprintf(`check if time($time), $time <= "%s", $time >= "%s";`,
		w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
}

func parseTimeLine(line string) (TimeWindow, error) {
	parts := strings.Split(line, `"`)
	if len(parts) < 5 {
		return TimeWindow{}, fmt.Errorf("%w: time check needs an end and a start", ErrMalformedCapability)
	}
	end, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: end: %v", ErrMalformedCapability, err)
	}
	start, err := time.Parse(time.RFC3339, parts[3])
	if err != nil {
		return TimeWindow{}, fmt.Errorf("%w: start: %v", ErrMalformedCapability, err)
	}
	if !end.After(start) {
		return TimeWindow{}, ErrInvalidTimeWindow
	}
	return TimeWindow{Start: start.UTC(), End: end.UTC()}, nil
}

func appendWindow(windows []TimeWindow, window TimeWindow) []TimeWindow {
	for _, w := range windows {
		if w.Start.Equal(window.Start) && w.End.Equal(window.End) {
			return windows
		}
	}
	return append(windows, window)
}
