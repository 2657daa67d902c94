// Package inventory enumerates target hosts from Ansible-style INI
// inventories or explicit identifier lists.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gopkg.in/ini.v1"
)

// ErrNoHosts is returned when enumeration yields zero hosts.
var ErrNoHosts = errors.New("no hosts to collect from")

// GroupAll selects every host in the inventory regardless of grouping.
const GroupAll = "all"

// Host describes one collection target.
type Host struct {
	ID   string // identifier handed to the transport (address or instance ID)
	Name string // display name; equals ID unless the inventory aliases it
}

// FromIdentifiers builds hosts from explicit identifiers, preserving order.
func FromIdentifiers(ids []string) ([]Host, error) {
	if len(ids) == 0 {
		return nil, ErrNoHosts
	}
	hosts := make([]Host, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		hosts = append(hosts, Host{ID: id, Name: id})
	}
	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}
	return hosts, nil
}

// Load enumerates hosts from an inventory source, filtered to the given
// group (GroupAll for everything). A source beginning with http:// or
// https:// is fetched over HTTP; anything else is read as a local file.
func Load(ctx context.Context, source, group string) ([]Host, error) {
	var data []byte
	var err error

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		data, err = fetch(ctx, source)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory %s: %w", source, err)
	}

	return Parse(data, group)
}

// fetch retrieves a remote inventory with an OTel-instrumented HTTP client.
func fetch(ctx context.Context, url string) ([]byte, error) {
	client := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// Parse reads an Ansible-style INI inventory. Bare host lines are boolean
// keys; a `name ansible_host=addr` line aliases name to addr; `[g:children]`
// sections nest groups; `[g:vars]` sections are skipped. Host order follows
// file order and duplicates are kept as given.
func Parse(data []byte, group string) ([]Host, error) {
	f, err := ini.LoadSources(ini.LoadOptions{AllowBooleanKeys: true}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse inventory: %w", err)
	}

	groups := make(map[string][]Host)  // group name → hosts in file order
	children := make(map[string][]string)
	var order []string // group names in file order

	for _, section := range f.Sections() {
		name := section.Name()
		switch {
		case name == ini.DefaultSection:
			name = "ungrouped"
		case strings.HasSuffix(name, ":vars"):
			continue
		case strings.HasSuffix(name, ":children"):
			parent := strings.TrimSuffix(name, ":children")
			for _, key := range section.Keys() {
				children[parent] = append(children[parent], key.Name())
			}
			continue
		}

		for _, key := range section.Keys() {
			if _, seen := groups[name]; !seen {
				order = append(order, name)
			}
			groups[name] = append(groups[name], hostFromKey(key))
		}
	}

	var hosts []Host
	if group == "" || group == GroupAll {
		for _, g := range order {
			hosts = append(hosts, groups[g]...)
		}
	} else {
		hosts = resolveGroup(group, groups, children, make(map[string]bool))
		if hosts == nil {
			return nil, fmt.Errorf("inventory group %q not found", group)
		}
	}

	if len(hosts) == 0 {
		return nil, ErrNoHosts
	}
	return hosts, nil
}

// hostFromKey converts one inventory line into a Host. A bare "web1" line
// arrives as a boolean key; "web1 ansible_host=10.0.0.5" arrives as key
// "web1 ansible_host" with value "10.0.0.5".
func hostFromKey(key *ini.Key) Host {
	fields := strings.Fields(key.Name())
	name := fields[0]
	id := name
	if len(fields) > 1 && fields[len(fields)-1] == "ansible_host" && key.Value() != "" {
		id = strings.Fields(key.Value())[0]
	}
	return Host{ID: id, Name: name}
}

// resolveGroup collects a group's hosts, expanding child groups depth-first.
// Returns nil when the group does not exist at all.
func resolveGroup(group string, groups map[string][]Host, children map[string][]string, visited map[string]bool) []Host {
	if visited[group] {
		return []Host{}
	}
	visited[group] = true

	direct, hasDirect := groups[group]
	kids, hasKids := children[group]
	if !hasDirect && !hasKids {
		return nil
	}

	hosts := make([]Host, 0, len(direct))
	hosts = append(hosts, direct...)
	for _, child := range kids {
		if resolved := resolveGroup(child, groups, children, visited); resolved != nil {
			hosts = append(hosts, resolved...)
		}
	}
	return hosts
}
