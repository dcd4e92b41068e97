// Package citys resolves human city names to the site's internal city
// codes. The mapping is fetched once from the city-list endpoint, flattened
// and persisted to disk; later lookups are served from memory.
package citys

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"go-zhipin-automation/internal/logger"
	"go-zhipin-automation/internal/zhipin"
)

// ErrCityNotFound is returned for names absent from the mapping. Parameter
// sweeps depend on valid codes, so a miss is an error, never a zero value.
var ErrCityNotFound = errors.New("city not found")

// Table is the name-to-code lookup. Construct with New and share by
// reference; it is safe for concurrent readers after Load.
type Table struct {
	mu      sync.Mutex
	path    string
	apiURL  string
	client  *resty.Client
	mapping map[string]int
}

func New(path string) *Table {
	return &Table{
		path:   path,
		apiURL: zhipin.CityAPIURL,
		client: resty.New().SetTimeout(zhipin.Timeout),
	}
}

// Code returns the site code for a city name, loading the table on first
// use.
func (t *Table) Code(name string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.mapping == nil {
		if err := t.load(); err != nil {
			return 0, err
		}
	}

	code, ok := t.mapping[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrCityNotFound, name)
	}
	return code, nil
}

func (t *Table) load() error {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read city table: %w", err)
		}
		return t.fetch()
	}

	var mapping map[string]int
	if err := json.Unmarshal(data, &mapping); err != nil || len(mapping) == 0 {
		// A corrupt or empty cache is removed so the next run refetches.
		logger.Warnf("City table at %s unusable, removing: %v", t.path, err)
		_ = os.Remove(t.path)
		return t.fetch()
	}

	t.mapping = mapping
	logger.Debugf("Loaded %d city codes from %s", len(mapping), t.path)
	return nil
}

// fetch pulls the flat hot-city list plus the recursively nested region
// tree, flattens both into one mapping and persists it.
func (t *Table) fetch() error {
	resp, err := t.client.R().Get(t.apiURL)
	if err != nil {
		return fmt.Errorf("failed to fetch city list: %w", err)
	}
	body := resp.String()
	if gjson.Get(body, "message").String() != "Success" {
		return fmt.Errorf("city list endpoint returned %q", gjson.Get(body, "message").String())
	}

	mapping := make(map[string]int)
	for _, city := range gjson.Get(body, "zpData.hotCityList").Array() {
		if name := city.Get("name").String(); name != "" {
			mapping[name] = int(city.Get("code").Int())
		}
	}
	var walk func(items []gjson.Result)
	walk = func(items []gjson.Result) {
		for _, item := range items {
			if name := item.Get("name").String(); name != "" {
				mapping[name] = int(item.Get("code").Int())
			}
			if sub := item.Get("subLevelModelList"); sub.IsArray() {
				walk(sub.Array())
			}
		}
	}
	walk(gjson.Get(body, "zpData.cityList").Array())

	if len(mapping) == 0 {
		return errors.New("city list endpoint returned no cities")
	}

	if err := t.persist(mapping); err != nil {
		return err
	}
	t.mapping = mapping
	logger.Infof("Fetched and cached %d city codes", len(mapping))
	return nil
}

func (t *Table) persist(mapping map[string]int) error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("failed to create city table directory: %w", err)
	}
	data, err := json.MarshalIndent(mapping, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal city table: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write city table: %w", err)
	}
	return nil
}
