package citys

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeFromCachedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "city.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"上海": 101020100, "杭州": 101210100}`), 0o644))

	table := New(path)

	code, err := table.Code("上海")
	require.NoError(t, err)
	assert.Equal(t, 101020100, code)

	_, err = table.Code("不存在的城市")
	assert.ErrorIs(t, err, ErrCityNotFound)
}

func TestCodeFetchesWhenFileAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"message": "Success",
			"zpData": {
				"hotCityList": [{"name": "北京", "code": 101010100}],
				"cityList": [{
					"name": "华东",
					"code": 1,
					"subLevelModelList": [
						{"name": "上海", "code": 101020100},
						{"name": "浙江", "code": 2, "subLevelModelList": [{"name": "杭州", "code": 101210100}]}
					]
				}]
			}
		}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "city.json")
	table := New(path)
	table.apiURL = srv.URL

	code, err := table.Code("杭州")
	require.NoError(t, err)
	assert.Equal(t, 101210100, code)

	code, err = table.Code("北京")
	require.NoError(t, err)
	assert.Equal(t, 101010100, code)

	// Flattened mapping persisted to disk for the next process.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "101020100")
}

func TestCorruptCacheIsRemovedAndRefetched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"message": "Success", "zpData": {"hotCityList": [{"name": "北京", "code": 101010100}]}}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "city.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))

	table := New(path)
	table.apiURL = srv.URL

	code, err := table.Code("北京")
	require.NoError(t, err)
	assert.Equal(t, 101010100, code)
}
