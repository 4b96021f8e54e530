// Package version checks for newer releases and compares version strings.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/metafates/gache"
	"github.com/vidora/vidora/filesystem"
	"github.com/vidora/vidora/network"
	"github.com/vidora/vidora/util"
	"github.com/vidora/vidora/where"
)

// ReleasesURL is the endpoint describing the latest release.
var ReleasesURL = "https://api.github.com/repos/vidora/vidora/releases/latest"

const (
	cacheLifetime = 48 * time.Hour
	checkTimeout  = 5 * time.Second
)

func cacher() *gache.Cache[string] {
	return gache.New[string](&gache.Options{
		Path:       filepath.Join(where.Cache(), "version.json"),
		Lifetime:   cacheLifetime,
		FileSystem: &filesystem.GacheFs{},
	})
}

// Latest returns the newest released version without the "v" prefix.
// Answers are cached for two days.
func Latest(ctx context.Context) (string, error) {
	cache := cacher()

	ver, expired, err := cache.Get()
	if err == nil && !expired && ver != "" {
		return ver, nil
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ReleasesURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := network.New(checkTimeout).Do(req)
	if err != nil {
		return "", err
	}
	defer util.Ignore(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("release check: %s", resp.Status)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}

	if release.TagName == "" {
		return "", errors.New("empty tag name")
	}

	ver = strings.TrimPrefix(release.TagName, "v")
	_ = cache.Set(ver)
	return ver, nil
}
