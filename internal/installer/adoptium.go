package installer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
)

const adoptiumAPIBase = "https://api.adoptium.net/v3"

// AdoptiumDistributor implements the Distributor interface for Eclipse Adoptium
type AdoptiumDistributor struct {
	client  *retryablehttp.Client
	baseURL string
	goos    string
	goarch  string
}

// NewAdoptiumDistributor creates a new Adoptium distributor for the running platform
func NewAdoptiumDistributor(client *retryablehttp.Client) *AdoptiumDistributor {
	return NewAdoptiumDistributorWithURL(client, adoptiumAPIBase, runtime.GOOS, runtime.GOARCH)
}

// NewAdoptiumDistributorWithURL creates a distributor for a specific API base
// and platform (for testing)
func NewAdoptiumDistributorWithURL(client *retryablehttp.Client, baseURL, goos, goarch string) *AdoptiumDistributor {
	return &AdoptiumDistributor{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		goos:    goos,
		goarch:  goarch,
	}
}

// Name returns the distributor name
func (a *AdoptiumDistributor) Name() string {
	return "Eclipse Adoptium"
}

// adoptiumReleasesResponse represents the API response for available releases
type adoptiumReleasesResponse struct {
	AvailableLTSReleases     []int `json:"available_lts_releases"`
	AvailableReleases        []int `json:"available_releases"`
	MostRecentLTS            int   `json:"most_recent_lts"`
	MostRecentFeatureRelease int   `json:"most_recent_feature_release"`
}

// adoptiumAssetResponse represents the API response for asset details
type adoptiumAssetResponse struct {
	Binary struct {
		Package struct {
			Link     string `json:"link"`
			Checksum string `json:"checksum"`
			Size     int64  `json:"size"`
			Name     string `json:"name"`
		} `json:"package"`
	} `json:"binary"`
	ReleaseName string `json:"release_name"`
	Version     struct {
		OpenJDKVersion string `json:"openjdk_version"`
		Major          int    `json:"major"`
	} `json:"version"`
}

// AvailableReleases fetches available Java versions from Adoptium API, newest
// first. On failure the fallback list is returned together with the error.
func (a *AdoptiumDistributor) AvailableReleases(ctx context.Context) ([]JavaRelease, error) {
	var resp adoptiumReleasesResponse
	if err := a.getJSON(ctx, a.baseURL+"/info/available_releases", &resp); err != nil {
		return fallbackReleases(), fmt.Errorf("using fallback versions: %w", err)
	}

	ltsMap := make(map[int]bool)
	for _, v := range resp.AvailableLTSReleases {
		ltsMap[v] = true
	}

	releases := make([]JavaRelease, 0, len(resp.AvailableReleases))
	for _, v := range resp.AvailableReleases {
		releases = append(releases, JavaRelease{Major: v, IsLTS: ltsMap[v]})
	}

	sort.Slice(releases, func(i, j int) bool {
		return releases[i].Major > releases[j].Major
	})
	return releases, nil
}

// fallbackReleases returns a hardcoded list of versions
func fallbackReleases() []JavaRelease {
	return []JavaRelease{
		{Major: 25, IsLTS: true},
		{Major: 24},
		{Major: 23},
		{Major: 22},
		{Major: 21, IsLTS: true},
		{Major: 17, IsLTS: true},
		{Major: 11, IsLTS: true},
		{Major: 8, IsLTS: true},
	}
}

// Asset fetches download information of the newest JDK build of major
func (a *AdoptiumDistributor) Asset(ctx context.Context, major int) (*DownloadInfo, error) {
	url := fmt.Sprintf("%s/assets/latest/%d/hotspot?architecture=%s&image_type=jdk&os=%s&vendor=eclipse",
		a.baseURL, major, adoptiumArch(a.goarch), adoptiumOS(a.goos))

	var assets []adoptiumAssetResponse
	if err := a.getJSON(ctx, url, &assets); err != nil {
		return nil, err
	}
	if len(assets) == 0 {
		return nil, fmt.Errorf("no JDK found for Java %d on %s/%s", major, a.goos, a.goarch)
	}

	asset := assets[0]
	if asset.Binary.Package.Link == "" {
		return nil, fmt.Errorf("no download link for Java %d", major)
	}
	return &DownloadInfo{
		URL:      asset.Binary.Package.Link,
		Checksum: asset.Binary.Package.Checksum,
		Size:     asset.Binary.Package.Size,
		FileName: asset.Binary.Package.Name,
		Version:  releaseVersion(asset.Version.OpenJDKVersion),
	}, nil
}

func (a *AdoptiumDistributor) getJSON(ctx context.Context, url string, v interface{}) error {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d for %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// releaseVersion drops the build suffix so the result matches the
// JAVA_VERSION of the release file: "21.0.2+13" -> "21.0.2",
// "1.8.0_402-b06" -> "1.8.0_402".
func releaseVersion(openjdk string) string {
	if i := strings.IndexAny(openjdk, "+-"); i >= 0 {
		return openjdk[:i]
	}
	return openjdk
}

func adoptiumOS(goos string) string {
	if goos == "darwin" {
		return "mac"
	}
	return goos
}

func adoptiumArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x64"
	case "arm64":
		return "aarch64"
	case "386":
		return "x32"
	}
	return goarch
}

// NewHTTPClient creates the retrying HTTP client used for API calls and
// downloads, logging through log.
func NewHTTPClient(log zerolog.Logger) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.Logger = httpLogger{log: log}
	return client
}

// httpLogger adapts zerolog to retryablehttp.LeveledLogger
type httpLogger struct {
	log zerolog.Logger
}

func (l httpLogger) Error(msg string, kv ...interface{}) { l.log.Error().Fields(kv).Msg(msg) }
func (l httpLogger) Info(msg string, kv ...interface{})  { l.log.Debug().Fields(kv).Msg(msg) }
func (l httpLogger) Debug(msg string, kv ...interface{}) { l.log.Trace().Fields(kv).Msg(msg) }
func (l httpLogger) Warn(msg string, kv ...interface{})  { l.log.Warn().Fields(kv).Msg(msg) }
