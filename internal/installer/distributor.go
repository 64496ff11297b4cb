package installer

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
)

// Distributor represents a Java distribution provider
type Distributor interface {
	Name() string
	AvailableReleases(ctx context.Context) ([]JavaRelease, error)
	Asset(ctx context.Context, major int) (*DownloadInfo, error)
}

// NewDistributor returns the distributor configured as name. Eclipse
// Adoptium (Temurin builds) is the only one; "" selects it.
func NewDistributor(name string, client *retryablehttp.Client) (Distributor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "temurin", "adoptium":
		return NewAdoptiumDistributor(client), nil
	default:
		return nil, fmt.Errorf("unsupported distribution %q (supported: temurin)", name)
	}
}

// JavaRelease represents an available Java feature release
type JavaRelease struct {
	Major int
	IsLTS bool
}

// DownloadInfo contains information needed to download a JDK
type DownloadInfo struct {
	URL      string
	Checksum string // SHA256, hex encoded; empty when the vendor publishes none
	Size     int64
	FileName string
	Version  string // Full version as written in the JDK release file
}
