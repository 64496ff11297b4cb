//go:build !windows

package scanner

import "github.com/rs/zerolog"

// registryHomes returns nothing outside Windows
func registryHomes(zerolog.Logger) []string {
	return nil
}
