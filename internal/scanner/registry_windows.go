package scanner

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"golang.org/x/sys/windows/registry"
)

// registryRoots are HKLM keys whose subkeys describe installed JDKs
var registryRoots = []string{
	`SOFTWARE\JavaSoft\JDK`,
	`SOFTWARE\Eclipse Adoptium\JDK`,
	`SOFTWARE\Eclipse Foundation\JDK`,
	`SOFTWARE\Azul Systems\Zulu`,
	`SOFTWARE\Microsoft\JDK`,
}

// homeValues are the value names vendors use for the install location
var homeValues = []string{"JavaHome", "InstallationPath", "Path"}

// registryHomes returns the JDK homes recorded in the registry
func registryHomes(log zerolog.Logger) []string {
	homes := make([]string, 0)
	for _, root := range registryRoots {
		key, err := registry.OpenKey(registry.LOCAL_MACHINE, root, registry.ENUMERATE_SUB_KEYS|registry.QUERY_VALUE)
		if err != nil {
			continue
		}
		names, err := key.ReadSubKeyNames(-1)
		key.Close()
		if err != nil {
			log.Info().Str("method", "registryHomes").Str("key", root).Err(err).Msg("cannot list registry key")
			continue
		}

		for _, name := range names {
			// Adoptium and Microsoft MSIs nest the path under <version>\hotspot\MSI
			for _, sub := range []string{name, name + `\hotspot\MSI`} {
				if home := readHomeValue(root + `\` + sub); home != "" {
					homes = append(homes, filepath.Clean(home))
					break
				}
			}
		}
	}
	return homes
}

func readHomeValue(path string) string {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
	if err != nil {
		return ""
	}
	defer key.Close()

	for _, name := range homeValues {
		if value, _, err := key.GetStringValue(name); err == nil && value != "" {
			return value
		}
	}
	return ""
}
