package store

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
)

// migrationPassword is assigned to every channel found in a legacy
// list-format registry. One-time, irreversible upgrade.
const migrationPassword = "password123"

// LoadAuthRegistry reads the channel→password registry from path. On
// first run it seeds one default channel and persists it. A legacy
// registry (plain JSON list of channel names) is migrated in place by
// assigning the fixed placeholder password to every entry. A
// malformed registry is logged and yields an empty map, so the
// process comes up serving no channels rather than crashing.
func LoadAuthRegistry(path, defaultChannel, defaultPass string) map[string]string {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("read channel registry: %v", err)
			return map[string]string{}
		}
		auth := map[string]string{strings.ToLower(defaultChannel): defaultPass}
		if err := saveAuthRegistry(path, auth); err != nil {
			log.Printf("seed channel registry: %v", err)
		}
		return auth
	}

	var legacy []string
	if err := json.Unmarshal(data, &legacy); err == nil {
		log.Println("⚠️ Migrating channel registry to password format...")
		auth := make(map[string]string, len(legacy))
		for _, channel := range legacy {
			auth[strings.ToLower(channel)] = migrationPassword
		}
		if err := saveAuthRegistry(path, auth); err != nil {
			log.Printf("save migrated channel registry: %v", err)
		}
		return auth
	}

	auth := map[string]string{}
	if err := json.Unmarshal(data, &auth); err != nil {
		log.Printf("parse channel registry: %v", err)
		return map[string]string{}
	}
	return auth
}

func saveAuthRegistry(path string, auth map[string]string) error {
	data, err := json.MarshalIndent(auth, "", "  ")
	if err != nil {
		return fmt.Errorf("encode channel registry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write channel registry: %w", err)
	}
	return nil
}
