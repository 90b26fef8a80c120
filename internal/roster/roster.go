// Package roster loads the member directory and finds members by skill.
package roster

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/superteamvn/stvbot/internal/models"
)

// Load reads the member directory from a JSON file. A missing file yields an
// empty roster so the bot can run before any members are added.
func Load(path string) ([]models.Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var members []models.Member
	if err := json.Unmarshal(data, &members); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	return members, nil
}
