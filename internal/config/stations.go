package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

type stationFile struct {
	Stations []stationEntry `yaml:"stations"`
}

type stationEntry struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	AdminStatus       string `yaml:"admin_status"`
	AvailableChargers int    `yaml:"available_chargers"`
	TotalChargers     int    `yaml:"total_chargers"`
	UpdatedAt         string `yaml:"updated_at"`
}

// LoadStations reads a station seed file for the embedded store. The
// station catalog normally owns these records; the seed file stands in for
// it in local development. Missing updated_at values default to now.
func LoadStations(path string, now time.Time) ([]model.Station, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read station seed: %w", err)
	}
	var f stationFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse station seed %s: %w", path, err)
	}

	out := make([]model.Station, 0, len(f.Stations))
	for i, e := range f.Stations {
		if strings.TrimSpace(e.ID) == "" {
			return nil, fmt.Errorf("station seed entry %d: id is required", i)
		}
		st := model.Station{
			ID:                strings.TrimSpace(e.ID),
			Name:              e.Name,
			AdminStatus:       model.AdminStatus(strings.ToUpper(or(e.AdminStatus, string(model.AdminOperational)))),
			AvailableChargers: e.AvailableChargers,
			TotalChargers:     e.TotalChargers,
			UpdatedAt:         now.UTC(),
		}
		switch st.AdminStatus {
		case model.AdminOperational, model.AdminOffline, model.AdminMaintenance, model.AdminComingSoon:
		default:
			return nil, fmt.Errorf("station %s: unknown admin_status %q", st.ID, e.AdminStatus)
		}
		if st.AvailableChargers < 0 || st.TotalChargers < 0 || st.AvailableChargers > st.TotalChargers {
			return nil, fmt.Errorf("station %s: invalid charger counts %d/%d", st.ID, st.AvailableChargers, st.TotalChargers)
		}
		if e.UpdatedAt != "" {
			t, err := time.Parse(time.RFC3339, e.UpdatedAt)
			if err != nil {
				return nil, fmt.Errorf("station %s: updated_at: %w", st.ID, err)
			}
			st.UpdatedAt = t.UTC()
		}
		out = append(out, st)
	}
	return out, nil
}
