package service

import (
	"context"
	"fmt"

	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/logger"
	"github.com/abdullah-almakhmari/Barig-EV-sub001/internal/model"
)

// ApplyStations writes catalog records and drops each station's cached
// status, summary and score, so a change of admin status or charger counts
// is visible on the next read. It stops at the first failed write.
func ApplyStations(ctx context.Context, w StationWriter, cache *CacheService, stations []model.Station) error {
	for _, st := range stations {
		if err := w.UpsertStation(ctx, st); err != nil {
			return fmt.Errorf("apply station %s: %w", st.ID, err)
		}
		cache.invalidate(ctx, st.ID)
	}
	logger.Log.Info().Int("stations", len(stations)).Msg("station catalog applied")
	return nil
}
