package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"news-trader/internal/interfaces"
	"news-trader/internal/types"
)

var _ interfaces.EventStore = (*Store)(nil)

// UpsertEvent inserts ev or replaces the row with the same id.
func (s *Store) UpsertEvent(ctx context.Context, ev types.StoredEvent) error {
	row := toEventRow(ev)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to upsert event %s: %w", ev.ID, err)
	}
	return nil
}

// RecentEvents returns up to limit events, newest timestamp first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]types.StoredEvent, error) {
	var rows []eventRow
	q := s.db.WithContext(ctx).Order("timestamp desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	out := make([]types.StoredEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toStored())
	}
	return out, nil
}

// CountEvents returns the number of stored events.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&eventRow{}).Count(&n).Error
	return n, err
}
