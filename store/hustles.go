package store

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/unihive/unihive/model"
)

// ListHustles returns gig board listings newest first, optionally narrowed
// to one category.
func (s *Store) ListHustles(category model.HustleCategory) ([]*model.Hustle, error) {
	var hustles []*model.Hustle
	query := s.DB.Order("created_at desc")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Find(&hustles).Error; err != nil {
		return nil, errors.Wrap(err, "fail to list hustles")
	}
	return hustles, nil
}

// CreateHustle inserts a gig board listing and publishes its insert event.
func (s *Store) CreateHustle(hustle *model.Hustle) error {
	hustle.Id = uuid.New().String()
	if err := s.DB.Create(hustle).Error; err != nil {
		return errors.Wrap(err, "fail to create hustle")
	}

	s.publish(model.TableHustles, model.ChangeTypeInsert, hustle)
	return nil
}
