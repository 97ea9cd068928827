package store

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/unihive/unihive/model"
	"gorm.io/gorm"
)

// ListConfessions returns every confession newest first.
func (s *Store) ListConfessions() ([]*model.Confession, error) {
	var confessions []*model.Confession
	if err := s.DB.Order("created_at desc").Find(&confessions).Error; err != nil {
		return nil, errors.Wrap(err, "fail to list confessions")
	}
	return confessions, nil
}

// CreateConfession inserts a confession and publishes its insert event. For
// an anonymous confession no author reference is persisted at all: the row
// cannot leak the identity through any later read.
func (s *Store) CreateConfession(authorId string, content string, isAnonymous bool) (*model.Confession, error) {
	confession := &model.Confession{
		Id:          uuid.New().String(),
		Content:     content,
		IsAnonymous: isAnonymous,
	}
	if !isAnonymous {
		confession.AuthorID = &authorId
	}

	if err := s.DB.Create(confession).Error; err != nil {
		return nil, errors.Wrap(err, "fail to create confession")
	}

	s.publish(model.TableConfessions, model.ChangeTypeInsert, confession)
	return confession, nil
}

// HasUpvoted reports whether the user holds an upvote on the confession.
func (s *Store) HasUpvoted(confessionId string, userId string) (bool, error) {
	var count int64
	err := s.DB.Model(&model.ConfessionUpvote{}).
		Where("confession_id = ? AND user_id = ?", confessionId, userId).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "fail to check upvote")
	}
	return count > 0, nil
}

// UpvotedConfessionIds returns, out of confessionIds, the set the user has
// upvoted.
func (s *Store) UpvotedConfessionIds(userId string, confessionIds []string) (map[string]bool, error) {
	upvoted := map[string]bool{}
	if len(confessionIds) == 0 {
		return upvoted, nil
	}

	var upvotes []model.ConfessionUpvote
	err := s.DB.
		Where("user_id = ? AND confession_id IN ?", userId, confessionIds).
		Find(&upvotes).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to load upvotes")
	}
	for _, u := range upvotes {
		upvoted[u.ConfessionID] = true
	}
	return upvoted, nil
}

// InsertUpvote adds the upvote join row and bumps the denormalized counter
// in one transaction, then publishes an update event.
func (s *Store) InsertUpvote(confessionId string, userId string) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.ConfessionUpvote{ConfessionID: confessionId, UserID: userId}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Confession{}).
			Where("id = ?", confessionId).
			Update("upvotes", gorm.Expr("upvotes + 1")).Error
	})
	if err != nil {
		return errors.Wrap(err, "fail to upvote confession")
	}

	var confession model.Confession
	if err := s.DB.Where("id = ?", confessionId).First(&confession).Error; err == nil {
		s.publish(model.TableConfessions, model.ChangeTypeUpdate, &confession)
	}
	return nil
}

// DeleteUpvote removes the upvote join row and decrements the counter, then
// publishes an update event.
func (s *Store) DeleteUpvote(confessionId string, userId string) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("confession_id = ? AND user_id = ?", confessionId, userId).
			Delete(&model.ConfessionUpvote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		return tx.Model(&model.Confession{}).
			Where("id = ?", confessionId).
			Update("upvotes", gorm.Expr("upvotes - 1")).Error
	})
	if err != nil {
		return errors.Wrap(err, "fail to remove upvote")
	}

	var confession model.Confession
	if err := s.DB.Where("id = ?", confessionId).First(&confession).Error; err == nil {
		s.publish(model.TableConfessions, model.ChangeTypeUpdate, &confession)
	}
	return nil
}
