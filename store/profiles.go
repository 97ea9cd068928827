package store

import (
	"github.com/pkg/errors"
	"github.com/unihive/unihive/model"
	"gorm.io/gorm"
)

// LikeProfile records a directed like from the connect page and reports
// whether it completed a mutual pair. Liking the same profile twice is
// idempotent and never a second match.
func (s *Store) LikeProfile(likerId string, likedId string) (matched bool, err error) {
	exists, err := s.HasLikedProfile(likerId, likedId)
	if err != nil {
		return false, err
	}
	if exists {
		// Like already recorded, any match was reported the first time.
		return false, nil
	}
	if err := s.DB.Create(&model.ProfileLike{LikerID: likerId, LikedID: likedId}).Error; err != nil {
		return false, errors.Wrap(err, "fail to like profile")
	}

	var count int64
	err = s.DB.Model(&model.ProfileLike{}).
		Where("liker_id = ? AND liked_id = ?", likedId, likerId).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "fail to check reciprocal like")
	}
	return count > 0, nil
}

// UnlikeProfile withdraws a directed like. Used to roll back an optimistic
// like that failed downstream.
func (s *Store) UnlikeProfile(likerId string, likedId string) error {
	err := s.DB.Where("liker_id = ? AND liked_id = ?", likerId, likedId).
		Delete(&model.ProfileLike{}).Error
	if err != nil {
		return errors.Wrap(err, "fail to unlike profile")
	}
	return nil
}

// HasLikedProfile reports whether liker has an outstanding like on liked.
func (s *Store) HasLikedProfile(likerId string, likedId string) (bool, error) {
	var count int64
	err := s.DB.Model(&model.ProfileLike{}).
		Where("liker_id = ? AND liked_id = ?", likerId, likedId).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "fail to check profile like")
	}
	return count > 0, nil
}

// ListMatches returns the ids of every user sharing a mutual like with
// userId.
func (s *Store) ListMatches(userId string) ([]string, error) {
	var ids []string
	err := s.DB.Model(&model.ProfileLike{}).
		Select("profile_likes.liked_id").
		Joins("JOIN profile_likes reciprocal ON reciprocal.liker_id = profile_likes.liked_id "+
			"AND reciprocal.liked_id = profile_likes.liker_id").
		Where("profile_likes.liker_id = ?", userId).
		Scan(&ids).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Wrap(err, "fail to list matches")
	}
	return ids, nil
}
