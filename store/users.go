package store

import (
	"github.com/pkg/errors"
	"github.com/unihive/unihive/model"
	"gorm.io/gorm"
)

// GetUser returns the user with the given id, or gorm.ErrRecordNotFound.
func (s *Store) GetUser(id string) (*model.User, error) {
	var user model.User
	if err := s.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail returns the user with the given email, or
// gorm.ErrRecordNotFound.
func (s *Store) GetUserByEmail(email string) (*model.User, error) {
	var user model.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser persists a new user row.
func (s *Store) CreateUser(user *model.User) error {
	if err := s.DB.Create(user).Error; err != nil {
		return errors.Wrap(err, "fail to create user")
	}
	return nil
}

// NicknamesByIds resolves display names for a set of user ids. Missing ids
// are simply absent from the result, the caller decides the fallback.
func (s *Store) NicknamesByIds(ids []string) (map[string]string, error) {
	res := map[string]string{}
	if len(ids) == 0 {
		return res, nil
	}

	var users []model.User
	if err := s.DB.Select("id", "nickname").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "fail to resolve nicknames")
	}
	for _, u := range users {
		res[u.Id] = u.Nickname
	}
	return res, nil
}

// ListProfiles returns every live profile except the viewer's own, for the
// connect page.
func (s *Store) ListProfiles(excludeUserId string) ([]*model.User, error) {
	var users []*model.User
	err := s.DB.Where("id <> ?", excludeUserId).Order("created_at desc").Find(&users).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to list profiles")
	}
	return users, nil
}

// IsRecordNotFound reports whether err is the storage layer's not-found
// sentinel, so callers outside this package don't import gorm for it.
func IsRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
