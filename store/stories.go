package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/unihive/unihive/model"
)

// ListActiveStories returns stories whose expiry is still in the future,
// newest first. Expiry is purely a read filter: expired rows stay on disk
// and simply stop matching.
func (s *Store) ListActiveStories(now time.Time) ([]*model.Story, error) {
	var stories []*model.Story
	err := s.DB.
		Where("expires_at > ?", now).
		Order("created_at desc").
		Find(&stories).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to list stories")
	}
	return stories, nil
}

// CreateStory inserts a story row with expiry now + StoryTTL and publishes
// its insert event. The image must already be uploaded; imageKey and
// imageUrl come from the blob store.
func (s *Store) CreateStory(ownerId string, imageKey string, imageUrl string) (*model.Story, error) {
	story := &model.Story{
		Id:        uuid.New().String(),
		OwnerID:   ownerId,
		ImageKey:  imageKey,
		ImageUrl:  imageUrl,
		ExpiresAt: time.Now().Add(model.StoryTTL),
	}
	if err := s.DB.Create(story).Error; err != nil {
		return nil, errors.Wrap(err, "fail to create story")
	}

	s.publish(model.TableStories, model.ChangeTypeInsert, story)
	return story, nil
}

// GetStory returns a story by id regardless of expiry.
func (s *Store) GetStory(id string) (*model.Story, error) {
	var story model.Story
	if err := s.DB.Where("id = ?", id).First(&story).Error; err != nil {
		return nil, err
	}
	return &story, nil
}

// ErrNotStoryOwner is returned when a delete is attempted by anyone but the
// story's owner.
var ErrNotStoryOwner = errors.New("only the story owner can delete it")

// DeleteStory removes a story owned by ownerId and publishes the delete
// event carrying the row's last state.
func (s *Store) DeleteStory(storyId string, ownerId string) error {
	var story model.Story
	if err := s.DB.Where("id = ?", storyId).First(&story).Error; err != nil {
		return err
	}
	if story.OwnerID != ownerId {
		return ErrNotStoryOwner
	}

	if err := s.DB.Delete(&model.Story{}, "id = ?", storyId).Error; err != nil {
		return errors.Wrap(err, "fail to delete story")
	}

	s.publish(model.TableStories, model.ChangeTypeDelete, &story)
	return nil
}
