package store

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/unihive/unihive/model"
	"gorm.io/gorm"
)

// ListPosts returns the global feed newest first. Author nicknames are not
// joined here - the feed layer denormalizes them client-side from
// NicknamesByIds.
func (s *Store) ListPosts() ([]*model.Post, error) {
	var posts []*model.Post
	if err := s.DB.Order("created_at desc").Find(&posts).Error; err != nil {
		return nil, errors.Wrap(err, "fail to list posts")
	}
	return posts, nil
}

// CreatePost inserts a feed post and publishes its insert event.
func (s *Store) CreatePost(authorId string, content string, mediaUrl string) (*model.Post, error) {
	post := &model.Post{
		Id:       uuid.New().String(),
		AuthorID: authorId,
		Content:  content,
		MediaUrl: mediaUrl,
	}
	if err := s.DB.Create(post).Error; err != nil {
		return nil, errors.Wrap(err, "fail to create post")
	}

	s.publish(model.TablePosts, model.ChangeTypeInsert, post)
	return post, nil
}

// HasLikedPost reports whether the user holds a like on the post. The join
// row is the source of truth, LikesCount is only its projection.
func (s *Store) HasLikedPost(postId string, userId string) (bool, error) {
	var count int64
	err := s.DB.Model(&model.PostLike{}).
		Where("post_id = ? AND user_id = ?", postId, userId).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "fail to check post like")
	}
	return count > 0, nil
}

// LikedPostIds returns, out of postIds, the set the user has liked. One
// query instead of one per post when hydrating a feed.
func (s *Store) LikedPostIds(userId string, postIds []string) (map[string]bool, error) {
	liked := map[string]bool{}
	if len(postIds) == 0 {
		return liked, nil
	}

	var likes []model.PostLike
	err := s.DB.
		Where("user_id = ? AND post_id IN ?", userId, postIds).
		Find(&likes).Error
	if err != nil {
		return nil, errors.Wrap(err, "fail to load likes")
	}
	for _, l := range likes {
		liked[l.PostID] = true
	}
	return liked, nil
}

// LikePost inserts the like join row and bumps the denormalized counter in
// one transaction, then publishes an update event for the post.
func (s *Store) LikePost(postId string, userId string) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.PostLike{PostID: postId, UserID: userId}).Error; err != nil {
			return err
		}
		return tx.Model(&model.Post{}).
			Where("id = ?", postId).
			Update("likes_count", gorm.Expr("likes_count + 1")).Error
	})
	if err != nil {
		return errors.Wrap(err, "fail to like post")
	}

	var post model.Post
	if err := s.DB.Where("id = ?", postId).First(&post).Error; err == nil {
		s.publish(model.TablePosts, model.ChangeTypeUpdate, &post)
	}
	return nil
}

// UnlikePost removes the like join row and decrements the counter, then
// publishes an update event for the post.
func (s *Store) UnlikePost(postId string, userId string) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postId, userId).Delete(&model.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// No like to remove, leave the counter untouched.
			return nil
		}
		return tx.Model(&model.Post{}).
			Where("id = ?", postId).
			Update("likes_count", gorm.Expr("likes_count - 1")).Error
	})
	if err != nil {
		return errors.Wrap(err, "fail to unlike post")
	}

	var post model.Post
	if err := s.DB.Where("id = ?", postId).First(&post).Error; err == nil {
		s.publish(model.TablePosts, model.ChangeTypeUpdate, &post)
	}
	return nil
}

// AddComment inserts a comment, bumps the post's comment counter and
// publishes an update event for the post.
func (s *Store) AddComment(postId string, authorId string, content string) (*model.Comment, error) {
	comment := &model.Comment{
		Id:       uuid.New().String(),
		PostID:   postId,
		AuthorID: authorId,
		Content:  content,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&model.Post{}).
			Where("id = ?", postId).
			Update("comments_count", gorm.Expr("comments_count + 1")).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "fail to add comment")
	}

	var post model.Post
	if err := s.DB.Where("id = ?", postId).First(&post).Error; err == nil {
		s.publish(model.TablePosts, model.ChangeTypeUpdate, &post)
	}
	return comment, nil
}
