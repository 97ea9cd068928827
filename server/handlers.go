// Package server exposes the storage, auth and realtime collaborators over
// HTTP. Handlers are a thin JSON layer: validation happens before any
// storage call, auth failures map to the fixed user-facing message set, and
// everything else is a plain 500 with the wrapped cause logged.
package server

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/unihive/unihive/auth"
	"github.com/unihive/unihive/filestore"
	"github.com/unihive/unihive/live"
	"github.com/unihive/unihive/model"
	"github.com/unihive/unihive/store"
	"github.com/unihive/unihive/utils"
	"github.com/unihive/unihive/utils/log"
)

type Handler struct {
	Store *store.Store
	Auth  *auth.Service
	Files filestore.FileStore
	// ReadStatus mirrors message read markers into Redis. Optional: nil
	// disables mirroring.
	ReadStatus *utils.RedisStatusStore
}

func NewHandler(s *store.Store, a *auth.Service, files filestore.FileStore, readStatus *utils.RedisStatusStore) *Handler {
	return &Handler{Store: s, Auth: a, Files: files, ReadStatus: readStatus}
}

// RegisterRoutes wires every route onto the router. The authed group must
// already carry the JWT middleware so handlers can read the "sub" header.
func (h *Handler) RegisterRoutes(public gin.IRoutes, authed gin.IRoutes) {
	public.POST("/auth/signup", h.Signup)
	public.POST("/auth/login", h.Login)

	authed.POST("/auth/logout", h.Logout)

	authed.GET("/feed", h.ListFeed)
	authed.POST("/posts", h.CreatePost)
	authed.POST("/posts/:id/like", h.LikePost)
	authed.DELETE("/posts/:id/like", h.UnlikePost)
	authed.POST("/posts/:id/comments", h.AddComment)

	authed.GET("/confessions", h.ListConfessions)
	authed.POST("/confessions", h.CreateConfession)
	authed.POST("/confessions/:id/upvote", h.UpvoteConfession)
	authed.DELETE("/confessions/:id/upvote", h.RemoveUpvote)

	authed.GET("/hustles", h.ListHustles)
	authed.POST("/hustles", h.CreateHustle)

	authed.GET("/events", h.ListEvents)
	authed.POST("/events", h.CreateEvent)

	authed.GET("/profiles", h.ListProfiles)
	authed.POST("/profiles/:id/like", h.LikeProfile)

	authed.GET("/stories", h.ListStories)
	authed.POST("/stories", h.CreateStory)
	authed.DELETE("/stories/:id", h.DeleteStory)

	authed.GET("/conversations", h.ListConversations)
	authed.POST("/conversations", h.ResolveConversation)
	authed.GET("/conversations/:id/messages", h.ListMessages)
	authed.POST("/conversations/:id/messages", h.SendMessage)
	authed.POST("/conversations/:id/read", h.MarkRead)
}

func currentUserId(c *gin.Context) string {
	return c.Request.Header.Get("sub")
}

func abortInternal(c *gin.Context, err error) {
	log.Log.Error("request failed: ", err)
	c.JSON(http.StatusInternalServerError, gin.H{"msg": "An unexpected error occurred"})
}

type credentialsInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Nickname string `json:"nickname"`
}

func (h *Handler) Signup(c *gin.Context) {
	var input credentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	user, err := h.Auth.Signup(input.Email, input.Password, input.Nickname)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"msg": auth.UserMessage(err)})
		return
	}

	token, err := h.Auth.IssueToken(user.Id)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (h *Handler) Login(c *gin.Context) {
	var input credentialsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	user, err := h.Auth.Login(input.Email, input.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": auth.UserMessage(err)})
		return
	}

	token, err := h.Auth.IssueToken(user.Id)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (h *Handler) Logout(c *gin.Context) {
	h.Auth.Logout()
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) ListFeed(c *gin.Context) {
	posts, err := h.Store.ListPosts()
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

type createPostInput struct {
	Content  string `json:"content" binding:"required"`
	MediaUrl string `json:"mediaUrl"`
}

func (h *Handler) CreatePost(c *gin.Context) {
	var input createPostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	post, err := h.Store.CreatePost(currentUserId(c), input.Content, input.MediaUrl)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

func (h *Handler) LikePost(c *gin.Context) {
	if err := h.Store.LikePost(c.Param("id"), currentUserId(c)); err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) UnlikePost(c *gin.Context) {
	if err := h.Store.UnlikePost(c.Param("id"), currentUserId(c)); err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

type commentInput struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) AddComment(c *gin.Context) {
	var input commentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	comment, err := h.Store.AddComment(c.Param("id"), currentUserId(c), input.Content)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

func (h *Handler) ListConfessions(c *gin.Context) {
	confessions, err := h.Store.ListConfessions()
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"confessions": confessions})
}

type createConfessionInput struct {
	Content     string `json:"content" binding:"required"`
	IsAnonymous bool   `json:"isAnonymous"`
}

func (h *Handler) CreateConfession(c *gin.Context) {
	var input createConfessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	confession, err := h.Store.CreateConfession(currentUserId(c), input.Content, input.IsAnonymous)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"confession": confession})
}

func (h *Handler) UpvoteConfession(c *gin.Context) {
	if err := h.Store.InsertUpvote(c.Param("id"), currentUserId(c)); err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) RemoveUpvote(c *gin.Context) {
	if err := h.Store.DeleteUpvote(c.Param("id"), currentUserId(c)); err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) ListHustles(c *gin.Context) {
	category := model.HustleCategory(c.Query("category"))
	if category != "" && !category.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "unknown category"})
		return
	}

	hustles, err := h.Store.ListHustles(category)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hustles": hustles})
}

type createHustleInput struct {
	Title        string `json:"title" binding:"required"`
	Description  string `json:"description" binding:"required"`
	Category     string `json:"category" binding:"required"`
	ContactEmail string `json:"contactEmail"`
}

func (h *Handler) CreateHustle(c *gin.Context) {
	var input createHustleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}
	category := model.HustleCategory(input.Category)
	if !category.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "unknown category"})
		return
	}

	hustle := &model.Hustle{
		Title:        input.Title,
		Description:  input.Description,
		Category:     category,
		PostedByID:   currentUserId(c),
		ContactEmail: input.ContactEmail,
	}
	if err := h.Store.CreateHustle(hustle); err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"hustle": hustle})
}

func (h *Handler) ListEvents(c *gin.Context) {
	events, err := h.Store.ListEvents()
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

type createEventInput struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Date        time.Time `json:"date" binding:"required"`
	Location    string    `json:"location"`
	Campus      string    `json:"campus"`
}

func (h *Handler) CreateEvent(c *gin.Context) {
	var input createEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	event := &model.Event{
		Title:       input.Title,
		Description: input.Description,
		Date:        input.Date,
		Location:    input.Location,
		Campus:      input.Campus,
		OrganizerID: currentUserId(c),
	}
	if err := h.Store.CreateEvent(event); err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"event": event})
}

func (h *Handler) ListProfiles(c *gin.Context) {
	profiles, err := h.Store.ListProfiles(currentUserId(c))
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profiles": profiles})
}

func (h *Handler) LikeProfile(c *gin.Context) {
	matched, err := h.Store.LikeProfile(currentUserId(c), c.Param("id"))
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"matched": matched})
}

func (h *Handler) ListStories(c *gin.Context) {
	stories, err := h.Store.ListActiveStories(time.Now())
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

// CreateStory accepts a multipart upload under field "image", stores the
// blob and inserts the story row.
func (h *Handler) CreateStory(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "image file is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		abortInternal(c, err)
		return
	}
	defer src.Close()

	userId := currentUserId(c)
	key := userId + "/" + uuid.New().String() + filepath.Ext(file.Filename)
	url, err := h.Files.Upload(key, src)
	if err != nil {
		abortInternal(c, err)
		return
	}

	story, err := h.Store.CreateStory(userId, key, url)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"story": story})
}

func (h *Handler) DeleteStory(c *gin.Context) {
	story, err := h.Store.GetStory(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"msg": "story not found"})
		return
	}

	if err := h.Store.DeleteStory(story.Id, currentUserId(c)); err != nil {
		if err == store.ErrNotStoryOwner {
			c.JSON(http.StatusForbidden, gin.H{"msg": err.Error()})
			return
		}
		abortInternal(c, err)
		return
	}

	if err := h.Files.Delete(story.ImageKey); err != nil {
		log.Log.Warn("fail to delete story blob: ", err)
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *Handler) ListConversations(c *gin.Context) {
	conversations, err := h.Store.ListConversationsForUser(currentUserId(c))
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

type resolveConversationInput struct {
	OtherUserId string `json:"otherUserId" binding:"required"`
}

func (h *Handler) ResolveConversation(c *gin.Context) {
	var input resolveConversationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	id, err := live.ResolveConversation(h.Store, currentUserId(c), input.OtherUserId)
	if err != nil {
		if live.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
			return
		}
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversationId": id})
}

func (h *Handler) ListMessages(c *gin.Context) {
	conv, err := h.Store.GetConversation(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
		return
	}
	userId := currentUserId(c)
	if conv.User1ID != userId && conv.User2ID != userId {
		c.JSON(http.StatusForbidden, gin.H{"msg": "not a participant"})
		return
	}

	messages, err := h.Store.ListMessages(conv.Id)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type sendMessageInput struct {
	Content string `json:"content" binding:"required"`
}

func (h *Handler) SendMessage(c *gin.Context) {
	var input sendMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"msg": err.Error()})
		return
	}

	content := strings.TrimSpace(input.Content)
	if content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "message must not be empty"})
		return
	}
	if len([]rune(content)) > model.MaxMessageLength {
		c.JSON(http.StatusBadRequest, gin.H{"msg": "message too long"})
		return
	}

	conv, err := h.Store.GetConversation(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"msg": "conversation not found"})
		return
	}
	userId := currentUserId(c)
	if conv.User1ID != userId && conv.User2ID != userId {
		c.JSON(http.StatusForbidden, gin.H{"msg": "not a participant"})
		return
	}

	msg, err := h.Store.CreateMessage(conv.Id, userId, content)
	if err != nil {
		abortInternal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

func (h *Handler) MarkRead(c *gin.Context) {
	userId := currentUserId(c)
	ids, err := h.Store.MarkMessagesRead(c.Param("id"), userId)
	if err != nil {
		abortInternal(c, err)
		return
	}

	if h.ReadStatus != nil && len(ids) > 0 {
		if err := h.ReadStatus.SetItemsReadStatus(ids, userId, true); err != nil {
			log.Log.Warn("fail to mirror read markers to redis: ", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"marked": len(ids)})
}
