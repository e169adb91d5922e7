package echotest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"echosphere-client/internal/models"
)

// seedSocial plants the fixed rows the backend ships with, so list
// endpoints have something to return before a test creates anything.
func (s *Server) seedSocial() {
	s.forumCategories = []models.ForumCategory{
		{ID: uuid.NewString(), Name: "General Discussion", Description: "Talk about anything", Color: "#5865f2", Icon: "chat", CreatedAt: time.Now().UTC()},
		{ID: uuid.NewString(), Name: "Support", Description: "Get help", Color: "#57f287", Icon: "lifebuoy", CreatedAt: time.Now().UTC()},
	}
	s.studioTemplates = []models.StudioTemplate{
		{ID: uuid.NewString(), Name: "Blank Game", Description: "Start from scratch", Category: "game"},
		{ID: uuid.NewString(), Name: "Platformer Starter", Description: "A side-scroller skeleton", Category: "game"},
	}
}

func (s *Server) handleGetUserProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	s.mutex.Lock()
	user, ok := s.users[userID]
	s.mutex.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleFollowUser(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")
	userID := userFrom(r.Context()).ID

	if targetID == userID {
		writeDetail(w, http.StatusBadRequest, "Cannot follow yourself")
		return
	}

	s.mutex.Lock()
	if _, ok := s.users[targetID]; !ok {
		s.mutex.Unlock()
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if s.followers[targetID] == nil {
		s.followers[targetID] = make(map[string]bool)
	}
	s.followers[targetID][userID] = true
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Followed"})
}

func (s *Server) handleUnfollowUser(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userID")
	userID := userFrom(r.Context()).ID

	s.mutex.Lock()
	delete(s.followers[targetID], userID)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Unfollowed"})
}

// Followers reports who follows the given user. Test-side helper.
func (s *Server) Followers(userID string) []string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	ids := []string{}
	for id := range s.followers[userID] {
		ids = append(ids, id)
	}
	return ids
}

func (s *Server) handleListReels(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context()).ID
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	if limit <= 0 {
		limit = 20
	}

	s.mutex.Lock()
	reels := []models.Reel{}
	for i := skip; i < len(s.reels) && len(reels) < limit; i++ {
		reel := s.reels[i]
		reel.IsLiked = s.reelLikes[reel.ID][userID]
		reels = append(reels, reel)
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, reels)
}

func (s *Server) handleCreateReel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title        string `json:"title"`
		Description  string `json:"description"`
		VideoURL     string `json:"video_url"`
		ThumbnailURL string `json:"thumbnail_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	user := userFrom(r.Context())
	reel := models.Reel{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		AuthorID:     user.ID,
		Author:       stub(user),
		CreatedAt:    time.Now().UTC(),
	}

	s.mutex.Lock()
	s.reels = append(s.reels, reel)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, reel)
}

func (s *Server) handleGetReel(w http.ResponseWriter, r *http.Request) {
	reelID := chi.URLParam(r, "reelID")
	userID := userFrom(r.Context()).ID

	s.mutex.Lock()
	for i := range s.reels {
		if s.reels[i].ID != reelID {
			continue
		}
		// fetching a reel counts as a view
		s.reels[i].Views++
		reel := s.reels[i]
		reel.IsLiked = s.reelLikes[reelID][userID]
		s.mutex.Unlock()
		writeJSON(w, http.StatusOK, reel)
		return
	}
	s.mutex.Unlock()
	writeDetail(w, http.StatusNotFound, "Reel not found")
}

func (s *Server) handleLikeReel(w http.ResponseWriter, r *http.Request) {
	reelID := chi.URLParam(r, "reelID")
	userID := userFrom(r.Context()).ID

	s.mutex.Lock()
	for i := range s.reels {
		if s.reels[i].ID != reelID {
			continue
		}
		if s.reelLikes[reelID] == nil {
			s.reelLikes[reelID] = make(map[string]bool)
		}
		liked := !s.reelLikes[reelID][userID]
		if liked {
			s.reelLikes[reelID][userID] = true
		} else {
			delete(s.reelLikes[reelID], userID)
		}
		s.reels[i].LikesCount = len(s.reelLikes[reelID])
		s.mutex.Unlock()
		writeJSON(w, http.StatusOK, map[string]bool{"liked": liked})
		return
	}
	s.mutex.Unlock()
	writeDetail(w, http.StatusNotFound, "Reel not found")
}

func (s *Server) handleListReelComments(w http.ResponseWriter, r *http.Request) {
	reelID := chi.URLParam(r, "reelID")

	s.mutex.Lock()
	comments := []models.ReelComment{}
	for _, comment := range s.reelComments {
		if comment.ReelID == reelID {
			comments = append(comments, comment)
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleCreateReelComment(w http.ResponseWriter, r *http.Request) {
	reelID := chi.URLParam(r, "reelID")
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	user := userFrom(r.Context())
	comment := models.ReelComment{
		ID:        uuid.NewString(),
		ReelID:    reelID,
		AuthorID:  user.ID,
		Author:    stub(user),
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}

	s.mutex.Lock()
	s.reelComments = append(s.reelComments, comment)
	for i := range s.reels {
		if s.reels[i].ID == reelID {
			s.reels[i].CommentsCount++
			break
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) handleListForumCategories(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	categories := append([]models.ForumCategory{}, s.forumCategories...)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleListForumPosts(w http.ResponseWriter, r *http.Request) {
	categoryID := r.URL.Query().Get("category_id")

	s.mutex.Lock()
	posts := []models.ForumPost{}
	for _, post := range s.forumPosts {
		if categoryID == "" || post.CategoryID == categoryID {
			posts = append(posts, post)
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) handleCreateForumPost(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CategoryID string `json:"category_id"`
		Title      string `json:"title"`
		Content    string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	user := userFrom(r.Context())
	post := models.ForumPost{
		ID:         uuid.NewString(),
		CategoryID: req.CategoryID,
		AuthorID:   user.ID,
		Author:     stub(user),
		Title:      req.Title,
		Content:    req.Content,
		CreatedAt:  time.Now().UTC(),
	}

	s.mutex.Lock()
	s.forumPosts = append(s.forumPosts, post)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, post)
}

func (s *Server) handleGetForumPost(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	s.mutex.Lock()
	for i := range s.forumPosts {
		if s.forumPosts[i].ID != postID {
			continue
		}
		s.forumPosts[i].Views++
		post := s.forumPosts[i]
		s.mutex.Unlock()
		writeJSON(w, http.StatusOK, post)
		return
	}
	s.mutex.Unlock()
	writeDetail(w, http.StatusNotFound, "Post not found")
}

func (s *Server) handleListForumReplies(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")

	s.mutex.Lock()
	replies := []models.ForumReply{}
	for _, reply := range s.forumReplies {
		if reply.PostID == postID {
			replies = append(replies, reply)
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, replies)
}

func (s *Server) handleCreateForumReply(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	user := userFrom(r.Context())
	reply := models.ForumReply{
		ID:        uuid.NewString(),
		PostID:    postID,
		AuthorID:  user.ID,
		Author:    stub(user),
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}

	s.mutex.Lock()
	s.forumReplies = append(s.forumReplies, reply)
	for i := range s.forumPosts {
		if s.forumPosts[i].ID == postID {
			s.forumPosts[i].Replies++
			break
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	s.mutex.Lock()
	products := []models.Product{}
	for _, product := range s.products {
		if category == "" || product.Category == category {
			products = append(products, product)
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, products)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Price       float64  `json:"price"`
		Category    string   `json:"category"`
		Images      []string `json:"images"`
		FileURL     string   `json:"file_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	user := userFrom(r.Context())
	product := models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Images:      req.Images,
		FileURL:     req.FileURL,
		SellerID:    user.ID,
		Seller:      stub(user),
		CreatedAt:   time.Now().UTC(),
	}

	s.mutex.Lock()
	s.products = append(s.products, product)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, product)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")

	s.mutex.Lock()
	for _, product := range s.products {
		if product.ID == productID {
			s.mutex.Unlock()
			writeJSON(w, http.StatusOK, product)
			return
		}
	}
	s.mutex.Unlock()
	writeDetail(w, http.StatusNotFound, "Product not found")
}

func (s *Server) handleListStudioProjects(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context()).ID

	s.mutex.Lock()
	projects := []models.StudioProject{}
	for _, project := range s.studioProjects {
		if project.OwnerID == userID {
			projects = append(projects, project)
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleCreateStudioProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Thumbnail   string `json:"thumbnail"`
		ProjectType string `json:"project_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	now := time.Now().UTC()
	project := models.StudioProject{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		ProjectType: req.ProjectType,
		OwnerID:     userFrom(r.Context()).ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mutex.Lock()
	s.studioProjects = append(s.studioProjects, project)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleListStudioTemplates(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	templates := append([]models.StudioTemplate{}, s.studioTemplates...)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, templates)
}
