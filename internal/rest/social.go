package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"echosphere-client/internal/models"
)

func (c *Client) UserProfile(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := c.do(ctx, http.MethodGet, "/users/"+userID, nil, &user)
	return user, err
}

func (c *Client) FollowUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodPost, "/users/"+userID+"/follow", nil, nil)
}

func (c *Client) UnfollowUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/users/"+userID+"/follow", nil, nil)
}

func (c *Client) CreateReel(ctx context.Context, title string, description string, videoURL string, thumbnailURL string) (models.Reel, error) {
	type createReelRequest struct {
		Title        string `json:"title"`
		Description  string `json:"description,omitempty"`
		VideoURL     string `json:"video_url"`
		ThumbnailURL string `json:"thumbnail_url,omitempty"`
	}

	var reel models.Reel
	err := c.do(ctx, http.MethodPost, "/reels", createReelRequest{
		Title:        title,
		Description:  description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
	}, &reel)
	return reel, err
}

func (c *Client) Reels(ctx context.Context, limit int, skip int) ([]models.Reel, error) {
	var reels []models.Reel
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/reels?limit=%d&skip=%d", limit, skip), nil, &reels)
	return reels, err
}

// Reel fetches a single reel; the backend counts the fetch as a view.
func (c *Client) Reel(ctx context.Context, reelID string) (models.Reel, error) {
	var reel models.Reel
	err := c.do(ctx, http.MethodGet, "/reels/"+reelID, nil, &reel)
	return reel, err
}

// LikeReel is a server-side toggle; the response says which way it went.
func (c *Client) LikeReel(ctx context.Context, reelID string) (bool, error) {
	var result struct {
		Liked bool `json:"liked"`
	}
	err := c.do(ctx, http.MethodPost, "/reels/"+reelID+"/like", nil, &result)
	return result.Liked, err
}

func (c *Client) ReelComments(ctx context.Context, reelID string) ([]models.ReelComment, error) {
	var comments []models.ReelComment
	err := c.do(ctx, http.MethodGet, "/reels/"+reelID+"/comments", nil, &comments)
	return comments, err
}

func (c *Client) CommentReel(ctx context.Context, reelID string, content string) (models.ReelComment, error) {
	type commentRequest struct {
		Content string `json:"content"`
	}

	var comment models.ReelComment
	err := c.do(ctx, http.MethodPost, "/reels/"+reelID+"/comments", commentRequest{Content: content}, &comment)
	return comment, err
}

func (c *Client) ForumCategories(ctx context.Context) ([]models.ForumCategory, error) {
	var categories []models.ForumCategory
	err := c.do(ctx, http.MethodGet, "/forum/categories", nil, &categories)
	return categories, err
}

func (c *Client) ForumPosts(ctx context.Context, categoryID string) ([]models.ForumPost, error) {
	path := "/forum/posts"
	if categoryID != "" {
		path += "?category_id=" + url.QueryEscape(categoryID)
	}

	var posts []models.ForumPost
	err := c.do(ctx, http.MethodGet, path, nil, &posts)
	return posts, err
}

func (c *Client) CreateForumPost(ctx context.Context, categoryID string, title string, content string) (models.ForumPost, error) {
	type createPostRequest struct {
		CategoryID string `json:"category_id"`
		Title      string `json:"title"`
		Content    string `json:"content"`
	}

	var post models.ForumPost
	err := c.do(ctx, http.MethodPost, "/forum/posts", createPostRequest{
		CategoryID: categoryID,
		Title:      title,
		Content:    content,
	}, &post)
	return post, err
}

func (c *Client) ForumPost(ctx context.Context, postID string) (models.ForumPost, error) {
	var post models.ForumPost
	err := c.do(ctx, http.MethodGet, "/forum/posts/"+postID, nil, &post)
	return post, err
}

func (c *Client) ForumReplies(ctx context.Context, postID string) ([]models.ForumReply, error) {
	var replies []models.ForumReply
	err := c.do(ctx, http.MethodGet, "/forum/posts/"+postID+"/replies", nil, &replies)
	return replies, err
}

func (c *Client) ReplyForumPost(ctx context.Context, postID string, content string) (models.ForumReply, error) {
	type replyRequest struct {
		Content string `json:"content"`
	}

	var reply models.ForumReply
	err := c.do(ctx, http.MethodPost, "/forum/posts/"+postID+"/replies", replyRequest{Content: content}, &reply)
	return reply, err
}

func (c *Client) Products(ctx context.Context, category string) ([]models.Product, error) {
	path := "/marketplace/products"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}

	var products []models.Product
	err := c.do(ctx, http.MethodGet, path, nil, &products)
	return products, err
}

func (c *Client) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	type createProductRequest struct {
		Name        string   `json:"name"`
		Description string   `json:"description,omitempty"`
		Price       float64  `json:"price"`
		Category    string   `json:"category,omitempty"`
		Images      []string `json:"images,omitempty"`
		FileURL     string   `json:"file_url,omitempty"`
	}

	var created models.Product
	err := c.do(ctx, http.MethodPost, "/marketplace/products", createProductRequest{
		Name:        product.Name,
		Description: product.Description,
		Price:       product.Price,
		Category:    product.Category,
		Images:      product.Images,
		FileURL:     product.FileURL,
	}, &created)
	return created, err
}

func (c *Client) Product(ctx context.Context, productID string) (models.Product, error) {
	var product models.Product
	err := c.do(ctx, http.MethodGet, "/marketplace/products/"+productID, nil, &product)
	return product, err
}

func (c *Client) StudioProjects(ctx context.Context) ([]models.StudioProject, error) {
	var projects []models.StudioProject
	err := c.do(ctx, http.MethodGet, "/studio/projects", nil, &projects)
	return projects, err
}

func (c *Client) CreateStudioProject(ctx context.Context, name string, description string, thumbnail string, projectType string) (models.StudioProject, error) {
	type createProjectRequest struct {
		Name        string `json:"name"`
		Description string `json:"description,omitempty"`
		Thumbnail   string `json:"thumbnail,omitempty"`
		ProjectType string `json:"project_type"`
	}

	var project models.StudioProject
	err := c.do(ctx, http.MethodPost, "/studio/projects", createProjectRequest{
		Name:        name,
		Description: description,
		Thumbnail:   thumbnail,
		ProjectType: projectType,
	}, &project)
	return project, err
}

func (c *Client) StudioTemplates(ctx context.Context) ([]models.StudioTemplate, error) {
	var templates []models.StudioTemplate
	err := c.do(ctx, http.MethodGet, "/studio/templates", nil, &templates)
	return templates, err
}
