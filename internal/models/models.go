package models

import "time"

type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	Banner        string    `json:"banner,omitempty"`
	Bio           string    `json:"bio,omitempty"`
	Status        string    `json:"status,omitempty"`
	Discriminator string    `json:"discriminator,omitempty"`
	Theme         string    `json:"theme,omitempty"`
	IsPremium     bool      `json:"is_premium,omitempty"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
}

// UserStub is the minimal user shape carried inside realtime payloads
// and embedded message authors.
type UserStub struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Avatar        string `json:"avatar,omitempty"`
	Discriminator string `json:"discriminator,omitempty"`
}

type Server struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Banner      string    `json:"banner,omitempty"`
	OwnerID     string    `json:"owner_id"`
	InviteCode  string    `json:"invite_code,omitempty"`
	MemberCount int       `json:"member_count,omitempty"`
	BoostCount  int       `json:"boost_count,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

const (
	ChannelText         = "text"
	ChannelVoice        = "voice"
	ChannelVideo        = "video"
	ChannelAnnouncement = "announcement"
)

type Channel struct {
	ID          string    `json:"id"`
	ServerID    string    `json:"server_id"`
	CategoryID  string    `json:"category_id,omitempty"`
	Name        string    `json:"name"`
	ChannelType string    `json:"channel_type"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

// Message mirrors the backend message document. Reactions map an emoji to
// the user ids that reacted with it; ids are unique per emoji.
type Message struct {
	ID          string              `json:"id"`
	ChannelID   string              `json:"channel_id"`
	AuthorID    string              `json:"author_id"`
	Author      UserStub            `json:"author,omitzero"`
	Content     string              `json:"content"`
	Attachments []string            `json:"attachments,omitempty"`
	Reactions   map[string][]string `json:"reactions,omitempty"`
	CreatedAt   time.Time           `json:"created_at,omitzero"`
	EditedAt    *time.Time          `json:"edited_at,omitempty"`
}

type DMThread struct {
	ID               string     `json:"id"`
	Participants     []string   `json:"participants"`
	ParticipantsInfo []UserStub `json:"participants_info,omitempty"`
	LastMessage      *DMMessage `json:"last_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at,omitzero"`
}

type DMMessage struct {
	ID        string    `json:"id"`
	DMID      string    `json:"dm_id"`
	AuthorID  string    `json:"author_id"`
	Author    UserStub  `json:"author,omitzero"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type Reel struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	VideoURL      string    `json:"video_url"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	AuthorID      string    `json:"author_id"`
	Author        UserStub  `json:"author,omitzero"`
	LikesCount    int       `json:"likes_count"`
	IsLiked       bool      `json:"is_liked"`
	Views         int       `json:"views"`
	CommentsCount int       `json:"comments_count"`
	CreatedAt     time.Time `json:"created_at,omitzero"`
}

type ReelComment struct {
	ID        string    `json:"id"`
	ReelID    string    `json:"reel_id"`
	AuthorID  string    `json:"author_id"`
	Author    UserStub  `json:"author,omitzero"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type ForumCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

type ForumPost struct {
	ID         string    `json:"id"`
	CategoryID string    `json:"category_id"`
	AuthorID   string    `json:"author_id"`
	Author     UserStub  `json:"author,omitzero"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Replies    int       `json:"replies_count,omitempty"`
	Views      int       `json:"views,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
}

type ForumReply struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Author    UserStub  `json:"author,omitzero"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Category    string    `json:"category,omitempty"`
	Images      []string  `json:"images,omitempty"`
	FileURL     string    `json:"file_url,omitempty"`
	SellerID    string    `json:"seller_id"`
	Seller      UserStub  `json:"seller,omitzero"`
	SalesCount  int       `json:"sales_count"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
}

type StudioProject struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	ProjectType string    `json:"project_type"`
	OwnerID     string    `json:"owner_id"`
	IsPublic    bool      `json:"is_public"`
	Plays       int       `json:"plays"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

type StudioTemplate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Category    string `json:"category,omitempty"`
}
