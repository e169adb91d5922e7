package rest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"echosphere-client/internal/models"
)

func (c *Client) Servers(ctx context.Context) ([]models.Server, error) {
	var servers []models.Server
	err := c.do(ctx, http.MethodGet, "/servers", nil, &servers)
	return servers, err
}

func (c *Client) CreateServer(ctx context.Context, name string, icon string, description string) (models.Server, error) {
	type createServerRequest struct {
		Name        string `json:"name"`
		Icon        string `json:"icon,omitempty"`
		Description string `json:"description,omitempty"`
	}

	var server models.Server
	err := c.do(ctx, http.MethodPost, "/servers", createServerRequest{Name: name, Icon: icon, Description: description}, &server)
	return server, err
}

func (c *Client) Server(ctx context.Context, serverID string) (models.Server, error) {
	var server models.Server
	err := c.do(ctx, http.MethodGet, "/servers/"+serverID, nil, &server)
	return server, err
}

// JoinServer returns the joined server's id. Backend validation errors
// ("Invalid invite code", "Already a member") come back as *APIError.
func (c *Client) JoinServer(ctx context.Context, inviteCode string) (string, error) {
	var result struct {
		ServerID string `json:"server_id"`
	}
	err := c.do(ctx, http.MethodPost, "/servers/join/"+url.PathEscape(inviteCode), nil, &result)
	return result.ServerID, err
}

func (c *Client) ServerChannels(ctx context.Context, serverID string) ([]models.Channel, error) {
	var channels []models.Channel
	err := c.do(ctx, http.MethodGet, "/servers/"+serverID+"/channels", nil, &channels)
	return channels, err
}

func (c *Client) ServerMembers(ctx context.Context, serverID string) ([]models.User, error) {
	var members []models.User
	err := c.do(ctx, http.MethodGet, "/servers/"+serverID+"/members", nil, &members)
	return members, err
}

func (c *Client) DiscoverServers(ctx context.Context) ([]models.Server, error) {
	var servers []models.Server
	err := c.do(ctx, http.MethodGet, "/discover/servers", nil, &servers)
	return servers, err
}

func (c *Client) CreateChannel(ctx context.Context, name string, channelType string, serverID string, categoryID string) (models.Channel, error) {
	type createChannelRequest struct {
		Name        string `json:"name"`
		ChannelType string `json:"channel_type"`
		ServerID    string `json:"server_id"`
		CategoryID  string `json:"category_id,omitempty"`
	}

	var channel models.Channel
	err := c.do(ctx, http.MethodPost, "/channels", createChannelRequest{
		Name:        name,
		ChannelType: channelType,
		ServerID:    serverID,
		CategoryID:  categoryID,
	}, &channel)
	return channel, err
}

// ChannelMessages returns up to limit messages in ascending created_at
// order, as the backend delivers them.
func (c *Client) ChannelMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	path := "/channels/" + channelID + "/messages"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var messages []models.Message
	err := c.do(ctx, http.MethodGet, path, nil, &messages)
	return messages, err
}

func (c *Client) SendMessage(ctx context.Context, channelID string, content string, attachments []string) (models.Message, error) {
	type sendMessageRequest struct {
		Content     string   `json:"content"`
		ChannelID   string   `json:"channel_id"`
		Attachments []string `json:"attachments"`
	}

	if attachments == nil {
		attachments = []string{}
	}

	var message models.Message
	err := c.do(ctx, http.MethodPost, "/messages", sendMessageRequest{
		Content:     content,
		ChannelID:   channelID,
		Attachments: attachments,
	}, &message)
	return message, err
}

func (c *Client) EditMessage(ctx context.Context, messageID string, content string) (models.Message, error) {
	type editMessageRequest struct {
		Content string `json:"content"`
	}

	var message models.Message
	err := c.do(ctx, http.MethodPut, "/messages/"+messageID, editMessageRequest{Content: content}, &message)
	return message, err
}

func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+messageID, nil, nil)
}

func (c *Client) AddReaction(ctx context.Context, messageID string, emoji string) error {
	return c.do(ctx, http.MethodPost, "/messages/"+messageID+"/reactions/"+url.PathEscape(emoji), nil, nil)
}

func (c *Client) RemoveReaction(ctx context.Context, messageID string, emoji string) error {
	return c.do(ctx, http.MethodDelete, "/messages/"+messageID+"/reactions/"+url.PathEscape(emoji), nil, nil)
}

func (c *Client) DMs(ctx context.Context) ([]models.DMThread, error) {
	var dms []models.DMThread
	err := c.do(ctx, http.MethodGet, "/dms", nil, &dms)
	return dms, err
}

func (c *Client) CreateDM(ctx context.Context, recipientID string) (models.DMThread, error) {
	type createDMRequest struct {
		RecipientID string `json:"recipient_id"`
	}

	var dm models.DMThread
	err := c.do(ctx, http.MethodPost, "/dms", createDMRequest{RecipientID: recipientID}, &dm)
	return dm, err
}

func (c *Client) DMMessages(ctx context.Context, dmID string, limit int) ([]models.DMMessage, error) {
	path := "/dms/" + dmID + "/messages"
	if limit > 0 {
		path += fmt.Sprintf("?limit=%d", limit)
	}

	var messages []models.DMMessage
	err := c.do(ctx, http.MethodGet, path, nil, &messages)
	return messages, err
}

func (c *Client) SendDMMessage(ctx context.Context, dmID string, content string) (models.DMMessage, error) {
	type sendDMMessageRequest struct {
		Content string `json:"content"`
		DMID    string `json:"dm_id"`
	}

	var message models.DMMessage
	err := c.do(ctx, http.MethodPost, "/dms/messages", sendDMMessageRequest{Content: content, DMID: dmID}, &message)
	return message, err
}

func (c *Client) SearchMessages(ctx context.Context, query string, serverID string) ([]models.Message, error) {
	values := url.Values{}
	values.Set("q", query)
	if serverID != "" {
		values.Set("server_id", serverID)
	}

	var messages []models.Message
	err := c.do(ctx, http.MethodGet, "/search/messages?"+values.Encode(), nil, &messages)
	return messages, err
}

func (c *Client) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	values := url.Values{}
	values.Set("q", query)

	var users []models.User
	err := c.do(ctx, http.MethodGet, "/search/users?"+values.Encode(), nil, &users)
	return users, err
}
