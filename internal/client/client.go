// Package client is the reconciler: it merges REST responses and realtime
// pushes into one local store. Every mutation of the store goes through
// here, so the whole view model can be driven in tests without any UI.
package client

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"echosphere-client/internal/gateway"
	"echosphere-client/internal/models"
	"echosphere-client/internal/rest"
	"echosphere-client/internal/store"
)

type Client struct {
	rest    *rest.Client
	store   *store.Store
	gateway *gateway.Gateway
	sugar   *zap.SugaredLogger

	mutex sync.RWMutex
	self  models.UserStub

	sub *gateway.Subscription
}

func New(restClient *rest.Client, st *store.Store, gw *gateway.Gateway, sugar *zap.SugaredLogger) *Client {
	c := &Client{
		rest:    restClient,
		store:   st,
		gateway: gw,
		sugar:   sugar,
	}
	c.sub = gw.Subscribe(c.handleEvent)
	return c
}

// Close deregisters the realtime handler. The store keeps whatever state
// it had.
func (c *Client) Close() {
	c.sub.Close()
}

// SetSelf tells the reconciler who the authenticated user is; the stub is
// attached to typing and voice intents and drives the reaction toggle.
func (c *Client) SetSelf(self models.UserStub) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.self = self
}

func (c *Client) Self() models.UserStub {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.self
}

func (c *Client) Store() *store.Store {
	return c.store
}

// handleEvent merges one pushed event into the store. Unknown events are
// ignored so newer backends stay compatible.
func (c *Client) handleEvent(ev models.Event) {
	switch ev.Event {
	case models.NewMessage:
		var message models.Message
		if err := json.Unmarshal(ev.Data, &message); err != nil {
			c.sugar.Debugf("bad %s payload: %v", ev.Event, err)
			return
		}
		c.store.AppendMessage(message)

	case models.NewDMMessage:
		var message models.DMMessage
		if err := json.Unmarshal(ev.Data, &message); err != nil {
			c.sugar.Debugf("bad %s payload: %v", ev.Event, err)
			return
		}
		c.store.AppendDMMessage(message)

	case models.UserTyping, models.UserStoppedTyping:
		var presence models.Presence
		if err := json.Unmarshal(ev.Data, &presence); err != nil {
			c.sugar.Debugf("bad %s payload: %v", ev.Event, err)
			return
		}
		c.store.SetTyping(presence.ChannelID, presence.User, ev.Event == models.UserTyping)

	case models.VoiceUserJoined, models.VoiceUserLeft:
		var presence models.Presence
		if err := json.Unmarshal(ev.Data, &presence); err != nil {
			c.sugar.Debugf("bad %s payload: %v", ev.Event, err)
			return
		}
		c.store.SetVoice(presence.ChannelID, presence.User, ev.Event == models.VoiceUserJoined)

	default:
		c.sugar.Debugf("ignoring event %q", ev.Event)
	}
}

// Collection fetches replace local state wholesale. Two in-flight fetches
// for the same collection resolve last-write-wins; there is no sequencing
// token.

func (c *Client) FetchServers(ctx context.Context) error {
	servers, err := c.rest.Servers(ctx)
	if err != nil {
		return err
	}
	c.store.SetServers(servers)
	return nil
}

func (c *Client) FetchChannels(ctx context.Context, serverID string) error {
	channels, err := c.rest.ServerChannels(ctx, serverID)
	if err != nil {
		return err
	}
	c.store.SetChannels(channels)
	return nil
}

func (c *Client) FetchMessages(ctx context.Context, channelID string) error {
	messages, err := c.rest.ChannelMessages(ctx, channelID, 0)
	if err != nil {
		return err
	}
	c.store.SetMessages(messages)
	return nil
}

func (c *Client) FetchMembers(ctx context.Context, serverID string) error {
	members, err := c.rest.ServerMembers(ctx, serverID)
	if err != nil {
		return err
	}
	c.store.SetMembers(members)
	return nil
}

func (c *Client) FetchDMs(ctx context.Context) error {
	dms, err := c.rest.DMs(ctx)
	if err != nil {
		return err
	}
	c.store.SetDMs(dms)
	return nil
}

func (c *Client) FetchDMMessages(ctx context.Context, dmID string) error {
	messages, err := c.rest.DMMessages(ctx, dmID, 0)
	if err != nil {
		return err
	}
	c.store.SetDMMessages(messages)
	return nil
}

// OpenServer selects a server and loads its channels and members. When no
// channel is selected yet the first text channel is opened automatically,
// matching what a fresh view does.
func (c *Client) OpenServer(ctx context.Context, server models.Server) error {
	c.store.SetCurrentServer(&server)

	if err := c.FetchChannels(ctx, server.ID); err != nil {
		return err
	}
	if err := c.FetchMembers(ctx, server.ID); err != nil {
		return err
	}

	if c.store.CurrentChannel() == nil {
		for _, channel := range c.store.Channels() {
			if channel.ChannelType == models.ChannelText {
				return c.OpenChannel(ctx, channel)
			}
		}
	}
	return nil
}

// OpenChannel selects the channel, loads its history, and announces the
// subscription over the realtime channel (best effort).
func (c *Client) OpenChannel(ctx context.Context, channel models.Channel) error {
	if prev := c.store.CurrentChannel(); prev != nil && prev.ID != channel.ID {
		c.gateway.SendIntent(models.LeaveChannel, models.Intent{ChannelID: prev.ID})
	}

	c.store.SetCurrentChannel(&channel)
	if err := c.FetchMessages(ctx, channel.ID); err != nil {
		return err
	}
	c.gateway.SendIntent(models.JoinChannel, models.Intent{ChannelID: channel.ID})
	return nil
}

func (c *Client) OpenDM(ctx context.Context, dm models.DMThread) error {
	c.store.SetCurrentDM(&dm)
	if err := c.FetchDMMessages(ctx, dm.ID); err != nil {
		return err
	}
	c.gateway.SendIntent(models.JoinDM, models.Intent{DMID: dm.ID})
	return nil
}

func (c *Client) CreateServer(ctx context.Context, name string, icon string, description string) (models.Server, error) {
	server, err := c.rest.CreateServer(ctx, name, icon, description)
	if err != nil {
		return models.Server{}, err
	}
	c.store.AddServer(server)
	return server, nil
}

func (c *Client) JoinServer(ctx context.Context, inviteCode string) error {
	if _, err := c.rest.JoinServer(ctx, inviteCode); err != nil {
		return err
	}
	return c.FetchServers(ctx)
}

func (c *Client) CreateChannel(ctx context.Context, name string, channelType string, serverID string, categoryID string) (models.Channel, error) {
	channel, err := c.rest.CreateChannel(ctx, name, channelType, serverID, categoryID)
	if err != nil {
		return models.Channel{}, err
	}
	c.store.AddChannel(channel)
	return channel, nil
}

// SendMessage is the confirmed-optimistic path: the REST write is the
// durable one, the local append happens only after it succeeds. A pushed
// echo of the same message would appear as a second entry with the same id.
func (c *Client) SendMessage(ctx context.Context, channelID string, content string, attachments []string) (models.Message, error) {
	message, err := c.rest.SendMessage(ctx, channelID, content, attachments)
	if err != nil {
		return models.Message{}, err
	}
	c.store.AppendMessage(message)
	return message, nil
}

func (c *Client) EditMessage(ctx context.Context, messageID string, content string) error {
	message, err := c.rest.EditMessage(ctx, messageID, content)
	if err != nil {
		return err
	}
	c.store.ReplaceMessage(message)
	return nil
}

func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	if err := c.rest.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	c.store.RemoveMessage(messageID)
	return nil
}

func (c *Client) SendDMMessage(ctx context.Context, dmID string, content string) (models.DMMessage, error) {
	message, err := c.rest.SendDMMessage(ctx, dmID, content)
	if err != nil {
		return models.DMMessage{}, err
	}
	c.store.AppendDMMessage(message)
	return message, nil
}

func (c *Client) CreateDM(ctx context.Context, recipientID string) (models.DMThread, error) {
	dm, err := c.rest.CreateDM(ctx, recipientID)
	if err != nil {
		return models.DMThread{}, err
	}
	if err := c.FetchDMs(ctx); err != nil {
		return models.DMThread{}, err
	}
	return dm, nil
}

// ToggleReaction decides add vs remove from the local membership of the
// current user in the emoji's user set. That is a guess about server state
// and loses to concurrent remote toggles (last write wins server-side);
// the next full message fetch resyncs.
func (c *Client) ToggleReaction(ctx context.Context, messageID string, emoji string) error {
	self := c.Self()

	if c.store.HasReaction(messageID, emoji, self.ID) {
		if err := c.rest.RemoveReaction(ctx, messageID, emoji); err != nil {
			return err
		}
		c.store.SetReaction(messageID, emoji, self.ID, false)
		return nil
	}

	if err := c.rest.AddReaction(ctx, messageID, emoji); err != nil {
		return err
	}
	c.store.SetReaction(messageID, emoji, self.ID, true)
	return nil
}

// Typing and voice intents are pure fire-and-forget; nothing is mirrored
// locally for the sender, presence maps fill in from pushed events only.

func (c *Client) StartTyping(channelID string) {
	self := c.Self()
	c.gateway.SendIntent(models.TypingStart, models.Intent{ChannelID: channelID, User: &self})
}

func (c *Client) StopTyping(channelID string) {
	self := c.Self()
	c.gateway.SendIntent(models.TypingStop, models.Intent{ChannelID: channelID, User: &self})
}

func (c *Client) JoinVoice(channelID string) {
	self := c.Self()
	c.gateway.SendIntent(models.VoiceJoin, models.Intent{ChannelID: channelID, User: &self})
}

func (c *Client) LeaveVoice(channelID string) {
	self := c.Self()
	c.gateway.SendIntent(models.VoiceLeave, models.Intent{ChannelID: channelID, User: &self})
}
