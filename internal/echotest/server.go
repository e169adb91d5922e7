// Package echotest runs an in-process EchoSphere backend with an
// in-memory database, enough of the /api surface for the client to talk
// to, and a realtime channel (websocket plus a long-polling fallback)
// that fans pushed events out to connected clients. Tests drive the real
// client against it instead of mocking transport internals.
package echotest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"echosphere-client/internal/models"
)

var jwtSecret = []byte("echotest-secret")

type Server struct {
	httpServer *httptest.Server

	mutex      sync.Mutex
	users      map[string]models.User   // by id
	passwords  map[string]string        // email -> password
	emailIndex map[string]string        // email -> user id
	servers    map[string]models.Server // by id
	members    map[string][]string      // server id -> user ids
	invites    map[string]string        // invite code -> server id
	channels   []models.Channel
	messages   []models.Message
	dms        []models.DMThread
	dmMessages []models.DMMessage

	followers       map[string]map[string]bool // user id -> follower ids
	reels           []models.Reel
	reelLikes       map[string]map[string]bool // reel id -> user ids
	reelComments    []models.ReelComment
	forumCategories []models.ForumCategory
	forumPosts      []models.ForumPost
	forumReplies    []models.ForumReply
	products        []models.Product
	studioProjects  []models.StudioProject
	studioTemplates []models.StudioTemplate

	// DisableWebsocket makes /ws refuse the upgrade so clients exercise
	// the polling fallback.
	DisableWebsocket bool

	conns    map[*wsConn]struct{}
	sessions map[string]*pollSession
}

func NewServer(t *testing.T) *Server {
	s := &Server{
		users:      make(map[string]models.User),
		passwords:  make(map[string]string),
		emailIndex: make(map[string]string),
		servers:    make(map[string]models.Server),
		members:    make(map[string][]string),
		invites:    make(map[string]string),
		followers:  make(map[string]map[string]bool),
		reelLikes:  make(map[string]map[string]bool),
		conns:      make(map[*wsConn]struct{}),
		sessions:   make(map[string]*pollSession),
	}
	s.seedSocial()

	r := chi.NewRouter()

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/signup", s.handleSignup)
		api.Post("/auth/login", s.handleLogin)

		api.Group(func(r chi.Router) {
			r.Use(s.userVerifier)

			r.Get("/auth/me", s.handleMe)
			r.Put("/auth/profile", s.handleUpdateProfile)

			r.Get("/servers", s.handleListServers)
			r.Post("/servers", s.handleCreateServer)
			r.Post("/servers/join/{inviteCode}", s.handleJoinServer)
			r.Get("/servers/{serverID}", s.handleGetServer)
			r.Get("/servers/{serverID}/channels", s.handleListChannels)
			r.Get("/servers/{serverID}/members", s.handleListMembers)
			r.Get("/discover/servers", s.handleDiscoverServers)

			r.Post("/channels", s.handleCreateChannel)
			r.Get("/channels/{channelID}/messages", s.handleListMessages)
			r.Post("/messages", s.handleCreateMessage)
			r.Put("/messages/{messageID}", s.handleEditMessage)
			r.Delete("/messages/{messageID}", s.handleDeleteMessage)
			r.Post("/messages/{messageID}/reactions/{emoji}", s.handleAddReaction)
			r.Delete("/messages/{messageID}/reactions/{emoji}", s.handleRemoveReaction)

			r.Get("/dms", s.handleListDMs)
			r.Post("/dms", s.handleCreateDM)
			r.Get("/dms/{dmID}/messages", s.handleListDMMessages)
			r.Post("/dms/messages", s.handleCreateDMMessage)

			r.Get("/search/messages", s.handleSearchMessages)
			r.Get("/search/users", s.handleSearchUsers)

			r.Get("/users/{userID}", s.handleGetUserProfile)
			r.Post("/users/{userID}/follow", s.handleFollowUser)
			r.Delete("/users/{userID}/follow", s.handleUnfollowUser)

			r.Get("/reels", s.handleListReels)
			r.Post("/reels", s.handleCreateReel)
			r.Get("/reels/{reelID}", s.handleGetReel)
			r.Post("/reels/{reelID}/like", s.handleLikeReel)
			r.Get("/reels/{reelID}/comments", s.handleListReelComments)
			r.Post("/reels/{reelID}/comments", s.handleCreateReelComment)

			r.Get("/forum/categories", s.handleListForumCategories)
			r.Get("/forum/posts", s.handleListForumPosts)
			r.Post("/forum/posts", s.handleCreateForumPost)
			r.Get("/forum/posts/{postID}", s.handleGetForumPost)
			r.Get("/forum/posts/{postID}/replies", s.handleListForumReplies)
			r.Post("/forum/posts/{postID}/replies", s.handleCreateForumReply)

			r.Get("/marketplace/products", s.handleListProducts)
			r.Post("/marketplace/products", s.handleCreateProduct)
			r.Get("/marketplace/products/{productID}", s.handleGetProduct)

			r.Get("/studio/projects", s.handleListStudioProjects)
			r.Post("/studio/projects", s.handleCreateStudioProject)
			r.Get("/studio/templates", s.handleListStudioTemplates)

			r.Post("/upload/{uploadType}", s.handleUpload)
		})
	})

	r.Get("/ws", s.handleWebsocket)
	r.Get("/ws/poll", s.handlePoll)
	r.Post("/ws/emit", s.handleEmit)

	s.httpServer = httptest.NewServer(r)
	t.Cleanup(s.httpServer.Close)
	return s
}

func (s *Server) URL() string {
	return s.httpServer.URL
}

// CreateUser registers a user directly, bypassing the signup endpoint,
// and returns a valid bearer token for it.
func (s *Server) CreateUser(username string) (string, models.User) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	user := s.addUser(username, username+"@example.com", "Password1")
	return s.issueToken(user.ID), user
}

func (s *Server) addUser(username string, email string, password string) models.User {
	user := models.User{
		ID:            uuid.NewString(),
		Username:      username,
		Email:         email,
		Avatar:        "https://avatars.example/" + username,
		Status:        "online",
		Discriminator: "0001",
		Theme:         "liquid-glass",
		CreatedAt:     time.Now().UTC(),
	}
	s.users[user.ID] = user
	s.passwords[email] = password
	s.emailIndex[email] = user.ID
	return user
}

func (s *Server) issueToken(userID string) string {
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     jwt.NewNumericDate(time.Now().UTC()),
		"exp":     jwt.NewNumericDate(time.Now().UTC().Add(24 * time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		panic(err)
	}
	return token
}

// ExpiredToken returns a syntactically valid token whose exp is history.
func (s *Server) ExpiredToken() string {
	claims := jwt.MapClaims{
		"user_id": "nobody",
		"exp":     jwt.NewNumericDate(time.Now().UTC().Add(-time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
	if err != nil {
		panic(err)
	}
	return token
}

func (s *Server) verifyToken(token string) (models.User, bool) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) { return jwtSecret, nil })
	if err != nil || !parsed.Valid {
		return models.User{}, false
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return models.User{}, false
	}
	userID, _ := claims["user_id"].(string)

	s.mutex.Lock()
	defer s.mutex.Unlock()
	user, ok := s.users[userID]
	return user, ok
}

func (s *Server) userVerifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Missing token")
			return
		}
		user, ok := s.verifyToken(token)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), user)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	s.mutex.Lock()
	if _, exists := s.emailIndex[req.Email]; exists {
		s.mutex.Unlock()
		writeDetail(w, http.StatusBadRequest, "User already exists")
		return
	}
	user := s.addUser(req.Username, req.Email, req.Password)
	token := s.issueToken(user.ID)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	s.mutex.Lock()
	userID, exists := s.emailIndex[req.Email]
	if !exists || s.passwords[req.Email] != req.Password {
		s.mutex.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	user := s.users[userID]
	token := s.issueToken(userID)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r.Context()))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	s.mutex.Lock()
	user := s.users[userFrom(r.Context()).ID]
	if v, ok := updates["username"]; ok {
		user.Username = v
	}
	if v, ok := updates["bio"]; ok {
		user.Bio = v
	}
	if v, ok := updates["status"]; ok {
		user.Status = v
	}
	if v, ok := updates["theme"]; ok {
		user.Theme = v
	}
	s.users[user.ID] = user
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleListServers(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context()).ID

	s.mutex.Lock()
	servers := []models.Server{}
	for id, server := range s.servers {
		for _, member := range s.members[id] {
			if member == userID {
				server.MemberCount = len(s.members[id])
				servers = append(servers, server)
				break
			}
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, servers)
}

func (s *Server) handleCreateServer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Icon        string `json:"icon"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	user := userFrom(r.Context())
	server := models.Server{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Icon:        req.Icon,
		Description: req.Description,
		OwnerID:     user.ID,
		InviteCode:  uuid.NewString()[:8],
		MemberCount: 1,
		CreatedAt:   time.Now().UTC(),
	}

	s.mutex.Lock()
	s.servers[server.ID] = server
	s.members[server.ID] = []string{user.ID}
	s.invites[server.InviteCode] = server.ID
	s.channels = append(s.channels,
		models.Channel{ID: uuid.NewString(), ServerID: server.ID, Name: "general", ChannelType: models.ChannelText, CreatedAt: time.Now().UTC()},
		models.Channel{ID: uuid.NewString(), ServerID: server.ID, Name: "General Voice", ChannelType: models.ChannelVoice, CreatedAt: time.Now().UTC()},
	)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, server)
}

func (s *Server) handleGetServer(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")

	s.mutex.Lock()
	server, ok := s.servers[serverID]
	if ok {
		server.MemberCount = len(s.members[serverID])
	}
	s.mutex.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Server not found")
		return
	}
	writeJSON(w, http.StatusOK, server)
}

func (s *Server) handleJoinServer(w http.ResponseWriter, r *http.Request) {
	inviteCode := chi.URLParam(r, "inviteCode")
	userID := userFrom(r.Context()).ID

	s.mutex.Lock()
	serverID, ok := s.invites[inviteCode]
	if !ok {
		s.mutex.Unlock()
		writeDetail(w, http.StatusNotFound, "Invalid invite code")
		return
	}
	for _, member := range s.members[serverID] {
		if member == userID {
			s.mutex.Unlock()
			writeDetail(w, http.StatusBadRequest, "Already a member")
			return
		}
	}
	s.members[serverID] = append(s.members[serverID], userID)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"message": "Joined server successfully", "server_id": serverID})
}

func (s *Server) handleListChannels(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")

	s.mutex.Lock()
	channels := []models.Channel{}
	for _, channel := range s.channels {
		if channel.ServerID == serverID {
			channels = append(channels, channel)
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, channels)
}

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	serverID := chi.URLParam(r, "serverID")

	s.mutex.Lock()
	members := []models.User{}
	for _, memberID := range s.members[serverID] {
		members = append(members, s.users[memberID])
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, members)
}

func (s *Server) handleDiscoverServers(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	servers := []models.Server{}
	for id, server := range s.servers {
		server.MemberCount = len(s.members[id])
		servers = append(servers, server)
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, servers)
}

func (s *Server) handleCreateChannel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		ChannelType string `json:"channel_type"`
		ServerID    string `json:"server_id"`
		CategoryID  string `json:"category_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	s.mutex.Lock()
	server, ok := s.servers[req.ServerID]
	if !ok || server.OwnerID != userFrom(r.Context()).ID {
		s.mutex.Unlock()
		writeDetail(w, http.StatusForbidden, "Not authorized to create channels")
		return
	}
	channel := models.Channel{
		ID:          uuid.NewString(),
		ServerID:    req.ServerID,
		CategoryID:  req.CategoryID,
		Name:        strings.ReplaceAll(strings.ToLower(req.Name), " ", "-"),
		ChannelType: req.ChannelType,
		CreatedAt:   time.Now().UTC(),
	}
	s.channels = append(s.channels, channel)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, channel)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	channelID := chi.URLParam(r, "channelID")

	s.mutex.Lock()
	messages := []models.Message{}
	for _, message := range s.messages {
		if message.ChannelID == channelID {
			messages = append(messages, message)
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content     string   `json:"content"`
		ChannelID   string   `json:"channel_id"`
		Attachments []string `json:"attachments"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	user := userFrom(r.Context())
	message := models.Message{
		ID:          uuid.NewString(),
		ChannelID:   req.ChannelID,
		AuthorID:    user.ID,
		Author:      stub(user),
		Content:     req.Content,
		Attachments: req.Attachments,
		Reactions:   map[string][]string{},
		CreatedAt:   time.Now().UTC(),
	}

	s.mutex.Lock()
	s.messages = append(s.messages, message)
	s.mutex.Unlock()

	// realtime echo to everyone joined to the channel, sender included:
	// the backend does not suppress self-echo
	s.broadcast(req.ChannelID, mustEvent(models.NewMessage, message))

	writeJSON(w, http.StatusOK, message)
}

func (s *Server) handleEditMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	s.mutex.Lock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			now := time.Now().UTC()
			s.messages[i].Content = req.Content
			s.messages[i].EditedAt = &now
			message := s.messages[i]
			s.mutex.Unlock()
			writeJSON(w, http.StatusOK, message)
			return
		}
	}
	s.mutex.Unlock()
	writeDetail(w, http.StatusNotFound, "Message not found")
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	s.mutex.Lock()
	for i := range s.messages {
		if s.messages[i].ID == messageID {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			s.mutex.Unlock()
			writeJSON(w, http.StatusOK, map[string]string{"message": "Deleted"})
			return
		}
	}
	s.mutex.Unlock()
	writeDetail(w, http.StatusNotFound, "Message not found")
}

func (s *Server) handleAddReaction(w http.ResponseWriter, r *http.Request) {
	s.mutateReaction(w, r, true)
}

func (s *Server) handleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	s.mutateReaction(w, r, false)
}

func (s *Server) mutateReaction(w http.ResponseWriter, r *http.Request, add bool) {
	messageID := chi.URLParam(r, "messageID")
	emoji, err := url.PathUnescape(chi.URLParam(r, "emoji"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Bad emoji")
		return
	}
	userID := userFrom(r.Context()).ID

	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i := range s.messages {
		if s.messages[i].ID != messageID {
			continue
		}
		message := &s.messages[i]
		if message.Reactions == nil {
			message.Reactions = map[string][]string{}
		}
		if add {
			found := false
			for _, id := range message.Reactions[emoji] {
				if id == userID {
					found = true
					break
				}
			}
			if !found {
				message.Reactions[emoji] = append(message.Reactions[emoji], userID)
			}
		} else {
			kept := message.Reactions[emoji][:0]
			for _, id := range message.Reactions[emoji] {
				if id != userID {
					kept = append(kept, id)
				}
			}
			message.Reactions[emoji] = kept
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
		return
	}
	writeDetail(w, http.StatusNotFound, "Message not found")
}

func (s *Server) handleListDMs(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r.Context()).ID

	s.mutex.Lock()
	dms := []models.DMThread{}
	for _, dm := range s.dms {
		for _, participant := range dm.Participants {
			if participant == userID {
				dms = append(dms, dm)
				break
			}
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, dms)
}

func (s *Server) handleCreateDM(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RecipientID string `json:"recipient_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	userID := userFrom(r.Context()).ID

	s.mutex.Lock()
	for _, dm := range s.dms {
		if len(dm.Participants) == 2 &&
			((dm.Participants[0] == userID && dm.Participants[1] == req.RecipientID) ||
				(dm.Participants[1] == userID && dm.Participants[0] == req.RecipientID)) {
			s.mutex.Unlock()
			writeJSON(w, http.StatusOK, dm)
			return
		}
	}
	dm := models.DMThread{
		ID:           uuid.NewString(),
		Participants: []string{userID, req.RecipientID},
		CreatedAt:    time.Now().UTC(),
	}
	s.dms = append(s.dms, dm)
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, dm)
}

func (s *Server) handleListDMMessages(w http.ResponseWriter, r *http.Request) {
	dmID := chi.URLParam(r, "dmID")

	s.mutex.Lock()
	messages := []models.DMMessage{}
	for _, message := range s.dmMessages {
		if message.DMID == dmID {
			messages = append(messages, message)
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleCreateDMMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
		DMID    string `json:"dm_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid body")
		return
	}

	user := userFrom(r.Context())
	message := models.DMMessage{
		ID:        uuid.NewString(),
		DMID:      req.DMID,
		AuthorID:  user.ID,
		Author:    stub(user),
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}

	s.mutex.Lock()
	s.dmMessages = append(s.dmMessages, message)
	s.mutex.Unlock()

	s.broadcast(dmRoom(req.DMID), mustEvent(models.NewDMMessage, message))

	writeJSON(w, http.StatusOK, message)
}

func (s *Server) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("q"))

	s.mutex.Lock()
	matches := []models.Message{}
	for _, message := range s.messages {
		if strings.Contains(strings.ToLower(message.Content), query) {
			matches = append(matches, message)
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	query := strings.ToLower(r.URL.Query().Get("q"))

	s.mutex.Lock()
	matches := []models.User{}
	for _, user := range s.users {
		if strings.Contains(strings.ToLower(user.Username), query) {
			matches = append(matches, user)
		}
	}
	s.mutex.Unlock()

	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	uploadType := chi.URLParam(r, "uploadType")
	switch uploadType {
	case "avatars", "images", "videos", "files":
	default:
		writeDetail(w, http.StatusBadRequest, "Invalid upload type")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Missing file")
		return
	}
	file.Close()

	writeJSON(w, http.StatusOK, map[string]string{
		"url":      fmt.Sprintf("%s/files/%s/%s", s.httpServer.URL, uploadType, header.Filename),
		"filename": header.Filename,
	})
}

func stub(user models.User) models.UserStub {
	return models.UserStub{
		ID:            user.ID,
		Username:      user.Username,
		Avatar:        user.Avatar,
		Discriminator: user.Discriminator,
	}
}

func mustEvent(name string, payload any) models.Event {
	ev, err := models.NewEvent(name, payload)
	if err != nil {
		panic(err)
	}
	return ev
}
