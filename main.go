package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"echosphere-client/internal/client"
	"echosphere-client/internal/gateway"
	"echosphere-client/internal/localstore"
	"echosphere-client/internal/models"
	"echosphere-client/internal/rest"
	"echosphere-client/internal/session"
	"echosphere-client/internal/store"
)

type ConfigFile struct {
	BackendURL string
	DataDir    string
	LogFile    string
}

func setupLogger(logFile string) (*zap.SugaredLogger, error) {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{logFile}
	config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	sugar := logger.Sugar()
	defer logger.Sync()

	return sugar, nil
}

func readConfigFile() (ConfigFile, error) {
	cfg := ConfigFile{
		BackendURL: "http://localhost:8000",
		DataDir:    ".",
		LogFile:    "echosphere.log",
	}

	configFile, err := os.Open("config.json")
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer configFile.Close()

	bytes, err := io.ReadAll(configFile)
	if err != nil {
		return cfg, err
	}

	err = json.Unmarshal(bytes, &cfg)
	if err != nil {
		return cfg, err
	}
	return cfg, nil
}

func prompt(scanner *bufio.Scanner, label string) string {
	fmt.Print(label)
	if !scanner.Scan() {
		return ""
	}
	return strings.TrimSpace(scanner.Text())
}

func authenticate(ctx context.Context, sess *session.Session, scanner *bufio.Scanner) (models.User, error) {
	for {
		switch prompt(scanner, "login or signup? ") {
		case "login":
			email := prompt(scanner, "email: ")
			password := prompt(scanner, "password: ")
			user, err := sess.Login(ctx, email, password)
			if err != nil {
				fmt.Println("login failed:", err)
				continue
			}
			return user, nil
		case "signup":
			username := prompt(scanner, "username: ")
			email := prompt(scanner, "email: ")
			password := prompt(scanner, "password: ")
			user, err := sess.Signup(ctx, username, email, password)
			if err != nil {
				fmt.Println("signup failed:", err)
				continue
			}
			return user, nil
		case "":
			return models.User{}, fmt.Errorf("stdin closed")
		default:
			fmt.Println("type login or signup")
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  servers               list your servers
  open <n>              open server n
  channels              list channels of the open server
  join <n>              open text channel n
  msgs                  show messages of the open channel
  send <text>           send a message
  edit <id> <text>      edit one of your messages
  del <id>              delete one of your messages
  react <id> <emoji>    toggle a reaction
  dms                   list direct message threads
  dm <n>                open dm thread n
  dmsend <text>         send a dm
  typing                who is typing in the open channel
  search <text>         search messages
  logout                sign out and quit
  quit                  quit`)
}

func main() {
	fmt.Println("Reading config file...")
	cfg, err := readConfigFile()
	if err != nil {
		fmt.Println(err)
		return
	}

	sugar, err := setupLogger(cfg.LogFile)
	if err != nil {
		fmt.Println(err)
		return
	}

	local, err := localstore.Open(filepath.Join(cfg.DataDir, "echosphere.db"), sugar)
	if err != nil {
		sugar.Fatal(err)
	}
	defer local.Close()

	ctx := context.Background()
	restClient := rest.NewClient(cfg.BackendURL, sugar)
	gw := gateway.New(cfg.BackendURL, sugar)
	st := store.New()
	sess := session.New(restClient, gw, local, st, sugar)

	scanner := bufio.NewScanner(os.Stdin)

	restored, err := sess.Restore(ctx)
	if err != nil {
		sugar.Warnf("session restore failed: %v", err)
	}
	if !restored {
		if _, err := authenticate(ctx, sess, scanner); err != nil {
			sugar.Fatal(err)
		}
	}

	user, _ := sess.User()
	fmt.Printf("Signed in as %s#%s\n", user.Username, user.Discriminator)

	cl := client.New(restClient, st, gw, sugar)
	defer cl.Close()
	cl.SetSelf(models.UserStub{
		ID:            user.ID,
		Username:      user.Username,
		Avatar:        user.Avatar,
		Discriminator: user.Discriminator,
	})

	// print pushes for whatever is currently open; the store merge itself
	// already happened inside the client
	sub := gw.Subscribe(func(ev models.Event) {
		switch ev.Event {
		case models.NewMessage:
			var message models.Message
			if json.Unmarshal(ev.Data, &message) == nil {
				if ch := st.CurrentChannel(); ch != nil && ch.ID == message.ChannelID {
					fmt.Printf("\n[%s] %s\n> ", message.Author.Username, message.Content)
				}
			}
		case models.NewDMMessage:
			var message models.DMMessage
			if json.Unmarshal(ev.Data, &message) == nil {
				if dm := st.CurrentDM(); dm != nil && dm.ID == message.DMID {
					fmt.Printf("\n[dm %s] %s\n> ", message.Author.Username, message.Content)
				}
			}
		case models.UserTyping:
			var presence models.Presence
			if json.Unmarshal(ev.Data, &presence) == nil {
				if ch := st.CurrentChannel(); ch != nil && ch.ID == presence.ChannelID {
					fmt.Printf("\n%s is typing...\n> ", presence.User.Username)
				}
			}
		}
	})
	defer sub.Close()

	if err := cl.FetchServers(ctx); err != nil {
		sugar.Errorf("fetching servers: %v", err)
	}
	if err := cl.FetchDMs(ctx); err != nil {
		sugar.Errorf("fetching dms: %v", err)
	}

	printHelp()
	for {
		line := prompt(scanner, "> ")
		if line == "" {
			continue
		}
		command, args, _ := strings.Cut(line, " ")

		switch command {
		case "help":
			printHelp()

		case "servers":
			for i, server := range st.Servers() {
				fmt.Printf("%d: %s (%d members)\n", i, server.Name, server.MemberCount)
			}

		case "open":
			servers := st.Servers()
			n, err := strconv.Atoi(args)
			if err != nil || n < 0 || n >= len(servers) {
				fmt.Println("open <n> with n from `servers`")
				continue
			}
			if err := cl.OpenServer(ctx, servers[n]); err != nil {
				fmt.Println("open failed:", err)
				continue
			}
			if ch := st.CurrentChannel(); ch != nil {
				fmt.Printf("opened %s, channel #%s\n", servers[n].Name, ch.Name)
			}

		case "channels":
			for i, channel := range st.Channels() {
				fmt.Printf("%d: #%s (%s)\n", i, channel.Name, channel.ChannelType)
			}

		case "join":
			channels := st.Channels()
			n, err := strconv.Atoi(args)
			if err != nil || n < 0 || n >= len(channels) {
				fmt.Println("join <n> with n from `channels`")
				continue
			}
			if err := cl.OpenChannel(ctx, channels[n]); err != nil {
				fmt.Println("join failed:", err)
				continue
			}
			fmt.Printf("joined #%s\n", channels[n].Name)

		case "msgs":
			for _, message := range st.Messages() {
				printMessage(message)
			}

		case "send":
			channel := st.CurrentChannel()
			if channel == nil {
				fmt.Println("no channel open")
				continue
			}
			if _, err := cl.SendMessage(ctx, channel.ID, args, nil); err != nil {
				fmt.Println("send failed:", err)
			}

		case "edit":
			messageID, content, _ := strings.Cut(args, " ")
			if err := cl.EditMessage(ctx, messageID, content); err != nil {
				fmt.Println("edit failed:", err)
			}

		case "del":
			if err := cl.DeleteMessage(ctx, args); err != nil {
				fmt.Println("delete failed:", err)
			}

		case "react":
			messageID, emoji, _ := strings.Cut(args, " ")
			if err := cl.ToggleReaction(ctx, messageID, emoji); err != nil {
				fmt.Println("react failed:", err)
			}

		case "dms":
			for i, dm := range st.DMs() {
				fmt.Printf("%d: %s\n", i, dmLabel(dm, user.ID))
			}

		case "dm":
			dms := st.DMs()
			n, err := strconv.Atoi(args)
			if err != nil || n < 0 || n >= len(dms) {
				fmt.Println("dm <n> with n from `dms`")
				continue
			}
			if err := cl.OpenDM(ctx, dms[n]); err != nil {
				fmt.Println("dm open failed:", err)
				continue
			}
			for _, message := range st.DMMessages() {
				fmt.Printf("[%s] %s\n", message.Author.Username, message.Content)
			}

		case "dmsend":
			dm := st.CurrentDM()
			if dm == nil {
				fmt.Println("no dm open")
				continue
			}
			if _, err := cl.SendDMMessage(ctx, dm.ID, args); err != nil {
				fmt.Println("dm send failed:", err)
			}

		case "typing":
			channel := st.CurrentChannel()
			if channel == nil {
				fmt.Println("no channel open")
				continue
			}
			for _, u := range st.TypingUsers(channel.ID) {
				fmt.Println(u.Username)
			}

		case "search":
			server := st.CurrentServer()
			serverID := ""
			if server != nil {
				serverID = server.ID
			}
			matches, err := restClient.SearchMessages(ctx, args, serverID)
			if err != nil {
				fmt.Println("search failed:", err)
				continue
			}
			for _, message := range matches {
				printMessage(message)
			}

		case "logout":
			sess.Logout()
			fmt.Println("signed out")
			return

		case "quit", "exit":
			gw.Disconnect()
			return

		default:
			fmt.Println("unknown command, try `help`")
		}
	}
}

func printMessage(message models.Message) {
	edited := ""
	if message.EditedAt != nil {
		edited = " (edited)"
	}
	fmt.Printf("%s [%s] %s%s", message.ID, message.Author.Username, message.Content, edited)
	for emoji, userIDs := range message.Reactions {
		fmt.Printf("  %s x%d", emoji, len(userIDs))
	}
	fmt.Println()
}

func dmLabel(dm models.DMThread, selfID string) string {
	names := []string{}
	for _, participant := range dm.ParticipantsInfo {
		if participant.ID != selfID {
			names = append(names, participant.Username)
		}
	}
	if len(names) == 0 {
		return dm.ID
	}
	return strings.Join(names, ", ")
}
