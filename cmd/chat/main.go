// Terminal chat client. Logs in with email/password, connects the websocket
// and drives the chat engine from stdin. Useful for poking at a running
// server without a frontend.
//
//	go run ./cmd/chat -server http://localhost:8080 -email student1@nextbench.local -password password123
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nextbenchapp/nextbench/internal/model"
	"github.com/nextbenchapp/nextbench/pkg/chatclient"
)

func main() {
	server := flag.String("server", "http://localhost:8080", "API server base URL")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "login password")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatalln("both -email and -password are required")
	}

	login, err := authenticate(*server, *email, *password)
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	fmt.Printf("Logged in as %s (%s)\n", login.User.Name, login.User.Email)

	api := chatclient.NewRESTClient(*server+"/api/v1", login.Token)

	wsURL, err := websocketURL(*server, login.Token)
	if err != nil {
		log.Fatalf("bad server URL: %v", err)
	}

	// Socket -> Coordinator wiring is circular: the socket dispatches inbound
	// events to the coordinator, the coordinator emits through the socket.
	var coord *chatclient.Coordinator
	printer := &printingHandler{next: func() chatclient.EventHandler { return coord }}
	socket := chatclient.NewSocket(wsURL, printer)
	coord = chatclient.NewCoordinator(login.User.ID, api, socket)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go socket.Run(ctx)

	coord.FetchConversations(ctx)
	fmt.Println(`Commands: /list, /open <n>, /dm <email or user id>, /del <n>, /close, /quit`)

	repl(ctx, coord, *server, login.Token)
}

func authenticate(server, email, password string) (*model.LoginResponse, error) {
	body, _ := json.Marshal(model.LoginRequest{Email: email, Password: password})
	resp, err := http.Post(server+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr model.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s", apiErr.Error)
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var login model.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return nil, err
	}
	return &login, nil
}

func websocketURL(server, token string) (string, error) {
	u, err := url.Parse(server)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	u.RawQuery = "token=" + url.QueryEscape(token)
	return u.String(), nil
}

// printingHandler prints inbound events before forwarding them to the
// coordinator, so activity is visible even while typing.
type printingHandler struct {
	next func() chatclient.EventHandler
}

func (p *printingHandler) HandleNewMessage(msg model.Message) {
	name := msg.Sender.Name
	if name == "" {
		name = msg.SenderID.String()[:8]
	}
	fmt.Printf("\n[%s] %s: %s\n> ", msg.CreatedAt.Format("15:04"), name, msg.Content)
	p.next().HandleNewMessage(msg)
}

func (p *printingHandler) HandleTyping(ev model.TypingEvent) {
	fmt.Printf("\n%s is typing...\n> ", ev.Name)
	p.next().HandleTyping(ev)
}

func (p *printingHandler) HandleStopTyping(ev model.TypingEvent) {
	p.next().HandleStopTyping(ev)
}

func (p *printingHandler) HandleReconnect() {
	fmt.Println("\n(reconnected)")
	p.next().HandleReconnect()
}

func repl(ctx context.Context, coord *chatclient.Coordinator, server, token string) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
		case line == "/quit":
			return
		case line == "/list":
			coord.FetchConversations(ctx)
			for i, conv := range coord.Conversations() {
				label := conv.Name
				if label == "" && conv.OtherUser != nil {
					label = conv.OtherUser.Name
				}
				last := ""
				if conv.LastMessage != nil {
					last = " | " + conv.LastMessage.Content
				}
				fmt.Printf("%d. %s (unread %d)%s\n", i+1, label, conv.UnreadCount, last)
			}
		case strings.HasPrefix(line, "/open "):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/open ")))
			convs := coord.Conversations()
			if err != nil || n < 1 || n > len(convs) {
				fmt.Println("usage: /open <n> (see /list)")
				continue
			}
			coord.OpenChat(ctx, convs[n-1])
			for coord.Loading() {
				time.Sleep(20 * time.Millisecond)
			}
			for _, m := range coord.Messages() {
				fmt.Printf("[%s] %s\n", m.CreatedAt.Format("15:04"), m.Content)
			}
		case strings.HasPrefix(line, "/dm "):
			arg := strings.TrimSpace(strings.TrimPrefix(line, "/dm "))
			partnerID, err := resolveUser(server, token, arg)
			if err != nil {
				fmt.Printf("cannot resolve %q: %v\n", arg, err)
				continue
			}
			if _, err := coord.OpenDirect(ctx, partnerID); err != nil {
				fmt.Printf("open dm: %v\n", err)
			}
		case strings.HasPrefix(line, "/del "):
			n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "/del ")))
			msgs := coord.Messages()
			if err != nil || n < 1 || n > len(msgs) {
				fmt.Println("usage: /del <n>")
				continue
			}
			if err := coord.DeleteMessage(ctx, msgs[n-1].ID); err != nil {
				fmt.Printf("delete: %v\n", err)
			}
		case line == "/close":
			coord.ClearChat()
		default:
			if coord.Active() == nil {
				fmt.Println("no conversation open, use /open or /dm")
				continue
			}
			if _, err := coord.SendMessage(ctx, model.SendMessageRequest{Content: line}); err != nil {
				fmt.Printf("send failed: %v\n", err)
			}
		}
		fmt.Print("> ")
	}
}

// resolveUser accepts a raw user id or an email-ish query, searching the user
// directory for the latter.
func resolveUser(server, token, arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}

	req, err := http.NewRequest(http.MethodGet,
		server+"/api/v1/users/search?q="+url.QueryEscape(arg), nil)
	if err != nil {
		return uuid.Nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return uuid.Nil, err
	}
	defer resp.Body.Close()

	var found []model.UserResponse
	if err := json.NewDecoder(resp.Body).Decode(&found); err != nil {
		return uuid.Nil, err
	}
	if len(found) == 0 {
		return uuid.Nil, fmt.Errorf("no user matched")
	}
	return found[0].ID, nil
}
