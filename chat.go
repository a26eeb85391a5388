package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/xiaot623/clompanion/internal/transport/ws"
)

func chatCmd() *cobra.Command {
	var url, sessionID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat over the websocket endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := NewChatClient(url, sessionID)
			if err != nil {
				return err
			}
			defer client.Close()

			return client.Run(os.Stdin, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&url, "url", "ws://localhost:8080/ws", "WebSocket endpoint")
	cmd.Flags().StringVar(&sessionID, "session", "", "Resume an existing session")

	return cmd
}

// ReplyError is an error frame returned by the server. The connection stays usable.
type ReplyError struct {
	Code    string
	Message string
}

func (e *ReplyError) Error() string {
	return e.Code + ": " + e.Message
}

// ChatClient is a websocket chat client that keeps track of its session.
type ChatClient struct {
	conn      *websocket.Conn
	sessionID string
	requests  int
}

// NewChatClient connects to the server.
func NewChatClient(url, sessionID string) (*ChatClient, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial: %w", err)
	}

	return &ChatClient{
		conn:      conn,
		sessionID: sessionID,
	}, nil
}

// Close closes the connection.
func (c *ChatClient) Close() error {
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return c.conn.Close()
}

// Send runs one chat turn and waits for its reply.
func (c *ChatClient) Send(text string) (*ws.ReplyFrame, error) {
	c.requests++
	requestID := fmt.Sprintf("req_%d", c.requests)

	frame := ws.ChatFrame{
		Type:      ws.TypeChat,
		RequestID: requestID,
		SessionID: c.sessionID,
		Message:   &text,
	}
	if err := c.conn.WriteJSON(frame); err != nil {
		return nil, fmt.Errorf("write chat: %w", err)
	}

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, fmt.Errorf("read reply: %w", err)
		}

		var base struct {
			Type      string `json:"type"`
			RequestID string `json:"request_id"`
		}
		if err := json.Unmarshal(data, &base); err != nil {
			return nil, fmt.Errorf("unmarshal reply: %w", err)
		}
		if base.RequestID != requestID {
			continue
		}

		switch base.Type {
		case ws.TypeReply:
			var reply ws.ReplyFrame
			if err := json.Unmarshal(data, &reply); err != nil {
				return nil, fmt.Errorf("unmarshal reply: %w", err)
			}
			c.sessionID = reply.SessionID
			return &reply, nil
		case ws.TypeError:
			var errFrame ws.ErrorFrame
			if err := json.Unmarshal(data, &errFrame); err != nil {
				return nil, fmt.Errorf("unmarshal error frame: %w", err)
			}
			return nil, &ReplyError{Code: errFrame.Code, Message: errFrame.Error}
		default:
			return nil, fmt.Errorf("unexpected frame type: %s", base.Type)
		}
	}
}

// Run reads lines from in until EOF or /quit.
func (c *ChatClient) Run(in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Type a message and press Enter to send.")
	fmt.Fprintln(out, "Commands: /session to show the session id, /quit to exit")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch input {
		case "":
			continue
		case "/quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "/session":
			fmt.Fprintf(out, "session: %s\n", c.sessionID)
			continue
		}

		c.conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
		reply, err := c.Send(input)
		var replyErr *ReplyError
		if errors.As(err, &replyErr) {
			fmt.Fprintf(out, "error: %v\n", replyErr)
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s\n", reply.Response)
	}
}
