package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/vovakirdan/wirechat-bridge/internal/proto"
)

type authResponse struct {
	Token string `json:"token"`
}

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	base := flag.String("addr", "http://localhost:8080", "bridge base URL")
	user := flag.String("user", "tester", "username to log in with")
	password := flag.String("password", "tester-password", "password; the user is registered when missing")
	text := flag.String("text", "hello from smoke test", "message text to send to yourself")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	creds := map[string]string{"username": *user, "password": *password}
	// Registering an existing user fails with 409, which is fine here.
	reg, err := postJSON(ctx, *base+"/api/register", creds)
	if err != nil {
		return err
	}
	reg.Body.Close()
	resp, err := postJSON(ctx, *base+"/api/login", creds)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("login: unexpected status %s", resp.Status)
	}
	var auth authResponse
	if err := json.NewDecoder(resp.Body).Decode(&auth); err != nil {
		return fmt.Errorf("decode login: %w", err)
	}
	resp.Body.Close()

	wsURL, err := url.Parse(*base)
	if err != nil {
		return fmt.Errorf("parse addr: %w", err)
	}
	if wsURL.Scheme == "https" {
		wsURL.Scheme = "wss"
	} else {
		wsURL.Scheme = "ws"
	}
	wsURL.Path = "/ws"
	if auth.Token != "" {
		wsURL.RawQuery = url.Values{"token": {auth.Token}}.Encode()
	}

	conn, _, err := websocket.Dial(ctx, wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	localID := uuid.NewString()
	message, err := json.Marshal(map[string]any{
		"localId":  localID,
		"to":       *user,
		"chatType": 0,
		"type":     "txt",
		"body":     map[string]string{"content": *text},
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	req := proto.Inbound{
		Type:   proto.InboundTypeRequest,
		ID:     "smoke-1",
		Method: "sendMessage",
		Params: map[string]json.RawMessage{"message": message},
	}
	if err := wsjson.Write(ctx, conn, req); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	for {
		var out struct {
			Type  string          `json:"type"`
			ID    string          `json:"id"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &out); err != nil {
			return fmt.Errorf("read: %w", err)
		}

		fmt.Printf("Received outbound: type=%s", out.Type)
		if out.Event != "" {
			fmt.Printf(" event=%s", out.Event)
		}
		if out.ID != "" {
			fmt.Printf(" id=%s", out.ID)
		}
		fmt.Println()
		if out.Error != nil {
			return fmt.Errorf("%s error %d: %s", out.Error.Kind, out.Error.Code, out.Error.Message)
		}

		switch out.Event {
		case proto.EventOperationSuccess:
			fmt.Printf("Sent: %s\n", out.Data)
			return nil
		case proto.EventOperationError:
			return fmt.Errorf("send failed: %s", out.Data)
		}
	}
}

func postJSON(ctx context.Context, target string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post %s: %w", target, err)
	}
	return resp, nil
}
