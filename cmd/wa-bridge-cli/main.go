package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "send":
		handleSend(os.Args[2:])
	case "chats":
		handleChats()
	case "status":
		handleStatus()
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func baseURL() string {
	if v := os.Getenv("WABRIDGE_URL"); v != "" {
		return strings.TrimSuffix(v, "/")
	}
	return "http://localhost:3000"
}

func handleSend(args []string) {
	var to, text string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--to":
			if i+1 < len(args) {
				to = args[i+1]
				i++
			}
		case "--text":
			if i+1 < len(args) {
				text = args[i+1]
				i++
			}
		default:
			// Allow positional: send +NUMBER "message"
			if to == "" && strings.HasPrefix(args[i], "+") {
				to = args[i]
			} else if text == "" {
				text = args[i]
			}
		}
	}

	if to == "" || text == "" {
		fmt.Fprintln(os.Stderr, "usage: wa-bridge-cli send --to +NUMBER --text \"message\"")
		os.Exit(1)
	}

	body, _ := json.Marshal(map[string]string{"number": to, "message": text})
	resp, err := http.Post(baseURL()+"/api/send-message", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var out struct {
		Success   bool   `json:"success"`
		Error     string `json:"error"`
		MessageID string `json:"messageId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid response: %v\n", err)
		os.Exit(1)
	}

	if !out.Success {
		fmt.Fprintf(os.Stderr, "error: %s\n", out.Error)
		os.Exit(1)
	}
	fmt.Printf("sent (id: %s)\n", out.MessageID)
}

func handleChats() {
	resp, err := http.Get(baseURL() + "/api/chats")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Chats   []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			IsGroup     bool   `json:"isGroup"`
			LastMessage string `json:"lastMessage"`
		} `json:"chats"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid response: %v\n", err)
		os.Exit(1)
	}
	if !out.Success {
		fmt.Fprintf(os.Stderr, "error: %s\n", out.Error)
		os.Exit(1)
	}

	for _, c := range out.Chats {
		kind := "chat"
		if c.IsGroup {
			kind = "group"
		}
		name := c.Name
		if name == "" {
			name = c.ID
		}
		fmt.Printf("%-6s %-24s %s\n", kind, name, c.LastMessage)
	}
}

func handleStatus() {
	resp, err := http.Get(baseURL() + "/api/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "bridge unreachable: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var out struct {
		Status      string `json:"status"`
		Ready       bool   `json:"ready"`
		QRAvailable bool   `json:"qrAvailable"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid response: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("session: %s\n", out.Status)
	if out.QRAvailable {
		fmt.Printf("pairing: QR available at %s/qr\n", baseURL())
	}
}

func printUsage() {
	fmt.Println(`wa-bridge-cli — talk to a running wa-bridge

usage:
  wa-bridge-cli send --to +NUMBER --text "message"
  wa-bridge-cli chats
  wa-bridge-cli status

environment:
  WABRIDGE_URL   bridge base URL (default http://localhost:3000)`)
}
