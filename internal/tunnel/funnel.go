// Package tunnel exposes the local webhook endpoint publicly through
// tailscale funnel, so form plugins on a hosted site can reach the bridge.
package tunnel

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"
	"sync"
)

// webhookPath is the route the funnel URL is composed for; it is the only
// endpoint a form plugin needs.
const webhookPath = "/webhook/fluent-forms"

// tsStatus is a minimal subset of `tailscale status --json` output.
type tsStatus struct {
	BackendState string `json:"BackendState"`
	Self         struct {
		DNSName string `json:"DNSName"`
	} `json:"Self"`
}

// Funnel is a running `tailscale funnel` child process forwarding a public
// HTTPS URL to the local bridge port.
type Funnel struct {
	webhookURL string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// EnsureInstalled checks that the tailscale CLI is available.
func EnsureInstalled() error {
	if _, err := exec.LookPath("tailscale"); err != nil {
		return fmt.Errorf("tailscale CLI not found in PATH — install from https://tailscale.com/download")
	}
	return nil
}

// publicBaseURL asks the local tailscale daemon for this node's DNS name and
// returns the deterministic HTTPS base, e.g. "https://machine.tailnet.ts.net".
func publicBaseURL() (string, error) {
	out, err := exec.Command("tailscale", "status", "--json").Output()
	if err != nil {
		return "", fmt.Errorf("tailscale status: %w (is tailscale running?)", err)
	}
	return baseURLFromStatus(out)
}

// baseURLFromStatus extracts the HTTPS base URL from `tailscale status --json`
// output, rejecting nodes that are not connected.
func baseURLFromStatus(raw []byte) (string, error) {
	var status tsStatus
	if err := json.Unmarshal(raw, &status); err != nil {
		return "", fmt.Errorf("parse tailscale status: %w", err)
	}

	if status.BackendState != "" && status.BackendState != "Running" {
		return "", fmt.Errorf("tailscale backend is %s, not Running", status.BackendState)
	}

	dns := strings.TrimSuffix(status.Self.DNSName, ".")
	if dns == "" {
		return "", fmt.Errorf("tailscale: empty DNS name — is the node connected?")
	}

	return "https://" + dns, nil
}

// Start runs `tailscale funnel <port>` in the background. The caller must
// Stop the funnel on shutdown.
func Start(port string) (*Funnel, error) {
	if err := EnsureInstalled(); err != nil {
		return nil, err
	}

	baseURL, err := publicBaseURL()
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("tailscale", "funnel", port)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start tailscale funnel: %w", err)
	}

	f := &Funnel{webhookURL: baseURL + webhookPath, cmd: cmd}
	log.Printf("tunnel: funnel started on port %s → point your form plugin at %s", port, f.webhookURL)
	return f, nil
}

// WebhookURL is the public form-webhook URL the funnel serves.
func (f *Funnel) WebhookURL() string {
	return f.webhookURL
}

// Stop kills the funnel process and reaps it. Safe to call more than once.
func (f *Funnel) Stop() {
	f.mu.Lock()
	cmd := f.cmd
	f.cmd = nil
	f.mu.Unlock()
	if cmd == nil {
		return
	}

	if err := cmd.Process.Kill(); err != nil {
		log.Printf("tunnel: kill funnel: %v", err)
	}
	cmd.Wait()
	log.Printf("tunnel: funnel stopped")
}
