// Command checkrequests is the assistant hook client. It spends one
// request from the vibercizing server before an assistant invocation and
// emits a block decision when the balance is empty, the server is down,
// or anything unexpected happens. It never silently allows through on an
// unexpected failure.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const deductTimeout = 5 * time.Second

type deductResponse struct {
	Success           bool   `json:"success"`
	RequestsRemaining *int   `json:"requests_remaining"`
	RequestsAvailable *int   `json:"requests_available"`
	Error             string `json:"error"`
}

type hookDecision struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`
}

func main() {
	serverURL := envOr("VIBERCIZING_SERVER_URL", "http://localhost:8000")
	clientURL := envOr("VIBERCIZING_CLIENT_URL", "http://localhost:5173")

	client := &http.Client{Timeout: deductTimeout}
	resp, err := client.Post(serverURL+"/api/deduct", "application/json", http.NoBody)
	if err != nil {
		block(fmt.Sprintf(
			"Vibercizing server not running!\n\n"+
				"Start the server:\n"+
				"  vibercizing\n\n"+
				"Then open the client:\n"+
				"  %s",
			clientURL,
		))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		block(fmt.Sprintf("Vibercizing error: unexpected status %d", resp.StatusCode))
		return
	}

	var result deductResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		block(fmt.Sprintf("Vibercizing error: %v", err))
		return
	}

	if result.Success {
		// Request deducted, let the invocation through.
		return
	}

	available := 0
	if result.RequestsAvailable != nil {
		available = *result.RequestsAvailable
	}
	block(fmt.Sprintf(
		"No requests available! (Balance: %d)\n\n"+
			"You need to exercise to earn requests.\n"+
			"Open %s and complete 20 jumping jacks to earn 1 request.",
		available, clientURL,
	))
}

// block prints a hook decision document. The hook contract reads the
// decision from stdout; the exit code stays zero either way.
func block(reason string) {
	out, err := json.Marshal(hookDecision{Decision: "block", Reason: reason})
	if err != nil {
		fmt.Println(`{"decision":"block","reason":"vibercizing hook failed"}`)
		return
	}
	fmt.Println(string(out))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
