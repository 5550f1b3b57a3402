// Package main provides a load and inspection tool for the feed event
// WebSocket stream. It logs in, exchanges the JWT for single-use tickets,
// and holds open one connection per client, counting received events.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsReceived       int64
	Errors               int64
}

var stats metrics

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	email := flag.String("email", "dev@example.com", "Test user email")
	password := flag.String("password", "", "Test user password")
	clients := flag.Int("clients", 1, "Number of concurrent clients")
	duration := flag.Duration("duration", 30*time.Second, "How long to hold connections open")
	verbose := flag.Bool("v", false, "Print every received event")
	flag.Parse()

	if *password == "" {
		log.Fatal("-password is required")
	}

	log.Printf("Target: %s, clients: %d, duration: %v", *host, *clients, *duration)

	token, err := login(*host, *email, *password)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, *verbose, stopChan, &wg)
		// Stagger connections so each client gets its own ticket
		time.Sleep(50 * time.Millisecond)
	}

	select {
	case <-time.After(*duration):
		log.Println("Duration reached")
	case <-interrupt:
		log.Println("Interrupted")
	}

	close(stopChan)
	wg.Wait()

	printStats()
}

func login(host, email, password string) (string, error) {
	loginURL := fmt.Sprintf("http://%s/api/auth/login", host)
	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func getTicket(host, token string) (string, error) {
	ticketURL := fmt.Sprintf("http://%s/api/ws/ticket", host)
	req, _ := http.NewRequest(http.MethodPost, ticketURL, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ticket issuance failed with status %d", resp.StatusCode)
	}

	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}

func runClient(host, token string, verbose bool, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&stats.ConnectionsAttempted, 1)

	// Each connection needs its own single-use ticket
	ticket, err := getTicket(host, token)
	if err != nil {
		atomic.AddInt64(&stats.ConnectionsFailed, 1)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/api/ws", RawQuery: "ticket=" + ticket}

	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&stats.ConnectionsFailed, 1)
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&stats.ConnectionsSuccess, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&stats.EventsReceived, 1)
			if verbose {
				log.Printf("event: %s", msg)
			}
		}
	}()

	select {
	case <-stopChan:
		_ = c.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
	}
}

func printStats() {
	log.Println("Results")
	log.Printf("  Connections attempted:  %d", atomic.LoadInt64(&stats.ConnectionsAttempted))
	log.Printf("  Connections successful: %d", atomic.LoadInt64(&stats.ConnectionsSuccess))
	log.Printf("  Connections failed:     %d", atomic.LoadInt64(&stats.ConnectionsFailed))
	log.Printf("  Events received:        %d", atomic.LoadInt64(&stats.EventsReceived))
	log.Printf("  Errors:                 %d", atomic.LoadInt64(&stats.Errors))
}
