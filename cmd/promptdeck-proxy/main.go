// Package main bridges a stdio MCP client to the dashboard's MCP SSE endpoint.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/promptdeck/internal/config"
)

const maxEventBytes = 4 << 20

func main() {
	baseURL := flag.String("url", "", "Base URL of the MCP endpoint (default: the local dashboard)")
	token := flag.String("token", "", "Authorization token (optional)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	serverURL := strings.TrimSpace(*baseURL)
	if serverURL == "" {
		serverURL = defaultURL(config.Get().WorkerHost, config.GetWorkerPort())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, serverURL, strings.TrimSpace(*token), os.Stdin, os.Stdout, http.DefaultClient); err != nil {
		log.Error().Err(err).Str("url", serverURL).Msg("MCP proxy stopped")
		os.Exit(1)
	}
}

func defaultURL(host string, port int) string {
	return "http://" + net.JoinHostPort(host, strconv.Itoa(port)) + "/mcp"
}

// run streams server messages to out and posts each line of in to the announced
// message endpoint. It returns nil once in is exhausted or ctx is cancelled.
func run(ctx context.Context, serverURL, token string, in io.Reader, out io.Writer, client *http.Client) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sseURL := strings.TrimRight(serverURL, "/") + "/sse"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sseURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected SSE response status: %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), maxEventBytes)

	var (
		currentEvent string
		messageData  string
		started      bool
	)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if currentEvent == "message" && messageData != "" {
				if _, err := fmt.Fprintln(out, messageData); err != nil {
					return err
				}
			}
			currentEvent = ""
			messageData = ""
			continue
		}

		if strings.HasPrefix(line, "event:") {
			currentEvent = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}
		if !strings.HasPrefix(line, "data:") {
			continue
		}

		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		switch currentEvent {
		case "endpoint":
			if started {
				continue
			}
			endpoint, err := resolveMessageEndpoint(serverURL, data)
			if err != nil {
				return err
			}
			started = true
			log.Debug().Str("endpoint", endpoint).Msg("MCP session opened")
			go func() {
				defer cancel()
				if err := forward(ctx, endpoint, token, in, client); err != nil && ctx.Err() == nil {
					log.Error().Err(err).Msg("Forwarding stdin failed")
				}
			}()
		case "message":
			if messageData == "" {
				messageData = data
			} else if data != "" {
				messageData += "\n" + data
			}
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// forward posts every line of in to endpoint. Responses arrive on the SSE stream.
func forward(ctx context.Context, endpoint, token string, in io.Reader, client *http.Client) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), maxEventBytes)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(line))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		if resp.StatusCode >= http.StatusBadRequest {
			log.Warn().Int("status", resp.StatusCode).Msg("MCP message rejected")
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		return err
	}
	return nil
}

// resolveMessageEndpoint resolves the endpoint announced by the server against the
// URL the proxy connected to. Absolute endpoints are returned unchanged.
func resolveMessageEndpoint(serverURL, endpoint string) (string, error) {
	base, err := url.Parse(strings.TrimSpace(serverURL))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("parse message endpoint: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}
