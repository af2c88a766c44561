package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/models"
	"github.com/Liamnooneatu/CICD2-Car-Parts-Project-Parts/pkg/rabbitmq"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var httpClient = &http.Client{Timeout: 5 * time.Second}

func (c *cli) printHealthChecks(ctx context.Context) bool {
	fmt.Fprintf(c.out, "  %s%sHealth%s\n", Bold, White, Reset)

	ok := true
	resp, err := c.request(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		fmt.Fprintf(c.out, "  %s[-]%s %-12s %soffline%s\n", Red, Reset, "api", Red, Reset)
		ok = false
	} else {
		resp.Body.Close()
		fmt.Fprintf(c.out, "  %s[+]%s %-12s %sok%s\n", Green, Reset, "api", Green, Reset)
	}

	if c.cfg.RabbitMQURL == "" {
		fmt.Fprintf(c.out, "  %s[-]%s %-12s %sRABBITMQ_URL not set%s\n", Yellow, Reset, "rabbitmq", Dim, Reset)
		return ok
	}
	sess, err := rabbitmq.Dial(c.cfg.RabbitMQURL)
	if err != nil {
		fmt.Fprintf(c.out, "  %s[-]%s %-12s %soffline%s\n", Red, Reset, "rabbitmq", Red, Reset)
		return false
	}
	sess.Close()
	fmt.Fprintf(c.out, "  %s[+]%s %-12s %sok%s\n", Green, Reset, "rabbitmq", Green, Reset)
	return ok
}

func (c *cli) request(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return httpClient.Do(req)
}

// call performs a request and pretty-prints the response body.
func (c *cli) call(ctx context.Context, method, path string, body any) bool {
	resp, err := c.request(ctx, method, path, body)
	if err != nil {
		fmt.Fprintf(c.out, "  %s[-] %v%s\n", Red, err, Reset)
		return false
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	color := Green
	if resp.StatusCode >= 400 {
		color = Red
	}
	fmt.Fprintf(c.out, "  %s%d%s %s%s%s\n", color, resp.StatusCode, Reset, Dim, resp.Header.Get("X-Correlation-ID"), Reset)

	if len(raw) > 0 {
		var pretty bytes.Buffer
		if json.Indent(&pretty, raw, "  ", "  ") == nil {
			fmt.Fprintf(c.out, "  %s\n", pretty.String())
		} else {
			fmt.Fprintf(c.out, "  %s\n", raw)
		}
	}
	return resp.StatusCode < 400
}

func (c *cli) listUsers(ctx context.Context) bool {
	return c.call(ctx, http.MethodGet, "/api/users", nil)
}

func (c *cli) getUser(ctx context.Context, id string) bool {
	return c.call(ctx, http.MethodGet, "/api/users/"+id, nil)
}

func (c *cli) deleteUser(ctx context.Context, id string) bool {
	return c.call(ctx, http.MethodDelete, "/api/users/"+id, nil)
}

func (c *cli) userPart(ctx context.Context, userID, partID string) bool {
	return c.call(ctx, http.MethodGet, "/api/users/"+userID+"/parts/"+partID, nil)
}

func (c *cli) createUser(ctx context.Context, id, name, email string) bool {
	userID, err := strconv.Atoi(id)
	if err != nil {
		return c.usage("create-user <id> <name> <email>, id must be an integer")
	}
	return c.call(ctx, http.MethodPost, "/api/users", models.User{UserID: userID, Name: name, Email: email})
}

func (c *cli) publish(ctx context.Context, routingKey, body string) bool {
	if !json.Valid([]byte(body)) {
		fmt.Fprintf(c.out, "  %sbody is not valid JSON%s\n", Red, Reset)
		return false
	}
	if c.cfg.RabbitMQURL == "" {
		fmt.Fprintf(c.out, "  %sRABBITMQ_URL is not set%s\n", Red, Reset)
		return false
	}

	conn, err := rabbitmq.Connect(ctx, c.cfg.RabbitMQURL, 3, time.Second, zap.NewNop())
	if err != nil {
		fmt.Fprintf(c.out, "  %s[-] %v%s\n", Red, err, Reset)
		return false
	}
	defer conn.Close()

	pub, err := rabbitmq.NewPublisher(conn, rabbitmq.ExchangeName, zap.NewNop())
	if err != nil {
		fmt.Fprintf(c.out, "  %s[-] %v%s\n", Red, err, Reset)
		return false
	}
	defer pub.Close()

	messageID := uuid.NewString()
	if err := pub.Publish(ctx, routingKey, []byte(body), messageID, uuid.NewString()); err != nil {
		fmt.Fprintf(c.out, "  %s[-] publish failed: %v%s\n", Red, err, Reset)
		return false
	}
	fmt.Fprintf(c.out, "  %s[+]%s published %s %s(%s)%s\n", Green, Reset, routingKey, Dim, messageID, Reset)
	return true
}

func (c *cli) match(pattern, key string) bool {
	if err := rabbitmq.ValidatePattern(pattern); err != nil {
		fmt.Fprintf(c.out, "  %s%v%s\n", Red, err, Reset)
		return false
	}
	if rabbitmq.MatchRoutingKey(pattern, key) {
		fmt.Fprintf(c.out, "  %s[+]%s %s matches %s\n", Green, Reset, key, pattern)
	} else {
		fmt.Fprintf(c.out, "  %s[-]%s %s does not match %s\n", Yellow, Reset, key, pattern)
	}
	return true
}

func (c *cli) printRabbitQueues() bool {
	fmt.Fprintf(c.out, "  %s%sRabbitMQ Queues%s\n", Bold, White, Reset)

	out, err := exec.Command("rabbitmqctl", "list_queues", "name", "messages", "consumers", "--quiet").Output()
	output := strings.TrimSpace(string(out))
	if err != nil || output == "" {
		fmt.Fprintf(c.out, "  %s[-] rabbitmqctl not available%s\n", Dim, Reset)
		return false
	}

	fmt.Fprintf(c.out, "  %s%-35s %8s %10s%s\n", Dim, "QUEUE", "MSGS", "CONSUMERS", Reset)
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		color := Green
		if fields[1] != "0" {
			color = Yellow
		}
		fmt.Fprintf(c.out, "  %s%-35s %s%8s%s %10s\n", Dim, fields[0], color, fields[1], Reset, fields[2])
	}
	return true
}
