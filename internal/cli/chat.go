package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	httpAdapter "github.com/aretw0/easel/pkg/adapters/http"
	"github.com/aretw0/easel/internal/presentation/tui"
	"github.com/aretw0/easel/pkg/domain"
)

// ChatOptions configures RunChat.
type ChatOptions struct {
	Server  string // base URL of a running easel server
	Session string
	Model   string
	Apply   bool

	In     io.Reader
	Out    io.Writer
	Render func(string) (string, error) // nil prints plain text

	HTTPClient *http.Client
}

type chatReply struct {
	Message  string           `json:"message"`
	Commands []any            `json:"commands"`
	Applied  *int             `json:"applied"`
	Outcomes []domain.Outcome `json:"outcomes"`
	Error    string           `json:"error"`
}

// RunChat reads instructions line by line and sends them to the server
// until EOF, "exit" or "quit". "/clear" clears the canvas and the chat log,
// "/context" prints the canvas context.
func RunChat(ctx context.Context, opts ChatOptions) error {
	if opts.Render == nil {
		opts.Render = tui.Plain
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	c := &chatClient{opts: opts}

	scanner := bufio.NewScanner(opts.In)
	for {
		fmt.Fprint(opts.Out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(opts.Out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(opts.Out, "Bye!")
			return nil
		case "/clear":
			c.clear(ctx)
			continue
		case "/context":
			c.context(ctx)
			continue
		}

		var reply chatReply
		err := c.do(ctx, http.MethodPost, "/api/chat/message", map[string]any{
			"message": line,
			"model":   opts.Model,
			"apply":   opts.Apply,
		}, &reply)
		if err != nil {
			fmt.Fprintf(opts.Out, "Error: %v\n", err)
			continue
		}

		md := reply.Message
		if reply.Applied != nil {
			md += "\n\n" + tui.ReportMarkdown(*reply.Applied, reply.Outcomes)
		} else if len(reply.Commands) > 0 {
			md += fmt.Sprintf("\n\n_%d command(s) proposed, not applied._", len(reply.Commands))
		}
		c.print(md)
	}
}

type chatClient struct {
	opts ChatOptions
}

func (c *chatClient) print(md string) {
	out, err := c.opts.Render(md)
	if err != nil {
		out = md + "\n"
	}
	fmt.Fprint(c.opts.Out, out)
}

func (c *chatClient) clear(ctx context.Context) {
	if err := c.do(ctx, http.MethodDelete, "/api/canvas/clear", nil, nil); err != nil {
		fmt.Fprintf(c.opts.Out, "Error: %v\n", err)
		return
	}
	if err := c.do(ctx, http.MethodPost, "/api/chat/clear", nil, nil); err != nil {
		fmt.Fprintf(c.opts.Out, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.opts.Out, "Canvas and chat history cleared.")
}

func (c *chatClient) context(ctx context.Context) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/canvas/context", nil, &raw); err != nil {
		fmt.Fprintf(c.opts.Out, "Error: %v\n", err)
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		pretty.Write(raw)
	}
	c.print("```json\n" + pretty.String() + "\n```")
}

func (c *chatClient) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.opts.Server, "/")+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.opts.Session != "" {
		req.Header.Set(httpAdapter.SessionHeader, c.opts.Session)
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return fmt.Errorf("%s (%d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
