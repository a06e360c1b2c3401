package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"outmentor/domain/search"
	"outmentor/errors"
	"outmentor/infrastructure/api"
	"outmentor/infrastructure/grpc/client"

	"github.com/gookit/color"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerAddr string `envconfig:"OUTMENTOR_ADDR" default:"localhost:50051"`
	Token      string `envconfig:"OUTMENTOR_TOKEN" required:"true"`
	Colours    bool   `envconfig:"OUTMENTOR_COLOURS" default:"true"`
}

const help = `commands:
  /me                         show your profile
  /register {json profile}    create or update your profile
  /search [name] [--state SP] [--limit 5]
  /connect <profile id>       ask to connect
  /accept <connection id>     /decline <connection id>
  /pending                    /list
  /open <connection id>       follow a conversation; plain lines are then sent to it
  /history <connection id>
  /meet <connection id> [title]
  /meetings <connection id>
  /quit`

type repl struct {
	c       *client.Client
	out     io.Writer
	colours bool
	current string
	cancel  context.CancelFunc
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(2)
	}

	c, err := client.Dial(config.ServerAddr, config.Token)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := &repl{c: c, out: os.Stdout, colours: config.Colours}
	r.info("connected to " + config.ServerAddr + ", /help for commands")

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok || strings.TrimSpace(line) == "/quit" {
				return
			}
			if err := r.handle(ctx, line); err != nil {
				r.fail(err)
			}
		}
	}
}

func (r *repl) paint(style color.Style, s string) string {
	if !r.colours {
		return s
	}
	return style.Render(s)
}

func (r *repl) info(s string) {
	fmt.Fprintln(r.out, r.paint(color.New(color.FgCyan), s))
}

func (r *repl) fail(err error) {
	err = errors.FromCode(err)
	fmt.Fprintln(r.out, r.paint(color.New(color.FgRed), fmt.Sprintf("[%s] %v", errors.Kind(err), err)))
}

func (r *repl) dump(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(r.out, string(b))
}

func (r *repl) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, "/") {
		if r.current == "" {
			r.info("no open conversation, /open <connection id> first")
			return nil
		}
		_, err := r.c.Send(ctx, &api.SendRequest{ConnectionID: r.current, Content: line})
		return err
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/help":
		fmt.Fprintln(r.out, help)
	case "/me":
		res, err := r.c.GetProfile(ctx, &api.GetProfileRequest{})
		if err != nil {
			return err
		}
		r.dump(res.Profile)
	case "/register":
		var profile api.Profile
		if err := json.Unmarshal([]byte(arg), &profile); err != nil {
			return fmt.Errorf("%w: profile must be JSON: %v", errors.ErrInvalidArgument, err)
		}
		res, err := r.c.RegisterProfile(ctx, &api.RegisterProfileRequest{Profile: profile})
		if err != nil {
			return err
		}
		r.dump(res.Profile)
	case "/search":
		filter := search.ParseFilter(arg)
		res, err := r.c.Search(ctx, &api.SearchRequest{State: filter.State, NameContains: filter.NameContains, Limit: filter.Limit})
		if err != nil {
			return err
		}
		for _, p := range res.Profiles {
			fmt.Fprintf(r.out, "%s  %s  %s/%s\n", r.paint(color.New(color.FgYellow), p.ID), p.Name, p.City, p.State)
		}
		r.info(fmt.Sprintf("%d result(s)", len(res.Profiles)))
	case "/connect":
		res, err := r.c.Initiate(ctx, &api.InitiateRequest{TargetID: arg})
		if err != nil {
			return err
		}
		r.info(fmt.Sprintf("connection %s is %s", res.Connection.ID, res.Connection.Status))
	case "/accept", "/decline":
		res, err := r.c.Respond(ctx, &api.RespondRequest{ConnectionID: arg, Accept: cmd == "/accept"})
		if err != nil {
			return err
		}
		r.info(fmt.Sprintf("connection %s is %s", res.Connection.ID, res.Connection.Status))
	case "/pending", "/list":
		var res *api.ListConnectionsResponse
		var err error
		if cmd == "/pending" {
			res, err = r.c.ListPending(ctx, &api.ListConnectionsRequest{})
		} else {
			res, err = r.c.ListAccepted(ctx, &api.ListConnectionsRequest{})
		}
		if err != nil {
			return err
		}
		for _, v := range res.Connections {
			direction := "sent"
			if v.Incoming {
				direction = "received"
			}
			fmt.Fprintf(r.out, "%s  %s (%s)  %s\n", r.paint(color.New(color.FgYellow), v.Connection.ID), v.Counterpart.Name, v.Counterpart.ID, direction)
		}
	case "/open":
		return r.open(ctx, arg)
	case "/history":
		res, err := r.c.History(ctx, &api.HistoryRequest{ConnectionID: arg})
		if err != nil {
			return err
		}
		for _, m := range res.Messages {
			r.print(m)
		}
	case "/meet":
		id, title, _ := strings.Cut(arg, " ")
		res, err := r.c.ScheduleMeeting(ctx, &api.ScheduleMeetingRequest{ConnectionID: id, Title: title})
		if err != nil {
			return err
		}
		r.info(fmt.Sprintf("%s: %s", res.Meeting.Title, res.Meeting.JoinURL))
	case "/meetings":
		res, err := r.c.ListMeetings(ctx, &api.ListMeetingsRequest{ConnectionID: arg})
		if err != nil {
			return err
		}
		for _, m := range res.Meetings {
			fmt.Fprintf(r.out, "%s  %s  %s\n", m.ScheduledAt.Local().Format(time.DateTime), m.Title, m.JoinURL)
		}
	default:
		r.info("unknown command, /help for the list")
	}
	return nil
}

func (r *repl) print(m api.Message) {
	fmt.Fprintf(r.out, "%s %s %s\n",
		r.paint(color.New(color.FgGray), fmt.Sprintf("#%d %s", m.Seq, m.CreatedAt.Local().Format(time.TimeOnly))),
		r.paint(color.New(color.FgGreen, color.OpBold), m.SenderID+":"),
		m.Content)
}

// open follows one conversation at a time; it subscribes again when the server drops the stream.
func (r *repl) open(ctx context.Context, connectionID string) error {
	if r.cancel != nil {
		r.cancel()
	}
	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := r.c.Subscribe(streamCtx, &api.SubscribeRequest{ConnectionID: connectionID})
	if err != nil {
		cancel()
		return err
	}
	r.current, r.cancel = connectionID, cancel
	r.info("following " + connectionID)

	go func() {
		var last uint64
		for {
			event, err := stream.Recv()
			if err != nil {
				if streamCtx.Err() != nil {
					return
				}
				r.fail(err)
				time.Sleep(time.Second)
				stream, err = r.c.Subscribe(streamCtx, &api.SubscribeRequest{ConnectionID: connectionID})
				if err != nil {
					r.fail(err)
					return
				}
				continue
			}
			if event.Message == nil || event.Message.Seq <= last {
				continue
			}
			last = event.Message.Seq
			r.print(*event.Message)
		}
	}()
	return nil
}
