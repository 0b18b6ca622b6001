package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/taskkeeper/internal/client/api"
	"github.com/dmitrijs2005/taskkeeper/internal/client/config"
)

// APIClient is the server surface the commands use. *api.Client satisfies it.
type APIClient interface {
	SetToken(token string)
	Token() string
	Register(ctx context.Context, username, email, password string) (*api.Token, error)
	Login(ctx context.Context, usernameOrEmail, password string) (*api.Token, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*api.Me, error)
	Lists(ctx context.Context, page, perPage int) ([]api.List, error)
	CreateList(ctx context.Context, req api.CreateListRequest) (*api.List, error)
	Tasks(ctx context.Context, listID *int64, page, perPage int) ([]api.Task, error)
	CreateTask(ctx context.Context, req api.CreateTaskRequest) (*api.Task, error)
	UpdateTask(ctx context.Context, id int64, req api.UpdateTaskRequest) (*api.Task, error)
}

type App struct {
	config *config.Config
	api    APIClient
	tokens *TokenStore
	reader *bufio.Reader
	out    io.Writer
}

// NewApp builds the client and loads a previously stored token, if any.
func NewApp(c *config.Config) (*App, error) {
	tokens := NewTokenStore(c.TokenFile)
	token, err := tokens.Load()
	if err != nil {
		return nil, fmt.Errorf("load token: %w", err)
	}

	return &App{
		config: c,
		api:    api.New(c.ServerURL, token, c.RequestTimeout),
		tokens: tokens,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}, nil
}

func (a *App) isLoggedIn() bool {
	return a.api.Token() != ""
}

// Run executes args as a single command, or starts the REPL when args is
// empty.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Welcome to TaskKeeper CLI (type 'help' for commands)")
		runREPL(ctx, a, a.out, bufio.NewScanner(a.reader))
		return nil
	}
	return a.Exec(ctx, args[0], args[1:])
}

// Exec runs one command. Failures are also reported to the user.
func (a *App) Exec(ctx context.Context, cmd string, args []string) error {
	var err error
	switch cmd {
	case "register":
		err = a.Register(ctx)
	case "login":
		err = a.Login(ctx)
	case "logout":
		err = a.Logout(ctx)
	case "me":
		err = a.Me(ctx)
	case "lists":
		err = a.Lists(ctx)
	case "addlist":
		err = a.AddList(ctx)
	case "tasks":
		err = a.Tasks(ctx, args)
	case "addtask":
		err = a.AddTask(ctx)
	case "done":
		err = a.Done(ctx, args)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
	if err != nil {
		a.report(err)
	}
	return err
}
