package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/client/api"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
	ErrNotLoggedIn    = errors.New("not logged in")
)

const dateLayout = "2006-01-02"

// report prints err in a form meant for people.
func (a *App) report(err error) {
	var httpErr *api.HTTPError
	switch {
	case errors.As(err, &httpErr):
		fmt.Fprintln(a.out, "Error:", httpErr.Message)
		if httpErr.StatusCode == http.StatusUnauthorized && a.isLoggedIn() {
			fmt.Fprintln(a.out, "Your session is no longer valid, please login again.")
		}
	case errors.Is(err, ErrNotLoggedIn):
		fmt.Fprintln(a.out, "Please login or register first.")
	default:
		fmt.Fprintln(a.out, "Error:", err)
	}
}

func (a *App) requireLogin() error {
	if !a.isLoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

func (a *App) storeToken(tok *api.Token) error {
	a.api.SetToken(tok.Token)
	if err := a.tokens.Save(tok.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (a *App) Register(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "Enter user name", a.out)
	if err != nil {
		return err
	}
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	tok, err := a.api.Register(ctx, username, email, string(password))
	if err != nil {
		return err
	}
	if err := a.storeToken(tok); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Registered and logged in as", username)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	login, err := GetSimpleText(a.reader, "Enter user name or email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(password)

	tok, err := a.api.Login(ctx, login, string(password))
	if err != nil {
		return err
	}
	if err := a.storeToken(tok); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Logged in")
	return nil
}

// Logout voids the session on the server and forgets the local token. The
// token is forgotten even when the server already considers it void.
func (a *App) Logout(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	err := a.api.Logout(ctx)
	if err != nil && !api.IsStatus(err, http.StatusUnauthorized) {
		return err
	}

	a.api.SetToken("")
	if err := a.tokens.Clear(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}

	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func (a *App) Me(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	me, err := a.api.Me(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s <%s>\n", me.Username, me.Email)
	return nil
}

func (a *App) Lists(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	lists, err := a.api.Lists(ctx, 0, 0)
	if err != nil {
		return err
	}

	if len(lists) == 0 {
		fmt.Fprintln(a.out, "No lists")
		return nil
	}
	for _, l := range lists {
		fmt.Fprintf(a.out, "%d\t%s\n", l.ID, l.Name)
	}
	return nil
}

func (a *App) AddList(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	name, err := GetSimpleText(a.reader, "Enter list name", a.out)
	if err != nil {
		return err
	}

	l, err := a.api.CreateList(ctx, api.CreateListRequest{Name: name})
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "List %d created\n", l.ID)
	return nil
}

// Tasks prints tasks, optionally only those in the list given as the first
// argument.
func (a *App) Tasks(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	var listID *int64
	if len(args) > 0 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("%w: tasks [list_id]", ErrUsage)
		}
		listID = &id
	}

	tasks, err := a.api.Tasks(ctx, listID, 0, 0)
	if err != nil {
		return err
	}

	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks")
		return nil
	}
	for _, t := range tasks {
		mark := " "
		if t.Done {
			mark = "x"
		}
		line := fmt.Sprintf("[%s] %d\t%s", mark, t.ID, t.Summary)
		if t.DueDate != nil {
			line += " (due " + *t.DueDate + ")"
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func (a *App) AddTask(ctx context.Context) error {
	if err := a.requireLogin(); err != nil {
		return err
	}

	rawList, err := GetSimpleText(a.reader, "Enter list id", a.out)
	if err != nil {
		return err
	}
	listID, err := strconv.ParseInt(rawList, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: list id must be a number", ErrUsage)
	}

	summary, err := GetSimpleText(a.reader, "Enter summary", a.out)
	if err != nil {
		return err
	}

	due, err := GetSimpleText(a.reader, "Enter due date (YYYY-MM-DD, empty for none)", a.out)
	if err != nil {
		return err
	}

	req := api.CreateTaskRequest{TodoListID: listID, Summary: summary}
	if due != "" {
		if _, err := time.Parse(dateLayout, due); err != nil {
			return fmt.Errorf("%w: due date must look like 2006-01-02", ErrUsage)
		}
		req.DueDate = &due
	}

	t, err := a.api.CreateTask(ctx, req)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Task %d created\n", t.ID)
	return nil
}

// Done marks the task given as the first argument as done.
func (a *App) Done(ctx context.Context, args []string) error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: done <task_id>", ErrUsage)
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("%w: done <task_id>", ErrUsage)
	}

	done := true
	if _, err := a.api.UpdateTask(ctx, id, api.UpdateTaskRequest{Done: &done}); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Task %d done\n", id)
	return nil
}
