// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"captionline/internal/auth"
	"captionline/internal/commands"
	"captionline/internal/generate"
	"captionline/internal/history"
)

var (
	errNoProfile           = errors.New("login succeeded but no user was returned")
	errNothingToRegenerate = errors.New("no request to regenerate")
	errNothingToSave       = errors.New("no result to save")
)

// unlistedEntryError is returned by /view and /save for a reference that is
// neither a position in the last listing nor a listed id.
type unlistedEntryError struct {
	Ref string
}

func (e *unlistedEntryError) Error() string {
	return fmt.Sprintf("no listed entry %q", e.Ref)
}

func (a *app) newRegistry() *commands.Registry {
	r := commands.NewRegistry(func() error {
		_, err := a.gate.Require()
		return err
	})

	r.Register(commands.Command{Name: "help", Description: "Show available commands", Public: true, Handler: a.cmdHelp(r)})
	r.Register(commands.Command{Name: "register", Description: "Create an account", Public: true, Handler: a.cmdRegister})
	r.Register(commands.Command{Name: "login", Usage: "[email]", Description: "Sign in", Public: true, Handler: a.cmdLogin})
	r.Register(commands.Command{Name: "logout", Description: "Sign out", Handler: a.cmdLogout})
	r.Register(commands.Command{Name: "me", Description: "Show the signed-in user", Handler: a.cmdMe})
	r.Register(commands.Command{Name: "tool", Usage: "[name]", Description: "Show or switch the generator", Handler: a.cmdTool})
	r.Register(commands.Command{Name: "lang", Usage: "[en|id]", Description: "Show or switch the output language", Handler: a.cmdLang})
	r.Register(commands.Command{Name: "regen", Usage: "[text]", Description: "Regenerate the last request", Handler: a.cmdRegen})
	r.Register(commands.Command{Name: "cancel", Description: "Cancel pending generations", Handler: a.cmdCancel})
	r.Register(commands.Command{Name: "history", Usage: "[limit]", Description: "List recent generations", Handler: a.cmdHistory})
	r.Register(commands.Command{Name: "saved", Description: "List saved generations", Handler: a.cmdSaved})
	r.Register(commands.Command{Name: "view", Usage: "<n|id>", Description: "Show a listed generation in full", Handler: a.cmdView})
	r.Register(commands.Command{Name: "save", Usage: "[id]", Description: "Toggle saved on the current result or an id", Handler: a.cmdSave})
	r.Register(commands.Command{Name: "theme", Description: "Reload the theme file", Public: true, Handler: a.cmdTheme})
	r.Register(commands.Command{Name: "quit", Description: "Exit the application", Public: true, Handler: cmdQuit})
	r.Register(commands.Command{Name: "exit", Description: "Exit the application", Public: true, Handler: cmdQuit})
	return r
}

func cmdQuit(context.Context, []string) error {
	return commands.ErrQuit
}

func (a *app) cmdHelp(r *commands.Registry) commands.Handler {
	return func(ctx context.Context, args []string) error {
		var b strings.Builder
		b.WriteString(a.colors().Header.Sprint("Available Commands:") + "\n")
		for _, cmd := range r.Commands() {
			usage := "/" + cmd.Name
			if cmd.Usage != "" {
				usage += " " + cmd.Usage
			}
			fmt.Fprintf(&b, "  %-18s - %s\n", usage, cmd.Description)
		}
		b.WriteString("\nAnything else you type is sent to the current generator.\n")
		b.WriteString("Ctrl+C cancels pending generations, Ctrl+D exits.")
		a.println(b.String())
		return nil
	}
}

func (a *app) cmdRegister(ctx context.Context, args []string) error {
	name, err := a.prompt.ReadLine("Name: ")
	if err != nil {
		return err
	}
	email, err := a.prompt.ReadLine("Email: ")
	if err != nil {
		return err
	}
	password, err := a.prompt.ReadSecret("Password: ")
	if err != nil {
		return err
	}

	in := auth.RegisterInput{Name: name, Email: email, Password: password}
	err = a.runOperation(ctx, func(ctx context.Context) error {
		_, err := a.auth.Register(ctx, in)
		return err
	})
	if err != nil {
		return err
	}
	a.success("Account created for %s, use /login to sign in", in.Normalize().Email)
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	email := strings.Join(args, " ")
	if email == "" {
		var err error
		if email, err = a.prompt.ReadLine("Email: "); err != nil {
			return err
		}
	}
	password, err := a.prompt.ReadSecret("Password: ")
	if err != nil {
		return err
	}
	return a.runOperation(ctx, func(ctx context.Context) error {
		if _, err := a.auth.Login(ctx, auth.LoginInput{Email: email, Password: password}); err != nil {
			return err
		}
		if a.gate.Check(ctx) != auth.StatusAuthenticated {
			return errNoProfile
		}
		a.success("Logged in as %s", a.gate.User().Name)
		return nil
	})
}

func (a *app) cmdLogout(ctx context.Context, args []string) error {
	a.sites.CancelAll()
	err := a.runOperation(ctx, a.auth.Logout)
	a.gate.Reset()
	a.setListed(nil)
	if err != nil {
		return err
	}
	a.success("Logged out")
	return nil
}

func (a *app) cmdMe(ctx context.Context, args []string) error {
	return a.runOperation(ctx, func(ctx context.Context) error {
		user, err := a.auth.Me(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			a.gate.Reset()
			return auth.ErrUnauthenticated
		}
		a.gate.SetUser(user)
		a.println(fmt.Sprintf("%s <%s>", user.Name, user.Email))
		a.muted("id %s", user.ID)
		return nil
	})
}

func (a *app) cmdTool(ctx context.Context, args []string) error {
	if len(args) == 0 {
		tool, _ := a.current()
		names := make([]string, 0, 4)
		for _, t := range generate.KnownTools() {
			names = append(names, string(t))
		}
		a.println(fmt.Sprintf("Current tool: %s", history.Title(tool)))
		a.muted("Available: %s (other names use the generic endpoint)", strings.Join(names, ", "))
		return nil
	}
	tool, err := generate.ParseTool(strings.Join(args, "-"))
	if err != nil {
		return err
	}
	a.setTool(tool)
	a.success("Tool: %s", history.Title(tool))
	if !tool.Known() {
		a.muted("%s has no dedicated endpoint, requests go to %s", tool, generate.GenericEndpoint)
	}
	return nil
}

func (a *app) cmdLang(ctx context.Context, args []string) error {
	if len(args) == 0 {
		_, lang := a.current()
		a.println(fmt.Sprintf("Current language: %s", lang))
		return nil
	}
	lang, err := generate.ParseLang(strings.Join(args, " "))
	if err != nil {
		return err
	}
	a.setLang(lang)
	a.success("Language: %s", lang)
	return nil
}

func (a *app) cmdRegen(ctx context.Context, args []string) error {
	tool, _ := a.current()
	site := a.sites.For(tool)
	input := strings.Join(args, " ")
	if _, ok := site.LastRequest(); !ok && strings.TrimSpace(input) == "" {
		return errNothingToRegenerate
	}
	a.startGeneration(ctx, input, true)
	return nil
}

func (a *app) cmdCancel(ctx context.Context, args []string) error {
	n := a.sites.CancelAll()
	if n == 0 {
		a.muted("Nothing to cancel")
		return nil
	}
	a.success("Cancelled %d generation(s)", n)
	return nil
}

func (a *app) cmdHistory(ctx context.Context, args []string) error {
	limit := a.cfg.HistoryPageSize()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("limit must be a positive number, got %q", args[0])
		}
		limit = n
	}
	return a.runOperation(ctx, func(ctx context.Context) error {
		items, err := a.history.List(ctx, limit)
		if err != nil {
			return err
		}
		a.showItems(items, "No history yet. Try generating something!")
		return nil
	})
}

func (a *app) cmdSaved(ctx context.Context, args []string) error {
	return a.runOperation(ctx, func(ctx context.Context) error {
		items, err := a.history.Saved(ctx)
		if err != nil {
			return err
		}
		a.showItems(items, "Nothing saved yet. Use /save after a generation.")
		return nil
	})
}

func (a *app) showItems(items []history.Item, empty string) {
	a.setListed(items)
	if len(items) == 0 {
		a.muted("%s", empty)
		return
	}
	a.println(renderItems(items, previewWidth()))
	a.muted("/view <n> shows an entry in full")
}

func renderItems(items []history.Item, preview int) string {
	data := pterm.TableData{{"#", "Tool", "Input", "Created", "Saved"}}
	for i, it := range items {
		created := it.CreatedAt
		if t, ok := it.Created(); ok {
			created = t.Local().Format("2006-01-02 15:04")
		}
		saved := ""
		if it.IsSaved {
			saved = "★"
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			history.Title(it.Tool),
			history.Preview(it.InputText, preview),
			created,
			saved,
		})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Sprintf("%d items", len(items))
	}
	return out
}

func (a *app) cmdView(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("usage: /view <n|id>")
	}
	item, ok := findItem(a.listedItems(), args[0])
	if !ok {
		return &unlistedEntryError{Ref: args[0]}
	}
	colors := a.colors()
	var b strings.Builder
	b.WriteString(colors.Header.Sprint(history.Title(item.Tool)))
	b.WriteString(colors.Muted.Sprintf(" · %s · id %s\n", item.CreatedAt, item.ID))
	b.WriteString(colors.Prompt.Sprint("Input") + "\n")
	b.WriteString(strings.TrimSpace(item.InputText) + "\n")
	b.WriteString(colors.Prompt.Sprint("Output") + "\n")
	b.WriteString(colors.Output.Sprint(history.RawOutput(item.OutputText)))
	a.println(b.String())
	return nil
}

// findItem resolves a 1-based list position or an id.
func findItem(items []history.Item, ref string) (history.Item, bool) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(items) {
		return items[n-1], true
	}
	for _, it := range items {
		if it.ID == ref {
			return it, true
		}
	}
	return history.Item{}, false
}

func (a *app) cmdSave(ctx context.Context, args []string) error {
	tool, _ := a.current()
	site := a.sites.For(tool)

	id := ""
	if len(args) > 0 {
		id = args[0]
		if item, ok := findItem(a.listedItems(), id); ok {
			id = item.ID
		}
	} else {
		res, ok := site.Current()
		if !ok {
			return errNothingToSave
		}
		if !res.CanSave() {
			return history.ErrMissingGenerationID
		}
		id = res.GenerationID
	}

	return a.runOperation(ctx, func(ctx context.Context) error {
		res, err := a.history.ToggleSave(ctx, id)
		if err != nil {
			return err
		}
		site.MarkSaved(res.ID, res.IsSaved)
		if res.IsSaved {
			a.success("Saved")
		} else {
			a.success("Removed from saved")
		}
		return nil
	})
}

func (a *app) cmdTheme(ctx context.Context, args []string) error {
	if a.themes.Path() == "" {
		a.muted("No theme_file configured, using the default theme")
		return nil
	}
	if err := a.themes.Reload(); err != nil {
		return err
	}
	a.success("Theme reloaded from %s", a.themes.Path())
	return nil
}
