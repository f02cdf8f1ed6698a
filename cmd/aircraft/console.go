package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ubivismedia/aircraft/internal/dispatcher"
	"github.com/ubivismedia/aircraft/internal/geo"
	"github.com/ubivismedia/aircraft/internal/handlers"
	"github.com/ubivismedia/aircraft/internal/hostsim"
	"github.com/ubivismedia/aircraft/internal/parser"
	"github.com/ubivismedia/aircraft/pkg/core"
)

const consoleHelp = `Lines have the form "<player>: <action>".
Actions:
  /aircraft <subcommand> [args]   run a player command
  join [x,y,z]                    join the default world
  move <x,y,z>                    move inside the current world
  click <material>                click an item in the open menu
Other lines:
  worlds                          list worlds and their block counts
  help                            show this text
  quit                            exit`

// console drives the in-memory host from text lines, standing in for the
// game server.
type console struct {
	host       *hostsim.Host
	service    *handlers.Service
	dispatcher *dispatcher.Dispatcher
	spawn      core.Position
	out        io.Writer
}

// Run reads lines from in until EOF or quit.
func (c *console) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if !c.Handle(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

// Handle executes one line and prints what the host delivered. It returns
// false when the console should stop.
func (c *console) Handle(line string) bool {
	line = strings.TrimSpace(line)
	switch strings.ToLower(line) {
	case "":
		return true
	case "quit", "exit":
		return false
	case "help":
		fmt.Fprintln(c.out, consoleHelp)
		return true
	case "worlds":
		c.printWorlds()
		return true
	}

	owner, action, ok := strings.Cut(line, ":")
	owner = strings.TrimSpace(owner)
	action = strings.TrimSpace(action)
	if !ok || owner == "" || action == "" {
		fmt.Fprintln(c.out, `expected "<player>: <action>", try "help"`)
		return true
	}

	if err := c.act(owner, action); err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	c.flush()
	return true
}

func (c *console) act(owner, action string) error {
	verb, rest, _ := strings.Cut(action, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "/aircraft", "aircraft":
		return c.service.Execute(c.dispatcher, owner, action)

	case "join":
		pos := c.spawn
		if rest != "" {
			p, err := geo.PositionFromString(rest)
			if err != nil {
				return err
			}
			pos = p
		}
		c.host.Join(owner, pos)
		fmt.Fprintf(c.out, "%s joined %s at %s\n", owner, hostsim.DefaultWorld, pos)
		return nil

	case "move":
		pos, err := geo.PositionFromString(rest)
		if err != nil {
			return err
		}
		return c.host.Move(owner, pos)

	case "click":
		menu, open := c.host.OpenMenu(owner)
		if !open {
			return fmt.Errorf("%s has no open menu", owner)
		}
		c.host.CloseMenu(owner)
		line := "select " + rest
		if menu.ID != "" {
			line += " " + parser.MenuArg + menu.ID
		}
		return c.service.Execute(c.dispatcher, owner, line)

	default:
		return fmt.Errorf("unknown action %q", verb)
	}
}

// flush prints the menus opened and the chat lines sent since the last line.
func (c *console) flush() {
	for _, m := range c.host.OpenedMenus() {
		names := make([]string, len(m.Options))
		for i, o := range m.Options {
			names[i] = o.String()
		}
		fmt.Fprintf(c.out, "[%s] menu %q: %s\n", m.Owner, m.Title, strings.Join(names, ", "))
	}
	for _, msg := range c.host.Messages() {
		fmt.Fprintf(c.out, "[%s] %s\n", msg.Owner, msg.Text)
	}
}

func (c *console) printWorlds() {
	names := c.host.Worlds()
	sort.Strings(names)
	for _, name := range names {
		w, _ := c.host.World(name)
		fmt.Fprintf(c.out, "%s: %d blocks\n", name, w.Len())
	}
}
