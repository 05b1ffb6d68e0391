package process

import (
	"github.com/kballard/go-shellquote"
)

// Command is an executable plus its argument vector, built in insertion order.
// It is always executed directly, never through a shell.
type Command struct {
	name string
	args []string
}

// NewCommand starts a command for the given executable
func NewCommand(name string) *Command {
	return &Command{name: name}
}

// AddArgument appends a positional argument
func (c *Command) AddArgument(arg string) *Command {
	c.args = append(c.args, arg)
	return c
}

// AddFlag appends a flag followed by its values, if any
func (c *Command) AddFlag(flag string, values ...string) *Command {
	c.args = append(c.args, flag)
	c.args = append(c.args, values...)
	return c
}

// Name returns the executable
func (c *Command) Name() string {
	return c.name
}

// Args returns a copy of the argument vector
func (c *Command) Args() []string {
	return append([]string(nil), c.args...)
}

// String renders the command shell-quoted, for logs only
func (c *Command) String() string {
	return shellquote.Join(append([]string{c.name}, c.args...)...)
}
