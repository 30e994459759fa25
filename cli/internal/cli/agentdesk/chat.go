package agentdesk

import (
	"context"
	"os"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// NewChatCmd creates the chat command
func NewChatCmd(g *GlobalConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <agent-id>",
		Short: "Open an interactive chat with an agent",
		Long: `Open an interactive chat with an agent.

The agent's first session and that session's first task are selected on start.
Anything that is not a command is sent to the agent as a chat message.

Commands:
  approve                    run the function call the agent asked for
  decline                    refuse it
  session <n|id>             switch session (numbers are 1-based positions)
  task <n|id>                switch task within the current session
  skill <n> [message]        send a message to a skill of the current task
  auto [task|session|skill on|off]
                             show or change which function calls run unattended
  history                    print the conversation
  clear                      forget the conversation
  state                      print the selected agent, session and task

Examples:
  agentdesk chat agent-123
  agentdesk chat agent-123 --auto-switch-task=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), g, args[0])
		},
	}
}

func runChat(ctx context.Context, g *GlobalConfig, agentID string) error {
	client, err := g.Client(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	interactive := isatty.IsTerminal(os.Stdout.Fd())
	session := newChatSession(client, os.Stdout, interactive)
	defer session.close()

	if err := session.start(ctx, agentID); err != nil {
		return err
	}

	shell := newShell(ctx, session)
	shell.Run()
	return nil
}

// newShell maps REPL commands onto the chat session
func newShell(ctx context.Context, s *chatSession) *ishell.Shell {
	shell := ishell.New()
	shell.SetPrompt(userColor.Sprint("you> "))
	shell.SetOut(s.out)

	report := func(err error) {
		if err != nil {
			errorColor.Fprintf(s.out, "error: %v\n", err)
		}
	}

	shell.NotFound(func(c *ishell.Context) {
		report(s.send(ctx, strings.Join(c.Args, " ")))
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "approve",
		Help: "run the pending function call",
		Func: func(c *ishell.Context) { report(s.approve(ctx)) },
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "decline",
		Help: "refuse the pending function call",
		Func: func(c *ishell.Context) { report(s.decline()) },
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "session",
		Help: "switch session: session <n|id>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				errorColor.Fprintln(s.out, "usage: session <n|id>")
				return
			}
			report(s.selectSession(ctx, c.Args[0]))
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "task",
		Help: "switch task: task <n|id>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				errorColor.Fprintln(s.out, "usage: task <n|id>")
				return
			}
			report(s.selectTask(ctx, c.Args[0]))
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "skill",
		Help: "talk to a skill: skill <n> [message]",
		Func: func(c *ishell.Context) { report(s.skill(ctx, c.Args)) },
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "auto",
		Help: "show or set auto-execution: auto [task|session|skill on|off]",
		Func: func(c *ishell.Context) { report(s.setAuto(c.Args)) },
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "history",
		Help: "print the conversation",
		Func: func(c *ishell.Context) { s.printHistory() },
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "state",
		Help: "print the current agent, session and task",
		Func: func(c *ishell.Context) { s.printState(s.client.Coordinator.AgentState()) },
	})
	// ishell registers its own clear, which only clears the screen
	shell.DeleteCmd("clear")
	shell.AddCmd(&ishell.Cmd{
		Name: "clear",
		Help: "forget the conversation",
		Func: func(c *ishell.Context) { s.clearHistory() },
	})

	return shell
}
