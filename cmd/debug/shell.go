package debug

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hitzhangjie/cdbg/pkg/target"
	"github.com/mitchellh/go-homedir"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const (
	cmdGroupAnnotation = "cmd_group_annotation"

	cmdGroupBreakpoints = "1-breaks"
	cmdGroupSource      = "2-source"
	cmdGroupCtrlFlow    = "3-execute"
	cmdGroupInfo        = "4-info"
	cmdGroupOthers      = "5-other"
	cmdGroupCobra       = "other"

	cmdGroupDelimiter = "-"

	prompt    = "cdbg> "
	descShort = "cdbg interactive debugging commands"

	historyFile = ".cdbg_history"
)

var debugRootCmd = &cobra.Command{
	Use:   "help [command]",
	Short: descShort,
}

var (
	CurrentSession *DebugSession
)

// DebugSession drives one interactive debugging session: a line editor
// feeding the debugging command tree, bound to a single Debugger.
type DebugSession struct {
	done    chan bool
	prompt  string
	root    *cobra.Command
	liner   *liner.State
	last    string
	history string

	dbg *target.Debugger

	defers []func()
}

// NewDebugSession creates the interactive session around dbg.
func NewDebugSession(dbg *target.Debugger) *DebugSession {
	fn := func(cmd *cobra.Command, args []string) {
		fmt.Println(cmd.Short)
		fmt.Println()

		fmt.Println(cmd.Use)
		fmt.Println(cmd.Flags().FlagUsages())

		usage := helpMessageByGroups(cmd)
		fmt.Println(usage)
	}
	debugRootCmd.SetHelpFunc(fn)

	history := ""
	if home, err := homedir.Dir(); err == nil {
		history = filepath.Join(home, historyFile)
	}

	return &DebugSession{
		done:    make(chan bool),
		prompt:  prompt,
		root:    debugRootCmd,
		liner:   liner.NewLiner(),
		last:    "",
		history: history,
		dbg:     dbg,
	}
}

func (s *DebugSession) Start() {
	s.liner.SetCompleter(completer)
	s.liner.SetTabCompletionStyle(liner.TabPrints)
	s.loadHistory()

	defer func() {
		for idx := len(s.defers) - 1; idx >= 0; idx-- {
			s.defers[idx]()
		}
	}()

	for {
		select {
		case <-s.done:
			s.saveHistory()
			s.liner.Close()
			return
		default:
		}

		txt, err := s.liner.Prompt(s.prompt)
		if err != nil {
			s.saveHistory()
			s.liner.Close()
			return
		}

		txt = strings.TrimSpace(txt)
		if len(txt) != 0 {
			s.last = txt
			s.liner.AppendHistory(txt)
		} else {
			txt = s.last
		}
		if len(txt) == 0 {
			continue
		}

		s.root.SetArgs(strings.Split(txt, " "))
		s.root.Execute()
	}
}

func (s *DebugSession) AtExit(fn func()) *DebugSession {
	s.defers = append(s.defers, fn)
	return s
}

func (s *DebugSession) Stop() {
	close(s.done)
}

func (s *DebugSession) loadHistory() {
	if s.history == "" {
		return
	}
	f, err := os.Open(s.history)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = s.liner.ReadHistory(f)
}

func (s *DebugSession) saveHistory() {
	if s.history == "" {
		return
	}
	f, err := os.Create(s.history)
	if err != nil {
		fmt.Fprintf(os.Stderr, "save history: %v\n", err)
		return
	}
	defer f.Close()
	_, _ = s.liner.WriteHistory(f)
}

func completer(line string) []string {
	cmds := []string{}
	for _, c := range debugRootCmd.Commands() {
		// complete cmd
		if strings.HasPrefix(c.Use, line) {
			cmds = append(cmds, strings.Split(c.Use, " ")[0])
		}
		// complete cmd's aliases
		for _, alias := range c.Aliases {
			if strings.HasPrefix(alias, line) {
				cmds = append(cmds, alias)
			}
		}
	}
	return cmds
}

// helpMessageByGroups renders the help of the command tree grouped by
// command category.
func helpMessageByGroups(cmd *cobra.Command) string {
	// key:group, val:sorted commands in same group
	groups := map[string][]string{}
	for _, c := range cmd.Commands() {
		// commands without a group go into the other group
		var groupName string
		v, ok := c.Annotations[cmdGroupAnnotation]
		if !ok {
			groupName = "other"
		} else {
			groupName = v
		}

		groupCmds, ok := groups[groupName]
		groupCmds = append(groupCmds, fmt.Sprintf("  %-16s:%s", c.Name(), c.Short))
		sort.Strings(groupCmds)

		groups[groupName] = groupCmds
	}

	if len(groups[cmdGroupCobra]) != 0 {
		groups[cmdGroupOthers] = append(groups[cmdGroupOthers], groups[cmdGroupCobra]...)
	}
	delete(groups, cmdGroupCobra)

	groupNames := []string{}
	for k := range groups {
		groupNames = append(groupNames, k)
	}
	sort.Strings(groupNames)

	buf := bytes.Buffer{}
	for _, groupName := range groupNames {
		commands := groups[groupName]

		group := strings.Split(groupName, cmdGroupDelimiter)[1]
		buf.WriteString(fmt.Sprintf("- [%s]\n", group))

		for _, cmd := range commands {
			buf.WriteString(fmt.Sprintf("%s\n", cmd))
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
