// Package console drives duplicate removal from line-oriented prompts.
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fenilsonani/fskit/internal/dedup"
	"github.com/fenilsonani/fskit/internal/logging"
)

// Prompts shown to the operator
const (
	PromptChoose  = "Choose an action for duplicates? (y/n) or (use default): "
	PromptGroup   = "%d. 'remove all', 'save <numbers separated by space>', ''<SKIP>: "
	PromptDefault = "Default action (remove all, save first/last): "
)

// Engine is the part of *dedup.Engine a session needs
type Engine interface {
	Duplicates() *dedup.Result
	Remove(groupIndex int, keep []int) (*dedup.Removal, error)
}

// Policy is a blanket action applied to every group
type Policy int

const (
	PolicyRemoveAll Policy = iota
	PolicySaveFirst
	PolicySaveLast
)

// String returns the phrase that selects the policy
func (p Policy) String() string {
	switch p {
	case PolicySaveFirst:
		return "save first"
	case PolicySaveLast:
		return "save last"
	default:
		return "remove all"
	}
}

// ParsePolicy matches input by prefix, ignoring case
func ParsePolicy(input string) (Policy, bool) {
	s := strings.ToLower(strings.TrimSpace(input))
	for _, p := range []Policy{PolicyRemoveAll, PolicySaveFirst, PolicySaveLast} {
		if strings.HasPrefix(s, p.String()) {
			return p, true
		}
	}
	return 0, false
}

// Keep returns the 0-based keep indexes the policy selects in a group
func (p Policy) Keep(groupSize int) []int {
	switch p {
	case PolicySaveFirst:
		return []int{0}
	case PolicySaveLast:
		return []int{groupSize - 1}
	default:
		return nil
	}
}

// ParseSave reads "save 1 3" into 0-based indexes. Numbers are 1-based and
// must fall inside the group.
func ParseSave(input string, groupSize int) ([]int, error) {
	fields := strings.Fields(input)
	if len(fields) < 2 {
		return nil, errors.New("save needs at least one file number")
	}

	keep := make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", f)
		}
		if n < 1 || n > groupSize {
			return nil, fmt.Errorf("file number %d is out of range 1-%d", n, groupSize)
		}
		keep = append(keep, n-1)
	}
	return keep, nil
}

// Session is one interactive removal pass over an engine's groups
type Session struct {
	engine Engine
	in     *bufio.Reader
	out    io.Writer
	log    logrus.FieldLogger
}

// NewSession creates a session reading answers from in
func NewSession(engine Engine, in io.Reader, out io.Writer, log logrus.FieldLogger) *Session {
	return &Session{
		engine: engine,
		in:     bufio.NewReader(in),
		out:    out,
		log:    logging.OrDiscard(log),
	}
}

// Run asks whether to act on the duplicates and dispatches to the per-group
// or default-policy flow. Any other answer leaves the files alone.
func (s *Session) Run() error {
	if !s.engine.Duplicates().HasGroups() {
		return nil
	}

	answer, ok := s.ask(PromptChoose)
	if !ok {
		return nil
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return s.PerGroup()
	case "use default":
		policy, ok := s.askPolicy()
		if !ok {
			return nil
		}
		_, err := s.Apply(policy)
		return err
	default:
		return nil
	}
}

// PerGroup prompts once per group. Malformed save lists re-prompt the same
// group; an empty answer skips it.
func (s *Session) PerGroup() error {
	groups := s.engine.Duplicates().Groups

	for i := 0; i < len(groups); {
		answer, ok := s.ask(fmt.Sprintf(PromptGroup, i+1))
		if !ok {
			return nil
		}
		lower := strings.ToLower(answer)

		var keep []int
		switch {
		case strings.HasPrefix(lower, "remove all"):
		case strings.HasPrefix(lower, "save"):
			parsed, err := ParseSave(lower, len(groups[i].Files))
			if err != nil {
				fmt.Fprintf(s.out, "Invalid selection: %v\n", err)
				continue
			}
			keep = parsed
		default:
			i++
			continue
		}

		if err := s.remove(i, keep); err != nil {
			return err
		}
		i++
	}
	return nil
}

// Apply runs policy on every group without prompting. A deletion failure
// in one group is reported and the remaining groups are still processed.
// The returned slice holds the removals of the groups that completed.
func (s *Session) Apply(policy Policy) ([]*dedup.Removal, error) {
	groups := s.engine.Duplicates().Groups
	s.log.WithField("policy", policy.String()).Info("applying default action")

	removals := make([]*dedup.Removal, 0, len(groups))
	for i, g := range groups {
		removal, err := s.removeGroup(i, policy.Keep(len(g.Files)))
		if err != nil {
			return removals, err
		}
		if removal != nil {
			removals = append(removals, removal)
		}
	}
	return removals, nil
}

func (s *Session) remove(index int, keep []int) error {
	_, err := s.removeGroup(index, keep)
	return err
}

// removeGroup removes one group and prints its status. A DeletionError is
// shown to the operator and swallowed; the removal is nil in that case.
func (s *Session) removeGroup(index int, keep []int) (*dedup.Removal, error) {
	removal, err := s.engine.Remove(index, keep)
	if err != nil {
		var delErr *dedup.DeletionError
		if errors.As(err, &delErr) {
			fmt.Fprintln(s.out, delErr.UserMessage())
			s.log.WithError(err).WithField("group", index+1).Warn("removal failed")
			return nil, nil
		}
		return nil, fmt.Errorf("group %d: %w", index+1, err)
	}
	s.report(removal)
	return removal, nil
}

func (s *Session) report(removal *dedup.Removal) {
	fmt.Fprintln(s.out, removal.Message())
	if summary := dedup.FormatErrorSummary(removal.Refused); summary != "" {
		fmt.Fprint(s.out, summary)
	}
}

func (s *Session) askPolicy() (Policy, bool) {
	for {
		answer, ok := s.ask(PromptDefault)
		if !ok {
			return 0, false
		}
		if policy, ok := ParsePolicy(answer); ok {
			return policy, true
		}
	}
}

// ask prints prompt and returns the trimmed answer. ok is false once input
// is exhausted.
func (s *Session) ask(prompt string) (string, bool) {
	fmt.Fprint(s.out, prompt)
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(s.out)
		return "", false
	}
	return strings.TrimSpace(line), true
}
