package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownCommand is returned for unrecognised ":" commands
var ErrUnknownCommand = errors.New("unknown command")

type commandKind int

const (
	cmdRefresh commandKind = iota
	cmdSearch
	cmdNext
	cmdPrev
	cmdPage
	cmdOpen
	cmdClose
	cmdReload
	cmdFilter
	cmdFilters
	cmdHelp
	cmdQuit
)

type command struct {
	kind commandKind
	text string
	n    int
}

const helpText = `Commands:
  <title>          search for movies
  :n, :next        next page
  :p, :prev        previous page
  :page N          go to page N
  :open N          show details for movie N
  :close           close the details
  :reload          drop the cached page and search again
  :filter EXPR     narrow the page, e.g. :filter Rating >= 7 and Year > 2000
  :filter @NAME    use a filter from the config file
  :filter          clear the filter
  :filters         list configured filters
  :help            show this help
  :q, :quit        exit
  <Enter>          redraw`

// parseCommand turns an input line into a command. Anything not starting
// with ":" is a search.
func parseCommand(line string) (command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return command{kind: cmdRefresh}, nil
	}

	rest, ok := strings.CutPrefix(line, ":")
	if !ok {
		return command{kind: cmdSearch, text: line}, nil
	}

	name, arg, _ := strings.Cut(rest, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "n", "next":
		return command{kind: cmdNext}, nil
	case "p", "prev":
		return command{kind: cmdPrev}, nil
	case "page":
		n, err := parseNumber("page", arg)
		return command{kind: cmdPage, n: n}, err
	case "o", "open":
		n, err := parseNumber("movie", arg)
		return command{kind: cmdOpen, n: n}, err
	case "c", "close":
		return command{kind: cmdClose}, nil
	case "r", "reload":
		return command{kind: cmdReload}, nil
	case "f", "filter":
		return command{kind: cmdFilter, text: arg}, nil
	case "filters":
		return command{kind: cmdFilters}, nil
	case "h", "help", "?":
		return command{kind: cmdHelp}, nil
	case "q", "quit", "exit":
		return command{kind: cmdQuit}, nil
	default:
		return command{}, fmt.Errorf("%w: %s (type :help for a list)", ErrUnknownCommand, line)
	}
}

func parseNumber(what, arg string) (int, error) {
	if arg == "" {
		return 0, fmt.Errorf("missing %s number", what)
	}
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid %s number '%s': must be a positive integer", what, arg)
	}
	return n, nil
}
