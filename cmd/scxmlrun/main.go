package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/comalice/scxmlcore/internal/core"
	"github.com/comalice/scxmlcore/internal/logging"
	"github.com/comalice/scxmlcore/internal/registry"
	"github.com/comalice/scxmlcore/internal/scripthost"
	"github.com/comalice/scxmlcore/internal/scripthost/exprhost"
	"github.com/comalice/scxmlcore/internal/scripthost/luahost"
	"github.com/comalice/scxmlcore/ioprocessor/basichttp"
	"github.com/comalice/scxmlcore/scxmlxml"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scxmlrun",
		Short: "Load and drive an SCXML document from the command line",
	}

	runCmd := &cobra.Command{
		Use:   "run <doc.scxml>",
		Short: "Parse an SCXML document, start a session, and feed it events from stdin",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}
	f := runCmd.Flags()
	f.String("script", "expr", "script host backend: expr or lua")
	f.String("session-id", "", "override the generated session id")
	f.String("http", "", "address to serve a BasicHTTP event endpoint on (e.g. :8080); disabled if empty")
	f.Bool("verbose", false, "enable debug-level logging")

	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func scriptFactory(name string) (scripthost.Factory, error) {
	switch name {
	case "", "expr":
		return exprhost.New, nil
	case "lua":
		return luahost.New, nil
	default:
		return nil, fmt.Errorf("unknown script host %q (want expr or lua)", name)
	}
}

func run(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()
	scriptName, _ := f.GetString("script")
	sessionID, _ := f.GetString("session-id")
	httpAddr, _ := f.GetString("http")
	verbose, _ := f.GetBool("verbose")

	factory, err := scriptFactory(scriptName)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	doc, err := scxmlxml.Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("validating %s: %w", args[0], err)
	}

	logger, err := newLogger(verbose)
	if err != nil {
		return fmt.Errorf("constructing logger: %w", err)
	}
	defer logger.Sync()

	reg := registry.New()
	opts := []core.Option{
		core.WithLogger(logger),
		core.WithScriptHostFactory(factory),
		core.WithRegistry(reg),
	}
	if sessionID != "" {
		opts = append(opts, core.WithSessionID(sessionID))
	}
	if httpAddr != "" {
		opts = append(opts, core.WithIOProcessor(basichttp.ProcessorType, "http://"+httpAddr+"/events/"))
	}

	s, err := core.New(doc, opts...)
	if err != nil {
		return fmt.Errorf("constructing session: %w", err)
	}
	if err := s.Start(); err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer s.Stop()

	fmt.Printf("session %s started, active: %v\n", s.SessionID(), s.ActiveStates())

	if httpAddr != "" {
		srv := basichttp.New(reg, basichttp.WithLogger(logger))
		go func() {
			if err := http.ListenAndServe(httpAddr, srv.Router()); err != nil {
				logger.Errorw("basichttp server exited", "error", err)
			}
		}()
		fmt.Printf("serving BasicHTTP event endpoint on %s/events/%s\n", httpAddr, s.SessionID())
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	lines := make(chan string)
	go readStdinLines(lines)

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				fmt.Println("stdin closed, stopping session")
				return nil
			}
			name, value := parseEventLine(line)
			if name == "" {
				continue
			}
			s.Dispatch(name, value)
			time.Sleep(20 * time.Millisecond)
			fmt.Printf("active: %v\n", s.ActiveStates())
			if s.Done() {
				fmt.Println("session reached a top-level final state")
				return nil
			}
		case <-sig:
			fmt.Println("interrupted, stopping session")
			return nil
		}
	}
}

func newLogger(verbose bool) (logging.Logger, error) {
	if verbose {
		return logging.NewDevelopment()
	}
	return logging.New()
}

func readStdinLines(out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

// parseEventLine reads "eventname" or "eventname {json payload}" lines,
// matching the <send>/external-event shape the engine otherwise only
// receives over an I/O processor.
func parseEventLine(line string) (name string, data any) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", nil
	}
	name, rest, hasRest := strings.Cut(line, " ")
	if !hasRest {
		return name, nil
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return name, nil
	}
	var payload any
	if err := json.Unmarshal([]byte(rest), &payload); err != nil {
		return name, rest
	}
	return name, payload
}
