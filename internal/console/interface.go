package console

import (
	"bufio"
	"context"
	"fmt"
	"locator-healer/internal/config"
	"locator-healer/internal/entity"
	"locator-healer/internal/usecase"
	"locator-healer/pkg/logg"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Interface is the interactive shell that plays the role of the test runner:
// each command is one "test step" invoking the register/heal entry points.
type Interface struct {
	config   *config.Config
	logger   *zap.Logger
	usecase  *usecase.Service
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	stopping bool
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Usecase *usecase.Service
}

func NewInterface(params Params) *Interface {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)

	return &Interface{
		config:   params.Config,
		logger:   params.Logger.With(zap.String(logg.Layer, "Console")),
		usecase:  params.Usecase,
		ctx:      ctx,
		cancel:   cancel,
		sigChan:  sigChan,
		stopping: false,
	}
}

func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	signal.Notify(i.sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-i.sigChan
		fmt.Println("\n\nInterrupt received, shutting down...")
		i.stopping = true
		i.Stop()
	}()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		if i.stopping {
			break
		}

		fmt.Print("\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())

		if input == "" {
			continue
		}

		if err := i.handleCommand(input); err != nil {
			if err.Error() == "exit" {
				break
			}

			i.logger.Error("Command error", zap.Error(err))
			fmt.Printf("Error: %v\n", err)
		}
	}

	return nil
}

func (i *Interface) Stop() error {
	if i.stopping {
		return nil
	}

	i.stopping = true
	i.logger.Info("Stopping console interface...")

	i.cancel()

	fmt.Println("Goodbye!")
	os.Exit(0)

	return nil
}

func (i *Interface) handleCommand(input string) error {
	fields := strings.Fields(input)
	exec := entity.ExecutionContext{TestFile: "console", TestName: input}

	switch fields[0] {
	case "help", "h":
		i.printHelp()

		return nil

	case "exit", "quit", "q":
		fmt.Println("Shutting down...")

		return fmt.Errorf("exit")

	case "open":
		if len(fields) != 2 {
			return fmt.Errorf("usage: open <url>")
		}

		return i.usecase.Browser.Navigate(i.ctx, fields[1])

	case "register":
		if len(fields) != 3 {
			return fmt.Errorf("usage: register <name> <selector>")
		}

		res, err := i.usecase.Healer.Register(i.ctx, fields[2], fields[1], exec)
		if err != nil {
			return err
		}

		fmt.Printf("Registered %q via %s (tag %s)\n", fields[1], fields[2], res.Element.Attributes.Tag)

		return nil

	case "heal":
		if len(fields) != 3 {
			return fmt.Errorf("usage: heal <name> <selector>")
		}

		res, err := i.usecase.Healer.Heal(i.ctx, fields[2], fields[1], exec)
		if err != nil {
			return err
		}

		i.printResolution(fields[1], res)

		return nil

	case "click":
		if len(fields) != 3 {
			return fmt.Errorf("usage: click <name> <selector>")
		}

		res, err := i.usecase.Healer.Heal(i.ctx, fields[2], fields[1], exec)
		if err != nil {
			return err
		}

		i.printResolution(fields[1], res)

		return i.usecase.Browser.ClickRef(i.ctx, res.Element.Ref)

	case "fill":
		if len(fields) < 4 {
			return fmt.Errorf("usage: fill <name> <selector> <value>")
		}

		res, err := i.usecase.Healer.Heal(i.ctx, fields[2], fields[1], exec)
		if err != nil {
			return err
		}

		i.printResolution(fields[1], res)

		return i.usecase.Browser.FillRef(i.ctx, res.Element.Ref, strings.Join(fields[3:], " "))

	case "report":
		jsonPath, mdPath, err := i.usecase.Report.Generate(i.usecase.Store.ExportState())
		if err != nil {
			return err
		}

		fmt.Printf("Report written:\n  %s\n  %s\n", jsonPath, mdPath)

		return nil

	case "export":
		path := i.config.HealingConfig.SnapshotPath
		if len(fields) == 2 {
			path = fields[1]
		}

		if path == "" {
			return fmt.Errorf("usage: export <path> (or set HEALING_SNAPSHOT_PATH)")
		}

		if err := i.usecase.Report.WriteSnapshot(i.usecase.Store.ExportState(), path); err != nil {
			return err
		}

		fmt.Printf("Snapshot written to %s\n", path)

		return nil

	default:
		return fmt.Errorf("unknown command %q, try 'help'", fields[0])
	}
}

func (i *Interface) printResolution(name string, res *entity.Resolution) {
	if res.Healed {
		fmt.Printf("Healed %q via %s (confidence %.2f)\n", name, res.MatchedBy, res.Confidence)

		return
	}

	fmt.Printf("Resolved %q directly\n", name)
}

func (i *Interface) printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════╗
║                                                       ║
║            Self-Healing Locator Console               ║
║                                                       ║
║   Fingerprint UI elements and heal broken locators    ║
║                                                       ║
╚═══════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
}

func (i *Interface) printHelp() {
	help := `
Available commands:
  open <url>                    - Navigate the browser
  register <name> <selector>    - Fingerprint an element from a known-good locator
  heal <name> <selector>        - Resolve an element, healing if the locator broke
  click <name> <selector>       - Heal-aware click
  fill <name> <selector> <text> - Heal-aware fill
  report                        - Write the JSON + Markdown healing report
  export [path]                 - Write the fingerprint snapshot
  help, h                       - Show this help message
  exit, quit, q                 - Exit
`
	fmt.Println(help)
}
