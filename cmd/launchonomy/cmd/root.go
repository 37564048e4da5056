// Package cmd implements the launchonomy command-line surface: a positional
// mission description, a resume menu over past missions, and the flags
// controlling debug logging, forced-new-mission, and the iteration ceiling.
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"goa.design/clue/log"

	"github.com/launchonomy/orchestrator/internal/agentmanager"
	"github.com/launchonomy/orchestrator/internal/chatclient"
	"github.com/launchonomy/orchestrator/internal/communicator"
	"github.com/launchonomy/orchestrator/internal/config"
	"github.com/launchonomy/orchestrator/internal/hooks"
	"github.com/launchonomy/orchestrator/internal/memoryhelper"
	"github.com/launchonomy/orchestrator/internal/mission"
	"github.com/launchonomy/orchestrator/internal/provision"
	"github.com/launchonomy/orchestrator/internal/registry"
	"github.com/launchonomy/orchestrator/internal/review"
	"github.com/launchonomy/orchestrator/internal/scheduler"
	"github.com/launchonomy/orchestrator/internal/telemetry"
	"github.com/launchonomy/orchestrator/internal/vectormemory"
	"github.com/launchonomy/orchestrator/internal/workspace"
)

const (
	registryFileName     = "registry.json"
	resumeMenuLimit      = 5
	defaultMaxIterations = 10
)

var (
	debugFlag         bool
	newFlag           bool
	maxIterationsFlag int
)

var rootCmd = &cobra.Command{
	Use:   "launchonomy [mission description]",
	Short: "Drive an autonomous C-Suite mission through bounded iteration cycles",
	Long: `launchonomy runs a mission through the orchestration scheduler: repeated
cycles of C-Suite strategic planning, a six-step execution workflow, C-Suite
review, and a CFO growth-budget guardrail, until consensus, too many
failures, or the iteration ceiling ends the run.

Examples:
  launchonomy "Launch a SaaS product for expense tracking"
  launchonomy --new "Start a fresh mission even if a similar one exists"
  launchonomy --max-iterations 20 --debug`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOrchestrate,
}

func init() {
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "enable verbose debug logging")
	rootCmd.Flags().BoolVar(&newFlag, "new", false, "skip the resume menu and start a new mission")
	rootCmd.Flags().IntVar(&maxIterationsFlag, "max-iterations", defaultMaxIterations, "maximum number of cycles to run")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func runOrchestrate(cmd *cobra.Command, args []string) error {
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(context.Background(), log.WithFormat(format))
	if debugFlag {
		ctx = log.Context(ctx, log.WithDebug())
		log.Debugf(ctx, "debug logging enabled")
	}
	logger := telemetry.NewClueLogger()
	metrics := telemetry.NewClueMetrics()
	tracer := telemetry.NewClueTracer()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ws, err := workspace.New(workspace.DefaultBaseDir, logger)
	if err != nil {
		return fmt.Errorf("launchonomy: initialize workspace: %w", err)
	}
	reg, err := registry.Load(registryFileName)
	if err != nil {
		return fmt.Errorf("launchonomy: load registry: %w", err)
	}

	backend := chatclient.NewOpenAIBackendFromAPIKey(cfg.OpenAIAPIKey)
	chat := chatclient.New(backend, chatclient.Options{Model: cfg.OpenAIModel, Logger: logger})
	comm := communicator.New(chat, logger, metrics)
	reviewMgr := review.New(comm, logger)
	agents := agentmanager.New(reg, comm, nil, logger)
	provisionPipeline := provision.New(reg, agents, comm, reviewMgr, logger)
	memStore := vectormemory.NewMemStore(nil, logger)

	missionMgr := mission.New(ws, memStore, logger)

	description := strings.Join(args, " ")
	resumeFrom, err := selectMission(ctx, missionMgr, description)
	if err != nil {
		return err
	}
	if resumeFrom == "" && description == "" {
		description = promptForDescription()
	}

	var msn *mission.Mission
	if resumeFrom != "" {
		msn, err = missionMgr.LoadByID(ctx, resumeFrom)
	} else {
		msn, err = missionMgr.CreateOrLoad(ctx, missionNameFrom(description), description, !newFlag)
	}
	if err != nil {
		return fmt.Errorf("launchonomy: start mission: %w", err)
	}

	if err := agents.BootstrapCSuite(ctx, msn.OverallMission); err != nil {
		return fmt.Errorf("launchonomy: bootstrap c-suite: %w", err)
	}

	memory := memoryhelper.New(memStore, msn.MissionID, logger)
	sched := scheduler.New(scheduler.Config{
		MissionManager: missionMgr,
		Agents:         agents,
		Registry:       reg,
		Provision:      provisionPipeline,
		Memory:         memory,
		Bus:            hooks.NewBus(),
		Logger:         logger,
		Metrics:        metrics,
		Tracer:         tracer,
		MaxIterations:  maxIterationsFlag,
	})

	outcome := sched.Run(ctx)
	if err := reg.Save(); err != nil {
		logger.Warn(ctx, "launchonomy: failed to persist registry", "error", err)
	}
	if outcome.Err != nil {
		return fmt.Errorf("launchonomy: mission ended: %w", outcome.Err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "mission %s ended: %s (%d iterations, %d succeeded, %d failed, revenue=%.2f, cost=%.2f)\n",
		outcome.MissionID, outcome.Reason, outcome.IterationsRun, outcome.SuccessfulCycles, outcome.FailedCycles, outcome.TotalRevenue, outcome.TotalCost)
	return nil
}

// selectMission shows the resume menu when --new is absent and at least one
// resumable mission exists, returning the chosen mission id, or "" to start
// a new mission. A non-empty positional description with --new absent still
// goes through CreateOrLoad's own name/text match, so the menu here is only
// consulted when the user did not already name a mission on the command
// line, matching spec's "shows up to 5 most recent resumable missions ...
// lets user pick one or start new" menu semantics.
func selectMission(ctx context.Context, missionMgr *mission.Manager, description string) (string, error) {
	if newFlag || description != "" {
		return "", nil
	}
	candidates, err := missionMgr.ListResumable(resumeMenuLimit)
	if err != nil {
		return "", fmt.Errorf("launchonomy: list resumable missions: %w", err)
	}
	if len(candidates) == 0 {
		return "", nil
	}

	fmt.Println("Resumable missions:")
	for i, cfg := range candidates {
		fmt.Printf("  %d) %s  [%s]\n", i+1, cfg.MissionName, cfg.Status)
	}
	fmt.Println("  n) start a new mission")
	fmt.Println("  q) quit")

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("Select: ")
		line, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(line)
		switch choice {
		case "q":
			os.Exit(0)
		case "n", "":
			return "", nil
		default:
			idx, err := strconv.Atoi(choice)
			if err != nil || idx < 1 || idx > len(candidates) {
				fmt.Println("invalid selection")
				continue
			}
			return candidates[idx-1].MissionID, nil
		}
	}
}

// missionNameFrom derives the short mission name CreateOrLoad matches
// resumable missions by, from the full mission description. The workspace
// directory slug is truncated separately (workspace.Slugify); this name is
// the human-readable value stored in MissionName and shown in the resume
// menu.
func missionNameFrom(description string) string {
	const maxNameLength = 60
	name := strings.TrimSpace(description)
	if len(name) > maxNameLength {
		name = strings.TrimSpace(name[:maxNameLength])
	}
	return name
}

func promptForDescription() string {
	fmt.Print("Mission description: ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
