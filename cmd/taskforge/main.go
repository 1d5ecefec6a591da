package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	taskforgev1 "github.com/kazz187/taskforge/api/taskforge/v1"
	"github.com/kazz187/taskforge/pkg/cerr"
	"github.com/kazz187/taskforge/pkg/color"
)

var (
	app = kingpin.New("taskforge", "Drive tasks through planning, generation and review")

	addr   = app.Flag("addr", "Server base URL").Envar("TASKFORGE_ADDR").Default("http://localhost:3100").String()
	apiKey = app.Flag("api-key", "API key").Envar("TASKFORGE_API_KEY").String()
	actor  = app.Flag("actor", "Actor recorded on created and approved tasks").Envar("TASKFORGE_ACTOR").Default("cli").String()

	// Task commands
	taskCmd = app.Command("task", "Task commands")

	createCmd         = taskCmd.Command("create", "Create a new task")
	createTitle       = createCmd.Arg("title", "Task title").Required().String()
	createDescription = createCmd.Flag("description", "Task description").Short('d').Required().String()
	createComplexity  = createCmd.Flag("complexity", "Low, Medium or High").Default("Medium").Enum("Low", "Medium", "High")
	createTags        = createCmd.Flag("tag", "Tag (repeatable)").Strings()

	listCmd    = taskCmd.Command("list", "List tasks")
	listStatus = listCmd.Flag("status", "Filter by status").String()
	listAgent  = listCmd.Flag("agent", "Filter by assigned agent ID").String()
	listLimit  = listCmd.Flag("limit", "Page size (1-100)").Default("10").Int()
	listOffset = listCmd.Flag("offset", "Page offset").Default("0").Int()
	listAsc    = listCmd.Flag("asc", "Oldest first").Bool()

	showCmd = taskCmd.Command("show", "Show task details")
	showID  = showCmd.Arg("id", "Task ID").Required().String()

	planCmd = taskCmd.Command("plan", "Run the planning phase")
	planID  = planCmd.Arg("id", "Task ID").Required().String()

	generateCmd = taskCmd.Command("generate", "Run the code generation phase")
	generateID  = generateCmd.Arg("id", "Task ID").Required().String()

	reviewCmd = taskCmd.Command("review", "Run the code review phase")
	reviewID  = reviewCmd.Arg("id", "Task ID").Required().String()

	approveCmd = taskCmd.Command("approve", "Approve generated code")
	approveID  = approveCmd.Arg("id", "Task ID").Required().String()

	rejectCmd = taskCmd.Command("reject", "Send generated code back for rework")
	rejectID  = rejectCmd.Arg("id", "Task ID").Required().String()

	// Agent commands
	agentCmd = app.Command("agent", "Agent management commands")

	agentCreateCmd            = agentCmd.Command("create", "Register an agent")
	agentCreateName           = agentCreateCmd.Arg("name", "Agent name").Required().String()
	agentCreateType           = agentCreateCmd.Flag("type", "CodePlanner, CodeGenerator or CodeReviewer").Required().Enum("CodePlanner", "CodeGenerator", "CodeReviewer")
	agentCreateSpecialization = agentCreateCmd.Flag("specialization", "Specialization").Default("general").String()
	agentCreateConfig         = agentCreateCmd.Flag("config", "Configuration value key=value (repeatable)").StringMap()

	agentListCmd    = agentCmd.Command("list", "List agents")
	agentListType   = agentListCmd.Flag("type", "Filter by type").String()
	agentListActive = agentListCmd.Flag("active", "Only active agents").Bool()

	agentShowCmd = agentCmd.Command("show", "Show agent details and performance")
	agentShowID  = agentShowCmd.Arg("id", "Agent ID").Required().String()

	agentActivateCmd = agentCmd.Command("activate", "Activate an agent")
	agentActivateID  = agentActivateCmd.Arg("id", "Agent ID").Required().String()

	agentDeactivateCmd = agentCmd.Command("deactivate", "Deactivate an agent with no open work")
	agentDeactivateID  = agentDeactivateCmd.Arg("id", "Agent ID").Required().String()

	agentAvailableCmd     = agentCmd.Command("available", "List agents of a type with spare capacity")
	agentAvailableType    = agentAvailableCmd.Arg("type", "CodePlanner, CodeGenerator or CodeReviewer").Required().Enum("CodePlanner", "CodeGenerator", "CodeReviewer")
	agentAvailableMaxLoad = agentAvailableCmd.Flag("max-load", "Maximum open tasks per agent").Default("5").Int()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := taskforgev1.NewClient(nil, *addr, *apiKey, *actor)
	if err := run(ctx, c, command); err != nil {
		msg := err.Error()
		if kind := cerr.KindOf(err); kind != "" {
			msg = fmt.Sprintf("%s (%s)", msg, kind)
		}
		fmt.Fprintln(os.Stderr, color.Error("error: %s", msg))
		os.Exit(1)
	}
}

func run(ctx context.Context, c *taskforgev1.Client, command string) error {
	out := newPrinter(os.Stdout)
	switch command {
	case createCmd.FullCommand():
		res, err := c.CreateTask(ctx, &taskforgev1.CreateTaskRequest{
			Title:       *createTitle,
			Description: *createDescription,
			Complexity:  *createComplexity,
			Tags:        *createTags,
		})
		if err != nil {
			return err
		}
		out.task(res.Task, nil)
	case listCmd.FullCommand():
		res, err := c.ListTasks(ctx, &taskforgev1.ListTasksRequest{
			Status:     *listStatus,
			AgentID:    *listAgent,
			SortAsc:    *listAsc,
			Pagination: taskforgev1.Pagination{Limit: *listLimit, Offset: *listOffset},
		})
		if err != nil {
			return err
		}
		out.tasks(res.Tasks, res.Total)
	case showCmd.FullCommand():
		res, err := c.GetTask(ctx, &taskforgev1.GetTaskRequest{ID: *showID})
		if err != nil {
			return err
		}
		out.task(res.Task, res.Agents)
	case planCmd.FullCommand():
		return advance(ctx, out, c.AdvancePlanning, *planID)
	case generateCmd.FullCommand():
		return advance(ctx, out, c.AdvanceGeneration, *generateID)
	case reviewCmd.FullCommand():
		return advance(ctx, out, c.AdvanceReview, *reviewID)
	case approveCmd.FullCommand(), rejectCmd.FullCommand():
		id, approved := *approveID, true
		if command == rejectCmd.FullCommand() {
			id, approved = *rejectID, false
		}
		res, err := c.ApproveTask(ctx, &taskforgev1.ApproveTaskRequest{ID: id, Approved: approved})
		if err != nil {
			return err
		}
		out.task(res.Task, nil)
	case agentCreateCmd.FullCommand():
		res, err := c.CreateAgent(ctx, &taskforgev1.CreateAgentRequest{
			Name:           *agentCreateName,
			Type:           *agentCreateType,
			Specialization: *agentCreateSpecialization,
			Configuration:  taskforgev1.AgentConfiguration{Values: *agentCreateConfig},
		})
		if err != nil {
			return err
		}
		out.agent(res.Agent)
	case agentListCmd.FullCommand():
		res, err := c.ListAgents(ctx, &taskforgev1.ListAgentsRequest{
			Type:       *agentListType,
			ActiveOnly: *agentListActive,
			Pagination: taskforgev1.Pagination{Limit: 100},
		})
		if err != nil {
			return err
		}
		out.agents(res.Agents)
	case agentShowCmd.FullCommand():
		res, err := c.GetAgent(ctx, &taskforgev1.GetAgentRequest{ID: *agentShowID})
		if err != nil {
			return err
		}
		perf, err := c.GetAgentPerformance(ctx, &taskforgev1.GetAgentPerformanceRequest{ID: *agentShowID})
		if err != nil {
			return err
		}
		out.agent(res.Agent)
		out.performance(perf)
	case agentActivateCmd.FullCommand():
		active := true
		res, err := c.UpdateAgent(ctx, &taskforgev1.UpdateAgentRequest{ID: *agentActivateID, IsActive: &active})
		if err != nil {
			return err
		}
		out.agent(res.Agent)
	case agentDeactivateCmd.FullCommand():
		res, err := c.DeactivateAgent(ctx, &taskforgev1.DeactivateAgentRequest{ID: *agentDeactivateID})
		if err != nil {
			return err
		}
		out.agent(res.Agent)
	case agentAvailableCmd.FullCommand():
		res, err := c.FindAvailableAgents(ctx, &taskforgev1.FindAvailableAgentsRequest{
			Type:    *agentAvailableType,
			MaxLoad: *agentAvailableMaxLoad,
		})
		if err != nil {
			return err
		}
		out.agents(res.Agents)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func advance(
	ctx context.Context,
	out *printer,
	call func(context.Context, *taskforgev1.AdvanceTaskRequest) (*taskforgev1.AdvanceTaskResponse, error),
	id string,
) error {
	res, err := call(ctx, &taskforgev1.AdvanceTaskRequest{ID: id})
	if err != nil {
		return err
	}
	out.task(res.Task, nil)
	return nil
}
