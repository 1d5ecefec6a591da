package taskforgev1

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// Client is a typed caller for TaskService and AgentService. Every call
// carries the configured API key and actor headers.
type Client struct {
	apiKey string
	actor  string

	createTask        *connect.Client[CreateTaskRequest, CreateTaskResponse]
	getTask           *connect.Client[GetTaskRequest, GetTaskResponse]
	listTasks         *connect.Client[ListTasksRequest, ListTasksResponse]
	advancePlanning   *connect.Client[AdvanceTaskRequest, AdvanceTaskResponse]
	advanceGeneration *connect.Client[AdvanceTaskRequest, AdvanceTaskResponse]
	advanceReview     *connect.Client[AdvanceTaskRequest, AdvanceTaskResponse]
	approveTask       *connect.Client[ApproveTaskRequest, ApproveTaskResponse]

	createAgent         *connect.Client[CreateAgentRequest, CreateAgentResponse]
	getAgent            *connect.Client[GetAgentRequest, GetAgentResponse]
	listAgents          *connect.Client[ListAgentsRequest, ListAgentsResponse]
	updateAgent         *connect.Client[UpdateAgentRequest, UpdateAgentResponse]
	deactivateAgent     *connect.Client[DeactivateAgentRequest, DeactivateAgentResponse]
	findAvailableAgents *connect.Client[FindAvailableAgentsRequest, FindAvailableAgentsResponse]
	getAgentPerformance *connect.Client[GetAgentPerformanceRequest, GetAgentPerformanceResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL, apiKey, actor string, opts ...connect.ClientOption) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(Codec{})}, opts...)
	return &Client{
		apiKey: apiKey,
		actor:  actor,

		createTask:        connect.NewClient[CreateTaskRequest, CreateTaskResponse](httpClient, baseURL+TaskServiceCreateTaskProcedure, opts...),
		getTask:           connect.NewClient[GetTaskRequest, GetTaskResponse](httpClient, baseURL+TaskServiceGetTaskProcedure, opts...),
		listTasks:         connect.NewClient[ListTasksRequest, ListTasksResponse](httpClient, baseURL+TaskServiceListTasksProcedure, opts...),
		advancePlanning:   connect.NewClient[AdvanceTaskRequest, AdvanceTaskResponse](httpClient, baseURL+TaskServiceAdvancePlanningProcedure, opts...),
		advanceGeneration: connect.NewClient[AdvanceTaskRequest, AdvanceTaskResponse](httpClient, baseURL+TaskServiceAdvanceGenerationProcedure, opts...),
		advanceReview:     connect.NewClient[AdvanceTaskRequest, AdvanceTaskResponse](httpClient, baseURL+TaskServiceAdvanceReviewProcedure, opts...),
		approveTask:       connect.NewClient[ApproveTaskRequest, ApproveTaskResponse](httpClient, baseURL+TaskServiceApproveTaskProcedure, opts...),

		createAgent:         connect.NewClient[CreateAgentRequest, CreateAgentResponse](httpClient, baseURL+AgentServiceCreateAgentProcedure, opts...),
		getAgent:            connect.NewClient[GetAgentRequest, GetAgentResponse](httpClient, baseURL+AgentServiceGetAgentProcedure, opts...),
		listAgents:          connect.NewClient[ListAgentsRequest, ListAgentsResponse](httpClient, baseURL+AgentServiceListAgentsProcedure, opts...),
		updateAgent:         connect.NewClient[UpdateAgentRequest, UpdateAgentResponse](httpClient, baseURL+AgentServiceUpdateAgentProcedure, opts...),
		deactivateAgent:     connect.NewClient[DeactivateAgentRequest, DeactivateAgentResponse](httpClient, baseURL+AgentServiceDeactivateAgentProcedure, opts...),
		findAvailableAgents: connect.NewClient[FindAvailableAgentsRequest, FindAvailableAgentsResponse](httpClient, baseURL+AgentServiceFindAvailableAgentsProcedure, opts...),
		getAgentPerformance: connect.NewClient[GetAgentPerformanceRequest, GetAgentPerformanceResponse](httpClient, baseURL+AgentServiceGetAgentPerformanceProcedure, opts...),
	}
}

func call[Req, Res any](ctx context.Context, c *Client, cl *connect.Client[Req, Res], msg *Req) (*Res, error) {
	req := connect.NewRequest(msg)
	if c.apiKey != "" {
		req.Header().Set("X-API-Key", c.apiKey)
	}
	if c.actor != "" {
		req.Header().Set(ActorHeader, c.actor)
	}
	resp, err := cl.CallUnary(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

func (c *Client) CreateTask(ctx context.Context, req *CreateTaskRequest) (*CreateTaskResponse, error) {
	return call(ctx, c, c.createTask, req)
}

func (c *Client) GetTask(ctx context.Context, req *GetTaskRequest) (*GetTaskResponse, error) {
	return call(ctx, c, c.getTask, req)
}

func (c *Client) ListTasks(ctx context.Context, req *ListTasksRequest) (*ListTasksResponse, error) {
	return call(ctx, c, c.listTasks, req)
}

func (c *Client) AdvancePlanning(ctx context.Context, req *AdvanceTaskRequest) (*AdvanceTaskResponse, error) {
	return call(ctx, c, c.advancePlanning, req)
}

func (c *Client) AdvanceGeneration(ctx context.Context, req *AdvanceTaskRequest) (*AdvanceTaskResponse, error) {
	return call(ctx, c, c.advanceGeneration, req)
}

func (c *Client) AdvanceReview(ctx context.Context, req *AdvanceTaskRequest) (*AdvanceTaskResponse, error) {
	return call(ctx, c, c.advanceReview, req)
}

func (c *Client) ApproveTask(ctx context.Context, req *ApproveTaskRequest) (*ApproveTaskResponse, error) {
	return call(ctx, c, c.approveTask, req)
}

func (c *Client) CreateAgent(ctx context.Context, req *CreateAgentRequest) (*CreateAgentResponse, error) {
	return call(ctx, c, c.createAgent, req)
}

func (c *Client) GetAgent(ctx context.Context, req *GetAgentRequest) (*GetAgentResponse, error) {
	return call(ctx, c, c.getAgent, req)
}

func (c *Client) ListAgents(ctx context.Context, req *ListAgentsRequest) (*ListAgentsResponse, error) {
	return call(ctx, c, c.listAgents, req)
}

func (c *Client) UpdateAgent(ctx context.Context, req *UpdateAgentRequest) (*UpdateAgentResponse, error) {
	return call(ctx, c, c.updateAgent, req)
}

func (c *Client) DeactivateAgent(ctx context.Context, req *DeactivateAgentRequest) (*DeactivateAgentResponse, error) {
	return call(ctx, c, c.deactivateAgent, req)
}

func (c *Client) FindAvailableAgents(ctx context.Context, req *FindAvailableAgentsRequest) (*FindAvailableAgentsResponse, error) {
	return call(ctx, c, c.findAvailableAgents, req)
}

func (c *Client) GetAgentPerformance(ctx context.Context, req *GetAgentPerformanceRequest) (*GetAgentPerformanceResponse, error) {
	return call(ctx, c, c.getAgentPerformance, req)
}
