package taskforgev1

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

const (
	TaskServiceName             = "taskforge.v1.TaskService"
	AgentServiceName            = "taskforge.v1.AgentService"
	PushNotificationServiceName = "taskforge.v1.PushNotificationService"
)

const (
	TaskServiceCreateTaskProcedure        = "/taskforge.v1.TaskService/CreateTask"
	TaskServiceGetTaskProcedure           = "/taskforge.v1.TaskService/GetTask"
	TaskServiceListTasksProcedure         = "/taskforge.v1.TaskService/ListTasks"
	TaskServiceAdvancePlanningProcedure   = "/taskforge.v1.TaskService/AdvancePlanning"
	TaskServiceAdvanceGenerationProcedure = "/taskforge.v1.TaskService/AdvanceGeneration"
	TaskServiceAdvanceReviewProcedure     = "/taskforge.v1.TaskService/AdvanceReview"
	TaskServiceApproveTaskProcedure       = "/taskforge.v1.TaskService/ApproveTask"

	AgentServiceCreateAgentProcedure         = "/taskforge.v1.AgentService/CreateAgent"
	AgentServiceGetAgentProcedure            = "/taskforge.v1.AgentService/GetAgent"
	AgentServiceListAgentsProcedure          = "/taskforge.v1.AgentService/ListAgents"
	AgentServiceUpdateAgentProcedure         = "/taskforge.v1.AgentService/UpdateAgent"
	AgentServiceDeactivateAgentProcedure     = "/taskforge.v1.AgentService/DeactivateAgent"
	AgentServiceFindAvailableAgentsProcedure = "/taskforge.v1.AgentService/FindAvailableAgents"
	AgentServiceGetAgentPerformanceProcedure = "/taskforge.v1.AgentService/GetAgentPerformance"

	PushNotificationServiceGetVAPIDPublicKeyProcedure = "/taskforge.v1.PushNotificationService/GetVAPIDPublicKey"
	PushNotificationServiceSubscribeProcedure         = "/taskforge.v1.PushNotificationService/Subscribe"
	PushNotificationServiceUnsubscribeProcedure       = "/taskforge.v1.PushNotificationService/Unsubscribe"
)

// ActorHeader carries the authenticated actor identity resolved by the
// fronting auth layer.
const ActorHeader = "X-Taskforge-Actor"

type TaskServiceHandler interface {
	CreateTask(context.Context, *connect.Request[CreateTaskRequest]) (*connect.Response[CreateTaskResponse], error)
	GetTask(context.Context, *connect.Request[GetTaskRequest]) (*connect.Response[GetTaskResponse], error)
	ListTasks(context.Context, *connect.Request[ListTasksRequest]) (*connect.Response[ListTasksResponse], error)
	AdvancePlanning(context.Context, *connect.Request[AdvanceTaskRequest]) (*connect.Response[AdvanceTaskResponse], error)
	AdvanceGeneration(context.Context, *connect.Request[AdvanceTaskRequest]) (*connect.Response[AdvanceTaskResponse], error)
	AdvanceReview(context.Context, *connect.Request[AdvanceTaskRequest]) (*connect.Response[AdvanceTaskResponse], error)
	ApproveTask(context.Context, *connect.Request[ApproveTaskRequest]) (*connect.Response[ApproveTaskResponse], error)
}

type AgentServiceHandler interface {
	CreateAgent(context.Context, *connect.Request[CreateAgentRequest]) (*connect.Response[CreateAgentResponse], error)
	GetAgent(context.Context, *connect.Request[GetAgentRequest]) (*connect.Response[GetAgentResponse], error)
	ListAgents(context.Context, *connect.Request[ListAgentsRequest]) (*connect.Response[ListAgentsResponse], error)
	UpdateAgent(context.Context, *connect.Request[UpdateAgentRequest]) (*connect.Response[UpdateAgentResponse], error)
	DeactivateAgent(context.Context, *connect.Request[DeactivateAgentRequest]) (*connect.Response[DeactivateAgentResponse], error)
	FindAvailableAgents(context.Context, *connect.Request[FindAvailableAgentsRequest]) (*connect.Response[FindAvailableAgentsResponse], error)
	GetAgentPerformance(context.Context, *connect.Request[GetAgentPerformanceRequest]) (*connect.Response[GetAgentPerformanceResponse], error)
}

type PushNotificationServiceHandler interface {
	GetVAPIDPublicKey(context.Context, *connect.Request[GetVAPIDPublicKeyRequest]) (*connect.Response[GetVAPIDPublicKeyResponse], error)
	Subscribe(context.Context, *connect.Request[SubscribePushRequest]) (*connect.Response[SubscribePushResponse], error)
	Unsubscribe(context.Context, *connect.Request[UnsubscribePushRequest]) (*connect.Response[UnsubscribePushResponse], error)
}

// routes dispatches on the full procedure path under one service prefix.
type routes map[string]http.Handler

func (rt routes) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, ok := rt[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	h.ServeHTTP(w, r)
}

func handlerOptions(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(Codec{})}, opts...)
}

func NewTaskServiceHandler(svc TaskServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + TaskServiceName + "/", routes{
		TaskServiceCreateTaskProcedure:        connect.NewUnaryHandler(TaskServiceCreateTaskProcedure, svc.CreateTask, opts...),
		TaskServiceGetTaskProcedure:           connect.NewUnaryHandler(TaskServiceGetTaskProcedure, svc.GetTask, opts...),
		TaskServiceListTasksProcedure:         connect.NewUnaryHandler(TaskServiceListTasksProcedure, svc.ListTasks, opts...),
		TaskServiceAdvancePlanningProcedure:   connect.NewUnaryHandler(TaskServiceAdvancePlanningProcedure, svc.AdvancePlanning, opts...),
		TaskServiceAdvanceGenerationProcedure: connect.NewUnaryHandler(TaskServiceAdvanceGenerationProcedure, svc.AdvanceGeneration, opts...),
		TaskServiceAdvanceReviewProcedure:     connect.NewUnaryHandler(TaskServiceAdvanceReviewProcedure, svc.AdvanceReview, opts...),
		TaskServiceApproveTaskProcedure:       connect.NewUnaryHandler(TaskServiceApproveTaskProcedure, svc.ApproveTask, opts...),
	}
}

func NewAgentServiceHandler(svc AgentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + AgentServiceName + "/", routes{
		AgentServiceCreateAgentProcedure:         connect.NewUnaryHandler(AgentServiceCreateAgentProcedure, svc.CreateAgent, opts...),
		AgentServiceGetAgentProcedure:            connect.NewUnaryHandler(AgentServiceGetAgentProcedure, svc.GetAgent, opts...),
		AgentServiceListAgentsProcedure:          connect.NewUnaryHandler(AgentServiceListAgentsProcedure, svc.ListAgents, opts...),
		AgentServiceUpdateAgentProcedure:         connect.NewUnaryHandler(AgentServiceUpdateAgentProcedure, svc.UpdateAgent, opts...),
		AgentServiceDeactivateAgentProcedure:     connect.NewUnaryHandler(AgentServiceDeactivateAgentProcedure, svc.DeactivateAgent, opts...),
		AgentServiceFindAvailableAgentsProcedure: connect.NewUnaryHandler(AgentServiceFindAvailableAgentsProcedure, svc.FindAvailableAgents, opts...),
		AgentServiceGetAgentPerformanceProcedure: connect.NewUnaryHandler(AgentServiceGetAgentPerformanceProcedure, svc.GetAgentPerformance, opts...),
	}
}

func NewPushNotificationServiceHandler(svc PushNotificationServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	return "/" + PushNotificationServiceName + "/", routes{
		PushNotificationServiceGetVAPIDPublicKeyProcedure: connect.NewUnaryHandler(PushNotificationServiceGetVAPIDPublicKeyProcedure, svc.GetVAPIDPublicKey, opts...),
		PushNotificationServiceSubscribeProcedure:         connect.NewUnaryHandler(PushNotificationServiceSubscribeProcedure, svc.Subscribe, opts...),
		PushNotificationServiceUnsubscribeProcedure:       connect.NewUnaryHandler(PushNotificationServiceUnsubscribeProcedure, svc.Unsubscribe, opts...),
	}
}
