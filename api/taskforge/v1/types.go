// Package taskforgev1 holds the wire types of the taskforge API. Messages are
// exchanged as JSON over connect (see Codec) and over the dashboard stream.
package taskforgev1

import "time"

type Task struct {
	ID                 string          `json:"id"`
	Title              string          `json:"title"`
	Description        string          `json:"description"`
	Status             string          `json:"status"`
	Complexity         string          `json:"complexity"`
	Tags               []string        `json:"tags"`
	PlanningAttempts   int             `json:"planningAttempts"`
	GenerationAttempts int             `json:"generationAttempts"`
	ImplementationPlan *string         `json:"implementationPlan"`
	GeneratedCode      *string         `json:"generatedCode"`
	CodeReviewFeedback *ReviewFeedback `json:"codeReviewFeedback"`
	ReworkRequestedBy  string          `json:"reworkRequestedBy,omitempty"`
	AssignedAgents     []string        `json:"assignedAgents"`
	History            []HistoryEntry  `json:"history"`
	CreatorID          string          `json:"creatorId"`
	Version            int64           `json:"version"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

type ReviewFeedback struct {
	RequiresChanges bool   `json:"requiresChanges"`
	Summary         string `json:"summary"`
}

type HistoryEntry struct {
	Action    string    `json:"action"`
	AgentID   string    `json:"agentId,omitempty"`
	ActorID   string    `json:"actorId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Details   string    `json:"details"`
}

// AgentSummary is the read-side projection of an assigned agent.
type AgentSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type Agent struct {
	ID                  string             `json:"id"`
	Name                string             `json:"name"`
	Type                string             `json:"type"`
	Specialization      string             `json:"specialization"`
	IsActive            bool               `json:"isActive"`
	PerformanceMetrics  PerformanceMetrics `json:"performanceMetrics"`
	Configuration       AgentConfiguration `json:"configuration"`
	LastActiveTimestamp time.Time          `json:"lastActiveTimestamp"`
	Version             int64              `json:"version"`
	CreatedAt           time.Time          `json:"createdAt"`
	UpdatedAt           time.Time          `json:"updatedAt"`
}

type PerformanceMetrics struct {
	SuccessRate           float64  `json:"successRate"`
	AverageCompletionTime *float64 `json:"averageCompletionTime"`
	TotalTasksProcessed   int      `json:"totalTasksProcessed"`
}

type AgentConfiguration struct {
	SchemaVersion int               `json:"schemaVersion"`
	Values        map[string]string `json:"values"`
}

type Pagination struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// TaskService messages.

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Complexity  string   `json:"complexity,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type CreateTaskResponse struct {
	Task *Task `json:"task"`
}

type GetTaskRequest struct {
	ID string `json:"id"`
}

type GetTaskResponse struct {
	Task   *Task          `json:"task"`
	Agents []AgentSummary `json:"agents"`
}

type ListTasksRequest struct {
	Status     string     `json:"status,omitempty"`
	AgentID    string     `json:"agentId,omitempty"`
	SortAsc    bool       `json:"sortAsc,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type ListTasksResponse struct {
	Tasks []*Task `json:"tasks"`
	Total int     `json:"total"`
}

// AdvanceTaskRequest drives planning, generation and review.
type AdvanceTaskRequest struct {
	ID string `json:"id"`
}

type AdvanceTaskResponse struct {
	Task *Task `json:"task"`
}

type ApproveTaskRequest struct {
	ID       string `json:"id"`
	Approved bool   `json:"approved"`
}

type ApproveTaskResponse struct {
	Task *Task `json:"task"`
}

// AgentService messages.

type CreateAgentRequest struct {
	Name           string             `json:"name"`
	Type           string             `json:"type"`
	Specialization string             `json:"specialization"`
	Configuration  AgentConfiguration `json:"configuration"`
}

type CreateAgentResponse struct {
	Agent *Agent `json:"agent"`
}

type GetAgentRequest struct {
	ID string `json:"id"`
}

type GetAgentResponse struct {
	Agent *Agent `json:"agent"`
}

type ListAgentsRequest struct {
	Type       string     `json:"type,omitempty"`
	ActiveOnly bool       `json:"activeOnly,omitempty"`
	Pagination Pagination `json:"pagination"`
}

type ListAgentsResponse struct {
	Agents []*Agent `json:"agents"`
	Total  int      `json:"total"`
}

type UpdateAgentRequest struct {
	ID             string              `json:"id"`
	Specialization *string             `json:"specialization,omitempty"`
	Configuration  *AgentConfiguration `json:"configuration,omitempty"`
	IsActive       *bool               `json:"isActive,omitempty"`
}

type UpdateAgentResponse struct {
	Agent *Agent `json:"agent"`
}

type DeactivateAgentRequest struct {
	ID string `json:"id"`
}

type DeactivateAgentResponse struct {
	Agent *Agent `json:"agent"`
}

type FindAvailableAgentsRequest struct {
	Type    string `json:"type"`
	MaxLoad int    `json:"maxLoad,omitempty"`
}

type FindAvailableAgentsResponse struct {
	Agents []*Agent `json:"agents"`
}

type GetAgentPerformanceRequest struct {
	ID string `json:"id"`
}

type GetAgentPerformanceResponse struct {
	Metrics        PerformanceMetrics `json:"metrics"`
	RecentTasks    []*Task            `json:"recentTasks"`
	CompletedTasks int                `json:"completedTasks"`
	TotalTasks     int                `json:"totalTasks"`
}

// PushNotificationService messages.

type GetVAPIDPublicKeyRequest struct{}

type GetVAPIDPublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

type SubscribePushRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

type SubscribePushResponse struct {
	ID string `json:"id"`
}

type UnsubscribePushRequest struct {
	Endpoint string `json:"endpoint"`
}

type UnsubscribePushResponse struct{}

// Dashboard stream messages.

const (
	MessageTypeConnected  = "CONNECTED"
	MessageTypeTaskUpdate = "TASK_UPDATE"
)

type DashboardMessage struct {
	Type string `json:"type"`
	Task *Task  `json:"task,omitempty"`
}
