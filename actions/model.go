package actions

// Solana Actions wire types

type ActionGetResponse struct {
	Type        string       `json:"type"`
	Title       string       `json:"title"`
	Icon        string       `json:"icon"`
	Description string       `json:"description"`
	Label       string       `json:"label"`
	Disabled    bool         `json:"disabled,omitempty"`
	Error       *ActionError `json:"error,omitempty"`
	Links       *ActionLinks `json:"links,omitempty"`
}

type ActionLinks struct {
	Actions []LinkedAction `json:"actions"`
}

type LinkedAction struct {
	Type       string            `json:"type"`
	Label      string            `json:"label"`
	Href       string            `json:"href"`
	Parameters []ActionParameter `json:"parameters,omitempty"`
}

type ActionParameter struct {
	Name     string            `json:"name"`
	Label    string            `json:"label,omitempty"`
	Type     string            `json:"type,omitempty"`
	Required bool              `json:"required,omitempty"`
	Options  []ParameterOption `json:"options,omitempty"`
}

type ParameterOption struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected,omitempty"`
}

// ActionPostRequest - body of every POST
type ActionPostRequest struct {
	Account string            `json:"account"`
	Data    map[string]string `json:"data,omitempty"`
}

type ActionPostResponse struct {
	Type        string             `json:"type"`
	Transaction string             `json:"transaction"`
	Message     string             `json:"message,omitempty"`
	Links       *PostResponseLinks `json:"links,omitempty"`
}

type PostResponseLinks struct {
	Next *NextActionLink `json:"next,omitempty"`
}

type NextActionLink struct {
	Type string `json:"type"`
	Href string `json:"href"`
}

// CompletedAction - terminal answer of a next-action POST
type CompletedAction struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Icon        string `json:"icon"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// ActionError - error body of every endpoint
type ActionError struct {
	Message string `json:"message"`
}

// ActionsJSON - /actions.json
type ActionsJSON struct {
	Rules []ActionRule `json:"rules"`
}

type ActionRule struct {
	PathPattern string `json:"pathPattern"`
	APIPath     string `json:"apiPath"`
}

type HealthResponse struct {
	Status   string            `json:"status"`
	Clusters map[string]string `json:"clusters"`
	Database string            `json:"database"`
}

const (
	typeAction      = "action"
	typeTransaction = "transaction"
	typePost        = "post"
	typeCompleted   = "completed"
)
