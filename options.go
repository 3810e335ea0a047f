package main

// Options is the root command that groups sub-commands. The struct tags are
// interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Run        *RunCmd        `command:"run"        description:"Generate a career preparation roadmap locally"`
	Worker     *WorkerCmd     `command:"worker"     description:"Consume queued roadmap requests"`
	Deploy     *DeployCmd     `command:"deploy"     description:"Deploy the agent graph to Vertex AI Agent Engine"`
	Get        *GetCmd        `command:"get"        description:"Show a deployed agent"`
	Operations *OperationsCmd `command:"operations" description:"List the operations a deployed agent exposes"`
	List       *ListCmd       `command:"list"       description:"List deployed agents"`
	Query      *QueryCmd      `command:"query"      description:"Send a message to a deployed agent"`
	Delete     *DeleteCmd     `command:"delete"     description:"Delete a deployed agent and its sessions"`
	Config     *ConfigCmd     `command:"config"     description:"Print the current configuration"`
}

// Init instantiates the sub-command referenced by the first argument so that
// the parser can populate its fields.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "run":
		o.Run = &RunCmd{}
	case "worker":
		o.Worker = &WorkerCmd{}
	case "deploy":
		o.Deploy = &DeployCmd{}
	case "get":
		o.Get = &GetCmd{}
	case "operations":
		o.Operations = &OperationsCmd{}
	case "list":
		o.List = &ListCmd{}
	case "query":
		o.Query = &QueryCmd{}
	case "delete":
		o.Delete = &DeleteCmd{}
	case "config":
		o.Config = &ConfigCmd{}
	}
}
