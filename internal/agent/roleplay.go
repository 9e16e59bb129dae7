package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/caravanai/caravan/internal/adapter/llm"
)

// TaskDoneMarker is the token the user agent emits when it considers the
// task complete.
const TaskDoneMarker = "<TASK_DONE>"

// Turn is one role-play exchange message tagged with the role label of
// the agent that produced it.
type Turn struct {
	Role    string
	Content string
}

// RolePlay drives a two-agent exchange: a user agent that issues
// instructions toward a task and an assistant agent that carries them
// out. Both agents share one model handle. Steps are serialized, so
// concurrent requests against the same session cannot interleave an
// exchange.
type RolePlay struct {
	assistantRole string
	assistantDesc string
	userRole      string
	userDesc      string
	wordLimit     int

	assistant *Agent
	user      *Agent

	mu            sync.Mutex
	taskPrompt    string
	specifiedTask string
	lastAssistant string
	started       bool
	done          bool
}

// RolePlayParams configures a role-play session.
type RolePlayParams struct {
	AssistantRole        string
	AssistantDescription string
	UserRole             string
	UserDescription      string
	TaskPrompt           string
	WordLimit            int
}

// NewRolePlay creates a role-play session over the given client. The task
// prompt seeds both agents' system prompts; call SpecifyTask first to
// sharpen it.
func NewRolePlay(client llm.ChatClient, model string, params RolePlayParams) *RolePlay {
	rp := &RolePlay{
		assistantRole: params.AssistantRole,
		assistantDesc: strings.TrimSpace(params.AssistantDescription),
		userRole:      params.UserRole,
		userDesc:      strings.TrimSpace(params.UserDescription),
		taskPrompt:    strings.TrimSpace(params.TaskPrompt),
		wordLimit:     params.WordLimit,
	}
	rp.specifiedTask = rp.taskPrompt
	rp.assistant = NewWithSystem(client, model, rp.assistantSystemPrompt())
	rp.user = NewWithSystem(client, model, rp.userSystemPrompt())
	return rp
}

// SpecifyTask runs a one-shot task-specify agent that rewrites the seed
// prompt into a more concrete task, then rebuilds both agents' system
// prompts around it. It must be called before the first Step.
func (rp *RolePlay) SpecifyTask(ctx context.Context, client llm.ChatClient, model string) (string, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.started {
		return "", fmt.Errorf("cannot specify task after the session has started")
	}

	specifier := NewWithSystem(client, model, "You can make a task more specific.")
	prompt := fmt.Sprintf(
		"Here is a task that %s will help %s to complete: %s.\n"+
			"Please make it more specific. Be creative and imaginative.\n"+
			"Reply with the specified task in %d words or less. Do not add anything else.",
		rp.assistantRole, rp.userRole, rp.taskPrompt, specifyWordLimit)
	specified, err := specifier.Step(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to specify task: %w", err)
	}

	rp.specifiedTask = strings.TrimSpace(specified)
	rp.assistant.system = rp.assistantSystemPrompt()
	rp.user.system = rp.userSystemPrompt()
	return rp.specifiedTask, nil
}

const specifyWordLimit = 50

// Step runs one exchange: the user agent produces the next instruction,
// the assistant agent responds. Both turns are returned tagged with their
// role labels. After the user agent emits the done marker the session is
// finished and further steps fail.
func (rp *RolePlay) Step(ctx context.Context) ([]Turn, error) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	if rp.done {
		return nil, fmt.Errorf("role play session is finished")
	}

	userInput := rp.lastAssistant
	if !rp.started {
		userInput = fmt.Sprintf(
			"Now start to give me instructions one by one. "+
				"Only reply with Instruction and Input. Task to complete: %s", rp.specifiedTask)
		rp.started = true
	}

	instruction, err := rp.user.Step(ctx, userInput)
	if err != nil {
		return nil, fmt.Errorf("user agent step failed: %w", err)
	}
	turns := []Turn{{Role: rp.userRole, Content: instruction}}

	if strings.Contains(instruction, TaskDoneMarker) {
		rp.done = true
		return turns, nil
	}

	response, err := rp.assistant.Step(ctx, instruction)
	if err != nil {
		return nil, fmt.Errorf("assistant agent step failed: %w", err)
	}
	rp.lastAssistant = response
	turns = append(turns, Turn{Role: rp.assistantRole, Content: response})
	return turns, nil
}

// Done reports whether the session has terminated.
func (rp *RolePlay) Done() bool {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.done
}

// SpecifiedTask returns the task the agents are working toward, after any
// task-specify rewrite.
func (rp *RolePlay) SpecifiedTask() string {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	return rp.specifiedTask
}

func (rp *RolePlay) assistantSystemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Never forget you are a %s and I am a %s. Never flip roles.\n", rp.assistantRole, rp.userRole)
	if rp.assistantDesc != "" {
		b.WriteString(rp.assistantDesc + "\n")
	}
	fmt.Fprintf(&b, "We share a common interest in collaborating to complete a task: %s\n", rp.specifiedTask)
	b.WriteString("I will instruct you based on your expertise and my needs. " +
		"Answer each instruction with a specific solution and explain your reasoning.")
	if rp.wordLimit > 0 {
		fmt.Fprintf(&b, "\nKeep each response under %d words.", rp.wordLimit)
	}
	return b.String()
}

func (rp *RolePlay) userSystemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Never forget you are a %s and I am a %s. Never flip roles.\n", rp.userRole, rp.assistantRole)
	if rp.userDesc != "" {
		b.WriteString(rp.userDesc + "\n")
	}
	fmt.Fprintf(&b, "We share a common interest in collaborating to complete a task: %s\n", rp.specifiedTask)
	fmt.Fprintf(&b, "You must instruct me to complete the task, one instruction at a time. "+
		"When the task is completed, reply with only %s and nothing else.", TaskDoneMarker)
	if rp.wordLimit > 0 {
		fmt.Fprintf(&b, "\nKeep each instruction under %d words.", rp.wordLimit)
	}
	return b.String()
}
