package h2

import "fmt"

// Version is the semantic version of the compiler, bumped alongside
// observable changes to the compile-result contract.
const Version = "1.0.0"

// ToioCommand is one expanded command, carrying both its kind and the
// numeric magnitude a motion host would apply.
type ToioCommand struct {
	Kind      string `json:"kind" yaml:"kind"`
	Magnitude int    `json:"magnitude" yaml:"magnitude"`
}

const (
	kindStraight    = "straight"
	kindRotateRight = "rotate_right"
	kindRotateLeft  = "rotate_left"
)

func toioCommandFor(cmd byte) ToioCommand {
	switch cmd {
	case 's':
		return ToioCommand{Kind: kindStraight, Magnitude: 1}
	case 'r':
		return ToioCommand{Kind: kindRotateRight, Magnitude: 90}
	case 'l':
		return ToioCommand{Kind: kindRotateLeft, Magnitude: -90}
	default:
		return ToioCommand{}
	}
}

// CompiledAgent is the per-agent expansion result in the compile-result
// contract.
type CompiledAgent struct {
	AgentID  int           `json:"agent_id" yaml:"agent_id"`
	Commands []ToioCommand `json:"commands" yaml:"commands"`
}

// AgentTimelineCommand pairs an agent with the command it contributes at
// one timeline step, in the serializable form.
type AgentTimelineCommand struct {
	AgentID int    `json:"agent_id" yaml:"agent_id"`
	Command string `json:"command" yaml:"command"`
}

// TimelineEntry is one serializable timeline slice.
type TimelineEntry struct {
	Step          int                    `json:"step" yaml:"step"`
	AgentCommands []AgentTimelineCommand `json:"agent_commands" yaml:"agent_commands"`
}

// CompiledProgram is the Success payload of a compile result.
type CompiledProgram struct {
	Agents   []CompiledAgent `json:"agents" yaml:"agents"`
	MaxSteps int             `json:"max_steps" yaml:"max_steps"`
	Timeline []TimelineEntry `json:"timeline" yaml:"timeline"`
}

// CompileResult is the tagged union returned by Compile: exactly one of
// Program or Errors is populated, discriminated by Status.
type CompileResult struct {
	Status  string           `json:"status" yaml:"status"`
	Program *CompiledProgram `json:"program,omitempty" yaml:"program,omitempty"`
	Errors  []CompileError   `json:"errors,omitempty" yaml:"errors,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Compiler runs the full pipeline: directive stripping, lexing, parsing
// with type inference, expansion, and timeline assembly.
type Compiler struct{}

// NewCompiler constructs a Compiler. It holds no state and is safe for
// concurrent use across independent Compile calls.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile runs the pipeline over source and returns the full result
// contract: a populated CompiledProgram on success, or the complete list
// of errors collected across every agent on failure.
func (c *Compiler) Compile(source string) CompileResult {
	prog, perrs := ParseProgram(source)
	if len(perrs) > 0 {
		return CompileResult{Status: statusError, Errors: toCompileErrors(perrs)}
	}

	results, eerrs := ExpandProgram(prog)
	if len(eerrs) > 0 {
		return CompileResult{Status: statusError, Errors: toCompileErrors(eerrs)}
	}

	timeline := AssembleTimeline(results)
	return CompileResult{Status: statusSuccess, Program: buildCompiledProgram(results, timeline)}
}

// Validate reports only whether source compiles successfully.
func (c *Compiler) Validate(source string) bool {
	return c.Compile(source).Status == statusSuccess
}

func buildCompiledProgram(results []AgentResult, timeline []TimelineStep) *CompiledProgram {
	agents := make([]CompiledAgent, len(results))
	for i, r := range results {
		cmds := make([]ToioCommand, len(r.Commands))
		for j, cmd := range r.Commands {
			cmds[j] = toioCommandFor(cmd)
		}
		agents[i] = CompiledAgent{AgentID: r.AgentID, Commands: cmds}
	}

	entries := make([]TimelineEntry, len(timeline))
	for i, step := range timeline {
		acs := make([]AgentTimelineCommand, len(step.AgentCommands))
		for j, ac := range step.AgentCommands {
			acs[j] = AgentTimelineCommand{AgentID: ac.AgentID, Command: toioCommandFor(ac.Command).Kind}
		}
		entries[i] = TimelineEntry{Step: step.Step, AgentCommands: acs}
	}

	return &CompiledProgram{
		Agents:   agents,
		MaxSteps: len(timeline),
		Timeline: entries,
	}
}

func toCompileErrors(errs []*phaseError) []CompileError {
	out := make([]CompileError, len(errs))
	for i, e := range errs {
		out[i] = e.ToCompileError()
	}
	return out
}

// String implements fmt.Stringer for debugging; it is not part of the
// serialization contract.
func (r CompileResult) String() string {
	if r.Status == statusSuccess {
		return fmt.Sprintf("success: %d agent(s), %d step(s)", len(r.Program.Agents), r.Program.MaxSteps)
	}
	return fmt.Sprintf("error: %d issue(s)", len(r.Errors))
}
