// Package h2 compiles the H2 robot movement language: source text in,
// per-agent command sequences and a parallel execution timeline out.
package h2

import (
	impl "github.com/h2lang/h2/src"
)

// Program is the parsed abstract syntax tree of an H2 source file.
type Program = impl.Program

// Agent is one robot: its own function table plus a main expression.
type Agent = impl.Agent

// FuncDef is a user-defined function/macro.
type FuncDef = impl.FuncDef

// Limits are the execution bounds in force for a compile.
type Limits = impl.Limits

// CompileError is one coded, positioned compilation failure.
type CompileError = impl.CompileError

// CompileResult is the full result of a Compile call.
type CompileResult = impl.CompileResult

// CompiledProgram is the Success payload of a CompileResult.
type CompiledProgram = impl.CompiledProgram

// CompiledAgent is one agent's expanded command sequence.
type CompiledAgent = impl.CompiledAgent

// ToioCommand is one expanded command with its motion magnitude.
type ToioCommand = impl.ToioCommand

// TimelineEntry is one step-indexed slice of the parallel timeline.
type TimelineEntry = impl.TimelineEntry

// AgentTimelineCommand pairs an agent with the command it contributes at
// one timeline step.
type AgentTimelineCommand = impl.AgentTimelineCommand

// Logger is the compiler's diagnostic sink.
type Logger = impl.Logger

// Compiler runs the full H2 compilation pipeline.
type Compiler = impl.Compiler

// New constructs a Compiler, ready for concurrent use across independent
// Compile calls.
func New() *Compiler {
	return impl.NewCompiler()
}

// NewLogger creates a Logger; debug-level output is suppressed unless
// enabled is true.
func NewLogger(enabled bool) *Logger {
	return impl.NewLogger(enabled)
}

// Compile parses and expands source, returning the full compile-result
// contract.
func Compile(source string) CompileResult {
	return New().Compile(source)
}

// Validate reports only whether source compiles successfully.
func Validate(source string) bool {
	return New().Validate(source)
}

// Version returns the compiler's semantic version string.
func Version() string {
	return impl.Version
}
