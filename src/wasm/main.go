// src/wasm/main.go
//go:build js && wasm
// +build js,wasm

package main

import (
	"encoding/json"
	"syscall/js"

	h2 "github.com/h2lang/h2"
)

// h2Compile is called from JS: h2_compile(source: string) -> JSON string
func h2Compile(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return ""
	}
	result := h2.Compile(args[0].String())
	out, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return string(out)
}

// validateReport is the JSON shape returned by h2_validate: whether the
// source compiles, plus the full error list when it doesn't.
type validateReport struct {
	Valid  bool              `json:"valid"`
	Errors []h2.CompileError `json:"errors"`
}

// h2Validate is called from JS: h2_validate(source: string) -> JSON string
// shaped {valid: bool, errors: [...]}.
func h2Validate(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return ""
	}
	result := h2.Compile(args[0].String())
	report := validateReport{Valid: result.Status == "success", Errors: result.Errors}
	out, err := json.Marshal(report)
	if err != nil {
		return ""
	}
	return string(out)
}

// h2Version is called from JS: h2_version() -> string
func h2Version(this js.Value, args []js.Value) interface{} {
	return h2.Version()
}

func main() {
	js.Global().Set("h2_compile", js.FuncOf(h2Compile))
	js.Global().Set("h2_validate", js.FuncOf(h2Validate))
	js.Global().Set("h2_version", js.FuncOf(h2Version))

	select {}
}
