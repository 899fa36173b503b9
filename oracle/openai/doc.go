// Package openai implements the research decision oracle on top of an
// OpenAI-compatible chat completions API. Every judgment call returns a
// typed decision; raw model output is validated at this boundary so the
// pipeline's phases only ever see well-formed decisions or an error.
package openai
