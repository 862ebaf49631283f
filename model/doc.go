// Package model defines the provider-agnostic abstractions for talking to
// chat models.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, FunctionCallPart)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel, ScriptedModel)
//
// Providers (OpenAI, Anthropic) implement Model in sub-packages so agents and
// flows stay decoupled from vendor SDKs.
package model
