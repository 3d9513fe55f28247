package main

import (
	"testing"

	"github.com/lucidframe/conversa/internal/config"
)

func TestBuildRootCmdIncludesServe(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	if !names["serve"] {
		t.Fatalf("expected \"serve\" subcommand to be registered")
	}
}

func TestBuildProvidersRejectsUnknownProviderName(t *testing.T) {
	_, err := buildProviders(config.LLMConfig{
		Providers: map[string]config.LLMProviderConfig{
			"carrier-pigeon": {APIKey: "x"},
		},
	})
	if err == nil {
		t.Fatal("expected an error for an unrecognized provider name")
	}
}

func TestBuildProvidersConstructsKnownProviders(t *testing.T) {
	ps, err := buildProviders(config.LLMConfig{
		Providers: map[string]config.LLMProviderConfig{
			"anthropic": {APIKey: "sk-ant-test"},
			"openai":    {APIKey: "sk-test"},
		},
	})
	if err != nil {
		t.Fatalf("buildProviders: %v", err)
	}
	if len(ps) != 2 {
		t.Fatalf("expected 2 providers, got %d", len(ps))
	}
	if ps["anthropic"].Name() != "anthropic" {
		t.Fatalf("anthropic provider name = %q", ps["anthropic"].Name())
	}
	if ps["openai"].Name() != "openai" {
		t.Fatalf("openai provider name = %q", ps["openai"].Name())
	}
}

func TestBuildToolsIncludesWebSearchOnlyWhenEnabled(t *testing.T) {
	without := buildTools(config.ToolsConfig{})
	if _, ok := without.Get("WebSearch"); ok {
		t.Fatal("expected WebSearch tool absent when websearch.enabled is false")
	}

	with := buildTools(config.ToolsConfig{
		WebSearch: config.WebSearchConfig{Enabled: true, Provider: "duckduckgo"},
	})
	if _, ok := with.Get("WebSearch"); !ok {
		t.Fatal("expected WebSearch tool present when websearch.enabled is true")
	}
}
