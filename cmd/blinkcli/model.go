package main

import (
	"fmt"
	"strings"
)

// completedType marks the terminal payload of a chained action
const completedType = "completed"

// postResult is the union of a transaction answer and a completed answer.
type postResult struct {
	Type        string `json:"type"`
	Transaction string `json:"transaction"`
	Message     string `json:"message"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Links       *struct {
		Next *struct {
			Type string `json:"type"`
			Href string `json:"href"`
		} `json:"next"`
	} `json:"links"`
}

func (p postResult) next() string {
	if p.Links == nil || p.Links.Next == nil {
		return ""
	}
	return p.Links.Next.Href
}

type apiError struct {
	Message string `json:"message"`
}

// paramFlags collects repeated -param k=v flags.
type paramFlags map[string]string

func (p paramFlags) String() string {
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}

func (p paramFlags) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	p[k] = v
	return nil
}
