// Package tui flattens a render tree back into markdown and styles it
// for the terminal with glamour. Layout primitives degrade to simple
// vertical flow; the terminal is a preview surface, not the real UI.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/futurepaul/hypernote-pages/pkg/domain"
)

// NewRenderer returns a function that renders a tree using glamour.
func NewRenderer() func([]*domain.RenderNode) (string, error) {
	r, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // detect light/dark background
	)

	return func(tree []*domain.RenderNode) (string, error) {
		return r.Render(Flatten(tree))
	}
}

// Flatten converts a render tree to markdown text.
func Flatten(tree []*domain.RenderNode) string {
	var b strings.Builder
	for _, n := range tree {
		flattenNode(&b, n)
	}
	return b.String()
}

func flattenNode(b *strings.Builder, n *domain.RenderNode) {
	switch n.Kind {
	case domain.RenderText:
		b.WriteString(n.Text)
		flattenChildren(b, n)
	case domain.RenderHeading:
		level := n.Level
		if level < 1 || level > 6 {
			level = 1
		}
		b.WriteString(strings.Repeat("#", level))
		b.WriteString(" ")
		b.WriteString(n.Text)
		flattenChildren(b, n)
		b.WriteString("\n\n")
	case domain.RenderParagraph:
		b.WriteString(n.Text)
		flattenChildren(b, n)
		b.WriteString("\n\n")
	case domain.RenderEmphasis:
		b.WriteString("*")
		b.WriteString(n.Text)
		flattenChildren(b, n)
		b.WriteString("*")
	case domain.RenderStrong:
		b.WriteString("**")
		b.WriteString(n.Text)
		flattenChildren(b, n)
		b.WriteString("**")
	case domain.RenderCode:
		fmt.Fprintf(b, "`%s`", n.Text)
	case domain.RenderCodeBlock:
		fmt.Fprintf(b, "```\n%s\n```\n\n", n.Text)
	case domain.RenderLink:
		b.WriteString("[")
		b.WriteString(n.Text)
		flattenChildren(b, n)
		fmt.Fprintf(b, "](%s)", n.URL)
	case domain.RenderImage:
		fmt.Fprintf(b, "![%s](%s)\n\n", n.Text, n.URL)
	case domain.RenderList:
		for i, item := range n.Children {
			if n.Ordered {
				fmt.Fprintf(b, "%d. ", i+1)
			} else {
				b.WriteString("- ")
			}
			flattenChildren(b, item)
			b.WriteString(item.Text)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	case domain.RenderNote:
		if n.Text != "" {
			fmt.Fprintf(b, "> %s\n\n", n.Text)
		}
		flattenChildren(b, n)
	case domain.RenderProfile:
		if name := n.Attrs["name"]; name != "" {
			fmt.Fprintf(b, "**%s**\n\n", name)
		}
		flattenChildren(b, n)
	case domain.RenderInput, domain.RenderTextarea:
		fmt.Fprintf(b, "`[%s: %s]`\n\n", n.Field, n.Attrs["value"])
	case domain.RenderButton:
		label := collectText(n)
		if label == "" {
			label = n.Action
		}
		fmt.Fprintf(b, "`( %s )`\n\n", label)
	default:
		// Stacks, unknown elements and anything new flow vertically.
		flattenChildren(b, n)
	}
}

func flattenChildren(b *strings.Builder, n *domain.RenderNode) {
	for _, c := range n.Children {
		flattenNode(b, c)
	}
}

func collectText(n *domain.RenderNode) string {
	var b strings.Builder
	b.WriteString(n.Text)
	for _, c := range n.Children {
		b.WriteString(collectText(c))
	}
	return strings.TrimSpace(b.String())
}
